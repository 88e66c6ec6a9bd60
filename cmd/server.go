// Package main はmulticamマスター制御サーバーコマンドの実装です
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kardianos/service"
	log "github.com/sirupsen/logrus"

	"multicam/internal/app"
	"multicam/internal/config"
	"multicam/internal/logging"
)

// program はOSのサービス管理から起動される
type program struct {
	configPath string
	host       string
	port       int

	cancel context.CancelFunc
	done   chan struct{}
	closer io.Closer
}

// Start はサービスを非同期に開始する
func (p *program) Start(s service.Service) error {
	cfg, err := p.loadConfig()
	if err != nil {
		return err
	}

	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("初期化に失敗しました: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		log.Infof("multicam サーバーを起動します: %s", cfg.ServerAddress())
		if err := a.Run(ctx); err != nil {
			log.Errorf("サーバーが異常終了しました: %v", err)
		}
	}()
	return nil
}

// Stop はサービスを停止し、終了処理が終わるまで待つ
func (p *program) Stop(s service.Service) error {
	log.Info("サービスを停止しています")
	if p.cancel != nil {
		p.cancel()
		<-p.done
	}
	if p.closer != nil {
		_ = p.closer.Close()
	}
	return nil
}

// loadConfig は設定を読み込み、コマンドラインオプションで上書きしてからロガーを設定する
func (p *program) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(p.configPath)
	if err != nil {
		return nil, fmt.Errorf("設定の読み込みに失敗しました: %w", err)
	}

	if p.host != "" {
		cfg.Server.Host = p.host
	}
	if p.port != 0 {
		cfg.Server.Port = p.port
	}

	closer, err := logging.Configure(cfg.Log.Level, cfg.Log.Dir)
	if err != nil {
		return nil, err
	}
	p.closer = closer
	return cfg, nil
}

func newService(p *program) (service.Service, error) {
	args := []string{}
	if p.configPath != "" {
		abs, err := filepath.Abs(p.configPath)
		if err != nil {
			return nil, err
		}
		args = append(args, "-config", abs)
	}

	svcConfig := &service.Config{
		Name:        "multicam",
		DisplayName: "multicam master control",
		Description: "8台のカメラユニットを制御するマスターサービス",
		Arguments:   args,
	}
	return service.New(p, svcConfig)
}

func main() {
	// コマンドラインオプション
	var (
		host       = flag.String("host", "", "サーバーのホスト (デフォルト: 0.0.0.0)")
		port       = flag.Int("port", 0, "サーバーのポート (デフォルト: 8080)")
		configPath = flag.String("config", "", "設定ファイル (YAML) のパス")
		op         = flag.String("service", "", "サービス操作: install, uninstall, start, stop")
		help       = flag.Bool("help", false, "ヘルプを表示")
	)

	flag.Parse()

	// ヘルプ表示
	if *help {
		fmt.Println("multicam")
		fmt.Println()
		fmt.Println("使用方法:")
		fmt.Println("  server [オプション]")
		fmt.Println()
		fmt.Println("オプション:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	prg := &program{configPath: *configPath, host: *host, port: *port}
	svc, err := newService(prg)
	if err != nil {
		log.Fatalf("サービスの初期化に失敗しました: %v", err)
	}

	if *op != "" {
		if err := service.Control(svc, *op); err != nil {
			log.Fatalf("サービス操作 %s に失敗しました (有効な操作: %v): %v", *op, service.ControlAction, err)
		}
		log.Infof("サービス操作 %s を実行しました", *op)
		return
	}

	// 端末から起動した場合もサービス管理から起動した場合もここで停止まで待つ
	if err := svc.Run(); err != nil {
		log.Fatalf("サーバーの実行に失敗しました: %v", err)
	}
}
