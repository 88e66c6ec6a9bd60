package main

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"

	"multicam/internal/app"
	"multicam/internal/config"
	"multicam/internal/logging"
)

func main() {
	// 設定を読み込む
	cfg, err := config.Load(os.Getenv("MULTICAM_CONFIG"))
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	closer, err := logging.Configure(cfg.Log.Level, cfg.Log.Dir)
	if err != nil {
		log.Fatalf("ログの設定に失敗しました: %v", err)
	}
	if closer != nil {
		defer closer.Close()
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("初期化に失敗しました: %v", err)
	}

	// サーバーを起動
	if err := a.Run(context.Background()); err != nil {
		log.Errorf("サーバーの起動に失敗しました: %v", err)
		os.Exit(1)
	}
}
