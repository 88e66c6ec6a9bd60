// Package app は各コンポーネントを組み立ててマスター制御プロセスを動かす
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"multicam/internal/camera"
	"multicam/internal/config"
	"multicam/internal/server"
	"multicam/internal/store"
	"multicam/internal/transport"
)

// flushTimeout は停止時に未送信のコマンドを送り切るまでの猶予
const flushTimeout = 2 * time.Second

// App はマスター制御プロセス全体
type App struct {
	config     *config.Config
	db         *sql.DB
	sender     transport.Sender
	dispatcher *transport.Dispatcher
	manager    *camera.DefaultCameraManager
	heartbeat  *transport.HeartbeatListener
	server     *server.Server
	started    bool
}

// New は設定からコンポーネントを組み立てる
func New(cfg *config.Config) (*App, error) {
	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	repo, err := store.NewSQLiteRepository(db, cfg.Settings.Limits())
	if err != nil {
		db.Close()
		return nil, err
	}

	var sender transport.Sender
	if cfg.Network.Mock {
		log.Warn("モックモードで起動します。カメラユニットには送信しません")
		sender = transport.NewMockSender()
	} else {
		sender = transport.NewUDPSender(cfg.Network.SendTimeout)
	}

	dispatcher := transport.NewDispatcher(sender, transport.Options{
		MaxRetries:      cfg.Network.MaxRetries,
		ShutdownRetries: cfg.Network.ShutdownRetries,
		RetryInterval:   cfg.Network.RetryInterval,
		QueueSize:       cfg.Network.QueueSize,
	})
	manager := camera.NewDefaultCameraManager(cfg, dispatcher, repo)
	dispatcher.OnResult(manager.HandleResult)

	srv, err := server.New(cfg, manager, dispatcher)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("HTTPサーバーの初期化に失敗: %w", err)
	}

	return &App{
		config:     cfg,
		db:         db,
		sender:     sender,
		dispatcher: dispatcher,
		manager:    manager,
		heartbeat:  transport.NewHeartbeatListener(cfg.Network.HeartbeatListen, manager.MarkSeen),
		server:     srv,
	}, nil
}

// Start はHTTPサーバー以外のコンポーネントを開始する
func (a *App) Start(ctx context.Context) error {
	// 送信ワーカーは Close で止める
	a.dispatcher.Start(context.WithoutCancel(ctx))
	if err := a.manager.Start(ctx); err != nil {
		a.dispatcher.Stop()
		return fmt.Errorf("カメラ管理の開始に失敗: %w", err)
	}
	if err := a.heartbeat.Start(ctx); err != nil {
		_ = a.manager.Stop(ctx)
		a.dispatcher.Stop()
		return err
	}
	a.started = true
	return nil
}

// Run は全コンポーネントを開始し、停止要求を受けるまでHTTPサーバーを動かす
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		a.Close()
		return err
	}
	err := a.server.Start(ctx)
	a.Close()
	return err
}

// Handler はHTTP APIのハンドラを返す
func (a *App) Handler() http.Handler {
	return a.server.Handler()
}

// Close は未送信のコマンドを送り切ってから全コンポーネントを停止する
func (a *App) Close() {
	if a.started {
		if err := a.heartbeat.Stop(); err != nil {
			log.Warnf("生存通知の受信停止に失敗: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		if err := a.dispatcher.Flush(ctx); err != nil {
			log.Warn(err)
		}
		cancel()

		_ = a.manager.Stop(context.Background())
		a.started = false
	}
	a.dispatcher.Stop()

	if err := a.db.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		log.Warnf("データベースのクローズに失敗: %v", err)
	}
}
