package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"multicam/api"
	"multicam/internal/camera"
	"multicam/internal/config"
	"multicam/internal/generated"
	"multicam/internal/transport"
)

// StatsProvider は送信統計を提供する
// transport.Dispatcher が実装する
type StatsProvider interface {
	Stats() transport.Stats
}

// Server はHTTPサーバーを管理する構造体
type Server struct {
	config     *config.Config
	engine     *gin.Engine
	httpServer *http.Server
	handler    *MulticamHandler
	validator  *requestValidator
}

// New は新しいServerインスタンスを作成する
func New(cfg *config.Config, manager camera.Manager, stats StatsProvider) (*Server, error) {
	validator, err := newRequestValidator(api.Spec)
	if err != nil {
		return nil, err
	}

	if cfg.Log.Level != "debug" && gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(requestLogger())
	engine.Use(gin.Recovery())

	h := &MulticamHandler{
		config:  cfg,
		manager: manager,
		stats:   stats,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 操作画面は同じLAN内から開く
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	s := &Server{
		config:    cfg,
		engine:    engine,
		handler:   h,
		validator: validator,
		httpServer: &http.Server{
			Addr:         cfg.ServerAddress(),
			Handler:      engine,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}
	s.setupRoutes()

	return s, nil
}

// Handler はルーティング済みのハンドラを返す
func (s *Server) Handler() http.Handler {
	return s.engine
}

// setupRoutes はHTTPルートを設定する
func (s *Server) setupRoutes() {
	h := s.handler

	// OpenAPI定義の外にある操作画面とイベント配信
	s.engine.GET("/", h.Index)
	s.engine.GET("/ws/events", h.EventStream)

	generated.RegisterHandlersWithOptions(s.engine, h, generated.GinServerOptions{
		Middlewares:  []generated.MiddlewareFunc{s.validator.Validate},
		ErrorHandler: writeParamError,
	})
}

// requestLogger はリクエストをlogrusに記録するミドルウェア
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start),
		}).Debug("HTTPリクエスト")
	}
}

// Start はサーバーを起動する
func (s *Server) Start(ctx context.Context) error {
	// シャットダウン用のチャンネル
	shutdownCh := make(chan error, 1)

	// サーバーを別ゴルーチンで起動
	go func() {
		log.Infof("HTTPサーバーを起動しています: %s", s.config.ServerAddress())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			shutdownCh <- fmt.Errorf("サーバーの起動に失敗: %w", err)
		}
	}()

	// シグナルハンドリング
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
		log.Info("コンテキストがキャンセルされました")
	case sig := <-sigCh:
		log.Infof("シグナルを受信しました: %v", sig)
	case err := <-shutdownCh:
		return err
	}

	// グレースフルシャットダウン
	return s.Shutdown()
}

// Shutdown はサーバーをグレースフルにシャットダウンする
func (s *Server) Shutdown() error {
	log.Info("サーバーをシャットダウンしています...")

	// 5秒のタイムアウトを設定
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("サーバーのシャットダウンに失敗: %w", err)
	}

	log.Info("サーバーが正常にシャットダウンされました")
	return nil
}
