package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"snapbooth/internal/api"
	"snapbooth/internal/config"
	"snapbooth/internal/session"

	"github.com/gin-gonic/gin"
)

// シャットダウンの待ち時間
const shutdownTimeout = 5 * time.Second

// Server はHTTPサーバーを管理する構造体
type Server struct {
	config     *config.Config
	httpServer *http.Server
	engine     *gin.Engine
	session    *session.Controller
	hub        *Hub
	logger     *slog.Logger
}

// New は新しいServerインスタンスを作成する
func New(cfg *config.Config, controller *session.Controller, hub *Hub, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "server")

	validator, err := api.NewRequestValidator()
	if err != nil {
		return nil, fmt.Errorf("リクエスト検証の初期化に失敗: %w", err)
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(logger), validator)

	s := &Server{
		config:  cfg,
		engine:  engine,
		session: controller,
		hub:     hub,
		logger:  logger,
		httpServer: &http.Server{
			Addr:         cfg.ServerAddress(),
			Handler:      engine,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}
	if err := s.setupRoutes(); err != nil {
		return nil, err
	}

	return s, nil
}

// setupRoutes はHTTPルートを設定する
func (s *Server) setupRoutes() error {
	handler := &SnapboothHandler{
		config:  s.config,
		session: s.session,
		hub:     s.hub,
		logger:  s.logger,
	}

	// APIエンドポイント
	api.RegisterHandlersWithOptions(s.engine, handler, api.GinServerOptions{
		ErrorHandler: func(c *gin.Context, err error, statusCode int) {
			sendError(c, statusCode, "invalid_request", "リクエストが不正です", err)
		},
	})

	// 静的ファイル
	assets, err := assetsFS()
	if err != nil {
		return err
	}
	page, err := indexHTML()
	if err != nil {
		return err
	}
	s.engine.StaticFS("/assets", assets)
	s.engine.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
	})

	return nil
}

// Handler はルーティング済みのハンドラを返す
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start はサーバーを起動する
func (s *Server) Start(ctx context.Context) error {
	// シャットダウン用のチャンネル
	shutdownCh := make(chan error, 1)

	// サーバーを別ゴルーチンで起動
	go func() {
		s.logger.Info("server: HTTPサーバーを起動しています", "addr", s.config.ServerAddress())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			shutdownCh <- fmt.Errorf("サーバーの起動に失敗: %w", err)
		}
	}()

	// 最初のカメラを起動する
	go func() {
		if err := s.session.Init(ctx); err != nil {
			s.logger.Warn("server: カメラの自動起動に失敗しました", "error", err)
		}
	}()

	// シグナルハンドリング
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	// コンテキストかシグナルを待つ
	select {
	case <-ctx.Done():
		s.logger.Info("server: コンテキストがキャンセルされました")
	case sig := <-sigCh:
		s.logger.Info("server: シグナルを受信しました", "signal", sig.String())
	case err := <-shutdownCh:
		s.session.Close()
		s.hub.Close()
		return err
	}

	// グレースフルシャットダウン
	return s.Shutdown()
}

// Shutdown はサーバーをグレースフルにシャットダウンする
// ストリーミング応答を終わらせるため、先にセッションとイベント配信を閉じる
func (s *Server) Shutdown() error {
	s.logger.Info("server: サーバーをシャットダウンしています")

	s.session.Close()
	s.hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("サーバーのシャットダウンに失敗: %w", err)
	}

	s.logger.Info("server: サーバーが正常にシャットダウンされました")
	return nil
}

// requestLogger はリクエストをログに残すミドルウェア
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("server: リクエストを処理しました",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
