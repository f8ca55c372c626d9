package main

import (
	"context"
	"log/slog"
	"os"

	"snapbooth/internal/config"
	"snapbooth/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	// 設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		logger.Error("設定の読み込みに失敗しました", "error", err)
		os.Exit(1)
	}

	// サーバーを作成
	srv, err := server.NewFromConfig(cfg, logger)
	if err != nil {
		logger.Error("サーバーの作成に失敗しました", "error", err)
		os.Exit(1)
	}

	// サーバーを起動
	if err := srv.Start(context.Background()); err != nil {
		logger.Error("サーバーの起動に失敗しました", "error", err)
		os.Exit(1)
	}
}
