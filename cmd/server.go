// Package main はsnapboothサーバーコマンドの実装です
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"snapbooth/internal/config"
	"snapbooth/internal/server"
)

func main() {
	// コマンドラインオプション
	var (
		host       = flag.String("host", "", "サーバーのホスト (デフォルト: 0.0.0.0)")
		port       = flag.Int("port", 0, "サーバーのポート (デフォルト: 8080)")
		configPath = flag.String("config", "", "設定ファイルのパス (デフォルト: $"+config.ConfigPathEnv+")")
		debug      = flag.Bool("debug", false, "デバッグログを出力")
		help       = flag.Bool("help", false, "ヘルプを表示")
	)

	flag.Parse()

	// ヘルプ表示
	if *help {
		fmt.Println("snapbooth")
		fmt.Println()
		fmt.Println("使用方法:")
		fmt.Println("  server [オプション]")
		fmt.Println()
		fmt.Println("オプション:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// 設定を読み込む
	path := *configPath
	if path == "" {
		path = os.Getenv(config.ConfigPathEnv)
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		logger.Error("設定の読み込みに失敗しました", "error", err)
		os.Exit(1)
	}

	// コマンドラインオプションで設定を上書き
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("設定が不正です", "error", err)
		os.Exit(1)
	}

	srv, err := server.NewFromConfig(cfg, logger)
	if err != nil {
		logger.Error("サーバーの作成に失敗しました", "error", err)
		os.Exit(1)
	}

	logger.Info("snapbooth サーバーを起動します", "addr", cfg.ServerAddress())
	if err := srv.Start(context.Background()); err != nil {
		logger.Error("サーバーの起動に失敗しました", "error", err)
		os.Exit(1)
	}
}
