package server

import (
	"context"
	"log/slog"
	"time"

	"snapbooth/internal/camera"
	"snapbooth/internal/config"
	"snapbooth/internal/gallery"
	"snapbooth/internal/media"
	"snapbooth/internal/session"
)

// NewFromConfig は設定からV4L2カメラとffmpegレコーダーを使うサーバーを組み立てる
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// ffmpeg がなければ撮影も録画もできないが、起動は続ける
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := media.ValidateFFmpeg(ctx, cfg.Recording.FFmpegPath); err != nil {
		logger.Warn("ffmpeg が利用できません", "path", cfg.Recording.FFmpegPath, "error", err)
	}

	devices := camera.NewV4L2MediaDevices(
		camera.NewLinuxDiscovery(cfg.Camera.DeviceGlob),
		camera.Options{
			FFmpegPath:  cfg.Recording.FFmpegPath,
			FPS:         cfg.Camera.FPS,
			JPEGQuality: cfg.Camera.JPEGQuality,
			OpenTimeout: cfg.Camera.OpenTimeout,
			Logger:      logger,
		},
	)

	recorders := media.NewFFmpegRecorderFactory(media.FFmpegConfig{
		FFmpegPath: cfg.Recording.FFmpegPath,
		FPS:        cfg.Camera.FPS,
		CRF:        cfg.Recording.CRF,
		Logger:     logger,
	})

	store := gallery.NewObjectStore()
	hub := NewHub(logger)

	controller := session.NewController(session.Options{
		Devices:       devices,
		NewRecorder:   recorders,
		Store:         store,
		Gallery:       gallery.New(store),
		Notifier:      hub,
		Logger:        logger,
		IdealWidth:    cfg.Camera.IdealWidth,
		IdealHeight:   cfg.Camera.IdealHeight,
		FacingMode:    camera.FacingMode(cfg.Camera.FacingMode),
		RecordingMIME: cfg.Recording.MIMEType,
		Timeslice:     cfg.Recording.Timeslice,
	})

	return New(cfg, controller, hub, logger)
}
