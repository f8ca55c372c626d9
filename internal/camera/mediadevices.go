package camera

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Options はV4L2MediaDevicesの設定
type Options struct {
	FFmpegPath  string
	FPS         int
	JPEGQuality int
	OpenTimeout time.Duration
	Logger      *slog.Logger
}

// V4L2MediaDevices はV4L2デバイスを使うMediaDevices実装
type V4L2MediaDevices struct {
	discovery Discovery
	opts      Options
	logger    *slog.Logger
}

// NewV4L2MediaDevices は新しいV4L2MediaDevicesを作成する
func NewV4L2MediaDevices(discovery Discovery, opts Options) *V4L2MediaDevices {
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 10 * time.Second
	}
	if opts.JPEGQuality <= 0 {
		opts.JPEGQuality = 3
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &V4L2MediaDevices{
		discovery: discovery,
		opts:      opts,
		logger:    logger.With("component", "camera"),
	}
}

// EnumerateDevices は検出されたカメラのデバイス記述子を返す
func (m *V4L2MediaDevices) EnumerateDevices(ctx context.Context) ([]Device, error) {
	paths, err := m.discovery.ScanDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("デバイスの列挙に失敗: %w", err)
	}

	devices := make([]Device, 0, len(paths))
	for _, path := range paths {
		var label string
		if info, err := m.discovery.GetDeviceInfo(ctx, path); err == nil {
			label = info.Name
		}
		devices = append(devices, Device{
			ID:     DeviceIDForPath(path),
			Label:  label,
			Kind:   KindVideoInput,
			Path:   path,
			Facing: GuessFacing(label),
		})
	}

	return devices, nil
}

// GetUserMedia は制約に合うデバイスを開き、ストリームを返す
func (m *V4L2MediaDevices) GetUserMedia(ctx context.Context, constraints Constraints) (Stream, error) {
	devices, err := m.EnumerateDevices(ctx)
	if err != nil {
		return nil, err
	}

	device, err := SelectDevice(devices, constraints)
	if err != nil {
		return nil, err
	}

	if err := checkAccess(device.Path); err != nil {
		return nil, err
	}

	capturer := NewV4L2Capturer(m.opts.FFmpegPath, device.Path, constraints.Width, constraints.Height, m.opts.FPS, m.opts.JPEGQuality)

	width, height, err := capturer.TestCapture(ctx, m.opts.OpenTimeout)
	if err != nil && constraints.Width > 0 {
		// 希望解像度は理想値なので、失敗したらデバイスの既定値で再試行する
		m.logger.Info("camera: 希望解像度で開けませんでした。既定値で再試行します",
			"device", device.Path, "width", constraints.Width, "height", constraints.Height, "error", err)
		capturer = capturer.WithSize(0, 0)
		width, height, err = capturer.TestCapture(ctx, m.opts.OpenTimeout)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotReadable, device.Path, err)
	}

	settings := TrackSettings{
		DeviceID:  device.ID,
		Width:     width,
		Height:    height,
		FrameRate: m.opts.FPS,
	}

	m.logger.Info("camera: ストリームを開始しました", "device", device.Path, "width", width, "height", height)
	return startV4L2Stream(capturer, device, settings, m.logger), nil
}

// SelectDevice は制約に基づいてデバイスを選択する
func SelectDevice(devices []Device, constraints Constraints) (Device, error) {
	var videoDevices []Device
	for _, d := range devices {
		if d.Kind == KindVideoInput {
			videoDevices = append(videoDevices, d)
		}
	}

	if constraints.DeviceID != "" {
		for _, d := range videoDevices {
			if d.ID == constraints.DeviceID {
				return d, nil
			}
		}
		return Device{}, fmt.Errorf("%w: %s", ErrOverconstrained, constraints.DeviceID)
	}

	if len(videoDevices) == 0 {
		return Device{}, ErrNotFound
	}

	// 向きは優先指定なので、該当がなければ先頭のデバイスを使う
	if constraints.FacingMode != FacingUnknown {
		for _, d := range videoDevices {
			if d.Facing == constraints.FacingMode {
				return d, nil
			}
		}
	}

	return videoDevices[0], nil
}

// DeviceIDForPath はデバイスパスから安定した不透明IDを生成する
func DeviceIDForPath(path string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("v4l2://"+path)).String()
}

// GuessFacing はデバイス名からカメラの向きを推定する
func GuessFacing(label string) FacingMode {
	lower := strings.ToLower(label)
	for _, keyword := range []string{"back", "rear", "environment", "world"} {
		if strings.Contains(lower, keyword) {
			return FacingEnvironment
		}
	}
	for _, keyword := range []string{"front", "user", "facetime", "integrated"} {
		if strings.Contains(lower, keyword) {
			return FacingUser
		}
	}
	return FacingUnknown
}

// checkAccess はデバイスノードを開けるか確認する
func checkAccess(path string) error {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return fmt.Errorf("%w: %s", ErrNotAllowed, path)
		}
		return fmt.Errorf("%w: %s: %v", ErrNotReadable, path, err)
	}
	return file.Close()
}
