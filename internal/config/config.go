// Package config はアプリケーション設定の読み込みと検証を担う
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ConfigPathEnv は設定ファイルのパスを指定する環境変数名
const ConfigPathEnv = "SNAPBOOTH_CONFIG"

// Config はアプリケーション全体の設定を保持する構造体
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Camera    CameraConfig    `yaml:"camera"`
	Recording RecordingConfig `yaml:"recording"`
}

// ServerConfig はHTTPサーバーの設定
type ServerConfig struct {
	Host string `yaml:"host" env:"SERVER_HOST" validate:"required"`       // リッスンするホスト
	Port int    `yaml:"port" env:"SERVER_PORT" validate:"min=1,max=65535"` // リッスンするポート番号

	// タイムアウト設定
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" validate:"gte=0"`   // 読み込みタイムアウト
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" validate:"gte=0"` // 書き込みタイムアウト
}

// CameraConfig はカメラ取得時の設定
type CameraConfig struct {
	// 検出対象のデバイスパターン
	DeviceGlob string `yaml:"device_glob" env:"SNAPBOOTH_DEVICE_GLOB" validate:"required"`

	// 希望する解像度（理想値）
	IdealWidth  int `yaml:"ideal_width" env:"SNAPBOOTH_IDEAL_WIDTH" validate:"min=1,max=4096"`
	IdealHeight int `yaml:"ideal_height" env:"SNAPBOOTH_IDEAL_HEIGHT" validate:"min=1,max=4096"`

	FPS int `yaml:"fps" env:"SNAPBOOTH_FPS" validate:"min=1,max=60"`

	// デバイス未指定時に優先するカメラの向き
	FacingMode string `yaml:"facing_mode" env:"SNAPBOOTH_FACING_MODE" validate:"omitempty,oneof=user environment"`

	// ffmpeg の -q:v 値
	JPEGQuality int `yaml:"jpeg_quality" env:"SNAPBOOTH_JPEG_QUALITY" validate:"min=2,max=31"`

	OpenTimeout time.Duration `yaml:"open_timeout" env:"SNAPBOOTH_OPEN_TIMEOUT" validate:"gt=0"`
}

// RecordingConfig は録画の設定
type RecordingConfig struct {
	MIMEType   string        `yaml:"mime_type" env:"SNAPBOOTH_RECORDING_MIME" validate:"required"` // レコーダーに要求するMIMEタイプ
	Timeslice  time.Duration `yaml:"timeslice" env:"SNAPBOOTH_TIMESLICE" validate:"gt=0"`         // データ配信の間隔
	FFmpegPath string        `yaml:"ffmpeg_path" env:"SNAPBOOTH_FFMPEG" validate:"required"`      // ffmpeg 実行ファイル
	CRF        int           `yaml:"crf" env:"SNAPBOOTH_CRF" validate:"min=0,max=63"`             // VP9 の品質
}

// Default はデフォルト設定を返す
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 0, // ストリーミング用にタイムアウト無効化
		},
		Camera: CameraConfig{
			DeviceGlob:  "/dev/video*",
			IdealWidth:  1280,
			IdealHeight: 720,
			FPS:         15,
			FacingMode:  "environment",
			JPEGQuality: 3,
			OpenTimeout: 10 * time.Second,
		},
		Recording: RecordingConfig{
			MIMEType:   "video/webm;codecs=vp9",
			Timeslice:  100 * time.Millisecond,
			FFmpegPath: "ffmpeg",
			CRF:        32,
		},
	}
}

// Load は SNAPBOOTH_CONFIG が指す設定ファイルと環境変数から設定を読み込む
func Load() (*Config, error) {
	return LoadFile(os.Getenv(ConfigPathEnv))
}

// LoadFile は指定された YAML ファイルから設定を読み込む
// path が空の場合はデフォルト値と環境変数のみを使う
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("設定ファイルの解析に失敗 (%s): %w", path, err)
		}
	}

	// 環境変数で上書き
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("環境変数の解析に失敗: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}

	return cfg, nil
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("無効な設定: %w", err)
	}
	return nil
}

// ServerAddress はサーバーのリッスンアドレスを返す
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
