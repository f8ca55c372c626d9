package camera

import (
	"context"
)

// Kind はデバイスの種類を表す
type Kind string

const (
	KindVideoInput  Kind = "videoinput"  // カメラ
	KindAudioInput  Kind = "audioinput"  // マイク
	KindAudioOutput Kind = "audiooutput" // スピーカー
)

// FacingMode はカメラの向きを表す
type FacingMode string

const (
	FacingUnknown     FacingMode = ""
	FacingUser        FacingMode = "user"        // 利用者側（フロント）
	FacingEnvironment FacingMode = "environment" // 外側（リア）
)

// Device はデバイス記述子
type Device struct {
	ID     string     `json:"id"`     // 不透明な識別子
	Label  string     `json:"label"`  // 表示名（取得できない場合は空）
	Kind   Kind       `json:"kind"`   // デバイスの種類
	Path   string     `json:"-"`      // デバイスパス（例: /dev/video0）
	Facing FacingMode `json:"facing"` // 推定された向き
}

// Constraints はストリーム取得時の制約
type Constraints struct {
	// DeviceID が空でない場合は完全一致で要求する
	DeviceID string

	// 希望解像度（満たせない場合はデバイスの既定値を使う）
	Width  int
	Height int

	// DeviceID が空の場合のみ使われる優先向き
	FacingMode FacingMode
}

// TrackSettings は実際に有効になったトラックの設定
type TrackSettings struct {
	DeviceID  string `json:"device_id"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	FrameRate int    `json:"frame_rate"`
}

// TrackState はトラックの状態
type TrackState string

const (
	TrackLive  TrackState = "live"
	TrackEnded TrackState = "ended"
)

// Track はストリームを構成する1本のメディアトラック
type Track interface {
	ID() string
	Kind() Kind
	Label() string
	Settings() TrackSettings
	ReadyState() TrackState

	// Stop はトラックを停止しデバイスを解放する。複数回呼んでも安全
	Stop()
}

// Stream はカメラからのライブストリーム
type Stream interface {
	ID() string
	Tracks() []Track
	VideoTracks() []Track

	// Active はいずれかのトラックが動作中かを返す
	Active() bool

	// LatestFrame は最新のJPEGフレームのコピーを返す
	LatestFrame() ([]byte, bool)

	// Subscribe はフレームの購読を開始する
	// 返されたチャンネルはストリーム終了時または解除関数の呼び出し時に閉じられる
	Subscribe() (<-chan []byte, func())
}

// MediaDevices はデバイス列挙とストリーム取得を提供する
type MediaDevices interface {
	// EnumerateDevices は利用可能な入力デバイスを列挙する
	EnumerateDevices(ctx context.Context) ([]Device, error)

	// GetUserMedia は制約を満たすストリームを取得する
	GetUserMedia(ctx context.Context, constraints Constraints) (Stream, error)
}

// Discovery はカメラデバイスの検出機能を提供する
type Discovery interface {
	// ScanDevices はシステム内の利用可能なカメラデバイスをスキャンする
	ScanDevices(ctx context.Context) ([]string, error)

	// IsDeviceAvailable は指定されたデバイスが利用可能かチェックする
	IsDeviceAvailable(ctx context.Context, device string) bool

	// GetDeviceInfo はデバイスの詳細情報を取得する
	GetDeviceInfo(ctx context.Context, device string) (*DeviceInfo, error)
}

// DeviceInfo はカメラデバイスの詳細情報を表す
type DeviceInfo struct {
	Device string // デバイスパス
	Name   string // デバイス名（取得できない場合は空）
	Driver string // ドライバー名
}

// StopAllTracks はストリームの全トラックを停止する
func StopAllTracks(stream Stream) {
	if stream == nil {
		return
	}
	for _, track := range stream.Tracks() {
		track.Stop()
	}
}
