package media

import (
	"errors"
	"mime"
	"strings"
	"time"

	"snapbooth/internal/camera"
)

// DefaultTimeslice はチャンクを配信する既定の間隔
const DefaultTimeslice = 100 * time.Millisecond

var (
	// ErrNotSupported は対応していないMIMEタイプが指定された
	ErrNotSupported = errors.New("対応していないMIMEタイプです")

	// ErrInvalidState は現在の状態では実行できない操作が呼ばれた
	ErrInvalidState = errors.New("レコーダーの状態が不正です")

	// ErrInactiveStream は終了済みのストリームで録画しようとした
	ErrInactiveStream = errors.New("ストリームが終了しています")
)

// RecorderState はレコーダーの状態
type RecorderState string

const (
	RecorderInactive  RecorderState = "inactive"
	RecorderRecording RecorderState = "recording"
)

// RecorderHandlers はレコーダーからの通知を受け取る
// すべてのハンドラは同じゴルーチンから到着順に呼ばれる
type RecorderHandlers struct {
	// OnDataAvailable はチャンクごとに呼ばれる。サイズ0のチャンクもありうる
	OnDataAvailable func(Blob)

	// OnStop は最後のチャンクの後に1度だけ呼ばれる
	OnStop func()

	// OnError はエンコーダーが異常終了した場合に OnStop の前に呼ばれる
	OnError func(error)
}

// RecorderOptions はレコーダー作成時のオプション
type RecorderOptions struct {
	MIMEType string
	Handlers RecorderHandlers
}

// Recorder はストリームをチャンク単位で録画する
type Recorder interface {
	// Start は録画を開始し、timeslice ごとにチャンクを配信する
	Start(timeslice time.Duration) error

	// Stop は録画の停止を要求する。完了は OnStop で通知される
	Stop()

	State() RecorderState
	MIMEType() string
}

// RecorderFactory はストリームに対するレコーダーを作成する
type RecorderFactory func(stream camera.Stream, opts RecorderOptions) (Recorder, error)

// IsTypeSupported は録画に使えるMIMEタイプかを返す
func IsTypeSupported(mimeType string) bool {
	_, err := encoderFor(mimeType)
	return err == nil
}

// encoderFor はMIMEタイプに対応するffmpegのエンコーダー名を返す
func encoderFor(mimeType string) (string, error) {
	mediaType, params, err := mime.ParseMediaType(mimeType)
	if err != nil || mediaType != "video/webm" {
		return "", ErrNotSupported
	}

	switch strings.ToLower(params["codecs"]) {
	case "", "vp9", "vp9.0":
		return "libvpx-vp9", nil
	case "vp8", "vp8.0":
		return "libvpx", nil
	}
	return "", ErrNotSupported
}
