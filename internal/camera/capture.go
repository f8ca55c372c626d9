package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // DecodeConfig 用
	"io"
	"os/exec"
	"strconv"
	"time"
)

var (
	jpegSOI = []byte{0xFF, 0xD8}
	jpegEOI = []byte{0xFF, 0xD9}
)

// V4L2Capturer はffmpegを使ってV4L2デバイスからMJPEGフレームを取得する
type V4L2Capturer struct {
	ffmpegPath string
	devicePath string
	width      int // 0 の場合はデバイスの既定値
	height     int
	fps        int
	quality    int
}

// NewV4L2Capturer は新しいV4L2Capturerを作成する
func NewV4L2Capturer(ffmpegPath, devicePath string, width, height, fps, quality int) *V4L2Capturer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &V4L2Capturer{
		ffmpegPath: ffmpegPath,
		devicePath: devicePath,
		width:      width,
		height:     height,
		fps:        fps,
		quality:    quality,
	}
}

// inputArgs はv4l2入力部分の引数を組み立てる
func (c *V4L2Capturer) inputArgs() []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-f", "v4l2"}
	if c.width > 0 && c.height > 0 {
		args = append(args, "-video_size", fmt.Sprintf("%dx%d", c.width, c.height))
	}
	if c.fps > 0 {
		args = append(args, "-framerate", strconv.Itoa(c.fps))
	}
	return append(args, "-i", c.devicePath)
}

// streamArgs は連続キャプチャ用の引数を組み立てる
func (c *V4L2Capturer) streamArgs() []string {
	return append(c.inputArgs(),
		"-f", "image2pipe",
		"-c:v", "mjpeg",
		"-q:v", strconv.Itoa(c.quality),
		"-",
	)
}

// CaptureFrameAsJPEG は1フレームをキャプチャしてJPEGバイト配列として返す
func (c *V4L2Capturer) CaptureFrameAsJPEG(ctx context.Context) ([]byte, error) {
	args := append(c.inputArgs(),
		"-vframes", "1",
		"-f", "image2",
		"-c:v", "mjpeg",
		"-q:v", "2", // 高品質JPEG
		"-",
	)
	cmd := exec.CommandContext(ctx, c.ffmpegPath, args...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("JPEGフレームキャプチャに失敗: %w (stderr: %s)", err, stderr.String())
	}

	return stdout.Bytes(), nil
}

// TestCapture はデバイスから1フレーム取得できるか確認し、実際の解像度を返す
func (c *V4L2Capturer) TestCapture(ctx context.Context, timeout time.Duration) (width, height int, err error) {
	testCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	frame, err := c.CaptureFrameAsJPEG(testCtx)
	if err != nil {
		return 0, 0, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(frame))
	if err != nil {
		return 0, 0, fmt.Errorf("JPEG画像のデコードに失敗: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// WithSize は解像度を差し替えたコピーを返す
func (c *V4L2Capturer) WithSize(width, height int) *V4L2Capturer {
	cp := *c
	cp.width = width
	cp.height = height
	return &cp
}

// StartStream は連続キャプチャ用のストリームを開始する
// ctx がキャンセルされるとffmpegプロセスは終了し、frameChan は閉じられる
func (c *V4L2Capturer) StartStream(ctx context.Context, frameChan chan<- []byte, errorChan chan<- error) {
	defer close(frameChan)

	cmd := exec.CommandContext(ctx, c.ffmpegPath, c.streamArgs()...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		sendError(errorChan, fmt.Errorf("stdoutパイプの作成に失敗: %w", err))
		return
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		sendError(errorChan, fmt.Errorf("ffmpegの起動に失敗: %w", err))
		return
	}
	defer func() {
		_ = cmd.Wait() // エラーは無視（コンテキストキャンセル時に発生するため）
	}()

	buffer := make([]byte, 256*1024)
	var frameBuffer bytes.Buffer

	for {
		n, err := stdout.Read(buffer)
		if n > 0 {
			frameBuffer.Write(buffer[:n])
			for _, frame := range extractJPEGFrames(&frameBuffer) {
				select {
				case frameChan <- frame:
				case <-ctx.Done():
					return
				}
			}
		}
		if err != nil {
			if ctx.Err() == nil {
				if errors.Is(err, io.EOF) {
					err = fmt.Errorf("ffmpegが終了しました (stderr: %s)", stderr.String())
				}
				sendError(errorChan, fmt.Errorf("フレーム読み取りエラー: %w", err))
			}
			return
		}
	}
}

// extractJPEGFrames はバッファから完全なJPEGフレームを取り出し、未完成の残りをバッファに戻す
func extractJPEGFrames(buf *bytes.Buffer) [][]byte {
	var frames [][]byte

	for {
		data := buf.Bytes()

		startIdx := bytes.Index(data, jpegSOI)
		if startIdx == -1 {
			// マーカーが読み込み境界で分割されている可能性があるため末尾1バイトだけ残す
			if len(data) > 1 {
				last := data[len(data)-1]
				buf.Reset()
				buf.WriteByte(last)
			}
			return frames
		}

		endIdx := bytes.Index(data[startIdx+len(jpegSOI):], jpegEOI)
		if endIdx == -1 {
			if startIdx > 0 {
				rest := append([]byte(nil), data[startIdx:]...)
				buf.Reset()
				buf.Write(rest)
			}
			return frames
		}
		endIdx += startIdx + len(jpegSOI) + len(jpegEOI)

		frame := make([]byte, endIdx-startIdx)
		copy(frame, data[startIdx:endIdx])
		frames = append(frames, frame)

		rest := append([]byte(nil), data[endIdx:]...)
		buf.Reset()
		buf.Write(rest)
	}
}

// sendError はエラーチャンネルが詰まっている場合は送信を諦める
func sendError(errorChan chan<- error, err error) {
	select {
	case errorChan <- err:
	default:
	}
}
