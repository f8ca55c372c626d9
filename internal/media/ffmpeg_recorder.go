package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"snapbooth/internal/camera"
)

// stopTimeout は停止要求後にエンコーダーの終了を待つ最大時間
const stopTimeout = 10 * time.Second

// FFmpegConfig はFFmpegRecorderの設定
type FFmpegConfig struct {
	FFmpegPath string
	FPS        int
	CRF        int
	Logger     *slog.Logger
}

// NewFFmpegRecorderFactory はFFmpegRecorderを作成するRecorderFactoryを返す
func NewFFmpegRecorderFactory(cfg FFmpegConfig) RecorderFactory {
	return func(stream camera.Stream, opts RecorderOptions) (Recorder, error) {
		return NewFFmpegRecorder(stream, opts, cfg)
	}
}

// FFmpegRecorder はストリームのMJPEGフレームをffmpegでWebMにエンコードする
type FFmpegRecorder struct {
	cfg      FFmpegConfig
	encoder  string
	mimeType string
	stream   camera.Stream
	handlers RecorderHandlers
	logger   *slog.Logger

	mu          sync.Mutex
	state       RecorderState
	started     bool
	pending     bytes.Buffer
	unsubscribe func()
	cancel      context.CancelFunc
}

// NewFFmpegRecorder は新しいFFmpegRecorderを作成する
func NewFFmpegRecorder(stream camera.Stream, opts RecorderOptions, cfg FFmpegConfig) (*FFmpegRecorder, error) {
	encoder, err := encoderFor(opts.MIMEType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, opts.MIMEType)
	}
	if stream == nil || !stream.Active() {
		return nil, ErrInactiveStream
	}

	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FPS <= 0 {
		cfg.FPS = 15
	}
	if cfg.CRF <= 0 {
		cfg.CRF = 32
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &FFmpegRecorder{
		cfg:      cfg,
		encoder:  encoder,
		mimeType: opts.MIMEType,
		stream:   stream,
		handlers: opts.Handlers,
		logger:   logger.With("component", "recorder"),
		state:    RecorderInactive,
	}, nil
}

// args はエンコード用のffmpeg引数を組み立てる
func (r *FFmpegRecorder) args() []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "mjpeg",
		"-framerate", strconv.Itoa(r.cfg.FPS),
		"-i", "pipe:0",
		"-c:v", r.encoder,
		"-crf", strconv.Itoa(r.cfg.CRF),
		"-b:v", "0",
		"-deadline", "realtime",
		"-cpu-used", "8",
		"-pix_fmt", "yuv420p",
		"-f", "webm",
		"pipe:1",
	}
}

// Start はffmpegを起動してストリームの購読を開始する
func (r *FFmpegRecorder) Start(timeslice time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return ErrInvalidState
	}
	if timeslice <= 0 {
		timeslice = DefaultTimeslice
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, r.cfg.FFmpegPath, r.args()...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("stdinパイプの作成に失敗: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("stdoutパイプの作成に失敗: %w", err)
	}
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("ffmpegの起動に失敗: %w", err)
	}

	frames, unsubscribe := r.stream.Subscribe()
	r.unsubscribe = unsubscribe
	r.cancel = cancel
	r.state = RecorderRecording
	r.started = true

	outputDone := make(chan struct{})
	go r.feed(frames, stdin, unsubscribe)
	go r.readOutput(stdout, outputDone)
	go r.deliver(cmd, stderr, timeslice, outputDone)

	r.logger.Info("recorder: 録画を開始しました", "stream", r.stream.ID(), "encoder", r.encoder, "timeslice", timeslice)
	return nil
}

// Stop は購読を解除してエンコーダーの入力を閉じる
func (r *FFmpegRecorder) Stop() {
	r.mu.Lock()
	if r.state != RecorderRecording {
		r.mu.Unlock()
		return
	}
	r.state = RecorderInactive
	unsubscribe := r.unsubscribe
	cancel := r.cancel
	r.mu.Unlock()

	unsubscribe()
	time.AfterFunc(stopTimeout, cancel)
}

func (r *FFmpegRecorder) State() RecorderState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *FFmpegRecorder) MIMEType() string { return r.mimeType }

// feed はフレームをffmpegの標準入力に書き込む
// フレームのチャンネルが閉じられると（停止要求またはストリーム終了）入力を閉じる
func (r *FFmpegRecorder) feed(frames <-chan []byte, stdin io.WriteCloser, unsubscribe func()) {
	defer func() {
		_ = stdin.Close()
	}()

	for frame := range frames {
		if _, err := stdin.Write(frame); err != nil {
			r.logger.Warn("recorder: フレームの書き込みに失敗", "error", err)
			unsubscribe()
			return
		}
	}
}

// readOutput はエンコード結果を未配信バッファに溜める
func (r *FFmpegRecorder) readOutput(stdout io.Reader, done chan<- struct{}) {
	defer close(done)

	buf := make([]byte, 64*1024)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			r.mu.Lock()
			r.pending.Write(buf[:n])
			r.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// deliver はハンドラを呼ぶ唯一のゴルーチン
func (r *FFmpegRecorder) deliver(cmd *exec.Cmd, stderr *bytes.Buffer, timeslice time.Duration, outputDone <-chan struct{}) {
	ticker := time.NewTicker(timeslice)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.emitChunk()

		case <-outputDone:
			err := cmd.Wait()
			r.cancel()
			r.emitChunk()

			r.mu.Lock()
			r.state = RecorderInactive
			r.mu.Unlock()

			if err != nil {
				err = fmt.Errorf("エンコーダーが異常終了しました: %w (stderr: %s)", err, stderr.String())
				r.logger.Error("recorder: 録画に失敗しました", "stream", r.stream.ID(), "error", err)
				if r.handlers.OnError != nil {
					r.handlers.OnError(err)
				}
			}
			r.logger.Info("recorder: 録画を停止しました", "stream", r.stream.ID())
			if r.handlers.OnStop != nil {
				r.handlers.OnStop()
			}
			return
		}
	}
}

// emitChunk は未配信のバイト列を1チャンクとして配信する
func (r *FFmpegRecorder) emitChunk() {
	r.mu.Lock()
	data := bytes.Clone(r.pending.Bytes())
	r.pending.Reset()
	r.mu.Unlock()

	if r.handlers.OnDataAvailable != nil {
		r.handlers.OnDataAvailable(Blob{Data: data, Type: r.mimeType})
	}
}

// ValidateFFmpeg はFFmpegが利用可能かチェックする
func ValidateFFmpeg(ctx context.Context, ffmpegPath string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, ffmpegPath, "-version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("FFmpegが見つかりません。インストールしてください: %w", err)
	}

	return nil
}
