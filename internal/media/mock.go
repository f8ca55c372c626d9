package media

import (
	"sync"
	"time"

	"snapbooth/internal/camera"
)

// MockRecorderFactory はテスト用にMockRecorderを作成する
type MockRecorderFactory struct {
	mu        sync.Mutex
	err       error
	autoAck   bool
	recorders []*MockRecorder
}

// NewMockRecorderFactory は新しいMockRecorderFactoryを作成する
func NewMockRecorderFactory() *MockRecorderFactory {
	return &MockRecorderFactory{}
}

// New はRecorderFactoryとして使える
func (f *MockRecorderFactory) New(stream camera.Stream, opts RecorderOptions) (Recorder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	if _, err := encoderFor(opts.MIMEType); err != nil {
		return nil, err
	}

	rec := &MockRecorder{
		stream:   stream,
		mimeType: opts.MIMEType,
		handlers: opts.Handlers,
		autoAck:  f.autoAck,
		state:    RecorderInactive,
	}
	f.recorders = append(f.recorders, rec)
	return rec, nil
}

// SetError はテスト用に作成失敗を設定する
func (f *MockRecorderFactory) SetError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// SetAutoAck が true の場合、Stop で即座に停止完了を通知する
func (f *MockRecorderFactory) SetAutoAck(autoAck bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.autoAck = autoAck
}

// Recorders はこれまでに作成したレコーダーを返す
func (f *MockRecorderFactory) Recorders() []*MockRecorder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*MockRecorder(nil), f.recorders...)
}

// Last は最後に作成したレコーダーを返す
func (f *MockRecorderFactory) Last() *MockRecorder {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.recorders) == 0 {
		return nil
	}
	return f.recorders[len(f.recorders)-1]
}

// MockRecorder はテスト用のレコーダー
// チャンクや停止完了はテストから明示的に発生させる
type MockRecorder struct {
	stream   camera.Stream
	mimeType string
	handlers RecorderHandlers
	autoAck  bool

	mu        sync.Mutex
	state     RecorderState
	timeslice time.Duration
	stopCalls int
	acked     bool
}

func (r *MockRecorder) Start(timeslice time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != RecorderInactive || r.timeslice != 0 {
		return ErrInvalidState
	}
	r.state = RecorderRecording
	r.timeslice = timeslice
	return nil
}

func (r *MockRecorder) Stop() {
	r.mu.Lock()
	r.stopCalls++
	wasRecording := r.state == RecorderRecording
	r.state = RecorderInactive
	autoAck := r.autoAck
	r.mu.Unlock()

	if wasRecording && autoAck {
		r.Ack()
	}
}

func (r *MockRecorder) State() RecorderState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *MockRecorder) MIMEType() string { return r.mimeType }

// Stream は録画対象のストリームを返す
func (r *MockRecorder) Stream() camera.Stream { return r.stream }

// Timeslice は Start に渡された間隔を返す
func (r *MockRecorder) Timeslice() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timeslice
}

// StopCalls は Stop が呼ばれた回数を返す
func (r *MockRecorder) StopCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopCalls
}

// EmitChunk はチャンクを配信する
func (r *MockRecorder) EmitChunk(data []byte) {
	if r.handlers.OnDataAvailable != nil {
		r.handlers.OnDataAvailable(Blob{Data: data, Type: r.mimeType})
	}
}

// EmitSize は指定サイズのチャンクを配信する
func (r *MockRecorder) EmitSize(size int, fill byte) {
	data := make([]byte, size)
	for i := range data {
		data[i] = fill
	}
	r.EmitChunk(data)
}

// Fail はエラーを通知する
func (r *MockRecorder) Fail(err error) {
	if r.handlers.OnError != nil {
		r.handlers.OnError(err)
	}
}

// Ack は停止完了を1度だけ通知する
func (r *MockRecorder) Ack() {
	r.mu.Lock()
	if r.acked {
		r.mu.Unlock()
		return
	}
	r.acked = true
	r.state = RecorderInactive
	r.mu.Unlock()

	if r.handlers.OnStop != nil {
		r.handlers.OnStop()
	}
}
