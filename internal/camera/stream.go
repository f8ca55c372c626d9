package camera

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

const subscriberBuffer = 10

// frameBroadcaster は最新フレームの保持と購読者への配信を担う
// 購読者のチャンネルがフルの場合は古いフレームを破棄する
type frameBroadcaster struct {
	mu      sync.RWMutex
	latest  []byte
	subs    map[uint64]chan []byte
	nextSub uint64
	closed  bool
}

func newFrameBroadcaster() *frameBroadcaster {
	return &frameBroadcaster{subs: make(map[uint64]chan []byte)}
}

// publish はフレームを保存し全購読者に配信する
func (b *frameBroadcaster) publish(frame []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.latest = frame

	for _, ch := range b.subs {
		select {
		case ch <- frame:
		default:
			// チャンネルがフルの場合は古いフレームを破棄
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- frame:
			default:
			}
		}
	}
}

func (b *frameBroadcaster) latestFrame() ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.latest == nil {
		return nil, false
	}
	frame := make([]byte, len(b.latest))
	copy(frame, b.latest)
	return frame, true
}

func (b *frameBroadcaster) subscribe() (<-chan []byte, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan []byte, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextSub
	b.nextSub++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
}

// close は全購読者のチャンネルを閉じる
func (b *frameBroadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

// v4l2Stream はV4L2デバイスから取得したライブストリーム
type v4l2Stream struct {
	id          string
	track       *v4l2Track
	broadcaster *frameBroadcaster
	logger      *slog.Logger
}

// v4l2Track はv4l2Streamの映像トラック
type v4l2Track struct {
	id       string
	label    string
	settings TrackSettings

	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.RWMutex
	state TrackState
	once  sync.Once
	onEnd func()
}

// startV4L2Stream はキャプチャを開始してストリームを返す
// ストリームの寿命はリクエストのコンテキストから切り離される
func startV4L2Stream(capturer *V4L2Capturer, device Device, settings TrackSettings, logger *slog.Logger) *v4l2Stream {
	ctx, cancel := context.WithCancel(context.Background())

	s := &v4l2Stream{
		id:          uuid.New().String(),
		broadcaster: newFrameBroadcaster(),
		logger:      logger,
	}
	s.track = &v4l2Track{
		id:       uuid.New().String(),
		label:    device.Label,
		settings: settings,
		cancel:   cancel,
		done:     make(chan struct{}),
		state:    TrackLive,
		onEnd:    s.broadcaster.close,
	}

	frameChan := make(chan []byte, subscriberBuffer)
	errorChan := make(chan error, 5)

	go capturer.StartStream(ctx, frameChan, errorChan)
	go s.forwardFrames(ctx, frameChan, errorChan)

	return s
}

// forwardFrames はキャプチャからのフレームを購読者へ転送する
func (s *v4l2Stream) forwardFrames(ctx context.Context, frameChan <-chan []byte, errorChan <-chan error) {
	defer close(s.track.done)
	defer s.track.end()

	for {
		select {
		case <-ctx.Done():
			return

		case frame, ok := <-frameChan:
			if !ok {
				// キャプチャが終了した（デバイス切断など）
				select {
				case err := <-errorChan:
					s.logger.Warn("camera: キャプチャが終了しました", "stream", s.id, "error", err)
				default:
				}
				return
			}
			s.broadcaster.publish(frame)
		}
	}
}

func (s *v4l2Stream) ID() string { return s.id }

func (s *v4l2Stream) Tracks() []Track { return []Track{s.track} }

func (s *v4l2Stream) VideoTracks() []Track { return []Track{s.track} }

func (s *v4l2Stream) Active() bool { return s.track.ReadyState() == TrackLive }

func (s *v4l2Stream) LatestFrame() ([]byte, bool) { return s.broadcaster.latestFrame() }

func (s *v4l2Stream) Subscribe() (<-chan []byte, func()) { return s.broadcaster.subscribe() }

func (t *v4l2Track) ID() string { return t.id }

func (t *v4l2Track) Kind() Kind { return KindVideoInput }

func (t *v4l2Track) Label() string { return t.label }

func (t *v4l2Track) Settings() TrackSettings { return t.settings }

func (t *v4l2Track) ReadyState() TrackState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Stop はffmpegを停止し、転送ゴルーチンの終了を待つ
func (t *v4l2Track) Stop() {
	t.cancel()
	<-t.done
}

func (t *v4l2Track) end() {
	t.once.Do(func() {
		t.mu.Lock()
		t.state = TrackEnded
		t.mu.Unlock()
		t.onEnd()
	})
}
