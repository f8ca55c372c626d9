package camera

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MockMediaDevices はテスト用のモックMediaDevices実装
type MockMediaDevices struct {
	mu sync.Mutex

	devices         []Device
	enumerateErr    error
	getUserMediaErr error

	gates     map[string]chan struct{}
	requests  []Constraints
	requested chan Constraints
	streams   []*MockStream
	overlaps  int
}

// NewMockMediaDevices は新しいMockMediaDevicesを作成する
func NewMockMediaDevices(devices ...Device) *MockMediaDevices {
	return &MockMediaDevices{
		devices:   devices,
		gates:     make(map[string]chan struct{}),
		requested: make(chan Constraints, 16),
	}
}

// EnumerateDevices はモックデバイス一覧を返す
func (m *MockMediaDevices) EnumerateDevices(_ context.Context) ([]Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.enumerateErr != nil {
		return nil, m.enumerateErr
	}
	return append([]Device(nil), m.devices...), nil
}

// GetUserMedia はモックストリームを返す
// Hold されたデバイスへの要求は解放されるまで待機する
func (m *MockMediaDevices) GetUserMedia(ctx context.Context, constraints Constraints) (Stream, error) {
	m.mu.Lock()
	m.requests = append(m.requests, constraints)
	for _, s := range m.streams {
		if s.Active() {
			m.overlaps++
		}
	}
	failErr := m.getUserMediaErr
	gate := m.gates[constraints.DeviceID]
	devices := append([]Device(nil), m.devices...)
	m.mu.Unlock()

	select {
	case m.requested <- constraints:
	default:
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if failErr != nil {
		return nil, failErr
	}

	device, err := SelectDevice(devices, constraints)
	if err != nil {
		return nil, err
	}

	stream := NewMockStream(device, constraints.Width, constraints.Height)

	m.mu.Lock()
	m.streams = append(m.streams, stream)
	m.mu.Unlock()

	return stream, nil
}

// SetEnumerateError はテスト用に列挙失敗を設定する
func (m *MockMediaDevices) SetEnumerateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enumerateErr = err
}

// SetGetUserMediaError はテスト用にストリーム取得失敗を設定する
func (m *MockMediaDevices) SetGetUserMediaError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getUserMediaErr = err
}

// Hold は指定デバイスIDへの要求を保留させ、解放関数を返す
func (m *MockMediaDevices) Hold(deviceID string) func() {
	gate := make(chan struct{})

	m.mu.Lock()
	m.gates[deviceID] = gate
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.gates, deviceID)
			m.mu.Unlock()
			close(gate)
		})
	}
}

// Requested は要求を受け付けるたびに制約を通知するチャンネルを返す
func (m *MockMediaDevices) Requested() <-chan Constraints {
	return m.requested
}

// Requests はこれまでの要求一覧を返す
func (m *MockMediaDevices) Requests() []Constraints {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Constraints(nil), m.requests...)
}

// Streams はこれまでに発行したストリーム一覧を返す
func (m *MockMediaDevices) Streams() []*MockStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*MockStream(nil), m.streams...)
}

// Overlaps は既存ストリームが動作中のまま新しい要求を受けた回数を返す
func (m *MockMediaDevices) Overlaps() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overlaps
}

// MockStream はテスト用のモックストリーム
type MockStream struct {
	id          string
	track       *MockTrack
	broadcaster *frameBroadcaster
}

// NewMockStream は映像トラックを1本持つモックストリームを作成する
func NewMockStream(device Device, width, height int) *MockStream {
	s := &MockStream{
		id:          uuid.New().String(),
		broadcaster: newFrameBroadcaster(),
	}
	s.track = &MockTrack{
		id:    uuid.New().String(),
		label: device.Label,
		settings: TrackSettings{
			DeviceID:  device.ID,
			Width:     width,
			Height:    height,
			FrameRate: 30,
		},
		state: TrackLive,
		onEnd: s.broadcaster.close,
	}
	return s
}

// PushFrame はテスト用にフレームを配信する
func (s *MockStream) PushFrame(frame []byte) {
	s.broadcaster.publish(frame)
}

// Track は映像トラックを返す
func (s *MockStream) Track() *MockTrack { return s.track }

func (s *MockStream) ID() string { return s.id }

func (s *MockStream) Tracks() []Track { return []Track{s.track} }

func (s *MockStream) VideoTracks() []Track { return []Track{s.track} }

func (s *MockStream) Active() bool { return s.track.ReadyState() == TrackLive }

func (s *MockStream) LatestFrame() ([]byte, bool) { return s.broadcaster.latestFrame() }

func (s *MockStream) Subscribe() (<-chan []byte, func()) { return s.broadcaster.subscribe() }

// MockTrack はテスト用のモックトラック
type MockTrack struct {
	id       string
	label    string
	settings TrackSettings

	mu        sync.Mutex
	state     TrackState
	stopCount int
	onEnd     func()
}

func (t *MockTrack) ID() string { return t.id }

func (t *MockTrack) Kind() Kind { return KindVideoInput }

func (t *MockTrack) Label() string { return t.label }

func (t *MockTrack) Settings() TrackSettings { return t.settings }

func (t *MockTrack) ReadyState() TrackState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Stop はトラックを終了状態にする
func (t *MockTrack) Stop() {
	t.mu.Lock()
	t.stopCount++
	wasLive := t.state == TrackLive
	t.state = TrackEnded
	t.mu.Unlock()

	if wasLive {
		t.onEnd()
	}
}

// StopCount はStopが呼ばれた回数を返す
func (t *MockTrack) StopCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopCount
}
