package server

import (
	"log/slog"
	"sync"

	"snapbooth/internal/session"
)

const (
	// イベント名
	eventAlert = "alert"
	eventState = "state"

	// クライアントごとの送信バッファ
	clientBuffer = 32

	// 接続がない間に保持するアラートの最大数
	maxPendingAlerts = 8
)

// Event はクライアントへ配信する1件のイベント
type Event struct {
	Name string
	Data any
}

// Hub はセッションからの通知をSSEクライアントへ配信する
// session.Notifier を実装する
type Hub struct {
	mu      sync.Mutex
	clients map[chan Event]struct{}
	pending []string
	closed  bool
	logger  *slog.Logger
}

// NewHub は新しいHubを作成する
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[chan Event]struct{}),
		logger:  logger.With("component", "events"),
	}
}

// Alert は確認が必要な通知を配信する
// 接続中のクライアントがいなければ次の接続まで保持する
func (h *Hub) Alert(message string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	if len(h.clients) == 0 {
		if len(h.pending) >= maxPendingAlerts {
			h.pending = h.pending[1:]
		}
		h.pending = append(h.pending, message)
		return
	}
	h.broadcastLocked(Event{Name: eventAlert, Data: message})
}

// StateChanged はセッション状態を配信する
func (h *Hub) StateChanged(snapshot session.Snapshot) {
	state := toSessionState(snapshot)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.broadcastLocked(Event{Name: eventState, Data: state})
}

func (h *Hub) broadcastLocked(event Event) {
	for ch := range h.clients {
		select {
		case ch <- event:
		default:
			// 受信が追いつかないクライアントには送らない
			h.logger.Warn("events: クライアントのバッファが一杯のためイベントを破棄しました", "event", event.Name)
		}
	}
}

// Subscribe はイベントの購読を開始する
// 保持していたアラートは最初の購読者へ送られる
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, clientBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	for _, message := range h.pending {
		ch <- Event{Name: eventAlert, Data: message}
	}
	h.pending = nil
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.clients[ch]; ok {
				delete(h.clients, ch)
				close(ch)
			}
		})
	}
	return ch, unsubscribe
}

// ClientCount は接続中のクライアント数を返す
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close はすべての購読を終了する
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.clients {
		delete(h.clients, ch)
		close(ch)
	}
}
