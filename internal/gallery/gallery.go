package gallery

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"snapbooth/internal/media"
)

// ErrItemNotFound は指定IDの項目が存在しない
var ErrItemNotFound = errors.New("ギャラリー項目が見つかりません")

// Kind は成果物の種類
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Item はギャラリーの1項目
type Item struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	URL       string    `json:"url"`       // 一時的な参照URL
	MIMEType  string    `json:"mime_type"` // 成果物のMIMEタイプ
	Size      int       `json:"size"`      // バイト数
	CreatedAt time.Time `json:"created_at"`
}

// Gallery は新しい順に並んだ項目一覧
type Gallery struct {
	mu    sync.RWMutex
	store *ObjectStore
	items []Item
	now   func() time.Time
}

// New は新しいGalleryを作成する
func New(store *ObjectStore) *Gallery {
	return &Gallery{
		store: store,
		now:   time.Now,
	}
}

// Add は参照URLの成果物を項目として先頭に追加する
func (g *Gallery) Add(url string, kind Kind) (Item, error) {
	blob, ok := g.store.Resolve(url)
	if !ok {
		return Item{}, fmt.Errorf("%w: %s", ErrObjectNotFound, url)
	}

	item := Item{
		ID:        uuid.NewString(),
		Kind:      kind,
		URL:       url,
		MIMEType:  blob.Type,
		Size:      blob.Size(),
		CreatedAt: g.now(),
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.items = append([]Item{item}, g.items...)
	return item, nil
}

// Items は項目一覧のコピーを新しい順に返す
func (g *Gallery) Items() []Item {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Item(nil), g.items...)
}

// Get は指定IDの項目を返す
func (g *Gallery) Get(id string) (Item, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, item := range g.items {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

// Open は指定IDの項目と成果物を返す
func (g *Gallery) Open(id string) (Item, media.Blob, error) {
	item, ok := g.Get(id)
	if !ok {
		return Item{}, media.Blob{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}

	blob, ok := g.store.Resolve(item.URL)
	if !ok {
		return Item{}, media.Blob{}, fmt.Errorf("%w: %s", ErrObjectNotFound, item.URL)
	}
	return item, blob, nil
}

// Remove は項目を削除し、参照URLを破棄する
func (g *Gallery) Remove(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, item := range g.items {
		if item.ID == id {
			g.items = append(g.items[:i], g.items[i+1:]...)
			g.store.RevokeObjectURL(item.URL)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrItemNotFound, id)
}

// Len は項目数を返す
func (g *Gallery) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.items)
}

// DownloadName はダウンロード時のファイル名を返す（例: photo-2024-05-01.png）
func DownloadName(item Item) string {
	date := item.CreatedAt.UTC().Format(time.DateOnly)
	if item.Kind == KindVideo {
		return fmt.Sprintf("video-%s.webm", date)
	}
	return fmt.Sprintf("photo-%s.png", date)
}
