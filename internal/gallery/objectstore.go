package gallery

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"snapbooth/internal/media"
)

const urlScheme = "blob:"

// ErrObjectNotFound は参照URLが存在しないか破棄済み
var ErrObjectNotFound = errors.New("オブジェクトが見つかりません")

// ObjectStore は成果物を一時的な参照URLで保持する
type ObjectStore struct {
	mu      sync.RWMutex
	objects map[string]media.Blob
}

// NewObjectStore は新しいObjectStoreを作成する
func NewObjectStore() *ObjectStore {
	return &ObjectStore{objects: make(map[string]media.Blob)}
}

// CreateObjectURL はBlobを登録し参照URLを返す
func (s *ObjectStore) CreateObjectURL(blob media.Blob) string {
	url := urlScheme + uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[url] = blob
	return url
}

// Resolve は参照URLからBlobを取得する
func (s *ObjectStore) Resolve(url string) (media.Blob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.objects[url]
	return blob, ok
}

// RevokeObjectURL は参照URLを破棄する。未登録のURLは無視される
func (s *ObjectStore) RevokeObjectURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, url)
}

// Len は保持している参照URLの数を返す
func (s *ObjectStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
