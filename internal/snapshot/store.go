package snapshot

import (
	"context"
	"sync"
)

// Store — внешнее хранилище последнего снимка состояния.
// Формат blob определяет владелец состояния.
type Store interface {
	// Load возвращает ok=false, если снимка ещё нет.
	Load(ctx context.Context) (blob []byte, ok bool, err error)
	Save(ctx context.Context, blob []byte) error
	Clear(ctx context.Context) error
}

// MemoryStore держит снимок в памяти процесса.
type MemoryStore struct {
	mu   sync.Mutex
	blob []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(context.Context) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blob == nil {
		return nil, false, nil
	}
	return append([]byte(nil), s.blob...), true, nil
}

func (s *MemoryStore) Save(_ context.Context, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob = append([]byte{}, blob...)
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob = nil
	return nil
}

// Nop — снимки отключены.
type Nop struct{}

func (Nop) Load(context.Context) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Save(context.Context, []byte) error         { return nil }
func (Nop) Clear(context.Context) error                { return nil }
