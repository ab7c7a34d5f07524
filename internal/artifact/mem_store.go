package artifact

import (
	"context"
	"sort"
	"sync"
)

// MemStore keeps artifacts in memory. It is safe for concurrent use.
type MemStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{files: make(map[string][]byte)}
}

func (s *MemStore) Exists(ctx context.Context, ref Ref) (bool, error) {
	if err := validateRef(ref); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.files[ref.Path()]
	return ok, nil
}

func (s *MemStore) Load(ctx context.Context, ref Ref) ([]byte, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[ref.Path()]
	if !ok {
		return nil, NotFound(ref)
	}
	return append([]byte(nil), data...), nil
}

func (s *MemStore) Store(ctx context.Context, ref Ref, data []byte) error {
	if err := validateRef(ref); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[ref.Path()] = append([]byte(nil), data...)
	return nil
}

func (s *MemStore) Delete(ctx context.Context, ref Ref) error {
	if err := validateRef(ref); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, ref.Path())
	return nil
}

// Paths lists stored paths in sorted order.
func (s *MemStore) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.files))
	for p := range s.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
