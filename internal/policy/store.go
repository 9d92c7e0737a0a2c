package policy

import (
	"context"
	"sync"
	"time"
)

// FiredStore keeps the last instant a cadence bucket fired.
//
// CompareAndSwap stores next only if the current value still equals old
// (nil meaning "never fired") and reports whether it did. Two workers racing
// for the same boundary see exactly one winner.
type FiredStore interface {
	Get(ctx context.Context, key string) (*time.Time, error)
	CompareAndSwap(ctx context.Context, key string, old *time.Time, next time.Time) (bool, error)
}

// Stored values have millisecond resolution in every backend.
func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

type MemoryStore struct {
	mu   sync.Mutex
	last map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{last: make(map[string]int64)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ms, ok := s.last[key]
	if !ok {
		return nil, nil
	}
	t := fromMillis(ms)
	return &t, nil
}

func (s *MemoryStore) CompareAndSwap(_ context.Context, key string, old *time.Time, next time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.last[key]
	switch {
	case old == nil && ok:
		return false, nil
	case old != nil && (!ok || cur != toMillis(*old)):
		return false, nil
	}
	s.last[key] = toMillis(next)
	return true, nil
}
