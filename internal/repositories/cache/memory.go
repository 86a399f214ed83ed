package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store with the same glob semantics as Redis
// for '*' and '?'.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	gens    map[string]int64
	now     func() time.Time
	err     error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), gens: make(map[string]int64), now: time.Now}
}

// FailWith makes every operation return err, simulating an unreachable store.
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *MemoryStore) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return false, s.err
	}
	e, ok := s.entries[key]
	if !ok || !s.now().Before(e.expiresAt) {
		return false, nil
	}
	if err := json.Unmarshal(e.data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries[key] = memoryEntry{data: data, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) DeleteMany(_ context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for key := range s.entries {
		if globMatch(pattern, key) {
			delete(s.entries, key)
		}
	}
	return nil
}

func (s *MemoryStore) Generation(_ context.Context, entity string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return 0, s.err
	}
	return s.gens[entity], nil
}

func (s *MemoryStore) Bump(_ context.Context, entity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.gens[entity]++
	return nil
}

func (s *MemoryStore) SetIfGeneration(_ context.Context, entity string, gen int64, key string, value interface{}, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("failed to marshal cache value: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	if s.gens[entity] != gen {
		return false, nil
	}
	s.entries[key] = memoryEntry{data: data, expiresAt: s.now().Add(ttl)}
	return true, nil
}

// Has reports whether a live entry exists for key.
func (s *MemoryStore) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return ok && s.now().Before(e.expiresAt)
}

func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys
}

// globMatch supports '*' (any run, separators included) and '?'.
func globMatch(pattern, s string) bool {
	px, sx := 0, 0
	starP, starS := -1, 0
	for sx < len(s) {
		switch {
		case px < len(pattern) && (pattern[px] == '?' || pattern[px] == s[sx]):
			px++
			sx++
		case px < len(pattern) && pattern[px] == '*':
			starP, starS = px, sx
			px++
		case starP >= 0:
			px = starP + 1
			starS++
			sx = starS
		default:
			return false
		}
	}
	for px < len(pattern) && pattern[px] == '*' {
		px++
	}
	return px == len(pattern)
}

// SetClock replaces the time source used for expiry.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
