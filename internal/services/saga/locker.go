package saga

import (
	"context"
	"sort"
	"sync"
)

// Locker serializes mutations per card number inside one process.
type Locker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	token chan struct{}
	refs  int
}

func NewLocker() *Locker {
	return &Locker{slots: make(map[string]*slot)}
}

// LockIDs returns the distinct keys in ascending order. Acquiring in this
// order keeps two transfers in opposite directions from deadlocking.
func LockIDs(keys ...string) []string {
	ids := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok || k == "" {
			continue
		}
		seen[k] = struct{}{}
		ids = append(ids, k)
	}
	sort.Strings(ids)
	return ids
}

// Lock blocks until every key is held or ctx is done. The returned unlock
// is safe to call more than once.
func (l *Locker) Lock(ctx context.Context, keys ...string) (func(), error) {
	ids := LockIDs(keys...)
	held := make([]string, 0, len(ids))
	for _, id := range ids {
		if err := l.acquire(ctx, id); err != nil {
			l.release(held)
			return nil, err
		}
		held = append(held, id)
	}

	var once sync.Once
	return func() { once.Do(func() { l.release(held) }) }, nil
}

func (l *Locker) acquire(ctx context.Context, key string) error {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{token: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.token <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		l.unref(key, s)
		l.mu.Unlock()
		return ctx.Err()
	}
}

func (l *Locker) release(keys []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(keys) - 1; i >= 0; i-- {
		s := l.slots[keys[i]]
		<-s.token
		l.unref(keys[i], s)
	}
}

func (l *Locker) unref(key string, s *slot) {
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// held reports how many keys currently have waiters or holders.
func (l *Locker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
