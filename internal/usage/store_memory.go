package usage

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string]Usage
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]Usage)}
}

func (s *memoryStore) EnsurePeriod(ctx context.Context, userID string, policy Policy, now time.Time) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.current(userID, policy, now)
	s.data[userID] = u
	return u, nil
}

func (s *memoryStore) Consume(ctx context.Context, userID string, n int, policy Policy, now time.Time) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.current(userID, policy, now)
	s.data[userID] = u
	if !policy.allows(u, n) {
		return u, ErrLimitReached
	}
	u.Used += n
	s.data[userID] = u
	return u, nil
}

func (s *memoryStore) Reset(ctx context.Context, userID string, policy Policy, now time.Time) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := policy.fresh(now)
	s.data[userID] = u
	return u, nil
}

// current must be called with mu held.
func (s *memoryStore) current(userID string, policy Policy, now time.Time) Usage {
	u, ok := s.data[userID]
	if !ok {
		return policy.fresh(now)
	}
	u, _ = policy.roll(u, now)
	return u
}
