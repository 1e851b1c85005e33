package usage

import (
	"context"
	"database/sql"
	"time"
)

type store interface {
	EnsurePeriod(ctx context.Context, userID string, policy Policy, now time.Time) (Usage, error)
	Consume(ctx context.Context, userID string, n int, policy Policy, now time.Time) (Usage, error)
	Reset(ctx context.Context, userID string, policy Policy, now time.Time) (Usage, error)
}

// Service manages usage data via an underlying store.
type Service struct {
	store  store
	policy Policy
	now    func() time.Time
}

// NewService constructs a Service with an in-memory store.
func NewService(policy Policy) *Service {
	return &Service{store: newMemoryStore(), policy: policy.normalized(), now: utcNow}
}

// NewPostgresService constructs a Service backed by Postgres.
func NewPostgresService(conn *sql.DB, policy Policy) *Service {
	return &Service{store: NewPGStore(conn), policy: policy.normalized(), now: utcNow}
}

func utcNow() time.Time { return time.Now().UTC() }

// Policy returns the quota applied to every user.
func (s *Service) Policy() Policy {
	return s.policy
}

// EnsurePeriod returns the current usage, starting a new period if the last one ended.
func (s *Service) EnsurePeriod(ctx context.Context, userID string) (Usage, error) {
	return s.store.EnsurePeriod(ctx, userID, s.policy, s.now())
}

// Consume records n units, or returns ErrLimitReached without recording anything.
func (s *Service) Consume(ctx context.Context, userID string, n int) (Usage, error) {
	if n <= 0 {
		return s.EnsurePeriod(ctx, userID)
	}
	return s.store.Consume(ctx, userID, n, s.policy, s.now())
}

// Reset sets usage to zero and restarts the period.
func (s *Service) Reset(ctx context.Context, userID string) (Usage, error) {
	return s.store.Reset(ctx, userID, s.policy, s.now())
}
