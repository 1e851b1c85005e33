package usage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"medvault-backend/internal/shared/storage/db"
)

type pgStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed usage store.
func NewPGStore(conn *sql.DB) *pgStore {
	return &pgStore{DB: conn}
}

func (s *pgStore) EnsurePeriod(ctx context.Context, userID string, policy Policy, now time.Time) (Usage, error) {
	var u Usage
	err := db.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		var err error
		u, err = lockAndEnsure(ctx, tx, userID, policy, now)
		return err
	})
	return u, err
}

func (s *pgStore) Consume(ctx context.Context, userID string, n int, policy Policy, now time.Time) (Usage, error) {
	var u Usage
	err := db.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		var err error
		u, err = lockAndEnsure(ctx, tx, userID, policy, now)
		if err != nil {
			return err
		}
		if !policy.allows(u, n) {
			return ErrLimitReached
		}
		u.Used += n
		_, err = tx.ExecContext(ctx, `UPDATE usage SET used = $1, updated_at = $2 WHERE user_id = $3`, u.Used, now, userID)
		return err
	})
	if errors.Is(err, ErrLimitReached) {
		return u, err
	}
	if err != nil {
		return Usage{}, err
	}
	return u, nil
}

func (s *pgStore) Reset(ctx context.Context, userID string, policy Policy, now time.Time) (Usage, error) {
	u := policy.fresh(now)
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO usage (user_id, plan, used, resets_at, updated_at)
VALUES ($1, $2, 0, $3, $4)
ON CONFLICT (user_id) DO UPDATE SET used = 0, resets_at = EXCLUDED.resets_at, updated_at = EXCLUDED.updated_at`,
		userID, u.Plan, u.ResetsAt, now)
	if err != nil {
		return Usage{}, err
	}
	return u, nil
}

// lockAndEnsure reads the row FOR UPDATE, creating it or rolling the period as needed.
func lockAndEnsure(ctx context.Context, tx *sql.Tx, userID string, policy Policy, now time.Time) (Usage, error) {
	var u Usage
	err := tx.QueryRowContext(ctx, `
SELECT plan, used, resets_at FROM usage WHERE user_id = $1 FOR UPDATE`, userID).
		Scan(&u.Plan, &u.Used, &u.ResetsAt)
	if errors.Is(err, sql.ErrNoRows) {
		u = policy.fresh(now)
		if _, err := tx.ExecContext(ctx, `
INSERT INTO usage (user_id, plan, used, resets_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
			userID, u.Plan, u.Used, u.ResetsAt, now); err != nil {
			return Usage{}, err
		}
		return u, nil
	}
	if err != nil {
		return Usage{}, err
	}

	u, rolled := policy.roll(u, now)
	if rolled {
		if _, err := tx.ExecContext(ctx, `UPDATE usage SET used = $1, resets_at = $2, updated_at = $3 WHERE user_id = $4`,
			u.Used, u.ResetsAt, now, userID); err != nil {
			return Usage{}, err
		}
	}
	return u, nil
}
