package health

import (
	"context"
	"database/sql"
	"time"
)

// Pinger is anything that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Service reports database and cache reachability.
type Service struct {
	DB      *sql.DB
	Cache   Pinger
	Timeout time.Duration
}

// Status is the /health payload. Components not configured are omitted.
type Status struct {
	OK       bool   `json:"ok"`
	Database string `json:"database,omitempty"`
	Cache    string `json:"cache,omitempty"`
}

// NewService constructs a health service. Either dependency may be nil.
func NewService(conn *sql.DB, cache Pinger) *Service {
	return &Service{DB: conn, Cache: cache, Timeout: 2 * time.Second}
}

// Status pings each configured dependency.
func (s *Service) Status(ctx context.Context) Status {
	status := Status{OK: true}
	if s == nil {
		return status
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if s.DB != nil {
		status.Database = "ok"
		if err := s.DB.PingContext(ctx); err != nil {
			status.Database = "unreachable"
			status.OK = false
		}
	}
	if s.Cache != nil {
		status.Cache = "ok"
		if err := s.Cache.Ping(ctx); err != nil {
			status.Cache = "unreachable"
			status.OK = false
		}
	}
	return status
}
