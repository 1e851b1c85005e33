package llm

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net"
	"strings"
	"time"

	"medvault-backend/internal/shared/metrics"
	"medvault-backend/internal/shared/telemetry"
)

// Policy bounds and retries model calls.
type Policy struct {
	// Timeout bounds the whole call, retries and backoff included.
	// Zero means 60s.
	Timeout      time.Duration
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultPolicy matches the LLM_TIMEOUT_SECONDS and LLM_MAX_RETRIES defaults.
var DefaultPolicy = Policy{
	Timeout:      60 * time.Second,
	MaxRetries:   1,
	InitialDelay: 300 * time.Millisecond,
	MaxDelay:     5 * time.Second,
}

type guarded struct {
	next     Client
	provider string
	policy   Policy
	sleep    func(ctx context.Context, d time.Duration) error
}

// WithPolicy wraps next with an overall deadline, retries on transient
// failures, latency metrics and structured logs.
func WithPolicy(next Client, provider string, policy Policy) Client {
	if policy.Timeout <= 0 {
		policy.Timeout = DefaultPolicy.Timeout
	}
	if policy.InitialDelay <= 0 {
		policy.InitialDelay = DefaultPolicy.InitialDelay
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = DefaultPolicy.MaxDelay
	}
	return &guarded{next: next, provider: provider, policy: policy, sleep: sleepCtx}
}

func (g *guarded) Generate(ctx context.Context, req Request) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, g.policy.Timeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= g.policy.MaxRetries; attempt++ {
		resp, err := g.attempt(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if attempt >= g.policy.MaxRetries || !ShouldRetry(err) || ctx.Err() != nil {
			break
		}
		delay := g.backoff(attempt)
		telemetry.Warn("llm.retry", map[string]any{
			"provider":  g.provider,
			"operation": req.Operation,
			"attempt":   attempt + 1,
			"delay_ms":  delay.Milliseconds(),
			"error":     err,
		})
		if err := g.sleep(ctx, delay); err != nil {
			return Response{}, err
		}
	}
	return Response{}, lastErr
}

func (g *guarded) attempt(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	resp, err := g.next.Generate(ctx, req)
	elapsed := time.Since(start)
	metrics.ObserveLLM(g.provider, req.Operation, err, elapsed)

	fields := map[string]any{
		"provider":    g.provider,
		"operation":   req.Operation,
		"model":       req.Model,
		"duration_ms": elapsed.Milliseconds(),
	}
	if err != nil {
		fields["error"] = err
		telemetry.Warn("llm.call_failed", fields)
		return Response{}, err
	}
	fields["prompt_tokens"] = resp.Usage.PromptTokens
	fields["completion_tokens"] = resp.Usage.CompletionTokens
	telemetry.Debug("llm.call", fields)
	return resp, nil
}

func (g *guarded) backoff(attempt int) time.Duration {
	delay := float64(g.policy.InitialDelay) * math.Pow(2, float64(attempt))
	if delay > float64(g.policy.MaxDelay) {
		delay = float64(g.policy.MaxDelay)
	}
	jitter := delay * 0.2 * (rand.Float64()*2 - 1)
	return time.Duration(delay + jitter)
}

// ShouldRetry reports whether err looks transient: timeouts, network resets,
// rate limiting and 5xx answers.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotConfigured) || errors.Is(err, ErrUnsupportedInput) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == 429 || statusErr.StatusCode >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"connection reset",
		"connection refused",
		"connection closed",
		"broken pipe",
		"tls handshake timeout",
		"client.timeout",
		"unexpected eof",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
