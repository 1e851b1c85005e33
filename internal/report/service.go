// Package report turns a user's documents into a downloadable health summary PDF.
package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"medvault-backend/internal/documents"
	"medvault-backend/internal/llm"
	"medvault-backend/internal/shared/metrics"
	"medvault-backend/internal/shared/telemetry"
	"medvault-backend/internal/usage"
)

// Quota charges model calls against a user's allowance.
type Quota interface {
	Consume(ctx context.Context, userID string, n int) (usage.Usage, error)
}

// Service generates PDF reports.
type Service struct {
	Documents documents.Repo
	LLM       llm.Client
	Model     string
	// Usage is optional; nil means unmetered.
	Usage Quota
	Now   func() time.Time
}

// Generate writes the user's report PDF to w. Nothing is written on error.
func (s *Service) Generate(ctx context.Context, userID string, w io.Writer) error {
	if userID == "" {
		return ErrInvalidInput
	}
	docs, err := s.Documents.ForUser(userID).ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	if len(docs) == 0 {
		metrics.IncReport("no_documents")
		return ErrNoDocuments
	}

	if s.Usage != nil {
		if _, err := s.Usage.Consume(ctx, userID, 1); err != nil {
			if errors.Is(err, usage.ErrLimitReached) {
				metrics.IncReport("limit_reached")
			}
			return err
		}
	}

	now := s.now()
	client := s.LLM
	if client == nil {
		client = llm.Disabled{}
	}
	resp, err := client.Generate(ctx, llm.Request{
		Operation: "report",
		Model:     s.Model,
		Messages:  []llm.Message{llm.TextMessage(llm.RoleUser, buildPrompt(docs, now))},
	})
	if err == nil && strings.TrimSpace(resp.Text) == "" {
		err = llm.ErrEmptyResponse
	}
	if err != nil {
		metrics.IncReport("model_error")
		telemetry.Error("report.model_failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		return fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}

	var buf bytes.Buffer
	if err := Render(&buf, resp.Text, now); err != nil {
		metrics.IncReport("render_error")
		return err
	}
	size := buf.Len()
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	metrics.IncReport("ok")
	telemetry.Info("report.generated", map[string]any{
		"user_id":   userID,
		"documents": len(docs),
		"bytes":     size,
	})
	return nil
}

// FileName is the download name for a report generated at t.
func FileName(t time.Time) string {
	return "health-summary-" + t.Format("2006-01-02") + ".pdf"
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
