package classify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"medvault-backend/internal/llm"
	"medvault-backend/internal/shared/metrics"
	"medvault-backend/internal/shared/telemetry"
)

const (
	maxPromptChars        = 4000
	missingSummaryMessage = "AI-generated summary not available."
)

// AI classifies extracted document text with a generative model and falls
// back to Rules whenever the text is too short or the model misbehaves.
type AI struct {
	LLM   llm.Client
	Model string
	Rules Rules
}

type aiPayload struct {
	Title         string          `json:"title"`
	DocumentType  string          `json:"documentType"`
	ClinicalTypes json.RawMessage `json:"clinicalTypes"`
	DateOfService *string         `json:"dateOfService"`
	ShortSummary  string          `json:"shortSummary"`
}

// Classify never returns an error.
func (a AI) Classify(ctx context.Context, text, fileName, mimeType string) Result {
	result := a.classify(ctx, text, fileName, mimeType)
	metrics.IncClassification(string(result.Source))
	telemetry.Info("classify.done", map[string]any{
		"source":        result.Source,
		"document_type": result.DocumentType,
		"clinical_type": result.ClinicalType,
		"has_date":      result.DateOfService != nil,
	})
	return result
}

func (a AI) classify(ctx context.Context, text, fileName, mimeType string) Result {
	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) < MinTextLength || a.LLM == nil {
		return a.Rules.Classify(fileName, mimeType)
	}

	resp, err := a.LLM.Generate(ctx, llm.Request{
		Operation:   "classify",
		Model:       a.Model,
		JSON:        true,
		Temperature: llm.Float32(0),
		Messages:    []llm.Message{llm.TextMessage(llm.RoleUser, buildPrompt(fileName, truncateRunes(text, maxPromptChars)))},
	})
	if err != nil {
		telemetry.Warn("classify.model_failed", map[string]any{"error": err})
		return a.Rules.Classify(fileName, mimeType)
	}

	raw, ok := llm.ExtractJSONObject(resp.Text)
	if !ok {
		telemetry.Warn("classify.no_json", map[string]any{"response_chars": len(resp.Text)})
		return a.Rules.Classify(fileName, mimeType)
	}
	var payload aiPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		telemetry.Warn("classify.bad_json", map[string]any{"error": err})
		return a.Rules.Classify(fileName, mimeType)
	}

	docType := OtherType
	if t := DocumentType(payload.DocumentType); t.Valid() {
		docType = t
	}
	clinical := filterClinicalTypes(payload.ClinicalTypes)

	title := strings.TrimSpace(payload.Title)
	if title == "" {
		title = a.Rules.title(docType)
	}
	summary := strings.TrimSpace(payload.ShortSummary)
	if summary == "" {
		summary = missingSummaryMessage
	}

	return Result{
		Title:         title,
		DocumentType:  docType,
		ClinicalTypes: clinical,
		ClinicalType:  clinical[0],
		DateOfService: parseServiceDate(payload.DateOfService),
		ShortSummary:  summary,
		Source:        SourceAI,
	}
}

// filterClinicalTypes keeps known, de-duplicated specialties in model order.
// A non-array value yields the unclassified default.
func filterClinicalTypes(raw json.RawMessage) []ClinicalType {
	var values []any
	_ = json.Unmarshal(raw, &values)

	seen := make(map[ClinicalType]bool, len(values))
	out := make([]ClinicalType, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		t := ClinicalType(s)
		if !t.Valid() || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) == 0 {
		return []ClinicalType{OtherUnclassified}
	}
	return out
}

func parseServiceDate(raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	s := strings.TrimSpace(*raw)
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return &d
	}
	return nil
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
