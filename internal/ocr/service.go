// Package ocr turns stored documents into plain text, reading text layers
// locally and sending images and scanned PDFs to a vision model.
package ocr

import (
	"context"
	_ "embed"
	"strings"
	"time"

	"medvault-backend/internal/extract"
	"medvault-backend/internal/llm"
	"medvault-backend/internal/shared/cache"
	"medvault-backend/internal/shared/metrics"
	"medvault-backend/internal/shared/storage/object"
	"medvault-backend/internal/shared/telemetry"
	"medvault-backend/internal/shared/util"
)

//go:embed prompts/transcribe.txt
var transcribePrompt string

// minTextLayerChars is the trimmed length a PDF text layer needs before the
// vision model is skipped.
const minTextLayerChars = 50

var visionTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Service extracts text from stored documents.
type Service struct {
	Store      object.ObjectStore
	LLM        llm.Client
	Model      string
	Cache      cache.Cache
	CacheTTL   time.Duration
	PDFEnabled bool
}

// Supported reports whether Extract would attempt mimeType.
func (s *Service) Supported(mimeType string) bool {
	mt := cleanMime(mimeType)
	switch {
	case visionTypes[mt]:
		return true
	case mt == extract.MimePDF:
		return s.PDFEnabled
	case mt == extract.MimeDOCX, mt == extract.MimeText, mt == extract.MimeRTF:
		return true
	default:
		return false
	}
}

// Extract returns the document text, or nil when the type is unsupported,
// nothing readable was found, or any step failed. It never returns an error.
func (s *Service) Extract(ctx context.Context, storageKey, mimeType string) *string {
	mt := cleanMime(mimeType)
	if !s.Supported(mt) {
		metrics.IncOCR("unsupported")
		return nil
	}
	fields := map[string]any{"storage_mime": mt}

	data, err := object.ReadAll(ctx, s.Store, storageKey)
	if err != nil {
		fields["error"] = err
		telemetry.Warn("ocr.read_failed", fields)
		metrics.IncOCR("error")
		return nil
	}

	cacheKey := "ocr:" + util.ContentHash(data)
	if cached, ok := s.cached(ctx, cacheKey); ok {
		metrics.IncOCR("cache_hit")
		return &cached
	}

	text, outcome, err := s.extract(ctx, data, mt)
	if err != nil {
		fields["error"] = err
		fields["outcome"] = outcome
		telemetry.Warn("ocr.extract_failed", fields)
		metrics.IncOCR("error")
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		metrics.IncOCR("empty")
		return nil
	}

	s.store(ctx, cacheKey, text)
	metrics.IncOCR(outcome)
	fields["outcome"] = outcome
	fields["chars"] = len(text)
	telemetry.Info("ocr.extracted", fields)
	return &text
}

func (s *Service) extract(ctx context.Context, data []byte, mt string) (string, string, error) {
	switch mt {
	case extract.MimeDOCX, extract.MimeText, extract.MimeRTF:
		text, err := extract.ExtractTextFromBytes(ctx, data, mt, "")
		return text, "text_layer", err
	case extract.MimePDF:
		text, err := extract.ExtractTextFromBytes(ctx, data, mt, "")
		if err == nil && len(strings.TrimSpace(text)) >= minTextLayerChars {
			return text, "text_layer", nil
		}
		if err != nil {
			telemetry.Debug("ocr.pdf_text_layer_failed", map[string]any{"error": err})
		}
	}
	text, err := s.transcribe(ctx, data, mt)
	return text, "vision", err
}

func (s *Service) transcribe(ctx context.Context, data []byte, mt string) (string, error) {
	if s.LLM == nil {
		return "", llm.ErrNotConfigured
	}
	resp, err := s.LLM.Generate(ctx, llm.Request{
		Operation: "ocr",
		Model:     s.Model,
		Messages: []llm.Message{{
			Role: llm.RoleUser,
			Parts: []llm.Part{
				{Text: transcribePrompt},
				{MimeType: mt, Data: data},
			},
		}},
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (s *Service) cached(ctx context.Context, key string) (string, bool) {
	if s.Cache == nil {
		return "", false
	}
	raw, ok, err := s.Cache.Get(ctx, key)
	if err != nil {
		telemetry.Warn("ocr.cache_get_failed", map[string]any{"error": err})
		return "", false
	}
	if !ok || len(raw) == 0 {
		return "", false
	}
	return string(raw), true
}

func (s *Service) store(ctx context.Context, key, text string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Set(ctx, key, []byte(text), s.CacheTTL); err != nil {
		telemetry.Warn("ocr.cache_set_failed", map[string]any{"error": err})
	}
}

func cleanMime(mimeType string) string {
	return strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
}
