package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("OBJECT_STORE", "")
	t.Setenv("LLM_TIMEOUT_SECONDS", "")
	t.Setenv("CLASSIFIER_MODEL", "")

	cfg := Load()
	if cfg.Env != "dev" {
		t.Fatalf("expected env dev, got %q", cfg.Env)
	}
	if cfg.ObjectStoreType != "local" {
		t.Fatalf("expected local store, got %q", cfg.ObjectStoreType)
	}
	if cfg.LLMProvider != "gemini" {
		t.Fatalf("expected gemini provider, got %q", cfg.LLMProvider)
	}
	if cfg.ClassifierModel != "gemini-2.5-flash" {
		t.Fatalf("unexpected classifier model %q", cfg.ClassifierModel)
	}
	if cfg.LLMTimeout != 60*time.Second {
		t.Fatalf("expected 60s timeout, got %s", cfg.LLMTimeout)
	}
	if !cfg.OCRPDFEnabled {
		t.Fatalf("expected pdf ocr enabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("DATABASE_URL", "postgres://localhost/medvault")
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OBJECT_STORE", "GCS")
	t.Setenv("LLM_TIMEOUT_SECONDS", "30")
	t.Setenv("USAGE_PERIOD", "168h")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("CLASSIFIER_MODEL", "")

	cfg := Load()
	tests := []struct {
		name string
		got  any
		want any
	}{
		{name: "env", got: cfg.Env, want: "production"},
		{name: "provider", got: cfg.LLMProvider, want: "openai"},
		{name: "store", got: cfg.ObjectStoreType, want: "gcs"},
		{name: "timeout", got: cfg.LLMTimeout, want: 30 * time.Second},
		{name: "usage period", got: cfg.UsagePeriod, want: 168 * time.Hour},
		{name: "classifier model", got: cfg.ClassifierModel, want: "gpt-4o-mini"},
		{name: "origins", got: len(cfg.CORSAllowOrigin), want: 2},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Fatalf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("LLM_TIMEOUT_SECONDS", "soon")
	t.Setenv("OCR_CACHE_TTL", "-1h")

	cfg := Load()
	if cfg.LLMTimeout != 60*time.Second {
		t.Fatalf("expected default timeout, got %s", cfg.LLMTimeout)
	}
	if cfg.OCRCacheTTL != 24*time.Hour {
		t.Fatalf("expected default ttl, got %s", cfg.OCRCacheTTL)
	}
}
