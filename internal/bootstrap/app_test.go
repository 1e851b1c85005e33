package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"medvault-backend/internal/llm"
	"medvault-backend/internal/shared/config"
)

func TestBuildInMemory(t *testing.T) {
	cfg := config.Config{
		Env:             "dev",
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
		LLMProvider:     "none",
		UsageLimit:      5,
	}
	app, err := Build(cfg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer app.Close()

	if app.DB != nil {
		t.Fatalf("expected memory repositories without DATABASE_URL")
	}
	if _, ok := app.LLM.(llm.Disabled); !ok {
		t.Fatalf("expected disabled llm, got %T", app.LLM)
	}
	if app.UsageService.Policy().Limit != 5 {
		t.Fatalf("expected usage limit 5, got %d", app.UsageService.Policy().Limit)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
	req.Header.Set("X-Guest-Id", "g-1")
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	_, err := Build(config.Config{Env: "production", LocalStoreDir: t.TempDir()})
	if err == nil {
		t.Fatalf("expected error without DATABASE_URL in production")
	}
}

func TestBuildLLMMissingKeyInDev(t *testing.T) {
	client, err := BuildLLM(config.Config{Env: "dev", LLMProvider: "gemini"})
	if err != nil {
		t.Fatalf("BuildLLM: %v", err)
	}
	if _, ok := client.(llm.Disabled); !ok {
		t.Fatalf("expected disabled llm, got %T", client)
	}
}
