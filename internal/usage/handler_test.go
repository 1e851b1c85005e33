package usage

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"medvault-backend/internal/shared/server/middleware"
)

func TestGetUsage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewService(Policy{Plan: "free", Limit: 5})
	router := gin.New()
	NewHandler(svc).RegisterRoutes(router.Group("/api", middleware.Auth()))

	req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
	req.Header.Set("X-Guest-Id", "g1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body Usage
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Plan != "free" || body.Limit != 5 || body.Used != 0 || body.ResetsAt.IsZero() {
		t.Fatalf("unexpected body %+v", body)
	}
}
