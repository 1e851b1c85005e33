package report

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"

	"medvault-backend/internal/llm"
	"medvault-backend/internal/shared/server/middleware"
)

func TestHandlerReport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, client, docs := newService(t)
	router := gin.New()
	NewHandler(svc).RegisterRoutes(router.Group("/api", middleware.Auth()))

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/chat/report", nil)
		req.Header.Set("X-Guest-Id", "g1")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp
	}

	resp := post()
	if resp.Code != http.StatusBadRequest || !strings.Contains(resp.Body.String(), "no_documents") {
		t.Fatalf("expected no_documents, got %d %s", resp.Code, resp.Body.String())
	}

	seed(t, docs, "guest:g1")
	client.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(llm.Response{Text: "# PATIENT SUMMARY\nAll good."}, nil)
	resp = post()
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", resp.Code, resp.Body.String())
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := resp.Header().Get("Content-Disposition"); cd != `attachment; filename="health-summary-2025-03-04.pdf"` {
		t.Fatalf("unexpected disposition %q", cd)
	}
	if !bytes.HasPrefix(resp.Body.Bytes(), []byte("%PDF-")) {
		t.Fatalf("body is not a PDF")
	}
}
