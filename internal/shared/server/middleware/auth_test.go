package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"medvault-backend/internal/shared/auth"
)

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth("/api/health"))
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	router.GET("/api/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": UserIDFromContext(c), "guest": IsGuest(c)})
	})
	router.OPTIONS("/api/documents", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func TestAuthAllowsOptionsWithoutIdentity(t *testing.T) {
	router := newAuthRouter()

	req := httptest.NewRequest(http.MethodOptions, "/api/documents", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}

func TestAuthPublicPathSkipsIdentity(t *testing.T) {
	router := newAuthRouter()

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestAuthIdentities(t *testing.T) {
	t.Setenv("JWT_SECRET", "middleware-secret")
	t.Setenv("ENV", "dev")

	token, err := auth.SignJWT(auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-7"}})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
		wantBody   string
	}{
		{name: "missing identity", wantStatus: http.StatusUnauthorized},
		{name: "guest", headers: map[string]string{"X-Guest-Id": " abc "}, wantStatus: http.StatusOK, wantBody: `"guest":true,"userId":"guest:abc"`},
		{name: "bearer", headers: map[string]string{"Authorization": "Bearer " + token}, wantStatus: http.StatusOK, wantBody: `"userId":"user-7"`},
		{name: "bad scheme", headers: map[string]string{"Authorization": "Basic abc"}, wantStatus: http.StatusUnauthorized},
		{name: "bad token", headers: map[string]string{"Authorization": "Bearer nope"}, wantStatus: http.StatusUnauthorized},
		{name: "bad token beats guest", headers: map[string]string{"Authorization": "Bearer nope", "X-Guest-Id": "abc"}, wantStatus: http.StatusUnauthorized},
		{name: "bearer beats guest", headers: map[string]string{"Authorization": "Bearer " + token, "X-Guest-Id": "abc"}, wantStatus: http.StatusOK, wantBody: `"guest":false`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			router := newAuthRouter()
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)
			if resp.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, resp.Code)
			}
			if tt.wantBody != "" && !strings.Contains(resp.Body.String(), tt.wantBody) {
				t.Fatalf("expected body to contain %s, got %s", tt.wantBody, resp.Body.String())
			}
		})
	}
}
