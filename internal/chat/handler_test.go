package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"medvault-backend/internal/llm"
	"medvault-backend/internal/shared/server/middleware"
	"medvault-backend/internal/usage"
)

func newChatRouter(f fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(f.svc).RegisterRoutes(router.Group("/api", middleware.Auth()))
	return router
}

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Guest-Id", "g1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestHandlerChatRoundTrip(t *testing.T) {
	f := newFixture(t)
	router := newChatRouter(f)
	f.client.EXPECT().Generate(gomock.Any(), gomock.Any()).DoAndReturn(reply(`{"answer":"hello","citations":[]}`))

	resp := do(router, http.MethodPost, "/api/chat/message", `{"message":"hi there"}`)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var turn TurnResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &turn))
	assert.Equal(t, "hello", turn.AssistantMessage.Content)
	assert.Equal(t, "hi there", turn.Title)
	assert.NotNil(t, turn.Citations)

	resp = do(router, http.MethodGet, "/api/chat/conversations", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var convs []ConversationResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &convs))
	require.Len(t, convs, 1)

	resp = do(router, http.MethodGet, "/api/chat/conversations/1/messages", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var msgs []MessageResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &msgs))
	assert.Len(t, msgs, 2)

	resp = do(router, http.MethodDelete, "/api/chat/conversations/1", "")
	assert.Equal(t, http.StatusOK, resp.Code)
	resp = do(router, http.MethodGet, "/api/chat/conversations/1/messages", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestHandlerChatErrors(t *testing.T) {
	f := newFixture(t)
	router := newChatRouter(f)

	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodPost, "/api/chat/message", `{"message":""}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodPost, "/api/chat/message", `not json`).Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodGet, "/api/chat/conversations/x/messages", "").Code)
	assert.Equal(t, http.StatusNotFound, do(router, http.MethodPost, "/api/chat/message", `{"conversationId":42,"message":"hi"}`).Code)

	f.client.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(llm.Response{}, context.DeadlineExceeded)
	resp := do(router, http.MethodPost, "/api/chat/message", `{"message":"hi"}`)
	assert.Equal(t, http.StatusBadGateway, resp.Code)
	assert.Contains(t, resp.Body.String(), "model_unavailable")

	limited := usage.NewService(usage.Policy{Limit: 1})
	_, _ = limited.Consume(context.Background(), "guest:g1", 1)
	f.svc.Usage = limited
	resp = do(router, http.MethodPost, "/api/chat/message", `{"message":"hi"}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Contains(t, resp.Body.String(), "limit_reached")
}
