package chat

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"medvault-backend/internal/shared/server/middleware"
	"medvault-backend/internal/shared/server/respond"
	"medvault-backend/internal/usage"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches chat routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/chat/message", h.sendMessage)
	rg.GET("/chat/conversations", h.listConversations)
	rg.GET("/chat/conversations/:id/messages", h.messages)
	rg.DELETE("/chat/conversations/:id", h.deleteConversation)
}

func (h *Handler) sendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	turn, err := h.Svc.SendMessage(c.Request.Context(), middleware.UserIDFromContext(c), req.ConversationID, req.Message)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.ValidationError(c, "message", "required", "message is required")
			return
		}
		writeError(c, err, "failed to send message")
		return
	}
	respond.OK(c, toTurnResponse(turn))
}

func (h *Handler) listConversations(c *gin.Context) {
	convs, err := h.Svc.ListConversations(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err, "failed to list conversations")
		return
	}
	out := make([]ConversationResponse, 0, len(convs))
	for _, conv := range convs {
		out = append(out, toConversationResponse(conv))
	}
	respond.OK(c, out)
}

func (h *Handler) messages(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}
	msgs, err := h.Svc.Messages(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		writeError(c, err, "failed to list messages")
		return
	}
	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	respond.OK(c, out)
}

func (h *Handler) deleteConversation(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}
	if err := h.Svc.DeleteConversation(c.Request.Context(), middleware.UserIDFromContext(c), id); err != nil {
		writeError(c, err, "failed to delete conversation")
		return
	}
	respond.Success(c)
}

func conversationID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.ValidationError(c, "id", "invalid", "Invalid conversation ID")
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Conversation not found", nil)
	case errors.Is(err, usage.ErrLimitReached):
		usage.WriteLimitReached(c)
	case errors.Is(err, ErrModelUnavailable):
		respond.Error(c, http.StatusBadGateway, "model_unavailable", "Failed to generate AI response. Please try again.", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
