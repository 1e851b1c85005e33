package report

import (
	"bytes"
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

// RegisterRoutes attaches report routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/chat/report", h.generate)
}

func (h *Handler) generate(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.Svc.Generate(c.Request.Context(), middleware.UserIDFromContext(c), &buf); err != nil {
		switch {
		case errors.Is(err, ErrNoDocuments):
			respond.Error(c, http.StatusBadRequest, "no_documents", "No documents found. Please upload some medical documents first.", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, usage.ErrLimitReached):
			usage.WriteLimitReached(c)
		case errors.Is(err, ErrModelUnavailable):
			respond.Error(c, http.StatusBadGateway, "model_unavailable", "Failed to generate medical report. Please try again.", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to generate report", nil)
		}
		return
	}

	name := FileName(h.Svc.now())
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Header("Content-Length", strconv.Itoa(buf.Len()))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
