package documents

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"medvault-backend/internal/classify"
	"medvault-backend/internal/shared/server/middleware"
	"medvault-backend/internal/shared/server/respond"
)

// multipartOverhead is extra body allowance for form boundaries and fields.
const multipartOverhead = 1 << 20

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.upload)
	rg.GET("/documents", h.list)
	rg.GET("/documents/timeline", h.timeline)
	rg.GET("/documents/:id", h.get)
	rg.GET("/documents/:id/download", h.download)
	rg.DELETE("/documents/:id", h.delete)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Svc.maxUpload()+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds the upload limit", nil)
			return
		}
		respond.ValidationError(c, "file", "required", "No file provided")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.ValidationError(c, "file", "unreadable", "unable to read file")
		return
	}
	defer file.Close()

	doc, err := h.Svc.Upload(c.Request.Context(), UploadInput{
		UserID:   userID,
		FileName: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Source:   c.PostForm("source"),
		Body:     file,
	})
	if err != nil {
		writeError(c, err, "failed to upload document")
		return
	}

	respond.JSON(c, http.StatusCreated, toResponse(doc))
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	filter := Filter{
		DocumentType: classify.DocumentType(strings.TrimSpace(c.Query("documentType"))),
		ClinicalType: classify.ClinicalType(strings.TrimSpace(c.Query("clinicalType"))),
	}

	docs, err := h.Svc.List(c.Request.Context(), userID, filter)
	if err != nil {
		writeError(c, err, "failed to list documents")
		return
	}
	respond.OK(c, toResponses(docs))
}

func (h *Handler) timeline(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	groups, err := h.Svc.Timeline(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "failed to build timeline")
		return
	}
	respond.OK(c, toTimelineResponse(groups))
}

func (h *Handler) get(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}
	doc, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		writeError(c, err, "failed to fetch document")
		return
	}
	respond.OK(c, toResponse(doc))
}

func (h *Handler) download(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}
	userID := middleware.UserIDFromContext(c)

	if signed, ok, err := h.Svc.DownloadURL(c.Request.Context(), userID, id); err != nil {
		writeError(c, err, "failed to download document")
		return
	} else if ok {
		c.Redirect(http.StatusFound, signed)
		return
	}

	doc, rc, err := h.Svc.Open(c.Request.Context(), userID, id)
	if err != nil {
		writeError(c, err, "failed to download document")
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, doc.SizeBytes, doc.MimeType, rc, map[string]string{
		"Content-Disposition": `attachment; filename="` + escapeFileName(doc.OriginalFileName) + `"`,
	})
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), id); err != nil {
		writeError(c, err, "failed to delete document")
		return
	}
	respond.Success(c)
}

func documentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.ValidationError(c, "id", "invalid", "Invalid document ID")
		return 0, false
	}
	return id, true
}

// escapeFileName percent-encodes a name for a quoted Content-Disposition value.
func escapeFileName(name string) string {
	return strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
}

func writeError(c *gin.Context, err error, fallback string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		respond.ValidationError(c, verr.Field, verr.Issue, verr.Message)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrTooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Document not found", nil)
	case errors.Is(err, ErrFileMissing):
		respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
