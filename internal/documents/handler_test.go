package documents

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"medvault-backend/internal/shared/server/middleware"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, _, _ := newTestService(t)
	router := gin.New()
	api := router.Group("/api", middleware.Auth())
	NewHandler(svc).RegisterRoutes(api)
	return router, svc
}

func uploadRequest(t *testing.T, guest, fileName, contentType, body, source string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	_, _ = part.Write([]byte(body))
	if source != "" {
		_ = mw.WriteField("source", source)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Guest-Id", guest)
	return req
}

func guestRequest(method, path, guest string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("X-Guest-Id", guest)
	return req
}

func TestHandlerUploadAndFetch(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, uploadRequest(t, "g1", "doctor visit note.txt", "text/plain", "Patient seen for follow up.", "Dr. Adams"))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if strings.Contains(resp.Body.String(), "storage") {
		t.Fatalf("response must not expose the storage path: %s", resp.Body.String())
	}
	var created DocumentResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.DocumentType != "doctor_note" || created.Source != "Dr. Adams" {
		t.Fatalf("unexpected document %+v", created)
	}

	path := "/api/documents/" + strconv.FormatInt(created.ID, 10)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, guestRequest(http.MethodGet, path, "g1"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var fetched DocumentResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decode fetched: %v", err)
	}
	if fetched.ID != created.ID ||
		fetched.Title != created.Title ||
		fetched.DocumentType != created.DocumentType ||
		fetched.ClinicalType != created.ClinicalType ||
		fetched.ShortSummary != created.ShortSummary ||
		fetched.Source != created.Source {
		t.Fatalf("fetched document differs from upload:\n got %+v\nwant %+v", fetched, created)
	}
	if fetched.Title == "" || fetched.ShortSummary == "" {
		t.Fatalf("expected classification fields to be set, got %+v", fetched)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, guestRequest(http.MethodGet, path, "g2"))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another user, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, guestRequest(http.MethodGet, path+"/download", "g1"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 download, got %d", resp.Code)
	}
	if got := resp.Header().Get("Content-Disposition"); got != `attachment; filename="doctor%20visit%20note.txt"` {
		t.Fatalf("unexpected disposition %q", got)
	}
	if resp.Body.String() != "Patient seen for follow up." {
		t.Fatalf("unexpected body %q", resp.Body.String())
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, guestRequest(http.MethodDelete, path, "g1"))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"success":true`) {
		t.Fatalf("unexpected delete response %d %s", resp.Code, resp.Body.String())
	}
}

func TestHandlerRejectsBadInput(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name string
		req  *http.Request
		want int
	}{
		{name: "non numeric id", req: guestRequest(http.MethodGet, "/api/documents/abc", "g1"), want: http.StatusBadRequest},
		{name: "unknown id", req: guestRequest(http.MethodGet, "/api/documents/999", "g1"), want: http.StatusNotFound},
		{name: "bad filter", req: guestRequest(http.MethodGet, "/api/documents?documentType=xray", "g1"), want: http.StatusBadRequest},
		{name: "missing file", req: guestRequest(http.MethodPost, "/api/documents", "g1"), want: http.StatusBadRequest},
		{name: "unsupported type", req: uploadRequest(t, "g1", "clip.gif", "image/gif", "GIF89a", ""), want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, tt.req)
			if resp.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, resp.Code, resp.Body.String())
			}
		})
	}
}

func TestHandlerListFiltersAndTimeline(t *testing.T) {
	router, _ := newTestRouter(t)
	for _, name := range []string{"lab_results.txt", "prescription.txt"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, uploadRequest(t, "g1", name, "text/plain", "content", ""))
		if resp.Code != http.StatusCreated {
			t.Fatalf("upload %s: %d", name, resp.Code)
		}
	}

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, guestRequest(http.MethodGet, "/api/documents?documentType=prescription", "g1"))
	var listed []DocumentResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listed) != 1 || listed[0].OriginalFileName != "prescription.txt" {
		t.Fatalf("unexpected filtered list %+v", listed)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, guestRequest(http.MethodGet, "/api/documents/timeline", "g1"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var groups []VisitGroupResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &groups); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(groups) != 1 || len(groups[0].Documents) != 2 {
		t.Fatalf("expected one visit with two documents, got %+v", groups)
	}
}
