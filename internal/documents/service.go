package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"medvault-backend/internal/classify"
	"medvault-backend/internal/extract"
	"medvault-backend/internal/shared/storage/object"
	"medvault-backend/internal/shared/telemetry"
)

// DefaultMaxUploadBytes caps a single upload at 20 MiB.
const DefaultMaxUploadBytes int64 = 20 << 20

const (
	MimeRTF  = extract.MimeRTF
	MimeDOC  = "application/msword"
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
)

var allowedMimeTypes = map[string]bool{
	extract.MimePDF:  true,
	extract.MimeText: true,
	MimeRTF:          true,
	MimeDOC:          true,
	extract.MimeDOCX: true,
	MimeJPEG:         true,
	MimePNG:          true,
}

// Extractor produces document text from a stored object. A nil result means
// no text could be obtained.
type Extractor interface {
	Extract(ctx context.Context, storageKey, mimeType string) *string
}

// Classifier assigns types, title and summary to a document.
type Classifier interface {
	Classify(ctx context.Context, text, fileName, mimeType string) classify.Result
}

// Service contains business logic for documents.
type Service struct {
	Repo       Repo
	Store      object.ObjectStore
	OCR        Extractor
	Classifier Classifier

	MaxUploadBytes int64
	// PresignDownloads sends downloads to a signed URL when Store supports it.
	PresignDownloads bool
	PresignTTL       time.Duration
}

// UploadInput is a single file submitted by a user.
type UploadInput struct {
	UserID   string
	FileName string
	MimeType string
	Source   string
	Body     io.Reader
}

// Upload stores the file, extracts its text, classifies it and records it.
func (s *Service) Upload(ctx context.Context, in UploadInput) (Document, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return Document{}, invalid("userId", "required", "user is required")
	}
	fileName := strings.TrimSpace(in.FileName)
	if fileName == "" {
		return Document{}, invalid("file", "required", "No file provided")
	}
	if in.Body == nil {
		return Document{}, invalid("file", "required", "No file provided")
	}

	limit := s.maxUpload()
	data, err := io.ReadAll(io.LimitReader(in.Body, limit+1))
	if err != nil {
		return Document{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return Document{}, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, limit)
	}
	if len(data) == 0 {
		return Document{}, invalid("file", "empty", "file is empty")
	}

	mimeType, err := resolveMimeType(in.MimeType, fileName, data)
	if err != nil {
		return Document{}, err
	}

	storageKey, size, _, err := s.Store.Save(ctx, in.UserID, fileName, bytes.NewReader(data))
	if err != nil {
		return Document{}, fmt.Errorf("store upload: %w", err)
	}

	var text *string
	if s.OCR != nil {
		text = s.OCR.Extract(ctx, storageKey, mimeType)
	}
	content := ""
	if text != nil {
		content = *text
	}
	result := s.Classifier.Classify(ctx, content, fileName, mimeType)

	source := strings.TrimSpace(in.Source)
	if source == "" {
		source = DefaultSource
	}

	doc, err := s.Repo.ForUser(in.UserID).Create(ctx, Document{
		OriginalFileName: fileName,
		StoragePath:      storageKey,
		MimeType:         mimeType,
		SizeBytes:        size,
		DocumentType:     result.DocumentType,
		ClinicalType:     result.ClinicalType,
		Title:            result.Title,
		Source:           source,
		DateOfService:    result.DateOfService,
		ShortSummary:     result.ShortSummary,
		ExtractedText:    text,
	})
	if err != nil {
		if delErr := s.Store.Delete(context.WithoutCancel(ctx), storageKey); delErr != nil {
			telemetry.Warn("documents.upload_cleanup_failed", map[string]any{
				"user_id": in.UserID,
				"error":   delErr.Error(),
			})
		}
		return Document{}, fmt.Errorf("record upload: %w", err)
	}

	telemetry.Info("documents.uploaded", map[string]any{
		"user_id":       in.UserID,
		"document_id":   doc.ID,
		"mime_type":     mimeType,
		"size_bytes":    size,
		"document_type": doc.DocumentType,
		"classified_by": result.Source,
		"has_text":      text != nil,
	})
	return doc, nil
}

// List returns the user's documents matching filter, newest first.
func (s *Service) List(ctx context.Context, userID string, filter Filter) ([]Document, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ForUser(userID).List(ctx, filter)
}

// Get returns one of the user's documents.
func (s *Service) Get(ctx context.Context, userID string, id int64) (Document, error) {
	if userID == "" {
		return Document{}, ErrInvalidInput
	}
	return s.Repo.ForUser(userID).Get(ctx, id)
}

// Delete removes the record and then the stored bytes. A storage failure is
// logged and does not fail the call.
func (s *Service) Delete(ctx context.Context, userID string, id int64) error {
	if userID == "" {
		return ErrInvalidInput
	}
	doc, err := s.Repo.ForUser(userID).Delete(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, doc.StoragePath); err != nil && !errors.Is(err, object.ErrNotFound) {
		telemetry.Warn("documents.delete_file_failed", map[string]any{
			"user_id":     userID,
			"document_id": id,
			"error":       err.Error(),
		})
	}
	return nil
}

// Open returns the document with a reader over its bytes. The caller closes it.
func (s *Service) Open(ctx context.Context, userID string, id int64) (Document, io.ReadCloser, error) {
	doc, err := s.Get(ctx, userID, id)
	if err != nil {
		return Document{}, nil, err
	}
	rc, err := s.Store.Open(ctx, doc.StoragePath)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return Document{}, nil, ErrFileMissing
		}
		return Document{}, nil, fmt.Errorf("open stored file: %w", err)
	}
	return doc, rc, nil
}

// DownloadURL returns a signed URL for the document when presigned downloads
// are enabled and the store can sign. ok is false otherwise.
func (s *Service) DownloadURL(ctx context.Context, userID string, id int64) (url string, ok bool, err error) {
	presigner, can := s.Store.(object.Presigner)
	if !s.PresignDownloads || !can {
		return "", false, nil
	}
	doc, err := s.Get(ctx, userID, id)
	if err != nil {
		return "", false, err
	}
	ttl := s.PresignTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	url, err = presigner.PresignGet(ctx, doc.StoragePath, doc.OriginalFileName, ttl)
	if err != nil {
		return "", false, fmt.Errorf("presign download: %w", err)
	}
	return url, true, nil
}

// Timeline groups the user's documents into visits.
func (s *Service) Timeline(ctx context.Context, userID string) ([]VisitGroup, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	docs, err := s.Repo.ForUser(userID).ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return GroupTimeline(docs), nil
}

func (s *Service) maxUpload() int64 {
	if s.MaxUploadBytes > 0 {
		return s.MaxUploadBytes
	}
	return DefaultMaxUploadBytes
}

// resolveMimeType trusts the declared type unless it is missing or generic,
// in which case the content is sniffed.
func resolveMimeType(declared, fileName string, data []byte) (string, error) {
	mt := strings.ToLower(strings.TrimSpace(strings.Split(declared, ";")[0]))
	if mt == "" || mt == "application/octet-stream" {
		mt = extract.DetectMimeType(fileName, data)
	}
	mt = extract.NormalizeMimeType(mt, fileName, data)
	if !allowedMimeTypes[mt] {
		return "", invalid("file", "unsupported_type",
			fmt.Sprintf("File type %s is not supported. Please upload PDF, TXT, RTF, DOC, DOCX, JPG, or PNG files.", mt))
	}
	return mt, nil
}
