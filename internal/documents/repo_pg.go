package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"medvault-backend/internal/classify"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, user_id, original_file_name, storage_path, mime_type, size_bytes, document_type, clinical_type, title, source, date_of_service, short_summary, extracted_text, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *PGRepo) ForUser(userID string) Scoped {
	return pgScoped{db: r.DB, userID: userID}
}

// ClaimGuest reassigns documents owned by a guest user to an authenticated user.
func (r *PGRepo) ClaimGuest(ctx context.Context, guestUserID, userID string) (int, error) {
	return claimGuest(ctx, r.DB, guestUserID, userID)
}

// ClaimGuestTx is ClaimGuest inside a caller-owned transaction.
func (r *PGRepo) ClaimGuestTx(ctx context.Context, tx *sql.Tx, guestUserID, userID string) (int, error) {
	return claimGuest(ctx, tx, guestUserID, userID)
}

func claimGuest(ctx context.Context, db execer, guestUserID, userID string) (int, error) {
	const query = `
UPDATE documents
SET user_id = $1, updated_at = now()
WHERE user_id = $2`
	res, err := db.ExecContext(ctx, query, userID, guestUserID)
	if err != nil {
		return 0, fmt.Errorf("claim guest documents: %w", err)
	}
	updated, _ := res.RowsAffected()
	return int(updated), nil
}

type pgScoped struct {
	db     *sql.DB
	userID string
}

func (s pgScoped) UserID() string { return s.userID }

func (s pgScoped) Create(ctx context.Context, doc Document) (Document, error) {
	const query = `
INSERT INTO documents (
    user_id,
    original_file_name,
    storage_path,
    mime_type,
    size_bytes,
    document_type,
    clinical_type,
    title,
    source,
    date_of_service,
    short_summary,
    extracted_text
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id, created_at, updated_at`

	doc.UserID = s.userID
	doc.normalize()

	var dateOfService sql.NullTime
	if doc.DateOfService != nil {
		dateOfService = sql.NullTime{Time: *doc.DateOfService, Valid: true}
	}
	var extracted sql.NullString
	if doc.ExtractedText != nil {
		extracted = sql.NullString{String: *doc.ExtractedText, Valid: true}
	}

	err := s.db.QueryRowContext(
		ctx,
		query,
		doc.UserID,
		doc.OriginalFileName,
		doc.StoragePath,
		doc.MimeType,
		doc.SizeBytes,
		string(doc.DocumentType),
		string(doc.ClinicalType),
		doc.Title,
		doc.Source,
		dateOfService,
		doc.ShortSummary,
		extracted,
	).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return Document{}, fmt.Errorf("insert document: %w", err)
	}
	return doc, nil
}

func (s pgScoped) Get(ctx context.Context, id int64) (Document, error) {
	query := `SELECT ` + documentColumns + `
FROM documents
WHERE user_id = $1 AND id = $2`
	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, s.userID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

func (s pgScoped) List(ctx context.Context, filter Filter) ([]Document, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	where := []string{"user_id = $1"}
	args := []any{s.userID}
	if filter.DocumentType != "" {
		args = append(args, string(filter.DocumentType))
		where = append(where, fmt.Sprintf("document_type = $%d", len(args)))
	}
	if filter.ClinicalType != "" {
		args = append(args, string(filter.ClinicalType))
		where = append(where, fmt.Sprintf("clinical_type = $%d", len(args)))
	}
	query := `SELECT ` + documentColumns + `
FROM documents
WHERE ` + strings.Join(where, " AND ") + `
ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (s pgScoped) ListAll(ctx context.Context) ([]Document, error) {
	return s.List(ctx, Filter{})
}

func (s pgScoped) Delete(ctx context.Context, id int64) (Document, error) {
	query := `DELETE FROM documents
WHERE user_id = $1 AND id = $2
RETURNING ` + documentColumns
	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, s.userID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var docType, clinicalType string
	var dateOfService sql.NullTime
	var extracted sql.NullString
	if err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.OriginalFileName,
		&doc.StoragePath,
		&doc.MimeType,
		&doc.SizeBytes,
		&docType,
		&clinicalType,
		&doc.Title,
		&doc.Source,
		&dateOfService,
		&doc.ShortSummary,
		&extracted,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	); err != nil {
		return Document{}, err
	}
	doc.DocumentType = classify.NormalizeDocumentType(docType)
	doc.ClinicalType = classify.NormalizeClinicalType(clinicalType)
	if dateOfService.Valid {
		d := time.Date(dateOfService.Time.Year(), dateOfService.Time.Month(), dateOfService.Time.Day(), 0, 0, 0, 0, time.UTC)
		doc.DateOfService = &d
	}
	if extracted.Valid {
		text := extracted.String
		doc.ExtractedText = &text
	}
	return doc, nil
}

var _ Repo = (*PGRepo)(nil)
