package documents

import (
	"time"

	"medvault-backend/internal/classify"
)

// Document represents an uploaded medical record owned by a user.
type Document struct {
	ID               int64
	UserID           string
	OriginalFileName string
	// StoragePath is the object store key. It never leaves the service.
	StoragePath   string
	MimeType      string
	SizeBytes     int64
	DocumentType  classify.DocumentType
	ClinicalType  classify.ClinicalType
	Title         string
	Source        string
	DateOfService *time.Time
	ShortSummary  string
	ExtractedText *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EffectiveDate is the date of service when known, else the upload time.
func (d Document) EffectiveDate() time.Time {
	if d.DateOfService != nil {
		return *d.DateOfService
	}
	return d.CreatedAt
}

// Filter narrows a document listing. Empty fields match everything.
type Filter struct {
	DocumentType classify.DocumentType
	ClinicalType classify.ClinicalType
}

// Validate rejects filter values outside the known enums.
func (f Filter) Validate() error {
	if f.DocumentType != "" && !f.DocumentType.Valid() {
		return invalid("documentType", "invalid", "unknown document type")
	}
	if f.ClinicalType != "" && !f.ClinicalType.Valid() {
		return invalid("clinicalType", "invalid", "unknown clinical type")
	}
	return nil
}

// Matches reports whether d satisfies every set field of f.
func (f Filter) Matches(d Document) bool {
	if f.DocumentType != "" && d.DocumentType != f.DocumentType {
		return false
	}
	if f.ClinicalType != "" && d.ClinicalType != f.ClinicalType {
		return false
	}
	return true
}

// normalize forces enum fields into their valid sets before persistence.
func (d *Document) normalize() {
	d.DocumentType = classify.NormalizeDocumentType(string(d.DocumentType))
	d.ClinicalType = classify.NormalizeClinicalType(string(d.ClinicalType))
	if d.Source == "" {
		d.Source = DefaultSource
	}
}

// DefaultSource labels uploads that did not say where they came from.
const DefaultSource = "Unknown"
