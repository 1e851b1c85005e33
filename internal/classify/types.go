// Package classify assigns a document type, clinical specialties, a title and
// a summary to uploaded medical documents.
package classify

import (
	"strings"
	"time"
)

// DocumentType is the kind of medical record.
type DocumentType string

const (
	LabReport    DocumentType = "lab_report"
	MedicalImage DocumentType = "medical_image"
	DoctorNote   DocumentType = "doctor_note"
	Prescription DocumentType = "prescription"
	OtherType    DocumentType = "other"
)

// DocumentTypes lists every valid DocumentType.
var DocumentTypes = []DocumentType{LabReport, MedicalImage, DoctorNote, Prescription, OtherType}

// ClinicalType is a medical specialty.
type ClinicalType string

const (
	GeneralPrimaryCare ClinicalType = "general_primary_care"
	Cardiology         ClinicalType = "cardiology"
	Endocrinology      ClinicalType = "endocrinology"
	Neurology          ClinicalType = "neurology"
	Dermatology        ClinicalType = "dermatology"
	Dentistry          ClinicalType = "dentistry"
	Gynecology         ClinicalType = "gynecology"
	Psychiatry         ClinicalType = "psychiatry"
	OtherUnclassified  ClinicalType = "other_unclassified"
)

// ClinicalTypes lists every valid ClinicalType.
var ClinicalTypes = []ClinicalType{
	GeneralPrimaryCare, Cardiology, Endocrinology, Neurology, Dermatology,
	Dentistry, Gynecology, Psychiatry, OtherUnclassified,
}

// Valid reports whether t is one of DocumentTypes.
func (t DocumentType) Valid() bool {
	for _, v := range DocumentTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Valid reports whether t is one of ClinicalTypes.
func (t ClinicalType) Valid() bool {
	for _, v := range ClinicalTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Label is the human title prefix for a document type.
func (t DocumentType) Label() string {
	switch t {
	case LabReport:
		return "Lab Report"
	case MedicalImage:
		return "Medical Image"
	case DoctorNote:
		return "Doctor Note"
	case Prescription:
		return "Prescription"
	default:
		return "Medical Document"
	}
}

var clinicalLabels = map[ClinicalType]string{
	GeneralPrimaryCare: "General / Primary Care",
	Cardiology:         "Cardiology",
	Endocrinology:      "Endocrinology",
	Neurology:          "Neurology",
	Dermatology:        "Dermatology",
	Dentistry:          "Dentistry",
	Gynecology:         "Gynecology",
	Psychiatry:         "Psychiatry",
	OtherUnclassified:  "Other / Unclassified",
}

// Label is the display name of a specialty.
func (t ClinicalType) Label() string {
	if label, ok := clinicalLabels[t]; ok {
		return label
	}
	return clinicalLabels[OtherUnclassified]
}

// NormalizeDocumentType coerces unknown values to OtherType.
func NormalizeDocumentType(raw string) DocumentType {
	t := DocumentType(strings.ToLower(strings.TrimSpace(raw)))
	if t.Valid() {
		return t
	}
	return OtherType
}

// NormalizeClinicalType coerces unknown values to OtherUnclassified.
func NormalizeClinicalType(raw string) ClinicalType {
	t := ClinicalType(strings.ToLower(strings.TrimSpace(raw)))
	if t.Valid() {
		return t
	}
	return OtherUnclassified
}

// ResultSource records which classifier produced a Result.
type ResultSource string

const (
	SourceRules ResultSource = "rules"
	SourceAI    ResultSource = "ai"
)

// Result is the outcome of classifying one document.
type Result struct {
	Title         string
	DocumentType  DocumentType
	ClinicalTypes []ClinicalType
	// ClinicalType is the primary specialty, always ClinicalTypes[0].
	ClinicalType  ClinicalType
	DateOfService *time.Time
	ShortSummary  string
	Source        ResultSource
}

// DisplayDate is the format used in titles and prompts.
const DisplayDate = "Jan 2, 2006"

// MinTextLength is the trimmed length below which extracted text is ignored.
const MinTextLength = 50
