package classify

import (
	"strings"
	"time"
)

// PlaceholderSummary is used when no model summarized the document.
const PlaceholderSummary = "Document uploaded. AI classification not available."

type keywordRule[T any] struct {
	value    T
	keywords []string
}

var imagingKeywords = []string{"scan", "mri", "ct", "xray", "x-ray", "ultrasound", "imaging"}

// Order matters: the first matching rule wins.
var documentTypeRules = []keywordRule[DocumentType]{
	{LabReport, []string{"lab", "result", "test", "blood", "panel"}},
	{Prescription, []string{"rx", "prescription", "medication", "pharmacy"}},
	{DoctorNote, []string{"note", "visit", "consult", "appointment", "chart"}},
}

var clinicalTypeRules = []keywordRule[ClinicalType]{
	{Cardiology, []string{"heart", "cardiac", "cardio", "ecg", "ekg", "echo", "blood pressure", "hypertension"}},
	{Dermatology, []string{"skin", "derma", "rash", "acne", "mole", "eczema", "psoriasis"}},
	{Neurology, []string{"neuro", "brain", "migraine", "headache", "seizure", "stroke", "nerve"}},
	{Endocrinology, []string{"diabetes", "thyroid", "hormone", "endocrine", "insulin", "glucose"}},
	{Dentistry, []string{"dental", "tooth", "teeth", "dentist", "oral", "cavity", "gum"}},
	{Gynecology, []string{"gyneco", "obstetric", "pregnancy", "prenatal", "pap smear", "mammogram", "ovarian", "uterine"}},
	{Psychiatry, []string{"mental", "psych", "anxiety", "depression", "therapy", "counseling"}},
	{GeneralPrimaryCare, []string{"physical", "checkup", "annual", "wellness", "primary care"}},
}

// Rules classifies from the file name and MIME type alone. It performs no I/O.
type Rules struct {
	// Now supplies the upload date for titles. Nil means time.Now.
	Now func() time.Time
}

// Classify never fails; unmatched inputs classify as other/other_unclassified.
func (r Rules) Classify(fileName, mimeType string) Result {
	name := strings.ToLower(fileName)
	docType := ruleDocumentType(name, strings.ToLower(mimeType))
	clinical := ruleClinicalType(name)

	return Result{
		Title:         r.title(docType),
		DocumentType:  docType,
		ClinicalTypes: []ClinicalType{clinical},
		ClinicalType:  clinical,
		ShortSummary:  PlaceholderSummary,
		Source:        SourceRules,
	}
}

func (r Rules) title(t DocumentType) string {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	return t.Label() + " (uploaded " + now().Format(DisplayDate) + ")"
}

func ruleDocumentType(name, mimeType string) DocumentType {
	// Images are only ever imaging or other.
	if strings.HasPrefix(mimeType, "image/") {
		if containsAny(name, imagingKeywords) {
			return MedicalImage
		}
		return OtherType
	}
	for _, rule := range documentTypeRules {
		if containsAny(name, rule.keywords) {
			return rule.value
		}
	}
	return OtherType
}

func ruleClinicalType(name string) ClinicalType {
	for _, rule := range clinicalTypeRules {
		if containsAny(name, rule.keywords) {
			return rule.value
		}
	}
	return OtherUnclassified
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
