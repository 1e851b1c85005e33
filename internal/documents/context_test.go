package documents

import (
	"strings"
	"testing"
	"time"

	"medvault-backend/internal/classify"
)

func TestContextBlocks(t *testing.T) {
	service := time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC)
	text := "LDL 130 mg/dL"
	docs := []Document{
		{ID: 7, DocumentType: classify.LabReport, ClinicalType: classify.Cardiology, Title: "Lipid panel", DateOfService: &service, ShortSummary: "Elevated LDL.", ExtractedText: &text, Source: "Quest"},
		{ID: 9, DocumentType: classify.OtherType, Title: "Scan", CreatedAt: time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC)},
	}

	got := ContextBlocks(docs, false)
	want := "[Document 1]\nID: 7\nType: lab_report\nTitle: Lipid panel\nDate: Nov 5, 2024\nSource: Quest\nSummary: Elevated LDL.\nExtracted Text: LDL 130 mg/dL\n---" +
		"\n\n" +
		"[Document 2]\nID: 9\nType: other\nTitle: Scan\nDate: Jan 2, 2025\nSource: Unknown\nSummary: \nExtracted Text: (No text extracted)\n---"
	if got != want {
		t.Fatalf("unexpected context:\n%s", got)
	}

	if withSpecialty := ContextBlocks(docs[:1], true); !strings.Contains(withSpecialty, "Specialty: Cardiology\n") {
		t.Fatalf("expected specialty line:\n%s", withSpecialty)
	}
}
