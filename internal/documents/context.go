package documents

import (
	"fmt"
	"strings"

	"medvault-backend/internal/classify"
)

const noTextPlaceholder = "(No text extracted)"

// ContextBlocks renders one numbered block per document for a model prompt.
// withSpecialty adds the clinical specialty line.
func ContextBlocks(docs []Document, withSpecialty bool) string {
	blocks := make([]string, 0, len(docs))
	for i, doc := range docs {
		blocks = append(blocks, contextBlock(i+1, doc, withSpecialty))
	}
	return strings.Join(blocks, "\n\n")
}

func contextBlock(index int, doc Document, withSpecialty bool) string {
	source := strings.TrimSpace(doc.Source)
	if source == "" {
		source = DefaultSource
	}
	text := noTextPlaceholder
	if doc.ExtractedText != nil && strings.TrimSpace(*doc.ExtractedText) != "" {
		text = *doc.ExtractedText
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[Document %d]\n", index)
	fmt.Fprintf(&b, "ID: %d\n", doc.ID)
	fmt.Fprintf(&b, "Type: %s\n", doc.DocumentType)
	if withSpecialty {
		fmt.Fprintf(&b, "Specialty: %s\n", doc.ClinicalType.Label())
	}
	fmt.Fprintf(&b, "Title: %s\n", doc.Title)
	fmt.Fprintf(&b, "Date: %s\n", doc.EffectiveDate().Format(classify.DisplayDate))
	fmt.Fprintf(&b, "Source: %s\n", source)
	fmt.Fprintf(&b, "Summary: %s\n", doc.ShortSummary)
	fmt.Fprintf(&b, "Extracted Text: %s\n", text)
	b.WriteString("---")
	return b.String()
}
