package classify

import (
	_ "embed"
	"strings"
)

//go:embed prompts/classify.txt
var classifyPrompt string

func buildPrompt(fileName, text string) string {
	docTypes := make([]string, 0, len(DocumentTypes))
	for _, t := range DocumentTypes {
		docTypes = append(docTypes, `"`+string(t)+`"`)
	}
	clinical := make([]string, 0, len(ClinicalTypes))
	for _, t := range ClinicalTypes {
		clinical = append(clinical, `"`+string(t)+`"`)
	}
	replacer := strings.NewReplacer(
		"{{FILE_NAME}}", fileName,
		"{{DOCUMENT_TEXT}}", text,
		"{{DOCUMENT_TYPES}}", strings.Join(docTypes, ", "),
		"{{CLINICAL_TYPES}}", strings.Join(clinical, ", "),
	)
	return replacer.Replace(classifyPrompt)
}
