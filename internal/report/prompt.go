package report

import (
	_ "embed"
	"strconv"
	"strings"
	"time"

	"medvault-backend/internal/classify"
	"medvault-backend/internal/documents"
)

//go:embed prompts/report.txt
var reportPrompt string

func buildPrompt(docs []documents.Document, today time.Time) string {
	return strings.NewReplacer(
		"{{DOCUMENT_COUNT}}", strconv.Itoa(len(docs)),
		"{{DOCUMENTS}}", documents.ContextBlocks(docs, true),
		"{{TODAY}}", today.Format(classify.DisplayDate),
	).Replace(reportPrompt)
}
