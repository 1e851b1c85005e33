package chat

import (
	_ "embed"
	"strconv"
	"strings"

	"medvault-backend/internal/documents"
)

//go:embed prompts/system.txt
var systemPrompt string

func buildSystemPrompt(docs []documents.Document) string {
	return strings.NewReplacer(
		"{{DOCUMENT_COUNT}}", strconv.Itoa(len(docs)),
		"{{DOCUMENTS}}", documents.ContextBlocks(docs, false),
	).Replace(systemPrompt)
}
