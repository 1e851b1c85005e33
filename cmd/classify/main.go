package main

// Classify a local file the same way an upload is classified:
//   go run ./cmd/classify -file ./samples/cbc.pdf

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"medvault-backend/internal/bootstrap"
	"medvault-backend/internal/classify"
	"medvault-backend/internal/extract"
	"medvault-backend/internal/ocr"
	"medvault-backend/internal/shared/cache"
	"medvault-backend/internal/shared/config"
	localstore "medvault-backend/internal/shared/storage/object/local"
)

type output struct {
	FileName      string     `json:"fileName"`
	MimeType      string     `json:"mimeType"`
	Source        string     `json:"source"`
	Title         string     `json:"title"`
	DocumentType  string     `json:"documentType"`
	ClinicalType  string     `json:"clinicalType"`
	ClinicalTypes []string   `json:"clinicalTypes"`
	DateOfService *time.Time `json:"dateOfService"`
	ShortSummary  string     `json:"shortSummary"`
	TextChars     int        `json:"textChars"`
}

func main() {
	cfg := config.Load()

	path := flag.String("file", "", "Path to a document (pdf, docx, txt, jpg, png)")
	provider := flag.String("provider", cfg.LLMProvider, "LLM provider (openai, gemini, none)")
	rulesOnly := flag.Bool("rules", false, "Skip extraction and the model; use filename rules only")
	flag.Parse()

	if strings.TrimSpace(*path) == "" {
		exitErr("file path is required")
	}
	data, err := os.ReadFile(*path)
	if err != nil {
		exitErr(fmt.Sprintf("read file: %v", err))
	}
	fileName := filepath.Base(*path)
	mimeType := extract.DetectMimeType(fileName, data)

	if *rulesOnly {
		writeJSON(toOutput(fileName, mimeType, classify.Rules{}.Classify(fileName, mimeType), 0))
		return
	}

	cfg.LLMProvider = *provider
	client, err := bootstrap.BuildLLM(cfg)
	if err != nil {
		exitErr(err.Error())
	}

	dir, err := os.MkdirTemp("", "medvault-classify-")
	if err != nil {
		exitErr(fmt.Sprintf("temp dir: %v", err))
	}
	defer os.RemoveAll(dir)

	ctx := context.Background()
	store := localstore.New(dir)
	key, _, _, err := store.Save(ctx, "cli", fileName, bytes.NewReader(data))
	if err != nil {
		exitErr(fmt.Sprintf("stage file: %v", err))
	}

	extractor := &ocr.Service{
		Store:      store,
		LLM:        client,
		Model:      cfg.VisionModel,
		Cache:      cache.NewMemory(),
		PDFEnabled: cfg.OCRPDFEnabled,
	}
	text := extractor.Extract(ctx, key, mimeType)

	classifier := classify.AI{LLM: client, Model: cfg.ClassifierModel}
	var body string
	if text != nil {
		body = *text
	}
	writeJSON(toOutput(fileName, mimeType, classifier.Classify(ctx, body, fileName, mimeType), len([]rune(body))))
}

func toOutput(fileName, mimeType string, res classify.Result, textChars int) output {
	clinical := make([]string, 0, len(res.ClinicalTypes))
	for _, ct := range res.ClinicalTypes {
		clinical = append(clinical, string(ct))
	}
	return output{
		FileName:      fileName,
		MimeType:      mimeType,
		Source:        string(res.Source),
		Title:         res.Title,
		DocumentType:  string(res.DocumentType),
		ClinicalType:  string(res.ClinicalType),
		ClinicalTypes: clinical,
		DateOfService: res.DateOfService,
		ShortSummary:  res.ShortSummary,
		TextChars:     textChars,
	}
}

func writeJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		exitErr(fmt.Sprintf("encode: %v", err))
	}
}

func exitErr(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
