package main

// Render a sample health summary without calling a model:
//   go run ./cmd/reportdemo -out ./out/health-summary.pdf

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"medvault-backend/internal/report"
)

const sampleReport = `# Executive Summary
Three documents from early 2025 describe a routine annual physical with follow-up bloodwork.
Overall results are **within normal limits** apart from mildly elevated LDL cholesterol.

# Key Findings
- Complete blood count normal (Mar 4, 2025)
- LDL cholesterol 142 mg/dL, above the 130 mg/dL target
* Blood pressure 118/76 at the visit
• Vitamin D 28 ng/mL, borderline low

# Medications and Treatments
- Atorvastatin 10 mg daily started Mar 12, 2025
- Vitamin D3 2000 IU daily

# Trends Over Time
LDL fell from 158 to 142 mg/dL between the 2024 and 2025 panels.

# Recommendations
- Repeat lipid panel in three months
- Discuss statin tolerance at the next visit
`

func main() {
	outPath := flag.String("out", "./out/health-summary.pdf", "output path for the generated PDF")
	inPath := flag.String("in", "", "optional report text file (markdown-like)")
	flag.Parse()

	text := sampleReport
	if strings.TrimSpace(*inPath) != "" {
		data, err := os.ReadFile(*inPath)
		if err != nil {
			exitErr(fmt.Sprintf("read input: %v", err))
		}
		text = string(data)
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, text, time.Now()); err != nil {
		exitErr(fmt.Sprintf("render failed: %v", err))
	}

	pages, err := validate(buf.Bytes())
	if err != nil {
		exitErr(fmt.Sprintf("render validation failed: %v", err))
	}

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		exitErr(fmt.Sprintf("write failed: %v", err))
	}
	if err := os.WriteFile(*outPath, buf.Bytes(), 0o644); err != nil {
		exitErr(fmt.Sprintf("write failed: %v", err))
	}

	fmt.Printf("OK: wrote %s (%d pages)\n", *outPath, pages)
}

func validate(data []byte) (int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	pages := reader.NumPage()
	if pages < 1 {
		return 0, fmt.Errorf("no pages rendered")
	}
	return pages, nil
}

func exitErr(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
