package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"

	"medvault-backend/internal/classify"
)

const (
	reportTitle = "Personal Health Summary"
	disclaimer  = "Generated from your uploaded records by an AI model. It is not a diagnosis; review it with your clinician."
)

// Render lays out the report text as an A4 PDF and writes it to w. Lines
// starting with '#' become headings; blank lines add vertical space.
func Render(w io.Writer, text string, generatedAt time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(reportTitle, true)
	pdf.SetCreator("MedVault", true)
	pdf.SetMargins(marginMM, marginMM, marginMM)
	pdf.SetAutoPageBreak(true, marginMM)
	pdf.AliasNbPages("")
	registerFonts(pdf)

	pdf.SetFooterFunc(func() {
		footer := Styles["footer"]
		pdf.SetY(-15)
		setStyle(pdf, footer)
		pdf.CellFormat(0, footer.LineHeight, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	title := Styles["title"]
	setStyle(pdf, title)
	pdf.CellFormat(0, title.LineHeight, reportTitle, "", 1, "L", false, 0, "")

	meta := Styles["meta"]
	setStyle(pdf, meta)
	pdf.CellFormat(0, meta.LineHeight, "Generated on "+generatedAt.Format(classify.DisplayDate), "", 1, "L", false, 0, "")
	pdf.MultiCell(0, meta.LineHeight, disclaimer, "", "L", false)
	pdf.Ln(4)

	heading := Styles["heading"]
	body := Styles["body"]
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		kind, content := classifyLine(line)
		switch kind {
		case lineBlank:
			pdf.Ln(body.LineHeight / 2)
		case lineHeading:
			pdf.Ln(2)
			setStyle(pdf, heading)
			pdf.MultiCell(0, heading.LineHeight, content, "", "L", false)
			pdf.Ln(1)
		default:
			setStyle(pdf, body)
			pdf.MultiCell(0, body.LineHeight, content, "", "L", false)
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("layout report: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

type lineKind int

const (
	lineBody lineKind = iota
	lineBlank
	lineHeading
)

// classifyLine strips markdown markers the model may still emit.
func classifyLine(line string) (lineKind, string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return lineBlank, ""
	}
	trimmed = strings.ReplaceAll(trimmed, "**", "")
	if strings.HasPrefix(trimmed, "#") {
		return lineHeading, strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
	}
	for _, marker := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(trimmed, marker) {
			return lineBody, "• " + strings.TrimSpace(trimmed[len(marker):])
		}
	}
	return lineBody, trimmed
}

// registerFonts embeds the Go font family as UTF-8 fonts so accented, Greek
// and Cyrillic text keeps its glyphs. Scripts outside the family (CJK,
// Arabic) still have no glyphs.
func registerFonts(pdf *fpdf.Fpdf) {
	pdf.AddUTF8FontFromBytes(fontFamily, "", goregular.TTF)
	pdf.AddUTF8FontFromBytes(fontFamily, "B", gobold.TTF)
	pdf.AddUTF8FontFromBytes(fontFamily, "I", goitalic.TTF)
	pdf.AddUTF8FontFromBytes(fontFamily, "BI", gobolditalic.TTF)
}

func setStyle(pdf *fpdf.Fpdf, s TextStyle) {
	pdf.SetFont(fontFamily, s.fontStyle(), s.Size)
}
