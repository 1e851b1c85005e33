// Package extract reads text out of uploaded files without a model: the PDF
// text layer, DOCX paragraphs, RTF bodies and plain text.
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeRTF  = "application/rtf"
	MimeText = "text/plain"
	mimeZip  = "application/zip"
)

// ErrUnsupported is returned for payloads with no local text extractor.
var ErrUnsupported = errors.New("unsupported mime type")

var extractors = map[string]func([]byte) (string, error){
	MimePDF:  extractPDF,
	MimeDOCX: extractDOCX,
	MimeRTF:  extractRTF,
	MimeText: extractPlain,
}

var byExtension = map[string]string{
	".pdf":  MimePDF,
	".docx": MimeDOCX,
	".doc":  "application/msword",
	".rtf":  MimeRTF,
	".txt":  MimeText,
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// Supports reports whether ExtractTextFromBytes can read mimeType.
func Supports(mimeType string) bool {
	_, ok := extractors[cleanMime(mimeType)]
	return ok
}

// ExtractTextFromBytes extracts trimmed text from an in-memory payload.
func ExtractTextFromBytes(ctx context.Context, data []byte, mimeType string, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	normalized := NormalizeMimeType(mimeType, fileName, data)
	fn, ok := extractors[normalized]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, normalized)
	}
	text, err := fn(data)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// DetectMimeType identifies data by content and falls back to the file
// extension when the content alone is ambiguous.
func DetectMimeType(fileName string, data []byte) string {
	detected := cleanMime(mimetype.Detect(data).String())
	switch detected {
	case "application/octet-stream", mimeZip, "application/x-ole-storage":
		if mt, ok := byExtension[strings.ToLower(filepath.Ext(fileName))]; ok {
			return mt
		}
	}
	return NormalizeMimeType(detected, fileName, data)
}

// NormalizeMimeType strips parameters and resolves zip payloads that are
// really DOCX files.
func NormalizeMimeType(mimeType string, fileName string, data []byte) string {
	clean := cleanMime(mimeType)
	switch clean {
	case "text/rtf":
		return MimeRTF
	case mimeZip:
	default:
		return clean
	}
	if _, err := readZipEntry(data, "word/document.xml"); err == nil {
		return MimeDOCX
	}
	if strings.EqualFold(filepath.Ext(fileName), ".docx") {
		return MimeDOCX
	}
	return clean
}

func cleanMime(mimeType string) string {
	return strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
}

func extractPlain(data []byte) (string, error) {
	return strings.ToValidUTF8(string(data), ""), nil
}

func extractPDF(data []byte) (text string, err error) {
	// The pdf reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf parse panic: %v", r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf strings.Builder
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func readZipEntry(data []byte, name string) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("empty archive")
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s not found", name)
}

func extractDOCX(data []byte) (string, error) {
	raw, err := readZipEntry(data, "word/document.xml")
	if err != nil {
		return "", fmt.Errorf("read docx: %w", err)
	}

	decoder := xml.NewDecoder(bytes.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse docx: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.Write(t)
		case xml.EndElement:
			if (t.Name.Local == "p" || t.Name.Local == "br") && buf.Len() > 0 {
				buf.WriteByte('\n')
			}
		}
	}
	return buf.String(), nil
}

// extractRTF keeps the text runs of an RTF body. \par and \line become
// newlines, \'hh escapes decode as Latin-1 and destination groups are skipped.
func extractRTF(data []byte) (string, error) {
	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte(`{\rtf`)) {
		return "", errors.New("not an rtf document")
	}
	var (
		buf       strings.Builder
		depth     int
		skipDepth = -1
	)
	for i := 0; i < len(data); i++ {
		ch := data[i]
		switch ch {
		case '{':
			depth++
			if i+2 < len(data) && data[i+1] == '\\' && data[i+2] == '*' && skipDepth < 0 {
				skipDepth = depth
			}
		case '}':
			if depth == skipDepth {
				skipDepth = -1
			}
			depth--
		case '\\':
			word, next := rtfControlWord(data, i+1)
			i = next - 1
			if skipDepth >= 0 {
				continue
			}
			switch word {
			case "fonttbl", "colortbl", "stylesheet", "info", "pict":
				skipDepth = depth
			case "par", "line":
				buf.WriteByte('\n')
			case "tab":
				buf.WriteByte('\t')
			case "'":
				if next+2 <= len(data) {
					if v, err := strconv.ParseUint(string(data[next:next+2]), 16, 8); err == nil {
						buf.WriteRune(rune(v))
					}
					i = next + 1
				}
			case `\`, "{", "}":
				buf.WriteString(word)
			}
		case '\r', '\n':
		default:
			if skipDepth < 0 {
				buf.WriteByte(ch)
			}
		}
	}
	return buf.String(), nil
}

// rtfControlWord reads the control word starting at i (just past the
// backslash) and returns it with the index of the first byte after it.
func rtfControlWord(data []byte, i int) (string, int) {
	if i >= len(data) {
		return "", i
	}
	if c := data[i]; !isASCIILetter(c) {
		return string(c), i + 1
	}
	start := i
	for i < len(data) && isASCIILetter(data[i]) {
		i++
	}
	word := string(data[start:i])
	if i < len(data) && (data[i] == '-' || (data[i] >= '0' && data[i] <= '9')) {
		i++
		for i < len(data) && data[i] >= '0' && data[i] <= '9' {
			i++
		}
	}
	if i < len(data) && data[i] == ' ' {
		i++
	}
	return word, i
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
