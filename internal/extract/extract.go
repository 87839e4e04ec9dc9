package extract

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"mime"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	MIMEPlain    = "text/plain"
	MIMEMarkdown = "text/markdown"
	MIMEPDF      = "application/pdf"
	MIMEDocx     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrEmptyText       = errors.New("no text found in document")
)

// Document is a single uploaded or downloaded resume.
type Document struct {
	Filename string
	MIME     string
	Data     []byte
}

// Text returns the plain text content of data, interpreted as the given MIME type.
func Text(mimeType string, data []byte) (string, error) {
	var (
		text string
		err  error
	)
	switch NormalizeMIME(mimeType) {
	case MIMEPlain, MIMEMarkdown:
		text = string(data)

	case MIMEPDF:
		text, err = pdfText(data)

	case MIMEDocx:
		text, err = docxText(data)

	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	return text, nil
}

func pdfText(data []byte) (string, error) {
	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}
	var textBuilder strings.Builder
	numPages := pdfReader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, _ := page.GetPlainText(nil)
		textBuilder.WriteString(text)
	}
	return textBuilder.String(), nil
}

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>`)
	docxTag          = regexp.MustCompile(`<[^>]*>`)
)

func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	// GetContent is the raw document.xml body
	content := doc.Editable().GetContent()
	content = docxParagraphEnd.ReplaceAllString(content, "\n")
	content = docxTag.ReplaceAllString(content, "")
	return html.UnescapeString(content), nil
}

// NormalizeMIME lowercases a media type and drops its parameters.
func NormalizeMIME(mimeType string) string {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mimeType))
	}
	return mt
}

// MIMEFromFilename guesses the MIME type of a resume from its extension.
func MIMEFromFilename(name string) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return MIMEPDF, nil
	case ".docx":
		return MIMEDocx, nil
	case ".txt":
		return MIMEPlain, nil
	case ".md", ".markdown":
		return MIMEMarkdown, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, filepath.Ext(name))
	}
}

// Detect picks the MIME type for a document, preferring the declared one and
// falling back to the file extension when it is missing or generic.
func Detect(filename, declared string) string {
	mt := NormalizeMIME(declared)
	if mt != "" && mt != "application/octet-stream" {
		return mt
	}
	if byExt, err := MIMEFromFilename(filename); err == nil {
		return byExt
	}
	return mt
}
