package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/muhammadolammi/resumeanalyzer/internal/extract"
)

// ReadFile loads a local resume. The path "-" reads stdin as plain text.
func ReadFile(name string) (extract.Document, error) {
	if name == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return extract.Document{}, fmt.Errorf("read stdin: %w", err)
		}
		return extract.Document{Filename: "stdin", MIME: extract.MIMEPlain, Data: data}, nil
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return extract.Document{}, fmt.Errorf("read resume: %w", err)
	}
	base := filepath.Base(name)
	mimeType, err := extract.MIMEFromFilename(base)
	if err != nil {
		return extract.Document{}, err
	}
	return extract.Document{Filename: base, MIME: mimeType, Data: data}, nil
}
