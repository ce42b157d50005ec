package docstore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedFormat is returned for file types the service cannot
// extract text from.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// SupportedExtension reports whether a filename has an ingestable extension.
func SupportedExtension(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".txt", ".md", ".markdown":
		return true
	}
	return false
}

// ExtractText reads a document from disk and returns its plain text.
func ExtractText(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".txt", ".md", ".markdown":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read document: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func extractPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract PDF text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}
	return buf.String(), nil
}
