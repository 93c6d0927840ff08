package analysis

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const previewLength = 500

// ExtractText pulls plain text out of an uploaded report. PDFs are read
// page by page; image formats carry no machine-readable text, so they
// yield an empty string and the caller falls back to its default
// analysis.
func ExtractText(data []byte, contentType string) (string, error) {
	if !strings.Contains(contentType, "pdf") {
		return "", nil
	}
	return extractPDF(data)
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, plain); err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	return sb.String(), nil
}

// Preview truncates extracted text for the API response so large
// reports do not bloat the payload.
func Preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewLength]) + "..."
}
