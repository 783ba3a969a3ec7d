package rag

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dslipak/pdf"
	"jaytaylor.com/html2text"
)

// readNote returns the plain text of a note file. Markdown and plain
// text pass through unchanged, PDF and HTML get converted.
func readNote(path string) (string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", fmt.Errorf("file does not exist: %s", path)
	}

	switch filepath.Ext(path) {
	case ".pdf":
		r, err := pdf.Open(path)
		if err != nil {
			return "", err
		}
		b, err := r.GetPlainText()
		if err != nil {
			return "", err
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(b); err != nil {
			return "", err
		}
		return buf.String(), nil
	case ".html", ".htm":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return html2text.FromString(string(data), html2text.Options{PrettyTables: true})
	case ".md", ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

// isMarkdown reports whether the file should be parsed into catalog
// topics. Converted formats only feed the search engine: their bullet
// structure is too loose for the catalog grammar.
func isMarkdown(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".md")
}
