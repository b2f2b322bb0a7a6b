// Package source reads the novel from the formats its editions circulate in
// and produces the one normalized plain text the pipeline consumes.
package source

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Reader extracts plain text from one source format. The returned text is not
// yet normalized; Extract handles that.
type Reader interface {
	Read(r io.Reader, filename string) (string, error)
}

// Options tweaks format-specific behavior.
type Options struct {
	PDFFallbackPdftotext bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate reader for a filename.
func ForFile(filename string, opts Options) (Reader, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextReader{}, nil
	case ".md", ".markdown":
		return &MarkdownReader{}, nil
	case ".html", ".htm":
		return &HTMLReader{}, nil
	case ".pdf":
		return &PDFReader{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXReader{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Extract picks a reader by extension, runs it, and normalizes the result.
func Extract(r io.Reader, filename string, opts Options) (string, error) {
	rd, err := ForFile(filename, opts)
	if err != nil {
		return "", err
	}
	text, err := rd.Read(r, filename)
	if err != nil {
		return "", err
	}
	return NormalizeText(text), nil
}
