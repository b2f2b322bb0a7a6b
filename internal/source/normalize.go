package source

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText makes raw extracted text safe for the pipeline: a stripped
// UTF-8 BOM, LF newlines, and NFC composition so decomposed input cannot
// perturb rune counts or boundary offsets. Leading full-width indentation is
// untouched; it carries paragraph structure.
func NormalizeText(text string) string {
	text = strings.TrimPrefix(text, "\uFEFF")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return norm.NFC.String(text)
}
