package chapter

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/liuwen-dev/novelseg/internal/novel"
)

// ErrNoChapters means the input contains no recognizable chapter heading at
// all. The format assumption is violated and there is no safe recovery.
var ErrNoChapters = errors.New("no chapter title lines detected")

// Config controls chapter splitting.
type Config struct {
	ExpectedMax int // highest chapter number to keep; also the expected count
}

// DefaultConfig covers the first eighty chapters, the commonly ingested span.
func DefaultConfig() Config {
	return Config{ExpectedMax: 80}
}

// A heading looks like 第<numeral>章 or 第<numeral>回 followed by the chapter
// title proper. The numeral may be Arabic or the restricted Chinese set.
var titleRe = regexp.MustCompile(`^第([0-9一二三四五六七八九十百千两]+)([章回])`)

// IsTitleLine reports whether a line opens a new chapter. A bare 第X回 with
// nothing after the unit word is not treated as a heading.
func IsTitleLine(line string) bool {
	s := strings.TrimSpace(line)
	if s == "" {
		return false
	}
	m := titleRe.FindString(s)
	if m == "" {
		return false
	}
	return len(s) > len(m)
}

// Number extracts the chapter number from a title line, or -1 when the line
// does not match the heading pattern.
func Number(titleLine string) int {
	m := titleRe.FindStringSubmatch(strings.TrimSpace(titleLine))
	if m == nil {
		return -1
	}
	return DecodeNumeral(m[1])
}

// Split partitions normalized novel text into ordered chapter records. The
// body of chapter i is everything strictly between title line i and title
// line i+1. Chapters outside [1, cfg.ExpectedMax] are dropped and the rest
// sorted by number, since source order is not trusted. A parsed count that
// differs from ExpectedMax is the caller's warning to surface, not an error.
func Split(text string, cfg Config) ([]novel.Chapter, error) {
	if cfg.ExpectedMax <= 0 {
		cfg.ExpectedMax = 80
	}

	lines := normalizeLines(text)

	var titleIdx []int
	for i, ln := range lines {
		if IsTitleLine(ln) {
			titleIdx = append(titleIdx, i)
		}
	}
	if len(titleIdx) == 0 {
		return nil, ErrNoChapters
	}

	chapters := make([]novel.Chapter, 0, len(titleIdx))
	for k, start := range titleIdx {
		end := len(lines)
		if k+1 < len(titleIdx) {
			end = titleIdx[k+1]
		}
		title := strings.TrimSpace(lines[start])
		body := strings.TrimSpace(strings.Join(lines[start+1:end], "\n"))
		chapters = append(chapters, novel.Chapter{
			Number: Number(title),
			Title:  title,
			Body:   body,
		})
	}

	kept := chapters[:0]
	for _, ch := range chapters {
		if ch.Number >= 1 && ch.Number <= cfg.ExpectedMax {
			kept = append(kept, ch)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Number < kept[j].Number })

	return kept, nil
}

// normalizeLines strips trailing whitespace per line (leading indentation is
// significant and preserved) and drops blank lines at both ends of the file.
func normalizeLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimRightFunc(lines[i], unicode.IsSpace)
	}
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
