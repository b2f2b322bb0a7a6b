package segment

import (
	"strings"

	"github.com/liuwen-dev/novelseg/internal/novel"
)

// The canonical paragraph-initial indentation: two full-width spaces.
const fullwidthIndent = "　　"

// Closing marks that end a verse line: sentence-final plus comma-class.
var verseLineEnd = []string{"。", "？", "！", "…", "?", "!", "，", "、", ","}

// Chapter-end sentinels in both bracket styles. Dropped, never emitted.
var endMarkers = map[string]struct{}{
	"(本章完)":  {},
	"（本章完）": {},
	"(本回完)":  {},
	"（本回完）": {},
}

// IsVerseLine reports whether a line scans as a single verse: non-empty, at
// most 40 characters, ending in a closing mark.
func IsVerseLine(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if novel.RuneLen(s) > 40 {
		return false
	}
	for _, p := range verseLineEnd {
		if strings.HasSuffix(s, p) {
			return true
		}
	}
	return false
}

type mode int

const (
	modeProse mode = iota
	modePoem
)

// state is the segmenter's explicit state machine: the current accumulation
// mode plus the line buffer, threaded through one pass over the body.
type state struct {
	mode mode
	buf  []string
	out  []string
}

// flush emits the buffered lines as one paragraph (newline-joined, trimmed,
// discarded if empty) and resets to prose mode.
func (st *state) flush() {
	if len(st.buf) > 0 {
		text := strings.TrimSpace(strings.Join(st.buf, "\n"))
		if text != "" {
			st.out = append(st.out, text)
		}
	}
	st.buf = nil
	st.mode = modeProse
}

func (st *state) step(raw string) {
	stripped := strings.TrimSpace(raw)

	if stripped == "" {
		st.flush()
		return
	}
	if _, ok := endMarkers[stripped]; ok {
		st.flush()
		return
	}

	if strings.HasPrefix(raw, fullwidthIndent) {
		// In poem mode consecutive verse lines merge into one paragraph.
		if st.mode == modePoem && IsVerseLine(stripped) {
			st.buf = append(st.buf, stripped)
			return
		}

		// Two verse lines in a row trigger the merge retroactively.
		if st.mode != modePoem && len(st.buf) > 0 &&
			IsVerseLine(st.buf[len(st.buf)-1]) && IsVerseLine(stripped) {
			st.mode = modePoem
			st.buf = append(st.buf, stripped)
			return
		}

		st.flush()
		st.buf = append(st.buf, stripped)
		return
	}

	// Non-indented continuation line. Some editions carry verse without
	// indentation, so check for a late poem transition after appending.
	st.buf = append(st.buf, stripped)
	if st.mode != modePoem && len(st.buf) >= 2 &&
		IsVerseLine(st.buf[len(st.buf)-2]) && IsVerseLine(st.buf[len(st.buf)-1]) {
		st.mode = modePoem
	}
}

// SplitBody segments a chapter body into raw paragraph texts, preserving
// internal newlines for verse.
func SplitBody(body string) []string {
	st := &state{}
	for _, raw := range strings.Split(body, "\n") {
		st.step(raw)
	}
	st.flush()
	return st.out
}

// Classify labels a paragraph poem when it has at least two lines and 60% of
// them scan as verse, prose otherwise.
func Classify(text string) novel.Kind {
	var lines []string
	for _, ln := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(ln); s != "" {
			lines = append(lines, s)
		}
	}
	if len(lines) >= 2 {
		verse := 0
		for _, ln := range lines {
			if IsVerseLine(ln) {
				verse++
			}
		}
		if float64(verse)/float64(len(lines)) >= 0.6 {
			return novel.KindPoem
		}
	}
	return novel.KindProse
}

// Paragraphs segments and classifies one chapter's body, numbering para_idx
// from 1 in narrative order.
func Paragraphs(ch novel.Chapter) []novel.Paragraph {
	texts := SplitBody(ch.Body)
	paras := make([]novel.Paragraph, 0, len(texts))
	for i, t := range texts {
		paras = append(paras, novel.Paragraph{
			Chapter: ch.Number,
			ParaIdx: i + 1,
			Kind:    Classify(t),
			Text:    t,
			CharLen: novel.RuneLen(t),
		})
	}
	return paras
}
