package chunker

import (
	"fmt"
	"sort"
	"strings"

	"github.com/liuwen-dev/novelseg/internal/novel"
)

// Config controls chunk assembly.
type Config struct {
	TargetLen int `json:"target_len"` // flush eagerly once the buffer reaches this
	MinLen    int `json:"min_len"`    // buffers below this accept one overflow rather than flush small
	MaxLen    int `json:"max_len"`    // soft maximum for prose chunks

	// A single prose paragraph longer than MaxLen stays one chunk: it is
	// already semantically coherent and the normalizer had its chance.
	AllowSingleOverMax bool `json:"allow_single_over_max"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TargetLen:          500,
		MinLen:             350,
		MaxLen:             650,
		AllowSingleOverMax: true,
	}
}

// ChunkID derives the stable identifier from chapter number and the
// per-chapter emission ordinal, zero-padded so ids sort correctly.
func ChunkID(chapter, ordinal int) string {
	return fmt.Sprintf("c%03d_%04d", chapter, ordinal)
}

// assembler carries the per-chapter prose accumulation state.
type assembler struct {
	cfg    Config
	chunks []novel.Chunk

	currentCh int
	ordinal   int

	buf    []novel.Paragraph
	bufLen int
}

// Assemble groups normalized paragraphs into chunks. Prose accumulates toward
// the target band within a chapter; every poem paragraph becomes its own
// chunk. Input order is re-established by (chapter, para_idx) before
// assembly, so the result is deterministic for a given collection.
func Assemble(paras []novel.Paragraph, cfg Config) []novel.Chunk {
	if cfg.TargetLen <= 0 {
		cfg.TargetLen = 500
	}
	if cfg.MinLen <= 0 {
		cfg.MinLen = 350
	}
	if cfg.MaxLen <= 0 {
		cfg.MaxLen = 650
	}

	rows := make([]novel.Paragraph, len(paras))
	copy(rows, paras)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Chapter != rows[j].Chapter {
			return rows[i].Chapter < rows[j].Chapter
		}
		return rows[i].ParaIdx < rows[j].ParaIdx
	})

	a := &assembler{cfg: cfg, currentCh: -1}
	for _, r := range rows {
		a.add(r)
	}
	a.flush()
	return a.chunks
}

func (a *assembler) add(p novel.Paragraph) {
	text := strings.TrimSpace(p.Text)
	if text == "" {
		return
	}
	l := novel.RuneLen(text)

	// Chapter boundary: flush the previous chapter's buffer, reset the
	// per-chapter ordinal.
	if p.Chapter != a.currentCh {
		a.flush()
		a.currentCh = p.Chapter
		a.ordinal = 0
	}

	// Poems never merge with neighboring prose.
	if p.Kind == novel.KindPoem {
		a.flush()
		a.emit(novel.Chunk{
			Chapter:   a.currentCh,
			Kind:      novel.KindPoem,
			StartPara: p.ParaIdx,
			EndPara:   p.ParaIdx,
			ParaCount: 1,
			CharLen:   l,
			Text:      text,
		})
		return
	}

	// An oversized paragraph is a deliberate standalone chunk, not an error.
	if a.cfg.AllowSingleOverMax && l > a.cfg.MaxLen {
		a.flush()
		a.emit(novel.Chunk{
			Chapter:   a.currentCh,
			Kind:      novel.KindProse,
			StartPara: p.ParaIdx,
			EndPara:   p.ParaIdx,
			ParaCount: 1,
			CharLen:   l,
			Text:      text,
		})
		return
	}

	if len(a.buf) == 0 {
		a.buf = append(a.buf, p)
		a.bufLen = l
		return
	}

	// Would adding overflow the soft maximum? Check before accepting. A
	// buffer already at the minimum flushes and the paragraph starts fresh;
	// a buffer below it accepts the overflow once, then flushes immediately.
	newLen := a.bufLen + 1 + l // +1 for the joiner
	if newLen > a.cfg.MaxLen {
		if a.bufLen >= a.cfg.MinLen {
			a.flush()
			a.buf = append(a.buf, p)
			a.bufLen = l
		} else {
			a.buf = append(a.buf, p)
			a.bufLen = newLen
			a.flush()
		}
		return
	}

	a.buf = append(a.buf, p)
	a.bufLen = newLen
	// Reaching the target flushes eagerly; tighter chunks beat looser ones.
	if a.bufLen >= a.cfg.TargetLen {
		a.flush()
	}
}

// flush converts the buffered prose paragraphs into one chunk.
func (a *assembler) flush() {
	if len(a.buf) == 0 {
		return
	}
	parts := make([]string, 0, len(a.buf))
	for _, p := range a.buf {
		if t := strings.TrimSpace(p.Text); t != "" {
			parts = append(parts, t)
		}
	}
	text := strings.Join(parts, "\n")
	a.emit(novel.Chunk{
		Chapter:   a.currentCh,
		Kind:      novel.KindProse,
		StartPara: a.buf[0].ParaIdx,
		EndPara:   a.buf[len(a.buf)-1].ParaIdx,
		ParaCount: len(a.buf),
		CharLen:   novel.RuneLen(text),
		Text:      text,
	})
	a.buf = nil
	a.bufLen = 0
}

// emit assigns the next per-chapter ordinal and records the chunk.
func (a *assembler) emit(c novel.Chunk) {
	a.ordinal++
	c.ChunkID = ChunkID(c.Chapter, a.ordinal)
	a.chunks = append(a.chunks, c)
}
