package normalize

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/liuwen-dev/novelseg/internal/novel"
)

// Config controls the merge and split passes.
type Config struct {
	LeadinMaxLen    int  `json:"leadin_len_threshold"`  // lead-ins at or below this length merge forward
	MergeTitleLike  bool `json:"merge_title_like"`      // merge ultra-short title-like lines into the next paragraph
	TitleLikeMaxLen int  `json:"title_like_max_len"`    // length ceiling for the title-like heuristic
	LongParaLen     int  `json:"long_len_threshold"`    // prose above this gets split
	SegmentTarget   int  `json:"target_segment_len"`    // desired segment length
	SegmentMin      int  `json:"min_segment_len"`       // no segment below this after the tail fix-up
	SegmentMax      int  `json:"max_segment_len"`       // soft maximum; force-cut point of last resort
	KeepPoems       bool `json:"keep_poem_as_is"`       // never split poem paragraphs
}

func DefaultConfig() Config {
	return Config{
		LeadinMaxLen:    20,
		MergeTitleLike:  true,
		TitleLikeMaxLen: 6,
		LongParaLen:     1200,
		SegmentTarget:   600,
		SegmentMin:      200,
		SegmentMax:      800,
		KeepPoems:       true,
	}
}

// Lead-in markers: bare 曰-style introductions (又曰：/诗曰：/其词曰), with or
// without the trailing colon, and bracketed titles spanning the whole line.
var leadinRe = regexp.MustCompile(strings.Join([]string{
	`^(又)?曰[:：]?$`,
	`^(诗|词|题|赋|赞|偈|歌|曲)曰[:：]?$`,
	`^(其诗|其词|其文)曰[:：]?$`,
	`^（?(诗|词)曰）?[:：]?$`,
	`^《.*》$`,
	`^【.*】$`,
}, "|"))

// Title-like shorts: a handful of Han characters and nothing else, typically
// plaque inscriptions or scene headings. Kept conservative so short dialogue
// survives.
var titleLikeRe = regexp.MustCompile(`^\p{Han}+$`)

func isLeadin(p novel.Paragraph, cfg Config) bool {
	if p.CharLen > cfg.LeadinMaxLen {
		return false
	}
	return leadinRe.MatchString(strings.TrimSpace(p.Text))
}

func isTitleLikeShort(p novel.Paragraph, cfg Config) bool {
	if !cfg.MergeTitleLike {
		return false
	}
	t := strings.TrimSpace(p.Text)
	if novel.RuneLen(t) > cfg.TitleLikeMaxLen {
		return false
	}
	return titleLikeRe.MatchString(t)
}

// Renumber reassigns para_idx contiguously from 1 within each chapter,
// preserving (chapter, para_idx) order. Idempotent; run after every
// structural edit.
func Renumber(paras []novel.Paragraph) []novel.Paragraph {
	out := make([]novel.Paragraph, len(paras))
	copy(out, paras)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Chapter != out[j].Chapter {
			return out[i].Chapter < out[j].Chapter
		}
		return out[i].ParaIdx < out[j].ParaIdx
	})

	currentCh := -1
	counter := 0
	for i := range out {
		if out[i].Chapter != currentCh {
			currentCh = out[i].Chapter
			counter = 1
		} else {
			counter++
		}
		out[i].ParaIdx = counter
	}
	return out
}

// MergeShort merges lead-in and title-like-short paragraphs into the
// immediately following paragraph of the same chapter. The merged paragraph
// carries the next paragraph's kind, so 诗曰： folds into the poem it
// introduces. Never merges across chapter boundaries. Output is renumbered.
func MergeShort(paras []novel.Paragraph, cfg Config) []novel.Paragraph {
	rows := make([]novel.Paragraph, len(paras))
	copy(rows, paras)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Chapter != rows[j].Chapter {
			return rows[i].Chapter < rows[j].Chapter
		}
		return rows[i].ParaIdx < rows[j].ParaIdx
	})

	out := make([]novel.Paragraph, 0, len(rows))
	i := 0
	for i < len(rows) {
		cur := rows[i]
		if (isLeadin(cur, cfg) || isTitleLikeShort(cur, cfg)) && i+1 < len(rows) {
			nxt := rows[i+1]
			if nxt.Chapter == cur.Chapter {
				merged := nxt
				merged.Text = strings.TrimSpace(cur.Text) + "\n" +
					strings.TrimLeftFunc(nxt.Text, unicode.IsSpace)
				merged.CharLen = novel.RuneLen(merged.Text)
				out = append(out, merged)
				i += 2
				continue
			}
		}
		out = append(out, cur)
		i++
	}

	return Renumber(out)
}

// SplitLong splits prose paragraphs above the length ceiling into segments at
// punctuation boundaries. Poems are left intact when cfg.KeepPoems is set.
// New rows get temporary ordinals (orig*1000+i) so order survives until the
// renumbering that follows.
func SplitLong(paras []novel.Paragraph, cfg Config) []novel.Paragraph {
	rows := make([]novel.Paragraph, len(paras))
	copy(rows, paras)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Chapter != rows[j].Chapter {
			return rows[i].Chapter < rows[j].Chapter
		}
		return rows[i].ParaIdx < rows[j].ParaIdx
	})

	out := make([]novel.Paragraph, 0, len(rows))
	for _, r := range rows {
		if cfg.KeepPoems && r.Kind == novel.KindPoem {
			out = append(out, r)
			continue
		}
		if r.Kind != novel.KindProse || r.CharLen <= cfg.LongParaLen {
			out = append(out, r)
			continue
		}

		segments := splitText(r.Text, cfg)
		if len(segments) <= 1 {
			out = append(out, r)
			continue
		}
		for segI, seg := range segments {
			nr := r
			nr.Text = seg
			nr.CharLen = novel.RuneLen(seg)
			nr.Kind = novel.KindProse
			nr.ParaIdx = r.ParaIdx*1000 + segI + 1
			out = append(out, nr)
		}
	}

	return Renumber(out)
}

// Apply runs the merge pass then the split pass, the required order.
func Apply(paras []novel.Paragraph, cfg Config) []novel.Paragraph {
	return SplitLong(MergeShort(paras, cfg), cfg)
}

// Boundary character classes for splitting. Strong marks end sentences; weak
// marks are used only when no strong mark falls inside the search window.
var strongBoundary = map[rune]struct{}{
	'。': {}, '！': {}, '？': {}, '!': {}, '?': {}, '；': {}, ';': {},
}

var weakBoundary = map[rune]struct{}{
	'，': {}, ',': {}, '：': {}, ':': {}, '、': {},
}

// How far either side of the target offset the boundary search may wander.
const boundaryWindow = 120

// splitText cuts text into segments near cfg.SegmentTarget characters,
// preferring the latest boundary inside the window so segments stay close to
// the target. Cuts land after the punctuation mark. Deterministic and purely
// rule-based.
func splitText(text string, cfg Config) []string {
	r := []rune(strings.TrimSpace(text))
	n := len(r)
	if n <= cfg.LongParaLen {
		return []string{string(r)}
	}

	var segments []string
	start := 0
	for start < n {
		if n-start <= cfg.SegmentMax {
			if seg := strings.TrimSpace(string(r[start:])); seg != "" {
				segments = append(segments, seg)
			}
			break
		}

		target := start + cfg.SegmentTarget
		left := max(start+cfg.SegmentMin, target-boundaryWindow)
		right := min(n-1, target+boundaryWindow)

		cut, ok := findBoundary(r, left, right, true)
		if !ok {
			cut, ok = findBoundary(r, left, right, false)
		}
		if !ok {
			cut = start + cfg.SegmentMax
		}

		if seg := strings.TrimSpace(string(r[start:cut])); seg != "" {
			segments = append(segments, seg)
		}
		start = cut
	}

	// A too-small tail merges back into its predecessor.
	if len(segments) >= 2 && novel.RuneLen(segments[len(segments)-1]) < cfg.SegmentMin {
		last := segments[len(segments)-1]
		prev := segments[len(segments)-2]
		segments[len(segments)-2] = strings.TrimSpace(
			strings.TrimRightFunc(prev, unicode.IsSpace) + "\n" +
				strings.TrimLeftFunc(last, unicode.IsSpace))
		segments = segments[:len(segments)-1]
	}

	return segments
}

// findBoundary scans right-to-left for the nearest boundary character and
// returns the cut index just past it.
func findBoundary(r []rune, left, right int, strong bool) (int, bool) {
	for i := right; i >= left; i-- {
		if _, ok := strongBoundary[r[i]]; ok {
			return i + 1, true
		}
		if !strong {
			if _, ok := weakBoundary[r[i]]; ok {
				return i + 1, true
			}
		}
	}
	return 0, false
}
