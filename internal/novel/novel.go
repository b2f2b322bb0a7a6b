package novel

import "unicode/utf8"

// Kind classifies a paragraph or chunk as prose or verse.
type Kind string

const (
	KindProse Kind = "prose"
	KindPoem  Kind = "poem"
)

// Chapter is one chapter of the source novel, produced by the chapter
// splitter and immutable afterward.
type Chapter struct {
	Number int    `json:"chapter"`
	Title  string `json:"title"`
	Body   string `json:"text"`
}

// Paragraph is one segmented paragraph. ParaIdx is 1-based and contiguous
// within a chapter; the normalizer renumbers after every structural edit.
// Poem paragraphs keep their internal newlines.
type Paragraph struct {
	Chapter int    `json:"chapter"`
	ParaIdx int    `json:"para_idx"`
	Kind    Kind   `json:"type"`
	Text    string `json:"text"`
	CharLen int    `json:"char_len"`
}

// Chunk is a retrieval-ready unit of text. StartPara/EndPara are inclusive
// paragraph indices within Chapter; a chunk never spans chapters. ChunkID is
// derived from (chapter, ordinal-within-chapter) so re-running the pipeline
// on unchanged input reproduces identical identifiers.
type Chunk struct {
	ChunkID   string `json:"chunk_id"`
	Chapter   int    `json:"chapter"`
	Kind      Kind   `json:"type"`
	StartPara int    `json:"start_para"`
	EndPara   int    `json:"end_para"`
	ParaCount int    `json:"para_count"`
	CharLen   int    `json:"char_len"`
	Text      string `json:"text"`
}

// RuneLen is the character count used for every length threshold in the
// pipeline. Byte counts would overweight CJK text threefold.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}
