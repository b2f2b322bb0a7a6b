package chunker

import (
	"math"
	"sort"

	"github.com/liuwen-dev/novelseg/internal/novel"
)

// Stats is the aggregate record handed to the indexing collaborator alongside
// the chunks, including the configuration that produced them.
type Stats struct {
	TotalChunks int            `json:"total_chunks"`
	ByKind      map[string]int `json:"by_type"`
	LenAvg      float64        `json:"len_avg"`
	LenP50      int            `json:"len_p50"`
	LenP90      int            `json:"len_p90"`
	LenMax      int            `json:"len_max"`
	Config      Config         `json:"config"`
}

// ComputeStats summarizes a chunk collection.
func ComputeStats(chunks []novel.Chunk, cfg Config) Stats {
	s := Stats{
		ByKind: map[string]int{
			string(novel.KindPoem):  0,
			string(novel.KindProse): 0,
		},
		Config: cfg,
	}
	s.TotalChunks = len(chunks)

	lens := make([]int, 0, len(chunks))
	sum := 0
	for _, c := range chunks {
		lens = append(lens, c.CharLen)
		sum += c.CharLen
		if c.CharLen > s.LenMax {
			s.LenMax = c.CharLen
		}
		s.ByKind[string(c.Kind)]++
	}

	if len(lens) > 0 {
		s.LenAvg = float64(sum) / float64(len(lens))
		sort.Ints(lens)
		s.LenP50 = percentile(lens, 0.50)
		s.LenP90 = percentile(lens, 0.90)
	}
	return s
}

// percentile is nearest-rank over a sorted slice. Exact interpolation is not
// worth fractional characters.
func percentile(sorted []int, p float64) int {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Round(float64(len(sorted)-1) * p))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
