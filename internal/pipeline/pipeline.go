package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/liuwen-dev/novelseg/internal/chapter"
	"github.com/liuwen-dev/novelseg/internal/chunker"
	"github.com/liuwen-dev/novelseg/internal/normalize"
	"github.com/liuwen-dev/novelseg/internal/novel"
	"github.com/liuwen-dev/novelseg/internal/segment"
)

// Stage names reported as Run enters each stage.
const (
	StageSplit     = "split"
	StageSegment   = "segment"
	StageNormalize = "normalize"
	StageChunk     = "chunk"
)

// Options bundles the configuration of all four stages.
type Options struct {
	Chapter   chapter.Config
	Normalize normalize.Config
	Chunk     chunker.Config

	// Parallelism bounds the per-chapter segmentation workers.
	// <= 0 means GOMAXPROCS.
	Parallelism int

	// OnStage, when set, is called as each stage begins. The worker uses
	// it to surface job progress.
	OnStage func(stage string)
}

// DefaultOptions returns every stage's defaults.
func DefaultOptions() Options {
	return Options{
		Chapter:   chapter.DefaultConfig(),
		Normalize: normalize.DefaultConfig(),
		Chunk:     chunker.DefaultConfig(),
	}
}

// Result is the full output of one pipeline run.
type Result struct {
	Chapters   []novel.Chapter
	Paragraphs []novel.Paragraph
	Chunks     []novel.Chunk
	Stats      chunker.Stats
	Warnings   []string
}

// Run executes the four stages in sequence over normalized novel text.
// Segmentation fans out across chapters (each worker reads one chapter and
// writes only its own partition, merged in chapter order), then the
// full-collection barrier: normalization, assembly, and stats see every
// chapter's records. Deterministic: same text and options, byte-identical
// result.
func Run(ctx context.Context, text string, opts Options, log *slog.Logger) (*Result, error) {
	res := &Result{}
	stage := func(name string) {
		if opts.OnStage != nil {
			opts.OnStage(name)
		}
	}

	stage(StageSplit)
	chapters, err := chapter.Split(text, opts.Chapter)
	if err != nil {
		return nil, fmt.Errorf("split chapters: %w", err)
	}
	if len(chapters) != opts.Chapter.ExpectedMax {
		warn := fmt.Sprintf("parsed %d chapters, expected %d; continuing with what was found",
			len(chapters), opts.Chapter.ExpectedMax)
		res.Warnings = append(res.Warnings, warn)
		log.Warn("chapter count mismatch",
			"parsed", len(chapters), "expected", opts.Chapter.ExpectedMax)
	}
	res.Chapters = chapters

	// Per-chapter segmentation. Partitioned output keeps the merge
	// deterministic regardless of completion order.
	stage(StageSegment)
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	partitions := make([][]novel.Paragraph, len(chapters))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i := range chapters {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			partitions[i] = segment.Paragraphs(chapters[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("segment paragraphs: %w", err)
	}

	var paras []novel.Paragraph
	for _, part := range partitions {
		paras = append(paras, part...)
	}

	stage(StageNormalize)
	paras = normalize.Apply(paras, opts.Normalize)
	res.Paragraphs = paras

	stage(StageChunk)
	res.Chunks = chunker.Assemble(paras, opts.Chunk)
	res.Stats = chunker.ComputeStats(res.Chunks, opts.Chunk)

	log.Info("pipeline complete",
		"chapters", len(res.Chapters),
		"paragraphs", len(res.Paragraphs),
		"chunks", len(res.Chunks))

	return res, nil
}
