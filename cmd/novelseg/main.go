package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/liuwen-dev/novelseg/internal/export"
	"github.com/liuwen-dev/novelseg/internal/pipeline"
	"github.com/liuwen-dev/novelseg/internal/source"
	"github.com/liuwen-dev/novelseg/internal/store"
)

func main() {
	var (
		inPath   = flag.String("in", "", "input file (.txt, .md, .html, .pdf, .docx)")
		outChunk = flag.String("out-chunks", "chunks.jsonl", "output path for chunk JSONL")
		outParas = flag.String("out-paragraphs", "", "optional output path for paragraph JSONL")
		outStats = flag.String("out-stats", "", "optional output path for stats JSON")
		dbPath   = flag.String("db", "", "optional sqlite database to record the run in")

		expectedChapters = flag.Int("expected-chapters", 80, "expected chapter count (warn on mismatch)")
		longParaLen      = flag.Int("long-para-len", 1200, "paragraph length that triggers splitting")
		segTarget        = flag.Int("segment-target", 600, "target segment length when splitting")
		segMin           = flag.Int("segment-min", 200, "minimum segment length")
		segMax           = flag.Int("segment-max", 800, "maximum segment length before a forced cut")
		chunkTarget      = flag.Int("chunk-target", 500, "target chunk length")
		chunkMin         = flag.Int("chunk-min", 350, "minimum chunk length")
		chunkMax         = flag.Int("chunk-max", 650, "maximum chunk length")
		keepPoems        = flag.Bool("keep-poems", true, "keep poem paragraphs intact during splitting")
		parallelism      = flag.Int("parallelism", 4, "chapters segmented concurrently")
		noPdftotext      = flag.Bool("no-pdftotext", false, "disable the pdftotext fallback for PDFs")
	)
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "usage: novelseg -in novel.txt [-out-chunks chunks.jsonl]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	opts := pipeline.DefaultOptions()
	opts.Chapter.ExpectedMax = *expectedChapters
	opts.Normalize.LongParaLen = *longParaLen
	opts.Normalize.SegmentTarget = *segTarget
	opts.Normalize.SegmentMin = *segMin
	opts.Normalize.SegmentMax = *segMax
	opts.Normalize.KeepPoems = *keepPoems
	opts.Chunk.TargetLen = *chunkTarget
	opts.Chunk.MinLen = *chunkMin
	opts.Chunk.MaxLen = *chunkMax
	opts.Parallelism = *parallelism

	if err := run(*inPath, *outChunk, *outParas, *outStats, *dbPath, opts, !*noPdftotext, log); err != nil {
		log.Error("novelseg failed", "error", err)
		os.Exit(1)
	}
}

func run(inPath, outChunk, outParas, outStats, dbPath string, opts pipeline.Options, pdftotext bool, log *slog.Logger) error {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	text, err := source.Extract(bytes.NewReader(data), inPath, source.Options{PDFFallbackPdftotext: pdftotext})
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}

	ctx := context.Background()
	res, err := pipeline.Run(ctx, text, opts, log)
	if err != nil {
		return err
	}
	for _, warn := range res.Warnings {
		log.Warn(warn)
	}

	if err := export.WriteChunksJSONL(outChunk, res.Chunks); err != nil {
		return err
	}
	if outParas != "" {
		if err := export.WriteParagraphsJSONL(outParas, res.Paragraphs); err != nil {
			return err
		}
	}
	if outStats != "" {
		if err := export.WriteJSON(outStats, res.Stats); err != nil {
			return err
		}
	}

	if dbPath != "" {
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		cfgJSON, err := json.Marshal(opts.Chunk)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		statsJSON, err := json.Marshal(res.Stats)
		if err != nil {
			return fmt.Errorf("marshal stats: %w", err)
		}
		hash := pipeline.ContentHashHex(data)
		if _, err := st.SaveRun(ctx, hash, inPath, cfgJSON, statsJSON, res.Chunks); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
	}

	log.Info("done",
		"chapters", len(res.Chapters),
		"paragraphs", len(res.Paragraphs),
		"chunks", len(res.Chunks),
	)
	return nil
}
