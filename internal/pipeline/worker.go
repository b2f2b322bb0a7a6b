package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/liuwen-dev/novelseg/internal/chapter"
	"github.com/liuwen-dev/novelseg/internal/indexer"
	"github.com/liuwen-dev/novelseg/internal/source"
	"github.com/liuwen-dev/novelseg/internal/store"
)

// Worker processes a single novel ingestion job end to end.
type Worker struct {
	store   *store.Store
	indexer *indexer.Client // nil in offline mode
	log     *slog.Logger

	opts       Options
	sourceOpts source.Options
	indexBatch int
}

func NewWorker(st *store.Store, idx *indexer.Client, log *slog.Logger, opts Options, srcOpts source.Options, indexBatch int) *Worker {
	if indexBatch <= 0 {
		indexBatch = 64
	}
	return &Worker{
		store:      st,
		indexer:    idx,
		log:        log,
		opts:       opts,
		sourceOpts: srcOpts,
		indexBatch: indexBatch,
	}
}

// Process runs read → split → segment → normalize → chunk → store → index
// for a job. The text transformation itself lives in Run; the worker handles
// I/O on either side of it.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: read and normalize the source file.
	job.SetStatus(StatusReading, "reading source")
	text, err := source.Extract(bytes.NewReader(job.FileData()), job.Filename, w.sourceOpts)
	if err != nil {
		log.Error("source read failed", "error", err)
		job.AddError(fmt.Sprintf("read: %s", err))
		job.SetStatus(StatusFailed, "reading source")
		return
	}
	job.SetContentHash(ContentHashHex([]byte(text)))

	opts := w.opts
	if o := job.Options(); o != nil {
		opts = *o
	}

	// Phase 2: the deterministic core, with each stage surfaced on the job.
	opts.OnStage = func(stage string) {
		switch stage {
		case StageSplit:
			job.SetStatus(StatusSplitting, "splitting chapters")
		case StageSegment:
			job.SetStatus(StatusSegmenting, "segmenting paragraphs")
		case StageNormalize:
			job.SetStatus(StatusNormalizing, "normalizing paragraphs")
		case StageChunk:
			job.SetStatus(StatusChunking, "assembling chunks")
		}
	}
	res, err := Run(ctx, text, opts, log)
	if err != nil {
		if errors.Is(err, chapter.ErrNoChapters) {
			log.Error("input format error", "error", err)
		} else {
			log.Error("pipeline failed", "error", err)
		}
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, job.Snapshot().Phase)
		return
	}
	for _, warn := range res.Warnings {
		job.AddWarning(warn)
	}
	job.SetCounts(len(res.Chapters), len(res.Paragraphs), len(res.Chunks))

	// Phase 3: persist the chunk collection and run provenance.
	job.SetStatus(StatusStoring, "storing chunks")
	cfgJSON, err := json.Marshal(opts.Chunk)
	if err != nil {
		cfgJSON = []byte("{}")
	}
	statsJSON, err := json.Marshal(res.Stats)
	if err != nil {
		statsJSON = []byte("{}")
	}
	runID, err := w.store.SaveRun(ctx, job.ContentHash, job.Filename, cfgJSON, statsJSON, res.Chunks)
	if err != nil {
		log.Error("store failed", "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		job.SetStatus(StatusFailed, "storing chunks")
		return
	}
	log.Info("chunks stored", "run_id", runID, "chunks", len(res.Chunks))

	// Phase 4: hand the collection to the indexing collaborator, in batches,
	// retrying transient failures.
	if w.indexer == nil {
		job.SetStatus(StatusCompleted, "done")
		return
	}

	job.SetStatus(StatusIndexing, "indexing")
	hadErrors := false
	for start := 0; start < len(res.Chunks); start += w.indexBatch {
		end := min(start+w.indexBatch, len(res.Chunks))
		batch := res.Chunks[start:end]

		var lastErr error
		for attempt := 0; attempt < MaxRetries; attempt++ {
			lastErr = w.indexer.UpsertChunks(ctx, job.ContentHash, batch)
			if lastErr == nil || !IsRetryable(lastErr) {
				break
			}
			log.Warn("retryable indexing error",
				"batch_start", start, "attempt", attempt, "error", lastErr)
			select {
			case <-time.After(Backoff(attempt)):
			case <-ctx.Done():
			}
			if ctx.Err() != nil {
				lastErr = ctx.Err()
				break
			}
		}
		if lastErr != nil {
			log.Error("indexing failed", "batch_start", start, "error", lastErr)
			job.AddError(fmt.Sprintf("index batch %d: %s", start, lastErr))
			hadErrors = true
			continue
		}
		job.AddChunksIndexed(len(batch))
	}

	switch {
	case hadErrors && job.Snapshot().Progress.ChunksIndexed > 0:
		job.SetStatus(StatusPartial, "done")
	case hadErrors:
		job.SetStatus(StatusFailed, "indexing")
	default:
		job.SetStatus(StatusCompleted, "done")
	}
}
