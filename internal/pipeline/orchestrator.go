package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/liuwen-dev/novelseg/internal/config"
	"github.com/liuwen-dev/novelseg/internal/indexer"
	"github.com/liuwen-dev/novelseg/internal/source"
	"github.com/liuwen-dev/novelseg/internal/store"
)

// Orchestrator manages the ingestion worker pool and job registry.
type Orchestrator struct {
	jobs  *JobStore
	queue chan *Job
	st    *store.Store
	idx   *indexer.Client
	log   *slog.Logger
	cfg   config.Config
	opts  Options

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline orchestrator. idx may be nil for
// offline operation.
func NewOrchestrator(cfg config.Config, st *store.Store, idx *indexer.Client, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:  NewJobStore(cfg.JobTTL),
		queue: make(chan *Job, cfg.MaxQueueSize),
		st:    st,
		idx:   idx,
		log:   log,
		cfg:   cfg,
		opts:  OptionsFromConfig(cfg),
	}
}

// OptionsFromConfig maps the service configuration onto stage options.
func OptionsFromConfig(cfg config.Config) Options {
	opts := DefaultOptions()
	opts.Chapter.ExpectedMax = cfg.ExpectedChapters
	opts.Normalize.LeadinMaxLen = cfg.LeadinMaxLen
	opts.Normalize.MergeTitleLike = cfg.MergeTitleLike
	opts.Normalize.TitleLikeMaxLen = cfg.TitleLikeMaxLen
	opts.Normalize.LongParaLen = cfg.LongParaLen
	opts.Normalize.SegmentTarget = cfg.SegmentTarget
	opts.Normalize.SegmentMin = cfg.SegmentMin
	opts.Normalize.SegmentMax = cfg.SegmentMax
	opts.Normalize.KeepPoems = cfg.KeepPoems
	opts.Chunk.TargetLen = cfg.ChunkTarget
	opts.Chunk.MinLen = cfg.ChunkMin
	opts.Chunk.MaxLen = cfg.ChunkMax
	opts.Chunk.AllowSingleOverMax = cfg.AllowSingleOverMax
	return opts
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	srcOpts := source.Options{PDFFallbackPdftotext: o.cfg.PDFFallbackPdftotext}

	for i := 0; i < o.cfg.WorkerCount; i++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.st, o.idx, o.log, o.opts, srcOpts, o.cfg.IndexBatchSize)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Store exposes the chunk store for API handlers.
func (o *Orchestrator) Store() *store.Store {
	return o.st
}

// Options returns the service-default stage options.
func (o *Orchestrator) Options() Options {
	return o.opts
}
