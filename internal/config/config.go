package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Indexing collaborator (optional; empty URL = offline mode)
	IndexerURL     string
	IndexerAPIKey  string
	IndexBatchSize int

	// Chunk store
	DBPath string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Chapter splitting
	ExpectedChapters int

	// Paragraph normalization
	LeadinMaxLen    int
	MergeTitleLike  bool
	TitleLikeMaxLen int
	LongParaLen     int
	SegmentTarget   int
	SegmentMin      int
	SegmentMax      int
	KeepPoems       bool

	// Chunk assembly
	ChunkTarget        int
	ChunkMin           int
	ChunkMax           int
	AllowSingleOverMax bool

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		APIKey: os.Getenv("NOVELSEG_API_KEY"),

		IndexerURL:     os.Getenv("INDEXER_URL"),
		IndexerAPIKey:  os.Getenv("INDEXER_API_KEY"),
		IndexBatchSize: envInt("INDEX_BATCH_SIZE", 64),

		DBPath: envOr("DB_PATH", "novelseg.db"),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 16),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 33554432), // 32MB

		ExpectedChapters: envInt("EXPECTED_CHAPTERS", 80),

		LeadinMaxLen:    envInt("LEADIN_MAX_LEN", 20),
		MergeTitleLike:  envBool("MERGE_TITLE_LIKE", true),
		TitleLikeMaxLen: envInt("TITLE_LIKE_MAX_LEN", 6),
		LongParaLen:     envInt("LONG_PARA_LEN", 1200),
		SegmentTarget:   envInt("SEGMENT_TARGET_LEN", 600),
		SegmentMin:      envInt("SEGMENT_MIN_LEN", 200),
		SegmentMax:      envInt("SEGMENT_MAX_LEN", 800),
		KeepPoems:       envBool("KEEP_POEMS", true),

		ChunkTarget:        envInt("CHUNK_TARGET_LEN", 500),
		ChunkMin:           envInt("CHUNK_MIN_LEN", 350),
		ChunkMax:           envInt("CHUNK_MAX_LEN", 650),
		AllowSingleOverMax: envBool("ALLOW_SINGLE_OVER_MAX", true),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 16
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 33554432
	}
	if cfg.IndexBatchSize <= 0 {
		cfg.IndexBatchSize = 64
	}
	if cfg.ExpectedChapters <= 0 {
		cfg.ExpectedChapters = 80
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("NOVELSEG_API_KEY is required")
	}
	if c.IndexerURL != "" && c.IndexerAPIKey == "" {
		return fmt.Errorf("INDEXER_API_KEY is required when INDEXER_URL is set")
	}
	if c.SegmentMin >= c.SegmentMax {
		return fmt.Errorf("SEGMENT_MIN_LEN must be below SEGMENT_MAX_LEN")
	}
	if c.ChunkMin >= c.ChunkMax {
		return fmt.Errorf("CHUNK_MIN_LEN must be below CHUNK_MAX_LEN")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
