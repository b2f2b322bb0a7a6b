// Package export writes the pipeline's artifacts in the line-oriented JSON
// layout the downstream tooling expects: one record per line for collections,
// indented JSON for the stats object.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/liuwen-dev/novelseg/internal/novel"
)

// WriteChunksJSONL writes one chunk record per line.
func WriteChunksJSONL(path string, chunks []novel.Chunk) error {
	f, err := createWithDirs(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	for _, c := range chunks {
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("encode chunk %s: %w", c.ChunkID, err)
		}
	}
	return nil
}

// WriteParagraphsJSONL writes one paragraph record per line.
func WriteParagraphsJSONL(path string, paras []novel.Paragraph) error {
	f, err := createWithDirs(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	for _, p := range paras {
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("encode paragraph %d/%d: %w", p.Chapter, p.ParaIdx, err)
		}
	}
	return nil
}

// WriteJSON writes a single indented JSON object, used for the stats record.
func WriteJSON(path string, v any) error {
	f, err := createWithDirs(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func createWithDirs(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}
