package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/liuwen-dev/novelseg/internal/store"
)

// handleChunkStats returns the distribution stats recorded by the most
// recent pipeline run.
func (s *Server) handleChunkStats(w http.ResponseWriter, r *http.Request) {
	run, err := s.orchestrator.Store().LatestRun(r.Context())
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "no runs recorded", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to load run: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"run_id":     run.ID,
		"filename":   run.Filename,
		"input_hash": run.InputHash,
		"created_at": run.CreatedAt,
		"stats":      run.Stats,
	})
}
