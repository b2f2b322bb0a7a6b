package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/liuwen-dev/novelseg/internal/novel"
	"github.com/liuwen-dev/novelseg/internal/store"
)

// handleListChunks lists stored chunks, optionally filtered by chapter
// and kind.
func (s *Server) handleListChunks(w http.ResponseWriter, r *http.Request) {
	chapter := 0
	if v := r.URL.Query().Get("chapter"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, "chapter must be a positive integer", http.StatusBadRequest)
			return
		}
		chapter = n
	}

	var kind novel.Kind
	switch v := r.URL.Query().Get("type"); v {
	case "":
	case string(novel.KindProse), string(novel.KindPoem):
		kind = novel.Kind(v)
	default:
		jsonError(w, "type must be prose or poem", http.StatusBadRequest)
		return
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	chunks, err := s.orchestrator.Store().ListChunks(r.Context(), chapter, kind, limit)
	if err != nil {
		jsonError(w, "failed to list chunks: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if chunks == nil {
		chunks = []novel.Chunk{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"chunks": chunks,
		"count":  len(chunks),
	})
}

// handleGetChunk fetches a single chunk by its id.
func (s *Server) handleGetChunk(w http.ResponseWriter, r *http.Request) {
	chunkID := chi.URLParam(r, "chunkID")
	chunk, err := s.orchestrator.Store().GetChunk(r.Context(), chunkID)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "chunk not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to get chunk: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(chunk)
}
