package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/liuwen-dev/novelseg/internal/novel"
)

func testChunks() []novel.Chunk {
	return []novel.Chunk{
		{
			ChunkID:   "c001_0001",
			Chapter:   1,
			Kind:      novel.KindProse,
			StartPara: 1,
			EndPara:   2,
			ParaCount: 2,
			CharLen:   10,
			Text:      "正文内容若干字。",
		},
	}
}

func TestUpsertChunks_SendsAuthAndPayload(t *testing.T) {
	var gotAuth, gotPath string
	var gotReq upsertRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-key")
	defer c.Close()

	if err := c.UpsertChunks(context.Background(), "hongloumeng.txt", testChunks()); err != nil {
		t.Fatalf("UpsertChunks returned error: %v", err)
	}
	if gotAuth != "Bearer secret-key" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotPath != "/api/chunks/batch" {
		t.Errorf("path = %q", gotPath)
	}
	if gotReq.Source != "hongloumeng.txt" {
		t.Errorf("source = %q", gotReq.Source)
	}
	if len(gotReq.Chunks) != 1 || gotReq.Chunks[0].ChunkID != "c001_0001" {
		t.Errorf("chunks not round-tripped: %+v", gotReq.Chunks)
	}
}

func TestUpsertChunks_RateLimitIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	defer c.Close()

	err := c.UpsertChunks(context.Background(), "n.txt", testChunks())
	var re *RetryableError
	if !errors.As(err, &re) {
		t.Fatalf("expected RetryableError, got %v", err)
	}
	if re.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", re.StatusCode)
	}
}

func TestUpsertChunks_ServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	defer c.Close()

	err := c.UpsertChunks(context.Background(), "n.txt", testChunks())
	var re *RetryableError
	if !errors.As(err, &re) {
		t.Fatalf("expected RetryableError, got %v", err)
	}
}

func TestUpsertChunks_ClientErrorIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	defer c.Close()

	err := c.UpsertChunks(context.Background(), "n.txt", testChunks())
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	var re *RetryableError
	if errors.As(err, &re) {
		t.Errorf("400 should not be retryable: %v", err)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	defer c.Close()

	if err := c.Health(context.Background()); err != nil {
		t.Errorf("Health returned error: %v", err)
	}
}
