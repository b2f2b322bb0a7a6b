// Package indexer is the HTTP client for the indexing collaborator — the
// external service that embeds chunk text and maintains the vector/keyword
// store. The client is explicitly constructed and injected; the pipeline
// itself never touches the network and runs fine with no indexer at all.
package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/liuwen-dev/novelseg/internal/novel"
)

// Client communicates with the indexing service API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// RetryableError marks transient failures (rate limits, 5xx) worth retrying.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("indexer: status %d: %s", e.StatusCode, e.Message)
}

type upsertRequest struct {
	Source string        `json:"source"`
	Chunks []novel.Chunk `json:"chunks"`
}

// UpsertChunks sends one batch of chunk records for embedding and indexing.
// Existing records with the same chunk_id are replaced, which is what makes
// re-ingestion idempotent on the collaborator side too.
func (c *Client) UpsertChunks(ctx context.Context, source string, chunks []novel.Chunk) error {
	body, err := json.Marshal(upsertRequest{Source: source, Chunks: chunks})
	if err != nil {
		return fmt.Errorf("marshal chunks: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/chunks/batch", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("upsert chunks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated ||
		resp.StatusCode == http.StatusAccepted {
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &RetryableError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	return fmt.Errorf("upsert chunks: status %d: %s", resp.StatusCode, string(respBody))
}

// Health probes the indexing service.
func (c *Client) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("health: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health: status %d", resp.StatusCode)
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
