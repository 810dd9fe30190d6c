// Package similarity is the client for the external similarity-search
// service. Indexing is best-effort: callers must treat every failure here as
// non-fatal to the post write that triggered it.
package similarity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"campusfind/internal/models"

	"github.com/codeGROOVE-dev/retry"
)

// Client talks to the similarity service's indexing endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient returns a client for the given endpoint. An empty endpoint
// disables indexing.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Enabled reports whether an endpoint is configured.
func (c *Client) Enabled() bool {
	return c.endpoint != ""
}

type indexRequest struct {
	PostID  uint   `json:"post_id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type indexResponse struct {
	EmbeddingID string `json:"embedding_id"`
}

// IndexPost registers the post and returns the embedding handle the service
// assigned. Retries transient failures within a small bounded window.
func (c *Client) IndexPost(ctx context.Context, post *models.Post) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("similarity service is not configured")
	}

	body, err := json.Marshal(indexRequest{
		PostID:  post.ID,
		Title:   post.Title,
		Content: post.Content,
	})
	if err != nil {
		return "", err
	}

	var embeddingID string
	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer func() { _ = resp.Body.Close() }()

			if resp.StatusCode >= 500 {
				return fmt.Errorf("similarity service returned %d", resp.StatusCode)
			}
			if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
				return retry.Unrecoverable(fmt.Errorf("similarity service rejected post: %d", resp.StatusCode))
			}

			data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
			if err != nil {
				return err
			}
			var parsed indexResponse
			if err := json.Unmarshal(data, &parsed); err != nil {
				return retry.Unrecoverable(fmt.Errorf("invalid similarity response: %w", err))
			}
			if parsed.EmbeddingID == "" {
				return retry.Unrecoverable(fmt.Errorf("similarity response missing embedding_id"))
			}
			embeddingID = parsed.EmbeddingID
			return nil
		},
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(5*time.Second),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", err
	}
	return embeddingID, nil
}
