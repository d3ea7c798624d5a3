// Package ocr provides an async OCR service client: submit a job for a stored
// document, then poll until it finishes or the configured deadline passes.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"warrantyai/internal/extract"
)

var _ extract.Extractor = (*Client)(nil)

// Default configuration values.
const (
	DefaultPollInterval = 2 * time.Second
	DefaultPollTimeout  = 2 * time.Minute
	DefaultHTTPTimeout  = 30 * time.Second
)

// Config holds configuration for the OCR service client.
type Config struct {
	// BaseURL is the OCR service base URL.
	BaseURL string

	// PollInterval is the delay between job status checks (default: 2s).
	PollInterval time.Duration

	// PollTimeout bounds the whole wait; a job still running past it is
	// reported as a retryable timeout, never waited on forever (default: 2m).
	PollTimeout time.Duration

	// HTTPTimeout is the per-request timeout (default: 30s).
	HTTPTimeout time.Duration
}

// Client submits extraction jobs to an OCR service and polls for results.
// Handles multi-page scans the in-process extractor cannot.
type Client struct {
	client       *http.Client
	baseURL      string
	pollInterval time.Duration
	pollTimeout  time.Duration
}

type submitRequest struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

type jobResponse struct {
	Status string   `json:"status"`
	Pages  []string `json:"pages"`
}

// Job status values reported by the OCR service.
const (
	statusRunning   = "RUNNING"
	statusSucceeded = "SUCCEEDED"
	statusFailed    = "FAILED"
)

// NewClient creates a new OCR service client.
func NewClient(cfg Config) *Client {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.PollTimeout == 0 {
		cfg.PollTimeout = DefaultPollTimeout
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = DefaultHTTPTimeout
	}

	return &Client{
		client:       &http.Client{Timeout: cfg.HTTPTimeout},
		baseURL:      cfg.BaseURL,
		pollInterval: cfg.PollInterval,
		pollTimeout:  cfg.PollTimeout,
	}
}

// Extract submits the referenced document and polls until the job finishes.
func (c *Client) Extract(ctx context.Context, ref extract.Ref) ([]string, error) {
	jobID, err := c.submit(ctx, ref)
	if err != nil {
		return nil, err
	}
	return c.wait(ctx, jobID)
}

func (c *Client) submit(ctx context.Context, ref extract.Ref) (string, error) {
	body, err := json.Marshal(submitRequest{Bucket: ref.Bucket, Key: ref.Key})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/jobs", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit job: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnsupportedMediaType {
		return "", extract.ErrUnsupportedFormat
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ocr submit (status %d): %s", resp.StatusCode, string(b))
	}

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode submit response: %w", err)
	}
	if out.JobID == "" {
		return "", fmt.Errorf("ocr submit: empty job id")
	}
	return out.JobID, nil
}

// wait polls the job in a bounded loop. "Still running" past the deadline is a
// retryable failure, not a hang.
func (c *Client) wait(ctx context.Context, jobID string) ([]string, error) {
	deadline := time.Now().Add(c.pollTimeout)

	for {
		job, err := c.poll(ctx, jobID)
		if err != nil {
			return nil, err
		}

		switch job.Status {
		case statusSucceeded:
			return job.Pages, nil
		case statusFailed:
			return nil, fmt.Errorf("%w: job %s", extract.ErrJobFailed, jobID)
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: job %s after %s", extract.ErrJobTimeout, jobID, c.pollTimeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *Client) poll(ctx context.Context, jobID string) (*jobResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/jobs/"+jobID, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll job: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ocr poll (status %d): %s", resp.StatusCode, string(b))
	}

	var out jobResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode poll response: %w", err)
	}
	return &out, nil
}
