// Package qdrant is a minimal REST client for a Qdrant-backed vector index.
// It assumes cosine distance and creates the collection if missing.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"warrantyai/internal/config"
	"warrantyai/internal/model"
	"warrantyai/internal/vectorindex"
)

var _ vectorindex.Store = (*Store)(nil)

// Store talks to a Qdrant collection holding one point per chunk. Tenant
// isolation rides on a payload filter applied to every search and delete.
type Store struct {
	url        string
	apiKey     string
	collection string
	dimensions int
	modelName  string
	client     *http.Client
}

// NewStore creates a Qdrant store from config.
func NewStore(cfg config.QdrantConfig) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Store{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// Init creates the collection if it does not exist and records the embedding
// model the collection is built for.
func (s *Store) Init(ctx context.Context, dimensions int, modelName string) error {
	if dimensions <= 0 {
		return vectorindex.ErrDimensionMismatch
	}
	s.dimensions = dimensions
	s.modelName = modelName

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimensions,
			"distance": "Cosine",
		},
	}
	// Qdrant returns 200 OK if the collection already exists with the same schema.
	return s.do(ctx, http.MethodPut, fmt.Sprintf("%s/collections/%s", s.url, s.collection), body, nil)
}

// Replace upserts the new chunk set under deterministic point ids (so
// re-ingestion overwrites in place), then trims stale points whose index is
// beyond the new set. Old and new chunks may briefly coexist; the document is
// never left without chunks mid-swap.
func (s *Store) Replace(ctx context.Context, modelName, documentID string, chunks []model.Chunk) error {
	if modelName != s.modelName {
		return vectorindex.ErrModelMismatch
	}

	points := make([]map[string]any, len(chunks))
	for i, c := range chunks {
		if len(c.Embedding) != s.dimensions {
			return vectorindex.ErrDimensionMismatch
		}
		points[i] = map[string]any{
			"id":     pointID(documentID, c.Index),
			"vector": c.Embedding,
			"payload": map[string]any{
				"tenant_id":   c.TenantID,
				"document_id": c.DocumentID,
				"chunk_id":    c.ID,
				"chunk_index": c.Index,
				"text":        c.Text,
			},
		}
	}

	if len(points) > 0 {
		body := map[string]any{"points": points}
		if err := s.do(ctx, http.MethodPut, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection), body, nil); err != nil {
			return err
		}
	}

	// Trim chunks left over from a longer previous version of the document.
	trim := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "document_id", "match": map[string]any{"value": documentID}},
				{"key": "chunk_index", "range": map[string]any{"gte": len(chunks)}},
			},
		},
	}
	return s.do(ctx, http.MethodPost, fmt.Sprintf("%s/collections/%s/points/delete?wait=true", s.url, s.collection), trim, nil)
}

// DeleteDocument removes all points of a tenant's document.
func (s *Store) DeleteDocument(ctx context.Context, tenantID, documentID string) error {
	body := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "tenant_id", "match": map[string]any{"value": tenantID}},
				{"key": "document_id", "match": map[string]any{"value": documentID}},
			},
		},
	}
	return s.do(ctx, http.MethodPost, fmt.Sprintf("%s/collections/%s/points/delete?wait=true", s.url, s.collection), body, nil)
}

// Search queries the k nearest points constrained to the tenant partition.
func (s *Store) Search(ctx context.Context, modelName string, vector []float32, k int, tenantID string) ([]model.Match, error) {
	if modelName != s.modelName {
		return nil, vectorindex.ErrModelMismatch
	}
	if len(vector) != s.dimensions {
		return nil, vectorindex.ErrDimensionMismatch
	}
	if k <= 0 {
		k = 1
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
		// The isolation gate: only this tenant's points are ranked.
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "tenant_id", "match": map[string]any{"value": tenantID}},
			},
		},
	}

	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection), req, &resp); err != nil {
		return nil, err
	}

	matches := make([]model.Match, 0, len(resp.Result))
	for _, r := range resp.Result {
		c := model.Chunk{}
		if v, ok := r.Payload["tenant_id"].(string); ok {
			c.TenantID = v
		}
		if v, ok := r.Payload["document_id"].(string); ok {
			c.DocumentID = v
		}
		if v, ok := r.Payload["chunk_id"].(string); ok {
			c.ID = v
		}
		if v, ok := r.Payload["chunk_index"].(float64); ok {
			c.Index = int(v)
		}
		if v, ok := r.Payload["text"].(string); ok {
			c.Text = v
		}
		matches = append(matches, model.Match{Chunk: c, Score: r.Score})
	}
	return matches, nil
}

// pointID derives a stable UUID from document id and chunk index, so
// re-upserting a document overwrites its points instead of duplicating them.
func pointID(documentID string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s:%d", documentID, index))).String()
}

func (s *Store) do(ctx context.Context, method, url string, body any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("qdrant %s (status %d): %s", url, resp.StatusCode, string(msg))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
