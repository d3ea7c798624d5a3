// Package indexer turns a document's extracted text into tenant-tagged chunk
// embeddings in the vector index.
package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"warrantyai/internal/embedding"
	"warrantyai/internal/model"
	"warrantyai/internal/vectorindex"
)

// ErrEmbeddingFailure marks an indexing run aborted because the embedding
// capability failed. No partial chunk set is left queryable: a half-indexed
// document silently degrades answers, an unindexed one gets retried.
var ErrEmbeddingFailure = errors.New("embedding failure")

// IndexResult reports what an indexing run produced.
type IndexResult struct {
	DocumentID     string `json:"document_id"`
	TenantID       string `json:"tenant_id"`
	ChunkCount     int    `json:"chunk_count"`
	EmbeddingModel string `json:"embedding_model"`
}

// Service is the tenant-scoped indexer.
type Service struct {
	embedder embedding.Embedder
	store    vectorindex.Store
	maxChars int
}

// NewService constructs an indexer over the given embedder and store.
func NewService(embedder embedding.Embedder, store vectorindex.Store, maxCharsPerChunk int) *Service {
	if maxCharsPerChunk <= 0 {
		maxCharsPerChunk = 4096
	}
	return &Service{embedder: embedder, store: store, maxChars: maxCharsPerChunk}
}

// Index chunks the pages, embeds every chunk, and replaces the document's
// chunk set in the index. All embeddings are computed before the first index
// write, so an embedding failure leaves the previous chunk set untouched.
// Re-indexing the same document id replaces, never duplicates, its chunks.
func (s *Service) Index(ctx context.Context, tenantID, documentID string, pages []string) (*IndexResult, error) {
	texts := chunkPages(pages, s.maxChars)

	chunks := make([]model.Chunk, 0, len(texts))
	for i, text := range texts {
		vec, err := s.embedder.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %d of document %s: %v", ErrEmbeddingFailure, i, documentID, err)
		}
		chunks = append(chunks, model.Chunk{
			ID:         uuid.NewString(),
			DocumentID: documentID,
			TenantID:   tenantID,
			Index:      i,
			Text:       text,
			Embedding:  vec,
		})
	}

	if err := s.store.Replace(ctx, s.embedder.ModelName(), documentID, chunks); err != nil {
		return nil, fmt.Errorf("replace chunks for document %s: %w", documentID, err)
	}

	return &IndexResult{
		DocumentID:     documentID,
		TenantID:       tenantID,
		ChunkCount:     len(chunks),
		EmbeddingModel: s.embedder.ModelName(),
	}, nil
}

// Remove drops a document's chunks from the index, used when the document
// itself is deleted.
func (s *Service) Remove(ctx context.Context, tenantID, documentID string) error {
	return s.store.DeleteDocument(ctx, tenantID, documentID)
}
