// Package memory is a brute-force in-memory vector store. It backs tests and
// single-node deployments without an external index.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"warrantyai/internal/model"
	"warrantyai/internal/vectorindex"
)

var _ vectorindex.Store = (*Store)(nil)

// Store keeps normalized vectors per document and ranks by cosine similarity,
// which over unit vectors orders identically to squared Euclidean distance.
type Store struct {
	mu         sync.RWMutex
	dimensions int
	modelName  string
	// docs maps document id to its current chunk set (normalized embeddings).
	docs map[string][]model.Chunk
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{docs: make(map[string][]model.Chunk)}
}

// Init fixes the vector dimensionality and embedding model for the store.
func (s *Store) Init(_ context.Context, dimensions int, modelName string) error {
	if dimensions <= 0 {
		return vectorindex.ErrDimensionMismatch
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimensions = dimensions
	s.modelName = modelName
	s.docs = make(map[string][]model.Chunk)
	return nil
}

// Replace swaps a document's chunk set under the write lock, so queries see
// either the old set or the new one, never an empty gap.
func (s *Store) Replace(_ context.Context, modelName, documentID string, chunks []model.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if modelName != s.modelName {
		return vectorindex.ErrModelMismatch
	}
	for i := range chunks {
		if len(chunks[i].Embedding) != s.dimensions {
			return vectorindex.ErrDimensionMismatch
		}
	}

	stored := make([]model.Chunk, len(chunks))
	for i, c := range chunks {
		c.Embedding = normalize(c.Embedding)
		stored[i] = c
	}
	s.docs[documentID] = stored
	return nil
}

// DeleteDocument removes a tenant's document from the index.
func (s *Store) DeleteDocument(_ context.Context, tenantID, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	chunks, ok := s.docs[documentID]
	if !ok {
		return nil
	}
	// A document id belongs to exactly one tenant; a mismatched tenant is a
	// caller bug and must not delete another partition's data.
	if len(chunks) > 0 && chunks[0].TenantID != tenantID {
		return nil
	}
	delete(s.docs, documentID)
	return nil
}

// Search ranks the tenant's chunks by cosine similarity and returns the top k.
// Chunks of other tenants are excluded before ranking, whatever their score.
func (s *Store) Search(_ context.Context, modelName string, vector []float32, k int, tenantID string) ([]model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if modelName != s.modelName {
		return nil, vectorindex.ErrModelMismatch
	}
	if len(vector) != s.dimensions {
		return nil, vectorindex.ErrDimensionMismatch
	}
	if k <= 0 {
		k = 1
	}

	query := normalize(vector)

	var matches []model.Match
	for _, chunks := range s.docs {
		for _, c := range chunks {
			if c.TenantID != tenantID {
				continue
			}
			matches = append(matches, model.Match{Chunk: c, Score: dot(c.Embedding, query)})
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
