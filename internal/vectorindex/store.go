package vectorindex

// Package vectorindex contains the tenant-filtered vector search abstraction.
// Every chunk carries its tenant id and every search is constrained to one
// tenant's partition; the store enforces the filter, not the caller.

import (
	"context"
	"errors"

	"warrantyai/internal/model"
)

var (
	// ErrModelMismatch is returned when vectors from a different embedding
	// model/version reach a store initialized for another one. Mixing
	// embedding spaces silently degrades ranking, so it is rejected instead.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrDimensionMismatch is returned for vectors of the wrong size.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Store persists chunk embeddings and serves tenant-scoped similarity search.
type Store interface {
	// Init prepares the index for vectors of the given dimensionality,
	// produced by the named embedding model.
	Init(ctx context.Context, dimensions int, modelName string) error

	// Replace atomically swaps the chunk set of a document: after it returns,
	// exactly the given chunks are queryable for that document, never a union
	// with a previous set. Concurrent queries may briefly observe old and new
	// chunks together, but never zero chunks for a document that had some.
	Replace(ctx context.Context, modelName, documentID string, chunks []model.Chunk) error

	// DeleteDocument removes all chunks of a tenant's document.
	DeleteDocument(ctx context.Context, tenantID, documentID string) error

	// Search returns the k nearest chunks within the tenant's partition,
	// best first. An empty result is a defined state, not an error.
	Search(ctx context.Context, modelName string, vector []float32, k int, tenantID string) ([]model.Match, error)
}
