package memory

import (
	"context"
	"testing"

	"warrantyai/internal/model"
	"warrantyai/internal/vectorindex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testModel = "test-embed-v1"

func newInitialized(t *testing.T, dim int) *Store {
	t.Helper()
	s := NewStore()
	require.NoError(t, s.Init(context.Background(), dim, testModel))
	return s
}

func chunk(id, docID, tenantID string, vec []float32) model.Chunk {
	return model.Chunk{ID: id, DocumentID: docID, TenantID: tenantID, Text: "text-" + id, Embedding: vec}
}

func TestStore_TenantIsolation(t *testing.T) {
	ctx := context.Background()
	s := newInitialized(t, 2)

	// Tenant two's chunk is lexically and geometrically identical to the
	// query; it must still never surface in tenant one's results.
	require.NoError(t, s.Replace(ctx, testModel, "doc-1", []model.Chunk{
		chunk("c1", "doc-1", "user_001", []float32{0, 1}),
	}))
	require.NoError(t, s.Replace(ctx, testModel, "doc-2", []model.Chunk{
		chunk("c2", "doc-2", "user_002", []float32{1, 0}),
	}))

	matches, err := s.Search(ctx, testModel, []float32{1, 0}, 10, "user_001")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "user_001", matches[0].Chunk.TenantID)
	assert.Equal(t, "c1", matches[0].Chunk.ID)
}

func TestStore_EmptyPartition(t *testing.T) {
	ctx := context.Background()
	s := newInitialized(t, 2)

	require.NoError(t, s.Replace(ctx, testModel, "doc-1", []model.Chunk{
		chunk("c1", "doc-1", "user_001", []float32{0, 1}),
	}))

	matches, err := s.Search(ctx, testModel, []float32{0, 1}, 5, "user_002")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestStore_IdempotentReingestion(t *testing.T) {
	ctx := context.Background()
	s := newInitialized(t, 2)

	require.NoError(t, s.Replace(ctx, testModel, "doc-1", []model.Chunk{
		chunk("old-1", "doc-1", "user_001", []float32{1, 0}),
		chunk("old-2", "doc-1", "user_001", []float32{0, 1}),
	}))
	require.NoError(t, s.Replace(ctx, testModel, "doc-1", []model.Chunk{
		chunk("new-1", "doc-1", "user_001", []float32{1, 0}),
	}))

	matches, err := s.Search(ctx, testModel, []float32{1, 0}, 10, "user_001")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "new-1", matches[0].Chunk.ID)
}

func TestStore_Ranking(t *testing.T) {
	ctx := context.Background()
	s := newInitialized(t, 2)

	require.NoError(t, s.Replace(ctx, testModel, "doc-1", []model.Chunk{
		chunk("far", "doc-1", "user_001", []float32{0, 1}),
		chunk("near", "doc-1", "user_001", []float32{1, 0.01}),
	}))

	matches, err := s.Search(ctx, testModel, []float32{1, 0}, 1, "user_001")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "near", matches[0].Chunk.ID)
}

func TestStore_ModelMismatchRejected(t *testing.T) {
	ctx := context.Background()
	s := newInitialized(t, 2)

	err := s.Replace(ctx, "other-model-v2", "doc-1", []model.Chunk{
		chunk("c1", "doc-1", "user_001", []float32{1, 0}),
	})
	assert.ErrorIs(t, err, vectorindex.ErrModelMismatch)

	_, err = s.Search(ctx, "other-model-v2", []float32{1, 0}, 1, "user_001")
	assert.ErrorIs(t, err, vectorindex.ErrModelMismatch)
}

func TestStore_DimensionMismatchRejected(t *testing.T) {
	ctx := context.Background()
	s := newInitialized(t, 2)

	err := s.Replace(ctx, testModel, "doc-1", []model.Chunk{
		chunk("c1", "doc-1", "user_001", []float32{1, 0, 0}),
	})
	assert.ErrorIs(t, err, vectorindex.ErrDimensionMismatch)

	_, err = s.Search(ctx, testModel, []float32{1}, 1, "user_001")
	assert.ErrorIs(t, err, vectorindex.ErrDimensionMismatch)
}

func TestStore_DeleteDocument(t *testing.T) {
	ctx := context.Background()
	s := newInitialized(t, 2)

	require.NoError(t, s.Replace(ctx, testModel, "doc-1", []model.Chunk{
		chunk("c1", "doc-1", "user_001", []float32{1, 0}),
	}))

	// Wrong tenant must not delete the document.
	require.NoError(t, s.DeleteDocument(ctx, "user_002", "doc-1"))
	matches, err := s.Search(ctx, testModel, []float32{1, 0}, 1, "user_001")
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	require.NoError(t, s.DeleteDocument(ctx, "user_001", "doc-1"))
	matches, err = s.Search(ctx, testModel, []float32{1, 0}, 1, "user_001")
	require.NoError(t, err)
	assert.Empty(t, matches)
}
