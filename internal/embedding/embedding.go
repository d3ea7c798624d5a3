package embedding

import "context"

// Embedder converts text into a fixed-dimension vector. Index and query
// embeddings must come from the same model: callers compare ModelName before
// mixing vectors from different handles.
type Embedder interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// ModelName identifies the embedding model/version (the embedding space).
	ModelName() string
	// Dimensions returns the embedding vector size.
	Dimensions() int
}
