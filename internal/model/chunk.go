package model

// Chunk is the atomic unit of retrieval: a piece of document text with one
// embedding, tagged with the owning tenant. Immutable after creation;
// re-ingesting a document replaces its chunk set.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	TenantID   string    `json:"tenant_id"`
	Index      int       `json:"index"`
	Text       string    `json:"text"`
	Embedding  []float32 `json:"embedding"`
}

// Match is a chunk returned from similarity search together with its score.
// Higher scores mean closer matches.
type Match struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}
