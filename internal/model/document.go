package model

import "time"

// IngestStatus tracks how far a document has progressed through the
// ingestion pipeline.
type IngestStatus string

const (
	StatusReceived    IngestStatus = "received"
	StatusExtracting  IngestStatus = "extracting"
	StatusStructuring IngestStatus = "structuring"
	StatusIndexed     IngestStatus = "indexed"
	StatusFailed      IngestStatus = "failed"
)

// Document represents an uploaded warranty document owned by a single tenant.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
type Document struct {
	ID          string           `json:"id"`
	TenantID    string           `json:"tenant_id"`
	Filename    string           `json:"filename"`
	StorageKey  string           `json:"storage_key"`
	Size        int64            `json:"size"`
	ContentType string           `json:"content_type"`
	Status      IngestStatus     `json:"status"`
	RawTextKey  *string          `json:"raw_text_key,omitempty"`
	Facts       *StructuredFacts `json:"facts,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	IngestedAt  *time.Time       `json:"ingested_at,omitempty"`
}

// StructuredFacts is the small record extracted from a warranty document.
// Fields are pointers so "not extracted" stays distinguishable from an
// extracted empty string.
type StructuredFacts struct {
	Brand        *string `json:"brand,omitempty"`
	Model        *string `json:"model,omitempty"`
	PurchaseDate *string `json:"purchase_date,omitempty"`
	ExpiryDate   *string `json:"expiry_date,omitempty"`
}
