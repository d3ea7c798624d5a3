package repository

import (
	"context"
	"time"

	"warrantyai/internal/model"
)

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here — strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a new document record.
	// The caller should provide required fields (e.g., ID, CreatedAt) according to the database schema defaults.
	// Returns the stored document (may include values set by the DB).
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// FindByStorageKey returns the document owning the given storage key.
	// Used by the ingestion orchestrator to resolve change notifications.
	FindByStorageKey(ctx context.Context, key string) (*model.Document, error)

	// List returns a paginated list of one tenant's documents and total rows count.
	List(ctx context.Context, tenantID string, pq PageQuery) (*PageResult[model.Document], error)

	// UpdateStatus records an ingestion state transition.
	UpdateStatus(ctx context.Context, id string, status model.IngestStatus) error

	// SetExtraction stores the derived text key and structured facts captured
	// during ingestion, stamps ingested_at, and moves the document to the
	// given status.
	SetExtraction(ctx context.Context, id string, rawTextKey string, facts *model.StructuredFacts, status model.IngestStatus, ingestedAt time.Time) error

	// Delete removes a document by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error
}
