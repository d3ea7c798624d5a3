package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"warrantyai/internal/model"
	"warrantyai/internal/repository"
	"warrantyai/internal/storage"
	"warrantyai/internal/tenant"
)

var (
	ErrIDRequired     = errors.New("id is required")
	ErrTenantRequired = errors.New("tenant is required")
	ErrNotFound       = errors.New("document not found")
	ErrReaderNil      = errors.New("reader is nil")
)

// ChunkRemover removes a document's chunks from the vector index.
// Implemented by the indexer.
type ChunkRemover interface {
	Remove(ctx context.Context, tenantID, documentID string) error
}

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// DocumentService defines the tenant-scoped use cases for handling documents.
// Every operation takes the calling tenant; a document belonging to another
// tenant behaves as if it does not exist.
type DocumentService interface {
	// Upload uploads the content to object storage under the tenant's prefix,
	// saves metadata to DB, and rolls back storage if DB save fails.
	// - originalFilename is used only to extract extension; stored filename will be UUID + original extension.
	Upload(ctx context.Context, tenantID string, r io.Reader, originalFilename string, contentType string, size int64) (*model.Document, error)

	// List returns the tenant's documents using limit/offset and a total count.
	List(ctx context.Context, tenantID string, limit, offset int) (*DocumentListResult, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, tenantID, id string) (*model.Document, error)

	// Delete removes a document from storage, the vector index, and the repository.
	Delete(ctx context.Context, tenantID, id string) error
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store   storage.Storage
	repo    repository.DocumentRepository
	remover ChunkRemover
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, remover ChunkRemover) DocumentService {
	return &documentService{store: store, repo: repo, remover: remover}
}

func (s *documentService) Upload(ctx context.Context, tenantID string, r io.Reader, originalFilename string, contentType string, size int64) (*model.Document, error) {
	if tenantID == "" {
		return nil, ErrTenantRequired
	}
	if r == nil {
		return nil, ErrReaderNil
	}
	// Generate filename using UUID + extension
	ext := filepath.Ext(originalFilename)
	genName := uuid.New().String() + ext
	key := tenant.StorageKey(tenantID, genName)

	// Upload to object storage
	objInfo, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	// Save metadata to database
	doc := &model.Document{
		ID:          uuid.New().String(),
		TenantID:    tenantID,
		Filename:    genName,
		StorageKey:  objInfo.Key,
		Size:        objInfo.Size,
		ContentType: objInfo.ContentType,
		Status:      model.StatusReceived,
		CreatedAt:   time.Now().UTC(),
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

// List returns the tenant's documents without exposing repository types.
func (s *documentService) List(ctx context.Context, tenantID string, limit, offset int) (*DocumentListResult, error) {
	if tenantID == "" {
		return nil, ErrTenantRequired
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, tenantID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

// Get returns a document by ID if it belongs to the tenant.
func (s *documentService) Get(ctx context.Context, tenantID, id string) (*model.Document, error) {
	doc, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete removes a document from storage and the index, then deletes its record.
func (s *documentService) Delete(ctx context.Context, tenantID, id string) error {
	doc, err := s.find(ctx, tenantID, id)
	if err != nil {
		return err
	}
	// Delete from storage first; if this fails, keep DB row to avoid orphaned storage reference loss
	if err := s.store.Delete(ctx, doc.StorageKey); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	// Derived objects written during ingestion. Best effort: the source
	// object is already gone and nothing references these anymore.
	_ = s.store.Delete(ctx, doc.StorageKey+".txt")
	_ = s.store.Delete(ctx, doc.StorageKey+".metadata.json")

	if err := s.remover.Remove(ctx, tenantID, id); err != nil {
		return fmt.Errorf("delete index chunks: %w", err)
	}
	// Delete DB row (repository ignores missing row errors as per contract)
	return s.repo.Delete(ctx, id)
}

// find loads a document and enforces tenant ownership. A document owned by
// another tenant is reported as not found, never as forbidden.
func (s *documentService) find(ctx context.Context, tenantID, id string) (*model.Document, error) {
	if tenantID == "" {
		return nil, ErrTenantRequired
	}
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if doc.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return doc, nil
}
