package postgres

import (
	"context"
	"database/sql"
	"time"

	"warrantyai/internal/model"
	"warrantyai/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, tenant_id, filename, storage_key, size, content_type, status,
		raw_text_key, brand, model, purchase_date, expiry_date, created_at, ingested_at`

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (id, tenant_id, filename, storage_key, size, content_type, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.TenantID,
		doc.Filename,
		doc.StorageKey,
		doc.Size,
		doc.ContentType,
		doc.Status,
		doc.CreatedAt,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE id = $1
	`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// FindByStorageKey fetches the document owning a storage key.
func (r *DocumentPostgres) FindByStorageKey(ctx context.Context, key string) (*model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE storage_key = $1
	`
	return scanDocument(r.db.QueryRowContext(ctx, q, key))
}

// List returns one tenant's documents using LIMIT/OFFSET pagination and a total count.
func (r *DocumentPostgres) List(ctx context.Context, tenantID string, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	// Count total rows
	const qCount = `SELECT COUNT(*) FROM documents WHERE tenant_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, tenantID).Scan(&total); err != nil {
		return nil, err
	}

	// Fetch page
	const qList = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE tenant_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, qList, tenantID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocumentRows(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

// UpdateStatus records an ingestion state transition.
func (r *DocumentPostgres) UpdateStatus(ctx context.Context, id string, status model.IngestStatus) error {
	const q = `UPDATE documents SET status = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, status)
	return err
}

// SetExtraction stores derived-text key and structured facts and stamps ingested_at.
func (r *DocumentPostgres) SetExtraction(ctx context.Context, id string, rawTextKey string, facts *model.StructuredFacts, status model.IngestStatus, ingestedAt time.Time) error {
	const q = `
		UPDATE documents
		SET raw_text_key = $2, brand = $3, model = $4, purchase_date = $5, expiry_date = $6,
		    status = $7, ingested_at = $8
		WHERE id = $1
	`
	var brand, mdl, purchase, expiry *string
	if facts != nil {
		brand, mdl, purchase, expiry = facts.Brand, facts.Model, facts.PurchaseDate, facts.ExpiryDate
	}
	_, err := r.db.ExecContext(ctx, q, id, rawTextKey, brand, mdl, purchase, expiry, status, ingestedAt)
	return err
}

// Delete removes a document by ID. It does not return an error if the row does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	// Ignore rows affected to keep behavior simple per requirement (no business logic).
	_, _ = res.RowsAffected()
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	d, err := scanDocumentRows(row)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func scanDocumentRows(row rowScanner) (*model.Document, error) {
	var (
		d                            model.Document
		rawTextKey                   sql.NullString
		brand, mdl, purchase, expiry sql.NullString
		ingestedAt                   sql.NullTime
	)
	if err := row.Scan(
		&d.ID,
		&d.TenantID,
		&d.Filename,
		&d.StorageKey,
		&d.Size,
		&d.ContentType,
		&d.Status,
		&rawTextKey,
		&brand,
		&mdl,
		&purchase,
		&expiry,
		&d.CreatedAt,
		&ingestedAt,
	); err != nil {
		return nil, err
	}
	if rawTextKey.Valid {
		d.RawTextKey = &rawTextKey.String
	}
	if brand.Valid || mdl.Valid || purchase.Valid || expiry.Valid {
		d.Facts = &model.StructuredFacts{}
		if brand.Valid {
			d.Facts.Brand = &brand.String
		}
		if mdl.Valid {
			d.Facts.Model = &mdl.String
		}
		if purchase.Valid {
			d.Facts.PurchaseDate = &purchase.String
		}
		if expiry.Valid {
			d.Facts.ExpiryDate = &expiry.String
		}
	}
	if ingestedAt.Valid {
		t := ingestedAt.Time
		d.IngestedAt = &t
	}
	return &d, nil
}
