// Package ingest drives documents through the pipeline in response to
// storage notifications: extract, refine, structure, then index, with the
// document's status persisted at each transition.
package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"warrantyai/internal/extract"
	"warrantyai/internal/indexer"
	"warrantyai/internal/metrics"
	"warrantyai/internal/model"
	"warrantyai/internal/repository"
	"warrantyai/internal/storage"
	"warrantyai/internal/tenant"
)

// Derived objects the pipeline itself writes back into the bucket. Events
// for these keys are our own side effects and must not re-enter the pipeline.
var selfNotificationSuffixes = []string{".txt", ".metadata.json", ".json"}

// Refiner cleans raw extracted text into well-formed markdown.
type Refiner interface {
	Refine(ctx context.Context, raw string) (string, error)
}

// Structurer pulls typed warranty facts out of refined text.
type Structurer interface {
	Structure(ctx context.Context, raw string) (*model.StructuredFacts, error)
}

// Indexer makes a document's text retrievable within its tenant partition.
type Indexer interface {
	Index(ctx context.Context, tenantID, documentID string, pages []string) (*indexer.IndexResult, error)
}

// Orchestrator processes one storage event end to end.
type Orchestrator struct {
	repo       repository.DocumentRepository
	store      storage.Storage
	extractor  extract.Extractor
	refiner    Refiner
	structurer Structurer
	indexer    Indexer
	bucket     string
	metrics    *metrics.Pipeline
}

func NewOrchestrator(
	repo repository.DocumentRepository,
	store storage.Storage,
	extractor extract.Extractor,
	refiner Refiner,
	structurer Structurer,
	idx Indexer,
	bucket string,
	m *metrics.Pipeline,
) *Orchestrator {
	return &Orchestrator{
		repo:       repo,
		store:      store,
		extractor:  extractor,
		refiner:    refiner,
		structurer: structurer,
		indexer:    idx,
		bucket:     bucket,
		metrics:    m,
	}
}

// Process runs the ingestion state machine for one notification. A nil
// return means the event is settled: either fully indexed, skipped as a
// self-notification, or permanently unprocessable. A non-nil return means
// the caller may retry.
func (o *Orchestrator) Process(ctx context.Context, ev storage.Event) error {
	if o.bucket != "" && ev.Bucket != "" && ev.Bucket != o.bucket {
		logJSON(map[string]any{
			"component": "ingest",
			"event":     "event_skipped",
			"status":    "success",
			"bucket":    ev.Bucket,
			"key":       ev.Key,
			"reason":    "foreign_bucket",
		})
		return nil
	}

	for _, suffix := range selfNotificationSuffixes {
		if strings.HasSuffix(ev.Key, suffix) {
			logJSON(map[string]any{
				"component": "ingest",
				"event":     "event_skipped",
				"status":    "success",
				"key":       ev.Key,
				"reason":    "self_notification",
			})
			return nil
		}
	}

	tenantID := tenant.FromStorageKey(ev.Key)

	doc, err := o.resolveDocument(ctx, ev, tenantID)
	if err != nil {
		return fmt.Errorf("resolve document for %s: %w", ev.Key, err)
	}

	if err := o.repo.UpdateStatus(ctx, doc.ID, model.StatusExtracting); err != nil {
		return fmt.Errorf("mark extracting: %w", err)
	}

	pages, err := o.extractor.Extract(ctx, extract.Ref{
		Bucket:      ev.Bucket,
		Key:         ev.Key,
		ContentType: doc.ContentType,
	})
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedFormat) {
			// Not retryable: record the failure and settle the event.
			o.markFailed(ctx, doc.ID)
			o.countDocument("unsupported")
			logJSON(map[string]any{
				"component":     "ingest",
				"event":         "document_skipped",
				"status":        "error",
				"key":           ev.Key,
				"document_id":   doc.ID,
				"error_message": err.Error(),
			})
			return nil
		}
		o.markFailed(ctx, doc.ID)
		return fmt.Errorf("extract %s: %w", ev.Key, err)
	}

	refined, err := o.refiner.Refine(ctx, strings.Join(pages, "\n\n"))
	if err != nil {
		o.markFailed(ctx, doc.ID)
		return fmt.Errorf("refine %s: %w", ev.Key, err)
	}

	if err := o.repo.UpdateStatus(ctx, doc.ID, model.StatusStructuring); err != nil {
		return fmt.Errorf("mark structuring: %w", err)
	}

	facts, err := o.structurer.Structure(ctx, refined)
	if err != nil {
		o.markFailed(ctx, doc.ID)
		return fmt.Errorf("structure %s: %w", ev.Key, err)
	}

	rawTextKey, err := o.writeDerived(ctx, ev.Key, tenantID.String(), refined, facts)
	if err != nil {
		o.markFailed(ctx, doc.ID)
		return fmt.Errorf("persist derived text for %s: %w", ev.Key, err)
	}

	result, err := o.indexer.Index(ctx, tenantID.String(), doc.ID, []string{refined})
	if err != nil {
		o.markFailed(ctx, doc.ID)
		return fmt.Errorf("index %s: %w", ev.Key, err)
	}

	if err := o.repo.SetExtraction(ctx, doc.ID, rawTextKey, facts, model.StatusIndexed, time.Now()); err != nil {
		return fmt.Errorf("record extraction: %w", err)
	}

	o.countDocument("indexed")
	logJSON(map[string]any{
		"component":   "ingest",
		"event":       "document_indexed",
		"status":      "success",
		"key":         ev.Key,
		"document_id": doc.ID,
		"tenant_id":   tenantID.String(),
		"chunk_count": result.ChunkCount,
	})
	return nil
}

// resolveDocument finds the record owning the key, creating one for objects
// dropped into the bucket outside the upload API.
func (o *Orchestrator) resolveDocument(ctx context.Context, ev storage.Event, tenantID tenant.ID) (*model.Document, error) {
	doc, err := o.repo.FindByStorageKey(ctx, ev.Key)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return o.repo.Create(ctx, &model.Document{
		ID:         uuid.NewString(),
		TenantID:   tenantID.String(),
		Filename:   path.Base(ev.Key),
		StorageKey: ev.Key,
		Status:     model.StatusReceived,
		CreatedAt:  time.Now(),
	})
}

// writeDerived stores the refined text next to the source object plus a
// metadata sidecar carrying the tenant attribute used for retrieval filters.
func (o *Orchestrator) writeDerived(ctx context.Context, key, tenantID, refined string, facts *model.StructuredFacts) (string, error) {
	rawTextKey := key + ".txt"
	_, err := o.store.Put(ctx, rawTextKey, strings.NewReader(refined), storage.PutObjectOptions{
		Size:        int64(len(refined)),
		ContentType: "text/markdown",
	})
	if err != nil {
		return "", err
	}

	attrs := map[string]string{
		"user_id":     tenantID,
		"ingested_at": time.Now().UTC().Format(time.RFC3339),
	}
	if facts != nil && facts.Brand != nil {
		attrs["brand"] = *facts.Brand
	}
	sidecar, err := json.Marshal(map[string]any{"metadataAttributes": attrs})
	if err != nil {
		return "", err
	}

	_, err = o.store.Put(ctx, key+".metadata.json", strings.NewReader(string(sidecar)), storage.PutObjectOptions{
		Size:        int64(len(sidecar)),
		ContentType: "application/json",
	})
	if err != nil {
		return "", err
	}
	return rawTextKey, nil
}

// markFailed is best effort: the pipeline error it accompanies matters more.
func (o *Orchestrator) markFailed(ctx context.Context, id string) {
	if err := o.repo.UpdateStatus(ctx, id, model.StatusFailed); err != nil {
		logJSON(map[string]any{
			"component":     "ingest",
			"event":         "status_update_failed",
			"status":        "error",
			"document_id":   id,
			"error_message": err.Error(),
		})
	}
}

func (o *Orchestrator) countDocument(outcome string) {
	if o.metrics == nil {
		return
	}
	o.metrics.DocumentsProcessed.WithLabelValues(outcome).Inc()
}

func logJSON(data map[string]any) {
	data["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal ingest log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
