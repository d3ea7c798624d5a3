package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"warrantyai/internal/extract"
	extractmocks "warrantyai/internal/extract/mocks"
	"warrantyai/internal/indexer"
	"warrantyai/internal/model"
	repomocks "warrantyai/internal/repository/mocks"
	"warrantyai/internal/storage"
	storagemocks "warrantyai/internal/storage/mocks"
)

type mockRefiner struct{ mock.Mock }

func (m *mockRefiner) Refine(ctx context.Context, raw string) (string, error) {
	args := m.Called(ctx, raw)
	return args.String(0), args.Error(1)
}

type mockStructurer struct{ mock.Mock }

func (m *mockStructurer) Structure(ctx context.Context, raw string) (*model.StructuredFacts, error) {
	args := m.Called(ctx, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StructuredFacts), args.Error(1)
}

type mockIndexer struct{ mock.Mock }

func (m *mockIndexer) Index(ctx context.Context, tenantID, documentID string, pages []string) (*indexer.IndexResult, error) {
	args := m.Called(ctx, tenantID, documentID, pages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*indexer.IndexResult), args.Error(1)
}

type orchestratorMocks struct {
	repo       *repomocks.MockDocumentRepository
	store      *storagemocks.MockStorage
	extractor  *extractmocks.MockExtractor
	refiner    *mockRefiner
	structurer *mockStructurer
	indexer    *mockIndexer
}

func newOrchestrator() (*Orchestrator, *orchestratorMocks) {
	m := &orchestratorMocks{
		repo:       new(repomocks.MockDocumentRepository),
		store:      new(storagemocks.MockStorage),
		extractor:  new(extractmocks.MockExtractor),
		refiner:    new(mockRefiner),
		structurer: new(mockStructurer),
		indexer:    new(mockIndexer),
	}
	o := NewOrchestrator(m.repo, m.store, m.extractor, m.refiner, m.structurer, m.indexer, "warranty-docs", nil)
	return o, m
}

func TestOrchestratorProcessHappyPath(t *testing.T) {
	o, m := newOrchestrator()
	ev := storage.Event{Bucket: "warranty-docs", Key: "uploads/tenant-a/manual.pdf"}
	doc := &model.Document{ID: "doc-1", TenantID: "tenant-a", StorageKey: ev.Key, ContentType: "application/pdf"}
	brand := "LG"
	facts := &model.StructuredFacts{Brand: &brand}

	m.repo.On("FindByStorageKey", mock.Anything, ev.Key).Return(doc, nil)
	m.repo.On("UpdateStatus", mock.Anything, "doc-1", model.StatusExtracting).Return(nil)
	m.extractor.On("Extract", mock.Anything, extract.Ref{Bucket: ev.Bucket, Key: ev.Key, ContentType: "application/pdf"}).
		Return([]string{"page one", "page two"}, nil)
	m.refiner.On("Refine", mock.Anything, "page one\n\npage two").Return("# Warranty\nrefined", nil)
	m.repo.On("UpdateStatus", mock.Anything, "doc-1", model.StatusStructuring).Return(nil)
	m.structurer.On("Structure", mock.Anything, "# Warranty\nrefined").Return(facts, nil)
	m.store.On("Put", mock.Anything, ev.Key+".txt", mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{Key: ev.Key + ".txt"}, nil)
	m.store.On("Put", mock.Anything, ev.Key+".metadata.json", mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{Key: ev.Key + ".metadata.json"}, nil)
	m.indexer.On("Index", mock.Anything, "tenant-a", "doc-1", []string{"# Warranty\nrefined"}).
		Return(&indexer.IndexResult{DocumentID: "doc-1", TenantID: "tenant-a", ChunkCount: 2}, nil)
	m.repo.On("SetExtraction", mock.Anything, "doc-1", ev.Key+".txt", facts, model.StatusIndexed, mock.Anything).Return(nil)

	err := o.Process(context.Background(), ev)

	assert.NoError(t, err)
	m.repo.AssertExpectations(t)
	m.indexer.AssertExpectations(t)
}

func TestOrchestratorProcessSkipsSelfNotifications(t *testing.T) {
	o, m := newOrchestrator()

	for _, key := range []string{
		"uploads/tenant-a/manual.pdf.txt",
		"uploads/tenant-a/manual.pdf.metadata.json",
		"uploads/tenant-a/facts.json",
	} {
		err := o.Process(context.Background(), storage.Event{Bucket: "warranty-docs", Key: key})
		assert.NoError(t, err)
	}

	m.repo.AssertNotCalled(t, "FindByStorageKey", mock.Anything, mock.Anything)
	m.extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestOrchestratorProcessSkipsForeignBucket(t *testing.T) {
	o, m := newOrchestrator()

	err := o.Process(context.Background(), storage.Event{Bucket: "other-bucket", Key: "uploads/tenant-a/manual.pdf"})

	assert.NoError(t, err)
	m.repo.AssertNotCalled(t, "FindByStorageKey", mock.Anything, mock.Anything)
}

func TestOrchestratorProcessCreatesRecordForUnknownObject(t *testing.T) {
	o, m := newOrchestrator()
	ev := storage.Event{Bucket: "warranty-docs", Key: "uploads/tenant-b/receipt.pdf"}

	m.repo.On("FindByStorageKey", mock.Anything, ev.Key).Return(nil, sql.ErrNoRows)
	m.repo.On("Create", mock.Anything, mock.MatchedBy(func(doc *model.Document) bool {
		return doc.TenantID == "tenant-b" &&
			doc.Filename == "receipt.pdf" &&
			doc.StorageKey == ev.Key &&
			doc.Status == model.StatusReceived
	})).Return(&model.Document{ID: "doc-2", TenantID: "tenant-b", StorageKey: ev.Key}, nil)
	m.repo.On("UpdateStatus", mock.Anything, "doc-2", model.StatusExtracting).Return(nil)
	m.extractor.On("Extract", mock.Anything, mock.Anything).Return([]string{"text"}, nil)
	m.refiner.On("Refine", mock.Anything, "text").Return("text", nil)
	m.repo.On("UpdateStatus", mock.Anything, "doc-2", model.StatusStructuring).Return(nil)
	m.structurer.On("Structure", mock.Anything, "text").Return(&model.StructuredFacts{}, nil)
	m.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)
	m.indexer.On("Index", mock.Anything, "tenant-b", "doc-2", []string{"text"}).
		Return(&indexer.IndexResult{ChunkCount: 1}, nil)
	m.repo.On("SetExtraction", mock.Anything, "doc-2", ev.Key+".txt", mock.Anything, model.StatusIndexed, mock.Anything).Return(nil)

	err := o.Process(context.Background(), ev)

	assert.NoError(t, err)
	m.repo.AssertExpectations(t)
}

func TestOrchestratorProcessUnknownTenantPartition(t *testing.T) {
	o, m := newOrchestrator()
	ev := storage.Event{Bucket: "warranty-docs", Key: "stray.pdf"}

	m.repo.On("FindByStorageKey", mock.Anything, ev.Key).Return(nil, sql.ErrNoRows)
	m.repo.On("Create", mock.Anything, mock.MatchedBy(func(doc *model.Document) bool {
		return doc.TenantID == "unknown"
	})).Return(&model.Document{ID: "doc-3", TenantID: "unknown", StorageKey: ev.Key}, nil)
	m.repo.On("UpdateStatus", mock.Anything, "doc-3", mock.Anything).Return(nil)
	m.extractor.On("Extract", mock.Anything, mock.Anything).Return([]string{"text"}, nil)
	m.refiner.On("Refine", mock.Anything, "text").Return("text", nil)
	m.structurer.On("Structure", mock.Anything, "text").Return(&model.StructuredFacts{}, nil)
	m.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)
	m.indexer.On("Index", mock.Anything, "unknown", "doc-3", []string{"text"}).
		Return(&indexer.IndexResult{ChunkCount: 1}, nil)
	m.repo.On("SetExtraction", mock.Anything, "doc-3", mock.Anything, mock.Anything, model.StatusIndexed, mock.Anything).Return(nil)

	err := o.Process(context.Background(), ev)

	assert.NoError(t, err)
	m.indexer.AssertExpectations(t)
}

func TestOrchestratorProcessUnsupportedFormatSettles(t *testing.T) {
	o, m := newOrchestrator()
	ev := storage.Event{Bucket: "warranty-docs", Key: "uploads/tenant-a/photo.heic"}
	doc := &model.Document{ID: "doc-4", TenantID: "tenant-a", StorageKey: ev.Key}

	m.repo.On("FindByStorageKey", mock.Anything, ev.Key).Return(doc, nil)
	m.repo.On("UpdateStatus", mock.Anything, "doc-4", model.StatusExtracting).Return(nil)
	m.extractor.On("Extract", mock.Anything, mock.Anything).Return(nil, extract.ErrUnsupportedFormat)
	m.repo.On("UpdateStatus", mock.Anything, "doc-4", model.StatusFailed).Return(nil)

	err := o.Process(context.Background(), ev)

	assert.NoError(t, err)
	m.refiner.AssertNotCalled(t, "Refine", mock.Anything, mock.Anything)
	m.repo.AssertExpectations(t)
}

func TestOrchestratorProcessTransientExtractionErrorPropagates(t *testing.T) {
	o, m := newOrchestrator()
	ev := storage.Event{Bucket: "warranty-docs", Key: "uploads/tenant-a/big.pdf"}
	doc := &model.Document{ID: "doc-5", TenantID: "tenant-a", StorageKey: ev.Key}

	m.repo.On("FindByStorageKey", mock.Anything, ev.Key).Return(doc, nil)
	m.repo.On("UpdateStatus", mock.Anything, "doc-5", model.StatusExtracting).Return(nil)
	m.extractor.On("Extract", mock.Anything, mock.Anything).Return(nil, extract.ErrJobTimeout)
	m.repo.On("UpdateStatus", mock.Anything, "doc-5", model.StatusFailed).Return(nil)

	err := o.Process(context.Background(), ev)

	assert.ErrorIs(t, err, extract.ErrJobTimeout)
}

func TestOrchestratorProcessIndexFailurePropagates(t *testing.T) {
	o, m := newOrchestrator()
	ev := storage.Event{Bucket: "warranty-docs", Key: "uploads/tenant-a/manual.pdf"}
	doc := &model.Document{ID: "doc-6", TenantID: "tenant-a", StorageKey: ev.Key}

	m.repo.On("FindByStorageKey", mock.Anything, ev.Key).Return(doc, nil)
	m.repo.On("UpdateStatus", mock.Anything, "doc-6", model.StatusExtracting).Return(nil)
	m.extractor.On("Extract", mock.Anything, mock.Anything).Return([]string{"text"}, nil)
	m.refiner.On("Refine", mock.Anything, "text").Return("text", nil)
	m.repo.On("UpdateStatus", mock.Anything, "doc-6", model.StatusStructuring).Return(nil)
	m.structurer.On("Structure", mock.Anything, "text").Return(&model.StructuredFacts{}, nil)
	m.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)
	m.indexer.On("Index", mock.Anything, "tenant-a", "doc-6", []string{"text"}).
		Return(nil, indexer.ErrEmbeddingFailure)
	m.repo.On("UpdateStatus", mock.Anything, "doc-6", model.StatusFailed).Return(nil)

	err := o.Process(context.Background(), ev)

	assert.ErrorIs(t, err, indexer.ErrEmbeddingFailure)
	m.repo.AssertNotCalled(t, "SetExtraction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrchestratorWritesMetadataSidecar(t *testing.T) {
	o, m := newOrchestrator()
	ev := storage.Event{Bucket: "warranty-docs", Key: "uploads/tenant-a/manual.pdf"}
	doc := &model.Document{ID: "doc-7", TenantID: "tenant-a", StorageKey: ev.Key}
	brand := "Samsung"

	var sidecar []byte
	m.repo.On("FindByStorageKey", mock.Anything, ev.Key).Return(doc, nil)
	m.repo.On("UpdateStatus", mock.Anything, "doc-7", mock.Anything).Return(nil)
	m.extractor.On("Extract", mock.Anything, mock.Anything).Return([]string{"text"}, nil)
	m.refiner.On("Refine", mock.Anything, "text").Return("text", nil)
	m.structurer.On("Structure", mock.Anything, "text").Return(&model.StructuredFacts{Brand: &brand}, nil)
	m.store.On("Put", mock.Anything, ev.Key+".txt", mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)
	m.store.On("Put", mock.Anything, ev.Key+".metadata.json", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			sidecar, _ = io.ReadAll(args.Get(2).(io.Reader))
		}).
		Return(storage.ObjectInfo{}, nil)
	m.indexer.On("Index", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&indexer.IndexResult{ChunkCount: 1}, nil)
	m.repo.On("SetExtraction", mock.Anything, "doc-7", ev.Key+".txt", mock.Anything, model.StatusIndexed, mock.Anything).Return(nil)

	err := o.Process(context.Background(), ev)
	assert.NoError(t, err)

	var payload struct {
		MetadataAttributes map[string]string `json:"metadataAttributes"`
	}
	assert.NoError(t, json.Unmarshal(sidecar, &payload))
	assert.Equal(t, "tenant-a", payload.MetadataAttributes["user_id"])
	assert.Equal(t, "Samsung", payload.MetadataAttributes["brand"])
	assert.NotEmpty(t, payload.MetadataAttributes["ingested_at"])
}

func TestWorkerRetriesThenDeadLetters(t *testing.T) {
	proc := new(mockProcessor)
	ev := storage.Event{Bucket: "warranty-docs", Key: "uploads/tenant-a/flaky.pdf"}
	proc.On("Process", mock.Anything, ev).Return(errors.New("transient")).Times(3)

	w := NewWorker(proc, 3, time.Millisecond, nil)

	events := make(chan storage.Event, 1)
	events <- ev
	close(events)

	w.Run(context.Background(), events)

	proc.AssertNumberOfCalls(t, "Process", 3)
}

func TestWorkerStopsRetryingOnSuccess(t *testing.T) {
	proc := new(mockProcessor)
	ev := storage.Event{Bucket: "warranty-docs", Key: "uploads/tenant-a/ok.pdf"}
	proc.On("Process", mock.Anything, ev).Return(errors.New("transient")).Once()
	proc.On("Process", mock.Anything, ev).Return(nil).Once()

	w := NewWorker(proc, 3, time.Millisecond, nil)

	events := make(chan storage.Event, 1)
	events <- ev
	close(events)

	w.Run(context.Background(), events)

	proc.AssertNumberOfCalls(t, "Process", 2)
}

func TestWorkerStopsOnContextCancel(t *testing.T) {
	proc := new(mockProcessor)

	w := NewWorker(proc, 3, time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := make(chan storage.Event)
	w.Run(ctx, events)

	proc.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
}

type mockProcessor struct{ mock.Mock }

func (m *mockProcessor) Process(ctx context.Context, ev storage.Event) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}
