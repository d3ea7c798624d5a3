package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"warrantyai/internal/answerer"
	"warrantyai/internal/config"
	"warrantyai/internal/database"
	"warrantyai/internal/database/migration"
	"warrantyai/internal/eligibility"
	"warrantyai/internal/embedding"
	"warrantyai/internal/extract"
	"warrantyai/internal/extract/ocr"
	"warrantyai/internal/extract/pdf"
	"warrantyai/internal/genai"
	handlers "warrantyai/internal/http/handler"
	"warrantyai/internal/http/middleware"
	"warrantyai/internal/indexer"
	"warrantyai/internal/ingest"
	"warrantyai/internal/metrics"
	"warrantyai/internal/otel"
	"warrantyai/internal/repository/postgres"
	"warrantyai/internal/service"
	"warrantyai/internal/storage"
	"warrantyai/internal/structurer"
	"warrantyai/internal/vectorindex"
	"warrantyai/internal/vectorindex/memory"
	"warrantyai/internal/vectorindex/qdrant"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := time.Local

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	registry := prometheus.NewRegistry()
	pipelineMetrics, err := metrics.NewPipeline(registry)
	if err != nil {
		log.Fatalf("failed to register pipeline metrics: %v", err)
	}
	promMiddleware, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		log.Fatalf("failed to register http metrics: %v", err)
	}

	// Model endpoints
	embedder := embedding.NewClient(cfg.Embedding)
	generator := genai.NewClient(cfg.Generative)
	refiner := genai.NewRefiner(generator, pipelineMetrics)

	// Vector index: Qdrant when configured, otherwise in-process
	var store vectorindex.Store
	if cfg.Qdrant.URL != "" {
		store = qdrant.NewStore(cfg.Qdrant)
	} else {
		store = memory.NewStore()
	}
	if err := store.Init(ctx, embedder.Dimensions(), embedder.ModelName()); err != nil {
		log.Fatalf("failed to initialize vector index: %v", err)
	}

	// Text extraction: async OCR service when configured, otherwise in-process
	var extractor extract.Extractor
	if cfg.Extractor.OCREndpoint != "" {
		extractor = ocr.NewClient(ocr.Config{
			BaseURL:      cfg.Extractor.OCREndpoint,
			PollInterval: cfg.Extractor.PollInterval,
			PollTimeout:  cfg.Extractor.PollTimeout,
		})
	} else {
		extractor = pdf.NewExtractor(objStore)
	}

	// Initialize repositories and services
	docRepo := postgres.NewDocumentPostgres(db)
	idx := indexer.NewService(embedder, store, cfg.Pipeline.MaxCharsPerChunk)
	docSvc := service.NewDocumentService(objStore, docRepo, idx)
	structSvc := structurer.NewService(generator)
	answerSvc := answerer.NewService(embedder, store, generator, answerer.Config{
		TopK:        cfg.Pipeline.TopK,
		MinScore:    cfg.Pipeline.MinScore,
		MaxTokens:   cfg.Generative.MaxTokens,
		Temperature: cfg.Generative.Temperature,
	}, pipelineMetrics)
	eligSvc := eligibility.NewService(eligibility.NewStaticRegistry())

	// Ingestion: bucket notifications plus the /events webhook feed one
	// channel consumed by the workers.
	orchestrator := ingest.NewOrchestrator(docRepo, objStore, extractor, refiner, structSvc, idx, cfg.MinIO.Bucket, pipelineMetrics)
	events := make(chan storage.Event, 64)
	for i := 0; i < cfg.Pipeline.Workers; i++ {
		worker := ingest.NewWorker(orchestrator, cfg.Pipeline.MaxAttempts, cfg.Pipeline.RetryBackoff, pipelineMetrics)
		go worker.Run(ctx, events)
	}
	notifications, err := objStore.Listen(ctx)
	if err != nil {
		log.Fatalf("failed to listen for bucket notifications: %v", err)
	}
	go func() {
		for ev := range notifications {
			events <- ev
		}
	}()

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(promMiddleware.Handler())

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, docSvc, answerSvc, eligSvc, events)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
