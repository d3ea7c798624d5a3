package ingest

import (
	"context"
	"time"

	"warrantyai/internal/metrics"
	"warrantyai/internal/storage"
)

// Processor settles one storage event. Implemented by Orchestrator.
type Processor interface {
	Process(ctx context.Context, ev storage.Event) error
}

// Worker consumes storage notifications one at a time, retrying failed
// events with a fixed backoff and dead-lettering them once attempts run out.
// Concurrency across documents comes from running multiple workers on the
// same channel.
type Worker struct {
	processor   Processor
	maxAttempts int
	backoff     time.Duration
	metrics     *metrics.Pipeline
}

func NewWorker(processor Processor, maxAttempts int, backoff time.Duration, m *metrics.Pipeline) *Worker {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Worker{processor: processor, maxAttempts: maxAttempts, backoff: backoff, metrics: m}
}

// Run blocks until ctx is cancelled or events closes.
func (w *Worker) Run(ctx context.Context, events <-chan storage.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			w.handle(ctx, ev)
		}
	}
}

func (w *Worker) handle(ctx context.Context, ev storage.Event) {
	var lastErr error
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		lastErr = w.processor.Process(ctx, ev)
		if lastErr == nil {
			return
		}
		logJSON(map[string]any{
			"component":     "ingest",
			"event":         "event_attempt_failed",
			"status":        "error",
			"key":           ev.Key,
			"attempt":       attempt,
			"max_attempts":  w.maxAttempts,
			"error_message": lastErr.Error(),
		})
		if attempt == w.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.backoff):
		}
	}
	w.deadLetter(ev, lastErr)
}

func (w *Worker) deadLetter(ev storage.Event, err error) {
	if w.metrics != nil {
		w.metrics.DeadLettered.Inc()
	}
	logJSON(map[string]any{
		"component":     "ingest",
		"event":         "event_dead_lettered",
		"status":        "error",
		"bucket":        ev.Bucket,
		"key":           ev.Key,
		"error_message": err.Error(),
	})
}
