package genai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"warrantyai/internal/metrics"
)

// refineInputLimit bounds how much raw OCR text is sent to the refiner model.
const refineInputLimit = 8000

// Refiner cleans raw OCR output into well-structured markdown using a
// generation model tuned for document layout. Latency of each call is
// recorded for cost tracking.
type Refiner struct {
	gen     Generator
	metrics *metrics.Pipeline
}

// NewRefiner creates a markdown refiner on top of the given generator.
func NewRefiner(gen Generator, m *metrics.Pipeline) *Refiner {
	return &Refiner{gen: gen, metrics: m}
}

// Refine converts raw extracted text into clean markdown. Empty input passes
// through without a model call.
func (r *Refiner) Refine(ctx context.Context, raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return raw, nil
	}
	if len(raw) > refineInputLimit {
		raw = raw[:refineInputLimit]
	}

	prompt := "Organize warranty tables and clauses. Convert to Markdown: " + raw

	start := time.Now()
	out, err := r.gen.Generate(ctx, prompt, GenerateOptions{MaxTokens: 1024, Temperature: 0.1})
	if r.metrics != nil {
		r.metrics.RefinerLatency.Observe(float64(time.Since(start).Milliseconds()))
	}
	if err != nil {
		return "", fmt.Errorf("refine text: %w", err)
	}
	return out, nil
}
