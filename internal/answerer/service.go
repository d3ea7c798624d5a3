// Package answerer serves natural-language questions against a tenant's
// indexed documents, with answers grounded in the retrieved chunks only.
package answerer

import (
	"context"
	"fmt"
	"strings"

	"warrantyai/internal/embedding"
	"warrantyai/internal/genai"
	"warrantyai/internal/metrics"
	"warrantyai/internal/vectorindex"
)

// NoGroundingAnswer is returned when the tenant's partition yields nothing to
// ground an answer in. The generative model is not called in that case.
const NoGroundingAnswer = "I could not find anything in your documents to answer that."

// AnswerResult is the outcome of one question.
type AnswerResult struct {
	Answer   string   `json:"answer"`
	Grounded bool     `json:"grounded"`
	Sources  []string `json:"sources,omitempty"`
}

// Config holds retrieval and generation tunables for the answerer.
type Config struct {
	// TopK is how many chunks to retrieve (default 1).
	TopK int
	// MinScore drops matches below this similarity; 0 keeps everything
	// top-k returns.
	MinScore float64
	// MaxTokens and Temperature are passed to the generative model.
	// Temperature 0 means greedy decoding, not "unset".
	MaxTokens   int
	Temperature float64
}

// Service answers questions for one tenant at a time.
type Service struct {
	embedder embedding.Embedder
	store    vectorindex.Store
	gen      genai.Generator
	cfg      Config
	metrics  *metrics.Pipeline
}

// NewService constructs an answerer. The embedder must be the same handle
// used for indexing so query and index vectors share one embedding space.
func NewService(embedder embedding.Embedder, store vectorindex.Store, gen genai.Generator, cfg Config, m *metrics.Pipeline) *Service {
	if cfg.TopK <= 0 {
		cfg.TopK = 1
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 512
	}
	return &Service{embedder: embedder, store: store, gen: gen, cfg: cfg, metrics: m}
}

// Answer embeds the question, retrieves the nearest chunks within the
// tenant's partition, and generates an answer constrained to that context.
func (s *Service) Answer(ctx context.Context, tenantID, question string) (*AnswerResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is empty")
	}

	vec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	matches, err := s.store.Search(ctx, s.embedder.ModelName(), vec, s.cfg.TopK, tenantID)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	var (
		contexts []string
		sources  []string
	)
	for _, m := range matches {
		if m.Score < s.cfg.MinScore {
			continue
		}
		contexts = append(contexts, m.Chunk.Text)
		sources = append(sources, m.Chunk.ID)
	}

	if len(contexts) == 0 {
		s.countAnswer(false)
		return &AnswerResult{Answer: NoGroundingAnswer, Grounded: false}, nil
	}

	// The prompt carries only the retrieved chunk text: nothing from other
	// tenants and nothing un-retrieved can leak into the generation.
	prompt := fmt.Sprintf("Context: %s\nQuestion: %s", strings.Join(contexts, "\n---\n"), question)

	answer, err := s.gen.Generate(ctx, prompt, genai.GenerateOptions{
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	s.countAnswer(true)
	return &AnswerResult{Answer: answer, Grounded: true, Sources: sources}, nil
}

func (s *Service) countAnswer(grounded bool) {
	if s.metrics == nil {
		return
	}
	label := "false"
	if grounded {
		label = "true"
	}
	s.metrics.AnswerRequests.WithLabelValues(label).Inc()
}
