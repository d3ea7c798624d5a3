// Package structurer turns raw extracted document text into a small
// structured record of warranty facts using a generation model.
package structurer

import (
	"context"
	"encoding/json"
	"strings"

	"warrantyai/internal/genai"
	"warrantyai/internal/model"
)

// structureInputLimit bounds how much raw text is sent with the extraction prompt.
const structureInputLimit = 8000

// Service extracts structured facts from raw text. A parse failure degrades
// to empty facts: structuring never blocks indexing.
type Service struct {
	gen genai.Generator
}

// NewService creates a fact structurer on top of the given generator.
func NewService(gen genai.Generator) *Service {
	return &Service{gen: gen}
}

// factsPayload mirrors the JSON shape requested from the model.
type factsPayload struct {
	Brand        *string `json:"brand"`
	Model        *string `json:"model"`
	PurchaseDate *string `json:"purchase_date"`
	ExpiryDate   *string `json:"expiry_date"`
}

// Structure extracts brand, model and dates from raw text. Empty input
// short-circuits to empty facts without a model call.
func (s *Service) Structure(ctx context.Context, raw string) (*model.StructuredFacts, error) {
	if strings.TrimSpace(raw) == "" {
		return &model.StructuredFacts{}, nil
	}
	if len(raw) > structureInputLimit {
		raw = raw[:structureInputLimit]
	}

	prompt := `Extract brand, model, purchase_date and expiry_date as a JSON object ` +
		`with exactly those keys from this text. Use null for anything not present. Text: ` + raw

	out, err := s.gen.Generate(ctx, prompt, genai.GenerateOptions{MaxTokens: 500, Temperature: 0.1})
	if err != nil {
		return nil, err
	}

	var payload factsPayload
	if err := json.Unmarshal([]byte(stripCodeFence(out)), &payload); err != nil {
		// Model produced something unparsable; keep the pipeline moving.
		return &model.StructuredFacts{}, nil
	}

	return &model.StructuredFacts{
		Brand:        payload.Brand,
		Model:        payload.Model,
		PurchaseDate: payload.PurchaseDate,
		ExpiryDate:   payload.ExpiryDate,
	}, nil
}

// stripCodeFence removes a surrounding markdown code fence, which models
// commonly wrap JSON output in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
