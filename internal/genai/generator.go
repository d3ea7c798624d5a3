package genai

import "context"

// GenerateOptions are per-call generation parameters.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
}

// Generator produces text from a prompt. Stateless per call.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}
