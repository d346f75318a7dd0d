package driven

import "context"

// LLMService provides language model generation.
// This is an optional service - when nil, querying degrades to retrieval
// only and CVE analysis features are disabled.
//
// Structured outputs are obtained by instructing the model to emit JSON
// and parsing the completion; retry and re-validation policy belongs to
// the caller, not the adapter.
//
// Implementations may include:
//   - Ollama (local models)
//   - OpenAI (GPT-4 family)
//   - Anthropic (Claude)
type LLMService interface {
	// Generate produces a text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}
