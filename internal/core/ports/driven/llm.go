package driven

import "context"

// LLMService generates chat answers. Treated as an opaque capability: prompt
// in, text out.
type LLMService interface {
	// Generate produces an answer for a bare prompt under a system prompt.
	Generate(ctx context.Context, prompt, systemPrompt string) (string, error)

	// GenerateWithContext produces an answer grounded in retrieved passages.
	GenerateWithContext(ctx context.Context, question string, passages []string) (string, error)

	// Ping verifies the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
