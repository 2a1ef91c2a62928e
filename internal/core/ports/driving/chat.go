package driving

import (
	"context"

	"github.com/custodia-labs/ragbroker/internal/core/domain"
)

// ChatRequest is one retrieval-augmented question.
type ChatRequest struct {
	// Query is the user's question.
	Query string

	// K bounds retrieved passages; zero selects the default.
	K int

	// Scope selects which document store grounds the answer.
	Scope domain.Scope

	// UseRAG disables retrieval entirely when false.
	UseRAG bool
}

// SourceCitation is a user-facing pointer to a passage that grounded the
// answer.
type SourceCitation struct {
	// Content is a truncated preview of the passage.
	Content string `json:"content"`

	// Source is the origin label, usually the original filename.
	Source string `json:"source"`

	// DocumentID identifies the originating document.
	DocumentID string `json:"document_id"`
}

// ChatResponse is the assembled answer with its citations.
type ChatResponse struct {
	Answer         string           `json:"answer"`
	Sources        []SourceCitation `json:"sources"`
	Scope          domain.Scope     `json:"db_scope"`
	ResponseTimeMS int64            `json:"response_time_ms"`
}

// ChatService answers questions grounded in retrieved passages. A degraded
// shared search produces an answer that explicitly notes no team documents
// were found, never an error.
type ChatService interface {
	Query(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}
