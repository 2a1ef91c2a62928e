package domain

// DefaultSearchK is the result bound used when a caller does not specify one.
const DefaultSearchK = 5

// SearchHit is the ephemeral result of one query. It is never persisted.
type SearchHit struct {
	// Content is the matched chunk's text.
	Content string `json:"content"`

	// DocumentID identifies the originating document.
	DocumentID string `json:"document_id"`

	// Source is a human-readable origin label, usually the original filename.
	Source string `json:"source,omitempty"`

	// Score is the cosine similarity, highest first in a result list.
	Score float64 `json:"score"`

	// Metadata carries the chunk's key-value pairs.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SearchFilter restricts a search to chunks whose metadata matches every
// entry. The key "document_id" is special-cased to match the owning document.
type SearchFilter map[string]string

// IndexStats is the health/statistics object a backend reports. Its keys vary
// by backend; an unreachable shared scope reports
// {"status": "unreachable", "detail": <reason>}.
type IndexStats map[string]any

// UnreachableStats builds the degraded statistics object for a peer that
// could not be reached.
func UnreachableStats(reason string) IndexStats {
	return IndexStats{
		"status": "unreachable",
		"detail": reason,
	}
}
