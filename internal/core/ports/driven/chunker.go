package driven

import "github.com/custodia-labs/ragbroker/internal/core/domain"

// Chunker splits extracted text into the spans the vector index stores.
type Chunker interface {
	// Split produces ordered chunks for a document. Metadata is copied onto
	// every chunk. Empty content produces no chunks.
	Split(documentID, content string, metadata map[string]string) []domain.Chunk
}
