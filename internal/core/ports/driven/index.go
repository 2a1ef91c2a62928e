// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/custodia-labs/ragbroker/internal/core/domain"
)

// IndexRequest carries one document into a backend index.
type IndexRequest struct {
	// DocumentID is caller-unique within the target scope.
	DocumentID string

	// Content is the document bytes. For the embedded index this is the
	// already-extracted text; for the remote peer it is transmitted as-is and
	// the peer runs its own extraction.
	Content []byte

	// Filename is the original upload name, used as the multipart part name
	// on the wire and as the source label on hits.
	Filename string

	// ContentType is the MIME type of Content.
	ContentType string

	// Metadata is indexed alongside every chunk.
	Metadata map[string]string
}

// DocumentIndex is the logical contract both backends implement: the embedded
// local store and the HTTP client bound to the team peer. The broker holds
// exactly one of each and routes by scope; adding a third backend means adding
// a third implementation, not a new conditional.
type DocumentIndex interface {
	// Add indexes a document and returns the chunk count the store durably
	// accepted. An existing document with the same ID has its chunk set
	// replaced, never merged.
	Add(ctx context.Context, req IndexRequest) (int, error)

	// Search returns up to k hits ordered by similarity, highest first.
	Search(ctx context.Context, query string, k int, filter domain.SearchFilter) ([]domain.SearchHit, error)

	// Delete removes a document's chunks. Returns false, not an error, when
	// the identifier does not exist.
	Delete(ctx context.Context, documentID string) (bool, error)

	// List returns a summary per indexed document.
	List(ctx context.Context) ([]domain.DocumentSummary, error)

	// Stats reports the backend's health/statistics object.
	Stats(ctx context.Context) (domain.IndexStats, error)

	// Close releases resources.
	Close() error
}
