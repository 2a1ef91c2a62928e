package driven

import (
	"context"

	"github.com/custodia-labs/ragbroker/internal/core/domain"
)

// DocumentStore persists local-scope document metadata records: the system of
// record the ingestion pipeline transitions lifecycle state against. Shared
// uploads never touch it.
type DocumentStore interface {
	// SaveDocument stores or updates a document record.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a record by ID. Returns domain.ErrNotFound when
	// absent.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// SetStatus transitions a document's lifecycle state and chunk count.
	SetStatus(ctx context.Context, id string, status domain.Status, chunkCount int) error

	// DeleteDocument removes a record. Returns false when the ID is absent.
	DeleteDocument(ctx context.Context, id string) (bool, error)

	// ListDocuments returns all records, most recently uploaded first.
	ListDocuments(ctx context.Context) ([]domain.Document, error)
}

// ChunkStore persists the embedded index's chunks with their embeddings.
type ChunkStore interface {
	// ReplaceChunks atomically swaps a document's chunk set.
	ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error

	// DeleteChunks removes a document's chunks. Returns false when the
	// document had none.
	DeleteChunks(ctx context.Context, documentID string) (bool, error)

	// AllChunks returns every stored chunk, embeddings included.
	AllChunks(ctx context.Context) ([]domain.Chunk, error)

	// Summaries returns one entry per document with its chunk count.
	Summaries(ctx context.Context) ([]domain.DocumentSummary, error)

	// Count returns the total number of stored chunks.
	Count(ctx context.Context) (int, error)
}
