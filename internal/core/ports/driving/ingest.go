package driving

import (
	"context"

	"github.com/custodia-labs/ragbroker/internal/core/domain"
)

// IngestRequest describes one file accepted for ingestion.
type IngestRequest struct {
	// DocumentID is the identifier the chunks will be indexed under.
	DocumentID string

	// FilePath is where the uploaded bytes live on disk.
	FilePath string

	// OriginalFilename is the name the file was uploaded under.
	OriginalFilename string

	// Scope selects the backend the document is indexed into.
	Scope domain.Scope

	// Metadata is carried onto every chunk; the pipeline adds filename and
	// extraction provenance.
	Metadata map[string]string
}

// IngestResult is delivered on a submission's result channel when background
// processing finishes.
type IngestResult struct {
	DocumentID string
	ChunkCount int
	Err        error
}

// Ingestor drives a document through its lifecycle:
// uploaded -> processing -> completed|failed.
type Ingestor interface {
	// Ingest runs the pipeline synchronously and returns the chunk count.
	// Used for shared-scope uploads (which forward to the peer and keep no
	// local record) and by the peer-facing upload endpoint.
	Ingest(ctx context.Context, req IngestRequest) (int, error)

	// Submit schedules background ingestion and returns a result channel
	// that receives exactly one IngestResult. The work runs detached from
	// the caller's context and records its outcome durably, so the result
	// remains pollable via Status after the caller is gone. A submission for
	// an identifier already in flight is rejected with
	// domain.ErrIngestInProgress.
	Submit(req IngestRequest) (<-chan IngestResult, error)

	// Status returns the document record for a local-scope ingestion.
	// Shared-scope uploads have no record and report domain.ErrNotFound.
	Status(ctx context.Context, documentID string) (*domain.Document, error)

	// Close stops accepting submissions and waits for in-flight work.
	Close()
}
