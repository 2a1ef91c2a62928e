package domain

import "time"

// Status is a document's position in the ingestion lifecycle.
// Transitions are strictly ordered: uploaded -> processing -> completed|failed.
// There is no retry state; re-upload under the same identifier is the retry
// mechanism.
type Status string

const (
	// StatusUploaded means the file was accepted but processing has not started.
	StatusUploaded Status = "uploaded"

	// StatusProcessing means extraction/indexing is in flight.
	StatusProcessing Status = "processing"

	// StatusCompleted means the backing store durably accepted all chunks.
	StatusCompleted Status = "completed"

	// StatusFailed means extraction or indexing failed; chunk count is zero.
	StatusFailed Status = "failed"
)

// Document is a unit of ingestion. For local scope a record persists in the
// metadata store; for shared scope the remote peer is authoritative and no
// local record is kept.
type Document struct {
	// ID is the unique identifier, caller- or system-generated.
	ID string

	// OriginalFilename is the name the file was uploaded under.
	OriginalFilename string

	// FilePath is where the uploaded bytes were saved on disk.
	FilePath string

	// Scope is the backend the document's chunks live in.
	Scope Scope

	// Status is the lifecycle state.
	Status Status

	// ChunkCount is the number of chunks the backing store reported.
	// Zero until the document completes; zero forever if it fails.
	ChunkCount int

	// Metadata contains arbitrary key-value pairs (filename, uploader,
	// extraction provenance such as "image_ocr").
	Metadata map[string]string

	// UploadedAt is when the file was accepted.
	UploadedAt time.Time

	// UpdatedAt is when the lifecycle state last changed.
	UpdatedAt time.Time
}

// Chunk is the indexed unit produced from a document: a text span plus its
// embedding. Chunks are never mutated after creation; re-ingestion replaces a
// document's chunk set wholesale.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links back to the owning document.
	DocumentID string

	// Content is the text span.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Embedding is the vector representation, produced by the embedding
	// capability. Opaque to everything except the vector index.
	Embedding []float32

	// Metadata is copied and augmented from the document.
	Metadata map[string]string
}

// DocumentSummary is the listing shape shared by both scopes. It mirrors the
// peer wire contract's /documents entries.
type DocumentSummary struct {
	DocumentID       string `json:"document_id"`
	OriginalFilename string `json:"original_filename"`
	TotalChunks      int    `json:"total_chunks"`
}
