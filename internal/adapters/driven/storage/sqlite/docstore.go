package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/ragbroker/internal/core/domain"
	"github.com/custodia-labs/ragbroker/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument stores or updates a document record.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	now := time.Now().UTC()
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = now
	}
	doc.UpdatedAt = now

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, original_filename, file_path, scope, status, chunk_count, metadata, uploaded_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			original_filename = excluded.original_filename,
			file_path = excluded.file_path,
			scope = excluded.scope,
			status = excluded.status,
			chunk_count = excluded.chunk_count,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, doc.ID, doc.OriginalFilename, doc.FilePath, string(doc.Scope), string(doc.Status),
		doc.ChunkCount, string(metadataJSON), doc.UploadedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a record by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, original_filename, file_path, scope, status, chunk_count, metadata, uploaded_at, updated_at
		FROM documents WHERE id = ?
	`, id)

	var doc domain.Document
	var scope, status, metadataJSON string
	var uploadedAt, updatedAt sql.NullTime
	err := row.Scan(&doc.ID, &doc.OriginalFilename, &doc.FilePath, &scope, &status,
		&doc.ChunkCount, &metadataJSON, &uploadedAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Scope = domain.Scope(scope)
	doc.Status = domain.Status(status)
	if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshalling metadata: %w", err)
	}
	if uploadedAt.Valid {
		doc.UploadedAt = uploadedAt.Time
	}
	if updatedAt.Valid {
		doc.UpdatedAt = updatedAt.Time
	}

	return &doc, nil
}

// SetStatus transitions a document's lifecycle state and chunk count.
func (s *documentStore) SetStatus(ctx context.Context, id string, status domain.Status, chunkCount int) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE documents SET status = ?, chunk_count = ?, updated_at = ? WHERE id = ?
	`, string(status), chunkCount, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteDocument removes a record.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) (bool, error) {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting document: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return rows > 0, nil
}

// ListDocuments returns all records, most recently uploaded first.
func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, original_filename, file_path, scope, status, chunk_count, metadata, uploaded_at, updated_at
		FROM documents ORDER BY uploaded_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		var doc domain.Document
		var scope, status, metadataJSON string
		var uploadedAt, updatedAt sql.NullTime
		if err := rows.Scan(&doc.ID, &doc.OriginalFilename, &doc.FilePath, &scope, &status,
			&doc.ChunkCount, &metadataJSON, &uploadedAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}

		doc.Scope = domain.Scope(scope)
		doc.Status = domain.Status(status)
		if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata: %w", err)
		}
		if uploadedAt.Valid {
			doc.UploadedAt = uploadedAt.Time
		}
		if updatedAt.Valid {
			doc.UpdatedAt = updatedAt.Time
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}
