package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/ragbroker/internal/core/domain"
	"github.com/custodia-labs/ragbroker/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory implementation of driven.ChunkStore.
type ChunkStore struct {
	mu     sync.RWMutex
	chunks map[string][]domain.Chunk
}

// NewChunkStore creates a new in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		chunks: make(map[string][]domain.Chunk),
	}
}

// ReplaceChunks atomically swaps a document's chunk set.
func (s *ChunkStore) ReplaceChunks(_ context.Context, documentID string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]domain.Chunk, len(chunks))
	copy(copied, chunks)
	s.chunks[documentID] = copied
	return nil
}

// DeleteChunks removes a document's chunks.
func (s *ChunkStore) DeleteChunks(_ context.Context, documentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chunks[documentID]; !ok {
		return false, nil
	}
	delete(s.chunks, documentID)
	return true, nil
}

// AllChunks returns every stored chunk.
func (s *ChunkStore) AllChunks(_ context.Context) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Chunk
	for _, chunks := range s.chunks {
		result = append(result, chunks...)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DocumentID != result[j].DocumentID {
			return result[i].DocumentID < result[j].DocumentID
		}
		return result[i].Position < result[j].Position
	})
	return result, nil
}

// Summaries returns one entry per document with its chunk count.
func (s *ChunkStore) Summaries(_ context.Context) ([]domain.DocumentSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.DocumentSummary, 0, len(s.chunks))
	for docID, chunks := range s.chunks {
		sum := domain.DocumentSummary{
			DocumentID:  docID,
			TotalChunks: len(chunks),
		}
		if len(chunks) > 0 {
			sum.OriginalFilename = chunks[0].Metadata["filename"]
		}
		result = append(result, sum)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DocumentID < result[j].DocumentID
	})
	return result, nil
}

// Count returns the total number of stored chunks.
func (s *ChunkStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, chunks := range s.chunks {
		total += len(chunks)
	}
	return total, nil
}
