// Package local implements the embedded document index: chunks stored with
// their embeddings, searched by brute-force cosine similarity.
package local

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/ragbroker/internal/core/domain"
	"github.com/custodia-labs/ragbroker/internal/core/ports/driven"
	"github.com/custodia-labs/ragbroker/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.DocumentIndex = (*Index)(nil)

// embedConcurrency bounds parallel embedding batches per Add call.
const embedConcurrency = 4

// embedBatchSize is the number of chunks sent per embedding request.
const embedBatchSize = 16

// Index is the local-scope DocumentIndex backed by a ChunkStore and an
// embedding service.
type Index struct {
	chunks   driven.ChunkStore
	embedder driven.EmbeddingService
	chunker  driven.Chunker
	log      *logger.Logger
}

// New creates a local index.
func New(chunks driven.ChunkStore, embedder driven.EmbeddingService, chunker driven.Chunker, log *logger.Logger) *Index {
	if log == nil {
		log = logger.NewNop()
	}
	return &Index{
		chunks:   chunks,
		embedder: embedder,
		chunker:  chunker,
		log:      log,
	}
}

// Add splits, embeds and stores a document's content, replacing any chunk set
// already held under the same identifier.
func (idx *Index) Add(ctx context.Context, req driven.IndexRequest) (int, error) {
	content := strings.TrimSpace(string(req.Content))
	if content == "" {
		return 0, domain.ErrEmptyDocument
	}

	chunks := idx.chunker.Split(req.DocumentID, content, req.Metadata)
	if len(chunks) == 0 {
		return 0, domain.ErrEmptyDocument
	}

	if err := idx.embedChunks(ctx, chunks); err != nil {
		return 0, fmt.Errorf("embedding document %s: %w", req.DocumentID, err)
	}

	if err := idx.chunks.ReplaceChunks(ctx, req.DocumentID, chunks); err != nil {
		return 0, fmt.Errorf("storing chunks for %s: %w", req.DocumentID, err)
	}

	idx.log.Info("document indexed", "document_id", req.DocumentID, "chunks", len(chunks))
	return len(chunks), nil
}

// embedChunks fills each chunk's embedding, batching requests with bounded
// parallelism.
func (idx *Index) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		g.Go(func() error {
			texts := make([]string, len(batch))
			for i := range batch {
				texts[i] = batch[i].Content
			}
			embeddings, err := idx.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return err
			}
			if len(embeddings) != len(batch) {
				return fmt.Errorf("expected %d embeddings, got %d", len(batch), len(embeddings))
			}
			for i := range batch {
				batch[i].Embedding = embeddings[i]
			}
			return nil
		})
	}

	return g.Wait()
}

// Search embeds the query and ranks every stored chunk by cosine similarity.
func (idx *Index) Search(ctx context.Context, query string, k int, filter domain.SearchFilter) ([]domain.SearchHit, error) {
	if k <= 0 {
		k = domain.DefaultSearchK
	}

	queryEmbedding, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	chunks, err := idx.chunks.AllChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading chunks: %w", err)
	}

	hits := make([]domain.SearchHit, 0, len(chunks))
	for _, c := range chunks {
		if !matchesFilter(c, filter) {
			continue
		}
		hits = append(hits, domain.SearchHit{
			Content:    c.Content,
			DocumentID: c.DocumentID,
			Source:     sourceLabel(c),
			Score:      cosineSimilarity(queryEmbedding, c.Embedding),
			Metadata:   c.Metadata,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// matchesFilter reports whether a chunk satisfies every filter entry. The
// "document_id" key matches the owning document rather than chunk metadata.
func matchesFilter(c domain.Chunk, filter domain.SearchFilter) bool {
	for key, want := range filter {
		if key == "document_id" {
			if c.DocumentID != want {
				return false
			}
			continue
		}
		if c.Metadata[key] != want {
			return false
		}
	}
	return true
}

// sourceLabel derives the human-readable origin for a hit.
func sourceLabel(c domain.Chunk) string {
	if name := c.Metadata["filename"]; name != "" {
		return name
	}
	return c.DocumentID
}

// Delete removes a document's chunks.
func (idx *Index) Delete(ctx context.Context, documentID string) (bool, error) {
	deleted, err := idx.chunks.DeleteChunks(ctx, documentID)
	if err != nil {
		return false, fmt.Errorf("deleting chunks for %s: %w", documentID, err)
	}
	return deleted, nil
}

// List returns a summary per indexed document.
func (idx *Index) List(ctx context.Context) ([]domain.DocumentSummary, error) {
	summaries, err := idx.chunks.Summaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return summaries, nil
}

// Stats reports index health and sizes.
func (idx *Index) Stats(ctx context.Context) (domain.IndexStats, error) {
	count, err := idx.chunks.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting chunks: %w", err)
	}
	summaries, err := idx.chunks.Summaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	return domain.IndexStats{
		"status":          "healthy",
		"total_documents": len(summaries),
		"total_chunks":    count,
		"embedding_model": idx.embedder.ModelName(),
	}, nil
}

// Close releases the embedding service.
func (idx *Index) Close() error {
	return idx.embedder.Close()
}
