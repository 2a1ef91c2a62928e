package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/ragbroker/internal/core/domain"
	"github.com/custodia-labs/ragbroker/internal/core/ports/driven"
	"github.com/custodia-labs/ragbroker/internal/core/ports/driving"
	"github.com/custodia-labs/ragbroker/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// Default worker pool sizing.
const (
	DefaultIngestWorkers = 2
	DefaultIngestQueue   = 64
)

// imageExtensions route through OCR instead of plain text reading.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".tiff": true,
}

// IngestorConfig sizes the background worker pool.
type IngestorConfig struct {
	Workers   int
	QueueSize int
}

// ingestJob is one queued background submission.
type ingestJob struct {
	req    driving.IngestRequest
	result chan driving.IngestResult
}

// IngestService runs documents through extraction and indexing. Local-scope
// documents get a persistent record whose status tracks the lifecycle;
// shared-scope documents are forwarded to the peer, which is the sole system
// of record for them.
type IngestService struct {
	broker    driving.RetrievalBroker
	docs      driven.DocumentStore
	extractor driven.TextExtractor
	log       *logger.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
	closed   bool

	queue chan ingestJob
	wg    sync.WaitGroup
}

// NewIngestService creates the service and starts its workers.
func NewIngestService(broker driving.RetrievalBroker, docs driven.DocumentStore, extractor driven.TextExtractor, cfg IngestorConfig, log *logger.Logger) *IngestService {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultIngestWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultIngestQueue
	}
	if log == nil {
		log = logger.NewNop()
	}

	s := &IngestService{
		broker:    broker,
		docs:      docs,
		extractor: extractor,
		log:       log,
		inflight:  make(map[string]struct{}),
		queue:     make(chan ingestJob, cfg.QueueSize),
	}

	for i := 0; i < cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

// worker drains the queue. Background work runs detached from any request
// context: the uploader's connection going away must not abort indexing.
func (s *IngestService) worker() {
	defer s.wg.Done()
	for job := range s.queue {
		result := s.process(context.Background(), job.req)
		job.result <- result
		s.release(job.req.DocumentID)
	}
}

// acquire claims a document identifier for the duration of one ingestion.
func (s *IngestService) acquire(documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrIngestorClosed
	}
	if _, busy := s.inflight[documentID]; busy {
		return fmt.Errorf("%w: document %s", domain.ErrIngestInProgress, documentID)
	}
	s.inflight[documentID] = struct{}{}
	return nil
}

func (s *IngestService) release(documentID string) {
	s.mu.Lock()
	delete(s.inflight, documentID)
	s.mu.Unlock()
}

// Ingest runs the pipeline synchronously. The identifier is held in the
// in-flight set for the duration, so a concurrent ingestion of the same
// document, sync or background, is rejected instead of racing the lifecycle
// record.
func (s *IngestService) Ingest(ctx context.Context, req driving.IngestRequest) (int, error) {
	if err := s.acquire(req.DocumentID); err != nil {
		return 0, err
	}
	defer s.release(req.DocumentID)

	if req.Scope == domain.ScopeLocal {
		if err := s.saveUploaded(ctx, req); err != nil {
			return 0, err
		}
	}
	result := s.process(ctx, req)
	return result.ChunkCount, result.Err
}

// Submit schedules background ingestion. The returned channel receives
// exactly one result; for local scope the outcome is also recorded on the
// document record, so callers that drop the channel can still poll Status.
func (s *IngestService) Submit(req driving.IngestRequest) (<-chan driving.IngestResult, error) {
	if err := s.acquire(req.DocumentID); err != nil {
		return nil, err
	}

	if req.Scope == domain.ScopeLocal {
		if err := s.saveUploaded(context.Background(), req); err != nil {
			s.release(req.DocumentID)
			return nil, err
		}
	}

	result := make(chan driving.IngestResult, 1)
	s.queue <- ingestJob{req: req, result: result}
	return result, nil
}

// Status returns the local document record for a submission.
func (s *IngestService) Status(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.docs.GetDocument(ctx, documentID)
}

// Close stops accepting submissions and waits for in-flight work.
func (s *IngestService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	close(s.queue)
	s.wg.Wait()
}

// saveUploaded writes the initial lifecycle record.
func (s *IngestService) saveUploaded(ctx context.Context, req driving.IngestRequest) error {
	doc := &domain.Document{
		ID:               req.DocumentID,
		OriginalFilename: req.OriginalFilename,
		FilePath:         req.FilePath,
		Scope:            req.Scope,
		Status:           domain.StatusUploaded,
		Metadata:         req.Metadata,
	}
	if err := s.docs.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("recording upload %s: %w", req.DocumentID, err)
	}
	return nil
}

// process runs one document through the full pipeline and settles its
// lifecycle state.
func (s *IngestService) process(ctx context.Context, req driving.IngestRequest) driving.IngestResult {
	if req.Scope == domain.ScopeLocal {
		if err := s.docs.SetStatus(ctx, req.DocumentID, domain.StatusProcessing, 0); err != nil {
			s.log.Error("marking document processing", "document_id", req.DocumentID, "error", err)
		}
	}

	count, err := s.runPipeline(ctx, req)

	if req.Scope == domain.ScopeLocal {
		status := domain.StatusCompleted
		if err != nil {
			status, count = domain.StatusFailed, 0
		}
		if setErr := s.docs.SetStatus(ctx, req.DocumentID, status, count); setErr != nil {
			s.log.Error("recording ingest outcome", "document_id", req.DocumentID, "error", setErr)
		}
	}

	if err != nil {
		s.log.Error("ingestion failed", "document_id", req.DocumentID, "scope", req.Scope, "error", err)
		return driving.IngestResult{DocumentID: req.DocumentID, Err: err}
	}
	s.log.Info("ingestion completed", "document_id", req.DocumentID, "scope", req.Scope, "chunks", count)
	return driving.IngestResult{DocumentID: req.DocumentID, ChunkCount: count}
}

// runPipeline extracts content and hands it to the scope's backend.
func (s *IngestService) runPipeline(ctx context.Context, req driving.IngestRequest) (int, error) {
	indexReq, err := s.buildIndexRequest(ctx, req)
	if err != nil {
		return 0, err
	}

	count, err := s.broker.Add(ctx, req.Scope, indexReq)
	if err != nil {
		return 0, fmt.Errorf("indexing %s: %w", req.DocumentID, err)
	}
	return count, nil
}

// buildIndexRequest reads the file and applies extraction. Images go through
// OCR for both scopes, with provenance recorded in metadata; everything else
// is passed along as-is.
func (s *IngestService) buildIndexRequest(ctx context.Context, req driving.IngestRequest) (driven.IndexRequest, error) {
	metadata := make(map[string]string, len(req.Metadata)+2)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	if req.OriginalFilename != "" {
		metadata["filename"] = req.OriginalFilename
	}

	indexReq := driven.IndexRequest{
		DocumentID: req.DocumentID,
		Filename:   req.OriginalFilename,
		Metadata:   metadata,
	}

	if isImage(req.OriginalFilename) {
		text, err := s.extractor.ExtractText(ctx, req.FilePath)
		if err != nil {
			return driven.IndexRequest{}, fmt.Errorf("extracting %s: %w", req.DocumentID, err)
		}
		metadata["type"] = "image_ocr"
		metadata["original_image"] = req.OriginalFilename
		indexReq.Content = []byte(text)
		indexReq.ContentType = "text/plain"
		// The peer indexes text, not pixels.
		indexReq.Filename = req.OriginalFilename + ".txt"
		return indexReq, nil
	}

	content, err := os.ReadFile(req.FilePath)
	if err != nil {
		return driven.IndexRequest{}, fmt.Errorf("reading %s: %w", req.FilePath, err)
	}
	indexReq.Content = content
	indexReq.ContentType = "text/plain"
	return indexReq, nil
}

// isImage classifies a filename by extension.
func isImage(filename string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(filename))]
}
