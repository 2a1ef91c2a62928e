package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbroker/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragbroker/internal/core/domain"
	"github.com/custodia-labs/ragbroker/internal/core/ports/driving"
)

// ingestHarness wires an IngestService over fake backends.
type ingestHarness struct {
	svc    *IngestService
	local  *fakeIndex
	shared *fakeIndex
	docs   *memory.DocumentStore
}

func newIngestHarness(t *testing.T, extractor *fakeExtractor) *ingestHarness {
	t.Helper()

	local := newFakeIndex()
	local.addCount = 4
	shared := newFakeIndex()
	shared.addCount = 4
	docs := memory.NewDocumentStore()

	svc := NewIngestService(NewBroker(local, shared, nil), docs, extractor, IngestorConfig{Workers: 1}, nil)
	t.Cleanup(svc.Close)

	return &ingestHarness{svc: svc, local: local, shared: shared, docs: docs}
}

// writeTempFile drops content into a temp file and returns its path.
func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func localRequest(id, path, filename string) driving.IngestRequest {
	return driving.IngestRequest{
		DocumentID:       id,
		FilePath:         path,
		OriginalFilename: filename,
		Scope:            domain.ScopeLocal,
	}
}

func awaitResult(t *testing.T, ch <-chan driving.IngestResult) driving.IngestResult {
	t.Helper()
	select {
	case result := <-ch:
		return result
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for ingest result")
		return driving.IngestResult{}
	}
}

func TestSubmit_LocalLifecycle(t *testing.T) {
	h := newIngestHarness(t, &fakeExtractor{})
	path := writeTempFile(t, "notes.txt", "some content")

	ch, err := h.svc.Submit(localRequest("doc-1", path, "notes.txt"))
	require.NoError(t, err)

	// The record is pollable before the background work finishes.
	doc, err := h.svc.Status(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Contains(t, []domain.Status{domain.StatusUploaded, domain.StatusProcessing, domain.StatusCompleted}, doc.Status)

	result := awaitResult(t, ch)
	require.NoError(t, result.Err)
	assert.Equal(t, 4, result.ChunkCount)

	doc, err = h.svc.Status(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, doc.Status)
	assert.Equal(t, 4, doc.ChunkCount)
	assert.Equal(t, []string{"doc-1"}, h.local.added())
	assert.Empty(t, h.shared.added())
}

func TestSubmit_ExtractionFailureMarksFailed(t *testing.T) {
	h := newIngestHarness(t, &fakeExtractor{err: domain.ErrExtractionFailed})
	path := writeTempFile(t, "scan.png", "pretend image bytes")

	ch, err := h.svc.Submit(localRequest("doc-1", path, "scan.png"))
	require.NoError(t, err)

	result := awaitResult(t, ch)
	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, domain.ErrExtractionFailed)

	doc, err := h.svc.Status(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, doc.Status)
	assert.Equal(t, 0, doc.ChunkCount)
}

func TestSubmit_RejectsInFlightDuplicate(t *testing.T) {
	local := newFakeIndex()
	local.addRelease = make(chan struct{})
	docs := memory.NewDocumentStore()
	svc := NewIngestService(NewBroker(local, newFakeIndex(), nil), docs, &fakeExtractor{}, IngestorConfig{Workers: 1}, nil)

	path := writeTempFile(t, "notes.txt", "content")
	ch, err := svc.Submit(localRequest("doc-1", path, "notes.txt"))
	require.NoError(t, err)

	// The first submission is blocked inside Add; the duplicate is rejected.
	_, err = svc.Submit(localRequest("doc-1", path, "notes.txt"))
	assert.ErrorIs(t, err, domain.ErrIngestInProgress)

	close(local.addRelease)
	awaitResult(t, ch)
	svc.Close()

	// After completion the identifier is free again; re-upload is the retry
	// mechanism, but the service is closed now.
	_, err = svc.Submit(localRequest("doc-1", path, "notes.txt"))
	assert.ErrorIs(t, err, domain.ErrIngestorClosed)
}

func TestIngest_RejectsConcurrentSameIdentifier(t *testing.T) {
	local := newFakeIndex()
	local.addRelease = make(chan struct{})
	docs := memory.NewDocumentStore()
	svc := NewIngestService(NewBroker(local, newFakeIndex(), nil), docs, &fakeExtractor{}, IngestorConfig{Workers: 1}, nil)
	defer svc.Close()

	path := writeTempFile(t, "notes.txt", "content")

	firstDone := make(chan error, 1)
	go func() {
		_, err := svc.Ingest(context.Background(), localRequest("doc-1", path, "notes.txt"))
		firstDone <- err
	}()

	// Wait until the first call holds the identifier, then race it.
	require.Eventually(t, func() bool {
		doc, err := svc.Status(context.Background(), "doc-1")
		return err == nil && doc.Status == domain.StatusProcessing
	}, 5*time.Second, 10*time.Millisecond)

	_, err := svc.Ingest(context.Background(), localRequest("doc-1", path, "notes.txt"))
	assert.ErrorIs(t, err, domain.ErrIngestInProgress)

	close(local.addRelease)
	require.NoError(t, <-firstDone)

	// Completion frees the identifier for re-upload.
	_, err = svc.Ingest(context.Background(), localRequest("doc-1", path, "notes.txt"))
	assert.NoError(t, err)
}

func TestIngest_RejectsWhileSubmissionInFlight(t *testing.T) {
	local := newFakeIndex()
	local.addRelease = make(chan struct{})
	docs := memory.NewDocumentStore()
	svc := NewIngestService(NewBroker(local, newFakeIndex(), nil), docs, &fakeExtractor{}, IngestorConfig{Workers: 1}, nil)
	defer svc.Close()

	path := writeTempFile(t, "notes.txt", "content")
	ch, err := svc.Submit(localRequest("doc-1", path, "notes.txt"))
	require.NoError(t, err)

	// The background submission holds the identifier; a synchronous ingest
	// of the same document must not interleave with it.
	_, err = svc.Ingest(context.Background(), localRequest("doc-1", path, "notes.txt"))
	assert.ErrorIs(t, err, domain.ErrIngestInProgress)

	close(local.addRelease)
	awaitResult(t, ch)
}

func TestIngest_SharedKeepsNoRecord(t *testing.T) {
	h := newIngestHarness(t, &fakeExtractor{})
	path := writeTempFile(t, "notes.txt", "shared content")

	count, err := h.svc.Ingest(context.Background(), driving.IngestRequest{
		DocumentID:       "doc-shared",
		FilePath:         path,
		OriginalFilename: "notes.txt",
		Scope:            domain.ScopeShared,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.Equal(t, []string{"doc-shared"}, h.shared.added())
	assert.Empty(t, h.local.added())

	_, err = h.svc.Status(context.Background(), "doc-shared")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIngest_SharedUnavailablePropagates(t *testing.T) {
	h := newIngestHarness(t, &fakeExtractor{})
	h.shared.addErr = unavailableErr("add")
	path := writeTempFile(t, "notes.txt", "content")

	_, err := h.svc.Ingest(context.Background(), driving.IngestRequest{
		DocumentID:       "doc-shared",
		FilePath:         path,
		OriginalFilename: "notes.txt",
		Scope:            domain.ScopeShared,
	})
	require.Error(t, err)
	assert.True(t, domain.IsRemoteUnavailable(err))
}

func TestIngest_ImageGetsOCRProvenance(t *testing.T) {
	local := newFakeIndex()
	local.addCount = 1
	docs := memory.NewDocumentStore()
	svc := NewIngestService(NewBroker(local, newFakeIndex(), nil), docs, &fakeExtractor{text: "recognised text"}, IngestorConfig{Workers: 1}, nil)
	t.Cleanup(svc.Close)

	path := writeTempFile(t, "scan.jpg", "pretend image bytes")
	_, err := svc.Ingest(context.Background(), localRequest("doc-img", path, "scan.jpg"))
	require.NoError(t, err)

	req := local.lastAdd()
	assert.Equal(t, "doc-img", req.DocumentID)
	assert.Equal(t, "recognised text", string(req.Content))
	assert.Equal(t, "image_ocr", req.Metadata["type"])
	assert.Equal(t, "scan.jpg", req.Metadata["original_image"])
	assert.Equal(t, "scan.jpg.txt", req.Filename)
}

func TestIngest_MissingFileFailsLocally(t *testing.T) {
	h := newIngestHarness(t, &fakeExtractor{})

	_, err := h.svc.Ingest(context.Background(), localRequest("doc-1", "/nonexistent/file.txt", "file.txt"))
	require.Error(t, err)

	doc, err := h.svc.Status(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, doc.Status)
}
