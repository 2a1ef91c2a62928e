package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbroker/internal/core/domain"
	"github.com/custodia-labs/ragbroker/internal/core/ports/driving"
)

// recordingIngestor captures submissions.
type recordingIngestor struct {
	mu        sync.Mutex
	submitted []driving.IngestRequest
}

func (r *recordingIngestor) Ingest(context.Context, driving.IngestRequest) (int, error) {
	return 0, nil
}

func (r *recordingIngestor) Submit(req driving.IngestRequest) (<-chan driving.IngestResult, error) {
	r.mu.Lock()
	r.submitted = append(r.submitted, req)
	r.mu.Unlock()
	ch := make(chan driving.IngestResult, 1)
	ch <- driving.IngestResult{DocumentID: req.DocumentID}
	return ch, nil
}

func (r *recordingIngestor) Status(context.Context, string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (r *recordingIngestor) Close() {}

func (r *recordingIngestor) requests() []driving.IngestRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]driving.IngestRequest, len(r.submitted))
	copy(out, r.submitted)
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestWatcher_SubmitsDroppedFile(t *testing.T) {
	dir := t.TempDir()
	ingestor := &recordingIngestor{}

	w, err := New(dir, ingestor, nil)
	require.NoError(t, err)
	w.Start()
	defer w.Close()

	path := filepath.Join(dir, "dropped.txt")
	require.NoError(t, os.WriteFile(path, []byte("dropped content"), 0o600))

	waitFor(t, func() bool { return len(ingestor.requests()) == 1 })

	req := ingestor.requests()[0]
	assert.Equal(t, domain.ScopeLocal, req.Scope)
	assert.Equal(t, "dropped.txt", req.OriginalFilename)
	assert.Equal(t, path, req.FilePath)
	assert.Equal(t, "drop_folder", req.Metadata["source"])
	assert.NotEmpty(t, req.DocumentID)
}

func TestWatcher_IgnoresUnsupportedExtensions(t *testing.T) {
	dir := t.TempDir()
	ingestor := &recordingIngestor{}

	w, err := New(dir, ingestor, nil)
	require.NoError(t, err)
	w.Start()
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.tmp"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.md"), []byte("x"), 0o600))

	waitFor(t, func() bool { return len(ingestor.requests()) == 1 })
	assert.Equal(t, "keep.md", ingestor.requests()[0].OriginalFilename)
}

func TestWatcher_MissingDirectory(t *testing.T) {
	_, err := New("/nonexistent/drop/dir", &recordingIngestor{}, nil)
	assert.Error(t, err)
}
