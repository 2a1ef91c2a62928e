// Package watcher ingests files dropped into a watched directory. Anything
// appearing there is submitted into local scope, so a folder on disk becomes
// the lowest-friction way to feed the index.
package watcher

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/custodia-labs/ragbroker/internal/core/domain"
	"github.com/custodia-labs/ragbroker/internal/core/ports/driving"
	"github.com/custodia-labs/ragbroker/internal/logger"
)

// settleDelay is how long a file must sit quietly before ingestion, so a
// file still being copied in is not read half-written.
const settleDelay = 500 * time.Millisecond

// watchedExtensions mirrors the upload whitelist.
var watchedExtensions = map[string]bool{
	".pdf":  true,
	".txt":  true,
	".md":   true,
	".docx": true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".tiff": true,
}

// Watcher submits dropped files for local ingestion.
type Watcher struct {
	dir      string
	ingestor driving.Ingestor
	log      *logger.Logger

	fsw  *fsnotify.Watcher
	done chan struct{}
	wg   sync.WaitGroup

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a watcher over dir.
func New(dir string, ingestor driving.Ingestor, log *logger.Logger) (*Watcher, error) {
	if log == nil {
		log = logger.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{
		dir:      dir,
		ingestor: ingestor,
		log:      log,
		fsw:      fsw,
		done:     make(chan struct{}),
		pending:  make(map[string]*time.Timer),
	}, nil
}

// Start runs the event loop until Close.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.loop()
	w.log.Info("watching drop folder", "dir", w.dir)
}

// Close stops watching and waits for the loop.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.fsw.Close()
	w.wg.Wait()

	w.mu.Lock()
	for _, timer := range w.pending {
		timer.Stop()
	}
	w.mu.Unlock()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write) {
				w.schedule(event.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("drop folder watch error", "error", err)
		}
	}
}

// schedule (re)arms the settle timer for a path. Repeated writes keep
// pushing ingestion back until the file goes quiet.
func (w *Watcher) schedule(path string) {
	if !watchedExtensions[strings.ToLower(filepath.Ext(path))] {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.pending[path]; ok {
		timer.Reset(settleDelay)
		return
	}
	w.pending[path] = time.AfterFunc(settleDelay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.submit(path)
	})
}

func (w *Watcher) submit(path string) {
	filename := filepath.Base(path)
	_, err := w.ingestor.Submit(driving.IngestRequest{
		DocumentID:       uuid.NewString(),
		FilePath:         path,
		OriginalFilename: filename,
		Scope:            domain.ScopeLocal,
		Metadata:         map[string]string{"source": "drop_folder"},
	})
	if err != nil {
		w.log.Warn("drop folder ingestion rejected", "file", filename, "error", err)
		return
	}
	w.log.Info("drop folder file submitted", "file", filename)
}
