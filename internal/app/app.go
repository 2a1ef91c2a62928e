// Package app assembles the broker's components from configuration.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/ragbroker/internal/adapters/driven/config"
	"github.com/custodia-labs/ragbroker/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/ragbroker/internal/adapters/driven/extraction/tesseract"
	"github.com/custodia-labs/ragbroker/internal/adapters/driven/index/local"
	"github.com/custodia-labs/ragbroker/internal/adapters/driven/index/remote"
	ollamallm "github.com/custodia-labs/ragbroker/internal/adapters/driven/llm/ollama"
	"github.com/custodia-labs/ragbroker/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragbroker/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/ragbroker/internal/adapters/driving/watcher"
	"github.com/custodia-labs/ragbroker/internal/chunker"
	"github.com/custodia-labs/ragbroker/internal/core/ports/driving"
	"github.com/custodia-labs/ragbroker/internal/core/services"
	"github.com/custodia-labs/ragbroker/internal/logger"
)

// App is the wired application.
type App struct {
	Config   *config.Config
	Log      *logger.Logger
	Broker   driving.RetrievalBroker
	Ingestor driving.Ingestor
	Chat     driving.ChatService

	store  *sqlite.Store
	server *httpapi.Server
	drop   *watcher.Watcher
}

// New builds every component. The peer may be unreachable; that is logged,
// not fatal.
func New(cfg *config.Config) (*App, error) {
	log, err := logger.New(cfg.Logging.Mode)
	if err != nil {
		return nil, fmt.Errorf("initialising logger: %w", err)
	}

	store, err := sqlite.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	embedder := ollama.NewEmbeddingService(ollama.Config{
		BaseURL: cfg.Ollama.URL,
		Model:   cfg.Ollama.EmbedModel,
	})
	llm := ollamallm.NewLLMService(ollamallm.Config{
		BaseURL: cfg.Ollama.URL,
		Model:   cfg.Ollama.LLMModel,
	})

	localIndex := local.New(store.ChunkStore(), embedder, chunker.New(), log.With("component", "local_index"))
	peerClient := remote.NewClient(remote.Config{
		BaseURL: cfg.Peer.URL,
		Timeout: cfg.Peer.Timeout(),
	}, log.With("component", "peer_client"))

	broker := services.NewBroker(localIndex, peerClient, log.With("component", "broker"))
	ingestor := services.NewIngestService(
		broker,
		store.DocumentStore(),
		tesseract.New(""),
		services.IngestorConfig{},
		log.With("component", "ingestor"),
	)
	chat := services.NewChat(broker, llm, log.With("component", "chat"))

	a := &App{
		Config:   cfg,
		Log:      log,
		Broker:   broker,
		Ingestor: ingestor,
		Chat:     chat,
		store:    store,
	}

	a.server = httpapi.NewServer(httpapi.Config{
		ListenAddr:     cfg.Server.ListenAddr,
		UploadDir:      filepath.Join(filepath.Dir(store.Path()), "uploads"),
		MaxUploadBytes: cfg.Uploads.MaxUploadBytes(),
		Mode:           cfg.Logging.Mode,
	}, broker, ingestor, chat, log.With("component", "http"))

	if cfg.Storage.DropDir != "" {
		if err := os.MkdirAll(cfg.Storage.DropDir, 0o700); err != nil {
			a.Close()
			return nil, fmt.Errorf("creating drop directory: %w", err)
		}
		drop, err := watcher.New(cfg.Storage.DropDir, ingestor, log.With("component", "watcher"))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("watching drop directory: %w", err)
		}
		a.drop = drop
	}

	return a, nil
}

// Serve runs the HTTP server and drop-folder watcher until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	if a.drop != nil {
		a.drop.Start()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.Log.Info("shutting down")
		return a.server.Shutdown(context.Background())
	}
}

// Close releases everything in dependency order.
func (a *App) Close() {
	if a.drop != nil {
		if err := a.drop.Close(); err != nil {
			a.Log.Warn("closing watcher", "error", err)
		}
	}
	if a.Ingestor != nil {
		a.Ingestor.Close()
	}
	if a.Broker != nil {
		if err := a.Broker.Close(); err != nil {
			a.Log.Warn("closing broker", "error", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.Log.Warn("closing store", "error", err)
		}
	}
	a.Log.Sync()
}
