// Package httpapi exposes the broker over HTTP. Two surfaces share one
// listener: the node API under /api, and the peer wire contract at the root
// so any node can act as the shared peer for its teammates. Peer endpoints
// always target the node's local index.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/ragbroker/internal/core/domain"
	"github.com/custodia-labs/ragbroker/internal/core/ports/driving"
	"github.com/custodia-labs/ragbroker/internal/logger"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Config holds the server's settings.
type Config struct {
	// ListenAddr is the bind address, e.g. ":8000".
	ListenAddr string

	// UploadDir is where uploaded files are written before ingestion.
	UploadDir string

	// MaxUploadBytes caps accepted file size.
	MaxUploadBytes int64

	// Mode is the gin mode; anything but "prod" runs debug.
	Mode string
}

// Server routes HTTP traffic to the broker, ingestor and chat service.
type Server struct {
	cfg      Config
	broker   driving.RetrievalBroker
	ingestor driving.Ingestor
	chat     driving.ChatService
	log      *logger.Logger

	httpServer *http.Server
}

// NewServer builds the server and its routes.
func NewServer(cfg Config, broker driving.RetrievalBroker, ingestor driving.Ingestor, chat driving.ChatService, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.Mode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:      cfg,
		broker:   broker,
		ingestor: ingestor,
		chat:     chat,
		log:      log,
	}

	s.httpServer = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// router wires both surfaces.
func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLog())

	// Node API.
	api := r.Group("/api")
	{
		api.POST("/documents/upload", s.handleUpload)
		api.GET("/documents", s.handleListDocuments)
		api.GET("/documents/:id", s.handleGetDocument)
		api.GET("/documents/:id/status", s.handleDocumentStatus)
		api.DELETE("/documents/:id", s.handleDeleteDocument)
		api.POST("/chat/query", s.handleChatQuery)
		api.GET("/health", s.handleHealth)
	}

	// Peer wire contract, served at the root.
	r.GET("/health", s.handlePeerHealth)
	r.POST("/documents/upload", s.handlePeerUpload)
	r.POST("/search", s.handlePeerSearch)
	r.DELETE("/documents/:id", s.handlePeerDelete)
	r.GET("/documents", s.handlePeerList)

	return r
}

// requestLog logs each request with its outcome.
func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("http server listening", "addr", s.cfg.ListenAddr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains connections gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// writeError maps a service error onto a status and JSON body. Remote
// rejections pass the peer's status through; transport failures become 502.
func writeError(c *gin.Context, err error) {
	var remoteErr *domain.RemoteError
	switch {
	case errors.As(err, &remoteErr) && remoteErr.Kind == domain.RemoteRejected:
		c.JSON(remoteErr.StatusCode, gin.H{"error": remoteErr.Message})
	case domain.IsRemoteUnavailable(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidScope),
		errors.Is(err, domain.ErrEmptyDocument),
		errors.Is(err, domain.ErrUnsupportedType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrFileTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrIngestInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
