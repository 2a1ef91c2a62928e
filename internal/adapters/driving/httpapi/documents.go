package httpapi

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/custodia-labs/ragbroker/internal/core/domain"
	"github.com/custodia-labs/ragbroker/internal/core/ports/driving"
)

// allowedExtensions is the upload whitelist.
var allowedExtensions = map[string]bool{
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

// savedUpload is a validated upload written to disk.
type savedUpload struct {
	documentID string
	path       string
	filename   string
}

// acceptUpload validates the multipart file and writes it under the upload
// directory, named by document ID.
func (s *Server) acceptUpload(c *gin.Context) (*savedUpload, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("%w: missing file", domain.ErrEmptyDocument)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, ext)
	}
	if header.Size == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptyDocument, header.Filename)
	}
	if s.cfg.MaxUploadBytes > 0 && header.Size > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes", domain.ErrFileTooLarge, header.Size)
	}

	documentID := c.PostForm("document_id")
	if documentID == "" {
		documentID = uuid.NewString()
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	path := filepath.Join(s.cfg.UploadDir, documentID+ext)
	if err := saveFile(header, path); err != nil {
		return nil, fmt.Errorf("saving upload: %w", err)
	}

	return &savedUpload{
		documentID: documentID,
		path:       path,
		filename:   header.Filename,
	}, nil
}

// saveFile copies a multipart file to disk.
func saveFile(header *multipart.FileHeader, path string) error {
	src, err := header.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := dst.ReadFrom(src); err != nil {
		return err
	}
	return dst.Close()
}

// handleUpload accepts a document into the requested scope. Local uploads
// are scheduled in the background and return immediately with a pollable
// identifier; shared uploads forward to the peer synchronously, since the
// peer is the only system of record for them.
func (s *Server) handleUpload(c *gin.Context) {
	scope, err := domain.ParseScope(scopeParam(c))
	if err != nil {
		writeError(c, err)
		return
	}

	upload, err := s.acceptUpload(c)
	if err != nil {
		writeError(c, err)
		return
	}

	req := driving.IngestRequest{
		DocumentID:       upload.documentID,
		FilePath:         upload.path,
		OriginalFilename: upload.filename,
		Scope:            scope,
	}

	if scope == domain.ScopeShared {
		count, err := s.ingestor.Ingest(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"document_id":    upload.documentID,
			"status":         string(domain.StatusCompleted),
			"chunks_indexed": count,
		})
		return
	}

	if _, err := s.ingestor.Submit(req); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"document_id": upload.documentID,
		"status":      string(domain.StatusUploaded),
	})
}

// handleListDocuments lists one scope's documents.
func (s *Server) handleListDocuments(c *gin.Context) {
	scope, err := domain.ParseScope(scopeParam(c))
	if err != nil {
		writeError(c, err)
		return
	}

	docs, err := s.broker.List(c.Request.Context(), scope)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// handleGetDocument returns the full record for a local document, metadata
// included. Shared documents have no local record and report 404.
func (s *Server) handleGetDocument(c *gin.Context) {
	doc, err := s.ingestor.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"document_id": doc.ID,
		"filename":    doc.OriginalFilename,
		"scope":       doc.Scope,
		"status":      string(doc.Status),
		"chunk_count": doc.ChunkCount,
		"metadata":    doc.Metadata,
		"uploaded_at": doc.UploadedAt,
		"updated_at":  doc.UpdatedAt,
	})
}

// handleDocumentStatus reports a local ingestion's lifecycle state.
func (s *Server) handleDocumentStatus(c *gin.Context) {
	doc, err := s.ingestor.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"document_id": doc.ID,
		"filename":    doc.OriginalFilename,
		"status":      string(doc.Status),
		"chunk_count": doc.ChunkCount,
		"uploaded_at": doc.UploadedAt,
		"updated_at":  doc.UpdatedAt,
	})
}

// handleDeleteDocument removes a document from one scope.
func (s *Server) handleDeleteDocument(c *gin.Context) {
	scope, err := domain.ParseScope(scopeParam(c))
	if err != nil {
		writeError(c, err)
		return
	}

	documentID := c.Param("id")
	deleted, err := s.broker.Delete(c.Request.Context(), scope, documentID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("document %s not found", documentID)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"document_id": documentID, "deleted": true})
}

// handleHealth reports both scopes' statistics. Statistics never errors, so
// this endpoint always answers 200 with reachability as data.
func (s *Server) handleHealth(c *gin.Context) {
	ctx := c.Request.Context()
	c.JSON(http.StatusOK, gin.H{
		"local":  s.broker.Statistics(ctx, domain.ScopeLocal),
		"shared": s.broker.Statistics(ctx, domain.ScopeShared),
	})
}

// scopeParam reads the scope from query or form.
func scopeParam(c *gin.Context) string {
	if scope := c.Query("scope"); scope != "" {
		return scope
	}
	return c.PostForm("scope")
}
