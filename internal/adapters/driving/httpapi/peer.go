package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/ragbroker/internal/core/domain"
	"github.com/custodia-labs/ragbroker/internal/core/ports/driving"
)

// The peer wire contract. These handlers serve teammates' remote clients and
// always operate on this node's local index; a peer never reaches through
// one node into another node's peer.

// peerSearchRequest is the wire search body.
type peerSearchRequest struct {
	Query      string `json:"query" binding:"required"`
	K          int    `json:"k"`
	DocumentID string `json:"document_id"`
}

// peerSearchResult is one wire hit.
type peerSearchResult struct {
	Content  string            `json:"content"`
	Source   string            `json:"source,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// handlePeerHealth reports the local index's statistics.
func (s *Server) handlePeerHealth(c *gin.Context) {
	c.JSON(http.StatusOK, s.broker.Statistics(c.Request.Context(), domain.ScopeLocal))
}

// handlePeerUpload indexes an uploaded file synchronously and reports the
// chunk count, the contract teammates' clients depend on.
func (s *Server) handlePeerUpload(c *gin.Context) {
	upload, err := s.acceptUpload(c)
	if err != nil {
		writeError(c, err)
		return
	}

	count, err := s.ingestor.Ingest(c.Request.Context(), driving.IngestRequest{
		DocumentID:       upload.documentID,
		FilePath:         upload.path,
		OriginalFilename: upload.filename,
		Scope:            domain.ScopeLocal,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chunks_indexed": count})
}

// handlePeerSearch queries the local index.
func (s *Server) handlePeerSearch(c *gin.Context) {
	var body peerSearchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var filter domain.SearchFilter
	if body.DocumentID != "" {
		filter = domain.SearchFilter{"document_id": body.DocumentID}
	}

	hits, err := s.broker.Search(c.Request.Context(), domain.ScopeLocal, body.Query, body.K, filter)
	if err != nil {
		writeError(c, err)
		return
	}

	results := make([]peerSearchResult, len(hits))
	for i, hit := range hits {
		// Copy before augmenting; the hit's map belongs to the index.
		metadata := make(map[string]string, len(hit.Metadata)+1)
		for k, v := range hit.Metadata {
			metadata[k] = v
		}
		if hit.DocumentID != "" {
			metadata["document_id"] = hit.DocumentID
		}
		results[i] = peerSearchResult{
			Content:  hit.Content,
			Source:   hit.Source,
			Metadata: metadata,
		}
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// handlePeerDelete removes a document from the local index. Absent
// identifiers answer 404, which remote clients fold into a false result.
func (s *Server) handlePeerDelete(c *gin.Context) {
	documentID := c.Param("id")
	deleted, err := s.broker.Delete(c.Request.Context(), domain.ScopeLocal, documentID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("document %s not found", documentID)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// handlePeerList lists the local index's documents.
func (s *Server) handlePeerList(c *gin.Context) {
	docs, err := s.broker.List(c.Request.Context(), domain.ScopeLocal)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}
