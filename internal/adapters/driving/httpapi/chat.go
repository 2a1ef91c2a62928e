package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/ragbroker/internal/core/domain"
	"github.com/custodia-labs/ragbroker/internal/core/ports/driving"
)

// chatQueryRequest is the node API's chat body.
type chatQueryRequest struct {
	Query  string `json:"query" binding:"required"`
	K      int    `json:"k"`
	Scope  string `json:"db_scope"`
	UseRAG *bool  `json:"use_rag"`
}

// handleChatQuery answers a question grounded in the requested scope.
func (s *Server) handleChatQuery(c *gin.Context) {
	var body chatQueryRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	useRAG := true
	if body.UseRAG != nil {
		useRAG = *body.UseRAG
	}

	resp, err := s.chat.Query(c.Request.Context(), driving.ChatRequest{
		Query:  body.Query,
		K:      body.K,
		Scope:  domain.Scope(body.Scope),
		UseRAG: useRAG,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
