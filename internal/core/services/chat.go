package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/ragbroker/internal/core/domain"
	"github.com/custodia-labs/ragbroker/internal/core/ports/driven"
	"github.com/custodia-labs/ragbroker/internal/core/ports/driving"
	"github.com/custodia-labs/ragbroker/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*Chat)(nil)

// citationPreviewLen bounds the content preview on a citation.
const citationPreviewLen = 200

// Chat answers questions grounded in passages retrieved through the broker.
type Chat struct {
	broker driving.RetrievalBroker
	llm    driven.LLMService
	log    *logger.Logger
}

// NewChat creates the chat service.
func NewChat(broker driving.RetrievalBroker, llm driven.LLMService, log *logger.Logger) *Chat {
	if log == nil {
		log = logger.NewNop()
	}
	return &Chat{
		broker: broker,
		llm:    llm,
		log:    log,
	}
}

// Query retrieves passages from the requested scope and generates an
// answer. An unreachable shared peer yields an answer noting that no team
// documents were found, not an error.
func (c *Chat) Query(ctx context.Context, req driving.ChatRequest) (*driving.ChatResponse, error) {
	start := time.Now()

	scope, err := domain.ParseScope(string(req.Scope))
	if err != nil {
		return nil, err
	}

	if !req.UseRAG {
		answer, err := c.llm.Generate(ctx, req.Query, "")
		if err != nil {
			return nil, fmt.Errorf("generating answer: %w", err)
		}
		return &driving.ChatResponse{
			Answer:         answer,
			Sources:        []driving.SourceCitation{},
			Scope:          scope,
			ResponseTimeMS: time.Since(start).Milliseconds(),
		}, nil
	}

	hits, err := c.broker.Search(ctx, scope, req.Query, req.K, nil)
	if err != nil {
		return nil, fmt.Errorf("retrieving context: %w", err)
	}

	answer, err := c.answer(ctx, req.Query, scope, hits)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	return &driving.ChatResponse{
		Answer:         answer,
		Sources:        citations(hits),
		Scope:          scope,
		ResponseTimeMS: time.Since(start).Milliseconds(),
	}, nil
}

// answer generates the reply, telling the model explicitly when retrieval
// came back empty so it does not hallucinate grounding.
func (c *Chat) answer(ctx context.Context, query string, scope domain.Scope, hits []domain.SearchHit) (string, error) {
	if len(hits) == 0 {
		c.log.Debug("no passages retrieved", "scope", scope)
		system := fmt.Sprintf("No relevant documents were found in the %s database. Say so, then answer from general knowledge if you can.", scopeLabel(scope))
		return c.llm.Generate(ctx, query, system)
	}

	passages := make([]string, len(hits))
	for i, hit := range hits {
		passages[i] = hit.Content
	}
	return c.llm.GenerateWithContext(ctx, query, passages)
}

// scopeLabel names a scope the way users see it.
func scopeLabel(scope domain.Scope) string {
	if scope == domain.ScopeShared {
		return "shared team"
	}
	return "personal"
}

// citations builds user-facing source pointers from hits.
func citations(hits []domain.SearchHit) []driving.SourceCitation {
	result := make([]driving.SourceCitation, len(hits))
	for i, hit := range hits {
		content := hit.Content
		if len(content) > citationPreviewLen {
			content = content[:citationPreviewLen] + "..."
		}
		result[i] = driving.SourceCitation{
			Content:    content,
			Source:     hit.Source,
			DocumentID: hit.DocumentID,
		}
	}
	return result
}
