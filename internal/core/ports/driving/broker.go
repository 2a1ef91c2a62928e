// Package driving provides interfaces for the application's entry points
// (primary/inbound ports).
package driving

import (
	"context"

	"github.com/custodia-labs/ragbroker/internal/core/domain"
	"github.com/custodia-labs/ragbroker/internal/core/ports/driven"
)

// RetrievalBroker unifies the local and shared document stores behind one
// API. Every operation takes a scope that selects the dispatch target; the
// two scopes stay strictly isolated.
//
// Failure policy is asymmetric. Operations that gate a correct answer
// (add, delete, anything local) propagate their errors. Operations that only
// enrich from a possibly-absent teammate (shared search and list) degrade to
// empty results, and Statistics always returns a value so operators can see
// reachability.
type RetrievalBroker interface {
	// Add indexes a document under the given scope and returns the chunk
	// count the backing store reported. A shared-scope transport failure
	// surfaces as a domain.RemoteError with kind unavailable, never as a
	// silent zero.
	Add(ctx context.Context, scope domain.Scope, req driven.IndexRequest) (int, error)

	// Search returns up to k hits from one scope, highest similarity first.
	// k <= 0 selects domain.DefaultSearchK. Shared-scope failures degrade to
	// an empty list; local-scope failures propagate.
	Search(ctx context.Context, scope domain.Scope, query string, k int, filter domain.SearchFilter) ([]domain.SearchHit, error)

	// Delete removes a document from one scope. Returns false when the
	// identifier does not exist there; transport failures propagate.
	Delete(ctx context.Context, scope domain.Scope, documentID string) (bool, error)

	// List returns document summaries for one scope. Shared-scope transport
	// failures degrade to an empty list.
	List(ctx context.Context, scope domain.Scope) ([]domain.DocumentSummary, error)

	// Statistics reports one scope's health object. Never returns an error:
	// an unreachable peer yields {"status": "unreachable", "detail": ...}.
	Statistics(ctx context.Context, scope domain.Scope) domain.IndexStats

	// Close releases both backends.
	Close() error
}
