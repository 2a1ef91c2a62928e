// Package services contains the application's core logic: scope routing,
// the ingestion pipeline and chat answering.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/ragbroker/internal/core/domain"
	"github.com/custodia-labs/ragbroker/internal/core/ports/driven"
	"github.com/custodia-labs/ragbroker/internal/core/ports/driving"
	"github.com/custodia-labs/ragbroker/internal/logger"
)

// Ensure Broker implements the interface.
var _ driving.RetrievalBroker = (*Broker)(nil)

// startupProbeTimeout bounds the non-fatal peer reachability check.
const startupProbeTimeout = 3 * time.Second

// Broker routes operations to the local index or the shared peer by scope.
// Both backends satisfy the same contract so routing is a lookup, not a
// conditional per operation.
type Broker struct {
	local  driven.DocumentIndex
	shared driven.DocumentIndex
	log    *logger.Logger
}

// NewBroker creates a broker over the two backends. The peer is probed once
// at startup; an unreachable peer is logged and the broker starts anyway,
// since shared reads degrade and the peer may come up later.
func NewBroker(local, shared driven.DocumentIndex, log *logger.Logger) *Broker {
	if log == nil {
		log = logger.NewNop()
	}
	b := &Broker{
		local:  local,
		shared: shared,
		log:    log,
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupProbeTimeout)
	defer cancel()
	if _, err := shared.Stats(ctx); err != nil {
		b.log.Warn("shared peer not reachable at startup, continuing", "error", err)
	}

	return b
}

// backendFor resolves the dispatch target for a scope.
func (b *Broker) backendFor(scope domain.Scope) (driven.DocumentIndex, error) {
	switch scope {
	case domain.ScopeLocal:
		return b.local, nil
	case domain.ScopeShared:
		return b.shared, nil
	default:
		return nil, fmt.Errorf("%w: scope %q", domain.ErrInvalidScope, scope)
	}
}

// Add indexes a document under one scope. Errors propagate for both scopes;
// a write that did not happen must never look like a write that did.
func (b *Broker) Add(ctx context.Context, scope domain.Scope, req driven.IndexRequest) (int, error) {
	backend, err := b.backendFor(scope)
	if err != nil {
		return 0, err
	}

	count, err := backend.Add(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("adding to %s scope: %w", scope, err)
	}
	return count, nil
}

// Search queries one scope. Any shared peer failure degrades to an empty
// result, whether the peer was unreachable or answered with an error status,
// so a broken teammate never blocks an answer. Local failures propagate.
func (b *Broker) Search(ctx context.Context, scope domain.Scope, query string, k int, filter domain.SearchFilter) ([]domain.SearchHit, error) {
	backend, err := b.backendFor(scope)
	if err != nil {
		return nil, err
	}

	hits, err := backend.Search(ctx, query, k, filter)
	if err != nil {
		var remoteErr *domain.RemoteError
		if scope == domain.ScopeShared && errors.As(err, &remoteErr) {
			b.log.Warn("shared search degraded to empty", "kind", string(remoteErr.Kind), "error", err)
			return []domain.SearchHit{}, nil
		}
		return nil, fmt.Errorf("searching %s scope: %w", scope, err)
	}
	return hits, nil
}

// Delete removes a document from one scope. An absent identifier is false,
// not an error; transport failures propagate so the caller knows the delete
// did not happen.
func (b *Broker) Delete(ctx context.Context, scope domain.Scope, documentID string) (bool, error) {
	backend, err := b.backendFor(scope)
	if err != nil {
		return false, err
	}

	deleted, err := backend.Delete(ctx, documentID)
	if err != nil {
		return false, fmt.Errorf("deleting from %s scope: %w", scope, err)
	}
	return deleted, nil
}

// List returns one scope's summaries, degrading an unreachable peer to
// empty.
func (b *Broker) List(ctx context.Context, scope domain.Scope) ([]domain.DocumentSummary, error) {
	backend, err := b.backendFor(scope)
	if err != nil {
		return nil, err
	}

	docs, err := backend.List(ctx)
	if err != nil {
		if scope == domain.ScopeShared && domain.IsRemoteUnavailable(err) {
			b.log.Warn("shared list degraded to empty", "error", err)
			return []domain.DocumentSummary{}, nil
		}
		return nil, fmt.Errorf("listing %s scope: %w", scope, err)
	}
	return docs, nil
}

// Statistics reports one scope's health object. It never returns an error;
// this operation exists to surface reachability, so failure is data.
func (b *Broker) Statistics(ctx context.Context, scope domain.Scope) domain.IndexStats {
	backend, err := b.backendFor(scope)
	if err != nil {
		return domain.UnreachableStats(err.Error())
	}

	stats, err := backend.Stats(ctx)
	if err != nil {
		var remoteErr *domain.RemoteError
		if errors.As(err, &remoteErr) {
			return domain.UnreachableStats(remoteErr.Error())
		}
		return domain.UnreachableStats(err.Error())
	}
	return stats
}

// Close releases both backends.
func (b *Broker) Close() error {
	localErr := b.local.Close()
	sharedErr := b.shared.Close()
	if localErr != nil {
		return localErr
	}
	return sharedErr
}
