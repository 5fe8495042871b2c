package driven

import (
	"context"

	"github.com/chembase-labs/chemsearch/internal/core/domain"
)

// VectorStore holds the denormalised compound projection with an
// attached vector, supporting nearest-neighbour search plus the same
// structured filters as the primary store.
//
// The copy is self-contained and may lag or diverge from the primary
// store; it is never the system of record. Unavailability surfaces as a
// domain.ErrStoreUnavailable-wrapped error - the search coordinator
// owns the decision to fall back to keyword search.
type VectorStore interface {
	// Upsert writes or overwrites the denormalised projection for a
	// compound, attaching its embedding. When no live embedding provider
	// is configured a deterministic fallback vector is attached and the
	// degraded path is logged.
	Upsert(ctx context.Context, compound *domain.Compound) error

	// GetByCID retrieves the denormalised copy of a compound.
	GetByCID(ctx context.Context, cid int64) (*domain.Compound, error)

	// Search performs semantic retrieval with structured filters. With a
	// live embedder, results carry cosine similarity on a 0-1 scale;
	// without one, results are filter-only and carry no similarity.
	Search(ctx context.Context, query domain.SearchQuery) (*domain.SearchResponse, error)

	// Close releases the underlying connection.
	Close() error
}
