package cli

import (
	"context"
	"fmt"

	"github.com/chembase-labs/chemsearch/internal/core/domain"
	"github.com/chembase-labs/chemsearch/internal/core/ports/driven"
)

// unavailableVectorStore stands in when the vector store failed to
// open. Every call reports unavailability so the search coordinator
// downgrades to keyword search and ingestion leaves rows unprocessed
// for a later reconcile.
type unavailableVectorStore struct{}

var _ driven.VectorStore = unavailableVectorStore{}

func (unavailableVectorStore) Upsert(context.Context, *domain.Compound) error {
	return fmt.Errorf("vector store not open: %w", domain.ErrStoreUnavailable)
}

func (unavailableVectorStore) GetByCID(context.Context, int64) (*domain.Compound, error) {
	return nil, fmt.Errorf("vector store not open: %w", domain.ErrStoreUnavailable)
}

func (unavailableVectorStore) Search(context.Context, domain.SearchQuery) (*domain.SearchResponse, error) {
	return nil, fmt.Errorf("vector store not open: %w", domain.ErrStoreUnavailable)
}

func (unavailableVectorStore) Close() error { return nil }
