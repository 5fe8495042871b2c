package services

import (
	"context"
	"fmt"

	"github.com/chembase-labs/chemsearch/internal/core/domain"
	"github.com/chembase-labs/chemsearch/internal/core/ports/driven"
	"github.com/chembase-labs/chemsearch/internal/core/ports/driving"
	"github.com/chembase-labs/chemsearch/internal/logger"
)

// Ensure CompoundService implements the interface.
var _ driving.CompoundService = (*CompoundService)(nil)

// CompoundService is the read facade exposed to the CLI layer: point
// lookups and listing against the primary store, search through the
// coordinator, and idempotent initialisation.
type CompoundService struct {
	store       driven.CompoundStore
	coordinator *SearchCoordinator
	ingestor    driving.Ingestor

	// seedDir, when set, is loaded by Initialize if the store is empty.
	seedDir   string
	seedLimit int
}

// NewCompoundService creates the compound read facade. The ingestor is
// only used for seed loading and may be nil when no seed directory is
// configured.
func NewCompoundService(
	store driven.CompoundStore,
	coordinator *SearchCoordinator,
	ingestor driving.Ingestor,
	seedDir string,
	seedLimit int,
) *CompoundService {
	return &CompoundService{
		store:       store,
		coordinator: coordinator,
		ingestor:    ingestor,
		seedDir:     seedDir,
		seedLimit:   seedLimit,
	}
}

// Get retrieves a compound by its external identifier.
// Primary-store outages propagate; there is no in-memory fallback.
func (s *CompoundService) Get(ctx context.Context, cid int64) (*domain.Compound, error) {
	ctx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()
	return s.store.GetByCID(ctx, cid)
}

// GetByID retrieves a compound by its surrogate key.
func (s *CompoundService) GetByID(ctx context.Context, id int64) (*domain.Compound, error) {
	ctx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()
	return s.store.GetByID(ctx, id)
}

// List returns compounds in primary-key order.
func (s *CompoundService) List(ctx context.Context, limit, offset int) ([]domain.Compound, error) {
	ctx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()
	return s.store.List(ctx, limit, offset)
}

// Search answers a search request through the coordinator.
func (s *CompoundService) Search(ctx context.Context, query domain.SearchQuery) (*domain.SearchResponse, error) {
	return s.coordinator.Search(ctx, query)
}

// Initialize is idempotent. Backend schemas are provisioned when the
// stores open; this loads the configured seed batch if the primary
// store is still empty. A failed seed load degrades startup rather
// than aborting it: the first real operation against the unavailable
// backend fails explicitly.
func (s *CompoundService) Initialize(ctx context.Context) error {
	countCtx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()

	count, err := s.store.Count(countCtx)
	if err != nil {
		return fmt.Errorf("count compounds: %w", err)
	}
	if count > 0 {
		logger.Debug("Store already holds %d compounds, skipping seed", count)
		return nil
	}
	if s.seedDir == "" || s.ingestor == nil {
		logger.Debug("No seed directory configured")
		return nil
	}

	logger.Info("Empty store, loading seed batch from %s", s.seedDir)
	ingested, err := s.ingestor.LoadPath(ctx, s.seedDir, s.seedLimit)
	if err != nil {
		logger.Warn("Seed load failed (continuing in degraded mode): %v", err)
		return nil
	}
	logger.Info("Seed load complete: %d compounds", ingested)
	return nil
}
