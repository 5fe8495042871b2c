package driving

import (
	"context"

	"github.com/chembase-labs/chemsearch/internal/core/domain"
)

// CompoundService is the read surface exposed to the CLI layer.
type CompoundService interface {
	// Get retrieves a compound by its external identifier.
	Get(ctx context.Context, cid int64) (*domain.Compound, error)

	// GetByID retrieves a compound by its surrogate key.
	GetByID(ctx context.Context, id int64) (*domain.Compound, error)

	// List returns compounds in primary-key order.
	List(ctx context.Context, limit, offset int) ([]domain.Compound, error)

	// Search answers a search request from whichever backend the
	// coordinator selects.
	Search(ctx context.Context, query domain.SearchQuery) (*domain.SearchResponse, error)

	// Initialize is idempotent: backend schemas are provisioned at store
	// open; when the primary store is empty and a seed directory is
	// configured, a small seed batch is loaded.
	Initialize(ctx context.Context) error
}

// Ingestor is the write surface for bulk loading.
type Ingestor interface {
	// LoadPath ingests a file or directory of compound JSON into both
	// stores, up to limit records (0 means no limit). Returns the number
	// of records fully ingested.
	LoadPath(ctx context.Context, path string, limit int) (int, error)

	// FetchOne downloads a single compound from the upstream database,
	// normalises it and ingests it.
	FetchOne(ctx context.Context, cid int64) (*domain.Compound, error)

	// Reconcile re-upserts rows whose vector-store write failed earlier.
	Reconcile(ctx context.Context) (int, error)

	// Watch ingests .json files as they appear in dir, until ctx is
	// cancelled.
	Watch(ctx context.Context, dir string) error

	// Job returns the progress record for a load, if known.
	Job(id string) (*domain.IngestJob, bool)

	// Jobs lists progress records for all loads this process has run.
	Jobs() []domain.IngestJob
}
