package driven

import (
	"context"

	"github.com/chembase-labs/chemsearch/internal/core/domain"
)

// CompoundStore is the primary store: durable keyed storage with
// filterable, sortable, paginated listing. Backed by SQLite.
//
// Absent rows are reported as domain.ErrNotFound; connectivity and
// timeout failures wrap domain.ErrStoreUnavailable so callers can
// distinguish an outage from an empty result.
type CompoundStore interface {
	// GetByCID retrieves a compound by its external identifier.
	GetByCID(ctx context.Context, cid int64) (*domain.Compound, error)

	// GetByID retrieves a compound by its surrogate key.
	GetByID(ctx context.Context, id int64) (*domain.Compound, error)

	// Create stores a compound. Idempotent at the CID level: when a row
	// with the same CID already exists, the stored row is returned
	// unchanged and no write occurs.
	Create(ctx context.Context, compound *domain.Compound) (*domain.Compound, error)

	// CreateBatch writes several compounds in one transaction. Rows whose
	// CID already exists are skipped, not overwritten; callers that have
	// deduplicated upstream pay no per-row existence check. Returns the
	// number of rows actually inserted.
	CreateBatch(ctx context.Context, compounds []*domain.Compound) (int, error)

	// List returns compounds in primary-key order.
	List(ctx context.Context, limit, offset int) ([]domain.Compound, error)

	// Count returns the total number of stored compounds.
	Count(ctx context.Context) (int, error)

	// MarkProcessed records that the compound's denormalised copy has
	// been written to the vector store.
	MarkProcessed(ctx context.Context, cid int64) error

	// ListUnprocessed returns compounds whose vector-store write is
	// still outstanding, for the reconciliation pass.
	ListUnprocessed(ctx context.Context, limit int) ([]domain.Compound, error)

	// Search performs keyword search: case-insensitive substring match
	// across name, description and formula, plus weight-bucket and
	// chemical-class filters, sorted and paginated. TotalResults on the
	// response reflects the filtered, pre-pagination count.
	Search(ctx context.Context, query domain.SearchQuery) (*domain.SearchResponse, error)

	// Close releases the underlying connection.
	Close() error
}
