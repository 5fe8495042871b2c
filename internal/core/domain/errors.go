package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	// Point lookups return it instead of a nil row; it is not an outage.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input at a boundary.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnrecognizedFormat indicates a record matched none of the known
	// upstream compound shapes. Always per-record, never fatal to a batch.
	ErrUnrecognizedFormat = errors.New("unrecognized compound format")

	// ErrMissingCID indicates a record in a recognised shape carried no
	// compound identifier. Per-record fatal.
	ErrMissingCID = errors.New("missing CID")

	// ErrStoreUnavailable indicates a backend could not be reached
	// (connectivity, auth, or timeout). Distinguished from ErrNotFound so
	// the search coordinator can apply its fallback policy.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrEmbeddingUnavailable indicates the embedding provider is not
	// configured or not reachable. Semantic ranking degrades to
	// filter-only results.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)
