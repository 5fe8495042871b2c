// Package domain holds the core business entities and rules for
// chemsearch: the canonical Compound record, search query/response
// shapes, ingest job tracking and domain error values.
//
// The package has no dependencies on adapters or infrastructure.
package domain
