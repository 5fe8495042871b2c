package domain

import "time"

// JobStatus is the lifecycle state of an ingest job.
type JobStatus string

const (
	// JobRunning means the job is still processing records.
	JobRunning JobStatus = "running"

	// JobCompleted means the job finished, possibly with per-record failures.
	JobCompleted JobStatus = "completed"

	// JobFailed means the job aborted before processing all records.
	JobFailed JobStatus = "failed"
)

// IngestJob is the pollable progress record for a bulk load.
// Long-running ingestion runs as an explicit job rather than
// fire-and-forget, so callers can observe counts and completion.
type IngestJob struct {
	// ID is the job identifier (UUID).
	ID string

	// Path is the file or directory being ingested.
	Path string

	// Status is the current lifecycle state.
	Status JobStatus

	// Processed counts records taken from input files.
	Processed int

	// Ingested counts records fully written to both stores.
	Ingested int

	// Skipped counts records already present (duplicate CID).
	Skipped int

	// Failed counts records rejected by normalisation or a store write.
	Failed int

	// StartedAt and CompletedAt bound the job's run.
	StartedAt   time.Time
	CompletedAt time.Time
}
