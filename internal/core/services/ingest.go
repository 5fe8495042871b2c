package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/chembase-labs/chemsearch/internal/core/domain"
	"github.com/chembase-labs/chemsearch/internal/core/ports/driven"
	"github.com/chembase-labs/chemsearch/internal/core/ports/driving"
	"github.com/chembase-labs/chemsearch/internal/logger"
	"github.com/chembase-labs/chemsearch/internal/normalizer"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// DefaultBatchSize bounds per-batch memory and the concurrent fan-out
// window against both backends.
const DefaultBatchSize = 100

// IngestService is the bulk loader: it walks compound JSON files,
// normalises each record, deduplicates against the primary store and
// writes to both backends in bounded concurrent batches.
//
// Write order is primary store first, then vector store. The vector
// copy is self-contained and does not strictly need the primary row,
// but writing the system of record first means a crash leaves an
// unprocessed row to reconcile rather than an orphaned vector.
type IngestService struct {
	store     driven.CompoundStore
	vectors   driven.VectorStore
	fetcher   driven.CompoundFetcher
	batchSize int

	mu   sync.RWMutex
	jobs map[string]*domain.IngestJob
}

// NewIngestService creates a bulk loader. The fetcher is optional and
// only needed for FetchOne. batchSize <= 0 selects DefaultBatchSize.
func NewIngestService(
	store driven.CompoundStore,
	vectors driven.VectorStore,
	fetcher driven.CompoundFetcher,
	batchSize int,
) *IngestService {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &IngestService{
		store:     store,
		vectors:   vectors,
		fetcher:   fetcher,
		batchSize: batchSize,
		jobs:      make(map[string]*domain.IngestJob),
	}
}

// LoadPath ingests a file or directory of compound JSON into both
// stores, up to limit records (0 means no limit). Returns the number
// of records fully ingested. Per-record failures are logged, counted
// on the job record and never abort the load.
func (s *IngestService) LoadPath(ctx context.Context, path string, limit int) (int, error) {
	logger.Section("Bulk Load")
	logger.Info("Loading %s (limit %d, batch size %d)", path, limit, s.batchSize)

	records, err := collectRecords(path, limit)
	if err != nil {
		return 0, err
	}
	logger.Debug("Collected %d candidate records", len(records))

	job := s.startJob(path)
	defer s.finishJob(job)

	// Batches run sequentially; records within a batch fan out
	// concurrently. The gap between batches is the stop checkpoint.
	for start := 0; start < len(records); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			s.failJob(job)
			return s.jobIngested(job), err
		}

		end := start + s.batchSize
		if end > len(records) {
			end = len(records)
		}
		s.processBatch(ctx, job, records[start:end])
	}

	ingested := s.jobIngested(job)
	logger.Info("Load complete: %d ingested, %d skipped, %d failed",
		ingested, s.jobCount(job, jobSkipped), s.jobCount(job, jobFailed))
	return ingested, nil
}

// processBatch runs one bounded fan-out: normalise and deduplicate
// every record concurrently, flush the survivors through the primary
// store's batch insert, then denormalise them into the vector store.
func (s *IngestService) processBatch(ctx context.Context, job *domain.IngestJob, batch []json.RawMessage) {
	// Phase 1: normalise + dedupe against the primary store. This is
	// the duplicate-prevention boundary: already-ingested CIDs are
	// skipped here so the vector store sees no redundant writes.
	type slot struct {
		compound *domain.Compound
	}
	slots := make([]slot, len(batch))

	var wg sync.WaitGroup
	for i := range batch {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.bumpJob(job, jobProcessed)

			compound, err := normalizer.Normalize(batch[i])
			if err != nil {
				logger.Warn("Skipping record: %v", err)
				s.bumpJob(job, jobFailed)
				return
			}

			existing, err := s.getByCID(ctx, compound.CID)
			if err == nil && existing != nil {
				logger.Debug("CID %d already ingested, skipping", compound.CID)
				s.bumpJob(job, jobSkipped)
				return
			}
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				logger.Warn("Existence check failed for CID %d: %v", compound.CID, err)
				s.bumpJob(job, jobFailed)
				return
			}
			slots[i] = slot{compound: compound}
		}(i)
	}
	wg.Wait()

	// Collapse duplicates within the batch; first occurrence wins.
	seen := make(map[int64]bool)
	compounds := make([]*domain.Compound, 0, len(slots))
	for _, sl := range slots {
		if sl.compound == nil {
			continue
		}
		if seen[sl.compound.CID] {
			s.bumpJob(job, jobSkipped)
			continue
		}
		seen[sl.compound.CID] = true
		compounds = append(compounds, sl.compound)
	}
	if len(compounds) == 0 {
		return
	}

	// Phase 2: primary store first. The batch is already deduplicated,
	// which is exactly the assumption CreateBatch documents.
	if _, err := s.createBatch(ctx, compounds); err != nil {
		logger.Warn("Batch insert failed, %d records lost from this batch: %v", len(compounds), err)
		s.addJob(job, jobFailed, len(compounds))
		return
	}

	// Phase 3: vector store. A failed vector write is a logged,
	// non-fatal partial ingestion; the row stays unprocessed for the
	// reconciliation pass.
	wg = sync.WaitGroup{}
	for _, compound := range compounds {
		wg.Add(1)
		go func(compound *domain.Compound) {
			defer wg.Done()
			if err := s.vectorize(ctx, compound); err != nil {
				logger.Warn("Partial ingestion for CID %d (primary row written, vector write failed): %v",
					compound.CID, err)
				s.bumpJob(job, jobFailed)
				return
			}
			s.bumpJob(job, jobIngested)
		}(compound)
	}
	wg.Wait()
}

// FetchOne downloads a single compound from the upstream database,
// normalises it and ingests it through the regular per-record pipeline.
func (s *IngestService) FetchOne(ctx context.Context, cid int64) (*domain.Compound, error) {
	if s.fetcher == nil {
		return nil, errors.New("compound fetcher not configured")
	}

	raw, err := s.fetcher.Fetch(ctx, cid)
	if err != nil {
		return nil, fmt.Errorf("fetch CID %d: %w", cid, err)
	}

	compound, err := normalizer.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("normalise CID %d: %w", cid, err)
	}

	return s.ingestOne(ctx, compound)
}

// ingestOne runs the single-record pipeline: check-exists, write
// primary, write vector, mark processed.
func (s *IngestService) ingestOne(ctx context.Context, compound *domain.Compound) (*domain.Compound, error) {
	existing, err := s.getByCID(ctx, compound.CID)
	if err == nil {
		logger.Debug("CID %d already ingested", compound.CID)
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	stored, err := s.create(ctx, compound)
	if err != nil {
		return nil, fmt.Errorf("store CID %d: %w", compound.CID, err)
	}

	if err := s.vectorize(ctx, stored); err != nil {
		logger.Warn("Partial ingestion for CID %d (primary row written, vector write failed): %v",
			compound.CID, err)
		return stored, nil
	}
	stored.IsProcessed = true
	return stored, nil
}

// Reconcile re-upserts rows whose vector-store write failed earlier,
// closing the IsProcessed gap left by partial ingestion.
func (s *IngestService) Reconcile(ctx context.Context) (int, error) {
	recovered := 0
	for {
		pending, err := s.store.ListUnprocessed(ctx, s.batchSize)
		if err != nil {
			return recovered, fmt.Errorf("list unprocessed: %w", err)
		}
		if len(pending) == 0 {
			return recovered, nil
		}

		progressed := false
		for i := range pending {
			if err := ctx.Err(); err != nil {
				return recovered, err
			}
			if err := s.vectorize(ctx, &pending[i]); err != nil {
				logger.Warn("Reconcile failed for CID %d: %v", pending[i].CID, err)
				continue
			}
			recovered++
			progressed = true
		}
		if !progressed {
			// Nothing moved; the vector store is likely still down.
			return recovered, nil
		}
	}
}

// Watch ingests .json files as they appear in dir, until ctx is
// cancelled.
func (s *IngestService) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Info("Watching %s for compound files", dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".json") {
				continue
			}
			logger.Debug("Watched file event: %s", event.Name)
			if _, err := s.LoadPath(ctx, event.Name, 0); err != nil {
				logger.Warn("Failed to ingest %s: %v", event.Name, err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// Job returns the progress record for a load, if known.
func (s *IngestService) Job(id string) (*domain.IngestJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	copied := *job
	return &copied, true
}

// Jobs lists progress records for all loads this process has run.
func (s *IngestService) Jobs() []domain.IngestJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.IngestJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, *job)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// ==================== job bookkeeping ====================

type jobCounter int

const (
	jobProcessed jobCounter = iota
	jobIngested
	jobSkipped
	jobFailed
)

func (s *IngestService) startJob(path string) *domain.IngestJob {
	job := &domain.IngestJob{
		ID:        uuid.New().String(),
		Path:      path,
		Status:    domain.JobRunning,
		StartedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return job
}

func (s *IngestService) finishJob(job *domain.IngestJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.Status == domain.JobRunning {
		job.Status = domain.JobCompleted
	}
	job.CompletedAt = time.Now().UTC()
}

func (s *IngestService) failJob(job *domain.IngestJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job.Status = domain.JobFailed
}

func (s *IngestService) bumpJob(job *domain.IngestJob, counter jobCounter) {
	s.addJob(job, counter, 1)
}

func (s *IngestService) addJob(job *domain.IngestJob, counter jobCounter, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch counter {
	case jobProcessed:
		job.Processed += n
	case jobIngested:
		job.Ingested += n
	case jobSkipped:
		job.Skipped += n
	case jobFailed:
		job.Failed += n
	}
}

func (s *IngestService) jobIngested(job *domain.IngestJob) int {
	return s.jobCount(job, jobIngested)
}

func (s *IngestService) jobCount(job *domain.IngestJob, counter jobCounter) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch counter {
	case jobProcessed:
		return job.Processed
	case jobIngested:
		return job.Ingested
	case jobSkipped:
		return job.Skipped
	default:
		return job.Failed
	}
}

// ==================== store call helpers ====================

func (s *IngestService) getByCID(ctx context.Context, cid int64) (*domain.Compound, error) {
	ctx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()
	return s.store.GetByCID(ctx, cid)
}

func (s *IngestService) create(ctx context.Context, compound *domain.Compound) (*domain.Compound, error) {
	ctx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()
	return s.store.Create(ctx, compound)
}

func (s *IngestService) createBatch(ctx context.Context, compounds []*domain.Compound) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()
	return s.store.CreateBatch(ctx, compounds)
}

// vectorize writes the denormalised copy and marks the primary row
// processed.
func (s *IngestService) vectorize(ctx context.Context, compound *domain.Compound) error {
	upsertCtx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()
	if err := s.vectors.Upsert(upsertCtx, compound); err != nil {
		return err
	}

	markCtx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()
	if err := s.store.MarkProcessed(markCtx, compound.CID); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	compound.IsProcessed = true
	return nil
}

// ==================== file walking ====================

// collectRecords reads a file or directory into individual candidate
// records. Array-valued files contribute one candidate per element.
func collectRecords(path string, limit int) ([]json.RawMessage, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	var files []string
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("read directory %s: %w", path, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
				continue
			}
			files = append(files, filepath.Join(path, entry.Name()))
		}
		sort.Strings(files)
	} else {
		files = []string{path}
	}

	var records []json.RawMessage
	for _, file := range files {
		fileRecords, err := readRecords(file)
		if err != nil {
			// A malformed file is a per-file failure, not a batch failure.
			logger.Warn("Skipping %s: %v", file, err)
			continue
		}
		records = append(records, fileRecords...)
		if limit > 0 && len(records) >= limit {
			return records[:limit], nil
		}
	}
	return records, nil
}

// readRecords parses one file into candidate records: a JSON array
// yields one candidate per element, anything else is one candidate.
func readRecords(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("parse JSON array: %w", err)
		}
		return items, nil
	}

	var item json.RawMessage
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	return []json.RawMessage{item}, nil
}
