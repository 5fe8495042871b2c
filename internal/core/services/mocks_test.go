package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/chembase-labs/chemsearch/internal/core/domain"
	"github.com/chembase-labs/chemsearch/internal/core/ports/driven"
)

// fakeCompoundStore is an in-memory CompoundStore with error injection.
type fakeCompoundStore struct {
	mu        sync.Mutex
	nextID    int64
	compounds map[int64]*domain.Compound

	failAll    bool // every call reports ErrStoreUnavailable
	searchResp *domain.SearchResponse
}

var _ driven.CompoundStore = (*fakeCompoundStore)(nil)

func newFakeCompoundStore() *fakeCompoundStore {
	return &fakeCompoundStore{compounds: make(map[int64]*domain.Compound)}
}

func (f *fakeCompoundStore) outage(op string) error {
	return fmt.Errorf("%s: %w", op, domain.ErrStoreUnavailable)
}

func (f *fakeCompoundStore) GetByCID(_ context.Context, cid int64) (*domain.Compound, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, f.outage("get")
	}
	c, ok := f.compounds[cid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCompoundStore) GetByID(_ context.Context, id int64) (*domain.Compound, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, f.outage("get")
	}
	for _, c := range f.compounds {
		if c.ID == id {
			copied := *c
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeCompoundStore) Create(_ context.Context, compound *domain.Compound) (*domain.Compound, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, f.outage("create")
	}
	if existing, ok := f.compounds[compound.CID]; ok {
		copied := *existing
		return &copied, nil
	}
	f.nextID++
	stored := *compound
	stored.ID = f.nextID
	f.compounds[compound.CID] = &stored
	copied := stored
	return &copied, nil
}

func (f *fakeCompoundStore) CreateBatch(_ context.Context, compounds []*domain.Compound) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return 0, f.outage("create batch")
	}
	inserted := 0
	for _, compound := range compounds {
		if _, ok := f.compounds[compound.CID]; ok {
			continue
		}
		f.nextID++
		stored := *compound
		stored.ID = f.nextID
		f.compounds[compound.CID] = &stored
		inserted++
	}
	return inserted, nil
}

func (f *fakeCompoundStore) List(_ context.Context, limit, offset int) ([]domain.Compound, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, f.outage("list")
	}
	all := f.sortedLocked()
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (f *fakeCompoundStore) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return 0, f.outage("count")
	}
	return len(f.compounds), nil
}

func (f *fakeCompoundStore) MarkProcessed(_ context.Context, cid int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return f.outage("mark processed")
	}
	c, ok := f.compounds[cid]
	if !ok {
		return domain.ErrNotFound
	}
	c.IsProcessed = true
	return nil
}

func (f *fakeCompoundStore) ListUnprocessed(_ context.Context, limit int) ([]domain.Compound, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, f.outage("list unprocessed")
	}
	var out []domain.Compound
	for _, c := range f.sortedLocked() {
		if c.IsProcessed {
			continue
		}
		out = append(out, c)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeCompoundStore) Search(_ context.Context, query domain.SearchQuery) (*domain.SearchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, f.outage("search")
	}
	if f.searchResp != nil {
		resp := *f.searchResp
		resp.SearchType = domain.SearchTypeKeyword
		return &resp, nil
	}

	var results []domain.CompoundSearchResult
	needle := strings.ToLower(query.Query)
	for _, c := range f.sortedLocked() {
		haystack := strings.ToLower(c.Name + " " + c.Description + " " + c.Formula)
		if needle != "" && !strings.Contains(haystack, needle) {
			continue
		}
		if !query.MolecularWeight.Contains(c.MolecularWeight) {
			continue
		}
		results = append(results, c.ToSearchResult())
	}
	return &domain.SearchResponse{
		Results:      results,
		TotalResults: len(results),
		Page:         query.Page,
		TotalPages:   domain.TotalPages(len(results), query.Limit),
		Query:        query.Query,
		SearchType:   domain.SearchTypeKeyword,
	}, nil
}

func (f *fakeCompoundStore) Close() error { return nil }

func (f *fakeCompoundStore) sortedLocked() []domain.Compound {
	out := make([]domain.Compound, 0, len(f.compounds))
	for _, c := range f.compounds {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// fakeVectorStore is an in-memory VectorStore with error injection.
type fakeVectorStore struct {
	mu        sync.Mutex
	compounds map[int64]*domain.Compound

	failAll    bool
	upserts    int
	searchResp *domain.SearchResponse
}

var _ driven.VectorStore = (*fakeVectorStore)(nil)

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{compounds: make(map[int64]*domain.Compound)}
}

func (f *fakeVectorStore) outage(op string) error {
	return fmt.Errorf("%s: %w", op, domain.ErrStoreUnavailable)
}

func (f *fakeVectorStore) Upsert(_ context.Context, compound *domain.Compound) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return f.outage("upsert")
	}
	copied := *compound
	f.compounds[compound.CID] = &copied
	f.upserts++
	return nil
}

func (f *fakeVectorStore) GetByCID(_ context.Context, cid int64) (*domain.Compound, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, f.outage("get")
	}
	c, ok := f.compounds[cid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakeVectorStore) Search(_ context.Context, query domain.SearchQuery) (*domain.SearchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, f.outage("search")
	}
	if f.searchResp != nil {
		resp := *f.searchResp
		resp.SearchType = domain.SearchTypeSemantic
		return &resp, nil
	}
	var results []domain.CompoundSearchResult
	for _, c := range f.compounds {
		if !query.MolecularWeight.Contains(c.MolecularWeight) {
			continue
		}
		results = append(results, c.ToSearchResult())
	}
	sort.Slice(results, func(i, j int) bool { return results[i].CID < results[j].CID })
	return &domain.SearchResponse{
		Results:      results,
		TotalResults: len(results),
		Page:         query.Page,
		TotalPages:   domain.TotalPages(len(results), query.Limit),
		Query:        query.Query,
		SearchType:   domain.SearchTypeSemantic,
	}, nil
}

func (f *fakeVectorStore) Close() error { return nil }

func (f *fakeVectorStore) upsertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upserts
}

// fakeFetcher serves canned upstream payloads by CID.
type fakeFetcher struct {
	payloads map[int64]string
}

var _ driven.CompoundFetcher = (*fakeFetcher)(nil)

func (f *fakeFetcher) Fetch(_ context.Context, cid int64) (json.RawMessage, error) {
	payload, ok := f.payloads[cid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return json.RawMessage(payload), nil
}
