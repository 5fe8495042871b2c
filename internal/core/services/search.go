package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/chembase-labs/chemsearch/internal/core/domain"
	"github.com/chembase-labs/chemsearch/internal/core/ports/driven"
	"github.com/chembase-labs/chemsearch/internal/logger"
)

// storeCallTimeout bounds every outbound backend call so a hung
// connection becomes a fallback-eligible failure instead of a stall.
const storeCallTimeout = 15 * time.Second

// SearchCoordinator is the single search entry point. It routes a
// request to the keyword (primary store) or semantic (vector store)
// backend, applies cross-cutting filters and sorting the backend did
// not, fixes up pagination metadata, and hides which backend answered.
type SearchCoordinator struct {
	store   driven.CompoundStore
	vectors driven.VectorStore
}

// NewSearchCoordinator creates a search coordinator over both backends.
func NewSearchCoordinator(store driven.CompoundStore, vectors driven.VectorStore) *SearchCoordinator {
	return &SearchCoordinator{
		store:   store,
		vectors: vectors,
	}
}

// Search answers a search request.
//
// Semantic requests that hit an unavailable vector store downgrade to
// keyword search for that request; the response's SearchType reports
// the effective mode. Primary-store unavailability is not recoverable:
// an outage surfaces as an error, never as an empty result set.
func (s *SearchCoordinator) Search(ctx context.Context, query domain.SearchQuery) (*domain.SearchResponse, error) {
	query.Normalize()
	if err := query.Validate(); err != nil {
		return nil, err
	}

	logger.Section("Search Execution")
	logger.Debug("Query: %q, type: %s, sort: %s, page: %d, limit: %d",
		query.Query, query.SearchType, query.Sort, query.Page, query.Limit)

	var response *domain.SearchResponse

	if query.SearchType == domain.SearchTypeSemantic {
		resp, err := s.semanticSearch(ctx, query)
		switch {
		case err == nil:
			response = resp
		case errors.Is(err, domain.ErrStoreUnavailable):
			logger.Warn("Vector store unavailable, downgrading to keyword search: %v", err)
			query.SearchType = domain.SearchTypeKeyword
		default:
			return nil, fmt.Errorf("semantic search: %w", err)
		}
	}

	if query.SearchType == domain.SearchTypeKeyword {
		resp, err := s.keywordSearch(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("keyword search: %w", err)
		}
		response = resp
	}

	s.postFilter(response, query)
	s.postSort(response, query)
	response.Query = query.Query
	response.Page = query.Page

	logger.Info("Search answered by %s: %d of %d results",
		response.SearchType, len(response.Results), response.TotalResults)
	return response, nil
}

func (s *SearchCoordinator) semanticSearch(ctx context.Context, query domain.SearchQuery) (*domain.SearchResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()
	return s.vectors.Search(ctx, query)
}

func (s *SearchCoordinator) keywordSearch(ctx context.Context, query domain.SearchQuery) (*domain.SearchResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()
	return s.store.Search(ctx, query)
}

// postFilter re-applies the structured filters to the returned page.
// Both backends apply them natively, so this is defence in depth; the
// filters are idempotent. When anything is dropped, the pagination
// metadata is recomputed to stay consistent with the returned set.
func (s *SearchCoordinator) postFilter(response *domain.SearchResponse, query domain.SearchQuery) {
	filtered := response.Results[:0]
	for i := range response.Results {
		r := &response.Results[i]
		if !query.MolecularWeight.Contains(r.MolecularWeight) {
			continue
		}
		if query.FiltersClass() && !containsLabel(r.ChemicalClass, query.ChemicalClass) {
			continue
		}
		filtered = append(filtered, *r)
	}

	if dropped := len(response.Results) - len(filtered); dropped > 0 {
		logger.Warn("Post-filter dropped %d results the backend should have excluded", dropped)
		response.TotalResults -= dropped
		if response.TotalResults < 0 {
			response.TotalResults = 0
		}
		response.TotalPages = domain.TotalPages(response.TotalResults, query.Limit)
	}
	response.Results = filtered
}

// postSort applies the requested sort when the backend's native order
// differs. Relevance keeps the backend order (similarity rank for
// semantic, primary-key order for keyword). The sort is stable: equal
// keys retain their relative pre-sort order.
func (s *SearchCoordinator) postSort(response *domain.SearchResponse, query domain.SearchQuery) {
	switch query.Sort {
	case domain.SortMolecularWeight:
		sort.SliceStable(response.Results, func(i, j int) bool {
			wi, wj := response.Results[i].MolecularWeight, response.Results[j].MolecularWeight
			if wi == nil {
				return false // unknown weights last
			}
			if wj == nil {
				return true
			}
			return *wi < *wj
		})
	case domain.SortName:
		sort.SliceStable(response.Results, func(i, j int) bool {
			return strings.ToLower(response.Results[i].Name) < strings.ToLower(response.Results[j].Name)
		})
	}
}

func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}
