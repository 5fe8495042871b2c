package domain

import (
	"fmt"
	"strings"
)

// SearchType selects the backend answering a search request.
type SearchType string

const (
	// SearchTypeSemantic routes to the vector store.
	SearchTypeSemantic SearchType = "semantic"

	// SearchTypeKeyword routes to the primary store.
	SearchTypeKeyword SearchType = "keyword"
)

// SortKey orders search results.
type SortKey string

const (
	// SortRelevance keeps the backend's native order: similarity rank
	// for semantic search, primary-key order for keyword search.
	SortRelevance SortKey = "relevance"

	// SortMolecularWeight sorts ascending, unknown weights last.
	SortMolecularWeight SortKey = "molecular_weight"

	// SortName sorts lexicographically ascending, case-insensitive.
	SortName SortKey = "name"
)

// WeightBucket is a coarse molecular-weight filter.
type WeightBucket string

// Weight bucket values. Boundary values belong to the bucket whose range
// is closed on that side: 100 and 200 fall in Bucket100To200, 500 falls
// in Bucket200To500.
const (
	BucketAny      WeightBucket = ""
	BucketLt100    WeightBucket = "lt_100"
	Bucket100To200 WeightBucket = "100-200"
	Bucket200To500 WeightBucket = "200-500"
	BucketGt500    WeightBucket = "gt_500"
)

// Contains reports whether a weight falls in the bucket.
// A nil weight only matches BucketAny.
func (b WeightBucket) Contains(weight *float64) bool {
	if b == BucketAny {
		return true
	}
	if weight == nil {
		return false
	}
	w := *weight
	switch b {
	case BucketLt100:
		return w < 100
	case Bucket100To200:
		return w >= 100 && w <= 200
	case Bucket200To500:
		return w > 200 && w <= 500
	case BucketGt500:
		return w > 500
	default:
		return false
	}
}

// Range returns the numeric bounds of the bucket for backend range
// predicates. A nil bound means unbounded on that side; the inclusive
// flags report whether each present bound is closed.
func (b WeightBucket) Range() (min, max *float64, minInclusive, maxInclusive bool) {
	f := func(v float64) *float64 { return &v }
	switch b {
	case BucketLt100:
		return nil, f(100), false, false
	case Bucket100To200:
		return f(100), f(200), true, true
	case Bucket200To500:
		return f(200), f(500), false, true
	case BucketGt500:
		return f(500), nil, false, false
	default:
		return nil, nil, false, false
	}
}

// Search query defaults and limits.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	// ChemicalClassAll disables the class filter.
	ChemicalClassAll = "all"
)

// SearchQuery is a validated search request.
type SearchQuery struct {
	// Query is the search text. Required for keyword mode; semantic
	// mode accepts an empty query as a pure-filter request.
	Query string

	// SearchType defaults to semantic.
	SearchType SearchType

	// MolecularWeight filters by weight bucket. Empty means no filter.
	MolecularWeight WeightBucket

	// ChemicalClass filters by class label membership. Empty or "all"
	// means no filter.
	ChemicalClass string

	// Sort defaults to relevance.
	Sort SortKey

	// Page is 1-based, default 1.
	Page int

	// Limit is results per page, 1-100, default 10.
	Limit int
}

// Offset returns the row offset implied by Page and Limit.
func (q SearchQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// FiltersClass reports whether the class filter is active.
func (q SearchQuery) FiltersClass() bool {
	return q.ChemicalClass != "" && q.ChemicalClass != ChemicalClassAll
}

// Normalize applies the documented defaults in place.
func (q *SearchQuery) Normalize() {
	if q.SearchType == "" {
		q.SearchType = SearchTypeSemantic
	}
	if q.Sort == "" {
		q.Sort = SortRelevance
	}
	if q.Page == 0 {
		q.Page = DefaultPage
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
}

// Validate checks the query after Normalize. All violations are
// aggregated into a single ErrInvalidInput-wrapped error so boundary
// callers can surface one message.
func (q SearchQuery) Validate() error {
	var problems []string

	switch q.SearchType {
	case SearchTypeSemantic, SearchTypeKeyword:
	default:
		problems = append(problems, fmt.Sprintf("searchType must be %q or %q", SearchTypeSemantic, SearchTypeKeyword))
	}

	if q.SearchType == SearchTypeKeyword && strings.TrimSpace(q.Query) == "" {
		problems = append(problems, "query is required for keyword search")
	}

	switch q.MolecularWeight {
	case BucketAny, BucketLt100, Bucket100To200, Bucket200To500, BucketGt500:
	default:
		problems = append(problems, fmt.Sprintf("unknown molecularWeight bucket %q", q.MolecularWeight))
	}

	switch q.Sort {
	case SortRelevance, SortMolecularWeight, SortName:
	default:
		problems = append(problems, fmt.Sprintf("unknown sort %q", q.Sort))
	}

	if q.Page < 1 {
		problems = append(problems, "page must be >= 1")
	}
	if q.Limit < 1 || q.Limit > MaxLimit {
		problems = append(problems, fmt.Sprintf("limit must be between 1 and %d", MaxLimit))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

// TotalPages computes pagination metadata for a filtered result count.
func TotalPages(totalResults, limit int) int {
	if limit <= 0 || totalResults <= 0 {
		return 0
	}
	return (totalResults + limit - 1) / limit
}

// SearchResponse is the shaped result of a search, independent of which
// backend answered.
type SearchResponse struct {
	// Results is the current page of matches.
	Results []CompoundSearchResult `json:"results"`

	// TotalResults is the filtered, pre-pagination match count.
	TotalResults int `json:"totalResults"`

	// Page and TotalPages describe pagination over TotalResults.
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`

	// Query echoes the request verbatim.
	Query string `json:"query"`

	// SearchType is the mode that actually answered: a semantic request
	// downgraded to keyword reports keyword here.
	SearchType SearchType `json:"searchType"`
}

// ParseSearchQuery builds a SearchQuery from raw boundary values,
// applying documented defaults and aggregating validation failures.
func ParseSearchQuery(query, searchType, weightBucket, chemicalClass, sortKey string, page, limit int) (SearchQuery, error) {
	q := SearchQuery{
		Query:           strings.TrimSpace(query),
		SearchType:      SearchType(strings.ToLower(strings.TrimSpace(searchType))),
		MolecularWeight: WeightBucket(strings.TrimSpace(weightBucket)),
		ChemicalClass:   strings.TrimSpace(chemicalClass),
		Sort:            SortKey(strings.ToLower(strings.TrimSpace(sortKey))),
		Page:            page,
		Limit:           limit,
	}
	q.Normalize()
	if err := q.Validate(); err != nil {
		return SearchQuery{}, err
	}
	return q, nil
}
