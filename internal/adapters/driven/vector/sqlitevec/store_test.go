package sqlitevec

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chembase-labs/chemsearch/internal/adapters/driven/embedding/stub"
	"github.com/chembase-labs/chemsearch/internal/core/domain"
)

func newTestStore(t *testing.T, withEmbedder bool) *Store {
	t.Helper()
	var store *Store
	var err error
	if withEmbedder {
		store, err = NewStore(t.TempDir(), stub.New(32))
	} else {
		store, err = NewStore(t.TempDir(), nil)
	}
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testCompound(cid int64, name string, weight float64, classes ...string) *domain.Compound {
	c := &domain.Compound{
		CID:           cid,
		Name:          name,
		Formula:       "C9H8O4",
		ChemicalClass: classes,
	}
	if weight > 0 {
		c.MolecularWeight = &weight
	}
	c.ApplyDefaults()
	return c
}

func TestUpsert_RoundTrip(t *testing.T) {
	store := newTestStore(t, true)
	ctx := context.Background()

	compound := testCompound(2244, "Aspirin", 180.16, "Organic compounds")
	compound.IUPACName = "2-acetyloxybenzoic acid"
	compound.InChIKey = "BSYNRYMUTXBXSQ-UHFFFAOYSA-N"
	compound.Description = "Pain relief"

	require.NoError(t, store.Upsert(ctx, compound))

	got, err := store.GetByCID(ctx, 2244)
	require.NoError(t, err)
	assert.Equal(t, "Aspirin", got.Name)
	assert.Equal(t, "2-acetyloxybenzoic acid", got.IUPACName)
	require.NotNil(t, got.MolecularWeight)
	assert.InDelta(t, 180.16, *got.MolecularWeight, 0.001)
	assert.Equal(t, []string{"Organic compounds"}, got.ChemicalClass)
}

func TestUpsert_OverwritesExisting(t *testing.T) {
	store := newTestStore(t, true)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, testCompound(2244, "Aspirin", 180.16)))
	require.NoError(t, store.Upsert(ctx, testCompound(2244, "Aspirin (updated)", 180.16)))

	got, err := store.GetByCID(ctx, 2244)
	require.NoError(t, err)
	assert.Equal(t, "Aspirin (updated)", got.Name)
}

func TestUpsert_NoEmbedderUsesFallbackVector(t *testing.T) {
	store := newTestStore(t, false)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, testCompound(2244, "Aspirin", 180.16)))

	var model string
	var blob []byte
	row := store.db.QueryRow("SELECT embedding_model, embedding FROM compound_vectors WHERE cid = 2244")
	require.NoError(t, row.Scan(&model, &blob))
	assert.Equal(t, modelFallback, model)
	assert.Len(t, bytesToFloat32Slice(blob), FallbackDimensions)
}

func TestGetByCID_NotFound(t *testing.T) {
	store := newTestStore(t, true)

	got, err := store.GetByCID(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, got)
}

func seedVectors(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()

	fixtures := []*domain.Compound{
		testCompound(2244, "Aspirin", 180.16, "Organic compounds"),
		testCompound(2519, "Caffeine", 194.19, "Organic compounds"),
		testCompound(702, "Ethanol", 46.07, "Alcohols"),
		testCompound(5090, "Rofecoxib", 314.36, "Organic compounds"),
	}
	for _, c := range fixtures {
		require.NoError(t, store.Upsert(ctx, c))
	}
}

func TestSearch_RankedBySimilarity(t *testing.T) {
	store := newTestStore(t, true)
	seedVectors(t, store)

	query := domain.SearchQuery{Query: "pain relief tablet", SearchType: domain.SearchTypeSemantic}
	query.Normalize()

	resp, err := store.Search(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, resp.Results, 4)
	assert.Equal(t, domain.SearchTypeSemantic, resp.SearchType)

	// Every result carries a similarity on the 0-1 scale, descending.
	var prev = math.Inf(1)
	for _, r := range resp.Results {
		require.NotNil(t, r.Similarity)
		assert.GreaterOrEqual(t, *r.Similarity, 0.0)
		assert.LessOrEqual(t, *r.Similarity, 1.0)
		assert.LessOrEqual(t, *r.Similarity, prev)
		prev = *r.Similarity
	}
}

func TestSearch_Deterministic(t *testing.T) {
	store := newTestStore(t, true)
	seedVectors(t, store)
	ctx := context.Background()

	query := domain.SearchQuery{Query: "stimulant", SearchType: domain.SearchTypeSemantic}
	query.Normalize()

	first, err := store.Search(ctx, query)
	require.NoError(t, err)
	second, err := store.Search(ctx, query)
	require.NoError(t, err)

	require.Equal(t, len(first.Results), len(second.Results))
	for i := range first.Results {
		assert.Equal(t, first.Results[i].CID, second.Results[i].CID)
		assert.Equal(t, *first.Results[i].Similarity, *second.Results[i].Similarity)
	}
}

func TestSearch_EmptyQueryIsFilterOnly(t *testing.T) {
	store := newTestStore(t, true)
	seedVectors(t, store)

	query := domain.SearchQuery{
		SearchType:      domain.SearchTypeSemantic,
		MolecularWeight: domain.Bucket100To200,
	}
	query.Normalize()

	resp, err := store.Search(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	for _, r := range resp.Results {
		assert.Nil(t, r.Similarity)
		assert.True(t, domain.Bucket100To200.Contains(r.MolecularWeight))
	}
}

func TestSearch_NoEmbedderIsFilterOnly(t *testing.T) {
	store := newTestStore(t, false)
	seedVectors(t, store)

	query := domain.SearchQuery{Query: "anything", SearchType: domain.SearchTypeSemantic}
	query.Normalize()

	resp, err := store.Search(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, resp.Results, 4)
	for _, r := range resp.Results {
		assert.Nil(t, r.Similarity)
	}
}

func TestSearch_ClassFilter(t *testing.T) {
	store := newTestStore(t, true)
	seedVectors(t, store)

	query := domain.SearchQuery{
		Query:         "drink",
		SearchType:    domain.SearchTypeSemantic,
		ChemicalClass: "Alcohols",
	}
	query.Normalize()

	resp, err := store.Search(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, int64(702), resp.Results[0].CID)
}

func TestSearch_Pagination(t *testing.T) {
	store := newTestStore(t, true)
	ctx := context.Background()

	for cid := int64(1); cid <= 25; cid++ {
		require.NoError(t, store.Upsert(ctx, testCompound(cid, fmt.Sprintf("Sample %d", cid), float64(cid))))
	}

	query := domain.SearchQuery{
		Query:      "sample",
		SearchType: domain.SearchTypeSemantic,
		Page:       3,
		Limit:      10,
	}
	query.Normalize()

	resp, err := store.Search(ctx, query)
	require.NoError(t, err)
	assert.Equal(t, 25, resp.TotalResults)
	assert.Equal(t, 3, resp.TotalPages)
	assert.Len(t, resp.Results, 5)

	// A page past the end is empty, not an error.
	query.Page = 9
	resp, err = store.Search(ctx, query)
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, 25, resp.TotalResults)
}

func TestFallbackVector(t *testing.T) {
	a := fallbackVector(2244, 64)
	b := fallbackVector(2244, 64)
	c := fallbackVector(2519, 64)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)

	// Unit length.
	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 0.001)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{name: "identical", a: []float32{1, 0}, b: []float32{1, 0}, expected: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, expected: 0},
		{name: "opposite clamps to zero", a: []float32{1, 0}, b: []float32{-1, 0}, expected: 0},
		{name: "empty", a: nil, b: nil, expected: 0},
		{name: "length mismatch", a: []float32{1}, b: []float32{1, 0}, expected: 0},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 0}, expected: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, cosineSimilarity(tc.a, tc.b), 0.0001)
		})
	}
}

func TestVectorByteRoundTrip(t *testing.T) {
	vector := []float32{0.5, -0.25, 1.0, 0}
	assert.Equal(t, vector, bytesToFloat32Slice(float32SliceToBytes(vector)))
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
