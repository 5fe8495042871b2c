package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chembase-labs/chemsearch/internal/core/domain"
)

func newCompoundService(store *fakeCompoundStore, vectors *fakeVectorStore, seedDir string) *CompoundService {
	coordinator := NewSearchCoordinator(store, vectors)
	ingestor := NewIngestService(store, vectors, nil, 10)
	return NewCompoundService(store, coordinator, ingestor, seedDir, 0)
}

func TestCompoundService_GetAndList(t *testing.T) {
	store := newFakeCompoundStore()
	vectors := newFakeVectorStore()
	seedStores(t, store, vectors)
	svc := newCompoundService(store, vectors, "")
	ctx := context.Background()

	got, err := svc.Get(ctx, 2244)
	require.NoError(t, err)
	assert.Equal(t, "Aspirin", got.Name)

	byID, err := svc.GetByID(ctx, got.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2244), byID.CID)

	_, err = svc.Get(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	compounds, err := svc.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, compounds, 2)
}

func TestInitialize_EmptyStoreLoadsSeed(t *testing.T) {
	store := newFakeCompoundStore()
	vectors := newFakeVectorStore()

	seedDir := t.TempDir()
	writeFixture(t, seedDir, "seed.json", flatRecord(2244, "Aspirin"))

	svc := newCompoundService(store, vectors, seedDir)
	require.NoError(t, svc.Initialize(context.Background()))

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestInitialize_NonEmptyStoreSkipsSeed(t *testing.T) {
	store := newFakeCompoundStore()
	vectors := newFakeVectorStore()
	seedStores(t, store, vectors)

	seedDir := t.TempDir()
	writeFixture(t, seedDir, "seed.json", flatRecord(9999, "Should not load"))

	svc := newCompoundService(store, vectors, seedDir)
	require.NoError(t, svc.Initialize(context.Background()))

	_, err := store.GetByCID(context.Background(), 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInitialize_NoSeedDirIsANoOp(t *testing.T) {
	svc := newCompoundService(newFakeCompoundStore(), newFakeVectorStore(), "")
	assert.NoError(t, svc.Initialize(context.Background()))
}

func TestInitialize_SeedFailureDegrades(t *testing.T) {
	store := newFakeCompoundStore()
	vectors := newFakeVectorStore()

	// The seed directory does not exist; startup degrades instead of
	// aborting.
	svc := newCompoundService(store, vectors, "/no/such/dir")
	assert.NoError(t, svc.Initialize(context.Background()))
}

func TestInitialize_PrimaryOutagePropagates(t *testing.T) {
	store := newFakeCompoundStore()
	store.failAll = true
	svc := newCompoundService(store, newFakeVectorStore(), "")

	err := svc.Initialize(context.Background())
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
