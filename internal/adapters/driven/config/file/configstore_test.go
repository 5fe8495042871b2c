package file

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_EmptyDir(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	assert.NotEmpty(t, store.Path())

	_, ok := store.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, "", store.GetString("missing"))
	assert.Equal(t, 0, store.GetInt("missing"))
}

func TestSetGetRoundTrip(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("data.dir", "/var/lib/chemsearch"))
	require.NoError(t, store.Set("ingest.batch_size", 50))

	assert.Equal(t, "/var/lib/chemsearch", store.GetString("data.dir"))
	assert.Equal(t, 50, store.GetInt("ingest.batch_size"))

	// Wrong-type reads return the zero value.
	assert.Equal(t, 0, store.GetInt("data.dir"))
	assert.Equal(t, "", store.GetString("ingest.batch_size"))
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("embedding.model", "nomic-embed-text"))

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", reopened.GetString("embedding.model"))
}

func TestDelete(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("seed.dir", "/tmp/seed"))
	require.NoError(t, store.Delete("seed.dir"))

	_, ok := store.Get("seed.dir")
	assert.False(t, ok)
}

func TestLoad_FlattensNestedTables(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	content := "[embedding]\nprovider = \"ollama\"\ndimensions = 768\n"
	require.NoError(t, os.WriteFile(store.Path(), []byte(content), 0600))
	require.NoError(t, store.Load())

	assert.Equal(t, "ollama", store.GetString("embedding.provider"))
	assert.Equal(t, 768, store.GetInt("embedding.dimensions"))
}

func TestFlattenMap(t *testing.T) {
	flat := flattenMap(map[string]any{
		"top": "value",
		"nested": map[string]any{
			"inner": map[string]any{"leaf": int64(1)},
			"other": "x",
		},
	}, "")

	assert.Equal(t, "value", flat["top"])
	assert.Equal(t, int64(1), flat["nested.inner.leaf"])
	assert.Equal(t, "x", flat["nested.other"])
}
