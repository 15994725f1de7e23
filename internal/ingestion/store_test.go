package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalObjectStoreRoundTrip(t *testing.T) {
	store := NewLocalObjectStore(StoreConfig{Root: t.TempDir()})

	require.NoError(t, store.Put("2026-08-30", "anime_1.json", []byte(`{"data": {}}`)))
	require.NoError(t, store.Put("2026-08-30", "anime_2.json", []byte(`{"data": {}}`)))
	require.NoError(t, store.Put("2026-08-30", "genres.json", []byte(`{"data": []}`)))
	require.NoError(t, store.Put("2026-08-29", "anime_3.json", []byte(`{"data": {}}`)))

	names, err := store.List("2026-08-30", "anime_")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"anime_1.json", "anime_2.json"}, names)

	all, err := store.List("2026-08-30", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	data, err := store.Read("2026-08-30", "genres.json")
	require.NoError(t, err)
	assert.Equal(t, `{"data": []}`, string(data))
}

func TestLocalObjectStoreMissingPartition(t *testing.T) {
	store := NewLocalObjectStore(StoreConfig{Root: t.TempDir()})

	names, err := store.List("1999-01-01", "anime_")
	require.NoError(t, err)
	assert.Nil(t, names)

	_, err = store.Read("1999-01-01", "anime_1.json")
	assert.Error(t, err)
}

func TestLocalObjectStoreOverwrite(t *testing.T) {
	store := NewLocalObjectStore(StoreConfig{Root: t.TempDir()})

	require.NoError(t, store.Put("2026-08-30", "anime_1.json", []byte("v1")))
	require.NoError(t, store.Put("2026-08-30", "anime_1.json", []byte("v2")))

	data, err := store.Read("2026-08-30", "anime_1.json")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}
