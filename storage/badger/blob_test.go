package badger

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/poiesic/grievance/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) storage.BlobStore {
	t.Helper()
	store, err := NewMemoryBlobStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBlobStore_WriteRead(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "complaint_a/text.txt", []byte("Huge pothole"), "text/plain"))

	data, err := store.Read(ctx, "complaint_a/text.txt")
	require.NoError(t, err)
	assert.Equal(t, "Huge pothole", string(data))

	exists, err := store.Exists(ctx, "complaint_a/text.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	// Overwrite replaces content.
	require.NoError(t, store.Write(ctx, "complaint_a/text.txt", []byte("Fixed"), "text/plain"))
	data, err = store.Read(ctx, "complaint_a/text.txt")
	require.NoError(t, err)
	assert.Equal(t, "Fixed", string(data))
}

func TestBlobStore_Missing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "complaint_a/metadata.json")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Read(ctx, "complaint_a/metadata.json")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = store.Delete(ctx, "complaint_a/metadata.json")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBlobStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "complaint_a/processed.txt", []byte("x"), "text/plain"))
	require.NoError(t, store.Delete(ctx, "complaint_a/processed.txt"))

	exists, err := store.Exists(ctx, "complaint_a/processed.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestBlobStore_List(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{
		"complaint_b/text.txt",
		"complaint_a/metadata.json",
		"complaint_a/text.txt",
		"other/file.txt",
	} {
		require.NoError(t, store.Write(ctx, key, []byte("x"), "text/plain"))
	}

	keys, err := store.List(ctx, "complaint_")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"complaint_a/metadata.json",
		"complaint_a/text.txt",
		"complaint_b/text.txt",
	}, keys)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	none, err := store.List(ctx, "missing/")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBlobStore_CreateIfAbsent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateIfAbsent(ctx, "complaint_a/processing_claim.txt", []byte("one"), "text/plain")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.CreateIfAbsent(ctx, "complaint_a/processing_claim.txt", []byte("two"), "text/plain")
	require.NoError(t, err)
	assert.False(t, created)

	data, err := store.Read(ctx, "complaint_a/processing_claim.txt")
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
}

func TestBlobStore_CreateIfAbsentConcurrent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := store.CreateIfAbsent(ctx, "complaint_a/processing_claim.txt", []byte("x"), "text/plain")
			if err == nil && created {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestBlobStore_Closed(t *testing.T) {
	store, err := NewMemoryBlobStore()
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.Read(context.Background(), "complaint_a/text.txt")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}
