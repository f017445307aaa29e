package objectstore

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(filepath.Join(t.TempDir(), "objects"))
	assert.NoError(t, err)
	return store
}

func TestLocalStorePutExistsDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestLocalStore(t)

	data := []byte("compacted parquet bytes")
	exists, err := store.Exists(ctx, "a.parquet")
	assert.NoError(t, err)
	assert.False(t, exists)

	err = store.Put(ctx, "a.parquet", bytes.NewReader(data), int64(len(data)))
	assert.NoError(t, err)

	exists, err = store.Exists(ctx, "a.parquet")
	assert.NoError(t, err)
	assert.True(t, exists)

	err = store.Delete(ctx, "a.parquet")
	assert.NoError(t, err)

	exists, err = store.Exists(ctx, "a.parquet")
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalStorePutRejectsOverwrite(t *testing.T) {
	ctx := context.Background()
	store := newTestLocalStore(t)

	assert.NoError(t, store.Put(ctx, "a.parquet", bytes.NewReader([]byte("v1")), 2))
	err := store.Put(ctx, "a.parquet", bytes.NewReader([]byte("v2")), 2)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestLocalStoreDeleteIsIdempotent(t *testing.T) {
	store := newTestLocalStore(t)
	err := store.Delete(context.Background(), "never-written.parquet")
	assert.NoError(t, err)
}

func TestLocalStorePutNamespacesByPartitionPrefix(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "objects")
	store, err := NewLocalStore(dir)
	assert.NoError(t, err)

	data := []byte("data")
	assert.NoError(t, store.Put(ctx, "leaf-partition/compacted-1.parquet", bytes.NewReader(data), int64(len(data))))

	_, err = os.Stat(filepath.Join(dir, "leaf-partition", "compacted-1.parquet"))
	assert.NoError(t, err)
}
