package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreListFiltersByPrefix(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "rag/uploaded/b.pdf", []byte("b"), "application/pdf"))
	require.NoError(t, store.Put(ctx, "rag/uploaded/a.pdf", []byte("a"), "application/pdf"))
	require.NoError(t, store.Put(ctx, "rag/embedded/c.pdf", []byte("c"), "application/pdf"))

	keys, err := store.List(ctx, "rag/uploaded/")
	require.NoError(t, err)
	assert.Equal(t, []string{"rag/uploaded/a.pdf", "rag/uploaded/b.pdf"}, keys)
}

func TestMemoryStoreGetMissingReturnsNotFound(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), "rag/uploaded/missing.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreCopyAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "rag/uploaded/doc.pdf", []byte("content"), ""))
	require.NoError(t, store.Copy(ctx, "rag/uploaded/doc.pdf", "rag/embedded/doc.pdf"))

	exists, err := store.Exists(ctx, "rag/embedded/doc.pdf")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Delete(ctx, "rag/uploaded/doc.pdf"))
	exists, err = store.Exists(ctx, "rag/uploaded/doc.pdf")
	require.NoError(t, err)
	assert.False(t, exists)

	data, err := store.Get(ctx, "rag/embedded/doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("content"), data)
}

func TestMemoryStoreListError(t *testing.T) {
	store := NewMemoryStore()
	store.ListErr = errors.New("listing unavailable")

	_, err := store.List(context.Background(), "rag/uploaded/")
	assert.Error(t, err)
}
