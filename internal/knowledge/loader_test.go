package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aihub/rag-go/internal/storage"
)

func newLoaderWithStore(t *testing.T) (*BlobDocumentLoader, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	loader := NewBlobDocumentLoader(store, "rag/uploaded/", "rag/embedded/")
	return loader, store
}

func TestLoadRawStripsEmbeddedNulls(t *testing.T) {
	ctx := context.Background()
	loader, store := newLoaderWithStore(t)

	require.NoError(t, store.Put(ctx, "rag/uploaded/notes.txt", []byte("Payara\x00 Cloud\x00"), "text/plain"))

	doc, err := loader.LoadRaw(ctx, "rag/uploaded/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "Payara Cloud", doc.Text)
	assert.Equal(t, "rag/uploaded/notes.txt", doc.SourceKey)
	assert.Equal(t, 0, doc.PageIndex)
}

func TestLoadMissingKeyReturnsNotFound(t *testing.T) {
	loader, _ := newLoaderWithStore(t)

	_, err := loader.Load(context.Background(), "rag/uploaded/missing.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLoadPlainTextProducesSingleDocument(t *testing.T) {
	ctx := context.Background()
	loader, store := newLoaderWithStore(t)

	require.NoError(t, store.Put(ctx, "rag/uploaded/guide.md", []byte("# Payara Cloud"), "text/markdown"))

	docs, err := loader.Load(ctx, "rag/uploaded/guide.md")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "# Payara Cloud", docs[0].Text)
}

func TestArchiveEmbeddedMovesKey(t *testing.T) {
	ctx := context.Background()
	loader, store := newLoaderWithStore(t)

	require.NoError(t, store.Put(ctx, "rag/uploaded/doc1.pdf", []byte("pdf-bytes"), "application/pdf"))

	moved := loader.ArchiveEmbedded(ctx, []string{"rag/uploaded/doc1.pdf"})
	assert.Equal(t, []string{"rag/uploaded/doc1.pdf"}, moved)

	pending, err := store.List(ctx, "rag/uploaded/")
	require.NoError(t, err)
	assert.Empty(t, pending)

	archived, err := store.List(ctx, "rag/embedded/")
	require.NoError(t, err)
	assert.Equal(t, []string{"rag/embedded/doc1.pdf"}, archived)
}

func TestArchiveEmbeddedSkipsExistingTarget(t *testing.T) {
	ctx := context.Background()
	loader, store := newLoaderWithStore(t)

	require.NoError(t, store.Put(ctx, "rag/uploaded/doc2.pdf", []byte("new"), ""))
	require.NoError(t, store.Put(ctx, "rag/embedded/doc2.pdf", []byte("old"), ""))

	moved := loader.ArchiveEmbedded(ctx, []string{"rag/uploaded/doc2.pdf"})
	assert.Empty(t, moved)

	// 两个对象都保持原样，不覆盖
	src, err := store.Get(ctx, "rag/uploaded/doc2.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), src)

	dst, err := store.Get(ctx, "rag/embedded/doc2.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), dst)
}

type copyFailStore struct {
	*storage.MemoryStore
}

func (s *copyFailStore) Copy(ctx context.Context, sourceKey, targetKey string) error {
	return errors.New("copy refused")
}

func TestArchiveEmbeddedCopyFailureLeavesSource(t *testing.T) {
	ctx := context.Background()
	store := &copyFailStore{storage.NewMemoryStore()}
	loader := NewBlobDocumentLoader(store, "rag/uploaded/", "rag/embedded/")

	require.NoError(t, store.Put(ctx, "rag/uploaded/doc3.pdf", []byte("content"), ""))

	moved := loader.ArchiveEmbedded(ctx, []string{"rag/uploaded/doc3.pdf"})
	assert.Empty(t, moved)

	// 复制失败时源保持原位，目标不存在
	src, err := store.Exists(ctx, "rag/uploaded/doc3.pdf")
	require.NoError(t, err)
	assert.True(t, src)

	dst, err := store.Exists(ctx, "rag/embedded/doc3.pdf")
	require.NoError(t, err)
	assert.False(t, dst)
}

func TestArchiveEmbeddedEmptyInput(t *testing.T) {
	loader, _ := newLoaderWithStore(t)
	assert.Nil(t, loader.ArchiveEmbedded(context.Background(), nil))
	assert.Nil(t, loader.ArchiveEmbedded(context.Background(), []string{"  "}))
}
