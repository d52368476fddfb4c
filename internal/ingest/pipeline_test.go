package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aihub/rag-go/internal/knowledge"
	"github.com/aihub/rag-go/internal/storage"
)

// stubEmbedder 确定性向量生成，遇到failOn子串时返回错误
type stubEmbedder struct {
	failOn string
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.failOn != "" && strings.Contains(text, s.failOn) {
		return nil, errors.New("embedding provider rejected input")
	}
	vec := []float32{0, 0, 0}
	for i, r := range text {
		vec[i%3] += float32(r)
	}
	return vec, nil
}

func (s *stubEmbedder) Dimensions() int { return 3 }

func (s *stubEmbedder) Ready() bool { return true }

func newTestPipeline(t *testing.T, failOn string) (*Pipeline, *storage.MemoryStore, *knowledge.MemoryVectorStore) {
	t.Helper()

	store := storage.NewMemoryStore()
	loader := knowledge.NewBlobDocumentLoader(store, "rag/uploaded/", "rag/embedded/")
	chunker := knowledge.NewChunker(knowledge.RuneCodec{}, 40, 8)
	vectorStore := knowledge.NewMemoryVectorStore(&stubEmbedder{failOn: failOn})

	return NewPipeline(loader, chunker, vectorStore, 2), store, vectorStore
}

func TestRunOnceEmbedsAndArchives(t *testing.T) {
	ctx := context.Background()
	pipeline, store, vectorStore := newTestPipeline(t, "")

	require.NoError(t, store.Put(ctx, "rag/uploaded/payara-cloud.txt",
		[]byte("Payara Cloud runs Jakarta EE applications without server configuration."), "text/plain"))
	require.NoError(t, store.Put(ctx, "rag/uploaded/pricing.txt",
		[]byte("Subscription tiers are billed per namespace each month."), "text/plain"))

	report, err := pipeline.RunOnce(ctx)
	require.NoError(t, err)

	assert.Len(t, report.Discovered, 2)
	assert.ElementsMatch(t, []string{"rag/uploaded/payara-cloud.txt", "rag/uploaded/pricing.txt"}, report.Embedded)
	assert.Empty(t, report.Failed)
	assert.ElementsMatch(t, report.Embedded, report.Archived)
	assert.Greater(t, vectorStore.Len(), 0)

	pending, err := store.List(ctx, "rag/uploaded/")
	require.NoError(t, err)
	assert.Empty(t, pending)

	archived, err := store.List(ctx, "rag/embedded/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"rag/embedded/payara-cloud.txt", "rag/embedded/pricing.txt"}, archived)
}

func TestRunOnceContainsFailureAtDocumentBoundary(t *testing.T) {
	ctx := context.Background()
	pipeline, store, vectorStore := newTestPipeline(t, "poison")

	require.NoError(t, store.Put(ctx, "rag/uploaded/good.txt",
		[]byte("Payara Server supports rolling upgrades."), "text/plain"))
	require.NoError(t, store.Put(ctx, "rag/uploaded/bad.txt",
		[]byte("this document is poison for the embedder"), "text/plain"))

	report, err := pipeline.RunOnce(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"rag/uploaded/good.txt"}, report.Embedded)
	assert.Equal(t, []string{"rag/uploaded/bad.txt"}, report.Failed)
	assert.Equal(t, []string{"rag/uploaded/good.txt"}, report.Archived)

	// 坏文档留在pending区等待下一个tick，且没有留下部分索引记录
	pending, err := store.List(ctx, "rag/uploaded/")
	require.NoError(t, err)
	assert.Equal(t, []string{"rag/uploaded/bad.txt"}, pending)

	matches, err := vectorStore.Search(ctx, "rolling upgrades", 0, 10)
	require.NoError(t, err)
	for _, m := range matches {
		assert.NotEqual(t, "rag/uploaded/bad.txt", m.SourceKey)
	}
}

func TestRunOnceListFailureAbortsTick(t *testing.T) {
	ctx := context.Background()
	pipeline, store, vectorStore := newTestPipeline(t, "")

	require.NoError(t, store.Put(ctx, "rag/uploaded/doc.txt", []byte("content"), "text/plain"))
	store.ListErr = errors.New("connection refused")

	report, err := pipeline.RunOnce(ctx)
	assert.Error(t, err)
	assert.Empty(t, report.Discovered)
	assert.Zero(t, vectorStore.Len())

	store.ListErr = nil
	pending, err := store.List(ctx, "rag/uploaded/")
	require.NoError(t, err)
	assert.Equal(t, []string{"rag/uploaded/doc.txt"}, pending)
}

func TestRunOnceArchiveSkipKeepsDocumentPending(t *testing.T) {
	ctx := context.Background()
	pipeline, store, vectorStore := newTestPipeline(t, "")

	require.NoError(t, store.Put(ctx, "rag/uploaded/report.txt",
		[]byte("Payara Micro is suited for containerized deployments."), "text/plain"))
	// 归档目标已被占用：移动被跳过，文档留在pending区
	require.NoError(t, store.Put(ctx, "rag/embedded/report.txt",
		[]byte("an older revision"), "text/plain"))

	report, err := pipeline.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"rag/uploaded/report.txt"}, report.Embedded)
	assert.Empty(t, report.Archived)

	indexed := vectorStore.Len()
	require.Greater(t, indexed, 0)

	// 下一个tick重新嵌入同一文档：确定性记录ID保证索引不膨胀
	second, err := pipeline.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"rag/uploaded/report.txt"}, second.Embedded)
	assert.Equal(t, indexed, vectorStore.Len())

	existing, err := store.Get(ctx, "rag/embedded/report.txt")
	require.NoError(t, err)
	assert.Equal(t, "an older revision", string(existing))
}

// pagedLoader 把对象内容按换页符拆成多个逻辑文档，模拟PDF分页
type pagedLoader struct {
	*knowledge.BlobDocumentLoader
	store *storage.MemoryStore
}

func (l *pagedLoader) Load(ctx context.Context, key string) ([]knowledge.Document, error) {
	data, err := l.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var docs []knowledge.Document
	for i, page := range strings.Split(string(data), "\f") {
		docs = append(docs, knowledge.Document{SourceKey: key, PageIndex: i, Text: page})
	}
	return docs, nil
}

func TestRunOnceMultiPageDocument(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	loader := &pagedLoader{
		BlobDocumentLoader: knowledge.NewBlobDocumentLoader(store, "rag/uploaded/", "rag/embedded/"),
		store:              store,
	}
	chunker := knowledge.NewChunker(knowledge.RuneCodec{}, 40, 8)
	vectorStore := knowledge.NewMemoryVectorStore(&stubEmbedder{})
	pipeline := NewPipeline(loader, chunker, vectorStore, 2)

	content := "page one about Payara Server\fpage two about Payara Micro\fpage three about Payara Cloud"
	require.NoError(t, store.Put(ctx, "rag/uploaded/doc1.pdf", []byte(content), "application/pdf"))

	report, err := pipeline.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"rag/uploaded/doc1.pdf"}, report.Archived)
	assert.Equal(t, 3, vectorStore.Len())

	// 第三页的内容可以按原文检索到，且保留页号
	matches, err := vectorStore.Search(ctx, "page three about Payara Cloud", 0.99, 10)
	require.NoError(t, err)
	require.NotEmpty(t, matches)

	var found bool
	for _, m := range matches {
		if m.Text == "page three about Payara Cloud" {
			found = true
			assert.Equal(t, 2, m.PageIndex)
		}
	}
	assert.True(t, found)
}

func TestRunOnceEmptyPendingIsNoOp(t *testing.T) {
	pipeline, _, vectorStore := newTestPipeline(t, "")

	report, err := pipeline.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Discovered)
	assert.Empty(t, report.Embedded)
	assert.Zero(t, vectorStore.Len())
}
