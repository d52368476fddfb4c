package knowledge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkerSplitBoundsAndOrdinals(t *testing.T) {
	chunker := NewChunker(RuneCodec{}, 10, 0)

	docs := []Document{
		{SourceKey: "rag/uploaded/doc1.txt", PageIndex: 0, Text: strings.Repeat("a", 25)},
	}

	chunks := chunker.Split(docs)
	require.Len(t, chunks, 3)

	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Ordinal)
		assert.LessOrEqual(t, len([]rune(chunk.Text)), 10)
		assert.Equal(t, "rag/uploaded/doc1.txt", chunk.SourceKey)
	}
}

func TestChunkerOrdinalsContinueAcrossPages(t *testing.T) {
	chunker := NewChunker(RuneCodec{}, 5, 0)

	docs := []Document{
		{SourceKey: "rag/uploaded/doc1.pdf", PageIndex: 0, Text: "aaaaabbbbb"},
		{SourceKey: "rag/uploaded/doc1.pdf", PageIndex: 1, Text: "ccccc"},
		{SourceKey: "rag/uploaded/doc2.pdf", PageIndex: 0, Text: "ddddd"},
	}

	chunks := chunker.Split(docs)
	require.Len(t, chunks, 4)

	assert.Equal(t, 0, chunks[0].Ordinal)
	assert.Equal(t, 1, chunks[1].Ordinal)
	// 第二页继续同一源文档的序号
	assert.Equal(t, 2, chunks[2].Ordinal)
	assert.Equal(t, 1, chunks[2].PageIndex)
	// 新的源文档从0重新开始
	assert.Equal(t, 0, chunks[3].Ordinal)
}

func TestChunkerDeterministic(t *testing.T) {
	chunker := NewChunker(RuneCodec{}, 16, 4)

	docs := []Document{
		{SourceKey: "rag/uploaded/doc1.txt", PageIndex: 0, Text: "Payara Cloud runs Jakarta EE workloads without servers to manage."},
	}

	first := chunker.Split(docs)
	second := chunker.Split(docs)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i], second[i])
	}
}

func TestChunkerOverlapRepeatsTokens(t *testing.T) {
	chunker := NewChunker(RuneCodec{}, 6, 2)

	chunks := chunker.Split([]Document{
		{SourceKey: "k", PageIndex: 0, Text: "abcdefgh"},
	})
	require.Len(t, chunks, 2)
	assert.Equal(t, "abcdef", chunks[0].Text)
	assert.Equal(t, "efgh", chunks[1].Text)
}

func TestChunkerEmptyAndWhitespaceText(t *testing.T) {
	chunker := NewChunker(RuneCodec{}, 10, 0)

	chunks := chunker.Split([]Document{
		{SourceKey: "k", PageIndex: 0, Text: "   \n\t  "},
		{SourceKey: "k", PageIndex: 1, Text: ""},
	})
	assert.Empty(t, chunks)
}

func TestChunkerBackfillsBadSizes(t *testing.T) {
	chunker := NewChunker(RuneCodec{}, 0, -1)
	assert.Equal(t, 800, chunker.chunkSize)
	assert.Equal(t, 0, chunker.chunkOverlap)

	chunker = NewChunker(RuneCodec{}, 100, 100)
	assert.Equal(t, 25, chunker.chunkOverlap)
}

func TestNormalizeWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", normalizeWhitespace("  a \n\n b\t\tc  "))
}
