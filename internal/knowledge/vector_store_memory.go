package knowledge

import (
	"context"
	"math"
	"sort"
	"sync"
)

type memoryRecord struct {
	chunk     Chunk
	embedding []float32
}

// MemoryVectorStore 内存向量存储（provider=memory），余弦相似度暴力检索
type MemoryVectorStore struct {
	mu       sync.RWMutex
	embedder Embedder
	records  map[int64]memoryRecord
}

// NewMemoryVectorStore 创建内存向量存储
func NewMemoryVectorStore(embedder Embedder) *MemoryVectorStore {
	return &MemoryVectorStore{
		embedder: embedder,
		records:  make(map[int64]memoryRecord),
	}
}

func (s *MemoryVectorStore) UpsertChunks(ctx context.Context, chunks []Chunk) error {
	// 先全部嵌入再写入，嵌入失败的文档不会留下部分记录
	embedded := make([]memoryRecord, 0, len(chunks))
	for _, chunk := range chunks {
		embedding, err := s.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return err
		}
		embedded = append(embedded, memoryRecord{chunk: chunk, embedding: embedding})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range embedded {
		s.records[recordID(record.chunk)] = record
	}
	return nil
}

func (s *MemoryVectorStore) Search(ctx context.Context, query string, threshold float64, topK int) ([]SearchMatch, error) {
	queryEmbedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []SearchMatch
	for _, record := range s.records {
		score := cosineSimilarity(queryEmbedding, record.embedding)
		if score < threshold {
			continue
		}
		matches = append(matches, SearchMatch{
			SourceKey: record.chunk.SourceKey,
			PageIndex: record.chunk.PageIndex,
			Ordinal:   record.chunk.Ordinal,
			Text:      record.chunk.Text,
			Score:     score,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *MemoryVectorStore) DeleteSource(ctx context.Context, sourceKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, record := range s.records {
		if record.chunk.SourceKey == sourceKey {
			delete(s.records, id)
		}
	}
	return nil
}

func (s *MemoryVectorStore) Ready() bool {
	return s.embedder != nil && s.embedder.Ready()
}

// Len 当前记录数，供测试断言
func (s *MemoryVectorStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
