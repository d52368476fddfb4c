package knowledge

import (
	"context"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// VectorStore 向量存储抽象
// 记录在摄取时创建，通过确定性主键幂等重写，按相似度查询
type VectorStore interface {
	// UpsertChunks 嵌入并持久化一组chunk，重复写入同一chunk不产生重复记录
	UpsertChunks(ctx context.Context, chunks []Chunk) error
	// Search 返回相似度 >= threshold 的chunk，按存储返回顺序
	Search(ctx context.Context, query string, threshold float64, topK int) ([]SearchMatch, error)
	// DeleteSource 删除某个源文档的全部记录
	DeleteSource(ctx context.Context, sourceKey string) error
	Ready() bool
}

// recordID 由(sourceKey, pageIndex, ordinal)导出的确定性主键
// 同一chunk重嵌得到同一ID，使归档失败后的重跑幂等
func recordID(chunk Chunk) int64 {
	hash := xxhash.Sum64String(fmt.Sprintf("%s|%d|%d", chunk.SourceKey, chunk.PageIndex, chunk.Ordinal))
	return int64(hash & (1<<63 - 1))
}
