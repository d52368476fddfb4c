package knowledge

// Document 从源对象提取出的一个逻辑文档（PDF为一页一个）
type Document struct {
	SourceKey string
	PageIndex int
	Text      string
}

// Chunk 分块后的文本单元，Ordinal在源文档内从0开始连续递增
type Chunk struct {
	SourceKey string
	PageIndex int
	Ordinal   int
	Text      string
}

// SearchMatch 相似度检索命中结果
type SearchMatch struct {
	SourceKey string
	PageIndex int
	Ordinal   int
	Text      string
	Score     float64
}
