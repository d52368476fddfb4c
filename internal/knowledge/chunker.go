package knowledge

import (
	"strings"
	"unicode"
)

// Chunker 按token窗口切分文档的分块器
type Chunker struct {
	codec        TokenCodec
	chunkSize    int
	chunkOverlap int
}

// NewChunker 创建分块器，chunkSize/overlap以token计
func NewChunker(codec TokenCodec, chunkSize, overlap int) *Chunker {
	if codec == nil {
		codec = NewDefaultCodec()
	}
	if chunkSize <= 0 {
		chunkSize = 800
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Chunker{
		codec:        codec,
		chunkSize:    chunkSize,
		chunkOverlap: overlap,
	}
}

// Split 将一组逻辑文档切分为chunk序列
// Ordinal按源文档从0开始连续分配，跨页不重置，保证同一源内的全序
func (c *Chunker) Split(documents []Document) []Chunk {
	var chunks []Chunk
	ordinals := make(map[string]int)

	for _, doc := range documents {
		for _, text := range c.splitText(doc.Text) {
			chunks = append(chunks, Chunk{
				SourceKey: doc.SourceKey,
				PageIndex: doc.PageIndex,
				Ordinal:   ordinals[doc.SourceKey],
				Text:      text,
			})
			ordinals[doc.SourceKey]++
		}
	}

	return chunks
}

// splitText 对单段文本做token窗口切分
func (c *Chunker) splitText(text string) []string {
	clean := normalizeWhitespace(text)
	if clean == "" {
		return nil
	}

	tokens := c.codec.Encode(clean)
	if len(tokens) == 0 {
		return nil
	}

	step := c.chunkSize - c.chunkOverlap
	if step <= 0 {
		step = c.chunkSize
	}

	var parts []string
	for start := 0; start < len(tokens); start += step {
		end := start + c.chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}

		part := strings.TrimSpace(c.codec.Decode(tokens[start:end]))
		if part != "" {
			parts = append(parts, part)
		}

		if end == len(tokens) {
			break
		}
	}

	return parts
}

func normalizeWhitespace(s string) string {
	var builder strings.Builder
	builder.Grow(len(s))

	var prevSpace bool
	for _, r := range s {
		if unicode.IsSpace(r) {
			if prevSpace {
				continue
			}
			builder.WriteRune(' ')
			prevSpace = true
			continue
		}
		builder.WriteRune(r)
		prevSpace = false
	}

	return strings.TrimSpace(builder.String())
}
