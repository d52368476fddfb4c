package knowledge

import (
	"github.com/pkoukk/tiktoken-go"
)

// TokenCodec 文本与token序列的互转接口，分块器据此计算token边界
type TokenCodec interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

// TiktokenCodec 基于cl100k_base编码的token codec
type TiktokenCodec struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenCodec 创建tiktoken codec
func NewTiktokenCodec() (*TiktokenCodec, error) {
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, err
	}
	return &TiktokenCodec{encoding: encoding}, nil
}

func (c *TiktokenCodec) Encode(text string) []int {
	return c.encoding.Encode(text, nil, nil)
}

func (c *TiktokenCodec) Decode(tokens []int) string {
	return c.encoding.Decode(tokens)
}

// RuneCodec 把每个rune当作一个token的退化实现
// 在tiktoken编码不可用时作为降级方案，也便于确定性测试
type RuneCodec struct{}

func (RuneCodec) Encode(text string) []int {
	runes := []rune(text)
	tokens := make([]int, len(runes))
	for i, r := range runes {
		tokens[i] = int(r)
	}
	return tokens
}

func (RuneCodec) Decode(tokens []int) string {
	runes := make([]rune, len(tokens))
	for i, t := range tokens {
		runes[i] = rune(t)
	}
	return string(runes)
}

// NewDefaultCodec 返回生产用codec，tiktoken初始化失败时降级为RuneCodec
func NewDefaultCodec() TokenCodec {
	codec, err := NewTiktokenCodec()
	if err != nil {
		return RuneCodec{}
	}
	return codec
}
