package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/aihub/rag-go/internal/errors"
	"github.com/aihub/rag-go/internal/knowledge"
	"github.com/aihub/rag-go/internal/logger"
)

// ErrNoContext 检索没有命中任何相似度达标的片段
var ErrNoContext = apperrors.New(apperrors.ErrCodeNoContext, "no relevant context found for query")

// RetrievalAugmenter 把用户问题变成可注入prompt的上下文文本
type RetrievalAugmenter struct {
	vectorStore       knowledge.VectorStore
	threshold         float64
	topK              int
	allowEmptyContext bool
}

// NewRetrievalAugmenter 创建检索增强器
func NewRetrievalAugmenter(vectorStore knowledge.VectorStore, threshold float64, topK int, allowEmptyContext bool) *RetrievalAugmenter {
	if topK <= 0 {
		topK = 10
	}
	return &RetrievalAugmenter{
		vectorStore:       vectorStore,
		threshold:         threshold,
		topK:              topK,
		allowEmptyContext: allowEmptyContext,
	}
}

// Augment 检索与query相似度不低于阈值的片段并拼装上下文
//
// 没有达标片段时：allowEmptyContext开启则返回空上下文，
// 否则返回ErrNoContext，由调用方转成固定拒答。
func (r *RetrievalAugmenter) Augment(ctx context.Context, query string) (string, error) {
	matches, err := r.vectorStore.Search(ctx, query, r.threshold, r.topK)
	if err != nil {
		logger.Error("Context retrieval failed", zap.Error(err))
		return "", apperrors.Wrap(apperrors.ErrCodeEmbeddingFailed, "failed to retrieve context", err)
	}

	var parts []string
	for _, match := range matches {
		if match.Score < r.threshold {
			continue
		}
		parts = append(parts, match.Text)
	}

	if len(parts) == 0 {
		if r.allowEmptyContext {
			logger.Info("No context found, answering without retrieval", zap.String("query", query))
			return "", nil
		}
		logger.Info("No context found for query", zap.String("query", query))
		return "", ErrNoContext
	}

	logger.Info("Retrieved context for query",
		zap.String("query", query),
		zap.Int("matches", len(parts)))
	return strings.Join(parts, "\n\n"), nil
}
