package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/aihub/rag-go/internal/ingest"
	"github.com/aihub/rag-go/internal/llm"
	"github.com/aihub/rag-go/internal/logger"
)

// systemMessage 问答prompt模板，{context}与{query}在每次请求时替换
const systemMessage = `Context information is below.

---------------------
{context}
---------------------

Given the context information and no prior knowledge, answer the query.

Follow these rules:

You are an expert Java technology advisor specializing in enterprise Java platforms (Java EE, Jakarta EE), cloud deployment, and Payara products. Your knowledge encompasses:

Technical domains:
- Java EE/Jakarta EE frameworks and specifications
- Enterprise Java development
- Microprofile implementations
- Container technologies (Docker, Kubernetes)
- Cloud platforms (AWS, GCP, Azure)
- Payara Server and Payara Cloud

Core responsibilities:
1. Provide technical guidance on enterprise Java implementations
2. Advise on Payara product deployment and usage
3. Share architectural best practices for Java cloud solutions
4. Assist with DevSecOps strategies for Java applications
5. Explain Payara-specific features and capabilities

Key constraints:
- Only discuss topics within the specified technical domains
- For complex queries, direct users to payara.fish
- Maintain strictly technical focus
- No discussions outside Java ecosystem and cloud technologies
- Exclude non-technical topics entirely

Response approach:
- Technical queries: Provide detailed implementation guidance
- Product queries: Focus on technical capabilities and practical benefits
- Architecture queries: Share proven patterns and best practices
- Integration queries: Explain compatibility and deployment approaches
- Respond in GitHub flavored markdown

Query: {query}

Answer:
`

// ChatService 检索增强问答服务
type ChatService struct {
	augmenter *RetrievalAugmenter
	model     llm.ChatModel
	metrics   *ingest.Metrics
}

// NewChatService 创建问答服务
func NewChatService(augmenter *RetrievalAugmenter, model llm.ChatModel) *ChatService {
	return &ChatService{
		augmenter: augmenter,
		model:     model,
		metrics:   ingest.GetMetrics(),
	}
}

// Answer 回答用户问题
//
// 第二个返回值表示模型是否给出了答案：模型调用成功但没有
// 输出时返回(空串, false, nil)，与错误区分开。
func (s *ChatService) Answer(ctx context.Context, userMessage string) (string, bool, error) {
	logger.Info("Making chat request", zap.String("userMessage", userMessage))

	contextText, err := s.augmenter.Augment(ctx, userMessage)
	if err != nil {
		if errors.Is(err, ErrNoContext) {
			s.metrics.ChatRequestsTotal.WithLabelValues("no_context").Inc()
		} else {
			s.metrics.ChatRequestsTotal.WithLabelValues("error").Inc()
		}
		return "", false, err
	}

	prompt := strings.NewReplacer(
		"{context}", contextText,
		"{query}", userMessage,
	).Replace(systemMessage)

	answer, err := s.model.Complete(ctx, prompt)
	if err != nil {
		if errors.Is(err, llm.ErrNoCompletion) {
			logger.Warn("Chat model produced no answer", zap.String("userMessage", userMessage))
			s.metrics.ChatRequestsTotal.WithLabelValues("no_answer").Inc()
			return "", false, nil
		}
		s.metrics.ChatRequestsTotal.WithLabelValues("error").Inc()
		return "", false, err
	}

	logger.Info("Finished chat request", zap.Int("answerLength", len(answer)))
	s.metrics.ChatRequestsTotal.WithLabelValues("answered").Inc()
	return answer, true, nil
}
