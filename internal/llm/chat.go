package llm

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/aihub/rag-go/internal/logger"
)

// ErrNoCompletion 模型调用成功但没有返回可用输出
var ErrNoCompletion = errors.New("model returned no completion")

// ChatModel 定义聊天补全接口
type ChatModel interface {
	// Complete 把完整prompt交给模型，返回单条补全文本
	Complete(ctx context.Context, prompt string) (string, error)
	Ready() bool
}

// NoopChatModel 未配置API Key时的占位实现
type NoopChatModel struct{}

func (n *NoopChatModel) Complete(ctx context.Context, prompt string) (string, error) {
	return "", errors.New("chat provider not configured")
}

func (n *NoopChatModel) Ready() bool {
	return false
}

// OpenAIChatModel 使用OpenAI Chat Completion API
type OpenAIChatModel struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
}

// NewOpenAIChatModel 创建OpenAI聊天模型客户端
func NewOpenAIChatModel(apiKey, model string, maxTokens int, temperature float64) ChatModel {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		logger.Warn("OpenAI API key not configured, chat model disabled")
		return &NoopChatModel{}
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if maxTokens <= 0 {
		maxTokens = 2000
	}

	return &OpenAIChatModel{
		client:      openai.NewClient(apiKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

func (m *OpenAIChatModel) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       m.model,
		MaxTokens:   m.maxTokens,
		Temperature: float32(m.temperature),
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		logger.Error("Chat completion request failed",
			zap.String("model", m.model), zap.Error(err))
		return "", err
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		logger.Warn("Chat completion returned no output", zap.String("model", m.model))
		return "", ErrNoCompletion
	}

	return resp.Choices[0].Message.Content, nil
}

func (m *OpenAIChatModel) Ready() bool {
	return true
}
