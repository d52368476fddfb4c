package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/aihub/rag-go/app/bootstrap"
	apperrors "github.com/aihub/rag-go/internal/errors"
	"github.com/aihub/rag-go/internal/logger"
	"github.com/aihub/rag-go/internal/services"
)

// noContextReply 知识库没有相关内容时的固定拒答
const noContextReply = "I can only answer questions covered by the indexed knowledge base, and I could not find relevant context for this query. Please visit payara.fish for further assistance."

var validate = validator.New()

// ChatRequest 问答接口请求体
type ChatRequest struct {
	UserMessage string `json:"userMessage" validate:"required"`
}

// ChatController 检索增强问答控制器
type ChatController struct {
	BaseController
	chatService *services.ChatService
}

// Prepare 初始化控制器
// beego每个请求新建控制器实例，依赖在这里从全局App取得
func (c *ChatController) Prepare() {
	if c.chatService == nil {
		if app := bootstrap.GetApp(); app != nil {
			c.chatService = app.ChatService
		}
	}
}

// Chat 回答用户问题
//
// 成功返回text/plain答案；模型无输出时返回200空body；
// 检索无上下文时返回200固定拒答。
func (c *ChatController) Chat() {
	if c.chatService == nil {
		c.JSONError(http.StatusInternalServerError, "chat service not available")
		return
	}

	var req ChatRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		c.JSONError(http.StatusBadRequest, "userMessage is required")
		return
	}

	answer, ok, err := c.chatService.Answer(c.Ctx.Request.Context(), req.UserMessage)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodeNoContext) {
			c.Text(http.StatusOK, noContextReply)
			return
		}
		logger.Error("Chat request failed",
			zap.String("ip", c.getClientIP()), zap.Error(err))
		c.JSONError(http.StatusInternalServerError, "failed to answer query")
		return
	}

	if !ok {
		// 模型调用成功但没有答案，沿用空响应语义
		c.Text(http.StatusOK, "")
		return
	}

	c.Text(http.StatusOK, answer)
}
