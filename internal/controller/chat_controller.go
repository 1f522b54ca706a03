package controller

import (
	"jumpahead_backend/internal/service"
	"jumpahead_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// ChatController 自由问答，不落库、不参与评价
type ChatController struct {
	AIService *service.AIService
}

func NewChatController(aiService *service.AIService) *ChatController {
	return &ChatController{AIService: aiService}
}

// swagger:model FreeChatRequest
type FreeChatRequest struct {
	Question string `json:"question" binding:"required"`
}

// Ask 自由问答（流式）
// @Summary AI 自由问答
// @Description 流式返回 AI 回答，与学习会话无关
// @Tags 问答
// @Accept json
// @Produce text/event-stream
// @Security ApiKeyAuth
// @Param request body FreeChatRequest true "问题内容"
// @Success 200 {string} string "SSE 流"
// @Router /api/chat/ask [post]
func (c *ChatController) Ask(ctx *gin.Context) {
	var req FreeChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	stream, errChan := c.AIService.ChatStream(ctx.Request.Context(), []service.ChatMessage{
		{Role: "system", Content: service.FreeChatSystemPrompt},
		{Role: "user", Content: req.Question},
	}, 1000)

	ctx.Header("Content-Type", "text/event-stream")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")
	ctx.Header("Transfer-Encoding", "chunked")

	for content := range stream {
		ctx.SSEvent("message", content)
		ctx.Writer.Flush()
	}

	if err := <-errChan; err != nil {
		ctx.SSEvent("error", err.Error())
		ctx.Writer.Flush()
	}

	ctx.SSEvent("end", "done")
	ctx.Writer.Flush()
}
