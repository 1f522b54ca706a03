package controller

import (
	"errors"
	"jumpahead_backend/internal/service"
	"jumpahead_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	SessionService *service.SessionService
	StorageService *service.StorageService
}

func NewSessionController(sessionService *service.SessionService, storageService *service.StorageService) *SessionController {
	return &SessionController{
		SessionService: sessionService,
		StorageService: storageService,
	}
}

// Load godoc
// @Summary 打开学习会话
// @Description 有保存进度则恢复，否则生成开场白并开始新会话
// @Tags 学习会话
// @Produce  json
// @Security ApiKeyAuth
// @Param   moduleId path string true "模块ID"
// @Success 200 {object} util.Response{data=service.SessionView} "成功"
// @Failure 404 {object} util.Response "模块不存在"
// @Router /api/sessions/{moduleId} [post]
func (c *SessionController) Load(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.SessionService.LoadSession(ctx.Request.Context(), claims.UserID, ctx.Param("moduleId"))
	if err != nil {
		if errors.Is(err, util.ErrModuleNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, view)
}

// swagger:model TurnRequest
type TurnRequest struct {
	Content  string `json:"content" binding:"required"`
	ImageURL string `json:"imageUrl"`
}

// Turn godoc
// @Summary 学生发言
// @Description 追加一轮对话并返回 AI 助教回复。已完成的模块拒绝新轮次
// @Tags 学习会话
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   moduleId path string true "模块ID"
// @Param   body body TurnRequest true "学生消息"
// @Success 200 {object} util.Response{data=service.SessionView} "成功"
// @Failure 400 {object} util.Response "消息为空"
// @Failure 404 {object} util.Response "模块不存在"
// @Failure 409 {object} util.Response "模块已完成"
// @Router /api/sessions/{moduleId}/turns [post]
func (c *SessionController) Turn(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req TurnRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	view, err := c.SessionService.AppendTurn(ctx.Request.Context(), claims.UserID, ctx.Param("moduleId"), req.Content, req.ImageURL)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrEmptyInput):
			util.BadRequest(ctx, "消息不能为空")
		case errors.Is(err, util.ErrModuleNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrAlreadyCompleted):
			util.Error(ctx, 409, "该模块已完成")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, view)
}

// Evaluate godoc
// @Summary 评价最近一次学生发言
// @Description 生成评价并与既有评价合并，平均分达标自动置完成
// @Tags 学习会话
// @Produce  json
// @Security ApiKeyAuth
// @Param   moduleId path string true "模块ID"
// @Success 200 {object} util.Response{data=service.SessionView} "成功"
// @Failure 404 {object} util.Response "模块不存在"
// @Failure 422 {object} util.Response "无可评价的学生发言"
// @Failure 503 {object} util.Response "AI 服务不可用"
// @Router /api/sessions/{moduleId}/evaluate [post]
func (c *SessionController) Evaluate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.SessionService.Evaluate(ctx.Request.Context(), claims.UserID, ctx.Param("moduleId"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrModuleNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrNoStudentTurn):
			util.Error(ctx, 422, "暂无可评价的学生发言")
		case errors.Is(err, util.ErrAIUnavailable):
			util.Error(ctx, 503, "AI 服务暂不可用，评价保持不变")
		case errors.Is(err, util.ErrMalformedEvaluation), errors.Is(err, util.ErrUnparseableScore):
			util.Error(ctx, 502, "评价结果格式异常，评价保持不变")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, view)
}

// Save godoc
// @Summary 保存会话进度
// @Description 显式保存当前对话与评价，不做状态迁移。前端离开页面时调用
// @Tags 学习会话
// @Produce  json
// @Security ApiKeyAuth
// @Param   moduleId path string true "模块ID"
// @Success 200 {object} util.Response{data=service.SessionView} "成功"
// @Router /api/sessions/{moduleId}/save [post]
func (c *SessionController) Save(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.SessionService.Save(ctx.Request.Context(), claims.UserID, ctx.Param("moduleId"))
	if err != nil {
		if errors.Is(err, util.ErrModuleNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, view)
}

// GetEvaluation godoc
// @Summary 当前评价快照
// @Tags 学习会话
// @Produce  json
// @Security ApiKeyAuth
// @Param   moduleId path string true "模块ID"
// @Success 200 {object} util.Response{data=service.SessionView} "成功"
// @Router /api/sessions/{moduleId}/evaluation [get]
func (c *SessionController) GetEvaluation(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.SessionService.GetEvaluation(ctx.Request.Context(), claims.UserID, ctx.Param("moduleId"))
	if err != nil {
		if errors.Is(err, util.ErrModuleNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, view)
}

// UploadImage godoc
// @Summary 上传对话图片附件
// @Description 返回的 URL 随学生消息一起提交
// @Tags 学习会话
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   file formData file true "图片文件"
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/sessions/upload-image [post]
func (c *SessionController) UploadImage(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	url, err := c.StorageService.UploadChatImage(
		ctx.Request.Context(), claims.UserID, fileHeader.Filename,
		file, fileHeader.Size, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"url": url})
}
