package controller

import (
	"errors"
	"jumpahead_backend/internal/model"
	"jumpahead_backend/internal/service"
	"jumpahead_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ModuleController struct {
	ModuleService  *service.ModuleService
	StorageService *service.StorageService
}

func NewModuleController(moduleService *service.ModuleService, storageService *service.StorageService) *ModuleController {
	return &ModuleController{
		ModuleService:  moduleService,
		StorageService: storageService,
	}
}

// swagger:model CreateModuleRequest
type CreateModuleRequest struct {
	CourseID         string   `json:"courseId" binding:"required"`
	Title            string   `json:"title" binding:"required"`
	Description      string   `json:"description" binding:"required"`
	KnowledgeSources []string `json:"knowledgeSources"`
}

// Create godoc
// @Summary 创建学习模块
// @Description 教师在课程下创建 AI 辅导模块，description 为完整教案
// @Tags 学习模块
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body CreateModuleRequest true "模块信息"
// @Success 201 {object} util.Response{data=model.LearningModule} "创建成功"
// @Failure 403 {object} util.Response "无权限"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/modules [post]
func (c *ModuleController) Create(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req CreateModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	module, err := c.ModuleService.CreateModule(claims.UserID, req.CourseID, req.Title, req.Description, req.KnowledgeSources)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrCourseNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, module)
}

// Get godoc
// @Summary 模块详情
// @Tags 学习模块
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "模块ID"
// @Success 200 {object} util.Response{data=model.LearningModule} "成功"
// @Failure 404 {object} util.Response "模块不存在"
// @Router /api/modules/{id} [get]
func (c *ModuleController) Get(ctx *gin.Context) {
	module, err := c.ModuleService.GetModule(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrModuleNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, module)
}

// ListByCourse godoc
// @Summary 课程下的模块列表
// @Description 学生视角合并本人学习进度
// @Tags 学习模块
// @Produce  json
// @Security ApiKeyAuth
// @Param   courseId path string true "课程ID"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{courseId}/modules [get]
func (c *ModuleController) ListByCourse(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	courseID := ctx.Param("courseId")

	if claims.Role == model.Student {
		modules, err := c.ModuleService.ListForStudent(courseID, claims.UserID)
		if err != nil {
			if errors.Is(err, util.ErrCourseNotFound) {
				util.NotFound(ctx)
			} else {
				util.LogInternalError(ctx, err)
			}
			return
		}
		util.Success(ctx, modules)
		return
	}

	modules, err := c.ModuleService.ListByCourse(courseID)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, modules)
}

// swagger:model UpdateModuleRequest
type UpdateModuleRequest struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	KnowledgeSources []string `json:"knowledgeSources"`
}

// Update godoc
// @Summary 更新模块
// @Description 仅模块创建者可修改
// @Tags 学习模块
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "模块ID"
// @Param   body body UpdateModuleRequest true "模块信息"
// @Success 200 {object} util.Response{data=model.LearningModule} "成功"
// @Failure 403 {object} util.Response "无权限"
// @Failure 404 {object} util.Response "模块不存在"
// @Router /api/modules/{id} [put]
func (c *ModuleController) Update(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req UpdateModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	module, err := c.ModuleService.UpdateModule(claims.UserID, ctx.Param("id"), req.Title, req.Description, req.KnowledgeSources)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrModuleNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, module)
}

// swagger:model AuthorChatRequest
type AuthorChatRequest struct {
	Messages []service.ChatMessage `json:"messages" binding:"required"`
}

// AuthorChat godoc
// @Summary 建模助手对话
// @Description 教师与 AI 协作设计模块，前端携带完整对话历史
// @Tags 学习模块
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body AuthorChatRequest true "对话历史"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 503 {object} util.Response "AI 服务不可用"
// @Router /api/modules/author/chat [post]
func (c *ModuleController) AuthorChat(ctx *gin.Context) {
	var req AuthorChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	reply, err := c.ModuleService.AuthorChat(ctx.Request.Context(), req.Messages)
	if err != nil {
		util.Error(ctx, 503, "AI 服务暂不可用")
		return
	}
	util.Success(ctx, gin.H{"reply": reply})
}

// AuthorSummary godoc
// @Summary 生成模块设计摘要
// @Tags 学习模块
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body AuthorChatRequest true "对话历史"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 503 {object} util.Response "AI 服务不可用"
// @Router /api/modules/author/summary [post]
func (c *ModuleController) AuthorSummary(ctx *gin.Context) {
	var req AuthorChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	summary, err := c.ModuleService.AuthorSummary(ctx.Request.Context(), req.Messages)
	if err != nil {
		util.Error(ctx, 503, "AI 服务暂不可用")
		return
	}
	util.Success(ctx, gin.H{"summary": summary})
}

// AuthorReport godoc
// @Summary 生成模块设计报告
// @Tags 学习模块
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body AuthorChatRequest true "对话历史"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 503 {object} util.Response "AI 服务不可用"
// @Router /api/modules/author/report [post]
func (c *ModuleController) AuthorReport(ctx *gin.Context) {
	var req AuthorChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	report, err := c.ModuleService.AuthorReport(ctx.Request.Context(), req.Messages)
	if err != nil {
		util.Error(ctx, 503, "AI 服务暂不可用")
		return
	}
	util.Success(ctx, gin.H{"report": report})
}

// UploadKnowledgeSource godoc
// @Summary 上传知识源文档
// @Description 上传文件并追加到模块的知识源列表
// @Tags 学习模块
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "模块ID"
// @Param   file formData file true "知识源文件"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 403 {object} util.Response "无权限"
// @Failure 404 {object} util.Response "模块不存在"
// @Router /api/modules/{id}/knowledge-sources [post]
func (c *ModuleController) UploadKnowledgeSource(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	moduleID := ctx.Param("id")

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

	url, err := c.StorageService.UploadKnowledgeSource(
		ctx.Request.Context(), moduleID, fileHeader.Filename,
		file, fileHeader.Size, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	module, err := c.ModuleService.AddKnowledgeSource(claims.UserID, moduleID, url)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrModuleNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"url": url, "module": module})
}
