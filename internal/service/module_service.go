package service

import (
	"context"
	"encoding/json"
	"errors"
	"jumpahead_backend/internal/model"
	"jumpahead_backend/internal/repository"
	"jumpahead_backend/internal/util"

	"gorm.io/gorm"
)

// ModuleService 学习模块的创作与管理。创作对话无服务端会话，
// 前端每次携带完整消息列表
type ModuleService struct {
	ModuleRepo *repository.ModuleRepository
	CourseRepo *repository.CourseRepository
	EnrollRepo *repository.ModuleEnrollmentRepository
	AI         ChatClient
}

func NewModuleService(
	moduleRepo *repository.ModuleRepository,
	courseRepo *repository.CourseRepository,
	enrollRepo *repository.ModuleEnrollmentRepository,
	ai ChatClient,
) *ModuleService {
	return &ModuleService{
		ModuleRepo: moduleRepo,
		CourseRepo: courseRepo,
		EnrollRepo: enrollRepo,
		AI:         ai,
	}
}

// AuthorChat 教师建模对话一轮。服务端注入系统提示词后转发
func (s *ModuleService) AuthorChat(ctx context.Context, messages []ChatMessage) (string, error) {
	full := append([]ChatMessage{{Role: "system", Content: authoringSystemPrompt}}, messages...)
	return s.AI.Chat(ctx, PurposeAuthor, full, authorMaxTokens, authorTemperature)
}

// AuthorSummary 把建模对话压缩成结构化摘要，作为模块描述的草稿
func (s *ModuleService) AuthorSummary(ctx context.Context, messages []ChatMessage) (string, error) {
	full := append([]ChatMessage{{Role: "system", Content: authoringSystemPrompt}}, messages...)
	full = append(full, ChatMessage{Role: "user", Content: authoringSummaryPrompt})
	return s.AI.Chat(ctx, PurposeAuthor, full, summaryMaxTokens, authorTemperature)
}

// AuthorReport 生成完整的模块设计报告
func (s *ModuleService) AuthorReport(ctx context.Context, messages []ChatMessage) (string, error) {
	full := append([]ChatMessage{{Role: "system", Content: authoringSystemPrompt}}, messages...)
	full = append(full, ChatMessage{Role: "user", Content: authoringReportPrompt})
	return s.AI.Chat(ctx, PurposeAuthorReport, full, reportMaxTokens, authorTemperature)
}

// CreateModule 在课程下创建模块，仅课程所有者可操作
func (s *ModuleService) CreateModule(userID uint, courseID, title, description string, knowledgeSources []string) (*model.LearningModule, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	if course.UserID != userID {
		return nil, util.ErrPermissionDenied
	}

	sources, err := encodeSources(knowledgeSources)
	if err != nil {
		return nil, err
	}

	module := &model.LearningModule{
		CourseID:         courseID,
		UserID:           userID,
		Title:            title,
		Description:      description,
		KnowledgeSources: sources,
	}
	if err := s.ModuleRepo.Create(module); err != nil {
		return nil, err
	}
	return module, nil
}

func (s *ModuleService) GetModule(moduleID string) (*model.LearningModule, error) {
	module, err := s.ModuleRepo.FindByID(moduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrModuleNotFound
		}
		return nil, err
	}
	return module, nil
}

func (s *ModuleService) ListByCourse(courseID string) ([]model.LearningModule, error) {
	if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	return s.ModuleRepo.FindByCourse(courseID)
}

// ModuleWithProgress 模块及当前学生的学习进度
type ModuleWithProgress struct {
	model.LearningModule
	Status   model.ModuleStatus `json:"status"`
	AvgScore *float64           `json:"avgScore"`
}

// ListForStudent 课程下的模块列表，合并学生自己的进度。
// 没有选课记录的模块按 not_started 展示
func (s *ModuleService) ListForStudent(courseID string, userID uint) ([]ModuleWithProgress, error) {
	modules, err := s.ListByCourse(courseID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(modules))
	for i, m := range modules {
		ids[i] = m.ID
	}
	enrollments, err := s.EnrollRepo.FindByModules(userID, ids)
	if err != nil {
		return nil, err
	}
	byModule := make(map[string]*model.ModuleEnrollment, len(enrollments))
	for i := range enrollments {
		byModule[enrollments[i].LearningModuleID] = &enrollments[i]
	}

	result := make([]ModuleWithProgress, 0, len(modules))
	for _, m := range modules {
		p := ModuleWithProgress{LearningModule: m, Status: model.ModuleNotStarted}
		if e, ok := byModule[m.ID]; ok {
			p.Status = e.Status
			p.AvgScore = e.SavedAvgScore
		}
		result = append(result, p)
	}
	return result, nil
}

// UpdateModule 仅模块创建者可改
func (s *ModuleService) UpdateModule(userID uint, moduleID, title, description string, knowledgeSources []string) (*model.LearningModule, error) {
	module, err := s.GetModule(moduleID)
	if err != nil {
		return nil, err
	}
	if module.UserID != userID {
		return nil, util.ErrPermissionDenied
	}

	if title != "" {
		module.Title = title
	}
	if description != "" {
		module.Description = description
	}
	if knowledgeSources != nil {
		sources, err := encodeSources(knowledgeSources)
		if err != nil {
			return nil, err
		}
		module.KnowledgeSources = sources
	}

	if err := s.ModuleRepo.Update(module); err != nil {
		return nil, err
	}
	return module, nil
}

// AddKnowledgeSource 追加一个知识源 URL（文件上传后调用）
func (s *ModuleService) AddKnowledgeSource(userID uint, moduleID, url string) (*model.LearningModule, error) {
	module, err := s.GetModule(moduleID)
	if err != nil {
		return nil, err
	}
	if module.UserID != userID {
		return nil, util.ErrPermissionDenied
	}

	urls := s.ModuleRepo.KnowledgeSourceURLs(module)
	urls = append(urls, url)
	sources, err := encodeSources(urls)
	if err != nil {
		return nil, err
	}
	module.KnowledgeSources = sources

	if err := s.ModuleRepo.Update(module); err != nil {
		return nil, err
	}
	return module, nil
}

func encodeSources(urls []string) (string, error) {
	if len(urls) == 0 {
		return "", nil
	}
	data, err := json.Marshal(urls)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
