package repository

import (
	"encoding/json"
	"jumpahead_backend/internal/model"

	"gorm.io/gorm"
)

type ModuleRepository struct {
	DB *gorm.DB
}

func NewModuleRepository(db *gorm.DB) *ModuleRepository {
	return &ModuleRepository{DB: db}
}

func (r *ModuleRepository) Create(module *model.LearningModule) error {
	return r.DB.Create(module).Error
}

func (r *ModuleRepository) FindByID(id string) (*model.LearningModule, error) {
	var module model.LearningModule
	err := r.DB.Where("id = ?", id).First(&module).Error
	return &module, err
}

func (r *ModuleRepository) FindByCourse(courseID string) ([]model.LearningModule, error) {
	var modules []model.LearningModule
	err := r.DB.Where("course_id = ?", courseID).Order("created_at ASC").Find(&modules).Error
	return modules, err
}

func (r *ModuleRepository) Update(module *model.LearningModule) error {
	return r.DB.Save(module).Error
}

// KnowledgeSourceURLs 解析 JSON 列里的知识源 URL 列表，空列容错
func (r *ModuleRepository) KnowledgeSourceURLs(module *model.LearningModule) []string {
	if module.KnowledgeSources == "" {
		return nil
	}
	var urls []string
	if err := json.Unmarshal([]byte(module.KnowledgeSources), &urls); err != nil {
		return nil
	}
	return urls
}
