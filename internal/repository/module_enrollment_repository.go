package repository

import (
	"encoding/json"
	"jumpahead_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ModuleEnrollmentRepository struct {
	DB *gorm.DB
}

func NewModuleEnrollmentRepository(db *gorm.DB) *ModuleEnrollmentRepository {
	return &ModuleEnrollmentRepository{DB: db}
}

func (r *ModuleEnrollmentRepository) FindByUserAndModule(userID uint, moduleID string) (*model.ModuleEnrollment, error) {
	var enrollment model.ModuleEnrollment
	err := r.DB.Where("user_id = ? AND learning_module_id = ?", userID, moduleID).
		First(&enrollment).Error
	return &enrollment, err
}

func (r *ModuleEnrollmentRepository) FindByUser(userID uint) ([]model.ModuleEnrollment, error) {
	var enrollments []model.ModuleEnrollment
	err := r.DB.Where("user_id = ?", userID).Find(&enrollments).Error
	return enrollments, err
}

func (r *ModuleEnrollmentRepository) FindByModules(userID uint, moduleIDs []string) ([]model.ModuleEnrollment, error) {
	var enrollments []model.ModuleEnrollment
	if len(moduleIDs) == 0 {
		return enrollments, nil
	}
	err := r.DB.Where("user_id = ? AND learning_module_id IN ?", userID, moduleIDs).
		Find(&enrollments).Error
	return enrollments, err
}

// Upsert 以 (user_id, learning_module_id) 为冲突键：存在则更新，否则插入。
// 两个标签页同时打开同一模块时只会产生一行。
func (r *ModuleEnrollmentRepository) Upsert(enrollment *model.ModuleEnrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = model.GenerateUUID()
	}
	return r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "learning_module_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "saved_chat_history", "saved_evaluation", "saved_avg_score", "completed_at", "updated_at",
		}),
	}).Create(enrollment).Error
}

// EnsureStarted 不存在则建行并置 started；已完成的记录不回退
func (r *ModuleEnrollmentRepository) EnsureStarted(userID uint, moduleID string) (*model.ModuleEnrollment, error) {
	enrollment, err := r.FindByUserAndModule(userID, moduleID)
	if err == gorm.ErrRecordNotFound {
		enrollment = &model.ModuleEnrollment{
			UserID:           userID,
			LearningModuleID: moduleID,
			Status:           model.ModuleStarted,
		}
		if err := r.Upsert(enrollment); err != nil {
			return nil, err
		}
		return enrollment, nil
	}
	if err != nil {
		return nil, err
	}

	if enrollment.Status == model.ModuleNotStarted {
		enrollment.Status = model.ModuleStarted
		if err := r.DB.Model(enrollment).Update("status", model.ModuleStarted).Error; err != nil {
			return nil, err
		}
	}
	return enrollment, nil
}

func (r *ModuleEnrollmentRepository) Update(enrollment *model.ModuleEnrollment) error {
	return r.DB.Save(enrollment).Error
}

// DecodeHistory 解析 JSON 对话历史；空值返回 nil
func DecodeHistory(enrollment *model.ModuleEnrollment) ([]model.Turn, error) {
	if enrollment.SavedChatHistory == "" {
		return nil, nil
	}
	var turns []model.Turn
	if err := json.Unmarshal([]byte(enrollment.SavedChatHistory), &turns); err != nil {
		return nil, err
	}
	return turns, nil
}

// EncodeHistory 序列化对话历史
func EncodeHistory(turns []model.Turn) (string, error) {
	if len(turns) == 0 {
		return "", nil
	}
	data, err := json.Marshal(turns)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
