package repository

import (
	"jumpahead_backend/internal/model"

	"gorm.io/gorm"
)

type ProfileRepository struct {
	DB *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{DB: db}
}

func (r *ProfileRepository) FindByUserID(userID uint) (*model.UserProfile, error) {
	var profile model.UserProfile
	err := r.DB.Where("user_id = ?", userID).First(&profile).Error
	return &profile, err
}

// Upsert 已存在则更新，否则插入
func (r *ProfileRepository) Upsert(profile *model.UserProfile) error {
	var existing model.UserProfile
	err := r.DB.Where("user_id = ?", profile.UserID).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return r.DB.Create(profile).Error
	}
	if err != nil {
		return err
	}

	existing.Role = profile.Role
	existing.SchoolOrUniversity = profile.SchoolOrUniversity
	existing.DepartmentOrSubject = profile.DepartmentOrSubject
	return r.DB.Save(&existing).Error
}
