package repository

import (
	"jumpahead_backend/internal/model"

	"gorm.io/gorm"
)

type CourseEnrollmentRepository struct {
	DB *gorm.DB
}

func NewCourseEnrollmentRepository(db *gorm.DB) *CourseEnrollmentRepository {
	return &CourseEnrollmentRepository{DB: db}
}

func (r *CourseEnrollmentRepository) Create(enrollment *model.CourseEnrollment) error {
	return r.DB.Create(enrollment).Error
}

func (r *CourseEnrollmentRepository) FindByCourseAndUser(courseID string, userID uint) (*model.CourseEnrollment, error) {
	var enrollment model.CourseEnrollment
	err := r.DB.Where("course_id = ? AND user_id = ?", courseID, userID).First(&enrollment).Error
	return &enrollment, err
}

// ActiveCourseIDs 学生当前激活选课的课程ID列表
func (r *CourseEnrollmentRepository) ActiveCourseIDs(userID uint) ([]string, error) {
	var ids []string
	err := r.DB.Model(&model.CourseEnrollment{}).
		Where("user_id = ? AND status = ?", userID, model.EnrollmentActive).
		Pluck("course_id", &ids).Error
	return ids, err
}

func (r *CourseEnrollmentRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.CourseEnrollment{}).
		Where("user_id = ? AND status = ?", userID, model.EnrollmentActive).
		Count(&count).Error
	return count, err
}
