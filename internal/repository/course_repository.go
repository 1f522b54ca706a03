package repository

import (
	"jumpahead_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

func (r *CourseRepository) FindByID(id string) (*model.Course, error) {
	var course model.Course
	err := r.DB.Where("id = ?", id).First(&course).Error
	return &course, err
}

func (r *CourseRepository) FindByCode(code string) (*model.Course, error) {
	var course model.Course
	err := r.DB.Where("course_code = ?", code).First(&course).Error
	return &course, err
}

// FindByOwner 教师创建的全部课程
func (r *CourseRepository) FindByOwner(userID uint) ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&courses).Error
	return courses, err
}

// FindByIDs 按课程ID集合查询（学生端：已激活选课的课程）
func (r *CourseRepository) FindByIDs(ids []string) ([]model.Course, error) {
	var courses []model.Course
	if len(ids) == 0 {
		return courses, nil
	}
	err := r.DB.Where("id IN ?", ids).Order("created_at DESC").Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) Update(course *model.Course) error {
	return r.DB.Save(course).Error
}

// Counts 课程下的选课人数与模块数
func (r *CourseRepository) Counts(courseID string) (enrollments int64, modules int64, err error) {
	if err = r.DB.Model(&model.CourseEnrollment{}).
		Where("course_id = ?", courseID).
		Count(&enrollments).Error; err != nil {
		return
	}
	err = r.DB.Model(&model.LearningModule{}).
		Where("course_id = ?", courseID).
		Count(&modules).Error
	return
}
