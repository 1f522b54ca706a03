package service

import (
	"crypto/rand"
	"errors"
	"jumpahead_backend/internal/model"
	"jumpahead_backend/internal/repository"
	"jumpahead_backend/internal/util"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CourseSummary 课程及其统计信息（教师列表页用）
type CourseSummary struct {
	model.Course
	EnrollmentCount int64 `json:"enrollmentCount"`
	ModuleCount     int64 `json:"moduleCount"`
}

type CourseService struct {
	CourseRepo *repository.CourseRepository
	EnrollRepo *repository.CourseEnrollmentRepository
}

func NewCourseService(courseRepo *repository.CourseRepository, enrollRepo *repository.CourseEnrollmentRepository) *CourseService {
	return &CourseService{
		CourseRepo: courseRepo,
		EnrollRepo: enrollRepo,
	}
}

// 选课码字符集不含易混淆字符（0/O、1/I）
const courseCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generateCourseCode() string {
	b := make([]byte, 8)
	rand.Read(b)
	for i := range b {
		b[i] = courseCodeAlphabet[int(b[i])%len(courseCodeAlphabet)]
	}
	return string(b)
}

// CreateCourse 教师创建课程，自动生成唯一选课码。
// 码冲突概率极低，冲突时重试数次
func (s *CourseService) CreateCourse(userID uint, name string) (*model.Course, error) {
	var lastErr error
	for i := 0; i < 3; i++ {
		course := &model.Course{
			CourseName: name,
			UserID:     userID,
			CourseCode: generateCourseCode(),
		}
		if err := s.CourseRepo.Create(course); err != nil {
			lastErr = err
			continue
		}
		return course, nil
	}
	return nil, lastErr
}

// ListForTeacher 教师拥有的课程，带选课人数与模块数
func (s *CourseService) ListForTeacher(userID uint) ([]CourseSummary, error) {
	courses, err := s.CourseRepo.FindByOwner(userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]CourseSummary, 0, len(courses))
	for _, course := range courses {
		enrollments, modules, err := s.CourseRepo.Counts(course.ID)
		if err != nil {
			zap.L().Error("课程统计查询失败",
				zap.String("course_id", course.ID),
				zap.Error(err))
		}
		summaries = append(summaries, CourseSummary{
			Course:          course,
			EnrollmentCount: enrollments,
			ModuleCount:     modules,
		})
	}
	return summaries, nil
}

// ListForStudent 学生已激活选课的课程
func (s *CourseService) ListForStudent(userID uint) ([]model.Course, error) {
	ids, err := s.EnrollRepo.ActiveCourseIDs(userID)
	if err != nil {
		return nil, err
	}
	return s.CourseRepo.FindByIDs(ids)
}

func (s *CourseService) GetCourse(courseID string) (*model.Course, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	return course, nil
}

// UpdateCourse 仅课程所有者可改
func (s *CourseService) UpdateCourse(userID uint, courseID, name string) (*model.Course, error) {
	course, err := s.GetCourse(courseID)
	if err != nil {
		return nil, err
	}
	if course.UserID != userID {
		return nil, util.ErrPermissionDenied
	}

	course.CourseName = name
	if err := s.CourseRepo.Update(course); err != nil {
		return nil, err
	}
	return course, nil
}

// EnrollByCode 学生凭选课码加入课程。重复选课直接报错，
// 码不存在与课程不存在对外表现一致
func (s *CourseService) EnrollByCode(user *model.User, code string) (*model.Course, error) {
	if user.Role != model.Student {
		return nil, util.ErrStudentsOnly
	}

	course, err := s.CourseRepo.FindByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseCodeNotFound
		}
		return nil, err
	}

	_, err = s.EnrollRepo.FindByCourseAndUser(course.ID, user.ID)
	if err == nil {
		return nil, util.ErrAlreadyEnrolled
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	enrollment := &model.CourseEnrollment{
		CourseID: course.ID,
		UserID:   user.ID,
		Status:   model.EnrollmentActive,
	}
	if err := s.EnrollRepo.Create(enrollment); err != nil {
		return nil, err
	}

	zap.L().Info("学生选课成功",
		zap.Uint("user_id", user.ID),
		zap.String("course_id", course.ID))
	return course, nil
}
