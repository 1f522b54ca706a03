package service

import (
	"jumpahead_backend/internal/model"
	"jumpahead_backend/internal/repository"
)

// StudentDashboard 学生首页统计
type StudentDashboard struct {
	EnrolledCourses  int64    `json:"enrolledCourses"`
	ModulesStarted   int      `json:"modulesStarted"`
	ModulesCompleted int      `json:"modulesCompleted"`
	AverageScore     *float64 `json:"averageScore"`
}

// TeacherDashboard 教师首页统计
type TeacherDashboard struct {
	Courses          int   `json:"courses"`
	Modules          int64 `json:"modules"`
	EnrolledStudents int64 `json:"enrolledStudents"`
}

type DashboardService struct {
	CourseRepo       *repository.CourseRepository
	CourseEnrollRepo *repository.CourseEnrollmentRepository
	ModuleEnrollRepo *repository.ModuleEnrollmentRepository
}

func NewDashboardService(
	courseRepo *repository.CourseRepository,
	courseEnrollRepo *repository.CourseEnrollmentRepository,
	moduleEnrollRepo *repository.ModuleEnrollmentRepository,
) *DashboardService {
	return &DashboardService{
		CourseRepo:       courseRepo,
		CourseEnrollRepo: courseEnrollRepo,
		ModuleEnrollRepo: moduleEnrollRepo,
	}
}

// ForStudent 汇总学生的选课数与模块进度。平均分只统计有评价的模块
func (s *DashboardService) ForStudent(userID uint) (*StudentDashboard, error) {
	courses, err := s.CourseEnrollRepo.CountByUser(userID)
	if err != nil {
		return nil, err
	}

	enrollments, err := s.ModuleEnrollRepo.FindByUser(userID)
	if err != nil {
		return nil, err
	}

	dashboard := &StudentDashboard{EnrolledCourses: courses}
	sum, scored := 0.0, 0
	for _, e := range enrollments {
		switch e.Status {
		case model.ModuleStarted:
			dashboard.ModulesStarted++
		case model.ModuleCompleted:
			dashboard.ModulesCompleted++
		}
		if e.SavedAvgScore != nil {
			sum += *e.SavedAvgScore
			scored++
		}
	}
	if scored > 0 {
		avg := sum / float64(scored)
		dashboard.AverageScore = &avg
	}
	return dashboard, nil
}

// ForTeacher 汇总教师的课程、模块与学生规模
func (s *DashboardService) ForTeacher(userID uint) (*TeacherDashboard, error) {
	courses, err := s.CourseRepo.FindByOwner(userID)
	if err != nil {
		return nil, err
	}

	dashboard := &TeacherDashboard{Courses: len(courses)}
	for _, course := range courses {
		enrollments, modules, err := s.CourseRepo.Counts(course.ID)
		if err != nil {
			return nil, err
		}
		dashboard.EnrolledStudents += enrollments
		dashboard.Modules += modules
	}
	return dashboard, nil
}
