package service

import (
	"jumpahead_backend/internal/model"
	"jumpahead_backend/internal/repository"
	"jumpahead_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"gorm.io/driver/sqlite"
)

func newCourseDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	stmts := []string{
		`CREATE TABLE courses (
			id varchar(36) PRIMARY KEY,
			created_at datetime,
			updated_at datetime,
			deleted_at datetime,
			course_name varchar(255),
			user_id integer,
			course_code varchar(12) UNIQUE
		)`,
		`CREATE TABLE course_enrollments (
			id varchar(36) PRIMARY KEY,
			created_at datetime,
			updated_at datetime,
			deleted_at datetime,
			course_id varchar(36) NOT NULL,
			user_id integer NOT NULL,
			status varchar(20) DEFAULT 'active',
			enrolled_at datetime,
			UNIQUE(course_id, user_id)
		)`,
		`CREATE TABLE learning_modules (
			id varchar(36) PRIMARY KEY,
			created_at datetime,
			updated_at datetime,
			deleted_at datetime,
			course_id varchar(36),
			user_id integer,
			title varchar(255),
			description text,
			knowledge_sources text
		)`,
	}
	for _, stmt := range stmts {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newCourseService(t *testing.T) (*CourseService, *gorm.DB) {
	db := newCourseDB(t)
	return NewCourseService(
		repository.NewCourseRepository(db),
		repository.NewCourseEnrollmentRepository(db),
	), db
}

func TestCreateCourseGeneratesCode(t *testing.T) {
	svc, _ := newCourseService(t)

	course, err := svc.CreateCourse(1, "Intro to Biology")
	require.NoError(t, err)

	assert.Equal(t, "Intro to Biology", course.CourseName)
	assert.Len(t, course.CourseCode, 8)
	assert.NotEmpty(t, course.ID)

	// 两门课的选课码不同
	other, err := svc.CreateCourse(1, "Advanced Biology")
	require.NoError(t, err)
	assert.NotEqual(t, course.CourseCode, other.CourseCode)
}

func TestEnrollByCode(t *testing.T) {
	svc, _ := newCourseService(t)

	course, err := svc.CreateCourse(1, "Chemistry 101")
	require.NoError(t, err)

	student := &model.User{BaseModel: model.BaseModel{ID: 2}, Role: model.Student}
	enrolled, err := svc.EnrollByCode(student, course.CourseCode)
	require.NoError(t, err)
	assert.Equal(t, course.ID, enrolled.ID)

	// 重复选课
	_, err = svc.EnrollByCode(student, course.CourseCode)
	assert.ErrorIs(t, err, util.ErrAlreadyEnrolled)

	// 学生列表能看到该课程
	courses, err := svc.ListForStudent(2)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, course.ID, courses[0].ID)
}

func TestEnrollByCodeTeacherRejected(t *testing.T) {
	svc, _ := newCourseService(t)

	course, err := svc.CreateCourse(1, "Physics")
	require.NoError(t, err)

	teacher := &model.User{BaseModel: model.BaseModel{ID: 1}, Role: model.Teacher}
	_, err = svc.EnrollByCode(teacher, course.CourseCode)
	assert.ErrorIs(t, err, util.ErrStudentsOnly)
}

func TestEnrollByCodeInvalidCode(t *testing.T) {
	svc, _ := newCourseService(t)

	student := &model.User{BaseModel: model.BaseModel{ID: 2}, Role: model.Student}
	_, err := svc.EnrollByCode(student, "NOPE1234")
	assert.ErrorIs(t, err, util.ErrCourseCodeNotFound)
}

func TestListForTeacherIncludesCounts(t *testing.T) {
	svc, db := newCourseService(t)

	course, err := svc.CreateCourse(1, "History")
	require.NoError(t, err)

	student := &model.User{BaseModel: model.BaseModel{ID: 2}, Role: model.Student}
	_, err = svc.EnrollByCode(student, course.CourseCode)
	require.NoError(t, err)

	require.NoError(t, db.Create(&model.LearningModule{
		CourseID: course.ID,
		UserID:   1,
		Title:    "Unit 1",
	}).Error)

	summaries, err := svc.ListForTeacher(1)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, int64(1), summaries[0].EnrollmentCount)
	assert.Equal(t, int64(1), summaries[0].ModuleCount)
}

func TestUpdateCoursePermission(t *testing.T) {
	svc, _ := newCourseService(t)

	course, err := svc.CreateCourse(1, "Art")
	require.NoError(t, err)

	_, err = svc.UpdateCourse(42, course.ID, "Stolen Art")
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	updated, err := svc.UpdateCourse(1, course.ID, "Modern Art")
	require.NoError(t, err)
	assert.Equal(t, "Modern Art", updated.CourseName)
}
