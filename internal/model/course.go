package model

import "time"

type Course struct {
	UUIDBase
	CourseName string `gorm:"size:255;not null" json:"courseName"`
	// 课程创建者（教师）
	UserID uint `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	// 学生加入课程用的短码
	CourseCode string `gorm:"size:12;uniqueIndex;not null" json:"courseCode"`
}

func (Course) TableName() string {
	return "courses"
}

type EnrollmentStatus string

const (
	EnrollmentActive   EnrollmentStatus = "active"
	EnrollmentInactive EnrollmentStatus = "inactive"
)

type CourseEnrollment struct {
	UUIDBase
	CourseID   string           `gorm:"type:varchar(36);not null;uniqueIndex:idx_course_user" json:"courseId"`
	UserID     uint             `gorm:"type:bigint unsigned;not null;uniqueIndex:idx_course_user" json:"userId"`
	Status     EnrollmentStatus `gorm:"type:enum('active','inactive');default:'active'" json:"status"`
	EnrolledAt time.Time        `gorm:"default:CURRENT_TIMESTAMP(3)" json:"enrolledAt"`
}

func (CourseEnrollment) TableName() string {
	return "course_enrollments"
}
