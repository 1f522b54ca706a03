package model

import (
	"time"
)

type UserRole string

const (
	Student UserRole = "student"
	Teacher UserRole = "teacher"
)

// swagger:model User
type User struct {
	BaseModel
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:100;unique;not null" json:"email"`
	Password  string    `gorm:"size:100;not null" json:"-"`
	Role      UserRole  `gorm:"type:enum('student','teacher');default:'student'" json:"role"`
	LastLogin time.Time `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastLogin"`
}

func (User) TableName() string {
	return "users"
}

// UserProfile 补充资料，注册后由用户完善
type UserProfile struct {
	BaseModel
	UserID              uint     `gorm:"uniqueIndex;type:bigint unsigned" json:"userId"`
	Role                UserRole `gorm:"type:enum('student','teacher')" json:"role"`
	SchoolOrUniversity  string   `gorm:"size:255" json:"schoolOrUniversity"`
	DepartmentOrSubject string   `gorm:"size:255" json:"departmentOrSubject"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}
