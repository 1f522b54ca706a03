package util

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailRegistered     = errors.New("该邮箱已被注册")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrProfileNotFound     = errors.New("profile not found")
	ErrCourseNotFound      = errors.New("course not found")
	ErrCourseCodeNotFound  = errors.New("no course found with that code")
	ErrAlreadyEnrolled     = errors.New("already enrolled in this course")
	ErrStudentsOnly        = errors.New("only students can enroll in courses")
	ErrModuleNotFound      = errors.New("learning module not found")
	ErrEnrollmentNotFound  = errors.New("module enrollment not found")
	ErrAlreadyCompleted    = errors.New("module already completed")
	ErrEmptyInput          = errors.New("message is empty")
	ErrAIUnavailable   = errors.New("AI service unavailable")
	ErrNoStudentTurn       = errors.New("no student message found to evaluate")
	ErrUnparseableScore    = errors.New("no average score found in evaluation")
	ErrMalformedEvaluation = errors.New("evaluation text does not match rubric layout")
)
