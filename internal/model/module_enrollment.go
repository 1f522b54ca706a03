package model

import "time"

type ModuleStatus string

const (
	ModuleNotStarted ModuleStatus = "not_started"
	ModuleStarted    ModuleStatus = "started"
	ModuleCompleted  ModuleStatus = "completed"
)

type TurnRole string

const (
	TurnAssistant TurnRole = "assistant"
	TurnStudent   TurnRole = "student"
)

// Turn 对话中的一条消息，会话内只追加、不重排
type Turn struct {
	Role     TurnRole `json:"role"`
	Content  string   `json:"content"`
	ImageURL string   `json:"imageUrl,omitempty"`
}

// ModuleEnrollment 学生与学习模块的关联记录，(user_id, learning_module_id) 唯一。
// 不变量：status=completed 时 saved_avg_score >= 4.0 且 completed_at 非空，
// 完成后不再接受新的对话输入（由 service 层拒绝）。
type ModuleEnrollment struct {
	UUIDBase
	UserID           uint         `gorm:"type:bigint unsigned;not null;uniqueIndex:idx_user_module" json:"userId"`
	LearningModuleID string       `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_module" json:"learningModuleId"`
	Status           ModuleStatus `gorm:"type:enum('not_started','started','completed');default:'not_started'" json:"status"`
	// 对话历史，JSON []Turn
	SavedChatHistory string     `gorm:"type:json" json:"savedChatHistory"`
	// 最近一次（已合并的）评价全文
	SavedEvaluation  string     `gorm:"type:longtext" json:"savedEvaluation"`
	SavedAvgScore    *float64   `json:"savedAvgScore"`
	CompletedAt      *time.Time `json:"completedAt"`
}

func (ModuleEnrollment) TableName() string {
	return "module_enrollments"
}
