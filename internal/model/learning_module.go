package model

type LearningModule struct {
	UUIDBase
	CourseID string `gorm:"index;type:varchar(36);not null" json:"courseId"`
	// 模块创建者（教师）
	UserID uint   `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	Title  string `gorm:"size:255;not null" json:"title"`
	// 教案全文，作为每次 AI 调用的上下文
	Description string `gorm:"type:longtext" json:"description"`
	// 知识源 URL 列表，JSON string array: ["https://...", ...]
	KnowledgeSources string `gorm:"type:json" json:"knowledgeSources"`
}

func (LearningModule) TableName() string {
	return "learning_modules"
}
