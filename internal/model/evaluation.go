package model

// 布鲁姆分类法六个评价维度，顺序固定
var EvaluationCategories = []string{
	"Remembering",
	"Understanding",
	"Applying",
	"Analyzing",
	"Evaluating",
	"Creating",
}

// CategoryScore 单个维度的得分与证据
type CategoryScore struct {
	Category string `json:"category"`
	Score    int    `json:"score"` // 0-5
	Evidence string `json:"evidence"`
}

// Evaluation AI 评价的结构化形式。每次模型返回后立刻严格解析，
// 原始文本保留用于持久化与展示。
type Evaluation struct {
	Categories []CategoryScore `json:"categories"` // 按 EvaluationCategories 顺序
	Average    float64         `json:"average"`    // 六项均值，一位小数
	RawText    string          `json:"rawText"`
}

// Scores 返回按固定顺序排列的六个分数
func (e *Evaluation) Scores() []int {
	scores := make([]int, len(e.Categories))
	for i, c := range e.Categories {
		scores[i] = c.Score
	}
	return scores
}
