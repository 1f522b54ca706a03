package service

import (
	"fmt"
	"jumpahead_backend/internal/model"
	"jumpahead_backend/internal/util"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// 平均分提取：匹配 "Average Score" 后第一个数字，中间允许任意
// 非数字非换行字符（冒号、星号、空格等格式噪音）
var averageScorePattern = regexp.MustCompile(`(?i)Average Score[^0-9\n]*?([0-9]+(\.[0-9]+)?)`)

// ExtractAverageScore 从评价文本中提取平均分。找不到时返回 (0, false)，
// 调用方不得把缺失当作 0 分
func ExtractAverageScore(text string) (float64, bool) {
	m := averageScorePattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	score, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return score, true
}

// 单维度得分行："- **Remembering**: 3/5" 之类，格式噪音同样容错
func categoryScorePattern(category string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\*\*` + regexp.QuoteMeta(category) + `\*\*[^0-9\n]*?([0-9])\s*/\s*5`)
}

// 证据行："- **Remembering**: 证据内容"，只在 Evidence 区段内匹配
func categoryEvidencePattern(category string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\*\*` + regexp.QuoteMeta(category) + `\*\*\s*[:：]?\s*(.+)`)
}

// ParseEvaluation 把模型返回的评价文本严格解析成结构化记录。
// 六个维度任一缺分、分值越界或平均分缺失都视为格式错误，
// 返回 util.ErrMalformedEvaluation 让调用方决定回退策略。
func ParseEvaluation(text string) (*model.Evaluation, error) {
	eval := &model.Evaluation{RawText: text}

	// Evidence 区段之前是得分区段；没有该标题时整段文本既找分也找证据
	scoreSection, evidenceSection := text, text
	if idx := strings.Index(text, "### Evidence"); idx >= 0 {
		scoreSection = text[:idx]
		evidenceSection = text[idx:]
	}

	for _, category := range model.EvaluationCategories {
		m := categoryScorePattern(category).FindStringSubmatch(scoreSection)
		if m == nil {
			return nil, fmt.Errorf("%w: missing score for %s", util.ErrMalformedEvaluation, category)
		}
		score, err := strconv.Atoi(m[1])
		if err != nil || score < 0 || score > 5 {
			return nil, fmt.Errorf("%w: invalid score for %s", util.ErrMalformedEvaluation, category)
		}

		evidence := ""
		if em := categoryEvidencePattern(category).FindStringSubmatch(evidenceSection); em != nil {
			evidence = strings.TrimSpace(em[1])
		}

		eval.Categories = append(eval.Categories, model.CategoryScore{
			Category: category,
			Score:    score,
			Evidence: evidence,
		})
	}

	avg, ok := ExtractAverageScore(text)
	if !ok {
		return nil, fmt.Errorf("%w: missing average score", util.ErrUnparseableScore)
	}
	eval.Average = avg
	return eval, nil
}

// MergeEvaluations 确定性合并：逐维度取较高分及其证据，平分时取
// latest 的证据。平均分按合并后分数重算，保留一位小数。
// AI 合并结果解析失败时以此作为兜底，保证合并操作总能推进。
func MergeEvaluations(current, latest *model.Evaluation) *model.Evaluation {
	merged := &model.Evaluation{}
	sum := 0
	for i, category := range model.EvaluationCategories {
		cur, lat := current.Categories[i], latest.Categories[i]
		pick := lat
		if cur.Score > lat.Score {
			pick = cur
		}
		merged.Categories = append(merged.Categories, model.CategoryScore{
			Category: category,
			Score:    pick.Score,
			Evidence: pick.Evidence,
		})
		sum += pick.Score
	}
	merged.Average = math.Round(float64(sum)/float64(len(model.EvaluationCategories))*10) / 10
	merged.RawText = FormatEvaluation(merged)
	return merged
}

// FormatEvaluation 按评价的标准展示格式渲染结构化记录
func FormatEvaluation(eval *model.Evaluation) string {
	var b strings.Builder
	b.WriteString("## Evaluation Results\n")
	for _, c := range eval.Categories {
		fmt.Fprintf(&b, "- **%s**: %d/5\n", c.Category, c.Score)
	}
	b.WriteString("\n### Evidence\n")
	for _, c := range eval.Categories {
		fmt.Fprintf(&b, "- **%s**: %s\n", c.Category, c.Evidence)
	}
	fmt.Fprintf(&b, "\n**Average Score:** %.1f\n", eval.Average)
	return b.String()
}
