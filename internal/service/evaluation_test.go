package service

import (
	"jumpahead_backend/internal/model"
	"jumpahead_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvaluation(scores [6]int, evidencePrefix string, avg string) string {
	text := "## Evaluation Results\n"
	for i, c := range model.EvaluationCategories {
		text += "- **" + c + "**: " + string(rune('0'+scores[i])) + "/5\n"
	}
	text += "\n### Evidence\n"
	for _, c := range model.EvaluationCategories {
		text += "- **" + c + "**: " + evidencePrefix + " evidence for " + c + "\n"
	}
	text += "\n**Average Score:** " + avg + "\n"
	return text
}

func TestExtractAverageScore(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  float64
		found bool
	}{
		{"标准格式", "**Average Score:** 4.2", 4.2, true},
		{"整数分", "Average Score: 3", 3, true},
		{"大小写不敏感", "the average score is 2.5 overall", 2.5, true},
		{"格式噪音", "**Average Score** - *4.0*", 4.0, true},
		{"全角混排", "Average Score：4.5", 4.5, true},
		{"换行阻断", "Average Score:\n4.0", 0, false},
		{"缺失", "The student did well overall.", 0, false},
		{"空文本", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractAverageScore(tt.text)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseEvaluation(t *testing.T) {
	text := sampleEvaluation([6]int{3, 4, 2, 5, 1, 3}, "initial", "3.0")

	eval, err := ParseEvaluation(text)
	require.NoError(t, err)

	assert.Equal(t, []int{3, 4, 2, 5, 1, 3}, eval.Scores())
	assert.Equal(t, 3.0, eval.Average)
	assert.Equal(t, text, eval.RawText)
	assert.Equal(t, "Remembering", eval.Categories[0].Category)
	assert.Contains(t, eval.Categories[0].Evidence, "initial evidence for Remembering")
}

func TestParseEvaluationMissingCategory(t *testing.T) {
	text := "## Evaluation Results\n- **Remembering**: 3/5\n\n**Average Score:** 3.0\n"

	_, err := ParseEvaluation(text)
	assert.ErrorIs(t, err, util.ErrMalformedEvaluation)
}

func TestParseEvaluationMissingAverage(t *testing.T) {
	text := "## Evaluation Results\n"
	for _, c := range model.EvaluationCategories {
		text += "- **" + c + "**: 3/5\n"
	}

	_, err := ParseEvaluation(text)
	assert.ErrorIs(t, err, util.ErrUnparseableScore)
}

func TestParseEvaluationFreeProse(t *testing.T) {
	_, err := ParseEvaluation("Great job! Keep going.")
	assert.Error(t, err)
}

func TestMergeEvaluations(t *testing.T) {
	current, err := ParseEvaluation(sampleEvaluation([6]int{3, 4, 2, 5, 1, 3}, "old", "3.0"))
	require.NoError(t, err)
	latest, err := ParseEvaluation(sampleEvaluation([6]int{4, 3, 3, 2, 5, 4}, "new", "3.5"))
	require.NoError(t, err)

	merged := MergeEvaluations(current, latest)

	assert.Equal(t, []int{4, 4, 3, 5, 5, 4}, merged.Scores())
	assert.Equal(t, 4.2, merged.Average)

	// 高分一方的证据保留；平分取较新的
	assert.Contains(t, merged.Categories[0].Evidence, "new")  // 4 > 3
	assert.Contains(t, merged.Categories[1].Evidence, "old")  // 4 > 3
	assert.Contains(t, merged.Categories[3].Evidence, "old")  // 5 > 2
}

func TestMergeEvaluationsEqualScoresFavorLatest(t *testing.T) {
	current, err := ParseEvaluation(sampleEvaluation([6]int{3, 3, 3, 3, 3, 3}, "old", "3.0"))
	require.NoError(t, err)
	latest, err := ParseEvaluation(sampleEvaluation([6]int{3, 3, 3, 3, 3, 3}, "new", "3.0"))
	require.NoError(t, err)

	merged := MergeEvaluations(current, latest)

	assert.Equal(t, 3.0, merged.Average)
	for _, c := range merged.Categories {
		assert.Contains(t, c.Evidence, "new")
	}
}

func TestMergeOutputReparses(t *testing.T) {
	current, err := ParseEvaluation(sampleEvaluation([6]int{1, 2, 3, 4, 5, 0}, "a", "2.5"))
	require.NoError(t, err)
	latest, err := ParseEvaluation(sampleEvaluation([6]int{5, 4, 3, 2, 1, 2}, "b", "2.8"))
	require.NoError(t, err)

	merged := MergeEvaluations(current, latest)

	// 合并输出本身必须满足标准格式，可再次参与合并
	reparsed, err := ParseEvaluation(merged.RawText)
	require.NoError(t, err)
	assert.Equal(t, merged.Scores(), reparsed.Scores())
	assert.Equal(t, merged.Average, reparsed.Average)
}

func TestFormatEvaluation(t *testing.T) {
	eval := &model.Evaluation{Average: 4.0}
	for _, c := range model.EvaluationCategories {
		eval.Categories = append(eval.Categories, model.CategoryScore{Category: c, Score: 4, Evidence: "solid work"})
	}

	text := FormatEvaluation(eval)
	assert.Contains(t, text, "## Evaluation Results")
	assert.Contains(t, text, "- **Creating**: 4/5")
	assert.Contains(t, text, "### Evidence")
	assert.Contains(t, text, "**Average Score:** 4.0")

	avg, ok := ExtractAverageScore(text)
	require.True(t, ok)
	assert.Equal(t, 4.0, avg)
}
