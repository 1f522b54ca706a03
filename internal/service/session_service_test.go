package service

import (
	"context"
	"jumpahead_backend/internal/model"
	"jumpahead_backend/internal/repository"
	"jumpahead_backend/internal/util"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// 测试库用 sqlite 内存库，表结构与生产迁移等价（去掉 MySQL 方言）
var testSchema = []string{
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
	`CREATE TABLE module_enrollments (
		id varchar(36) PRIMARY KEY,
		created_at datetime,
		updated_at datetime,
		deleted_at datetime,
		user_id integer NOT NULL,
		learning_module_id varchar(36) NOT NULL,
		status varchar(20) DEFAULT 'not_started',
		saved_chat_history text,
		saved_evaluation text,
		saved_avg_score real,
		completed_at datetime,
		UNIQUE(user_id, learning_module_id)
	)`,
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	for _, stmt := range testSchema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

// fakeChat 按用途返回预设回复，并记录调用次数
type fakeChat struct {
	mu      sync.Mutex
	replies map[string][]string
	errs    map[string]error
	calls   map[string]int
}

func newFakeChat() *fakeChat {
	return &fakeChat{
		replies: make(map[string][]string),
		errs:    make(map[string]error),
		calls:   make(map[string]int),
	}
}

func (f *fakeChat) on(purpose string, replies ...string) {
	f.replies[purpose] = append(f.replies[purpose], replies...)
}

func (f *fakeChat) fail(purpose string, err error) {
	f.errs[purpose] = err
}

func (f *fakeChat) Chat(ctx context.Context, purpose string, messages []ChatMessage, maxTokens int, temperature float64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[purpose]++

	if err, ok := f.errs[purpose]; ok {
		return "", err
	}

	queue := f.replies[purpose]
	if len(queue) == 0 {
		return "", util.ErrAIUnavailable
	}
	reply := queue[0]
	f.replies[purpose] = queue[1:]
	return reply, nil
}

func newTestSession(t *testing.T, ai ChatClient) (*SessionService, *gorm.DB, string) {
	t.Helper()
	db := newTestDB(t)

	module := &model.LearningModule{
		CourseID:    model.GenerateUUID(),
		UserID:      99,
		Title:       "Photosynthesis Basics",
		Description: "Students will explain how plants convert light into chemical energy.",
	}
	require.NoError(t, db.Create(module).Error)

	svc := NewSessionService(
		repository.NewModuleRepository(db),
		repository.NewModuleEnrollmentRepository(db),
		ai,
		NewKnowledgeService(configKnowledge(), nil),
	)
	return svc, db, module.ID
}

func TestLoadSessionStartsNew(t *testing.T) {
	ai := newFakeChat()
	ai.on(PurposeSessionOpen, "## Overview\nWelcome!\n\n## Question\nWhat do plants need to grow?")
	svc, db, moduleID := newTestSession(t, ai)

	view, err := svc.LoadSession(context.Background(), 1, moduleID)
	require.NoError(t, err)

	assert.Equal(t, model.ModuleStarted, view.Status)
	require.Len(t, view.Turns, 1)
	assert.Equal(t, model.TurnAssistant, view.Turns[0].Role)
	assert.Contains(t, view.Turns[0].Content, "What do plants need to grow?")
	assert.Empty(t, view.Evaluation)
	assert.Nil(t, view.AvgScore)

	// 落库校验
	var enrollment model.ModuleEnrollment
	require.NoError(t, db.Where("user_id = ? AND learning_module_id = ?", 1, moduleID).First(&enrollment).Error)
	assert.Equal(t, model.ModuleStarted, enrollment.Status)
	assert.NotEmpty(t, enrollment.SavedChatHistory)
}

func TestLoadSessionResumeIsIdempotent(t *testing.T) {
	ai := newFakeChat()
	ai.on(PurposeSessionOpen, "first greeting")
	svc, _, moduleID := newTestSession(t, ai)

	first, err := svc.LoadSession(context.Background(), 1, moduleID)
	require.NoError(t, err)

	// 重建服务实例，模拟进程重启后从持久层恢复
	svc2 := NewSessionService(svc.moduleRepo, svc.enrollRepo, ai, svc.knowledge)
	second, err := svc2.LoadSession(context.Background(), 1, moduleID)
	require.NoError(t, err)

	assert.Equal(t, first.Turns, second.Turns)
	assert.Equal(t, 1, ai.calls[PurposeSessionOpen], "恢复不应再次调用开场生成")
}

func TestLoadSessionFallbackGreeting(t *testing.T) {
	ai := newFakeChat()
	ai.fail(PurposeSessionOpen, util.ErrAIUnavailable)
	svc, _, moduleID := newTestSession(t, ai)

	view, err := svc.LoadSession(context.Background(), 1, moduleID)
	require.NoError(t, err)

	require.Len(t, view.Turns, 1)
	assert.Equal(t, "Welcome to this learning module. How would you like to begin?", view.Turns[0].Content)
}

func TestLoadSessionModuleMissing(t *testing.T) {
	svc, _, _ := newTestSession(t, newFakeChat())

	_, err := svc.LoadSession(context.Background(), 1, "no-such-module")
	assert.ErrorIs(t, err, util.ErrModuleNotFound)
}

func TestAppendTurn(t *testing.T) {
	ai := newFakeChat()
	ai.on(PurposeSessionOpen, "greeting")
	ai.on(PurposeTutorTurn, "**Good!** Now, what role does chlorophyll play?")
	svc, _, moduleID := newTestSession(t, ai)

	_, err := svc.LoadSession(context.Background(), 1, moduleID)
	require.NoError(t, err)

	view, err := svc.AppendTurn(context.Background(), 1, moduleID, "Plants need sunlight and water.", "")
	require.NoError(t, err)

	require.Len(t, view.Turns, 3)
	assert.Equal(t, model.TurnStudent, view.Turns[1].Role)
	assert.Equal(t, "Plants need sunlight and water.", view.Turns[1].Content)
	assert.Equal(t, model.TurnAssistant, view.Turns[2].Role)
	assert.Contains(t, view.Turns[2].Content, "chlorophyll")
}

func TestAppendTurnEmptyInput(t *testing.T) {
	ai := newFakeChat()
	ai.on(PurposeSessionOpen, "greeting")
	svc, _, moduleID := newTestSession(t, ai)

	_, err := svc.LoadSession(context.Background(), 1, moduleID)
	require.NoError(t, err)

	_, err = svc.AppendTurn(context.Background(), 1, moduleID, "   ", "")
	assert.ErrorIs(t, err, util.ErrEmptyInput)
}

func TestAppendTurnAIFailureKeepsStudentMessage(t *testing.T) {
	ai := newFakeChat()
	ai.on(PurposeSessionOpen, "greeting")
	ai.fail(PurposeTutorTurn, util.ErrAIUnavailable)
	svc, _, moduleID := newTestSession(t, ai)

	_, err := svc.LoadSession(context.Background(), 1, moduleID)
	require.NoError(t, err)

	view, err := svc.AppendTurn(context.Background(), 1, moduleID, "My answer.", "")
	require.NoError(t, err)

	require.Len(t, view.Turns, 3)
	assert.Equal(t, "My answer.", view.Turns[1].Content)
	assert.Contains(t, view.Turns[2].Content, "unable to generate a response")
}

func TestEvaluateNoStudentTurn(t *testing.T) {
	ai := newFakeChat()
	ai.on(PurposeSessionOpen, "greeting")
	svc, _, moduleID := newTestSession(t, ai)

	_, err := svc.LoadSession(context.Background(), 1, moduleID)
	require.NoError(t, err)

	_, err = svc.Evaluate(context.Background(), 1, moduleID)
	assert.ErrorIs(t, err, util.ErrNoStudentTurn)
}

func TestEvaluateBelowThreshold(t *testing.T) {
	ai := newFakeChat()
	ai.on(PurposeSessionOpen, "greeting")
	ai.on(PurposeTutorTurn, "next question")
	ai.on(PurposeEvaluate, sampleEvaluation([6]int{3, 4, 2, 5, 1, 3}, "initial", "3.0"))
	svc, _, moduleID := newTestSession(t, ai)

	_, err := svc.LoadSession(context.Background(), 1, moduleID)
	require.NoError(t, err)
	_, err = svc.AppendTurn(context.Background(), 1, moduleID, "An answer.", "")
	require.NoError(t, err)

	view, err := svc.Evaluate(context.Background(), 1, moduleID)
	require.NoError(t, err)

	require.NotNil(t, view.AvgScore)
	assert.Equal(t, 3.0, *view.AvgScore)
	assert.Equal(t, model.ModuleStarted, view.Status)
	assert.Nil(t, view.CompletedAt)
}

func TestEvaluateMergeAndComplete(t *testing.T) {
	ai := newFakeChat()
	ai.on(PurposeSessionOpen, "greeting")
	ai.on(PurposeTutorTurn, "q1", "q2")
	ai.on(PurposeEvaluate,
		sampleEvaluation([6]int{3, 4, 2, 5, 1, 3}, "old", "3.0"),
		sampleEvaluation([6]int{4, 3, 3, 2, 5, 4}, "new", "3.5"))
	// AI 合并返回自由文本，触发本地确定性合并
	ai.on(PurposeMerge, "I merged the evaluations, great progress!")
	svc, db, moduleID := newTestSession(t, ai)

	ctx := context.Background()
	_, err := svc.LoadSession(ctx, 1, moduleID)
	require.NoError(t, err)

	_, err = svc.AppendTurn(ctx, 1, moduleID, "First answer.", "")
	require.NoError(t, err)
	_, err = svc.Evaluate(ctx, 1, moduleID)
	require.NoError(t, err)

	_, err = svc.AppendTurn(ctx, 1, moduleID, "Second answer.", "")
	require.NoError(t, err)
	view, err := svc.Evaluate(ctx, 1, moduleID)
	require.NoError(t, err)

	// 逐维度取高分：[4,4,3,5,5,4] => 4.2，达到完成阈值
	require.NotNil(t, view.AvgScore)
	assert.Equal(t, 4.2, *view.AvgScore)
	assert.Equal(t, model.ModuleCompleted, view.Status)
	assert.NotNil(t, view.CompletedAt)

	var enrollment model.ModuleEnrollment
	require.NoError(t, db.Where("user_id = ? AND learning_module_id = ?", 1, moduleID).First(&enrollment).Error)
	assert.Equal(t, model.ModuleCompleted, enrollment.Status)
	require.NotNil(t, enrollment.SavedAvgScore)
	assert.Equal(t, 4.2, *enrollment.SavedAvgScore)
	assert.NotNil(t, enrollment.CompletedAt)
}

func TestCompletedModuleRejectsTurns(t *testing.T) {
	ai := newFakeChat()
	ai.on(PurposeSessionOpen, "greeting")
	ai.on(PurposeTutorTurn, "q")
	ai.on(PurposeEvaluate, sampleEvaluation([6]int{5, 5, 5, 5, 5, 5}, "perfect", "5.0"))
	svc, _, moduleID := newTestSession(t, ai)

	ctx := context.Background()
	_, err := svc.LoadSession(ctx, 1, moduleID)
	require.NoError(t, err)
	_, err = svc.AppendTurn(ctx, 1, moduleID, "A perfect answer.", "")
	require.NoError(t, err)

	view, err := svc.Evaluate(ctx, 1, moduleID)
	require.NoError(t, err)
	assert.Equal(t, model.ModuleCompleted, view.Status)

	_, err = svc.AppendTurn(ctx, 1, moduleID, "One more thing...", "")
	assert.ErrorIs(t, err, util.ErrAlreadyCompleted)
}

func TestEvaluateFailureKeepsPriorEvaluation(t *testing.T) {
	ai := newFakeChat()
	ai.on(PurposeSessionOpen, "greeting")
	ai.on(PurposeTutorTurn, "q1", "q2")
	ai.on(PurposeEvaluate, sampleEvaluation([6]int{3, 3, 3, 3, 3, 3}, "first", "3.0"))
	svc, _, moduleID := newTestSession(t, ai)

	ctx := context.Background()
	_, err := svc.LoadSession(ctx, 1, moduleID)
	require.NoError(t, err)
	_, err = svc.AppendTurn(ctx, 1, moduleID, "Answer one.", "")
	require.NoError(t, err)
	_, err = svc.Evaluate(ctx, 1, moduleID)
	require.NoError(t, err)

	// 第二次评价返回不可解析的文本
	ai.on(PurposeEvaluate, "Sorry, I cannot evaluate right now.")
	_, err = svc.AppendTurn(ctx, 1, moduleID, "Answer two.", "")
	require.NoError(t, err)
	_, err = svc.Evaluate(ctx, 1, moduleID)
	require.Error(t, err)

	view, err := svc.GetEvaluation(ctx, 1, moduleID)
	require.NoError(t, err)
	require.NotNil(t, view.AvgScore)
	assert.Equal(t, 3.0, *view.AvgScore)
}

func TestSaveDoesNotTransition(t *testing.T) {
	ai := newFakeChat()
	ai.on(PurposeSessionOpen, "greeting")
	svc, db, moduleID := newTestSession(t, ai)

	ctx := context.Background()
	_, err := svc.LoadSession(ctx, 1, moduleID)
	require.NoError(t, err)

	view, err := svc.Save(ctx, 1, moduleID)
	require.NoError(t, err)
	assert.Equal(t, model.ModuleStarted, view.Status)

	// 并发打开同一模块也只有一行记录
	var count int64
	require.NoError(t, db.Model(&model.ModuleEnrollment{}).
		Where("user_id = ? AND learning_module_id = ?", 1, moduleID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
