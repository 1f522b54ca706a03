package repository

import (
	"jumpahead_backend/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newEnrollmentDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Exec(`CREATE TABLE module_enrollments (
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
	)`).Error)
	return db
}

func TestUpsertCollapsesToOneRow(t *testing.T) {
	db := newEnrollmentDB(t)
	repo := NewModuleEnrollmentRepository(db)
	moduleID := model.GenerateUUID()

	first := &model.ModuleEnrollment{
		UserID:           7,
		LearningModuleID: moduleID,
		Status:           model.ModuleStarted,
		SavedChatHistory: `[{"role":"assistant","content":"hi"}]`,
	}
	require.NoError(t, repo.Upsert(first))

	score := 4.5
	now := time.Now()
	second := &model.ModuleEnrollment{
		UserID:           7,
		LearningModuleID: moduleID,
		Status:           model.ModuleCompleted,
		SavedChatHistory: `[{"role":"assistant","content":"hi"},{"role":"student","content":"hello"}]`,
		SavedAvgScore:    &score,
		CompletedAt:      &now,
	}
	require.NoError(t, repo.Upsert(second))

	var count int64
	require.NoError(t, db.Model(&model.ModuleEnrollment{}).
		Where("user_id = ? AND learning_module_id = ?", 7, moduleID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)

	stored, err := repo.FindByUserAndModule(7, moduleID)
	require.NoError(t, err)
	assert.Equal(t, model.ModuleCompleted, stored.Status)
	require.NotNil(t, stored.SavedAvgScore)
	assert.Equal(t, 4.5, *stored.SavedAvgScore)
	assert.NotNil(t, stored.CompletedAt)
}

func TestEnsureStarted(t *testing.T) {
	db := newEnrollmentDB(t)
	repo := NewModuleEnrollmentRepository(db)
	moduleID := model.GenerateUUID()

	// 无记录时建行并置 started
	enrollment, err := repo.EnsureStarted(3, moduleID)
	require.NoError(t, err)
	assert.Equal(t, model.ModuleStarted, enrollment.Status)

	// 重复调用幂等
	again, err := repo.EnsureStarted(3, moduleID)
	require.NoError(t, err)
	assert.Equal(t, enrollment.ID, again.ID)

	// 已完成的记录不回退
	score := 4.0
	now := time.Now()
	enrollment.Status = model.ModuleCompleted
	enrollment.SavedAvgScore = &score
	enrollment.CompletedAt = &now
	require.NoError(t, repo.Update(enrollment))

	done, err := repo.EnsureStarted(3, moduleID)
	require.NoError(t, err)
	assert.Equal(t, model.ModuleCompleted, done.Status)
}

func TestHistoryRoundTrip(t *testing.T) {
	turns := []model.Turn{
		{Role: model.TurnAssistant, Content: "Welcome"},
		{Role: model.TurnStudent, Content: "Hi", ImageURL: "/uploads/x.png"},
	}

	encoded, err := EncodeHistory(turns)
	require.NoError(t, err)

	decoded, err := DecodeHistory(&model.ModuleEnrollment{SavedChatHistory: encoded})
	require.NoError(t, err)
	assert.Equal(t, turns, decoded)
}

func TestDecodeHistoryEmpty(t *testing.T) {
	decoded, err := DecodeHistory(&model.ModuleEnrollment{})
	require.NoError(t, err)
	assert.Nil(t, decoded)
}
