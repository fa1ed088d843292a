package task_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/motart/ordernimbus-fresh/internal/model"
	"github.com/motart/ordernimbus-fresh/internal/storage"
	"github.com/motart/ordernimbus-fresh/internal/task"
	"github.com/motart/ordernimbus-fresh/internal/testutil"
)

func openHistoryDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	database, openErr := storage.OpenDatabase(testutil.NewSQLiteTestDatabase(t).Configuration())
	require.NoError(t, openErr)
	require.NoError(t, storage.AutoMigrate(database))
	return testutil.ConfigureDatabaseLogger(t, database)
}

func persistRunFinishedAt(t *testing.T, database *gorm.DB, finishedAt time.Time) model.CheckRun {
	t.Helper()
	run, runErr := model.NewCheckRun(model.CheckRunInput{
		ID:         storage.NewID(),
		SuiteName:  "auth-config",
		TargetURL:  "https://app.example.com",
		StartedAt:  finishedAt.Add(-time.Minute),
		FinishedAt: finishedAt,
	})
	require.NoError(t, runErr)
	run.RecordCase(model.CaseStatusPassed)

	results := []model.CheckResult{{
		ID:       storage.NewID(),
		RunID:    run.ID,
		CaseName: "config endpoint returns complete data",
		Status:   model.CaseStatusPassed,
	}}
	require.NoError(t, storage.PersistRun(database, run, results))
	return run
}

func TestHistoryPruneDeletesRunsPastRetention(t *testing.T) {
	database := openHistoryDatabase(t)

	staleRun := persistRunFinishedAt(t, database, time.Now().UTC().Add(-40*24*time.Hour))
	freshRun := persistRunFinishedAt(t, database, time.Now().UTC())

	pruneJob := task.NewHistoryPruneJob(database, zap.NewNop(), task.HistoryPruneConfig{RetentionDays: 30})
	require.NoError(t, pruneJob.Run(context.Background()))

	var remainingRuns []model.CheckRun
	require.NoError(t, database.Find(&remainingRuns).Error)
	require.Len(t, remainingRuns, 1)
	require.Equal(t, freshRun.ID, remainingRuns[0].ID)

	var staleResultCount int64
	require.NoError(t, database.Model(&model.CheckResult{}).Where("run_id = ?", staleRun.ID).Count(&staleResultCount).Error)
	require.Zero(t, staleResultCount)

	var freshResultCount int64
	require.NoError(t, database.Model(&model.CheckResult{}).Where("run_id = ?", freshRun.ID).Count(&freshResultCount).Error)
	require.EqualValues(t, 1, freshResultCount)
}

func TestHistoryPruneDisabledWithoutRetention(t *testing.T) {
	database := openHistoryDatabase(t)
	persistRunFinishedAt(t, database, time.Now().UTC().Add(-400*24*time.Hour))

	pruneJob := task.NewHistoryPruneJob(database, zap.NewNop(), task.HistoryPruneConfig{})
	require.NoError(t, pruneJob.Run(context.Background()))

	var runCount int64
	require.NoError(t, database.Model(&model.CheckRun{}).Count(&runCount).Error)
	require.EqualValues(t, 1, runCount)
}

func TestHistoryPruneKeepsRunsInsideWindow(t *testing.T) {
	database := openHistoryDatabase(t)
	persistRunFinishedAt(t, database, time.Now().UTC().Add(-6*24*time.Hour))

	pruneJob := task.NewHistoryPruneJob(database, zap.NewNop(), task.HistoryPruneConfig{RetentionDays: 7})
	require.NoError(t, pruneJob.Run(context.Background()))

	var runCount int64
	require.NoError(t, database.Model(&model.CheckRun{}).Count(&runCount).Error)
	require.EqualValues(t, 1, runCount)
}
