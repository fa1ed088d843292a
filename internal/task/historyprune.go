package task

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/motart/ordernimbus-fresh/internal/model"
)

const (
	logEventHistoryPruned   = "run_history_pruned"
	logFieldPrunedRuns      = "pruned_runs"
	logFieldRetentionCutoff = "retention_cutoff"
	hoursPerDay             = 24
	historyPruneCutoffField = "finished_at"
)

// HistoryPruneConfig defines how long completed runs are retained.
// RetentionDays of zero or less disables pruning.
type HistoryPruneConfig struct {
	RetentionDays int
}

// HistoryPruneJob deletes check runs, and their per-case results, that
// finished before the retention cutoff.
type HistoryPruneJob struct {
	database *gorm.DB
	logger   *zap.Logger
	config   HistoryPruneConfig
}

// NewHistoryPruneJob builds a HistoryPruneJob.
func NewHistoryPruneJob(database *gorm.DB, logger *zap.Logger, config HistoryPruneConfig) *HistoryPruneJob {
	return &HistoryPruneJob{
		database: database,
		logger:   logger,
		config:   config,
	}
}

// Run deletes everything older than the retention window in one transaction.
func (job *HistoryPruneJob) Run(ctx context.Context) error {
	if job.config.RetentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().Add(-time.Duration(job.config.RetentionDays) * hoursPerDay * time.Hour)

	var staleRunIDs []string
	transactionErr := job.database.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		pluckErr := transaction.Model(&model.CheckRun{}).
			Where(historyPruneCutoffField+" < ?", cutoff).
			Pluck("id", &staleRunIDs).Error
		if pluckErr != nil {
			return pluckErr
		}
		if len(staleRunIDs) == 0 {
			return nil
		}
		if deleteErr := transaction.Where("run_id IN ?", staleRunIDs).Delete(&model.CheckResult{}).Error; deleteErr != nil {
			return deleteErr
		}
		return transaction.Where("id IN ?", staleRunIDs).Delete(&model.CheckRun{}).Error
	})
	if transactionErr != nil {
		return transactionErr
	}

	if len(staleRunIDs) > 0 && job.logger != nil {
		job.logger.Info(logEventHistoryPruned,
			zap.Int(logFieldPrunedRuns, len(staleRunIDs)),
			zap.Time(logFieldRetentionCutoff, cutoff),
		)
	}
	return nil
}
