package model

import (
	"errors"
	"strings"
	"time"
)

// RunStatus is the aggregate outcome of one suite execution.
type RunStatus string

const (
	RunStatusPassed RunStatus = "passed"
	RunStatusFailed RunStatus = "failed"
)

// CaseStatus is the outcome of one test case within a suite run.
type CaseStatus string

const (
	CaseStatusPassed       CaseStatus = "passed"
	CaseStatusFailed       CaseStatus = "failed"
	CaseStatusInconclusive CaseStatus = "inconclusive"
)

var (
	ErrInvalidRunSuiteName = errors.New("model: check run requires a suite name")
	ErrInvalidRunTargetURL = errors.New("model: check run requires a target URL")
)

// CheckRun records one execution of a verification suite against a target
// deployment.
type CheckRun struct {
	ID                string    `gorm:"primaryKey;size:36"`
	SuiteName         string    `gorm:"index;not null;size:100"`
	TargetURL         string    `gorm:"not null;size:500"`
	Status            RunStatus `gorm:"not null;size:20"`
	TotalCases        int       `gorm:"not null"`
	PassedCases       int       `gorm:"not null"`
	FailedCases       int       `gorm:"not null"`
	InconclusiveCases int       `gorm:"not null"`
	StartedAt         time.Time `gorm:"not null"`
	FinishedAt        time.Time `gorm:"not null"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
}

// CheckResult records the outcome of one test case within a run. Diagnostics
// joins the per-predicate failure and inconclusive messages.
type CheckResult struct {
	ID          string     `gorm:"primaryKey;size:36"`
	RunID       string     `gorm:"index;not null;size:36"`
	CaseName    string     `gorm:"not null;size:200"`
	Status      CaseStatus `gorm:"not null;size:20"`
	Diagnostics string     `gorm:"size:4000"`
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
}

// CheckRunInput carries the fields needed to construct a CheckRun.
type CheckRunInput struct {
	ID         string
	SuiteName  string
	TargetURL  string
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewCheckRun validates the input and returns a CheckRun with zeroed
// counters; callers account cases via RecordCase.
func NewCheckRun(input CheckRunInput) (CheckRun, error) {
	trimmedSuiteName := strings.TrimSpace(input.SuiteName)
	if trimmedSuiteName == "" {
		return CheckRun{}, ErrInvalidRunSuiteName
	}
	trimmedTargetURL := strings.TrimSpace(input.TargetURL)
	if trimmedTargetURL == "" {
		return CheckRun{}, ErrInvalidRunTargetURL
	}
	return CheckRun{
		ID:         input.ID,
		SuiteName:  trimmedSuiteName,
		TargetURL:  trimmedTargetURL,
		Status:     RunStatusPassed,
		StartedAt:  input.StartedAt,
		FinishedAt: input.FinishedAt,
	}, nil
}

// RecordCase folds one case outcome into the run counters. Any failed case
// makes the whole run failed.
func (run *CheckRun) RecordCase(status CaseStatus) {
	run.TotalCases++
	switch status {
	case CaseStatusPassed:
		run.PassedCases++
	case CaseStatusFailed:
		run.FailedCases++
		run.Status = RunStatusFailed
	case CaseStatusInconclusive:
		run.InconclusiveCases++
	}
}
