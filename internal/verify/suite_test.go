package verify

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/motart/ordernimbus-fresh/internal/checks"
	"github.com/motart/ordernimbus-fresh/internal/model"
)

func TestBuildCaseOutcomeStatusSelection(t *testing.T) {
	passingReport := &checks.Report{}
	passingReport.AddPass("looks healthy")
	require.Equal(t, model.CaseStatusPassed, buildCaseOutcome("healthy", passingReport, nil).Status)

	failingReport := &checks.Report{}
	failingReport.AddFailure("missing field")
	require.Equal(t, model.CaseStatusFailed, buildCaseOutcome("failing", failingReport, nil).Status)

	inconclusiveReport := &checks.Report{}
	inconclusiveReport.AddInconclusive("no evidence either way")
	require.Equal(t, model.CaseStatusInconclusive, buildCaseOutcome("unclear", inconclusiveReport, nil).Status)

	erroredReport := &checks.Report{}
	erroredReport.AddPass("observed before the error")
	errored := buildCaseOutcome("errored", erroredReport, errors.New("navigation refused"))
	require.Equal(t, model.CaseStatusFailed, errored.Status)
}

func TestBuildCaseOutcomeFailureOutranksInconclusive(t *testing.T) {
	report := &checks.Report{}
	report.AddInconclusive("cache never materialized")
	report.AddFailure("localhost reference in console")
	require.Equal(t, model.CaseStatusFailed, buildCaseOutcome("mixed", report, nil).Status)
}

func TestCaseOutcomeDiagnosticsJoinsErrorAndMessages(t *testing.T) {
	outcome := CaseOutcome{
		RunError:      errors.New("evaluate script: context deadline exceeded"),
		Failures:      []string{"environment is \"development\""},
		Inconclusives: []string{"cache absent"},
		Warnings:      []string{"verified from console only"},
	}
	require.Equal(t,
		"case error: evaluate script: context deadline exceeded; environment is \"development\"; cache absent",
		outcome.diagnostics(),
	)
}

func TestSummaryPassedAndConclusive(t *testing.T) {
	summary := Summary{Outcomes: []CaseOutcome{
		{CaseName: "one", Status: model.CaseStatusPassed},
		{CaseName: "two", Status: model.CaseStatusInconclusive},
	}}
	require.True(t, summary.Passed())
	require.False(t, summary.Conclusive())

	summary.Outcomes = append(summary.Outcomes, CaseOutcome{CaseName: "three", Status: model.CaseStatusFailed})
	require.False(t, summary.Passed())
}

func TestSummaryRunRecord(t *testing.T) {
	startedAt := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	summary := Summary{
		SuiteName:  SuiteNameAuthConfig,
		TargetURL:  DefaultAppURL,
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(45 * time.Second),
		Outcomes: []CaseOutcome{
			{CaseName: "first", Status: model.CaseStatusPassed},
			{CaseName: "second", Status: model.CaseStatusFailed, Failures: []string{"user pool missing"}},
			{CaseName: "third", Status: model.CaseStatusInconclusive, Inconclusives: []string{"no evidence"}},
		},
	}

	identifierCounter := 0
	run, results, recordErr := summary.RunRecord(func() string {
		identifierCounter++
		return fmt.Sprintf("id-%d", identifierCounter)
	})
	require.NoError(t, recordErr)

	require.Equal(t, "id-1", run.ID)
	require.Equal(t, SuiteNameAuthConfig, run.SuiteName)
	require.Equal(t, 3, run.TotalCases)
	require.Equal(t, 1, run.PassedCases)
	require.Equal(t, 1, run.FailedCases)
	require.Equal(t, 1, run.InconclusiveCases)
	require.Equal(t, model.RunStatusFailed, run.Status)

	require.Len(t, results, 3)
	require.Equal(t, "id-2", results[0].ID)
	require.Equal(t, run.ID, results[0].RunID)
	require.Equal(t, "user pool missing", results[1].Diagnostics)
	require.Equal(t, model.CaseStatusInconclusive, results[2].Status)
}

func TestSummaryRunRecordRejectsEmptySuiteName(t *testing.T) {
	summary := Summary{TargetURL: DefaultAppURL}
	_, _, recordErr := summary.RunRecord(func() string { return "id" })
	require.ErrorIs(t, recordErr, model.ErrInvalidRunSuiteName)
}
