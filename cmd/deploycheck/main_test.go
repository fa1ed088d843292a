package main

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/motart/ordernimbus-fresh/internal/model"
	"github.com/motart/ordernimbus-fresh/internal/storage"
	"github.com/motart/ordernimbus-fresh/internal/verify"
)

func passingSummary(suite verify.Suite, targets verify.Targets) verify.Summary {
	return verify.Summary{
		SuiteName:  suite.Name,
		TargetURL:  targets.Normalized().AppURL,
		StartedAt:  time.Now().UTC(),
		FinishedAt: time.Now().UTC(),
		Outcomes: []verify.CaseOutcome{
			{CaseName: "recorded case", Status: model.CaseStatusPassed, Passes: []string{"observed"}},
		},
	}
}

func TestCommandBuildsSubcommandsAndFlags(t *testing.T) {
	rootCommand, commandErr := NewCheckApplication().Command()
	require.NoError(t, commandErr)

	subcommandNames := make([]string, 0)
	for _, subcommand := range rootCommand.Commands() {
		subcommandNames = append(subcommandNames, subcommand.Name())
	}
	require.Contains(t, subcommandNames, subcommandAuthConfigUse)
	require.Contains(t, subcommandNames, subcommandEnvConfigUse)
	require.Contains(t, subcommandNames, subcommandAllUse)

	appURLFlag := rootCommand.PersistentFlags().Lookup(flagNameAppURL)
	require.NotNil(t, appURLFlag)
	require.Equal(t, verify.DefaultAppURL, appURLFlag.DefValue)
	require.NotNil(t, rootCommand.PersistentFlags().Lookup(flagNameResultsDatabase))
}

func TestFlagsOverrideTargets(t *testing.T) {
	var capturedSuite verify.Suite
	var capturedTargets verify.Targets
	application := NewCheckApplication().WithSuiteRunner(
		func(logger *zap.Logger, suite verify.Suite, targets verify.Targets) (verify.Summary, error) {
			capturedSuite = suite
			capturedTargets = targets
			return passingSummary(suite, targets), nil
		})

	rootCommand, commandErr := application.Command()
	require.NoError(t, commandErr)
	rootCommand.SetArgs([]string{
		subcommandEnvConfigUse,
		"--" + flagNameAppURL, "https://staging.example.com",
		"--" + flagNameWaitWindow, "3s",
	})
	require.NoError(t, rootCommand.Execute())

	require.Equal(t, verify.SuiteNameEnvConfig, capturedSuite.Name)
	require.Equal(t, "https://staging.example.com", capturedTargets.AppURL)
	require.Equal(t, 3*time.Second, capturedTargets.WaitWindow)
	require.Equal(t, verify.DefaultCDNOriginURL, capturedTargets.CDNOriginURL)
}

func TestEnvironmentOverridesTargets(t *testing.T) {
	t.Setenv(environmentKeyAppURL, "https://env.example.com")
	t.Setenv(environmentKeyConfigURL, "https://env.example.com/api/config")
	t.Setenv(environmentKeyWaitWindow, "7s")

	var capturedTargets verify.Targets
	application := NewCheckApplication().WithSuiteRunner(
		func(logger *zap.Logger, suite verify.Suite, targets verify.Targets) (verify.Summary, error) {
			capturedTargets = targets
			return passingSummary(suite, targets), nil
		})

	rootCommand, commandErr := application.Command()
	require.NoError(t, commandErr)
	rootCommand.SetArgs([]string{subcommandAuthConfigUse})
	require.NoError(t, rootCommand.Execute())

	require.Equal(t, "https://env.example.com", capturedTargets.AppURL)
	require.Equal(t, "https://env.example.com/api/config", capturedTargets.ConfigEndpointURL)
	require.Equal(t, 7*time.Second, capturedTargets.WaitWindow)
}

func TestAllSubcommandRunsEverySuite(t *testing.T) {
	executedSuiteNames := make([]string, 0)
	application := NewCheckApplication().WithSuiteRunner(
		func(logger *zap.Logger, suite verify.Suite, targets verify.Targets) (verify.Summary, error) {
			executedSuiteNames = append(executedSuiteNames, suite.Name)
			return passingSummary(suite, targets), nil
		})

	rootCommand, commandErr := application.Command()
	require.NoError(t, commandErr)
	rootCommand.SetArgs([]string{subcommandAllUse})
	require.NoError(t, rootCommand.Execute())

	require.Equal(t, []string{verify.SuiteNameAuthConfig, verify.SuiteNameEnvConfig}, executedSuiteNames)
}

func TestFailedSuiteReturnsVerificationError(t *testing.T) {
	application := NewCheckApplication().WithSuiteRunner(
		func(logger *zap.Logger, suite verify.Suite, targets verify.Targets) (verify.Summary, error) {
			summary := passingSummary(suite, targets)
			summary.Outcomes = []verify.CaseOutcome{
				{CaseName: "broken case", Status: model.CaseStatusFailed, Failures: []string{"localhost reference"}},
			}
			return summary, nil
		})

	rootCommand, commandErr := application.Command()
	require.NoError(t, commandErr)
	rootCommand.SetArgs([]string{subcommandAuthConfigUse})
	require.ErrorIs(t, rootCommand.Execute(), errVerificationFailed)
}

func TestStrictPromotesInconclusiveToFailure(t *testing.T) {
	inconclusiveRunner := func(logger *zap.Logger, suite verify.Suite, targets verify.Targets) (verify.Summary, error) {
		summary := passingSummary(suite, targets)
		summary.Outcomes = []verify.CaseOutcome{
			{CaseName: "unclear case", Status: model.CaseStatusInconclusive, Inconclusives: []string{"no evidence"}},
		}
		return summary, nil
	}

	lenientCommand, lenientErr := NewCheckApplication().WithSuiteRunner(inconclusiveRunner).Command()
	require.NoError(t, lenientErr)
	lenientCommand.SetArgs([]string{subcommandAuthConfigUse})
	require.NoError(t, lenientCommand.Execute())

	strictCommand, strictErr := NewCheckApplication().WithSuiteRunner(inconclusiveRunner).Command()
	require.NoError(t, strictErr)
	strictCommand.SetArgs([]string{subcommandAuthConfigUse, "--" + flagNameStrict})
	require.ErrorIs(t, strictCommand.Execute(), errVerificationFailed)
}

func TestSuiteRunnerErrorPropagates(t *testing.T) {
	runnerError := errors.New("headless browser unavailable")
	application := NewCheckApplication().WithSuiteRunner(
		func(logger *zap.Logger, suite verify.Suite, targets verify.Targets) (verify.Summary, error) {
			return verify.Summary{}, runnerError
		})

	rootCommand, commandErr := application.Command()
	require.NoError(t, commandErr)
	rootCommand.SetArgs([]string{subcommandEnvConfigUse})
	require.ErrorIs(t, rootCommand.Execute(), runnerError)
}

func TestUnexpectedArgumentsRejected(t *testing.T) {
	application := NewCheckApplication().WithSuiteRunner(
		func(logger *zap.Logger, suite verify.Suite, targets verify.Targets) (verify.Summary, error) {
			return passingSummary(suite, targets), nil
		})

	rootCommand, commandErr := application.Command()
	require.NoError(t, commandErr)
	rootCommand.SetArgs([]string{subcommandAuthConfigUse, "surplus"})
	executeErr := rootCommand.Execute()
	require.Error(t, executeErr)
	require.Contains(t, executeErr.Error(), unexpectedArgumentsMessage)
}

func TestWatchRunsSuitesUntilCancelled(t *testing.T) {
	watchContext, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()

	suiteRuns := make(chan string, 16)
	application := NewCheckApplication().WithSuiteRunner(
		func(logger *zap.Logger, suite verify.Suite, targets verify.Targets) (verify.Summary, error) {
			suiteRuns <- suite.Name
			return passingSummary(suite, targets), nil
		})

	rootCommand, commandErr := application.Command()
	require.NoError(t, commandErr)
	rootCommand.SetArgs([]string{subcommandWatchUse, "--" + flagNameCheckInterval, "1h"})

	executeDone := make(chan error, 1)
	go func() {
		executeDone <- rootCommand.ExecuteContext(watchContext)
	}()

	executedSuiteNames := make([]string, 0, 2)
	for len(executedSuiteNames) < 2 {
		select {
		case suiteName := <-suiteRuns:
			executedSuiteNames = append(executedSuiteNames, suiteName)
		case <-time.After(5 * time.Second):
			t.Fatal("watch cycle never ran")
		}
	}
	require.Equal(t, []string{verify.SuiteNameAuthConfig, verify.SuiteNameEnvConfig}, executedSuiteNames)

	cancelWatch()
	select {
	case executeErr := <-executeDone:
		require.NoError(t, executeErr)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}
}

func TestWatchReusesOneResultsDatabaseAcrossCycles(t *testing.T) {
	databasePath := filepath.Join(t.TempDir(), "watch-history.db")
	watchContext, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()

	var databaseOpenCount atomic.Int64
	suiteRuns := make(chan string, 64)
	application := NewCheckApplication().
		WithSuiteRunner(func(logger *zap.Logger, suite verify.Suite, targets verify.Targets) (verify.Summary, error) {
			select {
			case suiteRuns <- suite.Name:
			default:
			}
			return passingSummary(suite, targets), nil
		}).
		WithDatabaseOpener(func(configuration storage.Config) (*gorm.DB, error) {
			databaseOpenCount.Add(1)
			return storage.OpenDatabase(configuration)
		})

	rootCommand, commandErr := application.Command()
	require.NoError(t, commandErr)
	rootCommand.SetArgs([]string{
		subcommandWatchUse,
		"--" + flagNameCheckInterval, "20ms",
		"--" + flagNameResultsDatabase, databasePath,
		"--" + flagNameRetentionDays, "7",
	})

	executeDone := make(chan error, 1)
	go func() {
		executeDone <- rootCommand.ExecuteContext(watchContext)
	}()

	observedSuiteRuns := 0
	for observedSuiteRuns < 4 {
		select {
		case <-suiteRuns:
			observedSuiteRuns++
		case <-time.After(5 * time.Second):
			t.Fatal("watch cycles never accumulated")
		}
	}

	cancelWatch()
	select {
	case executeErr := <-executeDone:
		require.NoError(t, executeErr)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}

	require.EqualValues(t, 1, databaseOpenCount.Load())

	database, openErr := storage.OpenDatabase(storage.Config{
		DriverName:     storage.DriverNameSQLite,
		DataSourceName: databasePath,
	})
	require.NoError(t, openErr)
	var persistedRunCount int64
	require.NoError(t, database.Model(&model.CheckRun{}).Count(&persistedRunCount).Error)
	require.GreaterOrEqual(t, persistedRunCount, int64(4))
}

func TestRunHistoryPersistedWhenDatabaseConfigured(t *testing.T) {
	databasePath := filepath.Join(t.TempDir(), "deploycheck.db")

	application := NewCheckApplication().WithSuiteRunner(
		func(logger *zap.Logger, suite verify.Suite, targets verify.Targets) (verify.Summary, error) {
			return passingSummary(suite, targets), nil
		})

	rootCommand, commandErr := application.Command()
	require.NoError(t, commandErr)
	rootCommand.SetArgs([]string{
		subcommandAuthConfigUse,
		"--" + flagNameResultsDatabase, databasePath,
	})
	require.NoError(t, rootCommand.Execute())

	database, openErr := storage.OpenDatabase(storage.Config{
		DriverName:     storage.DriverNameSQLite,
		DataSourceName: databasePath,
	})
	require.NoError(t, openErr)

	var persistedRuns []model.CheckRun
	require.NoError(t, database.Find(&persistedRuns).Error)
	require.Len(t, persistedRuns, 1)
	require.Equal(t, verify.SuiteNameAuthConfig, persistedRuns[0].SuiteName)
	require.Equal(t, model.RunStatusPassed, persistedRuns[0].Status)

	var persistedResults []model.CheckResult
	require.NoError(t, database.Find(&persistedResults).Error)
	require.Len(t, persistedResults, 1)
	require.Equal(t, persistedRuns[0].ID, persistedResults[0].RunID)
}
