package verify

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/motart/ordernimbus-fresh/internal/browser"
	"github.com/motart/ordernimbus-fresh/internal/checks"
	"github.com/motart/ordernimbus-fresh/internal/model"
)

const (
	logEventSuiteStarted     = "suite_started"
	logEventSuiteFinished    = "suite_finished"
	logEventCasePassed       = "case_passed"
	logEventCaseFailed       = "case_failed"
	logEventCaseInconclusive = "case_inconclusive"
	logFieldSuite            = "suite"
	logFieldCase             = "case"
	logFieldTarget           = "target"
	logFieldDiagnostics      = "diagnostics"
	logFieldPassed           = "passed"
	logFieldInconclusive     = "inconclusive"

	caseErrorDiagnosticPrefix  = "case error: "
	diagnosticMessageSeparator = "; "
)

// Case is one independent verification procedure. It drives the shared
// session and records predicate outcomes into the report; a returned error
// marks an environment failure (navigation, evaluation), not an assertion.
type Case struct {
	Name string
	Run  func(session *browser.Session, targets Targets, report *checks.Report) error
}

// Suite is an ordered collection of cases sharing one browser session.
type Suite struct {
	Name  string
	Cases []Case
}

// CaseOutcome is the recorded result of one executed case.
type CaseOutcome struct {
	CaseName      string
	Status        model.CaseStatus
	Failures      []string
	Warnings      []string
	Passes        []string
	Inconclusives []string
	RunError      error
}

// Summary aggregates a whole suite run.
type Summary struct {
	SuiteName  string
	TargetURL  string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []CaseOutcome
}

// Passed reports whether every case passed or was inconclusive.
func (summary Summary) Passed() bool {
	for _, outcome := range summary.Outcomes {
		if outcome.Status == model.CaseStatusFailed {
			return false
		}
	}
	return true
}

// Conclusive reports whether no case was inconclusive.
func (summary Summary) Conclusive() bool {
	for _, outcome := range summary.Outcomes {
		if outcome.Status == model.CaseStatusInconclusive {
			return false
		}
	}
	return true
}

// RunRecord converts the summary into persistable run-history rows. The
// identifier factory supplies one id for the run and one per result.
func (summary Summary) RunRecord(newIdentifier func() string) (model.CheckRun, []model.CheckResult, error) {
	run, runErr := model.NewCheckRun(model.CheckRunInput{
		ID:         newIdentifier(),
		SuiteName:  summary.SuiteName,
		TargetURL:  summary.TargetURL,
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
	})
	if runErr != nil {
		return model.CheckRun{}, nil, runErr
	}

	results := make([]model.CheckResult, 0, len(summary.Outcomes))
	for _, outcome := range summary.Outcomes {
		run.RecordCase(outcome.Status)
		results = append(results, model.CheckResult{
			ID:          newIdentifier(),
			RunID:       run.ID,
			CaseName:    outcome.CaseName,
			Status:      outcome.Status,
			Diagnostics: outcome.diagnostics(),
		})
	}
	return run, results, nil
}

func (outcome CaseOutcome) diagnostics() string {
	var messages []string
	if outcome.RunError != nil {
		messages = append(messages, caseErrorDiagnosticPrefix+outcome.RunError.Error())
	}
	messages = append(messages, outcome.Failures...)
	messages = append(messages, outcome.Inconclusives...)
	return strings.Join(messages, diagnosticMessageSeparator)
}

// Runner executes suites serially against one browser session per suite.
type Runner struct {
	logger         *zap.Logger
	sessionOptions browser.Options
}

// NewRunner creates a runner with the default session options.
func NewRunner(logger *zap.Logger) *Runner {
	return &Runner{
		logger:         logger,
		sessionOptions: browser.DefaultOptions(),
	}
}

// WithSessionOptions overrides the browser session options.
func (runner *Runner) WithSessionOptions(options browser.Options) *Runner {
	runner.sessionOptions = options
	return runner
}

// RunSuite acquires one session, runs every case serially against it and
// releases the session on all exit paths. A session acquisition failure is
// fatal; an assertion failure in one case never prevents the next case from
// running.
func (runner *Runner) RunSuite(suite Suite, targets Targets) (Summary, error) {
	normalizedTargets := targets.Normalized()
	summary := Summary{
		SuiteName: suite.Name,
		TargetURL: normalizedTargets.AppURL,
		StartedAt: time.Now().UTC(),
	}

	session, acquireErr := browser.Acquire(runner.sessionOptions)
	if acquireErr != nil {
		return summary, fmt.Errorf("suite %s: %w", suite.Name, acquireErr)
	}
	defer session.Close()

	runner.logger.Info(logEventSuiteStarted,
		zap.String(logFieldSuite, suite.Name),
		zap.String(logFieldTarget, normalizedTargets.AppURL),
	)

	for _, suiteCase := range suite.Cases {
		// Navigation in each case resets the page; the console collector is
		// cleared here so one case's log noise never bleeds into the next.
		// Session-scoped storage deliberately survives, matching the shared
		// session model.
		session.Logs().Reset()

		report := &checks.Report{}
		runErr := suiteCase.Run(session, normalizedTargets, report)
		outcome := buildCaseOutcome(suiteCase.Name, report, runErr)
		summary.Outcomes = append(summary.Outcomes, outcome)
		runner.logCaseOutcome(suite.Name, outcome)
	}

	summary.FinishedAt = time.Now().UTC()
	runner.logger.Info(logEventSuiteFinished,
		zap.String(logFieldSuite, suite.Name),
		zap.Bool(logFieldPassed, summary.Passed()),
	)
	return summary, nil
}

func buildCaseOutcome(caseName string, report *checks.Report, runErr error) CaseOutcome {
	outcome := CaseOutcome{
		CaseName:      caseName,
		Failures:      report.Failures(),
		Warnings:      report.Warnings(),
		Passes:        report.Passes(),
		Inconclusives: report.Inconclusives(),
		RunError:      runErr,
	}
	switch {
	case runErr != nil || !report.Passed():
		outcome.Status = model.CaseStatusFailed
	case !report.Conclusive():
		outcome.Status = model.CaseStatusInconclusive
	default:
		outcome.Status = model.CaseStatusPassed
	}
	return outcome
}

func (runner *Runner) logCaseOutcome(suiteName string, outcome CaseOutcome) {
	switch outcome.Status {
	case model.CaseStatusPassed:
		runner.logger.Info(logEventCasePassed,
			zap.String(logFieldSuite, suiteName),
			zap.String(logFieldCase, outcome.CaseName),
		)
	case model.CaseStatusInconclusive:
		runner.logger.Warn(logEventCaseInconclusive,
			zap.String(logFieldSuite, suiteName),
			zap.String(logFieldCase, outcome.CaseName),
			zap.Strings(logFieldInconclusive, outcome.Inconclusives),
		)
	default:
		runner.logger.Error(logEventCaseFailed,
			zap.String(logFieldSuite, suiteName),
			zap.String(logFieldCase, outcome.CaseName),
			zap.String(logFieldDiagnostics, outcome.diagnostics()),
		)
	}
}
