// Package checks implements the assertion layer of the verification suites:
// predicates over configuration snapshots, console logs and page markup, and
// the pass/fail report they aggregate into.
package checks

import "fmt"

// Report collects assertion outcomes for one test case. Failed predicates
// never abort the case; every predicate runs and contributes its diagnostic,
// so a single run reports everything wrong with the deployment.
type Report struct {
	failures      []string
	warnings      []string
	passes        []string
	inconclusives []string
}

// AddFailure records a violated predicate with a human-readable diagnostic.
func (report *Report) AddFailure(message string, arguments ...any) {
	report.failures = append(report.failures, fmt.Sprintf(message, arguments...))
}

// AddWarning records a non-fatal observation.
func (report *Report) AddWarning(message string, arguments ...any) {
	report.warnings = append(report.warnings, fmt.Sprintf(message, arguments...))
}

// AddPass records a satisfied predicate, for the printed progress markers.
func (report *Report) AddPass(message string, arguments ...any) {
	report.passes = append(report.passes, fmt.Sprintf(message, arguments...))
}

// AddInconclusive records a predicate whose primary evidence was absent, so
// the case could neither be confirmed nor refuted. Inconclusive outcomes are
// surfaced separately from failures instead of being masked by a weaker
// fallback assertion.
func (report *Report) AddInconclusive(message string, arguments ...any) {
	report.inconclusives = append(report.inconclusives, fmt.Sprintf(message, arguments...))
}

// Passed reports whether no predicate failed.
func (report *Report) Passed() bool {
	return len(report.failures) == 0
}

// Conclusive reports whether every predicate found the evidence it needed.
func (report *Report) Conclusive() bool {
	return len(report.inconclusives) == 0
}

// Failures returns the recorded failure diagnostics.
func (report *Report) Failures() []string {
	return copyMessages(report.failures)
}

// Warnings returns the recorded warnings.
func (report *Report) Warnings() []string {
	return copyMessages(report.warnings)
}

// Passes returns the recorded pass markers.
func (report *Report) Passes() []string {
	return copyMessages(report.passes)
}

// Inconclusives returns the recorded inconclusive diagnostics.
func (report *Report) Inconclusives() []string {
	return copyMessages(report.inconclusives)
}

func copyMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	snapshot := make([]string, len(messages))
	copy(snapshot, messages)
	return snapshot
}
