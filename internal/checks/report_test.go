package checks_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/motart/ordernimbus-fresh/internal/checks"
)

func TestReportAggregatesOutcomes(t *testing.T) {
	report := &checks.Report{}
	require.True(t, report.Passed())
	require.True(t, report.Conclusive())

	report.AddPass("field %s present", "clientId")
	report.AddWarning("verified from console only")
	require.True(t, report.Passed())

	report.AddInconclusive("ordering not observable")
	require.True(t, report.Passed())
	require.False(t, report.Conclusive())

	report.AddFailure("field %s missing", "userPoolId")
	require.False(t, report.Passed())

	require.Equal(t, []string{"field clientId present"}, report.Passes())
	require.Equal(t, []string{"verified from console only"}, report.Warnings())
	require.Equal(t, []string{"ordering not observable"}, report.Inconclusives())
	require.Equal(t, []string{"field userPoolId missing"}, report.Failures())
}

func TestReportReturnsCopies(t *testing.T) {
	report := &checks.Report{}
	report.AddFailure("original")

	failures := report.Failures()
	failures[0] = "mutated"
	require.Equal(t, []string{"original"}, report.Failures())
}
