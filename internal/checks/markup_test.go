package checks_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/motart/ordernimbus-fresh/internal/checks"
)

func TestVerifyMarkupContainsBrandInTitle(t *testing.T) {
	markup := `<!doctype html><html><head><title>OrderNimbus</title></head><body><div id="root"></div></body></html>`

	report := &checks.Report{}
	checks.VerifyMarkupContainsBrand(report, markup, "OrderNimbus")
	require.True(t, report.Passed())
}

func TestVerifyMarkupContainsBrandInBodyText(t *testing.T) {
	markup := `<html><head><title>Dashboard</title></head><body><h1>Welcome to OrderNimbus</h1></body></html>`

	report := &checks.Report{}
	checks.VerifyMarkupContainsBrand(report, markup, "OrderNimbus")
	require.True(t, report.Passed())
}

func TestVerifyMarkupMissingBrandFails(t *testing.T) {
	markup := `<html><head><title>It works!</title></head><body><p>nginx default page</p></body></html>`

	report := &checks.Report{}
	checks.VerifyMarkupContainsBrand(report, markup, "OrderNimbus")
	require.False(t, report.Passed())
	require.Contains(t, report.Failures()[0], "OrderNimbus")
}
