package verify

import (
	"errors"
	"strings"

	"github.com/motart/ordernimbus-fresh/internal/browser"
	"github.com/motart/ordernimbus-fresh/internal/checks"
)

// SuiteNameEnvConfig identifies the environment configuration suite.
const SuiteNameEnvConfig = "environment-config"

const (
	configTopicMarker      = "configuration"
	environmentTopicMarker = "environment"

	// Value the in-page probe reports for an absent configuration field.
	valueNotFound = "not-found"
)

// Severe console categories tolerated when observing the CDN origin.
var benignSevereMarkers = []string{
	"CORS",
	"favicon",
}

type environmentConfig struct {
	APIURL      string `json:"apiUrl"`
	Environment string `json:"environment"`
	Region      string `json:"region"`
}

// EnvConfigSuite verifies that a production deployment carries no
// development artifacts and that the CDN origin serves the application.
func EnvConfigSuite() Suite {
	return Suite{
		Name: SuiteNameEnvConfig,
		Cases: []Case{
			{Name: "production free of localhost references", Run: runNoLocalhostCase},
			{Name: "cdn origin serves the application", Run: runCDNOriginCase},
			{Name: "api configuration from page globals", Run: runEnvironmentConfigCase},
			{Name: "console reports environment configuration", Run: runEnvironmentLogsCase},
		},
	}
}

func runNoLocalhostCase(session *browser.Session, targets Targets, report *checks.Report) error {
	if _, openErr := openBootstrapPage(session, targets); openErr != nil {
		return openErr
	}

	checks.VerifyConsoleFreeOfForbiddenHosts(report, session.Logs().Entries())

	var localhostResources []string
	if evaluateErr := session.Evaluate(localhostResourceEntriesScript, &localhostResources); evaluateErr != nil {
		return evaluateErr
	}
	for _, resourceURL := range localhostResources {
		report.AddFailure("network request to local host resource: %s", resourceURL)
	}
	if len(localhostResources) == 0 {
		report.AddPass("no local host network requests recorded")
	}
	return nil
}

func runCDNOriginCase(session *browser.Session, targets Targets, report *checks.Report) error {
	if navigateErr := session.Navigate(targets.CDNOriginURL); navigateErr != nil {
		return navigateErr
	}
	if waitErr := session.WaitUntil(documentCompleteScript, targets.WaitWindow); waitErr != nil && !errors.Is(waitErr, browser.ErrConditionNotMet) {
		return waitErr
	}

	markup, markupErr := session.PageHTML()
	if markupErr != nil {
		return markupErr
	}
	checks.VerifyMarkupContainsBrand(report, markup, BrandMarker)

	unexpectedSevere := checks.UnexpectedSevereEntries(session.Logs().Entries(), benignSevereMarkers...)
	for _, entry := range unexpectedSevere {
		report.AddFailure("severe console entry %d from CDN origin: %s", entry.Index, entry.Message)
	}
	if len(unexpectedSevere) == 0 {
		report.AddPass("no unexpected severe console entries from CDN origin")
	}
	return nil
}

func runEnvironmentConfigCase(session *browser.Session, targets Targets, report *checks.Report) error {
	if _, openErr := openBootstrapPage(session, targets); openErr != nil {
		return openErr
	}

	var observed environmentConfig
	if evaluateErr := session.Evaluate(environmentConfigScript, &observed); evaluateErr != nil {
		return evaluateErr
	}

	checks.VerifyNoForbiddenHosts(report, "observed apiUrl", observed.APIURL)

	if observed.Environment != checks.EnvironmentProduction && observed.Environment != valueNotFound {
		report.AddFailure("environment is %q, expected %q", observed.Environment, checks.EnvironmentProduction)
	}
	if !strings.Contains(observed.Region, checks.RegionFamilyMarker) {
		report.AddFailure("region %q does not contain the region family marker %q", observed.Region, checks.RegionFamilyMarker)
	}
	if report.Passed() {
		report.AddPass("environment configuration observed: environment=%s region=%s", observed.Environment, observed.Region)
	}
	return nil
}

func runEnvironmentLogsCase(session *browser.Session, targets Targets, report *checks.Report) error {
	if _, openErr := openBootstrapPage(session, targets); openErr != nil {
		return openErr
	}

	entries := session.Logs().Entries()
	configurationEntryCount := 0
	for _, entry := range entries {
		loweredMessage := strings.ToLower(entry.Message)
		if !strings.Contains(loweredMessage, configTopicMarker) && !strings.Contains(loweredMessage, environmentTopicMarker) {
			continue
		}
		configurationEntryCount++
		for _, developmentMarker := range checks.DevelopmentConfigMarkers {
			if strings.Contains(entry.Message, developmentMarker) {
				report.AddFailure("console entry %d carries development configuration %q: %s", entry.Index, developmentMarker, entry.Message)
			}
		}
	}

	if configurationEntryCount == 0 {
		report.AddFailure("no configuration-related console entries observed")
		return nil
	}
	report.AddPass("%d configuration-related console entries observed", configurationEntryCount)
	return nil
}
