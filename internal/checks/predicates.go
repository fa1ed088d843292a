package checks

import (
	"strings"

	"github.com/motart/ordernimbus-fresh/internal/browser"
)

// Host markers that must never be observed against a production deployment.
var ForbiddenHostMarkers = []string{
	"localhost",
	"127.0.0.1",
	"localhost:3001",
}

// Console markers carrying development configuration into production logs.
var DevelopmentConfigMarkers = []string{
	"environment: 'development'",
	"apiUrl: 'http://localhost",
}

// VerifyConfigSnapshot checks that every required configuration key is
// present, non-placeholder, and that the environment tier, API URL and region
// carry their production markers.
func VerifyConfigSnapshot(report *Report, snapshot ConfigSnapshot) {
	if snapshot.FetchError != "" {
		report.AddFailure("configuration fetch failed: %s", snapshot.FetchError)
		return
	}

	for _, configKey := range RequiredConfigKeys {
		fieldValue := strings.TrimSpace(snapshot.Field(configKey))
		if fieldValue == "" {
			report.AddFailure("missing required configuration field %s", configKey)
			continue
		}
		if fieldValue == PlaceholderValue {
			report.AddFailure("configuration field %s is the placeholder %q", configKey, PlaceholderValue)
		}
	}

	if snapshot.Environment != "" && snapshot.Environment != EnvironmentProduction {
		report.AddFailure("environment is %q, expected %q", snapshot.Environment, EnvironmentProduction)
	}
	if snapshot.APIURL != "" && !strings.Contains(snapshot.APIURL, APIGatewayMarker) {
		report.AddFailure("apiUrl %q does not contain the API gateway marker %q", snapshot.APIURL, APIGatewayMarker)
	}
	if snapshot.Region != "" && !strings.Contains(snapshot.Region, RegionFamilyMarker) {
		report.AddFailure("region %q does not contain the region family marker %q", snapshot.Region, RegionFamilyMarker)
	}
}

// VerifyNoForbiddenHosts fails the report for every forbidden host marker
// found in the value. Matching is case-insensitive, mirroring how the console
// stream is scanned.
func VerifyNoForbiddenHosts(report *Report, valueLabel string, value string) {
	loweredValue := strings.ToLower(value)
	for _, hostMarker := range ForbiddenHostMarkers {
		if strings.Contains(loweredValue, hostMarker) {
			report.AddFailure("%s contains forbidden host reference %q: %s", valueLabel, hostMarker, value)
		}
	}
}

// VerifyConsoleFreeOfForbiddenHosts scans every captured console entry for
// forbidden host markers.
func VerifyConsoleFreeOfForbiddenHosts(report *Report, entries []browser.LogEntry) {
	flagged := 0
	for _, entry := range entries {
		loweredMessage := strings.ToLower(entry.Message)
		for _, hostMarker := range ForbiddenHostMarkers {
			if strings.Contains(loweredMessage, hostMarker) {
				report.AddFailure("console entry %d contains forbidden host reference %q: %s", entry.Index, hostMarker, entry.Message)
				flagged++
				break
			}
		}
	}
	if flagged == 0 {
		report.AddPass("no forbidden host references in %d console entries", len(entries))
	}
}

// VerifyRequiredSubstring checks that a required marker appears in the value.
func VerifyRequiredSubstring(report *Report, valueLabel string, value string, requiredMarker string) {
	if strings.Contains(value, requiredMarker) {
		report.AddPass("%s contains %q", valueLabel, requiredMarker)
		return
	}
	report.AddFailure("%s does not contain required marker %q", valueLabel, requiredMarker)
}

// FirstEntryContaining returns the earliest console entry whose message
// contains the marker.
func FirstEntryContaining(entries []browser.LogEntry, marker string) (browser.LogEntry, bool) {
	for _, entry := range entries {
		if strings.Contains(entry.Message, marker) {
			return entry, true
		}
	}
	return browser.LogEntry{}, false
}

// EntriesContainingAny returns every entry whose message contains at least
// one of the markers.
func EntriesContainingAny(entries []browser.LogEntry, markers ...string) []browser.LogEntry {
	var matching []browser.LogEntry
	for _, entry := range entries {
		for _, marker := range markers {
			if strings.Contains(entry.Message, marker) {
				matching = append(matching, entry)
				break
			}
		}
	}
	return matching
}

// VerifyEventOrder checks that, when both lifecycle markers appear in the
// console stream, the first strictly precedes the second. Absence of either
// marker leaves the ordering unverifiable and is recorded as inconclusive.
func VerifyEventOrder(report *Report, entries []browser.LogEntry, earlierMarker string, laterMarker string) {
	earlierEntry, earlierFound := FirstEntryContaining(entries, earlierMarker)
	laterEntry, laterFound := FirstEntryContaining(entries, laterMarker)

	if !earlierFound || !laterFound {
		report.AddInconclusive("ordering of %q before %q not observable (found: %t, %t)", earlierMarker, laterMarker, earlierFound, laterFound)
		return
	}
	if earlierEntry.Index < laterEntry.Index {
		report.AddPass("%q at index %d precedes %q at index %d", earlierMarker, earlierEntry.Index, laterMarker, laterEntry.Index)
		return
	}
	report.AddFailure("%q at index %d does not precede %q at index %d", earlierMarker, earlierEntry.Index, laterMarker, laterEntry.Index)
}

// UnexpectedSevereEntries filters the severe console entries down to those
// not covered by the known-benign markers (CORS preflight noise, favicon
// lookups and the like).
func UnexpectedSevereEntries(entries []browser.LogEntry, benignMarkers ...string) []browser.LogEntry {
	var unexpected []browser.LogEntry
	for _, entry := range entries {
		if entry.Level != browser.LogLevelSevere {
			continue
		}
		benign := false
		for _, benignMarker := range benignMarkers {
			if strings.Contains(entry.Message, benignMarker) {
				benign = true
				break
			}
		}
		if !benign {
			unexpected = append(unexpected, entry)
		}
	}
	return unexpected
}
