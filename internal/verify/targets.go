// Package verify sequences the deployment verification suites: serial test
// cases sharing one browser session per suite, with aggregated pass/fail
// outcomes and a machine-readable summary.
package verify

import "time"

const (
	// DefaultAppURL is the production application deployment.
	DefaultAppURL = "https://app.ordernimbus.com"

	// DefaultCDNOriginURL is the CloudFront origin fronting the application.
	DefaultCDNOriginURL = "https://d39qw5rr9tjqlc.cloudfront.net"

	// DefaultConfigEndpointURL is the configuration retrieval endpoint.
	DefaultConfigEndpointURL = "https://bggexzhlwb.execute-api.us-west-1.amazonaws.com/production/api/config"

	// ConfigCacheKey is the session-storage entry the application caches its
	// runtime configuration under.
	ConfigCacheKey = "app-config"

	// BrandMarker must appear in markup served from the CDN origin.
	BrandMarker = "OrderNimbus"

	// DefaultWaitWindow bounds every wait-until-condition poll. A predicate
	// that has not held by then is reported, never retried.
	DefaultWaitWindow = 10 * time.Second
)

// Targets identifies the deployment a suite observes. The zero value is
// filled in from the production defaults.
type Targets struct {
	AppURL            string
	CDNOriginURL      string
	ConfigEndpointURL string
	WaitWindow        time.Duration
}

// DefaultTargets returns the production deployment targets.
func DefaultTargets() Targets {
	return Targets{
		AppURL:            DefaultAppURL,
		CDNOriginURL:      DefaultCDNOriginURL,
		ConfigEndpointURL: DefaultConfigEndpointURL,
		WaitWindow:        DefaultWaitWindow,
	}
}

// Normalized fills unset fields from the production defaults.
func (targets Targets) Normalized() Targets {
	defaults := DefaultTargets()
	if targets.AppURL == "" {
		targets.AppURL = defaults.AppURL
	}
	if targets.CDNOriginURL == "" {
		targets.CDNOriginURL = defaults.CDNOriginURL
	}
	if targets.ConfigEndpointURL == "" {
		targets.ConfigEndpointURL = defaults.ConfigEndpointURL
	}
	if targets.WaitWindow <= 0 {
		targets.WaitWindow = defaults.WaitWindow
	}
	return targets
}
