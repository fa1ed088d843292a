package verify_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/motart/ordernimbus-fresh/internal/verify"
)

func TestNormalizedFillsProductionDefaults(t *testing.T) {
	normalized := verify.Targets{}.Normalized()
	require.Equal(t, verify.DefaultAppURL, normalized.AppURL)
	require.Equal(t, verify.DefaultCDNOriginURL, normalized.CDNOriginURL)
	require.Equal(t, verify.DefaultConfigEndpointURL, normalized.ConfigEndpointURL)
	require.Equal(t, verify.DefaultWaitWindow, normalized.WaitWindow)
}

func TestNormalizedKeepsExplicitTargets(t *testing.T) {
	explicit := verify.Targets{
		AppURL:            "https://staging.example.com",
		CDNOriginURL:      "https://cdn.example.com",
		ConfigEndpointURL: "https://api.example.com/config",
		WaitWindow:        3 * time.Second,
	}
	require.Equal(t, explicit, explicit.Normalized())
}

func TestNormalizedRejectsNonPositiveWaitWindow(t *testing.T) {
	normalized := verify.Targets{WaitWindow: -1 * time.Second}.Normalized()
	require.Equal(t, verify.DefaultWaitWindow, normalized.WaitWindow)
}
