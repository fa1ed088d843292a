package checks

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Required configuration keys and the values the production deployment must
// carry for them.
const (
	ConfigKeyEnvironment = "environment"
	ConfigKeyAPIURL      = "apiUrl"
	ConfigKeyRegion      = "region"
	ConfigKeyUserPoolID  = "userPoolId"
	ConfigKeyClientID    = "clientId"

	// PlaceholderValue is the sentinel a never-populated field serializes to.
	PlaceholderValue = "undefined"

	// EnvironmentProduction is the only acceptable deployment tier value.
	EnvironmentProduction = "production"

	// APIGatewayMarker must appear in a correctly configured API URL.
	APIGatewayMarker = "execute-api"

	// RegionFamilyMarker must appear in a correctly configured region.
	RegionFamilyMarker = "us-"
)

const parseSnapshotErrorMessage = "parse configuration snapshot"

// RequiredConfigKeys lists every key the configuration endpoint must return.
var RequiredConfigKeys = []string{
	ConfigKeyEnvironment,
	ConfigKeyAPIURL,
	ConfigKeyRegion,
	ConfigKeyUserPoolID,
	ConfigKeyClientID,
}

// ConfigSnapshot is the runtime configuration exposed by the application
// under test, whether observed via the configuration endpoint, a page global
// or the session-scoped cache.
type ConfigSnapshot struct {
	Environment string `json:"environment"`
	APIURL      string `json:"apiUrl"`
	Region      string `json:"region"`
	UserPoolID  string `json:"userPoolId"`
	ClientID    string `json:"clientId"`

	// FetchError carries the in-page fetch failure message, when the snapshot
	// could not be retrieved at all.
	FetchError string `json:"error,omitempty"`
}

// ParseConfigSnapshot decodes a JSON-encoded snapshot, as stored in the
// session-scoped configuration cache.
func ParseConfigSnapshot(payload string) (ConfigSnapshot, error) {
	var snapshot ConfigSnapshot
	if unmarshalErr := json.Unmarshal([]byte(payload), &snapshot); unmarshalErr != nil {
		return ConfigSnapshot{}, fmt.Errorf("%s: %w", parseSnapshotErrorMessage, unmarshalErr)
	}
	return snapshot, nil
}

// Field returns the snapshot value for a required configuration key.
func (snapshot ConfigSnapshot) Field(configKey string) string {
	switch configKey {
	case ConfigKeyEnvironment:
		return snapshot.Environment
	case ConfigKeyAPIURL:
		return snapshot.APIURL
	case ConfigKeyRegion:
		return snapshot.Region
	case ConfigKeyUserPoolID:
		return snapshot.UserPoolID
	case ConfigKeyClientID:
		return snapshot.ClientID
	default:
		return ""
	}
}

// Empty reports whether no field of the snapshot carries a value.
func (snapshot ConfigSnapshot) Empty() bool {
	for _, configKey := range RequiredConfigKeys {
		if strings.TrimSpace(snapshot.Field(configKey)) != "" {
			return false
		}
	}
	return true
}
