// Package stubapp emulates the deployment surface the verification suites
// observe: a configuration endpoint and a bootstrap page that caches the
// configuration, emits the lifecycle console messages and renders the brand
// marker. Profiles deliberately break individual behaviors so the harness's
// failure detection can itself be exercised against a local server.
package stubapp

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ConfigRoutePath    = "/api/config"
	BootstrapRoutePath = "/"

	corsMaxAge = 12 * time.Hour

	defaultEnvironment = "production"
	defaultAPIURL      = "https://bggexzhlwb.execute-api.us-west-1.amazonaws.com/production/api"
	defaultRegion      = "us-west-1"
	defaultUserPoolID  = "us-west-1_Ab12Cd34E"
	defaultClientID    = "4f8a9b0c1d2e3f4a5b6c7d8e9f0a1b"

	localhostAPIURL        = "http://localhost:3001/api"
	developmentEnvironment = "development"
	placeholderValue       = "undefined"
)

var (
	corsAllowedMethods = []string{http.MethodGet, http.MethodOptions}
	corsAllowedHeaders = []string{"Authorization", "Content-Type"}
	corsAllowOrigins   = []string{"*"}
)

// RuntimeConfig is the payload the stub configuration endpoint returns.
type RuntimeConfig struct {
	Environment string `json:"environment"`
	APIURL      string `json:"apiUrl"`
	Region      string `json:"region"`
	UserPoolID  string `json:"userPoolId"`
	ClientID    string `json:"clientId"`
}

// Profile selects which deployment defects the stub exhibits. The zero value
// is a healthy production deployment.
type Profile struct {
	LocalhostAPIURL        bool
	DevelopmentEnvironment bool
	PlaceholderClientID    bool
	OmitUserPoolID         bool
	AuthBeforeConfig       bool
	UserPoolError          bool
}

// DefaultRuntimeConfig returns the healthy production configuration adjusted
// for the profile's configuration defects.
func DefaultRuntimeConfig(profile Profile) RuntimeConfig {
	configuration := RuntimeConfig{
		Environment: defaultEnvironment,
		APIURL:      defaultAPIURL,
		Region:      defaultRegion,
		UserPoolID:  defaultUserPoolID,
		ClientID:    defaultClientID,
	}
	if profile.LocalhostAPIURL {
		configuration.APIURL = localhostAPIURL
	}
	if profile.DevelopmentEnvironment {
		configuration.Environment = developmentEnvironment
	}
	if profile.PlaceholderClientID {
		configuration.ClientID = placeholderValue
	}
	if profile.OmitUserPoolID {
		configuration.UserPoolID = ""
	}
	return configuration
}

// NewRouter builds the stub deployment router.
func NewRouter(logger *zap.Logger, profile Profile) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:  corsAllowOrigins,
		AllowMethods:  corsAllowedMethods,
		AllowHeaders:  corsAllowedHeaders,
		ExposeHeaders: corsAllowedHeaders,
		MaxAge:        corsMaxAge,
	}))

	configuration := DefaultRuntimeConfig(profile)

	router.GET(ConfigRoutePath, func(ginContext *gin.Context) {
		ginContext.JSON(http.StatusOK, configuration)
	})
	router.GET(BootstrapRoutePath, func(ginContext *gin.Context) {
		ginContext.Data(http.StatusOK, bootstrapPageContentType, []byte(BootstrapPageHTML(profile)))
	})

	return router
}
