package stubapp

import "strings"

const (
	bootstrapPageContentType = "text/html; charset=utf-8"

	// BrandMarker appears in the rendered markup of every healthy page.
	BrandMarker = "OrderNimbus"

	// ConfigCacheKey is the session-storage entry the bootstrap script caches
	// the runtime configuration under, matching the application under test.
	ConfigCacheKey = "app-config"
)

const bootstrapPageHead = `<!doctype html><html lang="en"><head><meta charset="utf-8"><title>OrderNimbus</title></head><body><h1>OrderNimbus</h1><div id="root"></div><script>
(function () {
  function authenticate() {
    console.log('getCurrentUser called');
  }
`

const bootstrapPageTail = `})();
</script></body></html>`

const bootstrapFetchScript = `  console.log('Loading runtime configuration');
  fetch('/api/config')
    .then(function (response) { return response.json(); })
    .then(function (config) {
      sessionStorage.setItem('app-config', JSON.stringify(config));
      window.ENV_CONFIG = config;
      console.log('Configuration loaded successfully', JSON.stringify(config));
      console.log('Configuring Amplify');
`

const bootstrapFetchRecoveryScript = `    })
    .catch(function (error) {
      console.error('Configuration load failed: ' + error.message);
    });
`

const (
	authBeforeConfigScript  = "  authenticate();\n"
	authAfterConfigScript   = "      authenticate();\n"
	amplifyConfiguredScript = "      console.log('AWS Amplify configured');\n"
	userPoolErrorScript     = "      console.error('Auth UserPool not configured. AuthUserPoolException');\n"
)

// BootstrapPageHTML renders the stub bootstrap page for a profile. The
// healthy sequence is: fetch configuration, cache it, log the lifecycle
// markers in order, then attempt authentication.
func BootstrapPageHTML(profile Profile) string {
	var page strings.Builder
	page.WriteString(bootstrapPageHead)
	if profile.AuthBeforeConfig {
		page.WriteString(authBeforeConfigScript)
	}
	page.WriteString(bootstrapFetchScript)
	if profile.UserPoolError {
		page.WriteString(userPoolErrorScript)
	} else {
		page.WriteString(amplifyConfiguredScript)
	}
	if !profile.AuthBeforeConfig {
		page.WriteString(authAfterConfigScript)
	}
	page.WriteString(bootstrapFetchRecoveryScript)
	page.WriteString(bootstrapPageTail)
	return page.String()
}
