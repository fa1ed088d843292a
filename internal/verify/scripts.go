package verify

import "fmt"

// Inline scripts evaluated in the page context. Results are JSON-serialized
// across the driver boundary, so every snippet returns a plain value.

const configCachePresentScriptTemplate = `sessionStorage.getItem(%q) !== null`

const documentCompleteScript = `document.readyState === 'complete'`

const fetchConfigScriptTemplate = `fetch(%q)
	.then(function (response) { return response.json(); })
	.catch(function (error) { return { error: error.message }; })`

const environmentConfigScript = `(function () {
	var config = window.ENV_CONFIG ||
		window.__APP_CONFIG__ ||
		JSON.parse(sessionStorage.getItem('app-config') || '{}');
	return {
		apiUrl: config.apiUrl || 'not-found',
		environment: config.environment || 'not-found',
		region: config.region || 'not-found'
	};
}())`

const localhostResourceEntriesScript = `(function () {
	var entries = performance.getEntriesByType('resource');
	return entries.filter(function (entry) {
		return entry.name.indexOf('localhost') !== -1 ||
			entry.name.indexOf('127.0.0.1') !== -1;
	}).map(function (entry) { return entry.name; });
}())`

const authGlobalsScript = `(function () {
	return {
		hasAmplify: typeof window.Amplify !== 'undefined',
		hasAuth: typeof (window.Amplify && window.Amplify.Auth) !== 'undefined'
	};
}())`

const cognitoCacheScriptTemplate = `(function () {
	var cached = sessionStorage.getItem(%q);
	if (!cached) { return null; }
	var parsed = JSON.parse(cached);
	return {
		hasUserPoolId: !!parsed.userPoolId && parsed.userPoolId !== 'undefined',
		hasClientId: !!parsed.clientId && parsed.clientId !== 'undefined',
		userPoolId: parsed.userPoolId || '',
		clientId: parsed.clientId || ''
	};
}())`

func configCachePresentScript() string {
	return fmt.Sprintf(configCachePresentScriptTemplate, ConfigCacheKey)
}

func fetchConfigScript(configEndpointURL string) string {
	return fmt.Sprintf(fetchConfigScriptTemplate, configEndpointURL)
}

func cognitoCacheScript() string {
	return fmt.Sprintf(cognitoCacheScriptTemplate, ConfigCacheKey)
}
