package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

const (
	navigateErrorMessage    = "navigate"
	evaluateErrorMessage    = "evaluate script"
	pageMarkupErrorMessage  = "read page markup"
	waitConditionPollPeriod = 250 * time.Millisecond
	documentSelector        = "html"
)

// ErrConditionNotMet indicates a WaitUntil predicate never became true within
// its wait window. The observed page state may still be inspected afterwards;
// the caller decides whether that is a failure or an inconclusive outcome.
var ErrConditionNotMet = errors.New("wait condition not met")

// Navigate drives the session to the target URL. A load failure is fatal to
// the calling test case; there is no retry.
func (session *Session) Navigate(targetURL string) error {
	if runErr := chromedp.Run(session.browserContext, chromedp.Navigate(targetURL)); runErr != nil {
		return fmt.Errorf("%s %s: %w", navigateErrorMessage, targetURL, runErr)
	}
	return nil
}

// Settle blocks for a fixed wall-clock duration with no early exit. It exists
// for observations with no concrete page predicate to poll; WaitUntil is
// preferred wherever one can be written.
func (session *Session) Settle(duration time.Duration) error {
	return chromedp.Run(session.browserContext, chromedp.Sleep(duration))
}

// WaitUntil polls a boolean page predicate until it holds or the wait window
// elapses. The window bounds the whole poll; a stalled page surfaces as
// ErrConditionNotMet rather than hanging the suite.
func (session *Session) WaitUntil(predicateScript string, waitWindow time.Duration) error {
	var satisfied bool
	pollErr := chromedp.Run(session.browserContext,
		chromedp.Poll(predicateScript, &satisfied,
			chromedp.WithPollingInterval(waitConditionPollPeriod),
			chromedp.WithPollingTimeout(waitWindow),
		),
	)
	if pollErr != nil {
		if errors.Is(pollErr, chromedp.ErrPollingTimeout) {
			return fmt.Errorf("%w after %s", ErrConditionNotMet, waitWindow)
		}
		return pollErr
	}
	if !satisfied {
		return ErrConditionNotMet
	}
	return nil
}

// Evaluate executes a script snippet in the page context and decodes its
// JSON-serializable result into destination. Pass nil to discard the result.
func (session *Session) Evaluate(script string, destination interface{}) error {
	if runErr := chromedp.Run(session.browserContext, chromedp.Evaluate(script, destination)); runErr != nil {
		return fmt.Errorf("%s: %w", evaluateErrorMessage, runErr)
	}
	return nil
}

// EvaluateAsync executes a promise-returning snippet and waits for the
// promise to resolve before decoding the settled value. This is the call used
// for in-page network fetches, where a plain Evaluate would observe an
// unresolved promise.
func (session *Session) EvaluateAsync(script string, destination interface{}) error {
	runErr := chromedp.Run(session.browserContext,
		chromedp.Evaluate(script, destination, func(parameters *runtime.EvaluateParams) *runtime.EvaluateParams {
			return parameters.WithAwaitPromise(true)
		}),
	)
	if runErr != nil {
		return fmt.Errorf("%s: %w", evaluateErrorMessage, runErr)
	}
	return nil
}

// PageHTML returns the rendered document markup.
func (session *Session) PageHTML() (string, error) {
	var markup string
	runErr := chromedp.Run(session.browserContext,
		chromedp.OuterHTML(documentSelector, &markup, chromedp.ByQuery),
	)
	if runErr != nil {
		return "", fmt.Errorf("%s: %w", pageMarkupErrorMessage, runErr)
	}
	return markup, nil
}

// SessionStorageItem reads a session-scoped storage entry from the page. The
// empty string reports an absent key; the page under test never stores empty
// payloads.
func (session *Session) SessionStorageItem(storageKey string) (string, error) {
	script := fmt.Sprintf(`sessionStorage.getItem(%q) || ""`, storageKey)
	var storedValue string
	if evaluateErr := session.Evaluate(script, &storedValue); evaluateErr != nil {
		return "", evaluateErr
	}
	return storedValue, nil
}
