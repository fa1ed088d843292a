// Package browser owns the headless browser session used by the verification
// suites: one OS-level browser process per suite, acquired once and released
// once, with console capture enabled for the whole session lifetime.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	cdplog "github.com/chromedp/cdproto/log"
	"github.com/chromedp/chromedp"
)

const (
	environmentKeyChromedpBrowser = "CHROMEDP_BROWSER"
	environmentKeyChromePath      = "CHROME_PATH"
	locateExecutableErrorMessage  = "locate headless browser executable"
	startBrowserErrorMessage      = "start headless browser"
	defaultViewportWidth          = 1920
	defaultViewportHeight         = 1080
	browserStartupTimeout         = 30 * time.Second
)

var executableCandidateNames = []string{
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
	"chrome",
	"headless-shell",
}

// ErrBrowserUnavailable indicates the browser binary could not be located or
// started. Suites treat this as fatal and do not retry.
var ErrBrowserUnavailable = errors.New("headless browser unavailable")

// Options enumerates the browser process settings a suite requests.
type Options struct {
	Headless            bool
	DisableSandbox      bool
	DisableSharedMemory bool
	DisableGPU          bool
	ViewportWidth       int
	ViewportHeight      int
	CaptureConsole      bool
}

// DefaultOptions returns the settings every suite runs with.
func DefaultOptions() Options {
	return Options{
		Headless:            true,
		DisableSandbox:      true,
		DisableSharedMemory: true,
		DisableGPU:          true,
		ViewportWidth:       defaultViewportWidth,
		ViewportHeight:      defaultViewportHeight,
		CaptureConsole:      true,
	}
}

// Session is one externally managed browser process handle. It is owned
// exclusively by a single suite and must never be shared across suites.
type Session struct {
	browserContext context.Context
	collector      *Collector
	releaseFuncs   []context.CancelFunc
}

// Acquire starts a headless browser process configured per options. The
// returned session must be released exactly once via Close, on all exit
// paths, to avoid orphaned processes.
func Acquire(options Options) (*Session, error) {
	executablePath, locateErr := LocateExecutable()
	if locateErr != nil {
		return nil, locateErr
	}

	allocatorOptions := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(executablePath),
		chromedp.Flag("headless", options.Headless),
		chromedp.Flag("no-sandbox", options.DisableSandbox),
		chromedp.Flag("disable-dev-shm-usage", options.DisableSharedMemory),
		chromedp.Flag("disable-gpu", options.DisableGPU),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.WindowSize(options.ViewportWidth, options.ViewportHeight),
	)

	allocatorContext, allocatorCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions...)
	browserContext, browserCancel := chromedp.NewContext(allocatorContext)

	session := &Session{
		browserContext: browserContext,
		collector:      NewCollector(),
		releaseFuncs:   []context.CancelFunc{browserCancel, allocatorCancel},
	}

	if options.CaptureConsole {
		session.collector.Listen(browserContext)
	}

	startupContext, startupCancel := context.WithTimeout(browserContext, browserStartupTimeout)
	defer startupCancel()
	if startErr := chromedp.Run(startupContext, cdplog.Enable()); startErr != nil {
		session.Close()
		return nil, fmt.Errorf("%s: %w: %v", startBrowserErrorMessage, ErrBrowserUnavailable, startErr)
	}

	return session, nil
}

// Close terminates the browser process. Safe to call on every exit path.
func (session *Session) Close() {
	for _, release := range session.releaseFuncs {
		release()
	}
}

// Logs exposes the console log collector attached to the session.
func (session *Session) Logs() *Collector {
	return session.collector
}

// LocateExecutable resolves the headless browser binary, preferring the
// CHROMEDP_BROWSER and CHROME_PATH environment variables over a PATH search.
func LocateExecutable() (string, error) {
	environmentVariableNames := []string{
		environmentKeyChromedpBrowser,
		environmentKeyChromePath,
	}

	for _, environmentVariableName := range environmentVariableNames {
		environmentValue := strings.TrimSpace(os.Getenv(environmentVariableName))
		if environmentValue == "" {
			continue
		}
		return environmentValue, nil
	}

	for _, executableName := range executableCandidateNames {
		executablePath, lookupErr := exec.LookPath(executableName)
		if lookupErr == nil {
			return executablePath, nil
		}
	}

	return "", fmt.Errorf("%s: %w", locateExecutableErrorMessage, ErrBrowserUnavailable)
}
