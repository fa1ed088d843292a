package browser

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	cdplog "github.com/chromedp/cdproto/log"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// LogLevel classifies a console entry. The browser emits finer-grained
// levels; the suites only distinguish informational output from severe
// errors, so everything collapses onto these two.
type LogLevel string

const (
	LogLevelInfo   LogLevel = "info"
	LogLevelSevere LogLevel = "severe"
)

const consoleArgumentSeparator = " "

// LogEntry is one ordered, append-only record emitted by the page runtime.
// Index increases monotonically for the lifetime of the collector and is the
// basis of the temporal-ordering checks. Message is an opaque string; callers
// match it by substring search, never by structured parsing.
type LogEntry struct {
	Level   LogLevel
	Message string
	Index   int
}

// Collector accumulates console output from a browser session. Entries are
// appended from the driver's event goroutine, so all access is serialized.
type Collector struct {
	mutex     sync.Mutex
	entries   []LogEntry
	nextIndex int
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Listen subscribes the collector to console, exception and browser log
// events on the given browser context.
func (collector *Collector) Listen(browserContext context.Context) {
	chromedp.ListenTarget(browserContext, func(event interface{}) {
		switch typedEvent := event.(type) {
		case *runtime.EventConsoleAPICalled:
			collector.append(consoleCallLevel(typedEvent.Type), formatConsoleArguments(typedEvent.Args))
		case *runtime.EventExceptionThrown:
			collector.append(LogLevelSevere, formatExceptionDetails(typedEvent.ExceptionDetails))
		case *cdplog.EventEntryAdded:
			if typedEvent.Entry == nil {
				return
			}
			collector.append(browserEntryLevel(typedEvent.Entry.Level), typedEvent.Entry.Text)
		}
	})
}

// Entries returns a read-only snapshot of everything captured so far, in
// emission order.
func (collector *Collector) Entries() []LogEntry {
	collector.mutex.Lock()
	defer collector.mutex.Unlock()
	snapshot := make([]LogEntry, len(collector.entries))
	copy(snapshot, collector.entries)
	return snapshot
}

// Reset discards captured entries. Indices keep increasing across resets so
// ordering comparisons stay valid within a collector lifetime.
func (collector *Collector) Reset() {
	collector.mutex.Lock()
	defer collector.mutex.Unlock()
	collector.entries = nil
}

func (collector *Collector) append(level LogLevel, message string) {
	collector.mutex.Lock()
	defer collector.mutex.Unlock()
	collector.entries = append(collector.entries, LogEntry{
		Level:   level,
		Message: message,
		Index:   collector.nextIndex,
	})
	collector.nextIndex++
}

func consoleCallLevel(callType runtime.APIType) LogLevel {
	switch callType {
	case runtime.APITypeError, runtime.APITypeAssert:
		return LogLevelSevere
	default:
		return LogLevelInfo
	}
}

func browserEntryLevel(entryLevel cdplog.Level) LogLevel {
	if entryLevel == cdplog.LevelError {
		return LogLevelSevere
	}
	return LogLevelInfo
}

func formatConsoleArguments(arguments []*runtime.RemoteObject) string {
	parts := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		if argument == nil {
			continue
		}
		parts = append(parts, formatRemoteObject(argument))
	}
	return strings.Join(parts, consoleArgumentSeparator)
}

func formatRemoteObject(object *runtime.RemoteObject) string {
	if len(object.Value) > 0 {
		var stringValue string
		if unmarshalErr := json.Unmarshal(object.Value, &stringValue); unmarshalErr == nil {
			return stringValue
		}
		return string(object.Value)
	}
	if object.Description != "" {
		return object.Description
	}
	return string(object.Type)
}

func formatExceptionDetails(details *runtime.ExceptionDetails) string {
	if details == nil {
		return ""
	}
	if details.Exception != nil {
		return formatRemoteObject(details.Exception)
	}
	return details.Text
}
