package router

import "time"

// NavigationResult classifies how a navigation ended.
type NavigationResult string

const (
	NavCommitted  NavigationResult = "committed"
	NavBlocked    NavigationResult = "blocked"
	NavSuperseded NavigationResult = "superseded"
	NavRedirected NavigationResult = "redirected"
	NavNoop       NavigationResult = "noop"
	NavFailed     NavigationResult = "failed"
)

// Observer receives router lifecycle events. Implementations must be
// safe for concurrent use and must not block; the router calls them
// inline. pkg/instrument ships Prometheus and OpenTelemetry
// implementations.
type Observer interface {
	// NavigationStart fires when a navigation enters pending.
	NavigationStart(to ParsedLocation)

	// NavigationEnd fires once per navigation with its outcome.
	NavigationEnd(from, to ParsedLocation, result NavigationResult, elapsed time.Duration)

	// LoaderStart fires before a loader invocation.
	LoaderStart(routeID string, cause Cause)

	// LoaderEnd fires when a loader settles. err is nil on success
	// and on discarded (cancelled) invocations.
	LoaderEnd(routeID string, cause Cause, elapsed time.Duration, err error)

	// CacheHit fires when a fresh cached match is reused.
	CacheHit(routeID string)

	// CacheMiss fires when a loader must run.
	CacheMiss(routeID string)
}

// noopObserver is installed when Options.Observer is nil.
type noopObserver struct{}

func (noopObserver) NavigationStart(ParsedLocation)                                           {}
func (noopObserver) NavigationEnd(ParsedLocation, ParsedLocation, NavigationResult, time.Duration) {}
func (noopObserver) LoaderStart(string, Cause)                                                {}
func (noopObserver) LoaderEnd(string, Cause, time.Duration, error)                            {}
func (noopObserver) CacheHit(string)                                                          {}
func (noopObserver) CacheMiss(string)                                                         {}
