package router

import (
	"errors"
	"fmt"
)

// DuplicateRouteIDError is returned by BuildRouteTree when two nodes
// resolve to the same id. Construction-time and fatal.
type DuplicateRouteIDError struct {
	ID string
}

func (e *DuplicateRouteIDError) Error() string {
	return fmt.Sprintf("router: duplicate route id %q", e.ID)
}

// DuplicateParamNameError is returned by BuildRouteTree when a route
// chain declares the same param name twice. Construction-time and fatal.
type DuplicateParamNameError struct {
	Name    string
	RouteID string
}

func (e *DuplicateParamNameError) Error() string {
	return fmt.Sprintf("router: duplicate param %q on route %q", e.Name, e.RouteID)
}

// ParamsParseError records a failed per-route params parse. It is
// attached to the match that produced it; the loader is skipped.
type ParamsParseError struct {
	RouteID string
	Err     error
}

func (e *ParamsParseError) Error() string {
	return fmt.Sprintf("router: params parse failed for route %q: %v", e.RouteID, e.Err)
}

func (e *ParamsParseError) Unwrap() error { return e.Err }

// SearchParseError records a failed search-string decode.
type SearchParseError struct {
	Search string
	Err    error
}

func (e *SearchParseError) Error() string {
	return fmt.Sprintf("router: search parse failed for %q: %v", e.Search, e.Err)
}

func (e *SearchParseError) Unwrap() error { return e.Err }

// SearchValidationError records a failed per-route search validation.
// It is attached to the match that produced it; the loader is skipped.
type SearchValidationError struct {
	RouteID string
	Err     error
}

func (e *SearchValidationError) Error() string {
	return fmt.Sprintf("router: search validation failed for route %q: %v", e.RouteID, e.Err)
}

func (e *SearchValidationError) Unwrap() error { return e.Err }

// LoaderError wraps an arbitrary error returned by a user loader. It
// is attached to the failing match only; ancestors and siblings are
// unaffected.
type LoaderError struct {
	RouteID string
	Err     error
}

func (e *LoaderError) Error() string {
	return fmt.Sprintf("router: loader failed for route %q: %v", e.RouteID, e.Err)
}

func (e *LoaderError) Unwrap() error { return e.Err }

// NotFoundError signals that a location or loader resolved to
// nothing. The state machine routes it to the nearest ancestor with a
// not-found handler, or to the root when Global is set or no handler
// exists.
type NotFoundError struct {
	// Global forces handling at the root.
	Global bool

	// RouteID is the match that raised the signal, when known.
	RouteID string

	// Data is optional payload for the not-found handler.
	Data any
}

func (e *NotFoundError) Error() string {
	if e.Global {
		return "router: not found (global)"
	}
	return fmt.Sprintf("router: not found at route %q", e.RouteID)
}

// NotFound builds a NotFoundError for loaders to return.
func NotFound(data any) *NotFoundError {
	return &NotFoundError{Data: data}
}

// GlobalNotFound builds a NotFoundError handled at the root.
func GlobalNotFound(data any) *NotFoundError {
	return &NotFoundError{Global: true, Data: data}
}

// RedirectError is a control-flow instruction, not a failure: a
// loader returning one abandons the current navigation and issues a
// new one for the target.
type RedirectError struct {
	To ToOptions
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("router: redirect to %q", e.To.To)
}

// Redirect builds a RedirectError for loaders to return.
func Redirect(to ToOptions) *RedirectError {
	return &RedirectError{To: to}
}

// RedirectToPath builds a RedirectError targeting an absolute path.
func RedirectToPath(path string) *RedirectError {
	return &RedirectError{To: ToOptions{To: path}}
}

// RedirectLoopError is fatal: a redirect chain exceeded MaxRedirects.
type RedirectLoopError struct {
	Depth int
	Href  string
}

func (e *RedirectLoopError) Error() string {
	return fmt.Sprintf("router: redirect loop detected after %d redirects (last target %q)", e.Depth, e.Href)
}

// ErrNavigationBlocked is returned by Navigate when a blocker vetoed
// the transition. Router state is unchanged.
var ErrNavigationBlocked = errors.New("router: navigation blocked")

// errSuperseded is internal: a newer navigation took over. Never
// surfaced to callers; superseded navigations resolve silently.
var errSuperseded = errors.New("router: navigation superseded")

// AsRedirect extracts a RedirectError from err, unwrapping as needed.
func AsRedirect(err error) (*RedirectError, bool) {
	var re *RedirectError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// AsNotFound extracts a NotFoundError from err, unwrapping as needed.
func AsNotFound(err error) (*NotFoundError, bool) {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf, true
	}
	return nil, false
}
