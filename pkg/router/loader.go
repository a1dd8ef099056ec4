package router

import (
	"context"
	"time"

	"github.com/wayfind-dev/wayfind/pkg/search"
)

// LoaderContext is handed to every loader invocation.
type LoaderContext struct {
	// Context is cancelled when the match is superseded or the
	// configured loader timeout elapses. Loaders are expected to
	// observe it; the core stops waiting regardless.
	Context context.Context

	RouteID string

	// Params are the accumulated path params for the chain.
	Params map[string]string

	// Search is the decoded search of the target location.
	Search search.Params

	// Deps is the derived loader-dependency key.
	Deps map[string]any

	// ParentData is the nearest ancestor loader's data, nil at the
	// root.
	ParentData any

	Cause Cause
}

// LoaderFunc produces data for a matched route. Returning a
// *RedirectError or *NotFoundError is control flow, not failure; any
// other error is attached to the match as a LoaderError.
type LoaderFunc func(lc LoaderContext) (any, error)

// LoaderDepsFunc derives the dependency key from search params. Two
// matches with the same route and params but different deps load
// independently.
type LoaderDepsFunc func(s search.Params) map[string]any

// SearchValidatorFunc checks the decoded search params for one route.
// A returned error becomes the match's SearchError and skips the
// loader.
type SearchValidatorFunc func(s search.Params) error

// loadOutcome is what loadMatches reports back to the navigation.
type loadOutcome struct {
	redirect       *RedirectError
	globalNotFound bool
}

// loadMatches runs loaders for the pending set in root-to-leaf order,
// reusing fresh cache entries and attaching to in-flight loads. It
// returns errSuperseded as soon as a newer navigation takes over.
func (r *Router) loadMatches(ctx context.Context, navCtx context.Context, seq uint64, matches []*Match, cause Cause) (loadOutcome, error) {
	var outcome loadOutcome
	var parentData any

	for i, m := range matches {
		if r.superseded(seq) {
			return outcome, errSuperseded
		}

		route, ok := r.tree.Get(m.RouteID)
		if !ok {
			continue
		}

		r.mu.Lock()
		if m.ParamsError != nil || m.SearchError != nil {
			// Loader skipped; error stays on this match only.
			m.Status = MatchError
			r.bumpMatchGensLocked()
			r.mu.Unlock()
			continue
		}

		if route.Loader == nil {
			if m.Status != MatchError {
				m.Status = MatchSuccess
			}
			r.bumpMatchGensLocked()
			r.mu.Unlock()
			continue
		}

		staleTime := r.staleTimeFor(route, cause)
		if m.preloaded && cause != CausePreload {
			staleTime = r.staleTimeFor(route, CausePreload)
		}
		if m.fresh(staleTime) {
			parentData = m.LoaderData
			r.mu.Unlock()
			r.observer.CacheHit(route.ID)
			continue
		}

		var done chan struct{}
		if m.IsFetching {
			// Attach to the in-flight invocation instead of
			// re-invoking: at most one loader per match id.
			done = m.done
			r.mu.Unlock()
		} else {
			r.observer.CacheMiss(route.ID)
			done = r.startLoaderLocked(m, route, cause, parentData)
			r.mu.Unlock()
		}

		select {
		case <-done:
		case <-navCtx.Done():
			return outcome, errSuperseded
		case <-ctx.Done():
			return outcome, ctx.Err()
		}

		r.mu.Lock()
		sig := m.signal
		m.signal = nil
		if m.Status == MatchSuccess {
			parentData = m.LoaderData
		}
		r.mu.Unlock()

		if sig != nil {
			if re, ok := AsRedirect(sig); ok {
				outcome.redirect = re
				return outcome, nil
			}
			if nf, ok := AsNotFound(sig); ok {
				outcome.globalNotFound = r.handleNotFound(matches, i, nf)
				// Descendants are skipped; the navigation still
				// commits so sibling branches stay healthy.
				return outcome, nil
			}
		}
	}

	return outcome, nil
}

// startLoaderLocked begins a loader invocation for m. Caller holds
// r.mu. Returns the channel closed when the invocation settles.
func (r *Router) startLoaderLocked(m *Match, route *Route, cause Cause, parentData any) chan struct{} {
	m.IsFetching = true
	m.FetchCount++
	m.Cause = cause
	m.preloaded = cause == CausePreload
	if m.Status != MatchSuccess {
		m.Status = MatchPending
	}

	base := r.baseCtx
	var cancelTimeout context.CancelFunc
	if r.opts.LoaderTimeout > 0 {
		base, cancelTimeout = context.WithTimeout(base, r.opts.LoaderTimeout)
	}
	lctx, cancel := context.WithCancel(base)
	m.cancel = cancel

	done := make(chan struct{})
	m.done = done

	// Decouple "is loading" from "show a pending UI": the flag flips
	// only after pendingMs, so fast loads never flicker.
	if pendingMs := r.pendingMsFor(route); pendingMs > 0 {
		fetchGen := m.FetchCount
		time.AfterFunc(pendingMs, func() {
			r.mu.Lock()
			if m.IsFetching && m.FetchCount == fetchGen && !m.ShowPending {
				m.ShowPending = true
				r.bumpMatchGensLocked()
				deliver := r.notifyLocked()
				r.mu.Unlock()
				deliver()
				return
			}
			r.mu.Unlock()
		})
	}

	lc := LoaderContext{
		Context:    lctx,
		RouteID:    route.ID,
		Params:     m.Params,
		Search:     m.Search,
		Deps:       m.LoaderDeps,
		ParentData: parentData,
		Cause:      cause,
	}
	loader := route.Loader

	go func() {
		start := time.Now()
		r.observer.LoaderStart(route.ID, cause)

		data, err := loader(lc)

		// Snapshot before releasing the contexts: cancel() below
		// would otherwise mask a supersession signal.
		cancelled := lctx.Err() == context.Canceled

		cancel()
		if cancelTimeout != nil {
			cancelTimeout()
		}

		r.mu.Lock()

		switch {
		case cancelled:
			// Superseded: the result is discarded, never committed,
			// and no error surfaces. Marked invalid so a later
			// navigation reloads.
			m.Invalid = true
			err = nil
		case err == nil:
			m.Status = MatchSuccess
			m.LoaderData = data
			m.Error = nil
			m.Invalid = false
			m.UpdatedAt = time.Now()
		default:
			if _, isRedirect := AsRedirect(err); isRedirect {
				m.signal = err
				m.Invalid = true
			} else if nf, isNotFound := AsNotFound(err); isNotFound {
				if nf.RouteID == "" {
					nf.RouteID = route.ID
				}
				m.signal = nf
				m.Invalid = true
			} else {
				m.Status = MatchError
				m.Error = &LoaderError{RouteID: route.ID, Err: err}
				m.UpdatedAt = time.Now()
			}
		}

		m.IsFetching = false
		m.ShowPending = false
		m.cancel = nil
		r.bumpMatchGensLocked()
		deliver := r.notifyLocked()
		close(done)
		r.mu.Unlock()

		r.observer.LoaderEnd(route.ID, cause, time.Since(start), err)
		deliver()
	}()

	return done
}

// handleNotFound marks the nearest not-found-capable ancestor of
// matches[idx] (the root when nf.Global or nothing declares a
// handler). Reports whether handling landed on the root without a
// declared handler, i.e. a global not-found.
func (r *Router) handleNotFound(matches []*Match, idx int, nf *NotFoundError) bool {
	target := 0
	if !nf.Global {
		for i := idx; i >= 0; i-- {
			route, ok := r.tree.Get(matches[i].RouteID)
			if ok && route.NotFoundComponent != nil {
				target = i
				break
			}
		}
	}

	r.mu.Lock()
	m := matches[target]
	m.Status = MatchError
	m.Error = nf
	r.bumpMatchGensLocked()
	deliver := r.notifyLocked()
	r.mu.Unlock()
	deliver()

	if nf.Global {
		return true
	}
	root, ok := r.tree.Get(matches[target].RouteID)
	return target == 0 && (!ok || root.NotFoundComponent == nil)
}

// staleTimeFor resolves the freshness window for a route and cause.
func (r *Router) staleTimeFor(route *Route, cause Cause) time.Duration {
	if cause == CausePreload {
		if route.PreloadStaleTime > 0 {
			return route.PreloadStaleTime
		}
		return r.opts.DefaultPreloadStaleTime
	}
	if route.StaleTime > 0 {
		return route.StaleTime
	}
	return r.opts.DefaultStaleTime
}

func (r *Router) pendingMsFor(route *Route) time.Duration {
	if route.PendingMs != 0 {
		return route.PendingMs
	}
	return r.opts.DefaultPendingMs
}

func (r *Router) gcTimeFor(route *Route) time.Duration {
	if route.GCTime > 0 {
		return route.GCTime
	}
	return r.opts.DefaultGCTime
}

// bumpMatchGensLocked invalidates the snapshot caches for all match
// collections. Match mutation can touch a pointer shared across
// collections, so all three are rebuilt.
func (r *Router) bumpMatchGensLocked() {
	r.matchesGen++
	r.pendingGen++
	r.cachedGen++
}
