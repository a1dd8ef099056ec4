package router

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wayfind-dev/wayfind/pkg/history"
	"github.com/wayfind-dev/wayfind/pkg/search"
)

// Options configures a Router. Zero values fall back to the defaults
// documented per field.
type Options struct {
	// History is the location backend. Default: a MemoryHistory
	// rooted at "/".
	History history.History

	// SearchCodec parses and serializes search params. Default:
	// search.NewJSONCodec().
	SearchCodec search.Codec

	// Logger receives router diagnostics. Default: slog.Default().
	Logger *slog.Logger

	// Observer receives lifecycle events (see pkg/instrument).
	Observer Observer

	// DefaultStaleTime is the freshness window for committed
	// matches. Default 0: loaders rerun on every navigation.
	DefaultStaleTime time.Duration

	// DefaultPreloadStaleTime is the freshness window for preloaded
	// matches. Default 30s.
	DefaultPreloadStaleTime time.Duration

	// DefaultPendingMs is the delay before ShowPending flips on a
	// still-loading match. Default 1s.
	DefaultPendingMs time.Duration

	// DefaultGCTime bounds how long superseded matches stay cached.
	// Default 30m.
	DefaultGCTime time.Duration

	// MaxCachedMatches bounds the cache size; least recently
	// committed entries are evicted first. Default 100.
	MaxCachedMatches int

	// MaxRedirects bounds loader redirect chains. Default 10.
	MaxRedirects int

	// LoaderTimeout, when positive, bounds each loader invocation.
	LoaderTimeout time.Duration

	// CaseSensitive makes literal segment matching exact.
	CaseSensitive bool

	// OnResolved fires once per commit with the pre- and
	// post-locations.
	OnResolved func(from, to ParsedLocation)
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.History == nil {
		out.History = history.NewMemoryHistory("/")
	}
	if out.SearchCodec == nil {
		out.SearchCodec = search.NewJSONCodec()
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	if out.Observer == nil {
		out.Observer = noopObserver{}
	}
	if out.DefaultPreloadStaleTime == 0 {
		out.DefaultPreloadStaleTime = 30 * time.Second
	}
	if out.DefaultPendingMs == 0 {
		out.DefaultPendingMs = time.Second
	}
	if out.DefaultGCTime == 0 {
		out.DefaultGCTime = 30 * time.Minute
	}
	if out.MaxCachedMatches == 0 {
		out.MaxCachedMatches = 100
	}
	if out.MaxRedirects == 0 {
		out.MaxRedirects = 10
	}
	return out
}

// Router coordinates navigation intents, match loading, and the
// observable state store. All state mutation is serialized through
// one mutex; subscribers only ever see committed snapshots.
type Router struct {
	tree     *RouteTree
	opts     Options
	observer Observer
	log      *slog.Logger
	history  history.History

	mu sync.Mutex

	status          RouterStatus
	location        ParsedLocation
	pendingLocation *ParsedLocation
	matches         []*Match
	pendingMatches  []*Match
	cachedMatches   []*Match
	isLoading       bool
	isTransitioning bool
	globalNotFound  bool

	matchesGen uint64
	pendingGen uint64
	cachedGen  uint64
	snap       snapshotCache

	subs      map[int]func(RouterState)
	nextSubID int

	blockers      []registeredBlocker
	nextBlockerID int

	// navSeq orders navigations; only the latest may commit.
	navSeq uint64

	// navCancel aborts the previous navigation's waits.
	navCancel context.CancelFunc

	baseCtx    context.Context
	baseCancel context.CancelFunc

	historyUnsub   func()
	historyUnblock func()
}

// New builds a Router for a validated route tree. The initial
// location is taken from the history backend but nothing is loaded
// until Load or the first Navigate.
func New(tree *RouteTree, opts Options) (*Router, error) {
	o := opts.withDefaults()

	loc, err := ParseLocation(o.History.Location(), o.SearchCodec)
	if err != nil {
		return nil, err
	}

	baseCtx, baseCancel := context.WithCancel(context.Background())
	r := &Router{
		tree:       tree,
		opts:       o,
		observer:   o.Observer,
		log:        o.Logger,
		history:    o.History,
		status:     StatusIdle,
		location:   loc,
		subs:       make(map[int]func(RouterState)),
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
	}

	r.historyUnsub = r.history.Subscribe(r.onHistoryUpdate)
	r.historyUnblock = r.history.Block(r.allowHistoryTransition)
	return r, nil
}

// allowHistoryTransition consults the registered blockers for pop
// transitions (back and forward buttons) before the history index
// moves. Push and replace transitions originate from Navigate, which
// has already run the blockers.
func (r *Router) allowHistoryTransition(u history.Update) bool {
	if u.Action != history.ActionPop {
		return true
	}
	to, err := ParseLocation(u.Href, r.opts.SearchCodec)
	if err != nil {
		return true
	}
	r.mu.Lock()
	from := r.location
	r.mu.Unlock()
	return r.runBlockers(r.baseCtx, from, to)
}

// Stop detaches the router from history and cancels in-flight loads.
func (r *Router) Stop() {
	if r.historyUnsub != nil {
		r.historyUnsub()
	}
	if r.historyUnblock != nil {
		r.historyUnblock()
	}
	r.baseCancel()
}

// Load resolves and loads the current history location. Called once
// at startup.
func (r *Router) Load(ctx context.Context) error {
	loc, err := ParseLocation(r.history.Location(), r.opts.SearchCodec)
	if err != nil {
		return err
	}
	return r.navigate(ctx, ToOptions{
		To:     loc.Pathname,
		Search: loc.Search,
		Hash:   loc.Hash,
		Force:  true,
	}, 0, true)
}

// Navigate resolves a target location and drives it through match
// resolution, loading, and commit. It returns once the navigation
// settles: nil on commit (and on silent supersession),
// ErrNavigationBlocked on veto, the originating error otherwise. A
// redirect chain settles before Navigate returns.
func (r *Router) Navigate(ctx context.Context, to ToOptions) error {
	return r.navigate(ctx, to, 0, false)
}

func (r *Router) navigate(ctx context.Context, to ToOptions, depth int, fromHistory bool) error {
	r.mu.Lock()
	cur := r.location
	r.mu.Unlock()

	next, err := BuildLocation(cur, to, r.opts.SearchCodec)
	if err != nil {
		return err
	}

	if depth > r.opts.MaxRedirects {
		return &RedirectLoopError{Depth: depth, Href: next.Href}
	}

	if next.NavEquals(cur) && !to.Force {
		// Never enters pending, so no NavigationStart pairs with this.
		r.observer.NavigationEnd(cur, next, NavNoop, 0)
		return nil
	}

	start := time.Now()
	r.observer.NavigationStart(next)
	r.log.Debug("navigate", "from", cur.Href, "to", next.Href, "depth", depth)

	// History-driven navigations (pops, initial load, invalidation)
	// were already cleared at the history layer.
	if !fromHistory && !r.runBlockers(ctx, cur, next) {
		r.observer.NavigationEnd(cur, next, NavBlocked, time.Since(start))
		return ErrNavigationBlocked
	}

	seq := atomic.AddUint64(&r.navSeq, 1)
	navCtx, navCancel := context.WithCancel(r.baseCtx)
	defer navCancel()

	candidates, matcherNotFound := MatchRoutes(r.tree, next.Pathname, MatchOptions{
		CaseSensitive: r.opts.CaseSensitive,
	})

	r.mu.Lock()
	if r.navCancel != nil {
		r.navCancel()
	}
	r.navCancel = navCancel

	pending := r.buildMatchesLocked(candidates, next, CauseEnter)
	r.cancelObsoleteLocked(pending)
	r.status = StatusPending
	r.pendingLocation = &next
	r.pendingMatches = pending
	r.isLoading = true
	r.pendingGen++
	deliver := r.notifyLocked()
	r.mu.Unlock()
	deliver()

	outcome, lerr := r.loadMatches(ctx, navCtx, seq, pending, CauseEnter)

	switch {
	case lerr == errSuperseded:
		// A newer navigation owns the state now; resolve silently.
		r.observer.NavigationEnd(cur, next, NavSuperseded, time.Since(start))
		return nil
	case lerr != nil:
		r.abandonPending(seq)
		r.observer.NavigationEnd(cur, next, NavFailed, time.Since(start))
		return lerr
	}

	if outcome.redirect != nil {
		r.abandonPending(seq)
		r.observer.NavigationEnd(cur, next, NavRedirected, time.Since(start))
		// The abandoned location never reached history, so the
		// redirect target inherits the original push/replace mode.
		target := outcome.redirect.To
		target.Replace = target.Replace || to.Replace
		return r.navigate(ctx, target, depth+1, fromHistory)
	}

	// Unmatched trailing segments: route the not-found to the nearest
	// capable ancestor, same as a loader signal.
	if matcherNotFound {
		if len(pending) == 0 {
			outcome.globalNotFound = true
		} else {
			deepest := pending[len(pending)-1]
			global := r.handleNotFound(pending, len(pending)-1, &NotFoundError{RouteID: deepest.RouteID})
			outcome.globalNotFound = outcome.globalNotFound || global
		}
	}

	if !r.commit(seq, next, pending, outcome.globalNotFound) {
		r.observer.NavigationEnd(cur, next, NavSuperseded, time.Since(start))
		return nil
	}

	if !fromHistory {
		href := next.PublicHref()
		var herr error
		if to.Replace {
			herr = r.history.Replace(href, next.State)
		} else {
			herr = r.history.Push(href, next.State)
		}
		if herr != nil {
			r.log.Warn("history write failed", "href", href, "error", herr)
		}
	}

	r.notify()
	if r.opts.OnResolved != nil {
		r.opts.OnResolved(cur, next)
	}
	r.observer.NavigationEnd(cur, next, NavCommitted, time.Since(start))
	return nil
}

// commit atomically promotes the pending set. Returns false when a
// newer navigation superseded this one.
func (r *Router) commit(seq uint64, next ParsedLocation, pending []*Match, globalNotFound bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if atomic.LoadUint64(&r.navSeq) != seq {
		return false
	}

	now := time.Now()
	inNew := make(map[string]bool, len(pending))
	for _, m := range pending {
		inNew[m.ID] = true
		m.committedAt = now
		m.preloaded = false
	}

	// Demote superseded matches to the cache; drop cache entries
	// that were promoted back into the committed set.
	kept := r.cachedMatches[:0]
	for _, m := range r.cachedMatches {
		if !inNew[m.ID] {
			kept = append(kept, m)
		}
	}
	r.cachedMatches = kept
	for _, old := range r.matches {
		if !inNew[old.ID] {
			old.committedAt = now
			r.cachedMatches = append(r.cachedMatches, old)
		}
	}

	r.matches = pending
	r.pendingMatches = nil
	r.location = next
	r.pendingLocation = nil
	r.status = StatusIdle
	r.isLoading = false
	r.isTransitioning = true
	r.globalNotFound = globalNotFound
	r.matchesGen++
	r.pendingGen++
	r.cachedGen++

	r.pruneCacheLocked(now)
	return true
}

// abandonPending clears pending state if this navigation still owns
// it.
func (r *Router) abandonPending(seq uint64) {
	r.mu.Lock()
	if atomic.LoadUint64(&r.navSeq) == seq {
		r.pendingMatches = nil
		r.pendingLocation = nil
		r.status = StatusIdle
		r.isLoading = false
		r.pendingGen++
	}
	deliver := r.notifyLocked()
	r.mu.Unlock()
	deliver()
}

// buildMatchesLocked turns matcher candidates into the pending match
// set, reusing live and cached matches by id. Caller holds r.mu.
func (r *Router) buildMatchesLocked(candidates []Candidate, loc ParsedLocation, cause Cause) []*Match {
	current := make(map[string]*Match, len(r.matches))
	for _, m := range r.matches {
		current[m.RouteID] = m
	}

	out := make([]*Match, 0, len(candidates))
	for _, c := range candidates {
		var deps map[string]any
		if c.Route.LoaderDeps != nil {
			deps = c.Route.LoaderDeps(loc.Search)
		}
		id := matchID(c.Route.ID, c.Params, deps)

		m := r.findMatchLocked(id)
		if m == nil {
			matchCause := cause
			if cause != CausePreload {
				if _, stayed := current[c.Route.ID]; stayed {
					matchCause = CauseStay
				}
			}
			m = &Match{
				ID:         id,
				RouteID:    c.Route.ID,
				Status:     MatchPending,
				Cause:      matchCause,
				LoaderDeps: deps,
			}
		} else if cause != CausePreload {
			m.Cause = CauseStay
			if _, stayed := current[c.Route.ID]; !stayed {
				m.Cause = CauseEnter
			}
		}

		m.Pathname = c.Pathname
		m.Params = c.Params
		m.Search = loc.Search
		m.ParamsError = nil
		if c.Route.ParseParams != nil {
			if err := c.Route.ParseParams(c.Params); err != nil {
				m.ParamsError = &ParamsParseError{RouteID: c.Route.ID, Err: err}
			}
		}
		m.SearchError = nil
		if c.Route.ValidateSearch != nil {
			if err := c.Route.ValidateSearch(loc.Search); err != nil {
				m.SearchError = &SearchValidationError{RouteID: c.Route.ID, Err: err}
			}
		}

		out = append(out, m)
	}
	return out
}

// findMatchLocked looks a match id up across the three collections.
func (r *Router) findMatchLocked(id string) *Match {
	for _, m := range r.matches {
		if m.ID == id {
			return m
		}
	}
	for _, m := range r.pendingMatches {
		if m.ID == id {
			return m
		}
	}
	for _, m := range r.cachedMatches {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// cancelObsoleteLocked aborts in-flight loads that the new pending
// set does not reuse. Caller holds r.mu.
func (r *Router) cancelObsoleteLocked(pending []*Match) {
	inNew := make(map[string]bool, len(pending))
	for _, m := range pending {
		inNew[m.ID] = true
	}
	for _, m := range r.pendingMatches {
		if !inNew[m.ID] && m.IsFetching && m.cancel != nil {
			m.cancel()
		}
	}
}

// pruneCacheLocked applies the least-recently-committed eviction
// policy: entries beyond MaxCachedMatches or older than their gc time
// are dropped. Committed matches are never in the cache. Caller
// holds r.mu.
func (r *Router) pruneCacheLocked(now time.Time) {
	kept := r.cachedMatches[:0]
	for _, m := range r.cachedMatches {
		if m.IsFetching {
			kept = append(kept, m)
			continue
		}
		gc := r.opts.DefaultGCTime
		if route, ok := r.tree.Get(m.RouteID); ok {
			gc = r.gcTimeFor(route)
		}
		if now.Sub(m.committedAt) < gc {
			kept = append(kept, m)
		}
	}
	r.cachedMatches = kept

	if over := len(r.cachedMatches) - r.opts.MaxCachedMatches; over > 0 {
		sort.SliceStable(r.cachedMatches, func(i, j int) bool {
			return r.cachedMatches[i].committedAt.Before(r.cachedMatches[j].committedAt)
		})
		r.cachedMatches = append([]*Match(nil), r.cachedMatches[over:]...)
	}
	r.cachedGen++
}

// superseded reports whether a newer navigation has started.
func (r *Router) superseded(seq uint64) bool {
	return atomic.LoadUint64(&r.navSeq) != seq
}

// Preload resolves a target and warms its matches without touching
// committed state. Preloaded matches land in the cache and are reused
// by a later navigation while fresh.
func (r *Router) Preload(ctx context.Context, to ToOptions) error {
	r.mu.Lock()
	cur := r.location
	r.mu.Unlock()

	next, err := BuildLocation(cur, to, r.opts.SearchCodec)
	if err != nil {
		return err
	}

	candidates, notFound := MatchRoutes(r.tree, next.Pathname, MatchOptions{
		CaseSensitive: r.opts.CaseSensitive,
	})
	if notFound {
		return &NotFoundError{Global: true}
	}

	r.mu.Lock()
	matches := r.buildMatchesLocked(candidates, next, CausePreload)
	live := make(map[string]bool, len(r.matches)+len(r.pendingMatches)+len(r.cachedMatches))
	for _, m := range r.matches {
		live[m.ID] = true
	}
	for _, m := range r.pendingMatches {
		live[m.ID] = true
	}
	for _, m := range r.cachedMatches {
		live[m.ID] = true
	}
	now := time.Now()
	for _, m := range matches {
		if !live[m.ID] {
			m.committedAt = now
			r.cachedMatches = append(r.cachedMatches, m)
		}
	}
	r.cachedGen++
	r.mu.Unlock()

	seq := atomic.LoadUint64(&r.navSeq)
	_, lerr := r.loadMatches(ctx, r.baseCtx, seq, matches, CausePreload)
	if lerr == errSuperseded {
		return nil
	}
	return lerr
}

// Invalidate marks every live and cached match stale and reloads the
// current location in place (no history entry).
func (r *Router) Invalidate(ctx context.Context) error {
	r.mu.Lock()
	for _, m := range r.matches {
		m.Invalid = true
	}
	for _, m := range r.cachedMatches {
		m.Invalid = true
	}
	r.bumpMatchGensLocked()
	r.mu.Unlock()

	return r.navigate(ctx, ToOptions{To: ".", Force: true}, 0, true)
}

// TransitionComplete clears IsTransitioning. Called by the rendering
// layer once it has finished applying a commit.
func (r *Router) TransitionComplete() {
	r.mu.Lock()
	r.isTransitioning = false
	deliver := r.notifyLocked()
	r.mu.Unlock()
	deliver()
}

// MatchRouteOptions configures MatchRoute queries.
type MatchRouteOptions struct {
	// Pending matches against the in-flight target instead of the
	// committed location.
	Pending bool

	// Fuzzy accepts a prefix match (active-link highlighting for
	// ancestors).
	Fuzzy bool

	CaseSensitive bool
}

// MatchRoute reports whether the given target pattern matches the
// current (or pending) location, returning extracted params. The To
// pattern may contain $param and $ segments.
func (r *Router) MatchRoute(to ToOptions, opts MatchRouteOptions) (map[string]string, bool) {
	r.mu.Lock()
	loc := r.location
	if opts.Pending && r.pendingLocation != nil {
		loc = *r.pendingLocation
	}
	r.mu.Unlock()

	from := to.From
	if from == "" {
		from = loc.Pathname
	}
	pattern := resolvePathname(from, to.To)
	pattern = interpolateParams(pattern, to.Params)

	return matchPattern(pattern, loc.Pathname, opts)
}

// matchPattern compares a path pattern against a concrete pathname.
func matchPattern(pattern, pathname string, opts MatchRouteOptions) (map[string]string, bool) {
	pparts := splitPath(pattern)
	aparts := splitPath(pathname)

	params := map[string]string{}
	for i, p := range pparts {
		if p == "$" {
			params["*"] = strings.Join(aparts[i:], "/")
			return params, true
		}
		if i >= len(aparts) {
			return nil, false
		}
		if strings.HasPrefix(p, "$") {
			params[strings.TrimPrefix(p, "$")] = aparts[i]
			continue
		}
		if !segmentEqual(p, aparts[i], opts.CaseSensitive) {
			return nil, false
		}
	}
	if len(aparts) > len(pparts) && !opts.Fuzzy {
		return nil, false
	}
	return params, true
}

// onHistoryUpdate reacts to history changes. Pop events (back and
// forward buttons) drive a navigation; push/replace echoes of our own
// writes no-op through navigation equivalence.
func (r *Router) onHistoryUpdate(u history.Update) {
	loc, err := ParseLocation(u.Href, r.opts.SearchCodec)
	if err != nil {
		r.log.Warn("unparseable history location", "href", u.Href, "error", err)
		return
	}

	r.mu.Lock()
	cur := r.location
	r.mu.Unlock()
	if loc.NavEquals(cur) {
		return
	}

	go func() {
		if err := r.navigate(context.Background(), ToOptions{
			To:     loc.Pathname,
			Search: loc.Search,
			Hash:   loc.Hash,
			State:  u.State,
		}, 0, true); err != nil && err != ErrNavigationBlocked {
			r.log.Warn("history navigation failed", "href", u.Href, "error", err)
		}
	}()
}
