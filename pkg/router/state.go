package router

// RouterStatus is the top-level state machine status.
type RouterStatus string

const (
	// StatusIdle: no navigation in flight.
	StatusIdle RouterStatus = "idle"

	// StatusPending: a navigation is resolving matches and loaders.
	StatusPending RouterStatus = "pending"
)

// RouterState is an atomic snapshot of the router. Subscribers only
// ever observe fully-committed snapshots; slices that did not change
// between snapshots keep reference identity so selector-based
// renderers can use shallow equality.
type RouterState struct {
	Status RouterStatus

	// Location is the committed location.
	Location ParsedLocation

	// PendingLocation is the in-flight target, if any.
	PendingLocation *ParsedLocation

	// Matches are the committed (rendered) matches, root to leaf.
	Matches []Match

	// PendingMatches is the in-flight replacement set, promoted
	// atomically on commit.
	PendingMatches []Match

	// CachedMatches are superseded matches retained for reuse,
	// bounded by the gc policy.
	CachedMatches []Match

	IsLoading       bool
	IsTransitioning bool

	// GlobalNotFound is set when the location matched nothing and no
	// intermediate handler claimed it.
	GlobalNotFound bool
}

// snapshot views are rebuilt lazily: each internal collection has a
// generation counter bumped on mutation, and the exported slice is
// rebuilt only when its generation moved.
type snapshotCache struct {
	matches    []Match
	matchesGen uint64

	pending    []Match
	pendingGen uint64

	cached    []Match
	cachedGen uint64
}

// snapshotLocked builds the exported state. Caller holds r.mu.
func (r *Router) snapshotLocked() RouterState {
	if r.snap.matchesGen != r.matchesGen {
		r.snap.matches = exportMatches(r.matches)
		r.snap.matchesGen = r.matchesGen
	}
	if r.snap.pendingGen != r.pendingGen {
		r.snap.pending = exportMatches(r.pendingMatches)
		r.snap.pendingGen = r.pendingGen
	}
	if r.snap.cachedGen != r.cachedGen {
		r.snap.cached = exportMatches(r.cachedMatches)
		r.snap.cachedGen = r.cachedGen
	}

	state := RouterState{
		Status:          r.status,
		Location:        r.location,
		Matches:         r.snap.matches,
		PendingMatches:  r.snap.pending,
		CachedMatches:   r.snap.cached,
		IsLoading:       r.isLoading,
		IsTransitioning: r.isTransitioning,
		GlobalNotFound:  r.globalNotFound,
	}
	if r.pendingLocation != nil {
		loc := *r.pendingLocation
		state.PendingLocation = &loc
	}
	return state
}

func exportMatches(in []*Match) []Match {
	if len(in) == 0 {
		return nil
	}
	out := make([]Match, len(in))
	for i, m := range in {
		out[i] = *m
		// Internal coordination handles stay private.
		out[i].cancel = nil
		out[i].done = nil
	}
	return out
}

// State returns the current snapshot.
func (r *Router) State() RouterState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Subscribe registers a state listener. Listeners are invoked with a
// fresh snapshot after every state change, outside the router lock.
// The returned function removes the listener.
func (r *Router) Subscribe(fn func(RouterState)) func() {
	r.mu.Lock()
	id := r.nextSubID
	r.nextSubID++
	r.subs[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

// notifyLocked snapshots state and schedules listener delivery.
// Caller holds r.mu; listeners run after it is released.
func (r *Router) notifyLocked() func() {
	state := r.snapshotLocked()
	listeners := make([]func(RouterState), 0, len(r.subs))
	for _, fn := range r.subs {
		listeners = append(listeners, fn)
	}
	return func() {
		for _, fn := range listeners {
			fn(state)
		}
	}
}

// notify is the unlocked variant: lock, snapshot, release, deliver.
func (r *Router) notify() {
	r.mu.Lock()
	deliver := r.notifyLocked()
	r.mu.Unlock()
	deliver()
}
