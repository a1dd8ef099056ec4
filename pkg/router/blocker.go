package router

import (
	"context"
	"sync"
)

// BlockerArgs describes the transition a blocker is asked about.
type BlockerArgs struct {
	From ParsedLocation
	To   ParsedLocation
}

// BlockerResolver settles a blocked navigation. Exactly one of
// Proceed or Reset takes effect; later calls are ignored.
type BlockerResolver struct {
	once sync.Once
	ch   chan bool
}

func newBlockerResolver() *BlockerResolver {
	return &BlockerResolver{ch: make(chan bool, 1)}
}

// Proceed lets the pending navigation continue.
func (r *BlockerResolver) Proceed() {
	r.once.Do(func() { r.ch <- true })
}

// Reset vetoes the pending navigation, leaving router state unchanged.
func (r *BlockerResolver) Reset() {
	r.once.Do(func() { r.ch <- false })
}

// Blocker is invoked before a navigation commits. It may settle the
// resolver synchronously or hand it to another goroutine (e.g. a
// confirmation dialog) and settle it later; the navigation suspends
// until then.
type Blocker func(args BlockerArgs, resolver *BlockerResolver)

type registeredBlocker struct {
	id int
	fn Blocker
}

// Block registers a navigation blocker. Blockers run in registration
// order; the first veto stops the navigation. The returned function
// removes the blocker.
func (r *Router) Block(fn Blocker) func() {
	r.mu.Lock()
	id := r.nextBlockerID
	r.nextBlockerID++
	r.blockers = append(r.blockers, registeredBlocker{id: id, fn: fn})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		for i, b := range r.blockers {
			if b.id == id {
				r.blockers = append(r.blockers[:i], r.blockers[i+1:]...)
				break
			}
		}
		r.mu.Unlock()
	}
}

// runBlockers consults every registered blocker in order. Returns
// false on veto or context cancellation.
func (r *Router) runBlockers(ctx context.Context, from, to ParsedLocation) bool {
	r.mu.Lock()
	blockers := make([]registeredBlocker, len(r.blockers))
	copy(blockers, r.blockers)
	r.mu.Unlock()

	args := BlockerArgs{From: from, To: to}
	for _, b := range blockers {
		resolver := newBlockerResolver()
		b.fn(args, resolver)
		select {
		case proceed := <-resolver.ch:
			if !proceed {
				return false
			}
		case <-ctx.Done():
			return false
		}
	}
	return true
}
