package history

import (
	"fmt"
	"sync"
)

type memoryEntry struct {
	href  string
	state map[string]any
}

// MemoryHistory is an in-process History. It backs tests and
// non-browser hosts; a real browser backend implements the same
// interface on top of the History API.
type MemoryHistory struct {
	mu        sync.Mutex
	entries   []memoryEntry
	index     int
	nextSub   int
	subs      map[int]func(Update)
	nextBlock int
	blockers  []registeredBlocker
}

type registeredBlocker struct {
	id int
	fn Blocker
}

// NewMemoryHistory creates a history seeded with the given href.
func NewMemoryHistory(initial string) *MemoryHistory {
	if initial == "" {
		initial = "/"
	}
	return &MemoryHistory{
		entries: []memoryEntry{{href: initial}},
		subs:    make(map[int]func(Update)),
	}
}

// Location returns the current href.
func (h *MemoryHistory) Location() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.index].href
}

// State returns the state attached to the current entry.
func (h *MemoryHistory) State() map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.index].state
}

// Push appends a new entry, truncating any forward entries.
func (h *MemoryHistory) Push(href string, state map[string]any) error {
	return h.transition(href, state, ActionPush)
}

// Replace swaps the current entry in place.
func (h *MemoryHistory) Replace(href string, state map[string]any) error {
	return h.transition(href, state, ActionReplace)
}

func (h *MemoryHistory) transition(href string, state map[string]any, action Action) error {
	if href == "" {
		return fmt.Errorf("history: empty href")
	}

	update := Update{Href: href, State: state, Action: action}
	if !h.allow(update) {
		return nil
	}

	h.mu.Lock()
	switch action {
	case ActionPush:
		h.entries = append(h.entries[:h.index+1], memoryEntry{href: href, state: state})
		h.index = len(h.entries) - 1
	case ActionReplace:
		h.entries[h.index] = memoryEntry{href: href, state: state}
	}
	h.mu.Unlock()

	h.notify(update)
	return nil
}

// Back moves one entry backwards. A no-op at the first entry.
func (h *MemoryHistory) Back() {
	h.seek(-1)
}

// Forward moves one entry forwards. A no-op at the last entry.
func (h *MemoryHistory) Forward() {
	h.seek(1)
}

func (h *MemoryHistory) seek(delta int) {
	h.mu.Lock()
	target := h.index + delta
	if target < 0 || target >= len(h.entries) {
		h.mu.Unlock()
		return
	}
	entry := h.entries[target]
	h.mu.Unlock()

	update := Update{Href: entry.href, State: entry.state, Action: ActionPop}
	if !h.allow(update) {
		return
	}

	h.mu.Lock()
	h.index = target
	h.mu.Unlock()

	h.notify(update)
}

// Subscribe registers a change listener.
func (h *MemoryHistory) Subscribe(listener func(Update)) func() {
	h.mu.Lock()
	id := h.nextSub
	h.nextSub++
	h.subs[id] = listener
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// Block registers a transition blocker. Blockers run in registration
// order; the first veto stops the transition.
func (h *MemoryHistory) Block(blocker Blocker) func() {
	h.mu.Lock()
	id := h.nextBlock
	h.nextBlock++
	h.blockers = append(h.blockers, registeredBlocker{id: id, fn: blocker})
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		for i, b := range h.blockers {
			if b.id == id {
				h.blockers = append(h.blockers[:i], h.blockers[i+1:]...)
				break
			}
		}
		h.mu.Unlock()
	}
}

// allow runs blockers outside the lock so they may suspend.
func (h *MemoryHistory) allow(update Update) bool {
	h.mu.Lock()
	blockers := make([]registeredBlocker, len(h.blockers))
	copy(blockers, h.blockers)
	h.mu.Unlock()

	for _, b := range blockers {
		if !b.fn(update) {
			return false
		}
	}
	return true
}

func (h *MemoryHistory) notify(update Update) {
	h.mu.Lock()
	listeners := make([]func(Update), 0, len(h.subs))
	for _, fn := range h.subs {
		listeners = append(listeners, fn)
	}
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(update)
	}
}

// Len returns the number of entries. Used by tests.
func (h *MemoryHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
