// Package history abstracts the storage backend for the current
// location. The router treats a History as the sole source of truth
// for "where the application is" and reacts to its notifications; it
// never mutates it except through Push and Replace.
package history

// Action describes how a location entry was reached.
type Action string

const (
	ActionPush    Action = "PUSH"
	ActionReplace Action = "REPLACE"
	ActionPop     Action = "POP"
)

// Update is delivered to subscribers on every location change.
type Update struct {
	// Href is the new location (pathname + search + hash).
	Href string

	// State is the opaque state attached to the entry.
	State map[string]any

	// Action is how the entry was reached.
	Action Action
}

// Blocker is consulted before a history transition. Returning false
// vetoes the transition. Blockers may suspend (e.g. waiting on user
// confirmation) before answering.
type Blocker func(next Update) bool

// History is the location storage backend.
type History interface {
	// Location returns the current href.
	Location() string

	// State returns the state attached to the current entry.
	State() map[string]any

	// Push appends a new entry and notifies subscribers.
	Push(href string, state map[string]any) error

	// Replace swaps the current entry and notifies subscribers.
	Replace(href string, state map[string]any) error

	// Back moves one entry backwards, if possible.
	Back()

	// Forward moves one entry forwards, if possible.
	Forward()

	// Subscribe registers a listener for location changes. The
	// returned function removes it.
	Subscribe(listener func(Update)) func()

	// Block registers a transition blocker. The returned function
	// removes it.
	Block(blocker Blocker) func()
}
