// Package router implements a client-side routing core: a validated
// route tree, a specificity-ordered path matcher, location building
// with typed search params, and a navigation state machine that
// orchestrates per-route data loaders.
//
// The router is driven by navigation intents (Navigate, Preload,
// Invalidate, history pops) and exposes its state as atomic snapshots
// through State and Subscribe. Loaders run concurrently with
// navigation bookkeeping; all shared state is serialized through one
// mutex and subscribers never observe a half-applied transition.
//
// Loaders signal redirects and not-found outcomes by returning
// *RedirectError and *NotFoundError. Both are control flow: a redirect
// abandons the navigation and issues a new one, a not-found routes to
// the nearest ancestor that declares a handler.
package router
