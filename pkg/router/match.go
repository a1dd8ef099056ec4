package router

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/wayfind-dev/wayfind/pkg/search"
)

// MatchStatus is the load state of a match.
type MatchStatus string

const (
	MatchPending MatchStatus = "pending"
	MatchSuccess MatchStatus = "success"
	MatchError   MatchStatus = "error"
)

// Cause records why a match was created.
type Cause string

const (
	// CauseEnter: the route was not part of the previous match set.
	CauseEnter Cause = "enter"

	// CauseStay: the route was already matched and is being kept.
	CauseStay Cause = "stay"

	// CausePreload: the match was created ahead of a navigation.
	CausePreload Cause = "preload"
)

// Match is the runtime pairing of a route with extracted params and
// load state for one location. Matches are created when a location
// first needs them, mutated in place as their load progresses, and
// demoted to the cache when a navigation supersedes them.
type Match struct {
	// ID identifies the match: route id + params + loader deps.
	ID string

	RouteID string

	// Pathname is the cumulative matched prefix.
	Pathname string

	// Params are the accumulated path params for the chain up to
	// this match.
	Params map[string]string

	// Search is the decoded search of the location that produced
	// this match.
	Search search.Params

	// LoaderDeps is the derived dependency key for this match.
	LoaderDeps map[string]any

	Status      MatchStatus
	IsFetching  bool
	ShowPending bool
	Invalid     bool
	Cause       Cause

	LoaderData any

	// Error is the loader error (or routed not-found signal).
	// ParamsError and SearchError are tracked separately.
	Error       error
	ParamsError error
	SearchError error

	// FetchCount increments on every loader invocation.
	FetchCount uint64

	// UpdatedAt is when the loader last settled.
	UpdatedAt time.Time

	// committedAt drives least-recently-committed cache eviction.
	committedAt time.Time

	// cancel aborts the in-flight loader when the match is
	// superseded.
	cancel context.CancelFunc

	// done is closed when the in-flight loader settles; concurrent
	// navigations attach to it instead of re-invoking.
	done chan struct{}

	// signal holds a redirect or not-found control-flow error for
	// the waiting navigation to consume.
	signal error

	// preloaded marks data loaded ahead of a navigation; freshness
	// is then judged against the preload stale window until the
	// match is committed.
	preloaded bool
}

// matchID derives the stable identity of a match from its route,
// params, and loader deps. Matching tuples share one in-flight load.
func matchID(routeID string, params map[string]string, deps map[string]any) string {
	var sb strings.Builder
	sb.WriteString(routeID)

	if len(params) > 0 {
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteByte('|')
			sb.WriteString(k)
			sb.WriteByte('=')
			sb.WriteString(params[k])
		}
	}

	if len(deps) > 0 {
		keys := make([]string, 0, len(deps))
		for k := range deps {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteByte('~')
			sb.WriteString(k)
			sb.WriteByte('=')
			if b, err := json.Marshal(deps[k]); err == nil {
				sb.Write(b)
			}
		}
	}

	return sb.String()
}

// fresh reports whether the match's data can be reused without
// re-invoking the loader.
func (m *Match) fresh(staleTime time.Duration) bool {
	if m.Status != MatchSuccess || m.Invalid {
		return false
	}
	if staleTime <= 0 {
		return false
	}
	return time.Since(m.UpdatedAt) < staleTime
}
