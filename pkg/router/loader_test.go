package router

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wayfind-dev/wayfind/pkg/search"
)

func TestLoaderRunsRootToLeaf(t *testing.T) {
	var order []string
	tree := &RouteConfig{
		Path: "/",
		Loader: func(lc LoaderContext) (any, error) {
			order = append(order, "root")
			return "rootdata", nil
		},
		Children: []*RouteConfig{
			{Path: "posts", Loader: func(lc LoaderContext) (any, error) {
				order = append(order, "posts")
				if lc.ParentData != "rootdata" {
					t.Errorf("ParentData = %v", lc.ParentData)
				}
				return "postsdata", nil
			}, Children: []*RouteConfig{
				{Path: "$postId", Loader: func(lc LoaderContext) (any, error) {
					order = append(order, "leaf")
					if lc.ParentData != "postsdata" {
						t.Errorf("ParentData = %v", lc.ParentData)
					}
					if lc.Params["postId"] != "42" {
						t.Errorf("Params = %v", lc.Params)
					}
					return "leafdata", nil
				}},
			}},
		},
	}
	r, _ := newTestRouter(t, tree, Options{})

	if err := r.Navigate(context.Background(), ToOptions{To: "/posts/42"}); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if !equalStrings(order, []string{"root", "posts", "leaf"}) {
		t.Fatalf("order = %v", order)
	}

	state := r.State()
	for _, m := range state.Matches {
		if m.Status != MatchSuccess {
			t.Errorf("match %q status = %v", m.RouteID, m.Status)
		}
	}
	if state.Matches[2].LoaderData != "leafdata" {
		t.Fatalf("LoaderData = %v", state.Matches[2].LoaderData)
	}
}

func TestLoaderErrorIsolated(t *testing.T) {
	boom := errors.New("boom")
	tree := &RouteConfig{
		Path: "/",
		Children: []*RouteConfig{
			{Path: "posts", Loader: func(lc LoaderContext) (any, error) {
				return "postsdata", nil
			}, Children: []*RouteConfig{
				{Path: "broken", Loader: func(lc LoaderContext) (any, error) {
					return nil, boom
				}},
			}},
		},
	}
	r, _ := newTestRouter(t, tree, Options{})

	if err := r.Navigate(context.Background(), ToOptions{To: "/posts/broken"}); err != nil {
		t.Fatalf("Navigate: %v", err)
	}

	state := r.State()
	byID := map[string]Match{}
	for _, m := range state.Matches {
		byID[m.RouteID] = m
	}
	if byID["/posts"].Status != MatchSuccess {
		t.Fatal("healthy ancestor must stay successful")
	}
	broken := byID["/posts/broken"]
	if broken.Status != MatchError {
		t.Fatalf("status = %v", broken.Status)
	}
	var lerr *LoaderError
	if !errors.As(broken.Error, &lerr) || !errors.Is(lerr, boom) {
		t.Fatalf("Error = %v", broken.Error)
	}
}

func TestParamsErrorSkipsLoader(t *testing.T) {
	var loaderRan atomic.Bool
	tree := &RouteConfig{
		Path: "/",
		Children: []*RouteConfig{
			{
				Path: "$postId",
				ParseParams: func(params map[string]string) error {
					return errors.New("not numeric")
				},
				Loader: func(lc LoaderContext) (any, error) {
					loaderRan.Store(true)
					return nil, nil
				},
			},
		},
	}
	r, _ := newTestRouter(t, tree, Options{})

	if err := r.Navigate(context.Background(), ToOptions{To: "/abc"}); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if loaderRan.Load() {
		t.Fatal("loader must be skipped on params error")
	}

	state := r.State()
	leaf := state.Matches[len(state.Matches)-1]
	if leaf.Status != MatchError {
		t.Fatalf("status = %v", leaf.Status)
	}
	var perr *ParamsParseError
	if !errors.As(leaf.ParamsError, &perr) {
		t.Fatalf("ParamsError = %v", leaf.ParamsError)
	}
}

func TestSearchErrorSkipsLoader(t *testing.T) {
	var loaderRan atomic.Bool
	tree := &RouteConfig{
		Path: "/",
		Children: []*RouteConfig{
			{
				Path: "posts",
				ValidateSearch: func(s search.Params) error {
					if _, ok := s["page"]; !ok {
						return errors.New("page is required")
					}
					return nil
				},
				Loader: func(lc LoaderContext) (any, error) {
					loaderRan.Store(true)
					return nil, nil
				},
			},
		},
	}
	r, _ := newTestRouter(t, tree, Options{})

	if err := r.Navigate(context.Background(), ToOptions{To: "/posts"}); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if loaderRan.Load() {
		t.Fatal("loader must be skipped on search validation error")
	}

	state := r.State()
	leaf := state.Matches[len(state.Matches)-1]
	if leaf.Status != MatchError {
		t.Fatalf("status = %v", leaf.Status)
	}
	var serr *SearchValidationError
	if !errors.As(leaf.SearchError, &serr) {
		t.Fatalf("SearchError = %v", leaf.SearchError)
	}
	if serr.RouteID != "/posts" {
		t.Fatalf("RouteID = %q", serr.RouteID)
	}

	// A location that passes validation runs the loader.
	if err := r.Navigate(context.Background(), ToOptions{To: "/posts?page=2"}); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if !loaderRan.Load() {
		t.Fatal("loader must run once validation passes")
	}
}

func TestStaleMatchReused(t *testing.T) {
	var count atomic.Int32
	tree := &RouteConfig{
		Path: "/",
		Children: []*RouteConfig{
			{Path: "about"},
			{Path: "posts", StaleTime: time.Hour, Loader: func(lc LoaderContext) (any, error) {
				count.Add(1)
				return "data", nil
			}},
		},
	}
	r, _ := newTestRouter(t, tree, Options{})
	ctx := context.Background()

	if err := r.Navigate(ctx, ToOptions{To: "/posts"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Navigate(ctx, ToOptions{To: "/about"}); err != nil {
		t.Fatal(err)
	}
	// Back within the stale window: the cached match is promoted
	// without re-invoking the loader.
	if err := r.Navigate(ctx, ToOptions{To: "/posts"}); err != nil {
		t.Fatal(err)
	}
	if got := count.Load(); got != 1 {
		t.Fatalf("loader ran %d times, want 1", got)
	}
}

func TestZeroStaleTimeAlwaysReloads(t *testing.T) {
	var count atomic.Int32
	tree := &RouteConfig{
		Path: "/",
		Children: []*RouteConfig{
			{Path: "about"},
			{Path: "posts", Loader: func(lc LoaderContext) (any, error) {
				count.Add(1)
				return "data", nil
			}},
		},
	}
	r, _ := newTestRouter(t, tree, Options{})
	ctx := context.Background()

	if err := r.Navigate(ctx, ToOptions{To: "/posts"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Navigate(ctx, ToOptions{To: "/about"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Navigate(ctx, ToOptions{To: "/posts"}); err != nil {
		t.Fatal(err)
	}
	if got := count.Load(); got != 2 {
		t.Fatalf("loader ran %d times, want 2", got)
	}
}

func TestInvalidateReloads(t *testing.T) {
	var count atomic.Int32
	tree := &RouteConfig{
		Path: "/",
		Children: []*RouteConfig{
			{Path: "/", StaleTime: time.Hour, Loader: func(lc LoaderContext) (any, error) {
				count.Add(1)
				return count.Load(), nil
			}},
		},
	}
	r, h := newTestRouter(t, tree, Options{})
	ctx := context.Background()

	if err := r.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if count.Load() != 1 {
		t.Fatalf("count = %d", count.Load())
	}

	if err := r.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if count.Load() != 2 {
		t.Fatalf("loader ran %d times after Invalidate, want 2", count.Load())
	}
	if h.Len() != 1 {
		t.Fatal("Invalidate must not add history entries")
	}
}

func TestLoaderDepsForceReload(t *testing.T) {
	var count atomic.Int32
	tree := &RouteConfig{
		Path: "/",
		Children: []*RouteConfig{
			{
				Path:      "posts",
				StaleTime: time.Hour,
				LoaderDeps: func(s search.Params) map[string]any {
					return map[string]any{"page": s["page"]}
				},
				Loader: func(lc LoaderContext) (any, error) {
					count.Add(1)
					return lc.Deps["page"], nil
				},
			},
		},
	}
	r, _ := newTestRouter(t, tree, Options{})
	ctx := context.Background()

	if err := r.Navigate(ctx, ToOptions{To: "/posts", Search: search.Params{"page": float64(1)}}); err != nil {
		t.Fatal(err)
	}
	if err := r.Navigate(ctx, ToOptions{To: "/posts", Search: search.Params{"page": float64(2)}}); err != nil {
		t.Fatal(err)
	}
	if got := count.Load(); got != 2 {
		t.Fatalf("loader ran %d times, want 2 (distinct deps)", got)
	}

	// Same deps again within the stale window: reused.
	if err := r.Navigate(ctx, ToOptions{To: "/posts", Search: search.Params{"page": float64(1)}}); err != nil {
		t.Fatal(err)
	}
	if got := count.Load(); got != 2 {
		t.Fatalf("loader ran %d times, want 2 (cached)", got)
	}
}

func TestConcurrentLoadsDeduped(t *testing.T) {
	var count atomic.Int32
	release := make(chan struct{})
	tree := &RouteConfig{
		Path: "/",
		Children: []*RouteConfig{
			{Path: "slow", StaleTime: time.Hour, Loader: func(lc LoaderContext) (any, error) {
				count.Add(1)
				<-release
				return "data", nil
			}},
		},
	}
	r, _ := newTestRouter(t, tree, Options{})
	ctx := context.Background()

	first := make(chan error, 1)
	go func() { first <- r.Preload(ctx, ToOptions{To: "/slow"}) }()

	waitFor(t, func() bool { return count.Load() == 1 })

	// A second preload for the same tuple attaches to the in-flight
	// invocation instead of starting another.
	second := make(chan error, 1)
	go func() { second <- r.Preload(ctx, ToOptions{To: "/slow"}) }()

	time.Sleep(20 * time.Millisecond)
	close(release)

	if err := <-first; err != nil {
		t.Fatalf("first preload: %v", err)
	}
	if err := <-second; err != nil {
		t.Fatalf("second preload: %v", err)
	}
	if got := count.Load(); got != 1 {
		t.Fatalf("loader ran %d times, want 1", got)
	}
}

func TestPreloadWarmsCache(t *testing.T) {
	var count atomic.Int32
	tree := &RouteConfig{
		Path: "/",
		Children: []*RouteConfig{
			{Path: "/"},
			{Path: "posts", Loader: func(lc LoaderContext) (any, error) {
				count.Add(1)
				return "data", nil
			}},
		},
	}
	r, _ := newTestRouter(t, tree, Options{})
	ctx := context.Background()

	if err := r.Preload(ctx, ToOptions{To: "/posts"}); err != nil {
		t.Fatalf("Preload: %v", err)
	}
	if count.Load() != 1 {
		t.Fatalf("count = %d", count.Load())
	}
	// Preload never touches committed state.
	if got := r.State().Location.Pathname; got != "/" {
		t.Fatalf("Location = %q", got)
	}

	found := false
	for _, m := range r.State().CachedMatches {
		if m.RouteID == "/posts" && m.Status == MatchSuccess {
			found = true
		}
	}
	if !found {
		t.Fatal("preloaded match missing from cache")
	}

	// Navigating inside the preload stale window reuses the data.
	if err := r.Navigate(ctx, ToOptions{To: "/posts"}); err != nil {
		t.Fatal(err)
	}
	if count.Load() != 1 {
		t.Fatalf("loader ran %d times, want 1", count.Load())
	}
}

func TestPreloadUnmatched(t *testing.T) {
	tree := &RouteConfig{Path: "/", Children: []*RouteConfig{{Path: "/"}}}
	r, _ := newTestRouter(t, tree, Options{})

	err := r.Preload(context.Background(), ToOptions{To: "/zzz"})
	var nf *NotFoundError
	if !errors.As(err, &nf) || !nf.Global {
		t.Fatalf("err = %v, want global NotFoundError", err)
	}
}

func TestShowPendingDelayed(t *testing.T) {
	release := make(chan struct{})
	tree := &RouteConfig{
		Path: "/",
		Children: []*RouteConfig{
			{Path: "slow", PendingMs: 5 * time.Millisecond, Loader: func(lc LoaderContext) (any, error) {
				<-release
				return "data", nil
			}},
		},
	}
	r, _ := newTestRouter(t, tree, Options{})

	navErr := make(chan error, 1)
	go func() { navErr <- r.Navigate(context.Background(), ToOptions{To: "/slow"}) }()

	// Not immediately pending-visible; flips after PendingMs.
	waitFor(t, func() bool {
		for _, m := range r.State().PendingMatches {
			if m.RouteID == "/slow" && m.ShowPending {
				return true
			}
		}
		return false
	})

	close(release)
	if err := <-navErr; err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	for _, m := range r.State().Matches {
		if m.ShowPending {
			t.Fatal("ShowPending must clear once the loader settles")
		}
	}
}

func TestCancelledLoadDiscarded(t *testing.T) {
	release := make(chan struct{})
	var slowSettled atomic.Bool
	tree := &RouteConfig{
		Path: "/",
		Children: []*RouteConfig{
			{Path: "about"},
			{Path: "slow", Loader: func(lc LoaderContext) (any, error) {
				<-release
				slowSettled.Store(true)
				return "slowdata", nil
			}},
		},
	}
	r, _ := newTestRouter(t, tree, Options{})

	navErr := make(chan error, 1)
	go func() { navErr <- r.Navigate(context.Background(), ToOptions{To: "/slow"}) }()
	waitFor(t, func() bool { return r.State().PendingLocation != nil })

	if err := r.Navigate(context.Background(), ToOptions{To: "/about"}); err != nil {
		t.Fatal(err)
	}
	if err := <-navErr; err != nil {
		t.Fatalf("superseded navigation: %v", err)
	}

	close(release)
	waitFor(t, func() bool { return slowSettled.Load() })

	// The late result never reaches committed state.
	state := r.State()
	if state.Location.Pathname != "/about" {
		t.Fatalf("Location = %q", state.Location.Pathname)
	}
	for _, m := range state.Matches {
		if m.LoaderData == "slowdata" {
			t.Fatal("discarded loader data leaked into committed state")
		}
	}
}

func TestLoaderTimeout(t *testing.T) {
	tree := &RouteConfig{
		Path: "/",
		Children: []*RouteConfig{
			{Path: "hang", Loader: func(lc LoaderContext) (any, error) {
				<-lc.Context.Done()
				return nil, lc.Context.Err()
			}},
		},
	}
	r, _ := newTestRouter(t, tree, Options{LoaderTimeout: 10 * time.Millisecond})

	if err := r.Navigate(context.Background(), ToOptions{To: "/hang"}); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	state := r.State()
	leaf := state.Matches[len(state.Matches)-1]
	if leaf.Status != MatchError {
		t.Fatalf("status = %v", leaf.Status)
	}
	if !errors.Is(leaf.Error, context.DeadlineExceeded) {
		t.Fatalf("Error = %v", leaf.Error)
	}
}

func TestCacheEvictionBounded(t *testing.T) {
	tree := &RouteConfig{
		Path: "/",
		Children: []*RouteConfig{
			{Path: "$page", Loader: func(lc LoaderContext) (any, error) {
				return lc.Params["page"], nil
			}},
		},
	}
	r, _ := newTestRouter(t, tree, Options{MaxCachedMatches: 3})
	ctx := context.Background()

	for _, p := range []string{"/a", "/b", "/c", "/d", "/e", "/f"} {
		if err := r.Navigate(ctx, ToOptions{To: p}); err != nil {
			t.Fatal(err)
		}
	}

	if got := len(r.State().CachedMatches); got > 3 {
		t.Fatalf("cache holds %d matches, want <= 3", got)
	}
}
