package router

import (
	"fmt"
	"strings"
	"time"
)

// RouteConfig declares one node of the route hierarchy. Trees are
// declared once (usually by generated code) and handed to
// BuildRouteTree; they are immutable afterwards.
type RouteConfig struct {
	// ID overrides the derived id. Required for pathless layouts
	// that want a stable name; otherwise derived from position.
	ID string

	// Path is the segment pattern this node matches:
	//   "posts"     literal segment (may span several: "a/b")
	//   "$postId"   dynamic segment, captured under "postId"
	//   "$"         splat, captures the remaining suffix under "*"
	//   "/"         index route of the parent
	//   ""          pathless layout, consumes no segment
	// The root config uses "/".
	Path string

	// Loader produces data for the match. Optional.
	Loader LoaderFunc

	// LoaderDeps derives the dependency key from search params; a
	// changed key forces a reload even for an identical path.
	LoaderDeps LoaderDepsFunc

	// ParseParams validates or normalizes extracted path params. A
	// returned error becomes the match's ParamsError and skips the
	// loader.
	ParseParams func(params map[string]string) error

	// ValidateSearch checks the decoded search params. A returned
	// error becomes the match's SearchError and skips the loader.
	ValidateSearch SearchValidatorFunc

	// Component references for the rendering layer. Opaque to the
	// core.
	Component         any
	ErrorComponent    any
	PendingComponent  any
	NotFoundComponent any

	// StaleTime overrides the router default for cache freshness.
	StaleTime time.Duration

	// PreloadStaleTime overrides the preload freshness window.
	PreloadStaleTime time.Duration

	// PendingMs overrides the delay before ShowPending is set.
	PendingMs time.Duration

	// GCTime overrides how long a superseded match may sit in the
	// cache.
	GCTime time.Duration

	Children []*RouteConfig
}

// Route is an immutable node in the built tree. Parent/child links
// are id references into the owning RouteTree arena.
type Route struct {
	ID       string
	Path     string
	FullPath string
	ParentID string
	ChildIDs []string

	// Segment classification, fixed at build time.
	IsRoot     bool
	IsIndex    bool
	IsPathless bool
	IsSplat    bool
	ParamName  string // set for dynamic segments

	Loader            LoaderFunc
	LoaderDeps        LoaderDepsFunc
	ParseParams       func(params map[string]string) error
	ValidateSearch    SearchValidatorFunc
	Component         any
	ErrorComponent    any
	PendingComponent  any
	NotFoundComponent any

	StaleTime        time.Duration
	PreloadStaleTime time.Duration
	PendingMs        time.Duration
	GCTime           time.Duration
}

// RouteTree is the arena of built routes, indexed by id.
type RouteTree struct {
	rootID string
	nodes  map[string]*Route
}

// BuildRouteTree walks the declared hierarchy once, assigns ids,
// validates id uniqueness and param-name uniqueness along every
// chain, and returns the arena. Validation failures are fatal; the
// router must not start with an invalid tree.
func BuildRouteTree(root *RouteConfig) (*RouteTree, error) {
	if root == nil {
		return nil, fmt.Errorf("router: nil root config")
	}

	tree := &RouteTree{nodes: make(map[string]*Route)}

	rootRoute, err := tree.addNode(root, nil, "", 0)
	if err != nil {
		return nil, err
	}
	tree.rootID = rootRoute.ID

	if err := tree.validateParams(rootRoute, nil); err != nil {
		return nil, err
	}
	return tree, nil
}

func (t *RouteTree) addNode(cfg *RouteConfig, parent *Route, parentFull string, ordinal int) (*Route, error) {
	route := &Route{
		Path:              cfg.Path,
		Loader:            cfg.Loader,
		LoaderDeps:        cfg.LoaderDeps,
		ParseParams:       cfg.ParseParams,
		ValidateSearch:    cfg.ValidateSearch,
		Component:         cfg.Component,
		ErrorComponent:    cfg.ErrorComponent,
		PendingComponent:  cfg.PendingComponent,
		NotFoundComponent: cfg.NotFoundComponent,
		StaleTime:         cfg.StaleTime,
		PreloadStaleTime:  cfg.PreloadStaleTime,
		PendingMs:         cfg.PendingMs,
		GCTime:            cfg.GCTime,
	}

	switch {
	case parent == nil:
		route.IsRoot = true
		route.FullPath = "/"
	case cfg.Path == "/":
		route.IsIndex = true
		route.FullPath = strings.TrimSuffix(joinPaths(parentFull, ""), "/") + "/"
	case cfg.Path == "":
		route.IsPathless = true
		route.FullPath = parentFull
	case cfg.Path == "$":
		route.IsSplat = true
		route.FullPath = joinPaths(parentFull, "$")
	case strings.HasPrefix(lastSegment(cfg.Path), "$"):
		route.ParamName = strings.TrimPrefix(lastSegment(cfg.Path), "$")
		route.FullPath = joinPaths(parentFull, cfg.Path)
	default:
		route.FullPath = joinPaths(parentFull, cfg.Path)
	}

	route.ID = cfg.ID
	if route.ID == "" {
		if route.IsRoot {
			// Keep the bare "/" id free for the root's index child.
			route.ID = "__root__"
		} else if route.IsPathless {
			// Pathless layouts have no path of their own; synthesize
			// a positional id under the parent.
			route.ID = fmt.Sprintf("%s_pathless%d", strings.TrimSuffix(parentFull, "/"), ordinal)
		} else {
			route.ID = route.FullPath
		}
	}

	if _, exists := t.nodes[route.ID]; exists {
		return nil, &DuplicateRouteIDError{ID: route.ID}
	}
	t.nodes[route.ID] = route

	if parent != nil {
		route.ParentID = parent.ID
		parent.ChildIDs = append(parent.ChildIDs, route.ID)
	}

	for i, child := range cfg.Children {
		if _, err := t.addNode(child, route, route.FullPath, i); err != nil {
			return nil, err
		}
	}
	return route, nil
}

// validateParams walks every chain rejecting repeated param names.
func (t *RouteTree) validateParams(route *Route, seen []string) error {
	names := seen
	collect := func(name string) error {
		for _, s := range names {
			if s == name {
				return &DuplicateParamNameError{Name: name, RouteID: route.ID}
			}
		}
		names = append(names, name)
		return nil
	}

	// Multi-segment paths may embed several dynamic segments.
	for _, seg := range strings.Split(strings.Trim(route.Path, "/"), "/") {
		if seg != "" && seg != "$" && strings.HasPrefix(seg, "$") {
			if err := collect(strings.TrimPrefix(seg, "$")); err != nil {
				return err
			}
		}
	}

	for _, childID := range route.ChildIDs {
		if err := t.validateParams(t.nodes[childID], names); err != nil {
			return err
		}
	}
	return nil
}

// Root returns the tree's root route.
func (t *RouteTree) Root() *Route {
	return t.nodes[t.rootID]
}

// Get returns the route with the given id. O(1).
func (t *RouteTree) Get(id string) (*Route, bool) {
	r, ok := t.nodes[id]
	return r, ok
}

// Children returns the ordered children of a route.
func (t *RouteTree) Children(id string) []*Route {
	node, ok := t.nodes[id]
	if !ok {
		return nil
	}
	out := make([]*Route, 0, len(node.ChildIDs))
	for _, cid := range node.ChildIDs {
		out = append(out, t.nodes[cid])
	}
	return out
}

// Len returns the number of routes in the tree.
func (t *RouteTree) Len() int {
	return len(t.nodes)
}

// joinPaths joins a parent full path and a child segment pattern.
func joinPaths(parent, child string) string {
	parent = strings.TrimSuffix(parent, "/")
	child = strings.Trim(child, "/")
	if child == "" {
		if parent == "" {
			return "/"
		}
		return parent
	}
	return parent + "/" + child
}

func lastSegment(path string) string {
	path = strings.Trim(path, "/")
	if idx := strings.LastIndex(path, "/"); idx != -1 {
		return path[idx+1:]
	}
	return path
}

// splitPath splits a pathname into segments.
func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
