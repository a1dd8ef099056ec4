package router

import "strings"

// MatchOptions controls matcher behavior.
type MatchOptions struct {
	// CaseSensitive compares literal segments exactly. Default is
	// case-insensitive, matching URL conventions.
	CaseSensitive bool

	// Fuzzy accepts a prefix match: trailing unmatched segments do
	// not fail the whole match. Used for active-link queries.
	Fuzzy bool
}

// Candidate pairs a route with the params extracted while matching it.
type Candidate struct {
	Route *Route

	// Params are the accumulated params for the chain up to and
	// including this route.
	Params map[string]string

	// Pathname is the cumulative matched prefix.
	Pathname string
}

// MatchRoutes finds the ordered root-to-leaf chain of routes matching
// pathname. When no complete match exists it returns the deepest
// matching prefix chain and globalNotFound=true; the state machine
// routes that outcome to the nearest not-found-capable ancestor.
//
// Specificity at every level: literal segments beat dynamic ($name)
// segments, which beat splats ($). Pathless layouts consume no
// segment. An exhausted pathname resolves to the parent's index
// route when one exists.
func MatchRoutes(tree *RouteTree, pathname string, opts MatchOptions) (chain []Candidate, globalNotFound bool) {
	root := tree.Root()
	segments := splitPath(pathname)

	base := Candidate{
		Route:    root,
		Params:   map[string]string{},
		Pathname: "/",
	}

	full, best := matchNode(tree, root, segments, base, opts)
	if full != nil {
		return full, false
	}
	if opts.Fuzzy && best != nil {
		return best, false
	}
	// No complete match anywhere: global not-found, reported with
	// the deepest prefix chain so handling can land on the nearest
	// capable ancestor.
	if best == nil {
		best = []Candidate{base}
	}
	return best, true
}

// matchNode returns (complete chain, best partial chain). The chain
// includes node itself; segments are what remains to consume below
// node.
func matchNode(tree *RouteTree, node *Route, segments []string, self Candidate, opts MatchOptions) ([]Candidate, []Candidate) {
	chain := []Candidate{self}
	best := chain

	if len(segments) == 0 {
		// Exhausted: this chain is complete. Prefer the index route
		// when present so "/posts" and "/posts/" resolve to it; the
		// index may sit below a pathless layout.
		if idx := indexChain(tree, node, self); idx != nil {
			return append(chain, idx...), best
		}
		return chain, best
	}

	// Literal > dynamic > splat, compared across pathless layout
	// boundaries: a literal anywhere at this level beats a dynamic,
	// even when the dynamic sits above it in child order or under a
	// pathless layout.
	tiers := [3]func(*Route) bool{
		func(r *Route) bool { return !r.IsIndex && !r.IsPathless && r.ParamName == "" && !r.IsSplat },
		func(r *Route) bool { return r.ParamName != "" },
		func(r *Route) bool { return r.IsSplat },
	}

	for _, accepts := range tiers {
		full, partial := matchTier(tree, node, segments, self, opts, accepts)
		if full != nil {
			return append(chain, full...), best
		}
		if len(chain)+len(partial) > len(best) {
			best = append(append([]Candidate{}, chain...), partial...)
		}
	}

	return nil, best
}

// indexChain finds the index route for an exhausted pathname among
// node's children, descending through pathless layouts. A direct
// index child wins over one nested under a layout. Returns the
// candidate suffix below node, or nil.
func indexChain(tree *RouteTree, node *Route, self Candidate) []Candidate {
	for _, child := range tree.Children(node.ID) {
		if child.IsIndex {
			return []Candidate{{
				Route:    child,
				Params:   self.Params,
				Pathname: self.Pathname,
			}}
		}
	}
	for _, child := range tree.Children(node.ID) {
		if !child.IsPathless {
			continue
		}
		sub := Candidate{
			Route:    child,
			Params:   self.Params,
			Pathname: self.Pathname,
		}
		if rest := indexChain(tree, child, sub); rest != nil {
			return append([]Candidate{sub}, rest...)
		}
	}
	return nil
}

// matchTier tries the children of node whose next segment falls in
// one specificity tier, recursing through pathless layouts so the
// tier applies to their children too. Returns (complete suffix below
// node, best partial suffix below node).
func matchTier(tree *RouteTree, node *Route, segments []string, self Candidate, opts MatchOptions, accepts func(*Route) bool) ([]Candidate, []Candidate) {
	var best []Candidate

	for _, child := range tree.Children(node.ID) {
		if child.IsPathless {
			sub := Candidate{
				Route:    child,
				Params:   self.Params,
				Pathname: self.Pathname,
			}
			full, partial := matchTier(tree, child, segments, sub, opts, accepts)
			if full != nil {
				return append([]Candidate{sub}, full...), best
			}
			// A bare layout that matched nothing below it does not
			// deepen the prefix chain.
			if len(partial) > 0 {
				if cand := append([]Candidate{sub}, partial...); len(cand) > len(best) {
					best = cand
				}
			}
			continue
		}
		if !accepts(child) {
			continue
		}

		consumed, params, ok := consumeSegments(child, segments, self.Params, opts)
		if !ok {
			continue
		}
		sub := Candidate{
			Route:    child,
			Params:   params,
			Pathname: joinPaths(self.Pathname, strings.Join(segments[:consumed], "/")),
		}
		full, partial := matchNode(tree, child, segments[consumed:], sub, opts)
		if full != nil {
			return full, best
		}
		if len(partial) > len(best) {
			best = partial
		}
	}

	return nil, best
}

// consumeSegments matches child's path pattern against the head of
// segments, returning how many segments it consumed and the widened
// param map.
func consumeSegments(child *Route, segments []string, params map[string]string, opts MatchOptions) (int, map[string]string, bool) {
	if child.IsSplat {
		out := cloneParams(params)
		out["*"] = strings.Join(segments, "/")
		return len(segments), out, true
	}

	parts := splitPath(child.Path)
	if len(parts) > len(segments) {
		return 0, nil, false
	}

	out := params
	copied := false
	for i, part := range parts {
		seg := segments[i]
		if strings.HasPrefix(part, "$") {
			if !copied {
				out = cloneParams(out)
				copied = true
			}
			out[strings.TrimPrefix(part, "$")] = seg
			continue
		}
		if !segmentEqual(part, seg, opts.CaseSensitive) {
			return 0, nil, false
		}
	}
	if !copied {
		out = cloneParams(out)
	}
	return len(parts), out, true
}

func segmentEqual(a, b string, caseSensitive bool) bool {
	if caseSensitive {
		return a == b
	}
	return strings.EqualFold(a, b)
}

func cloneParams(p map[string]string) map[string]string {
	out := make(map[string]string, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	return out
}
