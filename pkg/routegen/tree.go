package routegen

import (
	"fmt"
	"sort"
	"strings"
)

// RouteNode is one node of the derived hierarchy.
type RouteNode struct {
	// Key is the route key ("" root, "posts/$postId", trailing "/"
	// for index nodes).
	Key string

	// RoutePath is the display path ("/", "/posts/$postId").
	RoutePath string

	// IsIndex marks index nodes.
	IsIndex bool

	// Pathless marks layout nodes ("_"-prefixed segment). They wrap
	// their children without contributing a path segment.
	Pathless bool

	// Files maps each aspect kind to its contributing file path.
	Files map[FileKind]string

	// Virtual is set when the node has no anchor route file: it was
	// synthesized from aspect files or as an intermediate parent.
	Virtual bool

	// AnchorFile is the lexically smallest contributing file path.
	// It names virtual nodes deterministically.
	AnchorFile string

	Children []*RouteNode
}

// DuplicateRouteFileError is returned when two files claim the same
// route key and kind.
type DuplicateRouteFileError struct {
	Key      string
	Kind     FileKind
	Existing string
	File     string
}

func (e *DuplicateRouteFileError) Error() string {
	return fmt.Sprintf("routegen: %s for route %q defined by both %q and %q",
		e.Kind, displayPath(e.Key), e.Existing, e.File)
}

// BuildTree groups scanned files into the route hierarchy. Missing
// intermediate parents are synthesized as virtual nodes.
func BuildTree(files []ScannedFile) (*RouteNode, error) {
	nodes := map[string]*RouteNode{}

	ensure := func(key string) *RouteNode {
		if n, ok := nodes[key]; ok {
			return n
		}
		isIndex := key != "" && strings.HasSuffix(key, "/")
		n := &RouteNode{
			Key:       key,
			RoutePath: displayPath(key),
			IsIndex:   isIndex,
			Pathless:  !isIndex && strings.HasPrefix(lastKeySegment(key), "_"),
			Files:     map[FileKind]string{},
			Virtual:   true,
		}
		nodes[key] = n
		return n
	}
	ensure("")

	for _, f := range files {
		node := ensure(f.Key)
		if existing, ok := node.Files[f.Kind]; ok {
			return nil, &DuplicateRouteFileError{
				Key: f.Key, Kind: f.Kind, Existing: existing, File: f.FilePath,
			}
		}
		node.Files[f.Kind] = f.FilePath
		if f.Kind == KindRoute {
			node.Virtual = false
		}
		if node.AnchorFile == "" || f.FilePath < node.AnchorFile {
			node.AnchorFile = f.FilePath
		}

		// Materialize the ancestor chain.
		for key := parentKey(f.Key); key != ""; key = parentKey(key) {
			ensure(key)
		}
	}

	// Link children, deterministically ordered: index first, then
	// lexically by key.
	keys := make([]string, 0, len(nodes))
	for k := range nodes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == "" {
			continue
		}
		parent := nodes[parentKey(k)]
		parent.Children = append(parent.Children, nodes[k])
	}
	for _, n := range nodes {
		sort.SliceStable(n.Children, func(i, j int) bool {
			a, b := n.Children[i], n.Children[j]
			if a.IsIndex != b.IsIndex {
				return a.IsIndex
			}
			return a.Key < b.Key
		})
	}

	return nodes[""], nil
}

// Segment returns the path pattern this node contributes: "/" for the
// root and for index nodes, "" for pathless layouts, the last key
// segment otherwise.
func (n *RouteNode) Segment() string {
	if n.Key == "" || n.IsIndex {
		return "/"
	}
	if n.Pathless {
		return ""
	}
	return lastKeySegment(n.Key)
}

// Params returns the dynamic param names accumulated along the key,
// with "*" for a splat segment.
func (n *RouteNode) Params() []string {
	var out []string
	for _, seg := range strings.Split(strings.TrimSuffix(n.Key, "/"), "/") {
		switch {
		case seg == "$":
			out = append(out, "*")
		case strings.HasPrefix(seg, "$"):
			out = append(out, strings.TrimPrefix(seg, "$"))
		}
	}
	return out
}

func lastKeySegment(key string) string {
	parts := strings.Split(key, "/")
	return parts[len(parts)-1]
}

func parentKey(key string) string {
	// An index node ("posts/") hangs off its own directory ("posts").
	if strings.HasSuffix(key, "/") {
		return strings.TrimSuffix(key, "/")
	}
	if i := strings.LastIndex(key, "/"); i != -1 {
		return key[:i]
	}
	return ""
}

func displayPath(key string) string {
	if key == "" {
		return "/"
	}
	return "/" + strings.TrimSuffix(key, "/")
}
