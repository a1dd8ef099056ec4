package routegen

import (
	"errors"
	"testing"
	"testing/fstest"
)

func scanAndBuild(t *testing.T, fsys fstest.MapFS) *RouteNode {
	t.Helper()
	files, err := Scan(fsys, ScanConfig{})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	root, err := BuildTree(files)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	return root
}

func findChild(n *RouteNode, key string) *RouteNode {
	for _, c := range n.Children {
		if c.Key == key {
			return c
		}
	}
	return nil
}

func TestBuildTreeNesting(t *testing.T) {
	root := scanAndBuild(t, fstest.MapFS{
		"route.tsx":           {},
		"index.tsx":           {},
		"$id/route.tsx":       {},
		"posts/route.tsx":     {},
		"posts/index.tsx":     {},
		"posts/$pid/route.go": {},
	})

	if root.Key != "" || root.Virtual {
		t.Fatalf("root = %+v", root)
	}

	index := findChild(root, "/")
	if index == nil || !index.IsIndex || index.Segment() != "/" {
		t.Fatalf("root index = %+v", index)
	}

	id := findChild(root, "$id")
	if id == nil || id.Virtual || id.Segment() != "$id" {
		t.Fatalf("$id = %+v", id)
	}

	posts := findChild(root, "posts")
	if posts == nil {
		t.Fatal("posts missing")
	}
	if pidx := findChild(posts, "posts/"); pidx == nil || !pidx.IsIndex {
		t.Fatal("posts index missing")
	}
	if pid := findChild(posts, "posts/$pid"); pid == nil {
		t.Fatal("posts/$pid missing")
	}

	// Index children sort first.
	if len(root.Children) == 0 || !root.Children[0].IsIndex {
		t.Fatalf("index must sort first: %v", root.Children[0])
	}
}

func TestBuildTreeVirtualParent(t *testing.T) {
	// Aspect files with no anchor route file synthesize a virtual
	// node; the anchor name is the lexically smallest contributor.
	root := scanAndBuild(t, fstest.MapFS{
		"posts/loader.tsx":    {},
		"posts/component.tsx": {},
	})

	posts := findChild(root, "posts")
	if posts == nil {
		t.Fatal("posts missing")
	}
	if !posts.Virtual {
		t.Fatal("posts must be virtual without an anchor route file")
	}
	if posts.AnchorFile != "posts/component.tsx" {
		t.Fatalf("AnchorFile = %q, want lexically smallest", posts.AnchorFile)
	}
	if !hasFile(posts, KindLoader) || !hasFile(posts, KindComponent) {
		t.Fatalf("files = %v", posts.Files)
	}
}

func TestBuildTreeVirtualBecomesConcrete(t *testing.T) {
	root := scanAndBuild(t, fstest.MapFS{
		"posts/loader.tsx": {},
		"posts/route.tsx":  {},
	})
	posts := findChild(root, "posts")
	if posts.Virtual {
		t.Fatal("anchor route file must make the node concrete")
	}
}

func TestBuildTreeIntermediateParents(t *testing.T) {
	// A deep file materializes its whole ancestor chain.
	root := scanAndBuild(t, fstest.MapFS{
		"a/b/c/route.tsx": {},
	})
	a := findChild(root, "a")
	if a == nil || !a.Virtual {
		t.Fatalf("a = %+v", a)
	}
	b := findChild(a, "a/b")
	if b == nil || !b.Virtual {
		t.Fatalf("b = %+v", b)
	}
	c := findChild(b, "a/b/c")
	if c == nil || c.Virtual {
		t.Fatalf("c = %+v", c)
	}
}

func TestBuildTreePathlessLayout(t *testing.T) {
	root := scanAndBuild(t, fstest.MapFS{
		"_layout/route.go":           {},
		"_layout/index.tsx":          {},
		"_layout/dashboard/route.go": {},
		"settings/route.go":          {},
	})

	layout := findChild(root, "_layout")
	if layout == nil || !layout.Pathless {
		t.Fatalf("_layout = %+v", layout)
	}
	if layout.Segment() != "" {
		t.Fatalf("Segment = %q, want empty for a pathless layout", layout.Segment())
	}

	// The layout's children keep their own segments.
	idx := findChild(layout, "_layout/")
	if idx == nil || !idx.IsIndex || idx.Pathless {
		t.Fatalf("layout index = %+v", idx)
	}
	dash := findChild(layout, "_layout/dashboard")
	if dash == nil || dash.Pathless || dash.Segment() != "dashboard" {
		t.Fatalf("dashboard = %+v", dash)
	}

	settings := findChild(root, "settings")
	if settings == nil || settings.Pathless {
		t.Fatalf("settings = %+v", settings)
	}
}

func TestBuildTreeDuplicateFile(t *testing.T) {
	files := []ScannedFile{
		{Kind: KindLoader, FilePath: "posts/loader.tsx", Key: "posts"},
		{Kind: KindLoader, FilePath: "posts.loader.tsx", Key: "posts"},
	}
	_, err := BuildTree(files)
	var dup *DuplicateRouteFileError
	if !errors.As(err, &dup) {
		t.Fatalf("err = %v, want DuplicateRouteFileError", err)
	}
	if dup.Key != "posts" || dup.Kind != KindLoader {
		t.Fatalf("dup = %+v", dup)
	}
}

func TestRouteNodeParams(t *testing.T) {
	root := scanAndBuild(t, fstest.MapFS{
		"posts/$postId/comments/$commentId/route.tsx": {},
		"files/$/route.tsx":                           {},
	})

	posts := findChild(root, "posts")
	pid := findChild(posts, "posts/$postId")
	comments := findChild(pid, "posts/$postId/comments")
	leaf := findChild(comments, "posts/$postId/comments/$commentId")
	got := leaf.Params()
	if len(got) != 2 || got[0] != "postId" || got[1] != "commentId" {
		t.Fatalf("Params = %v", got)
	}

	files := findChild(root, "files")
	splat := findChild(files, "files/$")
	if p := splat.Params(); len(p) != 1 || p[0] != "*" {
		t.Fatalf("splat params = %v", p)
	}
}
