package routegen

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// QuoteStyle selects how emitted string literals are quoted.
type QuoteStyle string

const (
	QuoteDouble   QuoteStyle = "double"
	QuoteBacktick QuoteStyle = "backtick"
)

// GenerateConfig controls code emission.
type GenerateConfig struct {
	// Package is the output package name. Default "routes".
	Package string

	// OutputPath is where WriteIfChanged puts the result.
	OutputPath string

	// Quote selects the string literal style. Default QuoteDouble.
	Quote QuoteStyle

	// TypedParams additionally emits a params struct per route with
	// dynamic segments.
	TypedParams bool
}

func (c GenerateConfig) withDefaults() GenerateConfig {
	out := c
	if out.Package == "" {
		out.Package = "routes"
	}
	if out.Quote == "" {
		out.Quote = QuoteDouble
	}
	return out
}

const routerImport = "github.com/wayfind-dev/wayfind/pkg/router"

// Generate emits the Go source wiring the route hierarchy. The
// output references convention-named symbols that the route files
// export: the symbol base is the pascal-cased route key, suffixed by
// the aspect (PostsPostIdLoader, PostsIndexComponent, RootRoute).
// Identical input always yields byte-identical output.
func Generate(root *RouteNode, cfg GenerateConfig) ([]byte, error) {
	cfg = cfg.withDefaults()

	var buf bytes.Buffer
	buf.WriteString("// Code generated by wayfind. DO NOT EDIT.\n\n")
	fmt.Fprintf(&buf, "package %s\n\n", cfg.Package)

	buf.WriteString("import (\n")
	fmt.Fprintf(&buf, "\trouter %s\n", strconv.Quote(routerImport))
	buf.WriteString(")\n\n")

	if cfg.TypedParams {
		emitParamStructs(&buf, root)
	}

	buf.WriteString("// NewRoutes returns the generated route hierarchy.\n")
	buf.WriteString("func NewRoutes() *router.RouteConfig {\n")
	buf.WriteString("\treturn ")
	emitNode(&buf, root, cfg, 1)
	buf.WriteString("\n}\n")

	return buf.Bytes(), nil
}

// emitNode writes one RouteConfig literal, recursing into children.
func emitNode(buf *bytes.Buffer, n *RouteNode, cfg GenerateConfig, depth int) {
	indent := strings.Repeat("\t", depth)
	inner := indent + "\t"

	buf.WriteString("&router.RouteConfig{\n")
	fmt.Fprintf(buf, "%sID: %s,\n", inner, quote(nodeID(n), cfg.Quote))
	fmt.Fprintf(buf, "%sPath: %s,\n", inner, quote(n.Segment(), cfg.Quote))

	sym := symbolBase(n)
	if _, ok := n.Files[KindLoader]; ok {
		fmt.Fprintf(buf, "%sLoader: %sLoader,\n", inner, sym)
	}
	switch {
	case hasFile(n, KindComponent):
		fmt.Fprintf(buf, "%sComponent: %sComponent,\n", inner, sym)
	case hasFile(n, KindRoute):
		// The anchor file's exported value fills the component slot
		// when no dedicated component file exists.
		fmt.Fprintf(buf, "%sComponent: %sRoute,\n", inner, sym)
	}
	if hasFile(n, KindErrorComponent) {
		fmt.Fprintf(buf, "%sErrorComponent: %sErrorComponent,\n", inner, sym)
	}
	if hasFile(n, KindPendingComponent) {
		fmt.Fprintf(buf, "%sPendingComponent: %sPendingComponent,\n", inner, sym)
	}
	if hasFile(n, KindNotFoundComponent) {
		fmt.Fprintf(buf, "%sNotFoundComponent: %sNotFoundComponent,\n", inner, sym)
	}

	if len(n.Children) > 0 {
		fmt.Fprintf(buf, "%sChildren: []*router.RouteConfig{\n", inner)
		for _, child := range n.Children {
			buf.WriteString(inner + "\t")
			emitNode(buf, child, cfg, depth+2)
			buf.WriteString(",\n")
		}
		fmt.Fprintf(buf, "%s},\n", inner)
	}

	fmt.Fprintf(buf, "%s}", indent)
}

// emitParamStructs writes one params struct per route that owns a
// dynamic or splat segment.
func emitParamStructs(buf *bytes.Buffer, root *RouteNode) {
	var walk func(n *RouteNode)
	walk = func(n *RouteNode) {
		seg := n.Segment()
		if strings.HasPrefix(seg, "$") {
			sym := symbolBase(n)
			fmt.Fprintf(buf, "// %sParams are the path params for %s.\n", sym, n.RoutePath)
			fmt.Fprintf(buf, "type %sParams struct {\n", sym)
			for _, p := range n.Params() {
				if p == "*" {
					buf.WriteString("\tSplat string\n")
					continue
				}
				fmt.Fprintf(buf, "\t%s string\n", pascal(p))
			}
			buf.WriteString("}\n\n")
		}
		for _, child := range n.Children {
			walk(child)
		}
	}
	walk(root)
}

// nodeID derives the stable route id emitted for a node.
func nodeID(n *RouteNode) string {
	if n.Key == "" {
		return "__root__"
	}
	id := displayPath(n.Key)
	if n.IsIndex && id != "/" {
		id += "/"
	}
	return id
}

// symbolBase pascal-cases the route key: "posts/$postId/" becomes
// PostsPostIdIndex, "" becomes Root.
func symbolBase(n *RouteNode) string {
	if n.Key == "" {
		return "Root"
	}
	var sb strings.Builder
	for _, seg := range strings.Split(strings.TrimSuffix(n.Key, "/"), "/") {
		if seg == "$" {
			sb.WriteString("Splat")
			continue
		}
		sb.WriteString(pascal(strings.TrimPrefix(seg, "$")))
	}
	if n.IsIndex {
		sb.WriteString("Index")
	}
	return sb.String()
}

// pascal upper-cases the first letter of each alphanumeric run.
func pascal(s string) string {
	var sb strings.Builder
	upper := true
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			if upper && r >= 'a' && r <= 'z' {
				r -= 'a' - 'A'
			}
			sb.WriteRune(r)
			upper = false
		default:
			upper = true
		}
	}
	return sb.String()
}

func hasFile(n *RouteNode, kind FileKind) bool {
	_, ok := n.Files[kind]
	return ok
}

func quote(s string, style QuoteStyle) string {
	if style == QuoteBacktick && !strings.Contains(s, "`") {
		return "`" + s + "`"
	}
	return strconv.Quote(s)
}

// WriteIfChanged writes content to p only when it differs from what
// is already there. Reports whether a write happened.
func WriteIfChanged(p string, content []byte) (bool, error) {
	existing, err := os.ReadFile(p)
	if err == nil && bytes.Equal(existing, content) {
		return false, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return false, err
	}
	if err := os.WriteFile(p, content, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
