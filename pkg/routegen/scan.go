package routegen

import (
	"io/fs"
	"path"
	"sort"
	"strings"
)

// FileKind classifies a discovered route file. The kind is assigned
// exactly once, during the scan; downstream stages switch on it and
// never re-inspect file names.
type FileKind string

const (
	// KindRoute is the anchor file declaring that a route exists.
	KindRoute FileKind = "route"

	KindComponent         FileKind = "component"
	KindErrorComponent    FileKind = "errorComponent"
	KindPendingComponent  FileKind = "pendingComponent"
	KindNotFoundComponent FileKind = "notFoundComponent"
	KindLoader            FileKind = "loader"
)

// aspectKinds maps a recognized file-name suffix to its kind.
var aspectKinds = map[string]FileKind{
	"route":             KindRoute,
	"component":         KindComponent,
	"errorComponent":    KindErrorComponent,
	"pendingComponent":  KindPendingComponent,
	"notFoundComponent": KindNotFoundComponent,
	"loader":            KindLoader,
}

// ScannedFile is one qualifying file found under the routes directory.
type ScannedFile struct {
	Kind FileKind

	// FilePath is the slash-separated path relative to the scanned
	// root.
	FilePath string

	// Key is the derived route key: "" for the root, "posts/$postId"
	// for nested routes, a trailing "/" for index routes
	// ("posts/" is the index child of "posts").
	Key string
}

// ScanConfig controls which files qualify and how their route key is
// derived.
type ScanConfig struct {
	// Extensions are the recognized file extensions, with dot.
	// Default: .go, .ts, .tsx.
	Extensions []string

	// RoutePrefix, when set, restricts scanning to files whose base
	// name starts with it; the prefix is stripped before deriving the
	// key.
	RoutePrefix string

	// IgnorePrefix skips files and directories whose name starts with
	// it. Default "-".
	IgnorePrefix string
}

func (c ScanConfig) withDefaults() ScanConfig {
	out := c
	if len(out.Extensions) == 0 {
		out.Extensions = []string{".go", ".ts", ".tsx"}
	}
	if out.IgnorePrefix == "" {
		out.IgnorePrefix = "-"
	}
	return out
}

func (c ScanConfig) recognizedExt(ext string) bool {
	for _, e := range c.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Scan walks the routes directory and returns the qualifying files,
// sorted by file path. Filesystem errors abort the run.
func Scan(fsys fs.FS, cfg ScanConfig) ([]ScannedFile, error) {
	cfg = cfg.withDefaults()

	var files []ScannedFile
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), cfg.IgnorePrefix) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if sf, ok := deriveFile(p, cfg); ok {
			files = append(files, sf)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].FilePath < files[j].FilePath
	})
	return files, nil
}

// deriveFile classifies one file and computes its route key. Dots in
// the base name are nesting separators (flat convention), so
// "posts.$postId.loader.tsx" and "posts/$postId/loader.tsx" derive
// the same key.
func deriveFile(p string, cfg ScanConfig) (ScannedFile, bool) {
	ext := path.Ext(p)
	if !cfg.recognizedExt(ext) {
		return ScannedFile{}, false
	}

	name := strings.TrimSuffix(path.Base(p), ext)
	if cfg.RoutePrefix != "" {
		if !strings.HasPrefix(name, cfg.RoutePrefix) {
			return ScannedFile{}, false
		}
		name = strings.TrimPrefix(name, cfg.RoutePrefix)
	}

	var segments []string
	if dir := path.Dir(p); dir != "." {
		segments = strings.Split(dir, "/")
	}
	segments = append(segments, strings.Split(name, ".")...)

	// A recognized aspect suffix is consumed as the kind; anything
	// else stays a path segment.
	kind := KindRoute
	last := segments[len(segments)-1]
	if k, ok := aspectKinds[last]; ok {
		kind = k
		segments = segments[:len(segments)-1]
	}

	key := strings.Join(segments, "/")
	switch {
	case len(segments) == 0:
		// Anchor or aspect at the root ("route.tsx", "loader.tsx").
		key = ""
	case segments[len(segments)-1] == "index":
		// Index collapses onto the parent path with a marker.
		key = strings.Join(segments[:len(segments)-1], "/") + "/"
	}

	return ScannedFile{Kind: kind, FilePath: p, Key: key}, true
}
