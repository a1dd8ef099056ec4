package routegen

import (
	"io/fs"
	"os"
	"sync"
	"sync/atomic"
)

// Session serializes repeated generator runs over one routes
// directory. Every Run gets a monotonically increasing generation
// token; a run whose token is no longer the latest at write time
// discards its result silently, so concurrent invocations can never
// clobber a newer run's output.
type Session struct {
	// Dir is the routes directory. Ignored when FS is set.
	Dir string

	// FS overrides the filesystem scanned (tests).
	FS fs.FS

	Scan     ScanConfig
	Generate GenerateConfig

	gen atomic.Uint64
	mu  sync.Mutex
}

// Run scans, derives the tree, emits, and writes the output if it
// changed. Returns whether a write happened. A run superseded by a
// newer one returns (false, nil).
func (s *Session) Run() (bool, error) {
	token := s.begin()

	content, err := s.build()
	if err != nil {
		return false, err
	}
	return s.commit(token, content)
}

// begin issues the next generation token.
func (s *Session) begin() uint64 {
	return s.gen.Add(1)
}

// build produces the generated source for the current directory
// contents.
func (s *Session) build() ([]byte, error) {
	fsys := s.FS
	if fsys == nil {
		fsys = os.DirFS(s.Dir)
	}

	files, err := Scan(fsys, s.Scan)
	if err != nil {
		return nil, err
	}
	root, err := BuildTree(files)
	if err != nil {
		return nil, err
	}
	return Generate(root, s.Generate)
}

// commit writes the run's output unless a newer run has started.
func (s *Session) commit(token uint64, content []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.gen.Load() {
		return false, nil
	}
	return WriteIfChanged(s.Generate.OutputPath, content)
}
