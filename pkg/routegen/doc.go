// Package routegen is the build-time file-to-route generator. It
// scans a routes directory into a tagged inventory of route files,
// derives the nesting hierarchy (synthesizing virtual parents where
// only aspect files exist), and emits deterministic Go source wiring
// the tree. Output is written only when its content changed, and a
// Session serializes concurrent runs so only the latest one writes.
package routegen
