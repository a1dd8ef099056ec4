// Package errors provides structured, coded errors for the wayfind
// CLI and configuration layer. Each error carries a stable code, a
// category, and an actionable suggestion; the registry keeps code
// metadata in one place.
package errors
