// Package instrument provides router.Observer implementations:
// Prometheus metrics, OpenTelemetry spans, and a combinator for
// running several observers at once.
package instrument
