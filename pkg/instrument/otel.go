package instrument

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wayfind-dev/wayfind/pkg/router"
)

// Default tracer name for wayfind routers.
const defaultTracerName = "wayfind"

// TracingConfig configures the OpenTelemetry observer.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "wayfind").
	TracerName string

	// IncludeSearch includes the encoded search string in navigation
	// spans. May contain sensitive information - disabled by default.
	IncludeSearch bool

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// TracingOption configures the OpenTelemetry observer.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithIncludeSearch enables recording search strings in spans.
func WithIncludeSearch(include bool) TracingOption {
	return func(c *TracingConfig) {
		c.IncludeSearch = include
	}
}

// TracingObserver emits one span per navigation and per loader
// invocation. Spans are created when the event ends, backdated by the
// measured duration, so the observer itself carries no per-event
// state.
//
// The tracer comes from the global OpenTelemetry tracer provider.
// Configure it in main() before starting the router:
//
//	tp := sdktrace.NewTracerProvider(
//	    sdktrace.WithBatcher(exporter),
//	)
//	otel.SetTracerProvider(tp)
type TracingObserver struct {
	config TracingConfig
}

var _ router.Observer = (*TracingObserver)(nil)

// NewTracingObserver builds an OpenTelemetry observer.
func NewTracingObserver(opts ...TracingOption) *TracingObserver {
	config := TracingConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)
	return &TracingObserver{config: config}
}

func (o *TracingObserver) NavigationStart(to router.ParsedLocation) {}

func (o *TracingObserver) NavigationEnd(from, to router.ParsedLocation, result router.NavigationResult, elapsed time.Duration) {
	start := time.Now().Add(-elapsed)
	attrs := []attribute.KeyValue{
		attribute.String("wayfind.navigation.from", from.Pathname),
		attribute.String("wayfind.navigation.to", to.Pathname),
		attribute.String("wayfind.navigation.result", string(result)),
	}
	if o.config.IncludeSearch && to.SearchStr != "" {
		attrs = append(attrs, attribute.String("wayfind.navigation.search", to.SearchStr))
	}

	_, span := o.config.tracer.Start(context.Background(), "navigate "+to.Pathname,
		trace.WithTimestamp(start),
		trace.WithAttributes(attrs...),
	)
	if result == router.NavFailed {
		span.SetStatus(codes.Error, string(result))
	}
	span.End()
}

func (o *TracingObserver) LoaderStart(routeID string, cause router.Cause) {}

func (o *TracingObserver) LoaderEnd(routeID string, cause router.Cause, elapsed time.Duration, err error) {
	start := time.Now().Add(-elapsed)
	_, span := o.config.tracer.Start(context.Background(), "load "+routeID,
		trace.WithTimestamp(start),
		trace.WithAttributes(
			attribute.String("wayfind.loader.route", routeID),
			attribute.String("wayfind.loader.cause", string(cause)),
		),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (o *TracingObserver) CacheHit(routeID string)  {}
func (o *TracingObserver) CacheMiss(routeID string) {}
