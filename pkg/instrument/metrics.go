package instrument

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/wayfind-dev/wayfind/pkg/router"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "wayfind").
	Namespace string

	// Subsystem is the metrics subsystem (default: "router").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "wayfind",
		Subsystem: "router",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// MetricsObserver records router activity as Prometheus metrics.
//
// Metrics collected:
//   - wayfind_router_navigations_total: Counter of navigations by result
//   - wayfind_router_navigation_duration_seconds: Histogram of navigation duration by result
//   - wayfind_router_loaders_total: Counter of loader invocations by route and status
//   - wayfind_router_loader_duration_seconds: Histogram of loader duration by route
//   - wayfind_router_cache_events_total: Counter of match cache hits and misses by route
type MetricsObserver struct {
	navigations        *prometheus.CounterVec
	navigationDuration *prometheus.HistogramVec
	loaders            *prometheus.CounterVec
	loaderDuration     *prometheus.HistogramVec
	cacheEvents        *prometheus.CounterVec
}

var _ router.Observer = (*MetricsObserver)(nil)

// NewMetricsObserver builds a Prometheus observer, registering its
// collectors with the configured registry.
func NewMetricsObserver(opts ...MetricsOption) *MetricsObserver {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &MetricsObserver{
		navigations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigations_total",
			Help:        "Total number of navigations by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		navigationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigation_duration_seconds",
			Help:        "Navigation duration in seconds by result",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"result"}),

		loaders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "loaders_total",
			Help:        "Total number of loader invocations by route and status",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "status"}),

		loaderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "loader_duration_seconds",
			Help:        "Loader duration in seconds by route",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"route"}),

		cacheEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cache_events_total",
			Help:        "Match cache hits and misses by route",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "outcome"}),
	}
}

func (o *MetricsObserver) NavigationStart(to router.ParsedLocation) {}

func (o *MetricsObserver) NavigationEnd(from, to router.ParsedLocation, result router.NavigationResult, elapsed time.Duration) {
	o.navigations.WithLabelValues(string(result)).Inc()
	o.navigationDuration.WithLabelValues(string(result)).Observe(elapsed.Seconds())
}

func (o *MetricsObserver) LoaderStart(routeID string, cause router.Cause) {}

func (o *MetricsObserver) LoaderEnd(routeID string, cause router.Cause, elapsed time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	o.loaders.WithLabelValues(routeID, status).Inc()
	o.loaderDuration.WithLabelValues(routeID).Observe(elapsed.Seconds())
}

func (o *MetricsObserver) CacheHit(routeID string) {
	o.cacheEvents.WithLabelValues(routeID, "hit").Inc()
}

func (o *MetricsObserver) CacheMiss(routeID string) {
	o.cacheEvents.WithLabelValues(routeID, "miss").Inc()
}
