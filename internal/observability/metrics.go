package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	shapefileLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shapefile_loads_total",
			Help: "Shapefile load operations by outcome.",
		},
		[]string{"outcome"},
	)

	shapefileLoadDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shapefile_load_duration_seconds",
			Help:    "Duration of shapefile load operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
	)

	mapRendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "map_renders_total",
			Help: "Map render operations by outcome.",
		},
		[]string{"outcome"},
	)

	renderCacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "render_cache_results_total",
			Help: "Render memo cache results by outcome.",
		},
		[]string{"outcome"},
	)

	featuresLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "features_loaded",
			Help: "Number of features in the most recently loaded table.",
		},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

// outcome is one of "ok", "invalid_geoms", "no_shp", "error"
func ObserveLoad(outcome string, durationSeconds float64, features int) {
	shapefileLoadsTotal.WithLabelValues(outcome).Inc()
	shapefileLoadDurationSeconds.Observe(durationSeconds)
	if outcome != "error" && outcome != "no_shp" {
		featuresLoaded.Set(float64(features))
	}
}

func ObserveRender(outcome string) {
	mapRendersTotal.WithLabelValues(outcome).Inc()
}

func IncRenderCacheHit() {
	renderCacheResults.WithLabelValues("hit").Inc()
}

func IncRenderCacheMiss() {
	renderCacheResults.WithLabelValues("miss").Inc()
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
