// Package metrics exposes Prometheus instrumentation for the extension tooling.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Function metrics
	functionCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minnal_function_calls_total",
			Help: "Total number of extension function invocations",
		},
		[]string{"function", "status"},
	)

	// Installation metrics
	installs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minnal_install_operations_total",
			Help: "Total number of install and uninstall operations",
		},
		[]string{"operation", "status"},
	)

	installedInSync = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "minnal_installed_in_sync",
			Help: "Whether the installed function reports the build version (1) or not (0)",
		},
	)

	// HTTP metrics
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minnal_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "code"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "minnal_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Build information
	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "minnal_build_info",
			Help: "Build information, value is always 1",
		},
		[]string{"version", "commit"},
	)
)

// RecordFunctionCall records a single function invocation.
func RecordFunctionCall(function string, err error) {
	functionCalls.WithLabelValues(function, status(err)).Inc()
}

// FunctionCalls returns the counter for the given function and status label.
func FunctionCalls(function, status string) prometheus.Counter {
	return functionCalls.WithLabelValues(function, status)
}

// RecordInstall records an install or uninstall operation.
func RecordInstall(operation string, err error) {
	installs.WithLabelValues(operation, status(err)).Inc()
}

// SetInSync updates the drift gauge.
func SetInSync(inSync bool) {
	if inSync {
		installedInSync.Set(1)
		return
	}
	installedInSync.Set(0)
}

// RecordHTTPRequest records a handled HTTP request.
func RecordHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// SetBuildInfo publishes the build version as a constant gauge.
func SetBuildInfo(version, commit string) {
	buildInfo.WithLabelValues(version, commit).Set(1)
}

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
