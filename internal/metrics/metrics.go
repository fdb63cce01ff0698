// Package metrics provides Prometheus metrics for the codehub server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codehub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codehub_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Content store metrics
	storeOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codehub_store_operation_duration_seconds",
			Help:    "Content store operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	storeOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codehub_store_operations_total",
			Help: "Total content store operations",
		},
		[]string{"operation", "status"},
	)

	storeBytesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codehub_store_bytes_written_total",
			Help: "Total bytes written to the content store",
		},
	)

	// Workspace metrics
	treeSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "codehub_tree_size",
			Help: "Number of files and folders in the workspace tree",
		},
	)

	treeRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "codehub_tree_refresh_duration_seconds",
			Help:    "Time to rebuild the tree from a store listing",
			Buckets: prometheus.DefBuckets,
		},
	)

	tabsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "codehub_tabs_open",
			Help: "Number of open editor tabs",
		},
	)

	tabsDirty = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "codehub_tabs_dirty",
			Help: "Number of open tabs with unsaved changes",
		},
	)

	conflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codehub_name_conflicts_total",
			Help: "Name conflicts hit on create, by resolution",
		},
		[]string{"resolution"},
	)

	// Assistant metrics
	assistantRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codehub_assistant_requests_total",
			Help: "Total chat assistant requests",
		},
		[]string{"mode", "status"},
	)

	wsClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "codehub_websocket_clients",
			Help: "Number of connected websocket clients",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(code)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordStoreOperation records a content store operation.
func RecordStoreOperation(operation string, duration time.Duration, success bool) {
	storeOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	storeOperationsTotal.WithLabelValues(operation, status(success)).Inc()
}

// RecordBytesWritten adds to the written bytes counter.
func RecordBytesWritten(n int) {
	storeBytesWritten.Add(float64(n))
}

// SetTreeSize sets the current tree size.
func SetTreeSize(size int) {
	treeSize.Set(float64(size))
}

// RecordTreeRefresh records tree refresh duration.
func RecordTreeRefresh(duration time.Duration) {
	treeRefreshDuration.Observe(duration.Seconds())
}

// SetTabs sets the open and dirty tab gauges.
func SetTabs(open, dirty int) {
	tabsOpen.Set(float64(open))
	tabsDirty.Set(float64(dirty))
}

// RecordConflict records how a name conflict was resolved.
func RecordConflict(resolution string) {
	conflictsTotal.WithLabelValues(resolution).Inc()
}

// RecordAssistantRequest records a chat request.
func RecordAssistantRequest(stream bool, success bool) {
	mode := "complete"
	if stream {
		mode = "stream"
	}
	assistantRequestsTotal.WithLabelValues(mode, status(success)).Inc()
}

// SetWebSocketClients sets the number of connected websocket clients.
func SetWebSocketClients(n int) {
	wsClients.Set(float64(n))
}

// Middleware returns gin middleware that records request metrics. Routes are
// labelled by their pattern, not the raw URL, to keep cardinality bounded.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
