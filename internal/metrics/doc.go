// Package metrics provides Prometheus instrumentation for the tagview engine.
//
// This package defines and exposes various metrics that can be scraped by Prometheus
// to monitor the health, performance, and behavior of the application. All metrics
// are prefixed with "tagview_" to avoid naming collisions with other applications.
//
// # Metric Categories
//
// The metrics are organized into the following categories:
//
// ## HTTP Metrics
//
// Track HTTP request performance and error rates:
//   - HTTPRequestsTotal: Counter of total requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Database Metrics
//
// Monitor database query performance and storage:
//   - DBQueryTotal: Counter of queries by operation and status
//   - DBQueryDuration: Histogram of query duration by operation
//   - DBTransactionDuration: Histogram of transaction duration by outcome
//   - DBConnectionsOpen: Gauge of open database connections
//   - DBSizeBytes: Gauge of database file sizes (main, WAL, SHM)
//   - DBStorageErrors: Counter of storage access failures by file
//
// ## Scanner Metrics
//
// Track catalog scan and change-detection activity:
//   - ScanRunsTotal: Counter of scan runs
//   - ScanLastRunTimestamp: Gauge of last run time
//   - ScanLastRunDuration: Gauge of last run duration
//   - ScanFilesProcessed: Counter of files processed
//   - ScanFilesSkipped: Counter of files skipped (unchanged size and mtime)
//   - ScanFilesPruned: Counter of catalog entries removed for vanished files
//   - ScanErrors: Counter of scan errors
//   - ScanIsRunning: Gauge indicating if a scan is active
//   - ScanPollChecksTotal: Counter of polling checks for directory changes
//   - ScanPollChangesDetected: Counter of times polling detected changes
//   - ScanPollDuration: Histogram of polling scan duration
//
// ## Thumbnail Metrics
//
// Monitor thumbnail generation and caching:
//   - ThumbnailGenerationsTotal: Counter by outcome (success/error/stale)
//   - ThumbnailGenerationDuration: Histogram of generation time
//   - ThumbnailDecodeByFormat: Counter of source decodes by detected format
//   - ThumbnailCacheHits / ThumbnailCacheMisses: Cache effectiveness counters
//   - ThumbnailDiskHits: Counter of thumbnails served from the disk store
//   - ThumbnailCacheEntries: Gauge of cached thumbnail count
//   - ThumbnailCacheBytes: Gauge of cache size in bytes
//   - ThumbnailCacheEvictions: Counter of LRU evictions
//   - ThumbnailRetriesTotal: Counter of explicit retry requests
//   - ThumbnailQueueDepth: Gauge of jobs waiting for a worker
//
// ## View and Selection Metrics
//
// Track the derived filtered view and the selection model:
//   - ViewRecomputesTotal: Counter of filtered view recomputations
//   - ViewRecomputeDuration: Histogram of recomputation time
//   - ViewVisibleImages: Gauge of images passing the current filter
//   - SelectionSize: Gauge of the current selection size
//
// ## Catalog Metrics
//
// Track catalog contents:
//   - CatalogImages: Gauge of total images
//   - CatalogDirectories: Gauge of watched directories
//   - CatalogUntaggedImages: Gauge of images with no tags
//   - TagsTotal: Gauge of total tags
//   - TagAssignments: Gauge of total image-tag assignments
//
// ## Authentication Metrics
//
// Track authentication activity:
//   - AuthAttemptsTotal: Counter by status (success/failure)
//   - ActiveSessions: Gauge of active sessions
//
// ## Application Info
//
// Expose build information:
//   - AppInfo: Gauge with version, commit, and Go version labels
//
// # Usage
//
// Metrics are automatically registered with the default Prometheus registry
// using promauto. To expose them, mount the promhttp.Handler() on your
// metrics endpoint:
//
//	import "github.com/prometheus/client_golang/prometheus/promhttp"
//
//	mux.Handle("/metrics", promhttp.Handler())
//
// # Recording Metrics
//
// To record metrics from other packages, import this package and use the
// exported metric variables:
//
//	import "tagview/internal/metrics"
//
//	// Increment a counter
//	metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/images", "200").Inc()
//
//	// Observe a histogram value
//	metrics.HTTPRequestDuration.WithLabelValues("GET", "/api/images").Observe(0.123)
//
//	// Set a gauge value
//	metrics.DBConnectionsOpen.Set(5)
//
// # Collector
//
// The package provides a [Collector] type that periodically gathers
// statistics from a [StatsProvider] and drives a [StorageHealthChecker],
// updating the corresponding gauges. This is useful for metrics that need
// to be calculated from external sources like the engine and the database:
//
//	collector := metrics.NewCollector(engine, db, 30*time.Second)
//	collector.Start()
//	defer collector.Stop()
//
// # Prometheus Queries
//
// Example PromQL queries for common use cases:
//
// Request rate by endpoint:
//
//	sum(rate(tagview_http_requests_total[5m])) by (path)
//
// P95 response time:
//
//	histogram_quantile(0.95, sum(rate(tagview_http_request_duration_seconds_bucket[5m])) by (le))
//
// Error rate:
//
//	sum(rate(tagview_http_requests_total{status=~"5.."}[5m])) / sum(rate(tagview_http_requests_total[5m]))
//
// Thumbnail cache hit rate:
//
//	rate(tagview_thumbnail_cache_hits_total[5m]) /
//	(rate(tagview_thumbnail_cache_hits_total[5m]) + rate(tagview_thumbnail_cache_misses_total[5m]))
//
// Database query latency by operation:
//
//	histogram_quantile(0.95, sum(rate(tagview_db_query_duration_seconds_bucket[5m])) by (le, operation))
//
// Polling efficiency (changes detected per poll):
//
//	rate(tagview_scan_poll_changes_detected_total[1h]) /
//	rate(tagview_scan_poll_checks_total[1h])
//
// Filter recompute latency:
//
//	histogram_quantile(0.95, sum(rate(tagview_view_recompute_duration_seconds_bucket[5m])) by (le))
package metrics
