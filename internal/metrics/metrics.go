package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagview_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tagview_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagview_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagview_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tagview_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tagview_db_transaction_duration_seconds",
			Help:    "Database transaction duration in seconds by outcome",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"type"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagview_db_connections_open",
			Help: "Number of open database connections",
		},
	)

	DBSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tagview_db_size_bytes",
			Help: "Size of SQLite database files in bytes",
		},
		[]string{"file"}, // "main", "wal", "shm"
	)

	DBStorageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagview_db_storage_errors_total",
			Help: "Total number of database storage access errors",
		},
		[]string{"file"},
	)
)

// Scanner metrics
var (
	ScanRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tagview_scan_runs_total",
			Help: "Total number of catalog scan runs",
		},
	)

	ScanLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagview_scan_last_run_timestamp",
			Help: "Timestamp of the last catalog scan",
		},
	)

	ScanLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagview_scan_last_run_duration_seconds",
			Help: "Duration of the last catalog scan in seconds",
		},
	)

	ScanFilesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tagview_scan_files_processed_total",
			Help: "Total number of files processed by catalog scans",
		},
	)

	ScanFilesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tagview_scan_files_skipped_total",
			Help: "Total number of files skipped because size and mtime were unchanged",
		},
	)

	ScanFilesPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tagview_scan_files_pruned_total",
			Help: "Total number of catalog entries pruned for files no longer on disk",
		},
	)

	ScanErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tagview_scan_errors_total",
			Help: "Total number of scan errors",
		},
	)

	ScanIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagview_scan_running",
			Help: "Whether a catalog scan is currently running (1 = running, 0 = idle)",
		},
	)

	ScanPollChecksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tagview_scan_poll_checks_total",
			Help: "Total number of change-detection polls",
		},
	)

	ScanPollChangesDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tagview_scan_poll_changes_detected_total",
			Help: "Total number of polls that detected directory changes",
		},
	)

	ScanPollDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tagview_scan_poll_duration_seconds",
			Help:    "Change-detection poll duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagview_thumbnail_generations_total",
			Help: "Total number of thumbnail generations by outcome",
		},
		[]string{"status"}, // "success", "error", "stale"
	)

	ThumbnailGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tagview_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	ThumbnailDecodeByFormat = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagview_thumbnail_decodes_total",
			Help: "Total number of source image decodes by detected format",
		},
		[]string{"format"},
	)

	ThumbnailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tagview_thumbnail_cache_hits_total",
			Help: "Total number of thumbnail cache hits",
		},
	)

	ThumbnailCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tagview_thumbnail_cache_misses_total",
			Help: "Total number of thumbnail cache misses",
		},
	)

	ThumbnailDiskHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tagview_thumbnail_disk_hits_total",
			Help: "Total number of thumbnails served from the disk store instead of a fresh decode",
		},
	)

	ThumbnailCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagview_thumbnail_cache_entries",
			Help: "Number of entries currently in the thumbnail cache",
		},
	)

	ThumbnailCacheBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagview_thumbnail_cache_size_bytes",
			Help: "Total size of cached thumbnail bytes",
		},
	)

	ThumbnailCacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tagview_thumbnail_cache_evictions_total",
			Help: "Total number of thumbnail cache evictions",
		},
	)

	ThumbnailRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tagview_thumbnail_retries_total",
			Help: "Total number of explicit thumbnail retry requests",
		},
	)

	ThumbnailQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagview_thumbnail_queue_depth",
			Help: "Number of thumbnail jobs waiting for a worker",
		},
	)
)

// View and selection metrics
var (
	ViewRecomputesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tagview_view_recomputes_total",
			Help: "Total number of filtered view recomputations",
		},
	)

	ViewRecomputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tagview_view_recompute_duration_seconds",
			Help:    "Filtered view recomputation duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	ViewVisibleImages = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagview_view_visible_images",
			Help: "Number of images passing the current filter",
		},
	)

	SelectionSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagview_selection_size",
			Help: "Number of images in the current selection",
		},
	)
)

// Catalog metrics
var (
	CatalogImages = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagview_catalog_images",
			Help: "Total number of images in the catalog",
		},
	)

	CatalogDirectories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagview_catalog_directories",
			Help: "Number of watched directories",
		},
	)

	CatalogUntaggedImages = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagview_catalog_untagged_images",
			Help: "Number of images with no tags",
		},
	)

	TagsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagview_tags_total",
			Help: "Total number of tags",
		},
	)

	TagAssignments = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagview_tag_assignments",
			Help: "Total number of image-tag assignments",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tagview_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagview_filesystem_operation_errors_total",
			Help: "Total number of filesystem operation errors",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagview_filesystem_retry_attempts_total",
			Help: "Total number of filesystem retry attempts",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagview_filesystem_retry_success_total",
			Help: "Total number of filesystem retries that eventually succeeded",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagview_filesystem_retry_failures_total",
			Help: "Total number of filesystem retries that exhausted their attempts",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagview_filesystem_stale_errors_total",
			Help: "Total number of stale file handle errors observed",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tagview_filesystem_retry_duration_seconds",
			Help:    "Total time spent inside filesystem retry loops",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"operation", "volume"},
	)
)

// Authentication metrics
var (
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagview_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"status"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagview_active_sessions",
			Help: "Number of active sessions",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tagview_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
