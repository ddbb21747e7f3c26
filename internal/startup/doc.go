// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// This package centralizes all application configuration and provides consistent
// logging throughout the application lifecycle.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig].
// The following environment variables are supported:
//
//   - IMAGE_DIRS: Colon-separated list of image roots to watch (default: none;
//     roots can also be added at runtime through the API)
//   - CACHE_DIR: Path to cache directory for the thumbnail store (default: /cache)
//   - DATABASE_DIR: Path to database directory (default: /database)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - RESCAN_INTERVAL: Periodic full rescan interval as Go duration (default: 30m,
//     0 disables)
//   - THUMBNAIL_WORKERS: Thumbnail worker pool size (default: derived from
//     GOMAXPROCS)
//   - THUMB_CACHE_CAPACITY: In-memory thumbnail cache entry bound (default: 512)
//   - AUTH_ENABLED: Honor the password gate when one is set (default: true)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// # Directory Setup
//
// The package validates and creates required directories:
//   - Database directory: Required, must be writable
//   - Cache directory: Optional, enables the on-disk thumbnail store if writable
//   - Image roots: Checked but not created (should be mounted)
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// # Lifecycle Logging
//
// The package provides structured logging functions for consistent output:
//   - [LogDatabaseInit]: Database initialization timing
//   - [LogEngineLoaded]: Catalog restore timing and counts
//   - [LogIndexerInit]: Indexer configuration and intervals
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated]: Graceful shutdown start
//   - [LogShutdownComplete]: Shutdown completion
//
// # Example Usage
//
//	config, err := startup.LoadConfig()
//	if err != nil {
//	    startup.LogFatal("Configuration error: %v", err)
//	}
package startup
