// Package main provides the entry point for the tagview engine.
//
// Tagview is a self-hosted image browsing and tagging engine. It watches
// one or more image directories, maintains an open tag vocabulary with
// tri-state filtering (inactive / whitelisted / blacklisted), tracks a
// multi-selection over the filtered view, and serves thumbnails from an
// asynchronous bounded cache. A UI binds against its HTTP API; all state
// and semantics live here.
//
// # Application Lifecycle
//
// The application follows a structured initialization sequence:
//
//  1. Memory Configuration: Sets GOMEMLIMIT from environment or container limits
//  2. Configuration Loading: Reads environment variables and validates directories
//  3. Database Initialization: Opens the SQLite catalog with WAL journaling
//  4. Component Initialization:
//     - libvips: Fast thumbnail path when the shared libraries are present
//     - Engine: Restores the catalog, tag store, and filter state from SQLite
//     - Indexer: Scans the watched roots and reconciles the catalog
//     - Metrics Collector: Gathers Prometheus metrics
//  5. HTTP Server Setup: Configures routes, middleware, and starts the server
//  6. Graceful Shutdown: Handles SIGINT/SIGTERM, stops all components cleanly
//
// # Background Services
//
// Several goroutines run throughout the application lifecycle:
//
//   - Indexer: Periodically rescans the watched roots and polls for changes
//   - Thumbnail Workers: Decode and scale images off the request path
//   - Metrics Collector: Updates Prometheus gauges every thirty seconds
//   - Session Cleanup: Removes expired authentication sessions hourly
//
// # Serving Model
//
// All catalog, tag, filter, and selection mutations are serialized behind
// one engine mutex and recompute the derived view before returning, so
// every read observes the latest mutation. Thumbnail generation is the
// only asynchronous path: requests return immediately with a pending
// state and the UI polls or re-fetches for the completed image.
package main
