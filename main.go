package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tagview/internal/database"
	"tagview/internal/engine"
	"tagview/internal/handlers"
	"tagview/internal/indexer"
	"tagview/internal/logging"
	"tagview/internal/media"
	"tagview/internal/memory"
	"tagview/internal/metrics"
	"tagview/internal/middleware"
	"tagview/internal/startup"

	"github.com/gorilla/mux"
)

func main() {
	startTime := time.Now()
	ctx := context.Background()

	// Configure GOMEMLIMIT from container metadata before anything allocates
	memory.ConfigureFromEnv()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Initialize database
	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.LogDatabaseInit(time.Since(dbStart))

	// Clean up expired sessions periodically
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		for range ticker.C {
			if err := db.CleanExpiredSessions(context.Background()); err != nil {
				logging.Warn("Session cleanup failed: %v", err)
			}
		}
	}()

	registerImageRoots(ctx, db, config.ImageDirs)

	// libvips accelerates thumbnailing when its shared libraries are
	// present; the pure-Go decoders cover its absence.
	if err := media.InitVips(); err != nil {
		logging.Info("libvips unavailable, thumbnails use pure-Go decoding: %v", err)
	}
	defer media.ShutdownVips()

	// Restore the catalog from the database before serving. The initial
	// scan reconciles against the filesystem in the background.
	engStart := time.Now()
	eng := engine.New(engine.Config{
		DB:            db,
		ThumbCapacity: config.ThumbCapacity,
		ThumbWorkers:  config.ThumbWorkers,
		ThumbDir:      config.ThumbnailDir,
		Generate:      media.Generate,
	})
	if err := eng.Load(ctx); err != nil {
		startup.LogFatal("Failed to load catalog: %v", err)
	}
	counts := eng.Counts()
	startup.LogEngineLoaded(counts.Total, counts.Tags, time.Since(engStart))

	// Initialize indexer
	startup.LogIndexerInit(config.RescanInterval)
	idx := indexer.New(db, config.RescanInterval)
	idx.SetOnScanComplete(func() {
		if err := eng.Reload(context.Background()); err != nil {
			logging.Error("Catalog reload after scan failed: %v", err)
		}
	})
	eng.SetScanner(idx)
	idx.Start()
	startup.LogIndexerStarted()

	// Periodic catalog/storage gauge collection
	collector := metrics.NewCollector(eng, db, 30*time.Second)
	collector.Start()

	// Initialize handlers
	h := handlers.New(eng, db, idx, config)

	// Metrics get their own listener so the scrape endpoint stays off the
	// authenticated application port
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = startMetricsServer(h, config.MetricsPort)
	}

	// Setup router
	router := setupRouter(h)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	// Apply authentication middleware
	authedRouter := h.AuthMiddleware(router)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(authedRouter)

	// Apply request metrics middleware
	measuredHandler := middleware.Metrics(middleware.DefaultMetricsConfig())(loggedHandler)

	// Apply compression middleware
	compressionConfig := middleware.DefaultCompressionConfig()
	handler := middleware.Compression(compressionConfig)(measuredHandler)

	// Create server
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, metricsSrv, idx, eng, collector)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

// registerImageRoots adds the IMAGE_DIRS roots to the watched set. Roots
// added through the API are already persisted; re-adding an environment
// root is a no-op. Images left over from roots that disappeared while the
// process was down are pruned before the catalog loads.
func registerImageRoots(ctx context.Context, db *database.Database, dirs []string) {
	for _, dir := range dirs {
		if _, err := db.AddDirectory(ctx, dir); err != nil && !errors.Is(err, database.ErrDirectoryExists) {
			logging.Warn("Failed to register image root %s: %v", dir, err)
		}
	}

	if _, err := db.PruneOutsideRoots(ctx); err != nil {
		logging.Warn("Pruning images outside watched roots failed: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes (no auth required)
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Auth routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/login", h.Login).Methods("POST")
	api.HandleFunc("/logout", h.Logout).Methods("POST")

	// Status
	api.HandleFunc("/status", h.GetStatus).Methods("GET")

	// Tag rows and tri-state filters
	api.HandleFunc("/tags", h.GetTags).Methods("GET")
	api.HandleFunc("/tags/click", h.ClickTag).Methods("POST")
	api.HandleFunc("/tags/clear", h.ClearFilters).Methods("POST")

	// Image listings and sorting
	api.HandleFunc("/images", h.ListImages).Methods("GET")
	api.HandleFunc("/sort", h.SetSort).Methods("POST")

	// Selection
	api.HandleFunc("/selection", h.GetSelection).Methods("GET")
	api.HandleFunc("/selection", h.ClearSelection).Methods("DELETE")
	api.HandleFunc("/selection/click", h.ClickImage).Methods("POST")
	api.HandleFunc("/selection/wheel", h.WheelImage).Methods("POST")
	api.HandleFunc("/selection/tags", h.ApplySelectionTags).Methods("POST")
	api.HandleFunc("/selection/tags/toggle", h.ToggleSelectionTag).Methods("POST")

	// Tag suggestions
	api.HandleFunc("/suggest", h.SuggestTags).Methods("GET")

	// Watched roots
	api.HandleFunc("/directories", h.GetDirectories).Methods("GET")
	api.HandleFunc("/directories", h.AddDirectory).Methods("POST")
	api.HandleFunc("/directories", h.RemoveDirectory).Methods("DELETE")
	api.HandleFunc("/rescan", h.TriggerRescan).Methods("POST")

	// Original files and thumbnails
	r.HandleFunc("/image/{id}", h.GetImage).Methods("GET")
	r.HandleFunc("/thumb/{id}", h.GetThumbnail).Methods("GET")
	r.HandleFunc("/thumb/{id}/retry", h.RetryThumbnail).Methods("POST")

	return r
}

// startMetricsServer serves /metrics on its own port.
func startMetricsServer(h *handlers.Handlers, port string) *http.Server {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", h.MetricsHandler())

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      metricsMux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logging.Error("Metrics server error: %v", err)
		}
	}()

	return srv
}

func handleShutdown(srv, metricsSrv *http.Server, idx *indexer.Indexer, eng *engine.Engine, collector *metrics.Collector) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping indexer")
	idx.Stop()
	startup.LogShutdownStepComplete("Indexer stopped")

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownStep("Stopping thumbnail workers")
	eng.Stop()
	startup.LogShutdownStepComplete("Thumbnail workers stopped")

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
