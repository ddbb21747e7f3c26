package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"tagview/internal/logging"
	"tagview/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// Database manages all persistence for the tag viewer: watched roots,
// indexed images, tags and their assignments, settings, and sessions.
type Database struct {
	db      *sql.DB
	dbPath  string
	mu      sync.RWMutex
	txStart time.Time // Track transaction start time for metrics
}

// New creates a new Database instance.
// IMPORTANT: dbPath should be the full path to the database FILE (e.g., "/data/tagview.db"),
// and the parent directory must already exist and be writable.
// Use startup.LoadConfig() to ensure proper directory validation before calling this.
func New(ctx context.Context, dbPath string) (*Database, error) {
	logging.Info("Database path: %s", dbPath)

	// Diagnose potential permission issues
	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		logging.Warn("Database permission diagnostics: %v", err)
	}

	// WAL mode plus busy_timeout to prevent "database is locked" errors.
	// foreign_keys must be on for directory removal to cascade into images.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=5000&_foreign_keys=on", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Allow multiple readers - increased for better concurrency under load
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{
		db:     db,
		dbPath: dbPath,
	}

	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Database initialized successfully at %s", dbPath)
	return d, nil
}

func (d *Database) initialize(ctx context.Context) error {
	done := observeQuery("init_schema")

	schema := `
	-- Watched root directories
	CREATE TABLE IF NOT EXISTS directories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL UNIQUE,
		seq INTEGER NOT NULL,
		added_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_directories_seq ON directories(seq);

	-- Indexed images
	CREATE TABLE IF NOT EXISTS images (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL UNIQUE,
		directory_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		mod_time INTEGER NOT NULL,
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		indexed_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		last_seen INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		FOREIGN KEY (directory_id) REFERENCES directories(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_images_directory ON images(directory_id);
	CREATE INDEX IF NOT EXISTS idx_images_name ON images(name COLLATE NOCASE);
	CREATE INDEX IF NOT EXISTS idx_images_mod_time ON images(mod_time);
	CREATE INDEX IF NOT EXISTS idx_images_last_seen ON images(last_seen);

	-- Tags table
	CREATE TABLE IF NOT EXISTS tags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE COLLATE NOCASE,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_tags_name ON tags(name COLLATE NOCASE);

	-- Image-Tag relationship table
	CREATE TABLE IF NOT EXISTS image_tags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		image_id INTEGER NOT NULL,
		tag_id INTEGER NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		FOREIGN KEY (image_id) REFERENCES images(id) ON DELETE CASCADE,
		FOREIGN KEY (tag_id) REFERENCES tags(id) ON DELETE CASCADE,
		UNIQUE(image_id, tag_id)
	);

	CREATE INDEX IF NOT EXISTS idx_image_tags_image ON image_tags(image_id);
	CREATE INDEX IF NOT EXISTS idx_image_tags_tag ON image_tags(tag_id);

	-- Sessions table (password gate, no user accounts)
	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		token TEXT NOT NULL UNIQUE,
		expires_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_token ON sessions(token);
	CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);

	-- Settings table
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);
	`

	_, err := d.db.ExecContext(ctx, schema)
	if err != nil {
		done(err)
		return err
	}

	// Run migrations
	err = d.runMigrations(ctx)
	done(err)
	return err
}

// runMigrations applies database schema migrations
func (d *Database) runMigrations(ctx context.Context) error {
	// Migration 1: Add width/height columns if they don't exist.
	// Early databases predate dimension probing.
	var columnExists bool
	err := d.db.QueryRowContext(ctx, `
		SELECT COUNT(*) > 0
		FROM pragma_table_info('images')
		WHERE name='width'
	`).Scan(&columnExists)

	if err != nil {
		return fmt.Errorf("failed to check for width column: %w", err)
	}

	if !columnExists {
		logging.Info("Migrating database: adding width/height columns to images table")

		_, err = d.db.ExecContext(ctx, `
			ALTER TABLE images ADD COLUMN width INTEGER NOT NULL DEFAULT 0
		`)
		if err != nil {
			return fmt.Errorf("failed to add width column: %w", err)
		}

		_, err = d.db.ExecContext(ctx, `
			ALTER TABLE images ADD COLUMN height INTEGER NOT NULL DEFAULT 0
		`)
		if err != nil {
			return fmt.Errorf("failed to add height column: %w", err)
		}

		logging.Info("Migration complete: width/height columns added")
	}

	// Migration 2: Add last_seen column if it doesn't exist.
	// Pruning of vanished files keys off this timestamp.
	var lastSeenExists bool
	err = d.db.QueryRowContext(ctx, `
		SELECT COUNT(*) > 0
		FROM pragma_table_info('images')
		WHERE name='last_seen'
	`).Scan(&lastSeenExists)

	if err != nil {
		return fmt.Errorf("failed to check for last_seen column: %w", err)
	}

	if !lastSeenExists {
		logging.Info("Migrating database: adding last_seen column to images table")

		// SQLite doesn't allow expressions in ALTER TABLE ADD COLUMN DEFAULT
		_, err = d.db.ExecContext(ctx, `
			ALTER TABLE images ADD COLUMN last_seen INTEGER NOT NULL DEFAULT 0
		`)
		if err != nil {
			return fmt.Errorf("failed to add last_seen column: %w", err)
		}

		// Initialize last_seen from indexed_at for existing records
		_, err = d.db.ExecContext(ctx, `
			UPDATE images SET last_seen = indexed_at
		`)
		if err != nil {
			return fmt.Errorf("failed to initialize last_seen values: %w", err)
		}

		logging.Info("Migration complete: last_seen column added and initialized")
	}

	return err
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Ping verifies the database connection is still usable. The health
// endpoint calls this on every probe.
func (d *Database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return d.db.PingContext(ctx)
}

// BeginBatch starts a transaction for batch operations.
// The caller is responsible for calling EndBatch when done.
// Note: Acquires write lock only during transaction begin, not for entire duration.
func (d *Database) BeginBatch() (*sql.Tx, error) {
	// Use shorter-lived lock - only protect transaction creation
	d.mu.Lock()
	txStart := time.Now()

	// Use background context - transaction lifetime is managed by EndBatch, not a timeout.
	// The timeout context pattern doesn't work here because defer cancel() would
	// cancel the transaction immediately when this function returns.
	tx, err := d.db.BeginTx(context.Background(), nil)
	d.mu.Unlock() // Release lock immediately after transaction starts

	if err != nil {
		return nil, err
	}

	d.txStart = txStart
	return tx, nil
}

// EndBatch commits or rolls back a transaction.
func (d *Database) EndBatch(tx *sql.Tx, err error) error {
	// Record transaction duration (txStart set by BeginBatch)
	duration := time.Since(d.txStart).Seconds()

	if err != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(duration)
		rbErr := tx.Rollback()
		if rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}

	metrics.DBTransactionDuration.WithLabelValues("commit").Observe(duration)
	return tx.Commit()
}

// observeQuery starts a timer for a named operation and returns the
// completion func to call with the operation's final error.
func observeQuery(operation string) func(error) {
	start := time.Now()
	return func(err error) {
		recordQuery(operation, start, err)
	}
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// UpdateDBMetrics updates database connection and size metrics.
func (d *Database) UpdateDBMetrics() {
	stats := d.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))

	for file, path := range map[string]string{
		"main": d.dbPath,
		"wal":  d.dbPath + "-wal",
		"shm":  d.dbPath + "-shm",
	} {
		if info, err := os.Stat(path); err == nil {
			metrics.DBSizeBytes.WithLabelValues(file).Set(float64(info.Size()))
		}
	}
}

// CheckStorageHealth probes the database files for the failure modes
// seen on network mounts: vanished files, lost write permission,
// read-only remounts. Failures are counted, not fatal.
func (d *Database) CheckStorageHealth() {
	if _, err := os.Stat(d.dbPath); err != nil {
		logging.Warn("Storage health: database file check failed: %v", err)
		metrics.DBStorageErrors.WithLabelValues("main").Inc()
		return
	}

	for file, path := range map[string]string{
		"wal": d.dbPath + "-wal",
		"shm": d.dbPath + "-shm",
	} {
		info, err := os.Stat(path)
		if err != nil {
			// Absent sidecar files are normal
			continue
		}
		if info.Mode().Perm()&0o200 == 0 {
			logging.Warn("Storage health: %s file is read-only (mode %v)", file, info.Mode())
			metrics.DBStorageErrors.WithLabelValues(file).Inc()
		}
	}

	testFile := filepath.Join(filepath.Dir(d.dbPath), ".health-check")
	if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
		logging.Warn("Storage health: database directory not writable: %v", err)
		metrics.DBStorageErrors.WithLabelValues("main").Inc()
		return
	}
	_ = os.Remove(testFile)
}

// diagnoseDatabasePermissions checks database directory and file permissions
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	// Check directory permissions
	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}

	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	// Check if directory is writable by testing
	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("database directory not writable: %w", err)
	}
	_ = os.Remove(testFile) // Explicitly ignore cleanup error
	logging.Debug("Database directory is writable")

	// Check main database file
	if dbInfo, err := os.Stat(dbPath); err == nil {
		logging.Debug("Database file exists: %s (mode: %v, size: %d bytes)", dbPath, dbInfo.Mode(), dbInfo.Size())
		if dbInfo.Mode().Perm()&0o200 == 0 {
			logging.Warn("Database file is read-only! Mode: %v", dbInfo.Mode())
		}
	}

	// Check WAL file
	walPath := dbPath + "-wal"
	if walInfo, err := os.Stat(walPath); err == nil {
		logging.Debug("WAL file exists: %s (mode: %v, size: %d bytes)", walPath, walInfo.Mode(), walInfo.Size())
		if walInfo.Mode().Perm()&0o200 == 0 {
			logging.Warn("WAL file is read-only! Mode: %v - this will cause write failures", walInfo.Mode())
			// Try to fix it
			if chmodErr := os.Chmod(walPath, 0o600); chmodErr != nil {
				logging.Error("Failed to fix WAL file permissions: %v", chmodErr)
			} else {
				logging.Info("Fixed WAL file permissions")
			}
		}
	}

	// Check SHM file
	shmPath := dbPath + "-shm"
	if shmInfo, err := os.Stat(shmPath); err == nil {
		logging.Debug("SHM file exists: %s (mode: %v, size: %d bytes)", shmPath, shmInfo.Mode(), shmInfo.Size())
		if shmInfo.Mode().Perm()&0o200 == 0 {
			logging.Warn("SHM file is read-only! Mode: %v - this will cause write failures", shmInfo.Mode())
			// Try to fix it
			if chmodErr := os.Chmod(shmPath, 0o600); chmodErr != nil {
				logging.Error("Failed to fix SHM file permissions: %v", chmodErr)
			} else {
				logging.Info("Fixed SHM file permissions")
			}
		}
	}

	return nil
}
