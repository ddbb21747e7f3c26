package handlers

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tagview/internal/database"
	"tagview/internal/engine"
	"tagview/internal/indexer"
	"tagview/internal/selection"
	"tagview/internal/startup"
	"tagview/internal/thumbs"
)

// Integration tests for the HTTP handlers over a real SQLite database
// and a live engine with a stub thumbnail generator.

// testEnv bundles the full handler stack a test drives.
type testEnv struct {
	h   *Handlers
	db  *database.Database
	eng *engine.Engine
	idx *indexer.Indexer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithGenerator(t, func(path string) ([]byte, int, int, error) {
		return []byte("thumb-bytes"), 640, 480, nil
	})
}

func newTestEnvWithGenerator(t *testing.T, gen thumbs.Generator) *testEnv {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("failed to close test database: %v", err)
		}
	})

	eng := engine.New(engine.Config{
		DB:            db,
		ThumbCapacity: 8,
		ThumbWorkers:  1,
		Generate:      gen,
	})
	t.Cleanup(eng.Stop)
	if err := eng.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// The indexer is never Started here; tests trigger scans explicitly.
	idx := indexer.New(db, time.Hour)
	eng.SetScanner(idx)

	h := New(eng, db, idx, &startup.Config{AuthEnabled: true})
	return &testEnv{h: h, db: db, eng: eng, idx: idx}
}

// seedImages registers a watched root, writes a file per name, inserts
// the rows, and reloads the engine. Returns the rows in catalog order.
func (env *testEnv) seedImages(t *testing.T, names ...string) []database.Image {
	t.Helper()

	root := t.TempDir()
	dir, err := env.db.AddDirectory(context.Background(), root)
	if err != nil {
		t.Fatalf("AddDirectory(%q) failed: %v", root, err)
	}

	mod := time.Now()
	for i, name := range names {
		path := filepath.Join(root, name)
		if err := os.WriteFile(path, []byte("image-bytes"), 0o644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}

		tx, err := env.db.BeginBatch()
		if err != nil {
			t.Fatalf("BeginBatch failed: %v", err)
		}
		img := &database.Image{
			Path:        path,
			DirectoryID: dir.ID,
			Name:        name,
			Size:        int64((i + 1) * 10),
			ModTime:     mod,
		}
		err = env.db.UpsertImage(tx, img)
		if endErr := env.db.EndBatch(tx, err); endErr != nil {
			t.Fatalf("UpsertImage(%q) failed: %v", path, endErr)
		}
	}

	if err := env.eng.Reload(context.Background()); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	images, err := env.db.GetImages(context.Background())
	if err != nil {
		t.Fatalf("GetImages failed: %v", err)
	}
	return images
}

// tagImage assigns a tag directly in the database and reloads the engine.
func (env *testEnv) tagImage(t *testing.T, imageID int64, tag string) {
	t.Helper()

	if err := env.db.AddImageTag(context.Background(), imageID, tag); err != nil {
		t.Fatalf("AddImageTag(%d, %q) failed: %v", imageID, tag, err)
	}
	if err := env.eng.Reload(context.Background()); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
}

// selectPositions clicks the given visible positions into the selection.
func (env *testEnv) selectPositions(positions ...int) {
	for i, pos := range positions {
		mod := selection.ModToggle
		if i == 0 {
			mod = selection.ModNone
		}
		env.eng.ClickImage(pos, mod)
	}
}

// waitFor polls until cond returns true or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}
