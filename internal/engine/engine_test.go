package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"tagview/internal/database"
	"tagview/internal/selection"
	"tagview/internal/tagging"
	"tagview/internal/tagstore"
	"tagview/internal/thumbs"
	"tagview/internal/view"
)

// Integration tests for the engine facade over a real SQLite database.

func testDB(t testing.TB) *database.Database {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close test database: %v", err)
		}
	})
	return db
}

// seedCatalog registers one watched root and inserts an image per name,
// returning the rows in catalog order.
func seedCatalog(t testing.TB, db *database.Database, names ...string) []database.Image {
	t.Helper()

	root := t.TempDir()
	dir, err := db.AddDirectory(context.Background(), root)
	if err != nil {
		t.Fatalf("AddDirectory(%q) failed: %v", root, err)
	}

	mod := time.Now()
	for i, name := range names {
		insertImage(t, db, dir.ID, filepath.Join(root, name), int64((i+1)*10), mod)
	}

	images, err := db.GetImages(context.Background())
	if err != nil {
		t.Fatalf("GetImages failed: %v", err)
	}
	return images
}

func insertImage(t testing.TB, db *database.Database, dirID int64, path string, size int64, mod time.Time) {
	t.Helper()

	tx, err := db.BeginBatch()
	if err != nil {
		t.Fatalf("BeginBatch failed: %v", err)
	}
	img := &database.Image{
		Path:        path,
		DirectoryID: dirID,
		Name:        filepath.Base(path),
		Size:        size,
		ModTime:     mod,
	}
	err = db.UpsertImage(tx, img)
	if endErr := db.EndBatch(tx, err); endErr != nil {
		t.Fatalf("UpsertImage(%q) failed: %v", path, endErr)
	}
}

// newEngine builds and loads an engine with a stub thumbnail generator.
func newEngine(t testing.TB, db *database.Database) *Engine {
	t.Helper()

	e := New(Config{
		DB:            db,
		ThumbCapacity: 8,
		ThumbWorkers:  1,
		Generate: func(path string) ([]byte, int, int, error) {
			return []byte("thumb-bytes"), 640, 480, nil
		},
	})
	t.Cleanup(e.Stop)

	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return e
}

// waitFor polls until cond returns true or the deadline passes.
func waitFor(t testing.TB, what string, cond func() bool) {
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

// ---------------------------------------------------------------------------
// Loading and counts
// ---------------------------------------------------------------------------

func TestLoadPopulatesCatalog(t *testing.T) {
	db := testDB(t)
	images := seedCatalog(t, db, "a.jpg", "b.jpg", "c.jpg")
	ctx := context.Background()

	if err := db.AddImageTag(ctx, images[0].ID, "sunset"); err != nil {
		t.Fatalf("AddImageTag failed: %v", err)
	}

	e := newEngine(t, db)

	counts := e.Counts()
	if counts.Total != 3 {
		t.Errorf("Expected 3 images, got %d", counts.Total)
	}
	if counts.Visible != 3 {
		t.Errorf("Expected 3 visible with no filters, got %d", counts.Visible)
	}
	if counts.Untagged != 2 {
		t.Errorf("Expected 2 untagged, got %d", counts.Untagged)
	}
	if counts.Tags != 1 {
		t.Errorf("Expected 1 known tag, got %d", counts.Tags)
	}

	rows := e.VisibleImages()
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	for i, img := range images {
		if rows[i].ID != img.ID {
			t.Errorf("Row %d: expected id %d, got %d", i, img.ID, rows[i].ID)
		}
	}
	if len(rows[0].Tags) != 1 || rows[0].Tags[0] != "sunset" {
		t.Errorf("Expected first row tagged [sunset], got %v", rows[0].Tags)
	}
}

func TestGetStatsForCollector(t *testing.T) {
	db := testDB(t)
	images := seedCatalog(t, db, "a.jpg", "b.jpg")
	ctx := context.Background()

	if err := db.AddImageTag(ctx, images[0].ID, "x"); err != nil {
		t.Fatalf("AddImageTag failed: %v", err)
	}
	if err := db.AddImageTag(ctx, images[1].ID, "x"); err != nil {
		t.Fatalf("AddImageTag failed: %v", err)
	}

	e := newEngine(t, db)

	stats := e.GetStats()
	if stats.Images != 2 || stats.Directories != 1 || stats.Tags != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
	if stats.Assignments != 2 {
		t.Errorf("Expected 2 assignments, got %d", stats.Assignments)
	}
	if stats.Untagged != 0 {
		t.Errorf("Expected 0 untagged, got %d", stats.Untagged)
	}
}

// ---------------------------------------------------------------------------
// Filters and the view
// ---------------------------------------------------------------------------

func TestClickTagFiltersView(t *testing.T) {
	db := testDB(t)
	images := seedCatalog(t, db, "a.jpg", "b.jpg", "c.jpg")
	ctx := context.Background()

	if err := db.AddImageTag(ctx, images[0].ID, "keep"); err != nil {
		t.Fatalf("AddImageTag failed: %v", err)
	}

	e := newEngine(t, db)

	state, err := e.ClickTag("keep", tagstore.LeftClick)
	if err != nil {
		t.Fatalf("ClickTag failed: %v", err)
	}
	if state != tagstore.Whitelisted {
		t.Errorf("Expected whitelisted, got %s", state)
	}

	rows := e.VisibleImages()
	if len(rows) != 1 || rows[0].ID != images[0].ID {
		t.Errorf("Expected only the tagged image visible, got %d rows", len(rows))
	}

	// Tag names match case-insensitively.
	if _, err := e.ClickTag("KEEP", tagstore.LeftClick); err != nil {
		t.Fatalf("Case-variant ClickTag failed: %v", err)
	}
	if got := e.Counts().Visible; got != 3 {
		t.Errorf("Expected all 3 visible after deactivating, got %d", got)
	}
}

func TestClickTagUnknown(t *testing.T) {
	db := testDB(t)
	seedCatalog(t, db, "a.jpg")
	e := newEngine(t, db)

	if _, err := e.ClickTag("nope", tagstore.LeftClick); !errors.Is(err, ErrUnknownTag) {
		t.Errorf("Expected ErrUnknownTag, got %v", err)
	}
}

func TestFilterChangeRemapsSelection(t *testing.T) {
	db := testDB(t)
	images := seedCatalog(t, db, "a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg")
	ctx := context.Background()

	// Tag the images at positions 1 and 3 so a blacklist hides them.
	for _, i := range []int{1, 3} {
		if err := db.AddImageTag(ctx, images[i].ID, "skip"); err != nil {
			t.Fatalf("AddImageTag failed: %v", err)
		}
	}

	e := newEngine(t, db)

	// Select positions 0, 2, 4.
	e.ClickImage(0, selection.ModNone)
	e.ClickImage(2, selection.ModToggle)
	e.ClickImage(4, selection.ModToggle)

	if _, err := e.ClickTag("skip", tagstore.RightClick); err != nil {
		t.Fatalf("ClickTag failed: %v", err)
	}

	rows := e.VisibleImages()
	if len(rows) != 3 {
		t.Fatalf("Expected 3 visible after blacklist, got %d", len(rows))
	}

	// The surviving images stay selected under their new positions.
	want := []int64{images[0].ID, images[2].ID, images[4].ID}
	snap := e.SelectionState()
	if len(snap.IDs) != 3 {
		t.Fatalf("Expected 3 selected after remap, got %d", len(snap.IDs))
	}
	for i, id := range want {
		if snap.IDs[i] != id {
			t.Errorf("Selected[%d]: expected id %d, got %d", i, id, snap.IDs[i])
		}
		if !rows[i].Selected {
			t.Errorf("Row %d should be selected", i)
		}
	}
}

func TestUntaggedFilter(t *testing.T) {
	db := testDB(t)
	images := seedCatalog(t, db, "a.jpg", "b.jpg", "c.jpg")
	ctx := context.Background()

	if err := db.AddImageTag(ctx, images[0].ID, "x"); err != nil {
		t.Fatalf("AddImageTag failed: %v", err)
	}

	e := newEngine(t, db)

	if state := e.ClickUntagged(tagstore.LeftClick); state != tagstore.Whitelisted {
		t.Fatalf("Expected whitelisted, got %s", state)
	}
	rows := e.VisibleImages()
	if len(rows) != 2 {
		t.Errorf("Expected 2 untagged visible, got %d", len(rows))
	}

	e.ClickUntagged(tagstore.LeftClick) // back to inactive
	e.ClickUntagged(tagstore.RightClick)
	rows = e.VisibleImages()
	if len(rows) != 1 || rows[0].ID != images[0].ID {
		t.Errorf("Expected only the tagged image visible, got %d rows", len(rows))
	}

	e.ClearFilters()
	if got := e.Counts().Visible; got != 3 {
		t.Errorf("Expected all visible after ClearFilters, got %d", got)
	}
}

func TestTagRows(t *testing.T) {
	db := testDB(t)
	images := seedCatalog(t, db, "a.jpg", "b.jpg", "c.jpg")
	ctx := context.Background()

	// a: x; b: x,y; c: untagged.
	if err := db.AddImageTag(ctx, images[0].ID, "x"); err != nil {
		t.Fatalf("AddImageTag failed: %v", err)
	}
	if err := db.AddImageTag(ctx, images[1].ID, "x"); err != nil {
		t.Fatalf("AddImageTag failed: %v", err)
	}
	if err := db.AddImageTag(ctx, images[1].ID, "y"); err != nil {
		t.Fatalf("AddImageTag failed: %v", err)
	}

	e := newEngine(t, db)

	rows := e.TagRows("name", false)
	if len(rows) != 3 {
		t.Fatalf("Expected untagged row + 2 tags, got %d rows", len(rows))
	}
	if !rows[0].Untagged {
		t.Error("Expected the untagged pseudo-row pinned first")
	}
	if rows[0].Total != 1 || rows[0].Visible != 1 {
		t.Errorf("Untagged row: expected 1/1, got %d/%d", rows[0].Total, rows[0].Visible)
	}
	if rows[1].Name != "x" || rows[1].Total != 2 {
		t.Errorf("Expected x with total 2, got %q with %d", rows[1].Name, rows[1].Total)
	}
	if rows[2].Name != "y" || rows[2].Total != 1 {
		t.Errorf("Expected y with total 1, got %q with %d", rows[2].Name, rows[2].Total)
	}

	// Whitelisting x leaves y's total alone but changes its visible count.
	if _, err := e.ClickTag("x", tagstore.LeftClick); err != nil {
		t.Fatalf("ClickTag failed: %v", err)
	}
	rows = e.TagRows("name", false)
	if rows[0].Visible != 0 {
		t.Errorf("Untagged visible: expected 0, got %d", rows[0].Visible)
	}
	if rows[1].State != "whitelisted" {
		t.Errorf("Expected x whitelisted, got %s", rows[1].State)
	}
	if rows[2].Visible != 1 || rows[2].Total != 1 {
		t.Errorf("y row: expected visible 1 total 1, got %d/%d", rows[2].Visible, rows[2].Total)
	}

	// Count sort, descending, keeps the untagged row pinned.
	rows = e.TagRows("count", true)
	if !rows[0].Untagged {
		t.Error("Expected untagged row pinned first under count sort")
	}
	if rows[1].Name != "x" || rows[2].Name != "y" {
		t.Errorf("Expected x before y by count desc, got %q, %q", rows[1].Name, rows[2].Name)
	}
}

// ---------------------------------------------------------------------------
// Sorting
// ---------------------------------------------------------------------------

func TestSetSortReordersView(t *testing.T) {
	db := testDB(t)
	images := seedCatalog(t, db, "a.jpg", "b.jpg", "c.jpg")
	e := newEngine(t, db)

	if err := e.SetSort(context.Background(), "size", true); err != nil {
		t.Fatalf("SetSort failed: %v", err)
	}

	rows := e.VisibleImages()
	// Seed sizes ascend with position, so size desc reverses the order.
	if rows[0].ID != images[2].ID || rows[2].ID != images[0].ID {
		t.Errorf("Expected size-descending order, got %v", []int64{rows[0].ID, rows[1].ID, rows[2].ID})
	}

	if err := e.SetSort(context.Background(), "bogus", false); err == nil {
		t.Error("Expected error for unknown sort key")
	}
}

func TestSortPreferencePersists(t *testing.T) {
	db := testDB(t)
	seedCatalog(t, db, "a.jpg", "b.jpg")

	e1 := newEngine(t, db)
	if err := e1.SetSort(context.Background(), "mtime", true); err != nil {
		t.Fatalf("SetSort failed: %v", err)
	}
	e1.Stop()

	e2 := newEngine(t, db)
	key, desc := e2.Sort()
	if key != view.SortByMTime || !desc {
		t.Errorf("Expected mtime/desc restored, got %s/%v", key, desc)
	}
}

// ---------------------------------------------------------------------------
// Selection
// ---------------------------------------------------------------------------

func TestSelectionThroughEngine(t *testing.T) {
	db := testDB(t)
	images := seedCatalog(t, db, "a.jpg", "b.jpg", "c.jpg")
	e := newEngine(t, db)

	snap := e.ClickImage(0, selection.ModNone)
	if snap.Count != 1 || snap.IDs[0] != images[0].ID {
		t.Fatalf("Expected single selection of first image, got %+v", snap)
	}
	if snap.Current == nil || *snap.Current != images[0].ID {
		t.Error("Expected current set to the clicked image")
	}

	snap = e.ClickImage(2, selection.ModRange)
	if snap.Count != 3 {
		t.Errorf("Expected range of 3, got %d", snap.Count)
	}

	// Current sits at the last position, so the wheel wraps to the first
	// and collapses the selection.
	snap = e.WheelImage(1)
	if snap.Count != 1 || snap.IDs[0] != images[0].ID {
		t.Errorf("Expected wheel wrap to first image, got %+v", snap)
	}

	snap = e.WheelImage(-1)
	if snap.Count != 1 || snap.IDs[0] != images[2].ID {
		t.Errorf("Expected wheel wrap back to last image, got %+v", snap)
	}

	snap = e.ClearSelection()
	if snap.Count != 0 || snap.Current != nil {
		t.Errorf("Expected empty selection after clear, got %+v", snap)
	}

	// Out-of-range clicks change nothing.
	snap = e.ClickImage(99, selection.ModNone)
	if snap.Count != 0 {
		t.Errorf("Expected out-of-range click to be a no-op, got %+v", snap)
	}
}

// ---------------------------------------------------------------------------
// Tagging the selection
// ---------------------------------------------------------------------------

func TestToggleTagAggregateCycle(t *testing.T) {
	db := testDB(t)
	images := seedCatalog(t, db, "a.jpg", "b.jpg")
	ctx := context.Background()

	// Partial: only the first image bears the tag.
	if err := db.AddImageTag(ctx, images[0].ID, "sunset"); err != nil {
		t.Fatalf("AddImageTag failed: %v", err)
	}

	e := newEngine(t, db)
	e.ClickImage(0, selection.ModNone)
	e.ClickImage(1, selection.ModToggle)

	snap := e.SelectionState()
	if snap.Tags["sunset"] != "partial" {
		t.Fatalf("Expected partial aggregate, got %q", snap.Tags["sunset"])
	}

	agg, err := e.ToggleTagForSelection(ctx, "sunset")
	if err != nil {
		t.Fatalf("ToggleTagForSelection failed: %v", err)
	}
	if agg != tagging.AggAll {
		t.Errorf("Expected all after first toggle, got %s", agg)
	}
	if got := e.SelectionState().Tags["sunset"]; got != "all" {
		t.Errorf("Expected aggregate all, got %q", got)
	}

	agg, err = e.ToggleTagForSelection(ctx, "sunset")
	if err != nil {
		t.Fatalf("Second toggle failed: %v", err)
	}
	if agg != tagging.AggNone {
		t.Errorf("Expected none after second toggle, got %s", agg)
	}

	// The removal reached the database.
	assignments, err := db.GetAssignments(ctx)
	if err != nil {
		t.Fatalf("GetAssignments failed: %v", err)
	}
	if len(assignments) != 0 {
		t.Errorf("Expected no assignments after untoggle, got %d", len(assignments))
	}

	// The tag survives as a zero-count filter entry.
	if got := e.Counts().Tags; got != 1 {
		t.Errorf("Expected tag to remain known, got %d tags", got)
	}
}

func TestToggleTagCreatesAndCanonicalizes(t *testing.T) {
	db := testDB(t)
	seedCatalog(t, db, "a.jpg")
	ctx := context.Background()

	e := newEngine(t, db)
	e.ClickImage(0, selection.ModNone)

	if _, err := e.ToggleTagForSelection(ctx, "Sunset"); err != nil {
		t.Fatalf("ToggleTagForSelection failed: %v", err)
	}

	// A case variant toggles the same tag off rather than creating another.
	agg, err := e.ToggleTagForSelection(ctx, "SUNSET")
	if err != nil {
		t.Fatalf("Case-variant toggle failed: %v", err)
	}
	if agg != tagging.AggNone {
		t.Errorf("Expected removal via case-insensitive match, got %s", agg)
	}
	if got := e.Counts().Tags; got != 1 {
		t.Errorf("Expected a single canonical tag, got %d", got)
	}
}

func TestToggleTagEmptySelection(t *testing.T) {
	db := testDB(t)
	seedCatalog(t, db, "a.jpg")
	e := newEngine(t, db)

	if _, err := e.ToggleTagForSelection(context.Background(), "x"); !errors.Is(err, ErrEmptySelection) {
		t.Errorf("Expected ErrEmptySelection, got %v", err)
	}
}

func TestApplySelectionTagChanges(t *testing.T) {
	db := testDB(t)
	images := seedCatalog(t, db, "a.jpg", "b.jpg", "c.jpg")
	ctx := context.Background()

	if err := db.AddImageTag(ctx, images[0].ID, "old"); err != nil {
		t.Fatalf("AddImageTag failed: %v", err)
	}
	if err := db.AddImageTag(ctx, images[1].ID, "old"); err != nil {
		t.Fatalf("AddImageTag failed: %v", err)
	}

	e := newEngine(t, db)
	e.ClickImage(0, selection.ModNone)
	e.ClickImage(1, selection.ModToggle)

	changes := tagging.Changes{Add: []string{"new1", "new2"}, Remove: []string{"OLD"}}
	if err := e.ApplySelectionTagChanges(ctx, changes); err != nil {
		t.Fatalf("ApplySelectionTagChanges failed: %v", err)
	}

	snap := e.SelectionState()
	if snap.Tags["new1"] != "all" || snap.Tags["new2"] != "all" {
		t.Errorf("Expected both added tags at all, got %v", snap.Tags)
	}
	if _, ok := snap.Tags["old"]; ok {
		t.Error("Expected old removed from every selected image")
	}

	// Unselected images are untouched.
	rows := e.VisibleImages()
	if len(rows[2].Tags) != 0 {
		t.Errorf("Expected third image untouched, got tags %v", rows[2].Tags)
	}

	// Empty changes are a no-op even with nothing selected.
	e.ClearSelection()
	if err := e.ApplySelectionTagChanges(ctx, tagging.Changes{}); err != nil {
		t.Errorf("Expected empty changes to be a no-op, got %v", err)
	}
	if err := e.ApplySelectionTagChanges(ctx, tagging.Changes{Add: []string{"x"}}); !errors.Is(err, ErrEmptySelection) {
		t.Errorf("Expected ErrEmptySelection, got %v", err)
	}
}

func TestSuggestTags(t *testing.T) {
	db := testDB(t)
	images := seedCatalog(t, db, "a.jpg")
	ctx := context.Background()

	for _, name := range []string{"catfish", "cat", "category", "dog"} {
		if _, err := db.GetOrCreateTag(ctx, name); err != nil {
			t.Fatalf("GetOrCreateTag(%q) failed: %v", name, err)
		}
	}

	e := newEngine(t, db)

	got := e.SuggestTags("cat", 0)
	want := []string{"cat", "catfish", "category"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Suggestion %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	// Tags borne by every selected image drop out of the suggestions.
	if err := db.AddImageTag(ctx, images[0].ID, "cat"); err != nil {
		t.Fatalf("AddImageTag failed: %v", err)
	}
	if err := e.Reload(ctx); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	e.ClickImage(0, selection.ModNone)

	got = e.SuggestTags("cat", 0)
	if len(got) != 2 || got[0] != "catfish" || got[1] != "category" {
		t.Errorf("Expected fully-assigned tag excluded, got %v", got)
	}
}

// ---------------------------------------------------------------------------
// Directories and scanning
// ---------------------------------------------------------------------------

// stubScanner records scanned roots and inserts a fixed set of files.
type stubScanner struct {
	db    *database.Database
	mu    sync.Mutex
	roots []string
	files map[string][]string
}

func (s *stubScanner) ScanRoot(ctx context.Context, dir database.Directory) error {
	s.mu.Lock()
	s.roots = append(s.roots, dir.Path)
	names := s.files[dir.Path]
	s.mu.Unlock()

	for i, name := range names {
		tx, err := s.db.BeginBatch()
		if err != nil {
			return err
		}
		img := &database.Image{
			Path:        filepath.Join(dir.Path, name),
			DirectoryID: dir.ID,
			Name:        name,
			Size:        int64(i + 1),
			ModTime:     time.Now(),
		}
		if err := s.db.EndBatch(tx, s.db.UpsertImage(tx, img)); err != nil {
			return err
		}
	}
	return nil
}

func (s *stubScanner) scanned() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.roots...)
}

func TestAddDirectoryScansAndReloads(t *testing.T) {
	db := testDB(t)
	e := newEngine(t, db)

	root := t.TempDir()
	scanner := &stubScanner{db: db, files: map[string][]string{root: {"a.jpg", "b.jpg"}}}
	e.SetScanner(scanner)

	if err := e.AddDirectory(context.Background(), root); err != nil {
		t.Fatalf("AddDirectory failed: %v", err)
	}

	if got := e.Counts().Total; got != 2 {
		t.Errorf("Expected 2 images after scan, got %d", got)
	}
	if got := scanner.scanned(); len(got) != 1 || got[0] != root {
		t.Errorf("Expected one scan of %q, got %v", root, got)
	}

	// Re-adding the same root is a rescan, not an error.
	if err := e.AddDirectory(context.Background(), root); err != nil {
		t.Fatalf("Re-adding existing root failed: %v", err)
	}
	if got := scanner.scanned(); len(got) != 2 {
		t.Errorf("Expected a second scan, got %d", len(got))
	}
	if got := e.Counts().Total; got != 2 {
		t.Errorf("Expected rescan to keep 2 images, got %d", got)
	}
}

func TestAddDirectoryRejectsBadPaths(t *testing.T) {
	db := testDB(t)
	e := newEngine(t, db)
	ctx := context.Background()

	file := filepath.Join(t.TempDir(), "not-a-dir.jpg")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := e.AddDirectory(ctx, file); !errors.Is(err, ErrNotADirectory) {
		t.Errorf("Expected ErrNotADirectory for a file, got %v", err)
	}

	if err := e.AddDirectory(ctx, filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Expected error for a missing path")
	}

	if err := e.AddDirectory(ctx, "relative/path"); err == nil {
		t.Error("Expected error for a relative path")
	}

	if err := e.AddDirectory(ctx, "   "); err == nil {
		t.Error("Expected error for a blank path")
	}
}

func TestRemoveDirectoryDropsImages(t *testing.T) {
	db := testDB(t)
	images := seedCatalog(t, db, "a.jpg", "b.jpg")
	ctx := context.Background()

	e := newEngine(t, db)
	e.ClickImage(0, selection.ModNone)

	dirs, err := e.Directories(ctx)
	if err != nil {
		t.Fatalf("Directories failed: %v", err)
	}
	if len(dirs) != 1 {
		t.Fatalf("Expected 1 watched root, got %d", len(dirs))
	}

	dropped, err := e.RemoveDirectory(ctx, dirs[0].Path)
	if err != nil {
		t.Fatalf("RemoveDirectory failed: %v", err)
	}
	if dropped != int64(len(images)) {
		t.Errorf("Expected %d dropped, got %d", len(images), dropped)
	}
	if got := e.Counts().Total; got != 0 {
		t.Errorf("Expected empty catalog, got %d", got)
	}
	if snap := e.SelectionState(); snap.Count != 0 {
		t.Errorf("Expected selection cleared with its images, got %+v", snap)
	}

	if _, err := e.RemoveDirectory(ctx, "/never/watched"); !errors.Is(err, database.ErrDirectoryNotFound) {
		t.Errorf("Expected ErrDirectoryNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Thumbnails
// ---------------------------------------------------------------------------

func TestThumbnailForPersistsDimensions(t *testing.T) {
	db := testDB(t)
	images := seedCatalog(t, db, "a.jpg")
	ctx := context.Background()

	e := newEngine(t, db)

	res, ok := e.ThumbnailFor(images[0].ID)
	if !ok {
		t.Fatal("Expected known image id")
	}
	if res.State != thumbs.StatePending {
		t.Fatalf("Expected pending on first request, got %s", res.State)
	}

	waitFor(t, "thumbnail ready", func() bool {
		r, _ := e.ThumbnailFor(images[0].ID)
		return r.State == thumbs.StateReady
	})

	res, _ = e.ThumbnailFor(images[0].ID)
	if string(res.Data) != "thumb-bytes" {
		t.Errorf("Expected generated bytes, got %q", res.Data)
	}
	if res.Width != 640 || res.Height != 480 {
		t.Errorf("Expected source dimensions 640x480, got %dx%d", res.Width, res.Height)
	}

	// The worker callback writes the dimensions through to the database.
	waitFor(t, "dimensions persisted", func() bool {
		img, err := db.GetImage(ctx, images[0].ID)
		return err == nil && img.Width == 640 && img.Height == 480
	})

	rows := e.VisibleImages()
	if rows[0].Width != 640 || rows[0].Height != 480 {
		t.Errorf("Expected catalog dimensions updated, got %dx%d", rows[0].Width, rows[0].Height)
	}
}

func TestThumbnailForUnknownImage(t *testing.T) {
	db := testDB(t)
	seedCatalog(t, db, "a.jpg")
	e := newEngine(t, db)

	if _, ok := e.ThumbnailFor(999); ok {
		t.Error("Expected false for unknown image id")
	}
	if _, ok := e.RetryThumbnail(999); ok {
		t.Error("Expected false for unknown image id")
	}
}

func TestRetryThumbnailFallsBackToRequest(t *testing.T) {
	db := testDB(t)
	images := seedCatalog(t, db, "a.jpg")

	e := newEngine(t, db)

	// Never requested: Retry schedules the initial generation.
	res, ok := e.RetryThumbnail(images[0].ID)
	if !ok {
		t.Fatal("Expected known image id")
	}
	if res.State != thumbs.StatePending {
		t.Errorf("Expected pending after retry of unknown path, got %s", res.State)
	}

	waitFor(t, "thumbnail ready", func() bool {
		r, _ := e.ThumbnailFor(images[0].ID)
		return r.State == thumbs.StateReady
	})

	if stats := e.ThumbStats(); stats.Ready != 1 {
		t.Errorf("Expected 1 ready entry, got %+v", stats)
	}
}
