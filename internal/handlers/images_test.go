package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"tagview/internal/engine"
	"tagview/internal/tagstore"
	"tagview/internal/thumbs"

	"github.com/gorilla/mux"
)

// thumbRequest builds a /thumb/{id} request with the mux var set.
func thumbRequest(method string, id int64, suffix string) *http.Request {
	target := "/thumb/" + strconv.FormatInt(id, 10) + suffix
	req := httptest.NewRequest(method, target, http.NoBody)
	return mux.SetURLVars(req, map[string]string{"id": strconv.FormatInt(id, 10)})
}

// TestListImagesIntegration tests the visible image listing
func TestListImagesIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	env := newTestEnv(t)
	env.seedImages(t, "a.jpg", "b.jpg", "c.jpg")

	req := httptest.NewRequest(http.MethodGet, "/api/images", http.NoBody)
	w := httptest.NewRecorder()

	env.h.ListImages(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var rows []engine.ImageRow
	if err := json.NewDecoder(w.Body).Decode(&rows); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	for _, row := range rows {
		if row.Tags == nil {
			t.Errorf("expected tags array for %q, got nil", row.Name)
		}
		if row.Selected {
			t.Errorf("expected %q unselected", row.Name)
		}
		// Listings report thumbnail state without scheduling work
		if row.ThumbState != "unknown" {
			t.Errorf("expected thumb state unknown for %q, got %q", row.Name, row.ThumbState)
		}
	}

	contentType := w.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %q", contentType)
	}
}

// TestListImagesAllIntegration tests ?all=1 bypassing the active filters
func TestListImagesAllIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	env := newTestEnv(t)
	images := env.seedImages(t, "a.jpg", "b.jpg", "c.jpg")
	env.tagImage(t, images[0].ID, "beach")

	if _, err := env.eng.ClickTag("beach", tagstore.LeftClick); err != nil {
		t.Fatalf("ClickTag failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/images", http.NoBody)
	w := httptest.NewRecorder()
	env.h.ListImages(w, req)

	var visible []engine.ImageRow
	if err := json.NewDecoder(w.Body).Decode(&visible); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(visible) != 1 {
		t.Errorf("expected 1 visible row, got %d", len(visible))
	}

	allReq := httptest.NewRequest(http.MethodGet, "/api/images?all=1", http.NoBody)
	allW := httptest.NewRecorder()
	env.h.ListImages(allW, allReq)

	var all []engine.ImageRow
	if err := json.NewDecoder(allW.Body).Decode(&all); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 rows with all=1, got %d", len(all))
	}
}

// TestSetSortIntegration tests changing the sort order
func TestSetSortIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	env := newTestEnv(t)
	env.seedImages(t, "a.jpg", "b.jpg", "c.jpg") // sizes 10, 20, 30

	body, _ := json.Marshal(SortRequest{Key: "size", Desc: true})
	req := httptest.NewRequest(http.MethodPost, "/api/sort", bytes.NewReader(body))
	w := httptest.NewRecorder()

	env.h.SetSort(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var rows []engine.ImageRow
	if err := json.NewDecoder(w.Body).Decode(&rows); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].Size != 30 || rows[2].Size != 10 {
		t.Errorf("expected sizes descending, got %d,%d,%d", rows[0].Size, rows[1].Size, rows[2].Size)
	}
}

// TestSetSortinvalidKeyIntegration tests an unknown sort key
func TestSetSortInvalidKeyIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	env := newTestEnv(t)

	body, _ := json.Marshal(SortRequest{Key: "color"})
	req := httptest.NewRequest(http.MethodPost, "/api/sort", bytes.NewReader(body))
	w := httptest.NewRecorder()

	env.h.SetSort(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

// TestGetImageIntegration tests serving the original file
func TestGetImageIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	env := newTestEnv(t)
	images := env.seedImages(t, "a.jpg")

	req := httptest.NewRequest(http.MethodGet, "/image/"+strconv.FormatInt(images[0].ID, 10), http.NoBody)
	req = mux.SetURLVars(req, map[string]string{"id": strconv.FormatInt(images[0].ID, 10)})
	w := httptest.NewRecorder()

	env.h.GetImage(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "image-bytes" {
		t.Errorf("expected original file bytes, got %q", w.Body.String())
	}
}

// TestGetImageUnknownIntegration tests unknown and malformed IDs
func TestGetImageUnknownIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/image/9999", http.NoBody)
	req = mux.SetURLVars(req, map[string]string{"id": "9999"})
	w := httptest.NewRecorder()

	env.h.GetImage(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}

	badReq := httptest.NewRequest(http.MethodGet, "/image/abc", http.NoBody)
	badReq = mux.SetURLVars(badReq, map[string]string{"id": "abc"})
	badW := httptest.NewRecorder()

	env.h.GetImage(badW, badReq)

	if badW.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", badW.Code)
	}
}

// TestGetThumbnailLifecycleIntegration tests the pending-then-ready flow
func TestGetThumbnailLifecycleIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	env := newTestEnv(t)
	images := env.seedImages(t, "a.jpg")
	id := images[0].ID

	// First request schedules generation and reports pending
	w := httptest.NewRecorder()
	env.h.GetThumbnail(w, thumbRequest(http.MethodGet, id, ""))

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d", w.Code)
	}

	var status map[string]string
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if status["status"] != "pending" {
		t.Errorf("expected status pending, got %q", status["status"])
	}

	waitFor(t, "thumbnail to become ready", func() bool {
		res, ok := env.eng.ThumbnailFor(id)
		return ok && res.State == thumbs.StateReady
	})

	// Once ready the bytes come back with caching headers
	readyW := httptest.NewRecorder()
	env.h.GetThumbnail(readyW, thumbRequest(http.MethodGet, id, ""))

	if readyW.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", readyW.Code)
	}
	if ct := readyW.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("expected Content-Type image/jpeg, got %q", ct)
	}
	if cc := readyW.Header().Get("Cache-Control"); cc != "public, max-age=86400" {
		t.Errorf("expected caching header, got %q", cc)
	}
	if readyW.Body.String() != "thumb-bytes" {
		t.Errorf("expected thumbnail bytes, got %q", readyW.Body.String())
	}
}

// TestGetThumbnailUnknownIntegration tests an unknown image ID
func TestGetThumbnailUnknownIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	env.h.GetThumbnail(w, thumbRequest(http.MethodGet, 12345, ""))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

// TestGetThumbnailFailedIntegration tests the failed state and retry
func TestGetThumbnailFailedIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	env := newTestEnvWithGenerator(t, func(path string) ([]byte, int, int, error) {
		return nil, 0, 0, errors.New("decode exploded")
	})
	images := env.seedImages(t, "a.jpg")
	id := images[0].ID

	// Schedule and wait for the failure to land
	first := httptest.NewRecorder()
	env.h.GetThumbnail(first, thumbRequest(http.MethodGet, id, ""))
	if first.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d", first.Code)
	}

	waitFor(t, "thumbnail to fail", func() bool {
		res, ok := env.eng.ThumbnailFor(id)
		return ok && res.State == thumbs.StateFailed
	})

	failedW := httptest.NewRecorder()
	env.h.GetThumbnail(failedW, thumbRequest(http.MethodGet, id, ""))

	if failedW.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", failedW.Code)
	}

	var errResp map[string]string
	if err := json.NewDecoder(failedW.Body).Decode(&errResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if errResp["error"] == "" {
		t.Error("expected a failure reason in the error field")
	}

	// Retry re-queues the work
	retryW := httptest.NewRecorder()
	env.h.RetryThumbnail(retryW, thumbRequest(http.MethodPost, id, "/retry"))

	if retryW.Code != http.StatusAccepted {
		t.Fatalf("expected status 202 from retry, got %d", retryW.Code)
	}

	waitFor(t, "retried thumbnail to fail again", func() bool {
		res, ok := env.eng.ThumbnailFor(id)
		return ok && res.State == thumbs.StateFailed
	})
}

// TestRetryThumbnailUnknownIntegration tests retrying an unknown image
func TestRetryThumbnailUnknownIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	env.h.RetryThumbnail(w, thumbRequest(http.MethodPost, 777, "/retry"))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}
