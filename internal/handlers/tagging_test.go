package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestToggleTagAddsToSelectionIntegration tests toggling a tag onto the selection
func TestToggleTagAddsToSelectionIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	env := newTestEnv(t)
	env.seedImages(t, "a.jpg", "b.jpg")
	env.selectPositions(0, 1)

	body, _ := json.Marshal(ToggleTagRequest{Tag: "beach"})
	req := httptest.NewRequest(http.MethodPost, "/api/selection/tags/toggle", bytes.NewReader(body))
	w := httptest.NewRecorder()

	env.h.ToggleSelectionTag(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var response ToggleTagResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Result != "all" {
		t.Errorf("expected result all, got %q", response.Result)
	}

	// Both images now bear the tag
	for _, row := range env.eng.AllImages() {
		found := false
		for _, tag := range row.Tags {
			if tag == "beach" {
				found = true
			}
		}
		if !found {
			t.Errorf("expected %q to bear beach, tags %v", row.Name, row.Tags)
		}
	}
}

// TestToggleTagRemovesWhenAllBearItIntegration tests the second toggle removing
func TestToggleTagRemovesWhenAllBearItIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	env := newTestEnv(t)
	env.seedImages(t, "a.jpg", "b.jpg")
	env.selectPositions(0, 1)

	toggle := func() ToggleTagResponse {
		t.Helper()
		body, _ := json.Marshal(ToggleTagRequest{Tag: "beach"})
		req := httptest.NewRequest(http.MethodPost, "/api/selection/tags/toggle", bytes.NewReader(body))
		w := httptest.NewRecorder()
		env.h.ToggleSelectionTag(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("toggle failed: %d", w.Code)
		}
		var response ToggleTagResponse
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		return response
	}

	if first := toggle(); first.Result != "all" {
		t.Errorf("expected first toggle to add everywhere, got %q", first.Result)
	}
	if second := toggle(); second.Result != "none" {
		t.Errorf("expected second toggle to remove everywhere, got %q", second.Result)
	}
}

// TestToggleTagEmptySelectionIntegration tests toggling with nothing selected
func TestToggleTagEmptySelectionIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	env := newTestEnv(t)
	env.seedImages(t, "a.jpg")

	body, _ := json.Marshal(ToggleTagRequest{Tag: "beach"})
	req := httptest.NewRequest(http.MethodPost, "/api/selection/tags/toggle", bytes.NewReader(body))
	w := httptest.NewRecorder()

	env.h.ToggleSelectionTag(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

// TestToggleTagBadRequestsIntegration tests toggle input validation
func TestToggleTagBadRequestsIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"invalid JSON", "not json"},
		{"missing tag", "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/selection/tags/toggle", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			env.h.ToggleSelectionTag(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", w.Code)
			}
		})
	}
}

// TestApplySelectionTagsIntegration tests the batch add/remove endpoint
func TestApplySelectionTagsIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	env := newTestEnv(t)
	images := env.seedImages(t, "a.jpg", "b.jpg")
	env.tagImage(t, images[0].ID, "old")
	env.tagImage(t, images[1].ID, "old")
	env.selectPositions(0, 1)

	body, _ := json.Marshal(TagChangesRequest{
		Add:    []string{"beach", "sunset"},
		Remove: []string{"old"},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/selection/tags", bytes.NewReader(body))
	w := httptest.NewRecorder()

	env.h.ApplySelectionTags(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var status map[string]string
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if status["status"] != "ok" {
		t.Errorf("expected status ok, got %q", status["status"])
	}

	for _, row := range env.eng.AllImages() {
		tags := strings.Join(row.Tags, ",")
		if !strings.Contains(tags, "beach") || !strings.Contains(tags, "sunset") {
			t.Errorf("expected %q to bear beach and sunset, tags %v", row.Name, row.Tags)
		}
		if strings.Contains(tags, "old") {
			t.Errorf("expected old removed from %q, tags %v", row.Name, row.Tags)
		}
	}
}

// TestApplySelectionTagsEmptyChangesIntegration tests a no-op batch
func TestApplySelectionTagsEmptyChangesIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	env := newTestEnv(t)

	body, _ := json.Marshal(TagChangesRequest{})
	req := httptest.NewRequest(http.MethodPost, "/api/selection/tags", bytes.NewReader(body))
	w := httptest.NewRecorder()

	env.h.ApplySelectionTags(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

// TestApplySelectionTagsEmptySelectionIntegration tests a batch with nothing selected
func TestApplySelectionTagsEmptySelectionIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	env := newTestEnv(t)
	env.seedImages(t, "a.jpg")

	body, _ := json.Marshal(TagChangesRequest{Add: []string{"beach"}})
	req := httptest.NewRequest(http.MethodPost, "/api/selection/tags", bytes.NewReader(body))
	w := httptest.NewRecorder()

	env.h.ApplySelectionTags(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

// TestSuggestTagsIntegration tests the completion endpoint
func TestSuggestTagsIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	env := newTestEnv(t)
	images := env.seedImages(t, "a.jpg", "b.jpg", "c.jpg")
	env.tagImage(t, images[0].ID, "barn")
	env.tagImage(t, images[1].ID, "beach")
	env.tagImage(t, images[2].ID, "sunset")

	suggest := func(target string) []string {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
		w := httptest.NewRecorder()
		env.h.SuggestTags(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("suggest failed: %d", w.Code)
		}
		var suggestions []string
		if err := json.NewDecoder(w.Body).Decode(&suggestions); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		return suggestions
	}

	// Prefix matches ranked shortest first
	got := suggest("/api/suggest?q=b")
	if len(got) != 2 || got[0] != "barn" || got[1] != "beach" {
		t.Errorf("expected [barn beach], got %v", got)
	}

	// Limit caps the list
	if got := suggest("/api/suggest?q=b&limit=1"); len(got) != 1 {
		t.Errorf("expected 1 suggestion, got %v", got)
	}

	// No match yields an empty array, not null
	if got := suggest("/api/suggest?q=zzz"); got == nil || len(got) != 0 {
		t.Errorf("expected empty array, got %v", got)
	}
}

// TestSuggestTagsExcludesSelectionIntegration tests that tags already on the
// whole selection are not offered
func TestSuggestTagsExcludesSelectionIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	env := newTestEnv(t)
	images := env.seedImages(t, "a.jpg")
	env.tagImage(t, images[0].ID, "beach")
	env.selectPositions(0)

	req := httptest.NewRequest(http.MethodGet, "/api/suggest?q=be", http.NoBody)
	w := httptest.NewRecorder()

	env.h.SuggestTags(w, req)

	var suggestions []string
	if err := json.NewDecoder(w.Body).Decode(&suggestions); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	for _, s := range suggestions {
		if s == "beach" {
			t.Error("expected beach excluded, every selected image already bears it")
		}
	}
}
