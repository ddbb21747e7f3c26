package startup

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tagview/internal/workers"

	"github.com/gorilla/mux"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion == "" {
		t.Error("Expected GoVersion to be set")
	}
	if info.OS == "" {
		t.Error("Expected OS to be set")
	}
	if info.Arch == "" {
		t.Error("Expected Arch to be set")
	}

	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
		setEnv       bool
	}{
		{
			name:         "Returns default when env var not set",
			key:          "TEST_UNSET_VAR",
			defaultValue: "default",
			want:         "default",
			setEnv:       false,
		},
		{
			name:         "Returns env value when set",
			key:          "TEST_SET_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
			setEnv:       true,
		},
		{
			name:         "Returns default when env var is empty",
			key:          "TEST_EMPTY_VAR",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
			setEnv:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv(tt.key, tt.envValue)
			} else {
				os.Unsetenv(tt.key)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		want         bool
		setEnv       bool
	}{
		{name: "Unset returns default true", defaultValue: true, want: true},
		{name: "Unset returns default false", defaultValue: false, want: false},
		{name: "true", envValue: "true", want: true, setEnv: true},
		{name: "false", envValue: "false", defaultValue: true, want: false, setEnv: true},
		{name: "1", envValue: "1", want: true, setEnv: true},
		{name: "0", envValue: "0", defaultValue: true, want: false, setEnv: true},
		{name: "t", envValue: "t", want: true, setEnv: true},
		{name: "F", envValue: "F", defaultValue: true, want: false, setEnv: true},
		{name: "TRUE", envValue: "TRUE", want: true, setEnv: true},
		{name: "Invalid returns default", envValue: "not-a-bool", defaultValue: true, want: true, setEnv: true},
		{name: "yes is invalid", envValue: "yes", defaultValue: false, want: false, setEnv: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_BOOL_VAR"
			if tt.setEnv {
				t.Setenv(key, tt.envValue)
			} else {
				os.Unsetenv(key)
			}

			got := getEnvBool(key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvBool(%q, %v) = %v, want %v (env: %q)",
					key, tt.defaultValue, got, tt.want, tt.envValue)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     int
		setEnv   bool
	}{
		{name: "Unset returns default", want: 512},
		{name: "Valid value", envValue: "64", want: 64, setEnv: true},
		{name: "Zero returns default", envValue: "0", want: 512, setEnv: true},
		{name: "Negative returns default", envValue: "-5", want: 512, setEnv: true},
		{name: "Garbage returns default", envValue: "lots", want: 512, setEnv: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_INT_VAR"
			if tt.setEnv {
				t.Setenv(key, tt.envValue)
			} else {
				os.Unsetenv(key)
			}

			if got := getEnvInt(key, 512); got != tt.want {
				t.Errorf("getEnvInt(%q, 512) = %d, want %d (env: %q)", key, got, tt.want, tt.envValue)
			}
		})
	}
}

func TestParseImageDirs(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "Empty", raw: "", want: nil},
		{name: "Single root", raw: "/images", want: []string{"/images"}},
		{name: "Two roots", raw: "/a:/b", want: []string{"/a", "/b"}},
		{name: "Empty segments dropped", raw: "/a::/b:", want: []string{"/a", "/b"}},
		{name: "Whitespace trimmed", raw: " /a : /b ", want: []string{"/a", "/b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseImageDirs(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("parseImageDirs(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("parseImageDirs(%q)[%d] = %q, want %q", tt.raw, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	cacheDir := t.TempDir()
	dbDir := t.TempDir()

	t.Setenv("IMAGE_DIRS", rootA+":"+rootB)
	t.Setenv("CACHE_DIR", cacheDir)
	t.Setenv("DATABASE_DIR", dbDir)
	t.Setenv("PORT", "9999")
	t.Setenv("METRICS_PORT", "9100")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("RESCAN_INTERVAL", "5m")
	t.Setenv("THUMB_CACHE_CAPACITY", "64")
	t.Setenv("AUTH_ENABLED", "false")
	t.Setenv("LOG_HEALTH_CHECKS", "false")
	t.Setenv(workers.OverrideEnv, "3")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if len(config.ImageDirs) != 2 || config.ImageDirs[0] != rootA || config.ImageDirs[1] != rootB {
		t.Errorf("Expected image roots [%s %s], got %v", rootA, rootB, config.ImageDirs)
	}
	if config.Port != "9999" || config.MetricsPort != "9100" {
		t.Errorf("Expected ports 9999/9100, got %s/%s", config.Port, config.MetricsPort)
	}
	if config.MetricsEnabled {
		t.Error("Expected metrics disabled")
	}
	if config.AuthEnabled {
		t.Error("Expected auth disabled")
	}
	if config.LogHealthChecks {
		t.Error("Expected health check logging disabled")
	}
	if config.RescanInterval != 5*time.Minute {
		t.Errorf("Expected 5m rescan interval, got %v", config.RescanInterval)
	}
	if config.ThumbCapacity != 64 {
		t.Errorf("Expected thumb capacity 64, got %d", config.ThumbCapacity)
	}
	if config.ThumbWorkers != 3 {
		t.Errorf("Expected 3 thumbnail workers, got %d", config.ThumbWorkers)
	}

	wantDB := filepath.Join(dbDir, "tagview.db")
	if config.DatabasePath != wantDB {
		t.Errorf("Expected database path %s, got %s", wantDB, config.DatabasePath)
	}
	wantThumbs := filepath.Join(cacheDir, "thumbnails")
	if config.ThumbnailDir != wantThumbs {
		t.Errorf("Expected thumbnail dir %s, got %s", wantThumbs, config.ThumbnailDir)
	}
	if !config.ThumbnailStoreEnabled {
		t.Error("Expected thumbnail store enabled for a writable cache dir")
	}
	if _, err := os.Stat(wantThumbs); err != nil {
		t.Errorf("Expected thumbnail dir to be created: %v", err)
	}
}

func TestLoadConfigInvalidRescanInterval(t *testing.T) {
	t.Setenv("IMAGE_DIRS", "")
	t.Setenv("CACHE_DIR", t.TempDir())
	t.Setenv("DATABASE_DIR", t.TempDir())
	t.Setenv("RESCAN_INTERVAL", "whenever")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.RescanInterval != 30*time.Minute {
		t.Errorf("Expected 30m fallback, got %v", config.RescanInterval)
	}
	if len(config.ImageDirs) != 0 {
		t.Errorf("Expected no image roots, got %v", config.ImageDirs)
	}
}

func TestLoadConfigRejectsUnusableDatabaseDir(t *testing.T) {
	// A regular file where the database directory should be
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	t.Setenv("IMAGE_DIRS", "")
	t.Setenv("CACHE_DIR", t.TempDir())
	t.Setenv("DATABASE_DIR", blocker)

	if _, err := LoadConfig(); err == nil {
		t.Error("Expected an error for an unusable database directory")
	}
}

func TestEnsureDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	// Creates a missing directory
	missing := filepath.Join(tmpDir, "fresh")
	if err := ensureDirectory(missing, "test"); err != nil {
		t.Errorf("Expected missing directory to be created, got %v", err)
	}
	if info, err := os.Stat(missing); err != nil || !info.IsDir() {
		t.Errorf("Expected %s to exist as a directory", missing)
	}

	// Accepts an existing directory
	if err := ensureDirectory(missing, "test"); err != nil {
		t.Errorf("Expected existing directory to pass, got %v", err)
	}

	// Rejects a regular file
	file := filepath.Join(tmpDir, "occupied")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := ensureDirectory(file, "test"); err == nil {
		t.Error("Expected an error for a file in the directory's place")
	}
}

func TestSetupOptionalDir(t *testing.T) {
	if ok := setupOptionalDir(filepath.Join(t.TempDir(), "thumbs"), "test"); !ok {
		t.Error("Expected a creatable directory to be enabled")
	}

	// MkdirAll against a file fails, disabling the feature
	blocker := filepath.Join(t.TempDir(), "blocked")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if ok := setupOptionalDir(blocker, "test"); ok {
		t.Error("Expected a blocked directory to be disabled")
	}
}

func TestGetRoutes(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(http.ResponseWriter, *http.Request) {}).Methods("GET")
	router.HandleFunc("/api/tags", func(http.ResponseWriter, *http.Request) {}).Methods("GET").Name("tags")

	routes, err := GetRoutes(router)
	if err != nil {
		t.Fatalf("GetRoutes failed: %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("Expected 2 routes, got %d", len(routes))
	}

	byPath := make(map[string]RouteInfo)
	for _, r := range routes {
		byPath[r.Path] = r
	}
	if r, ok := byPath["/healthz"]; !ok || r.Method != "GET" {
		t.Errorf("Expected GET /healthz, got %+v", r)
	}
	if r, ok := byPath["/api/tags"]; !ok || r.Name != "tags" {
		t.Errorf("Expected named route for /api/tags, got %+v", r)
	}
}

func TestGetRouteGroup(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/tags/click", "api/tags"},
		{"/api/selection", "api/selection"},
		{"/healthz", "healthz"},
		{"/thumb/{id}", "thumb"},
		{"/", ""},
	}

	for _, tt := range tests {
		if got := getRouteGroup(tt.path); got != tt.want {
			t.Errorf("getRouteGroup(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func BenchmarkGetEnv(b *testing.B) {
	b.Setenv("BENCH_TEST_VAR", "test-value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = getEnv("BENCH_TEST_VAR", "default")
	}
}
