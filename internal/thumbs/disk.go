package thumbs

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"tagview/internal/logging"
)

// diskStore persists generated thumbnails across restarts. Entries are
// named by the MD5 of the source's file:// URI, the freedesktop
// thumbnail naming scheme.
type diskStore struct {
	dir string
}

func newDiskStore(dir string) (*diskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create thumbnail directory: %w", err)
	}
	return &diskStore{dir: dir}, nil
}

// thumbPath derives the on-disk filename for a source image path.
func (s *diskStore) thumbPath(imagePath string) string {
	uri := "file://" + (&url.URL{Path: imagePath}).EscapedPath()
	sum := md5.Sum([]byte(uri))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+".jpg")
}

// load returns stored thumbnail bytes for a source path. A missing or
// empty entry reads as a miss.
func (s *diskStore) load(imagePath string) ([]byte, bool) {
	data, err := os.ReadFile(s.thumbPath(imagePath))
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}

// save writes thumbnail bytes best-effort. Failures are logged and the
// entry stays memory-only.
func (s *diskStore) save(imagePath string, data []byte) {
	path := s.thumbPath(imagePath)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		logging.Warn("Failed to write thumbnail %s: %v", path, err)
	}
}

func (s *diskStore) remove(imagePath string) {
	path := s.thumbPath(imagePath)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.Warn("Failed to remove thumbnail %s: %v", path, err)
	}
}
