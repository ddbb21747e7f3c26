package database

import "time"

// Directory is a watched root directory. Seq records the order roots
// were added; catalog enumeration orders images by (seq, path) so the
// listing is stable across restarts regardless of insertion history.
type Directory struct {
	ID      int64     `json:"id"`
	Path    string    `json:"path"`
	Seq     int       `json:"seq"`
	AddedAt time.Time `json:"addedAt"`
}

// Image is one catalog row. ID is the stable identity the selection
// model keys on; it never changes for a given path while the row exists.
type Image struct {
	ID          int64     `json:"id"`
	Path        string    `json:"path"`
	DirectoryID int64     `json:"directoryId"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ModTime     time.Time `json:"modTime"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
}

// Tag is a persisted tag. Names are unique case-insensitively; the row
// keeps whatever casing the tag was first created with.
type Tag struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// TagCount pairs a tag name with its total assignment count.
type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Assignment is one image-to-tag edge, used to bulk-load the in-memory
// catalog at startup and after rescans.
type Assignment struct {
	ImageID int64
	Tag     string
}

// Session is an authenticated browser session. Token is returned to the
// client once at creation; only its SHA-256 hash is stored.
type Session struct {
	ID        int64     `json:"id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}
