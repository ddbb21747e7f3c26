package catalog

import "time"

// Image is one cataloged file with its metadata and tag set.
type Image struct {
	ID          int64
	Path        string
	DirectoryID int64
	Name        string
	Size        int64
	ModTime     time.Time
	Width       int
	Height      int
	Tags        map[string]bool
}

// Untagged reports whether the image bears no tags.
func (img *Image) Untagged() bool {
	return len(img.Tags) == 0
}

// TagNames returns the image's tags as a slice, unordered.
func (img *Image) TagNames() []string {
	names := make([]string, 0, len(img.Tags))
	for name := range img.Tags {
		names = append(names, name)
	}
	return names
}

// Catalog indexes images by identity and by path while preserving the
// canonical enumeration order of the load that produced them.
type Catalog struct {
	byID   map[int64]*Image
	byPath map[string]*Image
	order  []*Image
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		byID:   make(map[int64]*Image),
		byPath: make(map[string]*Image),
	}
}

// Replace swaps in a freshly loaded image set, preserving the given
// order. It returns the paths whose cached thumbnails went stale:
// paths that disappeared and paths whose size or mtime changed.
func (c *Catalog) Replace(images []Image) []string {
	byID := make(map[int64]*Image, len(images))
	byPath := make(map[string]*Image, len(images))
	order := make([]*Image, 0, len(images))

	for i := range images {
		img := &images[i]
		if img.Tags == nil {
			img.Tags = make(map[string]bool)
		}
		byID[img.ID] = img
		byPath[img.Path] = img
		order = append(order, img)
	}

	var stale []string
	for path, old := range c.byPath {
		cur, ok := byPath[path]
		if !ok || cur.Size != old.Size || !cur.ModTime.Equal(old.ModTime) {
			stale = append(stale, path)
		}
	}

	c.byID = byID
	c.byPath = byPath
	c.order = order
	return stale
}

// Get looks an image up by identity.
func (c *Catalog) Get(id int64) (*Image, bool) {
	img, ok := c.byID[id]
	return img, ok
}

// GetByPath looks an image up by absolute path.
func (c *Catalog) GetByPath(path string) (*Image, bool) {
	img, ok := c.byPath[path]
	return img, ok
}

// Images returns the catalog in canonical order. The slice is shared
// with the catalog and is valid until the next Replace.
func (c *Catalog) Images() []*Image {
	return c.order
}

// Len returns the number of cataloged images.
func (c *Catalog) Len() int {
	return len(c.order)
}

// Assign adds a tag to an image. It reports whether anything changed;
// unknown images and repeated assignments are no-ops.
func (c *Catalog) Assign(id int64, tag string) bool {
	img, ok := c.byID[id]
	if !ok || img.Tags[tag] {
		return false
	}
	img.Tags[tag] = true
	return true
}

// Unassign removes a tag from an image's tag set. It reports whether
// anything changed.
func (c *Catalog) Unassign(id int64, tag string) bool {
	img, ok := c.byID[id]
	if !ok || !img.Tags[tag] {
		return false
	}
	delete(img.Tags, tag)
	return true
}

// ReplaceTags swaps an image's whole tag set.
func (c *Catalog) ReplaceTags(id int64, tags []string) bool {
	img, ok := c.byID[id]
	if !ok {
		return false
	}
	img.Tags = make(map[string]bool, len(tags))
	for _, tag := range tags {
		img.Tags[tag] = true
	}
	return true
}

// SetDimensions records decoded pixel dimensions for an image.
func (c *Catalog) SetDimensions(id int64, width, height int) bool {
	img, ok := c.byID[id]
	if !ok {
		return false
	}
	img.Width = width
	img.Height = height
	return true
}

// UntaggedCount returns how many images bear no tags.
func (c *Catalog) UntaggedCount() int {
	n := 0
	for _, img := range c.order {
		if len(img.Tags) == 0 {
			n++
		}
	}
	return n
}

// AssignmentCount returns the total number of (image, tag) pairs.
func (c *Catalog) AssignmentCount() int {
	n := 0
	for _, img := range c.order {
		n += len(img.Tags)
	}
	return n
}
