// Package mediatypes defines which files the catalog indexes and how they
// are served.
//
// It is a dependency-free foundation importable by any package without
// creating cycles: extension sets, MIME lookup, nothing else.
//
// # Extension Detection
//
// Use IsImage to decide whether a file belongs in the catalog:
//
//	ext := strings.ToLower(filepath.Ext(filename))
//	if mediatypes.IsImage(ext) {
//	    // index it
//	}
//
// # MIME Types
//
// Use GetMimeType for HTTP responses serving original files:
//
//	mimeType := mediatypes.GetMimeType(ext) // e.g., "image/jpeg"
package mediatypes
