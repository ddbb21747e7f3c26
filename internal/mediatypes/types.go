package mediatypes

// ImageExtensions maps file extensions to whether the decoder stack can
// thumbnail them: jpeg, png, and gif from the standard library, bmp, tiff,
// and webp via golang.org/x/image. Extensions are lowercase and include
// the leading dot.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// MimeTypes maps indexed extensions to their MIME types.
var MimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".webp": "image/webp",
}

// IsImage reports whether the extension names an indexable image file.
// The extension should be lowercase and include the leading dot (e.g., ".jpg").
func IsImage(ext string) bool {
	return ImageExtensions[ext]
}

// GetMimeType returns the MIME type for a given file extension.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}
