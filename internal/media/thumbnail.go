package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"

	"tagview/internal/logging"
	"tagview/internal/metrics"

	"github.com/disintegration/imaging"
)

const (
	// ThumbWidth and ThumbHeight bound the thumbnail box. Thumbnails
	// fit within the box preserving aspect ratio; small sources are
	// never upscaled.
	ThumbWidth  = 200
	ThumbHeight = 200

	// jpegQuality for encoded thumbnails.
	jpegQuality = 80
)

// Generate produces JPEG thumbnail bytes for the source image at path
// and reports the source dimensions from its header. It satisfies
// thumbs.Generator. libvips handles the decode when initialized;
// otherwise the pure-Go decoder stack does.
func Generate(path string) ([]byte, int, int, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, 0, 0, fmt.Errorf("file not accessible: %w", err)
	}

	format, err := SniffFormat(path)
	if err != nil {
		logging.Debug("Could not sniff %s: %v", path, err)
		format = "unknown"
	}
	metrics.ThumbnailDecodeByFormat.WithLabelValues(format).Inc()

	if expected := formatForExtension(path); expected != "" && format != "unknown" && format != expected {
		logging.Debug("Extension/content mismatch for %s: named %s, contains %s",
			path, expected, format)
	}

	if IsVipsAvailable() {
		data, w, h, err := vipsThumbnail(path)
		if err == nil {
			return data, w, h, nil
		}
		logging.Debug("vips decode failed for %s: %v, using pure-Go decoder", path, err)
	}

	img, err := loadSource(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decoding %s: %w", path, err)
	}

	// Header dimensions, not post-rotation decode bounds; the bounds are
	// only a fallback when the header probe fails.
	srcW, srcH := img.Bounds().Dx(), img.Bounds().Dy()
	if dims, err := GetImageDimensions(path); err == nil {
		srcW, srcH = dims.Width, dims.Height
	}

	thumb := imaging.Fit(img, ThumbWidth, ThumbHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, 0, 0, fmt.Errorf("encoding thumbnail for %s: %w", path, err)
	}
	return buf.Bytes(), srcW, srcH, nil
}

// loadSource decodes an image with the pure-Go stack, constraining
// oversized sources during load.
func loadSource(path string) (image.Image, error) {
	img, err := LoadImageConstrained(path, MaxImageDimension, MaxImagePixels)
	if err == nil {
		return img, nil
	}

	logging.Debug("imaging decode failed for %s: %v, trying stdlib decode", path, err)
	return decodeImageFile(path)
}

// decodeImageFile is the stdlib fallback for files the imaging path
// trips on.
func decodeImageFile(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, err
	}

	logging.Debug("Decoded %s as %s", path, format)
	return img, nil
}
