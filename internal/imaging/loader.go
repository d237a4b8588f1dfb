package imaging

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Decode decodes image bytes in any format registered with the image package
// (PNG, JPEG, GIF, BMP and TIFF are registered by the imaging dependency).
//
// JPEG EXIF orientation is applied so the decoded pixels match what a browser
// would display, which is the coordinate space the detection service reports
// boxes in.
//
// Returns the decoded image and the format name reported by the decoder
// ("png", "jpeg", ...).
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("failed to decode image: empty data")
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	return img, format, nil
}

// ImageInfo contains metadata about a decoded image.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the decoder format name: "png", "jpeg", "gif", ... or "unknown".
	Format string `json:"format"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether the image has an alpha (transparency) channel.
	HasAlpha bool `json:"has_alpha"`

	// SizeBytes is the size of the encoded image in bytes.
	SizeBytes int64 `json:"size_bytes"`
}

// Describe returns metadata for a decoded image.
//
// Parameters:
//   - img: The decoded image.
//   - format: The decoder format name; empty maps to "unknown".
//   - size: Size of the encoded bytes the image was decoded from.
//
// # Color Depth Detection
//
// Color depth is determined by the Go image type:
//   - *image.RGBA64, *image.NRGBA64, *image.Gray16 -> "16-bit"
//   - All other types -> "8-bit"
func Describe(img image.Image, format string, size int64) *ImageInfo {
	bounds := img.Bounds()

	if format == "" {
		format = "unknown"
	}

	hasAlpha := false
	colorDepth := "8-bit"
	switch img.(type) {
	case *image.RGBA, *image.NRGBA:
		hasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
		colorDepth = "16-bit"
	case *image.Gray16:
		colorDepth = "16-bit"
	}

	return &ImageInfo{
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		Format:     format,
		ColorDepth: colorDepth,
		HasAlpha:   hasAlpha,
		SizeBytes:  size,
	}
}

// Save writes img to path. The format follows the file extension; .png,
// .jpg, .jpeg, .gif, .bmp and .tif are supported.
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}
