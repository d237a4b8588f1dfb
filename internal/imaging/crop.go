package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// CropResult contains the cropped image data
type CropResult struct {
	X1          int    `json:"x1"`
	Y1          int    `json:"y1"`
	X2          int    `json:"x2"`
	Y2          int    `json:"y2"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Crop extracts a rectangular region from an image
func Crop(img image.Image, region image.Rectangle, scale float64) (*CropResult, error) {
	bounds := img.Bounds()

	if !region.In(bounds) {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", region, bounds)
	}
	if region.Empty() {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	cropped := imaging.Crop(img, region)

	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * scale)
		newHeight := int(float64(cropped.Bounds().Dy()) * scale)
		if newWidth < 1 || newHeight < 1 {
			return nil, fmt.Errorf("scale %.2f collapses %dx%d crop", scale, cropped.Bounds().Dx(), cropped.Bounds().Dy())
		}
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, cropped); err != nil {
		return nil, fmt.Errorf("failed to encode cropped image: %w", err)
	}

	return &CropResult{
		X1:          region.Min.X,
		Y1:          region.Min.Y,
		X2:          region.Max.X,
		Y2:          region.Max.Y,
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// CropSubject extracts the detected subject from an image.
//
// The box is grown by padding pixels on every side and clipped to the image,
// since detectors may report boxes that touch or cross the frame. It fails
// when nothing of the box lies inside the image.
func CropSubject(img image.Image, box Box, padding int, scale float64) (*CropResult, error) {
	if padding < 0 {
		return nil, fmt.Errorf("invalid padding: %d", padding)
	}

	region := box.Rect(img.Bounds(), padding).Inset(-padding).Intersect(img.Bounds())
	if region.Empty() {
		return nil, fmt.Errorf("subject box (%.0f,%.0f %.0fx%.0f) does not overlap the image", box.Left, box.Top, box.Width, box.Height)
	}

	return Crop(img, region, scale)
}
