package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"github.com/anthonynsimon/bild/blend"
	"github.com/disintegration/imaging"
)

// Box is a rectangle in source-image pixels.
type Box struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Scaled returns the box multiplied by factor.
func (b Box) Scaled(factor float64) Box {
	return Box{
		Left:   b.Left * factor,
		Top:    b.Top * factor,
		Width:  b.Width * factor,
		Height: b.Height * factor,
	}
}

// Rect places the box in bounds, with the box origin at bounds.Min, and
// rounds it to integer pixels. Each edge is clamped to at most margin pixels
// outside bounds first, so the result stays proportional to the image however
// large the box is.
func (b Box) Rect(bounds image.Rectangle, margin int) image.Rectangle {
	clampX := clamper(bounds.Min.X-margin, bounds.Max.X+margin)
	clampY := clamper(bounds.Min.Y-margin, bounds.Max.Y+margin)
	x0, y0 := float64(bounds.Min.X), float64(bounds.Min.Y)
	return image.Rect(
		clampX(x0+b.Left),
		clampY(y0+b.Top),
		clampX(x0+b.Left+b.Width),
		clampY(y0+b.Top+b.Height),
	)
}

func clamper(lo, hi int) func(float64) int {
	return func(v float64) int {
		return int(math.Round(math.Max(float64(lo), math.Min(float64(hi), v))))
	}
}

// OverlayOptions controls RenderOverlay.
type OverlayOptions struct {
	// Color is the border color as "#RRGGBB".
	Color string
	// Thickness is the border width in pixels of the rendered output.
	Thickness int
	// MaxDimension fits the output inside a MaxDimension square. Zero keeps
	// the source size.
	MaxDimension int
	// Label is drawn above the box when non-empty. Supports digits, '.' and '%'.
	Label string
}

// RenderResult contains a rendered preview.
type RenderResult struct {
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	SourceWidth  int     `json:"source_width"`
	SourceHeight int     `json:"source_height"`
	Scale        float64 `json:"scale"`
	ImageBase64  string  `json:"image_base64"`
	MimeType     string  `json:"mime_type"`
}

// RenderOverlay renders img with the box outlined on top of it.
//
// The box is given in source pixels. When the output is reduced to fit
// MaxDimension the box is scaled by the same factor. A nil box renders the
// plain preview. Portions of the box outside the image are clipped.
func RenderOverlay(img image.Image, box *Box, opts OverlayOptions) (*RenderResult, error) {
	out, err := Compose(img, box, opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out.Image); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	bounds := img.Bounds()
	return &RenderResult{
		Width:        out.Image.Bounds().Dx(),
		Height:       out.Image.Bounds().Dy(),
		SourceWidth:  bounds.Dx(),
		SourceHeight: bounds.Dy(),
		Scale:        out.Scale,
		ImageBase64:  base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:     "image/png",
	}, nil
}

// Composition is an overlay rendered in memory.
type Composition struct {
	Image image.Image
	Scale float64
}

// Compose draws the overlay and returns the in-memory result, for callers
// that encode to a file rather than base64.
func Compose(img image.Image, box *Box, opts OverlayOptions) (*Composition, error) {
	if opts.MaxDimension < 0 {
		return nil, fmt.Errorf("invalid max dimension: %d", opts.MaxDimension)
	}

	base, scale := fit(img, opts.MaxDimension)
	if box == nil {
		return &Composition{Image: base, Scale: scale}, nil
	}

	if box.Width < 0 || box.Height < 0 {
		return nil, fmt.Errorf("invalid box: negative size %.1fx%.1f", box.Width, box.Height)
	}

	c, err := ParseColor(opts.Color)
	if err != nil {
		return nil, err
	}
	r, g, b := c.RGB255()
	borderColor := color.RGBA{R: r, G: g, B: b, A: 255}

	thickness := opts.Thickness
	if thickness < 1 {
		thickness = 1
	}

	bounds := base.Bounds()
	layer := image.NewRGBA(bounds)
	// An edge clamped to thickness pixels outside the frame strokes nothing visible.
	rect := box.Scaled(scale).Rect(bounds, thickness)
	visible := rect.Intersect(bounds)
	if visible.Empty() {
		return &Composition{Image: base, Scale: scale}, nil
	}
	drawBorder(layer, rect, thickness, borderColor)

	if opts.Label != "" {
		labelY := rect.Min.Y - labelHeight - 1
		if labelY < bounds.Min.Y {
			labelY = visible.Min.Y + thickness + 1
		}
		drawLabel(layer, visible.Min.X+1, labelY, opts.Label, color.RGBA{255, 255, 255, 255}, borderColor)
	}

	return &Composition{Image: blend.Normal(base, layer), Scale: scale}, nil
}

// fit shrinks img to fit within a limit x limit square. Images that already
// fit are returned unchanged with scale 1.
func fit(img image.Image, limit int) (image.Image, float64) {
	bounds := img.Bounds()
	if limit == 0 || (bounds.Dx() <= limit && bounds.Dy() <= limit) {
		return img, 1
	}

	resized := imaging.Fit(img, limit, limit, imaging.Lanczos)
	return resized, float64(resized.Bounds().Dx()) / float64(bounds.Dx())
}

// drawBorder strokes rect on img with the given thickness, growing inward.
// Only the four edge bands are filled, each clipped to img.
func drawBorder(img *image.RGBA, rect image.Rectangle, thickness int, c color.RGBA) {
	t := min(thickness, rect.Dx(), rect.Dy())
	bands := []image.Rectangle{
		image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+t),
		image.Rect(rect.Min.X, rect.Max.Y-t, rect.Max.X, rect.Max.Y),
		image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+t, rect.Max.Y),
		image.Rect(rect.Max.X-t, rect.Min.Y, rect.Max.X, rect.Max.Y),
	}

	src := image.NewUniform(c)
	for _, band := range bands {
		if band = band.Intersect(img.Bounds()); !band.Empty() {
			draw.Draw(img, band, src, image.Point{}, draw.Src)
		}
	}
}

const (
	glyphWidth  = 4
	labelHeight = 7
)

// Simple 3x5 pixel font for confidence labels.
var glyphs = map[rune][]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
	'.': {"000", "000", "000", "000", "010"},
	'%': {"101", "001", "010", "100", "101"},
}

// drawLabel draws text at (x, y) on a filled background. Unknown runes
// leave a blank cell.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	bounds := img.Bounds()
	labelWidth := len(text) * glyphWidth

	for dy := -1; dy < labelHeight-1; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			if p := (image.Point{X: x + dx, Y: y + dy}); p.In(bounds) {
				img.SetRGBA(p.X, p.Y, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += glyphWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel != '1' {
					continue
				}
				if p := (image.Point{X: cx + col, Y: y + row}); p.In(bounds) {
					img.SetRGBA(p.X, p.Y, fg)
				}
			}
		}
		cx += glyphWidth
	}
}
