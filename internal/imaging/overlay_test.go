package imaging

import (
	"image"
	"image/color"
	"math"
	"testing"
	"time"
)

// closeTo reports whether the pixel at (x, y) matches c within tol per channel.
func closeTo(img image.Image, x, y int, c color.RGBA, tol int) bool {
	r, g, b, _ := img.At(x, y).RGBA()
	diff := func(a uint32, b uint8) int {
		d := int(a>>8) - int(b)
		if d < 0 {
			return -d
		}
		return d
	}
	return diff(r, c.R) <= tol && diff(g, c.G) <= tol && diff(b, c.B) <= tol
}

var (
	white  = color.RGBA{255, 255, 255, 255}
	purple = color.RGBA{0xA8, 0x55, 0xF7, 255}
)

func TestBox_Rect(t *testing.T) {
	bounds := image.Rect(0, 0, 300, 300)

	tests := []struct {
		name   string
		box    Box
		bounds image.Rectangle
		margin int
		want   image.Rectangle
	}{
		{"inside", Box{Left: 10.4, Top: 19.6, Width: 100, Height: 200}, bounds, 0, image.Rect(10, 20, 110, 220)},
		{"offset bounds", Box{Left: 10, Top: 10, Width: 20, Height: 20}, image.Rect(5, 5, 100, 100), 0, image.Rect(15, 15, 35, 35)},
		{"clamped to margin", Box{Left: -50, Top: 250, Width: 500, Height: 100}, bounds, 2, image.Rect(-2, 250, 302, 302)},
		{"huge box", Box{Width: 1e12, Height: 1e12}, bounds, 3, image.Rect(0, 0, 303, 303)},
		{"max float", Box{Left: -math.MaxFloat64 / 2, Width: math.MaxFloat64, Height: 10}, bounds, 1, image.Rect(-1, 0, 301, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.box.Rect(tt.bounds, tt.margin); got != tt.want {
				t.Errorf("Rect: got %v, want %v", got, tt.want)
			}
		})
	}

	scaled := Box{Left: 20, Top: 40, Width: 60, Height: 80}.Scaled(0.5)
	if scaled.Left != 10 || scaled.Top != 20 || scaled.Width != 30 || scaled.Height != 40 {
		t.Errorf("Scaled: got %+v", scaled)
	}
}

func TestCompose_DrawsBorder(t *testing.T) {
	img := createInMemoryImage(100, 100, white)
	box := &Box{Left: 10, Top: 20, Width: 40, Height: 40}

	out, err := Compose(img, box, OverlayOptions{Color: "#A855F7", Thickness: 2})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if out.Scale != 1 {
		t.Errorf("Scale: got %v, want 1", out.Scale)
	}

	tests := []struct {
		name string
		x, y int
		want color.RGBA
	}{
		{"top-left corner", 10, 20, purple},
		{"second border row", 30, 21, purple},
		{"right edge", 49, 40, purple},
		{"bottom edge", 30, 59, purple},
		{"inside box", 30, 40, white},
		{"outside box", 5, 5, white},
		{"just outside right", 50, 40, white},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !closeTo(out.Image, tt.x, tt.y, tt.want, 2) {
				t.Errorf("pixel (%d,%d): got %v, want %v", tt.x, tt.y, out.Image.At(tt.x, tt.y), tt.want)
			}
		})
	}
}

func TestCompose_NoBox(t *testing.T) {
	img := createPatternImage(60, 40)

	out, err := Compose(img, nil, OverlayOptions{Color: "#A855F7", Thickness: 2})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if out.Image.Bounds().Dx() != 60 || out.Image.Bounds().Dy() != 40 {
		t.Errorf("dimensions: got %v", out.Image.Bounds())
	}
	if !closeTo(out.Image, 5, 5, color.RGBA{255, 0, 0, 255}, 0) {
		t.Errorf("plain preview should keep source pixels, got %v", out.Image.At(5, 5))
	}
}

func TestCompose_ScalesBoxWithPreview(t *testing.T) {
	img := createInMemoryImage(200, 100, white)
	box := &Box{Left: 20, Top: 20, Width: 100, Height: 40}

	out, err := Compose(img, box, OverlayOptions{Color: "#A855F7", Thickness: 1, MaxDimension: 100})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	if out.Image.Bounds().Dx() != 100 || out.Image.Bounds().Dy() != 50 {
		t.Fatalf("dimensions: got %v, want 100x50", out.Image.Bounds())
	}
	if out.Scale != 0.5 {
		t.Errorf("Scale: got %v, want 0.5", out.Scale)
	}

	// Box maps to (10,10)-(60,30) in the preview.
	if !closeTo(out.Image, 10, 10, purple, 2) {
		t.Errorf("scaled corner (10,10): got %v", out.Image.At(10, 10))
	}
	if !closeTo(out.Image, 59, 29, purple, 2) {
		t.Errorf("scaled corner (59,29): got %v", out.Image.At(59, 29))
	}
	if !closeTo(out.Image, 20, 20, white, 2) {
		t.Errorf("source corner (20,20) should be inside the scaled box, got %v", out.Image.At(20, 20))
	}
}

func TestCompose_ClipsBoxOutsideImage(t *testing.T) {
	img := createInMemoryImage(50, 50, white)
	box := &Box{Left: 30, Top: 30, Width: 100, Height: 100}

	out, err := Compose(img, box, OverlayOptions{Color: "#A855F7", Thickness: 2})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if !closeTo(out.Image, 30, 40, purple, 2) {
		t.Errorf("visible left edge should be drawn, got %v", out.Image.At(30, 40))
	}
}

func TestCompose_BoxCrossesFrame(t *testing.T) {
	img := createInMemoryImage(64, 64, white)
	box := &Box{Left: -10, Top: -10, Width: 40, Height: 40}

	out, err := Compose(img, box, OverlayOptions{Color: "#A855F7", Thickness: 2})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	tests := []struct {
		name string
		x, y int
		want color.RGBA
	}{
		{"right edge", 29, 10, purple},
		{"bottom edge", 10, 29, purple},
		{"clipped top edge", 10, 0, white},
		{"clipped left edge", 0, 10, white},
		{"inside box", 15, 15, white},
		{"outside box", 40, 40, white},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !closeTo(out.Image, tt.x, tt.y, tt.want, 2) {
				t.Errorf("pixel (%d,%d): got %v, want %v", tt.x, tt.y, out.Image.At(tt.x, tt.y), tt.want)
			}
		})
	}
}

func TestCompose_BoxOutsideImage(t *testing.T) {
	img := createInMemoryImage(64, 64, white)

	tests := []struct {
		name string
		box  Box
	}{
		{"right of image", Box{Left: 100, Top: 10, Width: 20, Height: 20}},
		{"above image", Box{Left: 10, Top: -50, Width: 20, Height: 20}},
		{"far away", Box{Left: 1e9, Top: 1e9, Width: 1e9, Height: 1e9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Compose(img, &tt.box, OverlayOptions{Color: "#A855F7", Thickness: 2, Label: "50.0%"})
			if err != nil {
				t.Fatalf("Compose failed: %v", err)
			}
			for y := 0; y < 64; y++ {
				for x := 0; x < 64; x++ {
					if !closeTo(out.Image, x, y, white, 0) {
						t.Fatalf("pixel (%d,%d) drawn: got %v", x, y, out.Image.At(x, y))
					}
				}
			}
		})
	}
}

func TestCompose_HugeBoxReturnsQuickly(t *testing.T) {
	img := createInMemoryImage(64, 64, white)
	box := &Box{Width: 200000, Height: 200000}

	done := make(chan *Composition, 1)
	go func() {
		out, err := Compose(img, box, OverlayOptions{Color: "#A855F7", Thickness: 2})
		if err != nil {
			out = nil
		}
		done <- out
	}()

	select {
	case out := <-done:
		if out == nil {
			t.Fatal("Compose failed")
		}
		if !closeTo(out.Image, 0, 30, purple, 2) || !closeTo(out.Image, 30, 30, white, 2) {
			t.Errorf("only the visible left edge should be drawn: (0,30)=%v (30,30)=%v", out.Image.At(0, 30), out.Image.At(30, 30))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Compose did not return within 2s")
	}
}

func TestCompose_Label(t *testing.T) {
	img := createInMemoryImage(100, 100, white)
	box := &Box{Left: 20, Top: 40, Width: 50, Height: 40}

	out, err := Compose(img, box, OverlayOptions{Color: "#A855F7", Thickness: 2, Label: "92%"})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	// Label background sits above the box.
	labelY := 40 - labelHeight - 1
	if !closeTo(out.Image, 20, labelY-1, purple, 2) {
		t.Errorf("label background: got %v", out.Image.At(20, labelY-1))
	}
	// Top row of '9' is lit.
	if !closeTo(out.Image, 21, labelY, white, 2) {
		t.Errorf("label glyph: got %v", out.Image.At(21, labelY))
	}
}

func TestCompose_Invalid(t *testing.T) {
	img := createInMemoryImage(50, 50, white)

	tests := []struct {
		name string
		box  *Box
		opts OverlayOptions
	}{
		{"bad color", &Box{Width: 10, Height: 10}, OverlayOptions{Color: "purple", Thickness: 1}},
		{"negative size", &Box{Width: -10, Height: 10}, OverlayOptions{Color: "#A855F7", Thickness: 1}},
		{"negative max dimension", nil, OverlayOptions{MaxDimension: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Compose(img, tt.box, tt.opts); err == nil {
				t.Error("Compose should fail")
			}
		})
	}
}

func TestRenderOverlay(t *testing.T) {
	img := createInMemoryImage(120, 80, white)
	box := &Box{Left: 10, Top: 10, Width: 20, Height: 20}

	result, err := RenderOverlay(img, box, OverlayOptions{Color: "#A855F7", Thickness: 2})
	if err != nil {
		t.Fatalf("RenderOverlay failed: %v", err)
	}

	if result.Width != 120 || result.Height != 80 {
		t.Errorf("dimensions: got %dx%d, want 120x80", result.Width, result.Height)
	}
	if result.SourceWidth != 120 || result.SourceHeight != 80 {
		t.Errorf("source dimensions: got %dx%d", result.SourceWidth, result.SourceHeight)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s", result.MimeType)
	}

	decoded := decodeResult(t, result.ImageBase64)
	if !closeTo(decoded, 10, 10, purple, 2) {
		t.Errorf("encoded border pixel: got %v", decoded.At(10, 10))
	}
}
