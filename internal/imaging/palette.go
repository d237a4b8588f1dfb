package imaging

import (
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Endpoints of the compliance scale: fully compliant and fully non-compliant.
const (
	CompliantHex    = "#16A34A"
	NonCompliantHex = "#DC2626"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// ColorResult contains a color value in multiple representations.
type ColorResult struct {
	Hex string   `json:"hex"` // Hex format "#RRGGBB"
	RGB RGBColor `json:"rgb"` // RGB components
	HSL HSLColor `json:"hsl"` // HSL representation
}

// ParseColor parses a "#RRGGBB" (or "#RGB") hex string.
func ParseColor(hex string) (colorful.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return c, nil
}

// ComplianceColor maps a compliance rate in percent (0-100) onto the scale
// from NonCompliantHex (0%) to CompliantHex (100%).
//
// The blend runs through HCL space so intermediate rates pass through amber
// rather than a muddy brown. Rates outside [0,100] are clamped.
func ComplianceColor(rate float64) ColorResult {
	t := math.Max(0, math.Min(100, rate)) / 100

	bad, _ := colorful.Hex(NonCompliantHex)
	good, _ := colorful.Hex(CompliantHex)

	var c colorful.Color
	switch t {
	case 0:
		c = bad
	case 1:
		c = good
	default:
		c = bad.BlendHcl(good, t).Clamped()
	}

	return describeColor(c)
}

func describeColor(c colorful.Color) ColorResult {
	r, g, b := c.RGB255()
	h, s, l := c.Hsl()

	return ColorResult{
		Hex: fmt.Sprintf("#%02X%02X%02X", r, g, b),
		RGB: RGBColor{R: r, G: g, B: b},
		HSL: HSLColor{
			H: int(math.Round(h)) % 360,
			S: int(math.Round(s * 100)),
			L: int(math.Round(l * 100)),
		},
	}
}
