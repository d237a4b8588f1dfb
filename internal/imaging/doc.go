// Package imaging renders the selected image for presentation.
//
// It decodes uploaded image bytes, describes them, draws the detection
// overlay onto a preview and crops the detected subject. All operations work
// with standard Go image.Image values and a coordinate system where (0,0) is
// the top-left corner, X increases rightward and Y increases downward.
//
// # Coordinate System
//
// Boxes are expressed in source-image pixels as Left/Top/Width/Height, the
// same geometry the detection overlay uses. When a preview is rendered at a
// reduced size (see OverlayOptions.MaxDimension) boxes are scaled by the same
// factor as the image so the overlay stays on the subject.
//
// # Color Representation
//
// Colors are accepted as "#RRGGBB" hex strings and returned in multiple
// formats (hex, RGB, HSL) through ColorResult.
//
// # Output
//
// Rendered images are returned as base64-encoded PNG so they can travel in
// JSON-RPC tool results.
//
// # Thread Safety
//
// Every function is stateless and may be called concurrently. Callers must not
// mutate an image while it is being rendered.
package imaging
