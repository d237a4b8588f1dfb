// Package detection is the HTTP client for the remote helmet-detection
// service.
//
// # Wire Format
//
// A detection is one multipart/form-data POST carrying a single file field
// named "image". The service answers with a JSON object:
//
//	{
//	  "wearing_helmet": true,
//	  "confidence": 0.92,
//	  "bounding_box": [x1, y1, x2, y2]
//	}
//
// bounding_box is optional. Coordinates are pixels in the coordinate space of
// the submitted image, origin top-left.
//
// # Errors
//
// The client does not interpret the payload beyond JSON decoding; shape
// validation belongs to the caller. Failures map to two sentinels:
//
//   - ErrRequestFailed: transport error or a non-2xx status. The body is not parsed.
//   - ErrInvalidResponse: a 2xx status whose body is not a JSON object.
//
// Each submission makes exactly one attempt. There is no retry.
package detection
