package detection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrRequestFailed is returned when the service cannot be reached or
	// answers with a non-success status.
	ErrRequestFailed = errors.New("detection request failed")

	// ErrInvalidResponse is returned when a success response cannot be decoded.
	ErrInvalidResponse = errors.New("invalid detection response")
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

// FieldName is the multipart field the service reads the image from.
const FieldName = "image"

// Payload is the raw detection response. Pointer fields distinguish absent
// keys from zero values.
type Payload struct {
	WearingHelmet *bool     `json:"wearing_helmet"`
	Confidence    *float64  `json:"confidence"`
	BoundingBox   []float64 `json:"bounding_box,omitempty"`
}

// File is the upload submitted to the service.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Client calls the detection service.
type Client struct {
	url       string
	healthURL string
	http      *http.Client
	logger    *slog.Logger
}

// New creates a client. A zero timeout leaves requests unbounded apart from
// the caller's context.
func New(url, healthURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		url:       url,
		healthURL: healthURL,
		http:      &http.Client{Timeout: timeout},
		logger:    logger.With("component", "detection"),
	}
}

// URL returns the detection endpoint.
func (c *Client) URL() string {
	return c.url
}

// Detect submits one file and decodes the response.
func (c *Client) Detect(ctx context.Context, f File) (*Payload, error) {
	body, contentType, err := encodeForm(f)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrRequestFailed, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	logger := c.logger.With("request_id", requestID)
	logger.Debug("submitting detection", "file", f.Name, "size", len(f.Data))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrRequestFailed, err)
	}

	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	// A JSON null decodes cleanly into the zero Payload.
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, fmt.Errorf("%w: null body", ErrInvalidResponse)
	}

	logger.Debug("detection response",
		"status", resp.StatusCode,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return &payload, nil
}

// Health probes the service health endpoint.
func (c *Client) Health(ctx context.Context) error {
	if c.healthURL == "" {
		return fmt.Errorf("%w: no health endpoint configured", ErrRequestFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.healthURL, nil)
	if err != nil {
		return fmt.Errorf("%w: create request: %v", ErrRequestFailed, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: service unhealthy: status %d", ErrRequestFailed, resp.StatusCode)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeForm builds the multipart body. multipart.Writer.CreateFormFile
// always labels the part application/octet-stream, so the part header is
// written by hand to carry the file's real content type.
func encodeForm(f File) (io.Reader, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	name := f.Name
	if name == "" {
		name = "upload"
	}
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		FieldName, quoteEscaper.Replace(name)))
	h.Set("Content-Type", contentType)

	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(f.Data); err != nil {
		return nil, "", fmt.Errorf("copy image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}

	return body, writer.FormDataContentType(), nil
}
