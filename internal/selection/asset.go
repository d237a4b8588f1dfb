// Package selection owns the operator's chosen file and its preview.
//
// A Manager holds at most one Asset. Selecting a new file replaces the asset
// wholesale and, for images, allocates a fresh Preview after releasing the
// previous one. Previews are scoped resources: they are released on
// replacement and on teardown, never left for the garbage collector.
package selection

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileInput is a single file reference offered for selection.
type FileInput struct {
	Name        string
	ContentType string
	Data        []byte
}

// Empty reports whether the input carries no file.
func (in *FileInput) Empty() bool {
	return in == nil || len(in.Data) == 0
}

// ReadFile reads a file from disk into a FileInput.
//
// The content type comes from the file extension and falls back to sniffing
// the first 512 bytes when the extension is unknown.
func ReadFile(path string) (*FileInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return &FileInput{
		Name:        filepath.Base(path),
		ContentType: detectContentType(path, data),
		Data:        data,
	}, nil
}

func detectContentType(path string, data []byte) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		return ct
	}
	if len(data) == 0 {
		return "application/octet-stream"
	}
	return http.DetectContentType(data)
}

// Asset is the currently selected file. Assets are never mutated after
// selection; a new selection produces a new Asset.
type Asset struct {
	ID          uuid.UUID
	Name        string
	ContentType string
	Data        []byte
}

func newAsset(in *FileInput) *Asset {
	ct := in.ContentType
	if ct == "" {
		ct = detectContentType(in.Name, in.Data)
	}
	return &Asset{
		ID:          uuid.New(),
		Name:        in.Name,
		ContentType: ct,
		Data:        in.Data,
	}
}

// IsImage reports whether the asset is classified as image/*.
func (a *Asset) IsImage() bool {
	mediaType, _, err := mime.ParseMediaType(a.ContentType)
	if err != nil {
		mediaType = strings.ToLower(a.ContentType)
	}
	return strings.HasPrefix(mediaType, "image/")
}

// Size returns the asset size in bytes.
func (a *Asset) Size() int64 {
	return int64(len(a.Data))
}
