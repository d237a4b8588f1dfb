package selection

import (
	"errors"
	"image"
	"sync"

	"github.com/google/uuid"

	"github.com/ironsheep/helmet-detect-mcp/internal/imaging"
)

// ErrPreviewReleased is returned when a released preview is rendered.
var ErrPreviewReleased = errors.New("preview has been released")

// Preview is a transient renderable handle for an image asset. It decodes
// the asset lazily and drops the decoded pixels when released.
type Preview struct {
	ID  uuid.UUID
	URL string

	mu        sync.Mutex
	asset     *Asset
	img       image.Image
	format    string
	released  bool
	onRelease func()
}

func newPreview(asset *Asset, onRelease func()) *Preview {
	id := uuid.New()
	return &Preview{
		ID:        id,
		URL:       "preview:" + id.String(),
		asset:     asset,
		onRelease: onRelease,
	}
}

// AssetID returns the ID of the asset this preview was derived from.
func (p *Preview) AssetID() uuid.UUID {
	return p.asset.ID
}

// Image returns the decoded preview image, decoding on first use.
func (p *Preview) Image() (image.Image, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.released {
		return nil, ErrPreviewReleased
	}
	if p.img != nil {
		return p.img, nil
	}

	img, format, err := imaging.Decode(p.asset.Data)
	if err != nil {
		return nil, err
	}
	p.img = img
	p.format = format
	return img, nil
}

// Info decodes the preview if needed and describes it.
func (p *Preview) Info() (*imaging.ImageInfo, error) {
	img, err := p.Image()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	format := p.format
	p.mu.Unlock()

	return imaging.Describe(img, format, p.asset.Size()), nil
}

// Release frees the preview. Calling Release more than once is a no-op.
func (p *Preview) Release() {
	p.mu.Lock()
	if p.released {
		p.mu.Unlock()
		return
	}
	p.released = true
	p.img = nil
	onRelease := p.onRelease
	p.mu.Unlock()

	if onRelease != nil {
		onRelease()
	}
}

// Released reports whether Release has been called.
func (p *Preview) Released() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.released
}
