package selection

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Listener is notified after every accepted selection.
type Listener func(asset *Asset)

// Stats counts preview allocations. Released always equals Allocated - Live.
type Stats struct {
	Allocated int64 `json:"allocated"`
	Released  int64 `json:"released"`
	Live      int64 `json:"live"`
}

// Manager owns the selected asset and its preview.
//
// The zero value is not usable; construct with NewManager. Methods are safe
// for concurrent use. Selections are serialized: listeners run on the
// selecting goroutine after the manager lock has been released, but before
// the next selection begins, so they observe selections in order. A listener
// must not call Select.
type Manager struct {
	logger *slog.Logger

	// selectMu is held for a whole Select, listener calls included.
	selectMu sync.Mutex

	mu        sync.Mutex
	asset     *Asset
	preview   *Preview
	closed    bool
	listeners []Listener

	allocated atomic.Int64
	released  atomic.Int64
}

// NewManager returns an empty Manager.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{logger: logger.With("component", "selection")}
}

// OnSelect registers a listener for accepted selections.
func (m *Manager) OnSelect(fn Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Select replaces the current asset with in.
//
// Empty input is rejected without touching any state and Select returns
// false. Otherwise the previous preview is released, the asset is replaced,
// and a new preview is allocated when the asset is an image.
//
// Between the asset becoming current and the last listener returning, other
// goroutines may already see the new asset through Current while listeners
// still hold state for the previous one.
func (m *Manager) Select(in *FileInput) bool {
	if in.Empty() {
		m.logger.Debug("selection rejected", "reason", "empty input")
		return false
	}

	m.selectMu.Lock()
	defer m.selectMu.Unlock()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.logger.Debug("selection rejected", "reason", "closed")
		return false
	}

	// The old handle is released before the new one is counted, so Live
	// never exceeds 1.
	m.releaseLocked()

	asset := newAsset(in)
	m.asset = asset
	if asset.IsImage() {
		m.preview = newPreview(asset, m.countRelease)
		m.allocated.Add(1)
	}
	preview := m.preview
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	attrs := []any{
		"asset_id", asset.ID,
		"name", asset.Name,
		"content_type", asset.ContentType,
		"size", asset.Size(),
	}
	if preview != nil {
		attrs = append(attrs, "preview", preview.URL)
	}
	m.logger.Info("asset selected", attrs...)

	for _, fn := range listeners {
		fn(asset)
	}
	return true
}

// Current returns the selected asset.
func (m *Manager) Current() (*Asset, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.asset, m.asset != nil
}

// Preview returns the live preview for the current asset.
func (m *Manager) Preview() (*Preview, bool) {
	m.mu.Lock()
	p := m.preview
	m.mu.Unlock()

	if p == nil || p.Released() {
		return nil, false
	}
	return p, true
}

// ReleasePreview releases the current preview, if any. It is safe to call
// repeatedly and when no preview exists. The asset stays selected.
func (m *Manager) ReleasePreview() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked()
}

// Close tears the manager down: the preview is released, the asset dropped
// and later selections are rejected.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.asset = nil
	m.releaseLocked()
	m.mu.Unlock()

	stats := m.Stats()
	m.logger.Debug("selection closed", "allocated", stats.Allocated, "released", stats.Released)
}

// Stats returns preview allocation counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	allocated := m.allocated.Load()
	released := m.released.Load()
	return Stats{
		Allocated: allocated,
		Released:  released,
		Live:      allocated - released,
	}
}

// releaseLocked releases and drops the current preview. m.mu must be held.
func (m *Manager) releaseLocked() {
	if m.preview != nil {
		m.preview.Release()
		m.preview = nil
	}
}

func (m *Manager) countRelease() {
	m.released.Add(1)
}
