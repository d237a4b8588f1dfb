package analysis

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/ironsheep/helmet-detect-mcp/internal/detection"
	"github.com/ironsheep/helmet-detect-mcp/internal/selection"
)

// Detector submits one file to the detection service.
type Detector interface {
	Detect(ctx context.Context, f detection.File) (*detection.Payload, error)
}

// Orchestrator owns the analysis state for the asset held by a
// selection.Manager.
type Orchestrator struct {
	sel    *selection.Manager
	det    Detector
	logger *slog.Logger

	mu    sync.Mutex
	state State
	// selected is the asset of the last selection this orchestrator was
	// notified of. Submit refuses an asset it has not been notified of yet.
	selected uuid.UUID
	// generation increments on every submission, selection and Close. A
	// response is applied only if its generation is still current.
	generation uint64
	done       chan struct{}
	closed     bool
}

// New creates an Idle orchestrator and subscribes it to selections on sel.
func New(sel *selection.Manager, det Detector, logger *slog.Logger) *Orchestrator {
	o := &Orchestrator{
		sel:    sel,
		det:    det,
		logger: logger.With("component", "analysis"),
	}
	sel.OnSelect(o.onSelect)
	if asset, ok := sel.Current(); ok {
		o.mu.Lock()
		if o.selected == uuid.Nil {
			o.selected = asset.ID
		}
		o.mu.Unlock()
	}
	return o
}

// Submit starts an analysis of the selected asset.
//
// It returns false without changing state when nothing is selected, when a
// submission is already in flight, when a selection is still notifying its
// listeners, or after Close. Otherwise the state becomes Submitting and the
// request runs on its own goroutine bounded by ctx.
func (o *Orchestrator) Submit(ctx context.Context) bool {
	o.mu.Lock()
	asset, reason := o.submittableLocked()
	if reason != "" {
		o.mu.Unlock()
		o.logger.Debug("submit ignored", "reason", reason)
		return false
	}

	o.generation++
	gen := o.generation
	done := make(chan struct{})
	o.done = done
	o.state = State{Status: Submitting}
	o.mu.Unlock()

	o.logger.Info("analysis submitted", "asset_id", asset.ID, "name", asset.Name, "generation", gen)

	go o.run(ctx, gen, asset, done)
	return true
}

// submittableLocked returns the asset to submit, or why there is none.
// o.mu must be held.
func (o *Orchestrator) submittableLocked() (*selection.Asset, string) {
	switch {
	case o.closed:
		return nil, "closed"
	case o.state.Status == Submitting:
		return nil, "busy"
	}
	asset, ok := o.sel.Current()
	switch {
	case !ok:
		return nil, "no asset selected"
	case asset.ID != o.selected:
		return nil, "selection pending"
	}
	return asset, ""
}

func (o *Orchestrator) run(ctx context.Context, gen uint64, asset *selection.Asset, done chan struct{}) {
	defer close(done)

	payload, err := o.det.Detect(ctx, detection.File{
		Name:        asset.Name,
		ContentType: asset.ContentType,
		Data:        asset.Data,
	})

	var result *Result
	if err == nil {
		result, err = NewResult(payload)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.generation {
		o.logger.Debug("stale response discarded", "asset_id", asset.ID, "generation", gen)
		return
	}
	o.done = nil

	if err != nil {
		o.logger.Error("analysis failed", "asset_id", asset.ID, "error", err)
		o.state = State{Status: Failed, Message: FailureMessage}
		return
	}

	o.logger.Info("analysis succeeded",
		"asset_id", asset.ID,
		"subjects_with_helmet", result.SubjectsWithHelmet,
		"confidence", result.Confidence,
	)
	o.state = State{Status: Succeeded, Result: result}
}

// onSelect resets to Idle. An in-flight request is abandoned, not cancelled.
func (o *Orchestrator) onSelect(asset *selection.Asset) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state.Status == Submitting {
		o.logger.Info("in-flight analysis abandoned", "new_asset_id", asset.ID)
	}
	o.selected = asset.ID
	o.generation++
	o.done = nil
	o.state = State{Status: Idle}
}

// State returns a snapshot of the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Metrics projects the current result. It returns false unless the state is
// Succeeded.
func (o *Orchestrator) Metrics() (DisplayMetrics, bool) {
	s := o.State()
	if s.Status != Succeeded || s.Result == nil {
		return DisplayMetrics{}, false
	}
	return Project(*s.Result), true
}

// SubmitEnabled reports whether Submit would currently be accepted.
func (o *Orchestrator) SubmitEnabled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, reason := o.submittableLocked()
	return reason == ""
}

// Wait blocks until the submission outstanding at the time of the call has
// resolved, or ctx is done. It returns immediately when nothing is in flight.
func (o *Orchestrator) Wait(ctx context.Context) error {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Analyze submits and waits for the outcome.
func (o *Orchestrator) Analyze(ctx context.Context) (State, bool) {
	if !o.Submit(ctx) {
		return o.State(), false
	}
	if err := o.Wait(ctx); err != nil {
		return o.State(), false
	}
	return o.State(), true
}

// Close abandons any in-flight request and refuses later submissions.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	o.closed = true
	o.generation++
	o.done = nil
	if o.state.Status == Submitting {
		o.state = State{Status: Idle}
	}
}
