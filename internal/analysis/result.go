// Package analysis drives a single helmet-detection submission for the
// selected asset and projects the outcome into display metrics.
//
// # States
//
// An Orchestrator is always in exactly one of four states:
//
//	Idle ──Submit──▶ Submitting ──response──▶ Succeeded
//	  ▲                   │                      │
//	  │                   └──failure──▶ Failed   │
//	  └────────────── new selection ◀────────────┘
//
// Submit is refused while Submitting, so at most one analysis is
// outstanding. Selecting a new asset returns the orchestrator to Idle from
// any state; a response belonging to an earlier selection is discarded.
package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/ironsheep/helmet-detect-mcp/internal/detection"
)

// ErrInvalidPayload is returned when a detection response lacks required
// fields or carries out-of-range values.
var ErrInvalidPayload = errors.New("invalid detection payload")

// FailureMessage is shown to the operator for every failed submission.
const FailureMessage = "Analysis failed. Please try again."

// Status is the orchestrator state.
type Status int

const (
	Idle Status = iota
	Submitting
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText renders the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// BoundingBox is the detected subject region in source-image pixels.
// X2 >= X1 and Y2 >= Y1.
type BoundingBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Result is a validated detection outcome. It is never modified after
// construction.
type Result struct {
	TotalSubjects      int          `json:"total_subjects"`
	SubjectsWithHelmet int          `json:"subjects_with_helmet"`
	Confidence         float64      `json:"confidence"`
	BoundingBox        *BoundingBox `json:"bounding_box,omitempty"`
}

// NewResult validates a raw payload and converts it.
//
// The service reports a single subject, so TotalSubjects is always 1 and
// SubjectsWithHelmet is 1 or 0.
func NewResult(p *detection.Payload) (*Result, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidPayload)
	}
	if p.WearingHelmet == nil {
		return nil, fmt.Errorf("%w: missing wearing_helmet", ErrInvalidPayload)
	}
	if p.Confidence == nil {
		return nil, fmt.Errorf("%w: missing confidence", ErrInvalidPayload)
	}

	conf := *p.Confidence
	if math.IsNaN(conf) || conf < 0 || conf > 1 {
		return nil, fmt.Errorf("%w: confidence %v outside [0, 1]", ErrInvalidPayload, conf)
	}

	box, err := parseBox(p.BoundingBox)
	if err != nil {
		return nil, err
	}

	withHelmet := 0
	if *p.WearingHelmet {
		withHelmet = 1
	}

	return &Result{
		TotalSubjects:      1,
		SubjectsWithHelmet: withHelmet,
		Confidence:         conf,
		BoundingBox:        box,
	}, nil
}

func parseBox(v []float64) (*BoundingBox, error) {
	if len(v) == 0 {
		return nil, nil
	}
	if len(v) != 4 {
		return nil, fmt.Errorf("%w: bounding_box has %d values, want 4", ErrInvalidPayload, len(v))
	}
	for _, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: bounding_box contains non-finite value", ErrInvalidPayload)
		}
	}

	box := &BoundingBox{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}
	if box.X2 < box.X1 || box.Y2 < box.Y1 {
		return nil, fmt.Errorf("%w: bounding_box %v is inverted", ErrInvalidPayload, v)
	}
	return box, nil
}

// State is a snapshot of the orchestrator.
//
// Result is set only when Status is Succeeded; Message only when Failed.
type State struct {
	Status  Status  `json:"status"`
	Result  *Result `json:"result,omitempty"`
	Message string  `json:"message,omitempty"`
}
