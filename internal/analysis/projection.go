package analysis

import (
	"fmt"
	"math"
)

// OverlayRect positions the overlay on the preview, in source-image pixels.
type OverlayRect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DisplayMetrics is the operator-facing view of a Result. It is derived on
// every call and never stored.
type DisplayMetrics struct {
	TotalSubjects         int          `json:"total_subjects"`
	SubjectsWithHelmet    int          `json:"subjects_with_helmet"`
	SubjectsWithoutHelmet int          `json:"subjects_without_helmet"`
	ComplianceRate        float64      `json:"compliance_rate"`
	Confidence            float64      `json:"confidence"`
	ConfidencePercent     float64      `json:"confidence_percent"`
	Overlay               *OverlayRect `json:"overlay,omitempty"`
}

// Project derives display metrics from r.
//
// ComplianceRate is a percentage rounded to one decimal place and is 0 when
// there are no subjects. The overlay maps the bounding box 1:1.
func Project(r Result) DisplayMetrics {
	m := DisplayMetrics{
		TotalSubjects:         r.TotalSubjects,
		SubjectsWithHelmet:    r.SubjectsWithHelmet,
		SubjectsWithoutHelmet: r.TotalSubjects - r.SubjectsWithHelmet,
		Confidence:            r.Confidence,
		ConfidencePercent:     round1(r.Confidence * 100),
	}

	if r.TotalSubjects > 0 {
		m.ComplianceRate = round1(float64(r.SubjectsWithHelmet) / float64(r.TotalSubjects) * 100)
	}

	if b := r.BoundingBox; b != nil {
		m.Overlay = &OverlayRect{
			Left:   b.X1,
			Top:    b.Y1,
			Width:  b.X2 - b.X1,
			Height: b.Y2 - b.Y1,
		}
	}

	return m
}

// Compliant reports whether every subject wears a helmet.
func (m DisplayMetrics) Compliant() bool {
	return m.TotalSubjects > 0 && m.SubjectsWithoutHelmet == 0
}

// ConfidenceLabel formats the confidence for the overlay label, e.g. "92.0%".
func (m DisplayMetrics) ConfidenceLabel() string {
	return fmt.Sprintf("%.1f%%", m.ConfidencePercent)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
