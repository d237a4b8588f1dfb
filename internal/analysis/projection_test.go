package analysis

import "testing"

func TestProject_ComplianceRate(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		withHelmet int
		want       float64
		without    int
	}{
		{"all compliant", 1, 1, 100, 0},
		{"none compliant", 1, 0, 0, 1},
		{"one third", 3, 1, 33.3, 2},
		{"two thirds", 3, 2, 66.7, 1},
		{"half", 4, 2, 50, 2},
		{"zero subjects", 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Project(Result{TotalSubjects: tt.total, SubjectsWithHelmet: tt.withHelmet})
			if m.ComplianceRate != tt.want {
				t.Errorf("ComplianceRate: got %v, want %v", m.ComplianceRate, tt.want)
			}
			if m.SubjectsWithoutHelmet != tt.without {
				t.Errorf("SubjectsWithoutHelmet: got %d, want %d", m.SubjectsWithoutHelmet, tt.without)
			}
			if m.ComplianceRate < 0 || m.ComplianceRate > 100 {
				t.Errorf("ComplianceRate %v outside [0, 100]", m.ComplianceRate)
			}
		})
	}
}

func TestProject_Overlay(t *testing.T) {
	r := Result{
		TotalSubjects:      1,
		SubjectsWithHelmet: 1,
		Confidence:         0.92,
		BoundingBox:        &BoundingBox{X1: 10, Y1: 20, X2: 110, Y2: 220},
	}

	m := Project(r)

	want := OverlayRect{Left: 10, Top: 20, Width: 100, Height: 200}
	if m.Overlay == nil || *m.Overlay != want {
		t.Errorf("Overlay: got %+v, want %+v", m.Overlay, want)
	}
	if m.Confidence != 0.92 || m.ConfidencePercent != 92 {
		t.Errorf("confidence: got %v (%v%%)", m.Confidence, m.ConfidencePercent)
	}
	if !m.Compliant() {
		t.Error("Compliant should be true")
	}
}

func TestProject_NoBox(t *testing.T) {
	m := Project(Result{TotalSubjects: 1, Confidence: 0.3333})
	if m.Overlay != nil {
		t.Errorf("Overlay: got %+v, want nil", m.Overlay)
	}
	if m.ConfidencePercent != 33.3 {
		t.Errorf("ConfidencePercent: got %v, want 33.3", m.ConfidencePercent)
	}
	if m.Compliant() {
		t.Error("Compliant should be false")
	}
}

func TestProject_Recomputed(t *testing.T) {
	r := Result{TotalSubjects: 1, SubjectsWithHelmet: 1, BoundingBox: &BoundingBox{X2: 5, Y2: 5}}
	a := Project(r)
	b := Project(r)
	if a.Overlay == b.Overlay {
		t.Error("each projection should build its own overlay")
	}
	if *a.Overlay != *b.Overlay || a.ComplianceRate != b.ComplianceRate {
		t.Error("projection should be deterministic")
	}
}

func TestDisplayMetrics_ConfidenceLabel(t *testing.T) {
	tests := []struct {
		conf float64
		want string
	}{
		{0.92, "92.0%"},
		{0.3333, "33.3%"},
		{1, "100.0%"},
		{0, "0.0%"},
	}
	for _, tt := range tests {
		if got := Project(Result{TotalSubjects: 1, Confidence: tt.conf}).ConfidenceLabel(); got != tt.want {
			t.Errorf("ConfidenceLabel(%v): got %q, want %q", tt.conf, got, tt.want)
		}
	}
}
