package doccrop

import (
	"fmt"
	"math"
)

// Unit conversion: 1 in = 25.4 mm = 72 pt.
const (
	mmPerInch  = 25.4
	ptPerInch  = 72.0
	PtPerMM    = ptPerInch / mmPerInch
	twipsPerPt = 20.0
)

// MarginSpec describes the amount to remove from each page edge, in millimeters.
// The zero value removes nothing.
type MarginSpec struct {
	Top    float64 `json:"top" yaml:"top"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
	Left   float64 `json:"left" yaml:"left"`
	Right  float64 `json:"right" yaml:"right"`
}

// Points holds the four margins in PDF point units.
type Points struct {
	Top, Bottom, Left, Right float64
}

// NewMarginSpec builds a validated MarginSpec.
func NewMarginSpec(top, bottom, left, right float64) (MarginSpec, error) {
	m := MarginSpec{Top: top, Bottom: bottom, Left: left, Right: right}
	if err := m.Validate(); err != nil {
		return MarginSpec{}, err
	}
	return m, nil
}

// UniformMargins returns the same margin on all four sides.
func UniformMargins(mm float64) MarginSpec {
	return MarginSpec{Top: mm, Bottom: mm, Left: mm, Right: mm}
}

// Validate checks fields in order top, bottom, left, right and reports the first bad one.
func (m MarginSpec) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"top", m.Top},
		{"bottom", m.Bottom},
		{"left", m.Left},
		{"right", m.Right},
	}
	for _, f := range fields {
		switch {
		case math.IsNaN(f.value) || math.IsInf(f.value, 0):
			return &ValidationError{Field: f.name, Value: f.value, Reason: "not a number"}
		case f.value < 0:
			return &ValidationError{Field: f.name, Value: f.value, Reason: "negative"}
		}
	}
	return nil
}

// IsZero reports whether every margin is zero.
func (m MarginSpec) IsZero() bool {
	return m == MarginSpec{}
}

// ToPoints converts the margins to point units.
func (m MarginSpec) ToPoints() Points {
	return Points{
		Top:    m.Top * PtPerMM,
		Bottom: m.Bottom * PtPerMM,
		Left:   m.Left * PtPerMM,
		Right:  m.Right * PtPerMM,
	}
}

// MarginsFromPoints is the inverse of MarginSpec.ToPoints.
func MarginsFromPoints(p Points) MarginSpec {
	return MarginSpec{
		Top:    p.Top / PtPerMM,
		Bottom: p.Bottom / PtPerMM,
		Left:   p.Left / PtPerMM,
		Right:  p.Right / PtPerMM,
	}
}

func (m MarginSpec) String() string {
	return fmt.Sprintf("%g/%g/%g/%g mm", m.Top, m.Bottom, m.Left, m.Right)
}
