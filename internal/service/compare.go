package service

import (
	"math"

	"github.com/cxd309/pitch-engine/internal/bezier"
)

// Comparison holds the tunneling metrics of two calibrated pitches.
type Comparison struct {
	Half float64 `json:"half"` // early-flight similarity in [0, 1]; 1 is identical
	Last float64 `json:"last"` // normalised end separation in [0, 1]
	Diff float64 `json:"diff"` // release point distance, metres
}

// Compare computes all three metrics.
func (s *Service) Compare(a, b CalibratedPitch) Comparison {
	return Comparison{
		Half: s.CompareFirstHalf(a, b),
		Last: s.CompareLast(a, b),
		Diff: CompareDiff(a, b),
	}
}

// CompareFirstHalf samples both release-relative curves over the first half of
// flight and scores their average separation against the half normalisation.
func (s *Service) CompareFirstHalf(a, b CalibratedPitch) float64 {
	cc := s.cfg.Comparison
	pa, pb := a.Relative(), b.Relative()
	var sum float64
	for i := 0; i < cc.HalfSamples; i++ {
		t := float64(i) / cc.SampleDivisor
		sum += bezier.Evaluate(pa, t).Distance(bezier.Evaluate(pb, t))
	}
	avg := sum / float64(cc.HalfSamples)
	return math.Max(0, 1-avg/cc.HalfNormalization)
}

// CompareLast scores the separation of the release-relative curves at t = 1.
func (s *Service) CompareLast(a, b CalibratedPitch) float64 {
	d := bezier.Evaluate(a.Relative(), 1).Distance(bezier.Evaluate(b.Relative(), 1))
	return math.Min(1, d/s.cfg.Comparison.LastNormalization)
}

// CompareDiff returns the distance between the absolute release points.
func CompareDiff(a, b CalibratedPitch) float64 {
	return a.Release.Distance(b.Release)
}
