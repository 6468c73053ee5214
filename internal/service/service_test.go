package service

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cxd309/pitch-engine/internal/errs"
	"github.com/cxd309/pitch-engine/internal/integrator"
	"github.com/cxd309/pitch-engine/internal/search"
)

// recordedPitch is a measured softball pitch with a known calibration.
func recordedPitch() Pitch {
	return Pitch{
		ID:     "p1",
		T:      0.318,
		Alpha:  10.721,
		X0:     11.328,
		Y0:     0.599,
		Z0:     -0.058,
		V0:     36.018,
		Phi0:   1.539,
		Theta0: 3.027,
		XT:     0.432,
		YT:     1.040,
		ZT:     0.192,
	}
}

func newService(t *testing.T, cfg Config, opts ...Option) *Service {
	t.Helper()
	s, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestCalibrateRecordedPitch(t *testing.T) {
	s := newService(t, DefaultConfig())
	c, err := s.Calibrate(recordedPitch())
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	if math.Abs(c.Cd-0.330) > 0.02 {
		t.Errorf("c_d = %.3f, want 0.330 ± 0.02", c.Cd)
	}
	if math.Abs(c.Cl-0.250) > 0.02 {
		t.Errorf("c_l = %.3f, want 0.250 ± 0.02", c.Cl)
	}
	if c.Delta > 0.03 {
		t.Errorf("delta = %.4f, want about 0.007", c.Delta)
	}
	if !c.WithinTolerance {
		t.Errorf("delta %.4f should be within the default tolerance", c.Delta)
	}
	if len(c.Trajectory) != 100 {
		t.Errorf("trajectory has %d states, want 100", len(c.Trajectory))
	}
	if c.VelocityDelta != nil {
		t.Errorf("velocity delta set without a landing velocity")
	}
	if c.Iterations == 0 || c.Evaluations <= c.Iterations {
		t.Errorf("search counters look wrong: %d iterations, %d evaluations", c.Iterations, c.Evaluations)
	}

	// The fitted curve follows the trajectory closely at both ends.
	if d := c.FitStart.Distance(recordedPitch().Release()); d > 0.05 {
		t.Errorf("fitted start %.3f m from release", d)
	}
	if d := c.Ctrl3.Distance(c.Trajectory.Final().Position()); d > 0.05 {
		t.Errorf("fitted end %.3f m from simulated landing", d)
	}
}

func TestCalibrateIsDeterministic(t *testing.T) {
	s := newService(t, DefaultConfig())
	a, err := s.Calibrate(recordedPitch())
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Calibrate(recordedPitch())
	if err != nil {
		t.Fatal(err)
	}
	if a.Cd != b.Cd || a.Cl != b.Cl || a.Delta != b.Delta {
		t.Errorf("coefficients differ: %+v vs %+v", a, b)
	}
	if a.Ctrl1 != b.Ctrl1 || a.Ctrl2 != b.Ctrl2 || a.Ctrl3 != b.Ctrl3 {
		t.Errorf("control points differ")
	}
}

func TestCalibrateParallelSearchMatches(t *testing.T) {
	seq := newService(t, DefaultConfig())
	cfg := DefaultConfig()
	cfg.ParallelSearch = true
	par := newService(t, cfg)

	a, err := seq.Calibrate(recordedPitch())
	if err != nil {
		t.Fatal(err)
	}
	b, err := par.Calibrate(recordedPitch())
	if err != nil {
		t.Fatal(err)
	}
	if a.Cd != b.Cd || a.Cl != b.Cl || a.Delta != b.Delta {
		t.Errorf("parallel search gave c_d=%v c_l=%v, sequential c_d=%v c_l=%v", b.Cd, b.Cl, a.Cd, a.Cl)
	}
}

func TestCalibrateClampedFit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FitMode = FitClamped
	s := newService(t, cfg)
	p := recordedPitch()
	c, err := s.Calibrate(p)
	if err != nil {
		t.Fatal(err)
	}
	if c.FitStart != p.Release() {
		t.Errorf("clamped fit start = %v, want release %v", c.FitStart, p.Release())
	}
	if c.Ctrl3 != p.Landing() {
		t.Errorf("clamped fit end = %v, want landing %v", c.Ctrl3, p.Landing())
	}
}

func TestCalibrateLandingVelocity(t *testing.T) {
	s := newService(t, DefaultConfig())
	p := recordedPitch()
	vt, phi, theta := 33.0, 1.52, 3.05
	p.VT, p.PhiT, p.ThetaT = &vt, &phi, &theta

	c, err := s.Calibrate(p)
	if err != nil {
		t.Fatal(err)
	}
	if c.VelocityDelta == nil {
		t.Fatal("velocity delta not computed")
	}
	observed, _ := p.LandingVelocity()
	want := c.Trajectory.Final().Velocity().Distance(observed)
	if *c.VelocityDelta != want {
		t.Errorf("velocity delta = %v, want %v", *c.VelocityDelta, want)
	}
}

func TestCalibrateRejectsInvalidPitch(t *testing.T) {
	s := newService(t, DefaultConfig())
	tests := []struct {
		name   string
		mutate func(*Pitch)
	}{
		{"zero duration", func(p *Pitch) { p.T = 0 }},
		{"negative duration", func(p *Pitch) { p.T = -0.3 }},
		{"nan speed", func(p *Pitch) { p.V0 = math.NaN() }},
		{"infinite landing", func(p *Pitch) { p.XT = math.Inf(1) }},
		{"nan landing speed", func(p *Pitch) { v := math.NaN(); p.VT = &v }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := recordedPitch()
			tt.mutate(&p)
			if _, err := s.Calibrate(p); !errors.Is(err, errs.ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestCalibrateLogsToleranceBreach(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	cfg := DefaultConfig()
	cfg.DeviationTolerance = 0
	s := newService(t, cfg, WithLogger(zap.New(core)))

	c, err := s.Calibrate(recordedPitch())
	if err != nil {
		t.Fatalf("tolerance breach must not be an error: %v", err)
	}
	if c.WithinTolerance {
		t.Errorf("WithinTolerance = true with zero tolerance and delta %v", c.Delta)
	}
	if n := logs.FilterLevelExact(zap.WarnLevel).Len(); n != 1 {
		t.Errorf("got %d warnings, want 1", n)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero steps", func(c *Config) { c.Steps = 0 }},
		{"unknown method", func(c *Config) { c.Method = "midpoint" }},
		{"unknown neighborhood", func(c *Config) { c.Neighborhood = "hex" }},
		{"unknown metric", func(c *Config) { c.Metric = "cosine" }},
		{"inverted cd range", func(c *Config) { c.CdMin, c.CdMax = 0.5, 0.2 }},
		{"zero step", func(c *Config) { c.ClStep = 0 }},
		{"massless ball", func(c *Config) { c.Ball.Mass = 0 }},
		{"unknown fit mode", func(c *Config) { c.FitMode = "spline" }},
		{"no half samples", func(c *Config) { c.Comparison.HalfSamples = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := New(cfg); !errors.Is(err, errs.ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"steps": 200, "method": "rk2", "neighborhood": "von-neumann", "ball": {"model": "baseball"}}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Steps != 200 || cfg.Method != integrator.NameRK2 || cfg.Neighborhood != search.NameVonNeumann {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Ball.Mass != 0.145 {
		t.Errorf("ball mass = %v, want baseball preset", cfg.Ball.Mass)
	}
	if cfg.CdMax != 0.5 || cfg.Comparison.HalfNormalization != 0.194 {
		t.Errorf("defaults lost: %+v", cfg)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func calibrated(release, c1, c2, c3 r3.Vector) CalibratedPitch {
	return CalibratedPitch{Release: release, Ctrl1: c1, Ctrl2: c2, Ctrl3: c3}
}

func TestCompareIdenticalShapes(t *testing.T) {
	s := newService(t, DefaultConfig())
	a := calibrated(
		r3.Vector{X: 11.3, Y: 0.6, Z: -0.05},
		r3.Vector{X: 7.5, Y: 0.9, Z: 0},
		r3.Vector{X: 3.8, Y: 1.1, Z: 0.1},
		r3.Vector{X: 0.4, Y: 1.0, Z: 0.2},
	)
	got := s.Compare(a, a)
	if got.Half != 1 || got.Last != 0 || got.Diff != 0 {
		t.Errorf("Compare(a, a) = %+v, want {1 0 0}", got)
	}

	// Shifting the whole polygon changes only the release distance.
	shift := r3.Vector{X: 0, Y: 0.3, Z: 0.4}
	b := calibrated(a.Release.Add(shift), a.Ctrl1.Add(shift), a.Ctrl2.Add(shift), a.Ctrl3.Add(shift))
	got = s.Compare(a, b)
	if math.Abs(got.Half-1) > 1e-12 || got.Last > 1e-12 {
		t.Errorf("translated shapes should match: %+v", got)
	}
	if math.Abs(got.Diff-0.5) > 1e-12 {
		t.Errorf("Diff = %v, want 0.5", got.Diff)
	}
}

func TestCompareDiffSameRelease(t *testing.T) {
	release := r3.Vector{X: 11.328, Y: 0.599, Z: -0.058}
	a := calibrated(release, r3.Vector{X: 8}, r3.Vector{X: 4}, r3.Vector{X: 0})
	b := calibrated(release, r3.Vector{X: 7, Y: 1}, r3.Vector{X: 3, Y: 1}, r3.Vector{X: 0, Y: 2})
	if got := CompareDiff(a, b); got != 0 {
		t.Errorf("CompareDiff = %v, want exactly 0", got)
	}
}

func TestCompareSeparatedShapes(t *testing.T) {
	s := newService(t, DefaultConfig())
	origin := r3.Vector{}
	a := calibrated(origin, r3.Vector{X: -4}, r3.Vector{X: -8}, r3.Vector{X: -12})
	// Same line but 1 m higher from the first control point on.
	b := calibrated(origin, r3.Vector{X: -4, Y: 1}, r3.Vector{X: -8, Y: 1}, r3.Vector{X: -12, Y: 1})

	if got := s.CompareLast(a, b); got != 1 {
		t.Errorf("CompareLast = %v, want 1 (capped)", got)
	}
	if got := s.CompareFirstHalf(a, b); got != 0 {
		t.Errorf("CompareFirstHalf = %v, want 0 (floored)", got)
	}

	// A small end offset scales linearly.
	c := calibrated(origin, r3.Vector{X: -4}, r3.Vector{X: -8}, r3.Vector{X: -12, Z: 0.216})
	if got := s.CompareLast(a, c); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("CompareLast = %v, want 0.5", got)
	}
	half := s.CompareFirstHalf(a, c)
	if half <= 0 || half >= 1 {
		t.Errorf("CompareFirstHalf = %v, want strictly between 0 and 1", half)
	}
}

func TestCalibratedPitchRelative(t *testing.T) {
	c := calibrated(r3.Vector{X: 1, Y: 2, Z: 3}, r3.Vector{X: 2, Y: 2, Z: 3}, r3.Vector{X: 1, Y: 4, Z: 3}, r3.Vector{X: 1, Y: 2, Z: 6})
	rel := c.Relative()
	want := []r3.Vector{{}, {X: 1}, {Y: 2}, {Z: 3}}
	for i := range want {
		if rel[i] != want[i] {
			t.Errorf("rel[%d] = %v, want %v", i, rel[i], want[i])
		}
	}
}
