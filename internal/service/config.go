package service

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/cxd309/pitch-engine/internal/distance"
	"github.com/cxd309/pitch-engine/internal/errs"
	"github.com/cxd309/pitch-engine/internal/integrator"
	"github.com/cxd309/pitch-engine/internal/kinematics"
	"github.com/cxd309/pitch-engine/internal/search"
)

// CurveDegree is the degree of the fitted trajectory curve (four control points).
const CurveDegree = 3

// FitMode selects how the trajectory curve is fitted.
type FitMode string

const (
	// FitFree solves all four control points by least squares. The fitted
	// first and last points generally differ slightly from the release point
	// and the recorded landing point.
	FitFree FitMode = "free"
	// FitClamped pins the first control point to the release point and the
	// last to the recorded landing point, solving only the interior ones.
	FitClamped FitMode = "clamped"
)

// ComparisonConfig holds the sampling and normalisation constants of the
// tunneling comparison.
type ComparisonConfig struct {
	HalfSamples       int     `json:"half_samples"`       // samples in the first-half comparison
	SampleDivisor     float64 `json:"sample_divisor"`     // sample i is taken at t = i / SampleDivisor
	HalfNormalization float64 `json:"half_normalization"` // metres; average distance that scores 0
	LastNormalization float64 `json:"last_normalization"` // metres; end distance that scores 1
}

// Config holds the calibration and comparison constants. None of it is part of
// a pitch record.
type Config struct {
	Steps        int             `json:"steps"` // integration sub-steps N
	Method       integrator.Name `json:"method"`
	Neighborhood search.Name     `json:"neighborhood"`

	CdMin  float64 `json:"cd_min"`
	CdMax  float64 `json:"cd_max"`
	ClMin  float64 `json:"cl_min"`
	ClMax  float64 `json:"cl_max"`
	CdStep float64 `json:"cd_step"`
	ClStep float64 `json:"cl_step"`

	// Metric is the distance minimised by the coefficient search. The reported
	// deviation is always Euclidean.
	Metric distance.Name `json:"metric"`

	Ball    kinematics.Ball `json:"ball"`
	FitMode FitMode         `json:"fit_mode"`

	// DeviationTolerance is the largest deviation (metres) still considered a
	// good calibration. Exceeding it is logged, not an error.
	DeviationTolerance float64 `json:"deviation_tolerance"`

	// ParallelSearch evaluates the neighbors of each search step concurrently.
	ParallelSearch bool `json:"parallel_search"`

	Comparison ComparisonConfig `json:"comparison"`
}

// DefaultConfig returns the softball calibration setup: RK4 with 99 steps,
// Moore search over c_d ∈ [0.2, 0.5], c_l ∈ [0, 1] in 0.01 steps.
func DefaultConfig() Config {
	return Config{
		Steps:              99,
		Method:             integrator.NameRK4,
		Neighborhood:       search.NameMoore,
		CdMin:              0.2,
		CdMax:              0.5,
		ClMin:              0,
		ClMax:              1.0,
		CdStep:             search.DefaultStep,
		ClStep:             search.DefaultStep,
		Metric:             distance.NameEuclidean,
		Ball:               kinematics.Softball(),
		FitMode:            FitFree,
		DeviationTolerance: 0.05,
		Comparison: ComparisonConfig{
			HalfSamples:       50,
			SampleDivisor:     99,
			HalfNormalization: 0.194,
			LastNormalization: 0.432,
		},
	}
}

// UnmarshalJSON decodes c on top of DefaultConfig, so fields absent from the
// JSON object keep their default values.
func (c *Config) UnmarshalJSON(data []byte) error {
	type plain Config
	p := plain(DefaultConfig())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = Config(p)
	return nil
}

// LoadConfig reads a JSON config from disk. Fields absent from the file keep
// their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Bounds returns the coefficient search rectangle (x = c_d, y = c_l).
func (c Config) Bounds() search.Bounds {
	return search.Bounds{XMin: c.CdMin, XMax: c.CdMax, YMin: c.ClMin, YMax: c.ClMax}
}

// Validate rejects configurations the engine cannot run.
func (c Config) Validate() error {
	if c.Steps < 1 {
		return fmt.Errorf("%w: steps must be at least 1, got %d", errs.ErrInvalidInput, c.Steps)
	}
	if _, err := integrator.ByName(c.Method); err != nil {
		return err
	}
	if _, err := search.Directions(c.Neighborhood); err != nil {
		return err
	}
	if _, err := distance.ByName(c.Metric); err != nil {
		return err
	}
	if !finite(c.CdMin, c.CdMax, c.ClMin, c.ClMax) || c.CdMin > c.CdMax || c.ClMin > c.ClMax {
		return fmt.Errorf("%w: invalid search rectangle c_d [%v, %v], c_l [%v, %v]",
			errs.ErrInvalidInput, c.CdMin, c.CdMax, c.ClMin, c.ClMax)
	}
	if !(c.CdStep > 0) || !(c.ClStep > 0) || !finite(c.CdStep, c.ClStep) {
		return fmt.Errorf("%w: search steps must be positive, got %v, %v", errs.ErrInvalidInput, c.CdStep, c.ClStep)
	}
	if err := c.Ball.Validate(); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrInvalidInput, err)
	}
	switch c.FitMode {
	case FitFree, FitClamped:
	default:
		return fmt.Errorf("%w: unknown fit mode %q", errs.ErrInvalidInput, c.FitMode)
	}
	if math.IsNaN(c.DeviationTolerance) || c.DeviationTolerance < 0 {
		return fmt.Errorf("%w: deviation tolerance must be non-negative", errs.ErrInvalidInput)
	}
	cmp := c.Comparison
	if cmp.HalfSamples < 1 || !(cmp.SampleDivisor > 0) || !(cmp.HalfNormalization > 0) || !(cmp.LastNormalization > 0) {
		return fmt.Errorf("%w: invalid comparison constants %+v", errs.ErrInvalidInput, cmp)
	}
	return nil
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
