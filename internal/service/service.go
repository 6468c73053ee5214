// Package service calibrates pitch records and compares calibrated pitches.
//
// Calibration is an inverse problem: a neighborhood search over the drag and
// lift coefficients drives a fixed-step integration of the equations of
// motion until the simulated landing point matches the recorded one. The
// winning trajectory is then reduced to a cubic Bezier control polygon, which
// is what comparisons work on.
package service

import (
	"fmt"

	"github.com/golang/geo/r3"
	"go.uber.org/zap"

	"github.com/cxd309/pitch-engine/internal/bezier"
	"github.com/cxd309/pitch-engine/internal/distance"
	"github.com/cxd309/pitch-engine/internal/integrator"
	"github.com/cxd309/pitch-engine/internal/kinematics"
	"github.com/cxd309/pitch-engine/internal/search"
)

// Calibration is the result of calibrating one pitch. Its fields are produced
// together and are never updated individually.
type Calibration struct {
	Cd    float64
	Cl    float64
	Delta float64 // Euclidean distance between simulated and recorded landing point, metres

	// Fitted control points P1..P3. Ctrl3 is the fitted final vertex and is
	// kept separate from the recorded landing point.
	Ctrl1 r3.Vector
	Ctrl2 r3.Vector
	Ctrl3 r3.Vector
	// FitStart is the fitted P0. It equals the release point in clamped mode.
	FitStart r3.Vector

	// VelocityDelta is the distance between simulated and observed landing
	// velocity, m/s. Nil when the record has no landing velocity.
	VelocityDelta *float64

	WithinTolerance bool
	Iterations      int // accepted optimizer moves
	Evaluations     int // trajectory solves during the search

	Trajectory integrator.Trajectory
}

// CalibratedPitch is the part of a calibrated record a comparison needs.
type CalibratedPitch struct {
	Release r3.Vector
	Ctrl1   r3.Vector
	Ctrl2   r3.Vector
	Ctrl3   r3.Vector
}

// NewCalibratedPitch pairs a pitch with its calibration.
func NewCalibratedPitch(p Pitch, c Calibration) CalibratedPitch {
	return CalibratedPitch{Release: p.Release(), Ctrl1: c.Ctrl1, Ctrl2: c.Ctrl2, Ctrl3: c.Ctrl3}
}

// Polygon returns [release, ctrl1, ctrl2, ctrl3].
func (c CalibratedPitch) Polygon() []r3.Vector {
	return []r3.Vector{c.Release, c.Ctrl1, c.Ctrl2, c.Ctrl3}
}

// Relative returns the polygon with the release point moved to the origin.
func (c CalibratedPitch) Relative() []r3.Vector {
	return bezier.Translate(c.Polygon(), c.Release)
}

// Service runs calibrations and comparisons under one Config. It holds no
// per-pitch state and is safe for concurrent use.
type Service struct {
	cfg    Config
	method integrator.Method
	dirs   []search.Direction
	metric distance.Metric
	logger *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New validates cfg and resolves its named strategies.
func New(cfg Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	method, err := integrator.ByName(cfg.Method)
	if err != nil {
		return nil, err
	}
	dirs, err := search.Directions(cfg.Neighborhood)
	if err != nil {
		return nil, err
	}
	metric, err := distance.ByName(cfg.Metric)
	if err != nil {
		return nil, err
	}
	s := &Service{cfg: cfg, method: method, dirs: dirs, metric: metric, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the configuration the service was built with.
func (s *Service) Config() Config { return s.cfg }

func (s *Service) neighborhood() *search.Neighborhood {
	n := search.New(s.cfg.Bounds(), s.dirs)
	n.XStep, n.YStep = s.cfg.CdStep, s.cfg.ClStep
	n.Parallel = s.cfg.ParallelSearch
	return n
}

func (s *Service) model(p Pitch, cd, cl float64) kinematics.MotionModel {
	return kinematics.NewAerodynamic(s.cfg.Ball, cd, cl, p.Alpha)
}

// Calibrate finds the coefficients that best reproduce the recorded landing
// point and fits the resulting trajectory. The result depends only on p and
// the configuration.
func (s *Service) Calibrate(p Pitch) (Calibration, error) {
	if err := p.Validate(); err != nil {
		return Calibration{}, err
	}
	solver, err := integrator.NewSolver(s.method, s.cfg.Steps, p.T)
	if err != nil {
		return Calibration{}, fmt.Errorf("pitch %q: %w", p.ID, err)
	}

	initial := p.InitialState()
	landing := p.Landing()
	objective := func(cd, cl float64) float64 {
		final := solver.Final(initial, s.model(p, cd, cl).Derivatives)
		return distance.Between(s.metric, final.Position(), landing)
	}

	res := s.neighborhood().Search(objective)
	s.logger.Debug("coefficient search finished",
		zap.String("pitch_id", p.ID),
		zap.Float64("c_d", res.X),
		zap.Float64("c_l", res.Y),
		zap.Float64("objective", res.Value),
		zap.Int("iterations", res.Iterations),
		zap.Int("evaluations", res.Evaluations),
	)

	tr := solver.Solve(initial, s.model(p, res.X, res.Y).Derivatives)
	final := tr.Final()
	delta := final.Position().Distance(landing)

	var ctrl []r3.Vector
	switch s.cfg.FitMode {
	case FitClamped:
		ctrl, err = bezier.FitClamped(tr.Positions(), CurveDegree, p.Release(), landing)
	default:
		ctrl, err = bezier.Fit(tr.Positions(), CurveDegree)
	}
	if err != nil {
		return Calibration{}, fmt.Errorf("pitch %q: fitting trajectory: %w", p.ID, err)
	}

	c := Calibration{
		Cd:              res.X,
		Cl:              res.Y,
		Delta:           delta,
		FitStart:        ctrl[0],
		Ctrl1:           ctrl[1],
		Ctrl2:           ctrl[2],
		Ctrl3:           ctrl[3],
		WithinTolerance: delta <= s.cfg.DeviationTolerance,
		Iterations:      res.Iterations,
		Evaluations:     res.Evaluations,
		Trajectory:      tr,
	}
	if v, ok := p.LandingVelocity(); ok {
		dv := final.Velocity().Distance(v)
		c.VelocityDelta = &dv
	}

	fields := []zap.Field{
		zap.String("pitch_id", p.ID),
		zap.Float64("c_d", c.Cd),
		zap.Float64("c_l", c.Cl),
		zap.Float64("delta", c.Delta),
	}
	if c.WithinTolerance {
		s.logger.Info("pitch calibrated", fields...)
	} else {
		s.logger.Warn("calibrated deviation exceeds tolerance",
			append(fields, zap.Float64("tolerance", s.cfg.DeviationTolerance))...)
	}
	return c, nil
}
