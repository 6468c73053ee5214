// Package engine runs calibration sessions.
//
// A session has two passes:
//
//  1. Calibration pass - every pitch is calibrated independently on a bounded
//     pool of workers. Results land in input order.
//
//  2. Comparison pass - each requested pair is compared using the control
//     polygons from pass 1.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cxd309/pitch-engine/internal/errs"
	"github.com/cxd309/pitch-engine/internal/integrator"
	"github.com/cxd309/pitch-engine/internal/service"
)

type options struct {
	logger  *zap.Logger
	workers int
}

// Option configures an Engine.
type Option func(*options)

// WithLogger sets the logger used by the engine and its service.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithWorkers bounds the number of concurrent calibrations. Values below 1
// select GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// NewEngine validates input and builds an Engine. Pitches without an id get a
// random one; duplicate ids are rejected.
func NewEngine(input SessionInput, opts ...Option) (*Engine, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = runtime.GOMAXPROCS(0)
	}

	cfg := service.DefaultConfig()
	if input.Config != nil {
		cfg = *input.Config
	}
	svc, err := service.New(cfg, service.WithLogger(o.logger))
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	meta := input.Meta
	if meta.SessionID == "" {
		meta.SessionID = uuid.NewString()
	}

	pitches := make([]service.Pitch, len(input.Pitches))
	index := make(map[string]int, len(input.Pitches))
	for i, p := range input.Pitches {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if _, dup := index[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate pitch id %q", errs.ErrInvalidInput, p.ID)
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		index[p.ID] = i
		pitches[i] = p
	}

	for _, pr := range input.Comparisons {
		for _, id := range []string{pr.A, pr.B} {
			if _, ok := index[id]; !ok {
				return nil, fmt.Errorf("%w: comparison refers to unknown pitch %q", errs.ErrInvalidInput, id)
			}
		}
	}

	return &Engine{
		meta:    meta,
		svc:     svc,
		pitches: pitches,
		pairs:   input.Comparisons,
		index:   index,
		traj:    input.IncludeTrajectories,
		workers: o.workers,
	}, nil
}

// Run executes the session and returns the log. Cancelling ctx stops pitches
// that have not started yet.
func (e *Engine) Run(ctx context.Context) (SessionLog, error) {
	cals := make([]service.Calibration, len(e.pitches))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, p := range e.pitches {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c, err := e.svc.Calibrate(p)
			if err != nil {
				return err
			}
			cals[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SessionLog{}, fmt.Errorf("calibration: %w", err)
	}

	log := SessionLog{
		Meta:         e.meta,
		Calibrations: make([]CalibrationLog, len(e.pitches)),
		Comparisons:  make([]ComparisonLog, 0, len(e.pairs)),
	}
	for i, p := range e.pitches {
		log.Calibrations[i] = e.calibrationLog(p, cals[i])
	}
	for _, pr := range e.pairs {
		ia, ib := e.index[pr.A], e.index[pr.B]
		a := service.NewCalibratedPitch(e.pitches[ia], cals[ia])
		b := service.NewCalibratedPitch(e.pitches[ib], cals[ib])
		log.Comparisons = append(log.Comparisons, ComparisonLog{A: pr.A, B: pr.B, Comparison: e.svc.Compare(a, b)})
	}
	return log, nil
}

func (e *Engine) calibrationLog(p service.Pitch, c service.Calibration) CalibrationLog {
	cl := CalibrationLog{
		PitchID:         p.ID,
		Cd:              c.Cd,
		Cl:              c.Cl,
		Delta:           c.Delta,
		X1:              c.Ctrl1.X,
		Y1:              c.Ctrl1.Y,
		Z1:              c.Ctrl1.Z,
		X2:              c.Ctrl2.X,
		Y2:              c.Ctrl2.Y,
		Z2:              c.Ctrl2.Z,
		X3:              c.Ctrl3.X,
		Y3:              c.Ctrl3.Y,
		Z3:              c.Ctrl3.Z,
		VelocityDelta:   c.VelocityDelta,
		WithinTolerance: c.WithinTolerance,
		Iterations:      c.Iterations,
		Evaluations:     c.Evaluations,
	}
	if e.traj {
		cl.Trajectory = trajectoryPoints(c.Trajectory, p.T)
	}
	return cl
}

func trajectoryPoints(tr integrator.Trajectory, duration float64) []TrajectoryPoint {
	if len(tr) < 2 {
		return nil
	}
	h := duration / float64(len(tr)-1)
	out := make([]TrajectoryPoint, len(tr))
	for i, s := range tr {
		out[i] = TrajectoryPoint{T: float64(i) * h, X: s[0], Y: s[1], Z: s[2], VX: s[3], VY: s[4], VZ: s[5]}
	}
	return out
}

// RunJSON is the entry point shared by the CLI and WASM builds. It accepts a
// JSON-encoded SessionInput, runs it, and returns a JSON-encoded SessionLog.
func RunJSON(jsonInput string, opts ...Option) (string, error) {
	var input SessionInput
	if err := json.Unmarshal([]byte(jsonInput), &input); err != nil {
		return "", fmt.Errorf("invalid input JSON: %w", err)
	}
	out, err := Run(context.Background(), input, opts...)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("marshaling output: %w", err)
	}
	return string(b), nil
}

// Run builds an Engine from input and runs it.
func Run(ctx context.Context, input SessionInput, opts ...Option) (SessionLog, error) {
	e, err := NewEngine(input, opts...)
	if err != nil {
		return SessionLog{}, err
	}
	return e.Run(ctx)
}
