package engine

import (
	"github.com/cxd309/pitch-engine/internal/service"
)

// SessionMeta identifies a calibration session.
type SessionMeta struct {
	SessionID string `json:"session_id"`
	Label     string `json:"label,omitempty"`
}

// PairRequest asks for a comparison of two pitches in the session.
type PairRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

// SessionInput is the JSON-serialisable input to the engine.
type SessionInput struct {
	Meta SessionMeta `json:"session_meta"`
	// Config overrides service.DefaultConfig when present. Fields missing from
	// the JSON object keep their default values.
	Config              *service.Config `json:"config,omitempty"`
	Pitches             []service.Pitch `json:"pitches"`
	Comparisons         []PairRequest   `json:"comparisons,omitempty"`
	IncludeTrajectories bool            `json:"include_trajectories,omitempty"`
}

// TrajectoryPoint is one integrator state in a logged trajectory.
type TrajectoryPoint struct {
	T  float64 `json:"t"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
	VZ float64 `json:"vz"`
}

// CalibrationLog is the stored form of one calibrated pitch. The control
// points use the flattened field names of the pitch record.
type CalibrationLog struct {
	PitchID string  `json:"pitch_id"`
	Cd      float64 `json:"c_d"`
	Cl      float64 `json:"c_l"`
	Delta   float64 `json:"delta"`

	X1 float64 `json:"x_1"`
	Y1 float64 `json:"y_1"`
	Z1 float64 `json:"z_1"`
	X2 float64 `json:"x_2"`
	Y2 float64 `json:"y_2"`
	Z2 float64 `json:"z_2"`
	X3 float64 `json:"x_3"`
	Y3 float64 `json:"y_3"`
	Z3 float64 `json:"z_3"`

	VelocityDelta   *float64          `json:"velocity_delta,omitempty"`
	WithinTolerance bool              `json:"within_tolerance"`
	Iterations      int               `json:"iterations"`
	Evaluations     int               `json:"evaluations"`
	Trajectory      []TrajectoryPoint `json:"trajectory,omitempty"`
}

// ComparisonLog is the result of one PairRequest.
type ComparisonLog struct {
	A string `json:"a"`
	B string `json:"b"`
	service.Comparison
}

// SessionLog is the complete output of a session.
type SessionLog struct {
	Meta         SessionMeta      `json:"session_meta"`
	Calibrations []CalibrationLog `json:"calibrations"`
	Comparisons  []ComparisonLog  `json:"comparisons"`
}

// Engine runs one session.
type Engine struct {
	meta    SessionMeta
	svc     *service.Service
	pitches []service.Pitch
	pairs   []PairRequest
	index   map[string]int
	traj    bool
	workers int
}
