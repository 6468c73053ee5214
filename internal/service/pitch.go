package service

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"

	"github.com/cxd309/pitch-engine/internal/errs"
	"github.com/cxd309/pitch-engine/internal/kinematics"
)

// Pitch holds the kinematic fields of a pitch record. Angles are radians,
// lengths metres, durations seconds.
type Pitch struct {
	ID    string  `json:"pitch_id,omitempty"`
	T     float64 `json:"t"`     // flight duration
	Alpha float64 `json:"alpha"` // spin axis angle
	Omega float64 `json:"omega"` // spin rate, rad/s; not used by the equations of motion

	X0     float64 `json:"x_0"`
	Y0     float64 `json:"y_0"`
	Z0     float64 `json:"z_0"`
	V0     float64 `json:"v_0"`
	Phi0   float64 `json:"phi_0"`
	Theta0 float64 `json:"theta_0"`

	XT float64 `json:"x_t"`
	YT float64 `json:"y_t"`
	ZT float64 `json:"z_t"`

	// Optional landing velocity. It is only used when all three are set.
	VT     *float64 `json:"v_t,omitempty"`
	PhiT   *float64 `json:"phi_t,omitempty"`
	ThetaT *float64 `json:"theta_t,omitempty"`
}

// Release returns the release point.
func (p Pitch) Release() r3.Vector { return r3.Vector{X: p.X0, Y: p.Y0, Z: p.Z0} }

// ReleaseVelocity returns the release velocity decomposed from speed and angles.
func (p Pitch) ReleaseVelocity() r3.Vector {
	return kinematics.ReleaseVelocity(p.V0, p.Phi0, p.Theta0)
}

// InitialState returns the integrator state at release.
func (p Pitch) InitialState() kinematics.State {
	return kinematics.NewState(p.Release(), p.ReleaseVelocity())
}

// Landing returns the recorded landing point.
func (p Pitch) Landing() r3.Vector { return r3.Vector{X: p.XT, Y: p.YT, Z: p.ZT} }

// LandingVelocity returns the observed landing velocity when speed and both
// angles were recorded.
func (p Pitch) LandingVelocity() (r3.Vector, bool) {
	if p.VT == nil || p.PhiT == nil || p.ThetaT == nil {
		return r3.Vector{}, false
	}
	return kinematics.ReleaseVelocity(*p.VT, *p.PhiT, *p.ThetaT), true
}

// Validate rejects records that cannot be simulated.
func (p Pitch) Validate() error {
	type field struct {
		name string
		val  float64
	}
	fields := []field{
		{"t", p.T}, {"alpha", p.Alpha}, {"omega", p.Omega},
		{"x_0", p.X0}, {"y_0", p.Y0}, {"z_0", p.Z0},
		{"v_0", p.V0}, {"phi_0", p.Phi0}, {"theta_0", p.Theta0},
		{"x_t", p.XT}, {"y_t", p.YT}, {"z_t", p.ZT},
	}
	for _, opt := range []struct {
		name string
		val  *float64
	}{{"v_t", p.VT}, {"phi_t", p.PhiT}, {"theta_t", p.ThetaT}} {
		if opt.val != nil {
			fields = append(fields, field{opt.name, *opt.val})
		}
	}
	for _, f := range fields {
		if math.IsNaN(f.val) || math.IsInf(f.val, 0) {
			return fmt.Errorf("%w: pitch %q: %s is not finite", errs.ErrInvalidInput, p.ID, f.name)
		}
	}
	if p.T <= 0 {
		return fmt.Errorf("%w: pitch %q: flight duration must be positive, got %v", errs.ErrInvalidInput, p.ID, p.T)
	}
	return nil
}

// KinematicsChanged reports whether any field that feeds calibration differs
// between a and b. The id is not a kinematic field.
func KinematicsChanged(a, b Pitch) bool {
	if a.T != b.T || a.Alpha != b.Alpha || a.Omega != b.Omega {
		return true
	}
	if a.X0 != b.X0 || a.Y0 != b.Y0 || a.Z0 != b.Z0 || a.V0 != b.V0 || a.Phi0 != b.Phi0 || a.Theta0 != b.Theta0 {
		return true
	}
	if a.XT != b.XT || a.YT != b.YT || a.ZT != b.ZT {
		return true
	}
	return optionalChanged(a.VT, b.VT) || optionalChanged(a.PhiT, b.PhiT) || optionalChanged(a.ThetaT, b.ThetaT)
}

func optionalChanged(a, b *float64) bool {
	if a == nil || b == nil {
		return a != b
	}
	return *a != *b
}
