// Package kinematics defines the equations of motion for a pitched ball along
// with the State vector they act on.
//
// Adding a new force model only requires implementing MotionModel; the
// integrator and the calibration service never need to change.
package kinematics

import "github.com/golang/geo/r3"

// State is a position/velocity snapshot (x, y, z, vx, vy, vz).
// Positions are in metres, velocities in m/s; y is the vertical axis.
// State is a value type, so every integration step produces a new one.
type State [6]float64

// NewState assembles a State from a position and a velocity.
func NewState(pos, vel r3.Vector) State {
	return State{pos.X, pos.Y, pos.Z, vel.X, vel.Y, vel.Z}
}

// Position returns the (x, y, z) components.
func (s State) Position() r3.Vector { return r3.Vector{X: s[0], Y: s[1], Z: s[2]} }

// Velocity returns the (vx, vy, vz) components.
func (s State) Velocity() r3.Vector { return r3.Vector{X: s[3], Y: s[4], Z: s[5]} }

// Add returns s + o componentwise.
func (s State) Add(o State) State {
	for i := range s {
		s[i] += o[i]
	}
	return s
}

// Scale returns k·s.
func (s State) Scale(k float64) State {
	for i := range s {
		s[i] *= k
	}
	return s
}

// MotionModel is the physics contract every equations-of-motion implementation
// must satisfy.
type MotionModel interface {
	// Derivatives returns the time derivative of s: (vx, vy, vz, ax, ay, az).
	// Implementations are pure functions of s.
	Derivatives(s State) State
}
