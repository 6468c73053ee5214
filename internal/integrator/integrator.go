// Package integrator advances a kinematics.State through time with fixed-step
// explicit methods. Methods are drop-in substitutable: the Solver only ever
// calls Method.Step.
package integrator

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/golang/geo/r3"

	"github.com/cxd309/pitch-engine/internal/errs"
	"github.com/cxd309/pitch-engine/internal/kinematics"
)

// Derivative returns the time derivative of a state.
type Derivative func(kinematics.State) kinematics.State

// Name identifies a method in configuration.
type Name string

const (
	NameEuler Name = "euler"
	NameRK2   Name = "rk2"
	NameRK4   Name = "rk4"
)

// Method advances a state by one step of size h.
type Method interface {
	Step(s kinematics.State, h float64, f Derivative) kinematics.State
	Name() Name
}

// Euler is the explicit first-order method.
type Euler struct{}

// RK2 is the second-order midpoint method.
type RK2 struct{}

// RK4 is the classical fourth-order Runge-Kutta method.
type RK4 struct{}

func (Euler) Name() Name { return NameEuler }
func (RK2) Name() Name   { return NameRK2 }
func (RK4) Name() Name   { return NameRK4 }

func (Euler) Step(s kinematics.State, h float64, f Derivative) kinematics.State {
	return s.Add(f(s).Scale(h))
}

func (RK2) Step(s kinematics.State, h float64, f Derivative) kinematics.State {
	k1 := f(s)
	k2 := f(s.Add(k1.Scale(h / 2)))
	return s.Add(k2.Scale(h))
}

func (RK4) Step(s kinematics.State, h float64, f Derivative) kinematics.State {
	k1 := f(s)
	k2 := f(s.Add(k1.Scale(h / 2)))
	k3 := f(s.Add(k2.Scale(h / 2)))
	k4 := f(s.Add(k3.Scale(h)))
	var out kinematics.State
	for i := range out {
		out[i] = s[i] + (k1[i]+2*k2[i]+2*k3[i]+k4[i])/6*h
	}
	return out
}

// ParseName normalises a method name read from configuration.
func ParseName(value string) (Name, error) {
	switch n := Name(strings.ToLower(strings.TrimSpace(value))); n {
	case NameEuler, NameRK2, NameRK4:
		return n, nil
	default:
		return "", fmt.Errorf("%w: unknown integration method %q", errs.ErrInvalidInput, value)
	}
}

// UnmarshalJSON accepts method names case-insensitively.
func (n *Name) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseName(raw)
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// ByName returns the method registered under name.
func ByName(name Name) (Method, error) {
	switch name {
	case NameEuler:
		return Euler{}, nil
	case NameRK2:
		return RK2{}, nil
	case NameRK4:
		return RK4{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown integration method %q", errs.ErrInvalidInput, string(name))
	}
}

// Trajectory is the ordered sequence of states produced by a Solver, starting
// with the initial state.
type Trajectory []kinematics.State

// Final returns the last state, or the zero State for an empty trajectory.
func (tr Trajectory) Final() kinematics.State {
	if len(tr) == 0 {
		return kinematics.State{}
	}
	return tr[len(tr)-1]
}

// Positions returns the position component of every state.
func (tr Trajectory) Positions() []r3.Vector {
	out := make([]r3.Vector, len(tr))
	for i, s := range tr {
		out[i] = s.Position()
	}
	return out
}

// Solver integrates over a fixed duration in a fixed number of equal steps.
type Solver struct {
	method Method
	steps  int
	h      float64
}

// NewSolver builds a solver taking steps equal sub-steps over duration seconds.
func NewSolver(method Method, steps int, duration float64) (*Solver, error) {
	if method == nil {
		return nil, fmt.Errorf("%w: integration method is required", errs.ErrInvalidInput)
	}
	if steps < 1 {
		return nil, fmt.Errorf("%w: step count must be at least 1, got %d", errs.ErrInvalidInput, steps)
	}
	if !(duration > 0) || math.IsInf(duration, 1) {
		return nil, fmt.Errorf("%w: flight duration must be positive and finite, got %v", errs.ErrInvalidInput, duration)
	}
	return &Solver{method: method, steps: steps, h: duration / float64(steps)}, nil
}

// Method returns the solver's stepping method.
func (s *Solver) Method() Method { return s.method }

// Steps returns the number of sub-steps N.
func (s *Solver) Steps() int { return s.steps }

// StepSize returns h = duration / N.
func (s *Solver) StepSize() float64 { return s.h }

// Solve returns the N+1 states from initial to the state at the full duration.
func (s *Solver) Solve(initial kinematics.State, f Derivative) Trajectory {
	out := make(Trajectory, 0, s.steps+1)
	out = append(out, initial)
	state := initial
	for i := 0; i < s.steps; i++ {
		state = s.method.Step(state, s.h, f)
		out = append(out, state)
	}
	return out
}

// Final returns only the last state Solve would produce, without keeping the
// intermediate states.
func (s *Solver) Final(initial kinematics.State, f Derivative) kinematics.State {
	state := initial
	for i := 0; i < s.steps; i++ {
		state = s.method.Step(state, s.h, f)
	}
	return state
}
