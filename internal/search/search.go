// Package search implements a derivative-free neighborhood search over a
// bounded 2-D rectangle.
//
// Starting at the centre of the rectangle, the search evaluates the objective
// at every neighbor given by a fixed direction set, moves to the best strictly
// improving neighbor and repeats until no neighbor improves. It is a local
// optimizer: the caller picks a rectangle whose centre leads to the wanted
// basin.
package search

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/cxd309/pitch-engine/internal/errs"
)

// DefaultStep is the grid spacing used on both axes unless overridden.
const DefaultStep = 0.01

// Objective is the scalar function being minimised. It must be deterministic;
// with Parallel set it is also called from several goroutines at once.
type Objective func(x, y float64) float64

// Direction is an integer offset in grid steps.
type Direction struct {
	DX, DY int
}

// Name identifies a direction set in configuration.
type Name string

const (
	NameVonNeumann Name = "von_neumann"
	NameMoore      Name = "moore"
)

// VonNeumann returns the 4-connected direction set.
func VonNeumann() []Direction {
	return []Direction{{-1, 0}, {0, -1}, {0, 1}, {1, 0}}
}

// Moore returns the 8-connected direction set.
func Moore() []Direction {
	return []Direction{
		{-1, -1}, {-1, 0}, {-1, 1},
		{0, -1}, {0, 1},
		{1, -1}, {1, 0}, {1, 1},
	}
}

// ParseName normalises a direction set name read from configuration.
func ParseName(value string) (Name, error) {
	n := strings.ToLower(strings.TrimSpace(value))
	n = strings.ReplaceAll(n, "-", "_")
	switch Name(n) {
	case NameVonNeumann, NameMoore:
		return Name(n), nil
	default:
		return "", fmt.Errorf("%w: unknown neighborhood %q", errs.ErrInvalidInput, value)
	}
}

// UnmarshalJSON accepts "moore", "von_neumann" or "von-neumann".
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

// Directions returns the direction set registered under name.
func Directions(name Name) ([]Direction, error) {
	switch name {
	case NameVonNeumann:
		return VonNeumann(), nil
	case NameMoore:
		return Moore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown neighborhood %q", errs.ErrInvalidInput, string(name))
	}
}

// Bounds is the search rectangle [XMin, XMax] × [YMin, YMax].
type Bounds struct {
	XMin, XMax float64
	YMin, YMax float64
}

// Contains reports whether (x, y) lies inside or on the rectangle.
func (b Bounds) Contains(x, y float64) bool {
	return x >= b.XMin && x <= b.XMax && y >= b.YMin && y <= b.YMax
}

// Center returns the midpoint of the rectangle.
func (b Bounds) Center() (float64, float64) {
	return (b.XMin + b.XMax) / 2, (b.YMin + b.YMax) / 2
}

// Clamp projects (x, y) onto the rectangle.
func (b Bounds) Clamp(x, y float64) (float64, float64) {
	return math.Min(math.Max(x, b.XMin), b.XMax), math.Min(math.Max(y, b.YMin), b.YMax)
}

// Neighborhood is a configured search.
type Neighborhood struct {
	Bounds     Bounds
	Directions []Direction
	XStep      float64
	YStep      float64

	// Parallel evaluates the neighbors of one step concurrently. The choice
	// among them is still made in direction order, so the result is the same
	// as the sequential search.
	Parallel bool
}

// New returns a neighborhood search over b using dirs and DefaultStep on both axes.
func New(b Bounds, dirs []Direction) *Neighborhood {
	return &Neighborhood{Bounds: b, Directions: dirs, XStep: DefaultStep, YStep: DefaultStep}
}

// Result describes where a search stopped.
type Result struct {
	X, Y        float64
	Value       float64 // objective at (X, Y)
	Iterations  int     // accepted moves
	Evaluations int     // objective calls
}

// Approx returns the point the search converges to.
func (n *Neighborhood) Approx(objective Objective) (float64, float64) {
	r := n.Search(objective)
	return r.X, r.Y
}

// Search runs the neighborhood search.
//
// Candidates are generated without bound checks; only the loop guard tests
// whether the current point is inside the rectangle. The search can therefore
// accept one step past the boundary before it stops. The reported point is
// projected back onto the rectangle, and re-evaluated if that moved it.
func (n *Neighborhood) Search(objective Objective) Result {
	x, y := n.Bounds.Center()
	value := objective(x, y)
	res := Result{Evaluations: 1}

	vals := make([]float64, len(n.Directions))
	for n.Bounds.Contains(x, y) {
		n.evaluate(objective, x, y, vals)
		res.Evaluations += len(vals)

		best := -1
		for i, v := range vals {
			if v < value {
				value = v
				best = i
			}
		}
		if best < 0 {
			break
		}
		d := n.Directions[best]
		x += float64(d.DX) * n.XStep
		y += float64(d.DY) * n.YStep
		res.Iterations++
	}

	if cx, cy := n.Bounds.Clamp(x, y); cx != x || cy != y {
		x, y = cx, cy
		value = objective(x, y)
		res.Evaluations++
	}
	res.X, res.Y, res.Value = x, y, value
	return res
}

func (n *Neighborhood) evaluate(objective Objective, x, y float64, vals []float64) {
	if !n.Parallel {
		for i, d := range n.Directions {
			vals[i] = objective(x+float64(d.DX)*n.XStep, y+float64(d.DY)*n.YStep)
		}
		return
	}
	var g errgroup.Group
	for i, d := range n.Directions {
		i, d := i, d
		g.Go(func() error {
			vals[i] = objective(x+float64(d.DX)*n.XStep, y+float64(d.DY)*n.YStep)
			return nil
		})
	}
	_ = g.Wait()
}
