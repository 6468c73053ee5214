// Package distance provides scalar distance functions between equal-length
// numeric vectors.
package distance

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/golang/geo/r3"

	"github.com/cxd309/pitch-engine/internal/errs"
)

// Name identifies a metric in configuration.
type Name string

const (
	NameEuclidean Name = "euclidean"
	NameManhattan Name = "manhattan"
	NameChebyshev Name = "chebyshev"
)

// Metric is a distance function between two vectors of the same dimension.
type Metric interface {
	// Distance returns the distance between a and b.
	// Returns an error wrapping errs.ErrInvalidInput if len(a) != len(b).
	Distance(a, b []float64) (float64, error)

	Name() Name
}

// Euclidean is the L2 distance.
type Euclidean struct{}

// Manhattan is the L1 distance.
type Manhattan struct{}

// Chebyshev is the L-infinity distance.
type Chebyshev struct{}

func (Euclidean) Name() Name { return NameEuclidean }
func (Manhattan) Name() Name { return NameManhattan }
func (Chebyshev) Name() Name { return NameChebyshev }

func (Euclidean) Distance(a, b []float64) (float64, error) {
	if err := checkDims(a, b); err != nil {
		return 0, err
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

func (Manhattan) Distance(a, b []float64) (float64, error) {
	if err := checkDims(a, b); err != nil {
		return 0, err
	}
	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum, nil
}

func (Chebyshev) Distance(a, b []float64) (float64, error) {
	if err := checkDims(a, b); err != nil {
		return 0, err
	}
	var largest float64
	for i := range a {
		if d := math.Abs(a[i] - b[i]); d > largest {
			largest = d
		}
	}
	return largest, nil
}

func checkDims(a, b []float64) error {
	if len(a) != len(b) {
		return fmt.Errorf("%w: vector dimensions differ (%d vs %d)", errs.ErrInvalidInput, len(a), len(b))
	}
	return nil
}

// Between returns m's distance between two 3-vectors. Both operands always
// have dimension 3, so no error can occur.
func Between(m Metric, a, b r3.Vector) float64 {
	d, _ := m.Distance([]float64{a.X, a.Y, a.Z}, []float64{b.X, b.Y, b.Z})
	return d
}

// ParseName normalises a metric name read from configuration.
func ParseName(value string) (Name, error) {
	switch n := Name(strings.ToLower(strings.TrimSpace(value))); n {
	case NameEuclidean, NameManhattan, NameChebyshev:
		return n, nil
	default:
		return "", fmt.Errorf("%w: unknown distance metric %q", errs.ErrInvalidInput, value)
	}
}

// UnmarshalJSON accepts metric names case-insensitively.
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

// ByName returns the metric registered under name.
func ByName(name Name) (Metric, error) {
	switch name {
	case NameEuclidean:
		return Euclidean{}, nil
	case NameManhattan:
		return Manhattan{}, nil
	case NameChebyshev:
		return Chebyshev{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown distance metric %q", errs.ErrInvalidInput, string(name))
	}
}
