package bezier

import (
	"fmt"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/cxd309/pitch-engine/internal/errs"
)

// FitError reports that a least-squares fit has no unique solution: too few
// samples for the degree, or a singular normal matrix. It matches errs.ErrFit
// under errors.Is.
type FitError struct {
	Samples int
	Degree  int
	Reason  string
}

func (e *FitError) Error() string {
	return fmt.Sprintf("fitting degree %d curve to %d samples: %s", e.Degree, e.Samples, e.Reason)
}

func (e *FitError) Unwrap() error { return errs.ErrFit }

// BasisMatrix returns the m×(degree+1) Bernstein basis matrix sampled at
// t_j = j/(m-1), j = 0..m-1.
func BasisMatrix(m, degree int) *mat.Dense {
	b := mat.NewDense(m, degree+1, nil)
	for j := 0; j < m; j++ {
		t := 0.0
		if m > 1 {
			t = float64(j) / float64(m-1)
		}
		for i := 0; i <= degree; i++ {
			b.Set(j, i, Bernstein(i, degree, t))
		}
	}
	return b
}

// Fit returns the degree+1 control points of the Bezier curve closest in the
// least-squares sense to samples, taken as equally spaced in the curve
// parameter. Each axis is solved independently as P = (BᵀB)⁻¹Bᵀ·S.
func Fit(samples []r3.Vector, degree int) ([]r3.Vector, error) {
	if err := checkFit(len(samples), degree, degree+1); err != nil {
		return nil, err
	}
	b := BasisMatrix(len(samples), degree)
	p, err := leastSquares(b, sampleMatrix(samples))
	if err != nil {
		return nil, &FitError{Samples: len(samples), Degree: degree, Reason: err.Error()}
	}
	return controlPoints(p), nil
}

// FitClamped is Fit with the first and last control points fixed to start and
// end; only the interior points are solved for.
func FitClamped(samples []r3.Vector, degree int, start, end r3.Vector) ([]r3.Vector, error) {
	if err := checkFit(len(samples), degree, degree+1); err != nil {
		return nil, err
	}
	if degree == 1 {
		return []r3.Vector{start, end}, nil
	}

	m := len(samples)
	b := BasisMatrix(m, degree)
	residual := sampleMatrix(samples)
	for j := 0; j < m; j++ {
		b0, bd := b.At(j, 0), b.At(j, degree)
		residual.Set(j, 0, residual.At(j, 0)-b0*start.X-bd*end.X)
		residual.Set(j, 1, residual.At(j, 1)-b0*start.Y-bd*end.Y)
		residual.Set(j, 2, residual.At(j, 2)-b0*start.Z-bd*end.Z)
	}

	interior := b.Slice(0, m, 1, degree)
	p, err := leastSquares(interior, residual)
	if err != nil {
		return nil, &FitError{Samples: m, Degree: degree, Reason: err.Error()}
	}

	out := make([]r3.Vector, 0, degree+1)
	out = append(out, start)
	out = append(out, controlPoints(p)...)
	return append(out, end), nil
}

func checkFit(samples, degree, need int) error {
	if degree < 1 {
		return &FitError{Samples: samples, Degree: degree, Reason: "degree must be at least 1"}
	}
	if samples < need {
		return &FitError{Samples: samples, Degree: degree, Reason: fmt.Sprintf("need at least %d samples", need)}
	}
	return nil
}

// leastSquares returns (BᵀB)⁻¹Bᵀ·S.
func leastSquares(b mat.Matrix, s *mat.Dense) (*mat.Dense, error) {
	var normal mat.Dense
	normal.Mul(b.T(), b)

	var inv mat.Dense
	if err := inv.Inverse(&normal); err != nil {
		return nil, fmt.Errorf("normal matrix is singular: %w", err)
	}

	var proj mat.Dense
	proj.Mul(&inv, b.T())

	var p mat.Dense
	p.Mul(&proj, s)
	return &p, nil
}

func sampleMatrix(samples []r3.Vector) *mat.Dense {
	s := mat.NewDense(len(samples), 3, nil)
	for j, v := range samples {
		s.Set(j, 0, v.X)
		s.Set(j, 1, v.Y)
		s.Set(j, 2, v.Z)
	}
	return s
}

func controlPoints(p *mat.Dense) []r3.Vector {
	rows, _ := p.Dims()
	out := make([]r3.Vector, rows)
	for i := range out {
		out[i] = r3.Vector{X: p.At(i, 0), Y: p.At(i, 1), Z: p.At(i, 2)}
	}
	return out
}
