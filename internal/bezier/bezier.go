// Package bezier evaluates Bezier curves and fits their control points to
// sampled points by least squares in the Bernstein basis.
package bezier

import (
	"math"

	"github.com/golang/geo/r3"
)

// Binomial returns C(n, k), or 0 when k is outside [0, n].
func Binomial(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	c := 1.0
	for i := 1; i <= k; i++ {
		c = c * float64(n-k+i) / float64(i)
	}
	return math.Round(c)
}

// Bernstein returns the i-th Bernstein basis polynomial of degree n at t:
// C(n, i)·tⁱ·(1-t)ⁿ⁻ⁱ.
func Bernstein(i, n int, t float64) float64 {
	return Binomial(n, i) * math.Pow(t, float64(i)) * math.Pow(1-t, float64(n-i))
}

// Evaluate returns the point at parameter t on the curve with the given
// control points, using De Casteljau's algorithm. Values of t outside [0, 1]
// extrapolate. An empty control polygon yields the zero vector.
func Evaluate(points []r3.Vector, t float64) r3.Vector {
	if len(points) == 0 {
		return r3.Vector{}
	}
	work := make([]r3.Vector, len(points))
	copy(work, points)
	for r := 1; r < len(work); r++ {
		for j := 0; j < len(work)-r; j++ {
			work[j] = work[j].Mul(1 - t).Add(work[j+1].Mul(t))
		}
	}
	return work[0]
}

// Translate returns points re-expressed relative to origin.
func Translate(points []r3.Vector, origin r3.Vector) []r3.Vector {
	out := make([]r3.Vector, len(points))
	for i, p := range points {
		out[i] = p.Sub(origin)
	}
	return out
}
