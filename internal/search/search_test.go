package search

import (
	"errors"
	"math"
	"testing"

	"github.com/cxd309/pitch-engine/internal/errs"
)

var calibrationBounds = Bounds{XMin: 0.2, XMax: 0.5, YMin: 0, YMax: 1.0}

func bowl(cx, cy float64) Objective {
	return func(x, y float64) float64 {
		return (x-cx)*(x-cx) + (y-cy)*(y-cy)
	}
}

func TestSearchFindsBowlMinimum(t *testing.T) {
	for _, dirs := range [][]Direction{VonNeumann(), Moore()} {
		n := New(calibrationBounds, dirs)
		x, y := n.Approx(bowl(0.33, 0.25))
		if math.Abs(x-0.33) > 0.006 || math.Abs(y-0.25) > 0.006 {
			t.Errorf("%d directions: expected (0.33, 0.25), got (%.4f, %.4f)", len(dirs), x, y)
		}
	}
}

func TestMooreTakesFewerMovesOnDiagonal(t *testing.T) {
	vn := New(calibrationBounds, VonNeumann()).Search(bowl(0.25, 0.3))
	moore := New(calibrationBounds, Moore()).Search(bowl(0.25, 0.3))
	if moore.Iterations >= vn.Iterations {
		t.Errorf("expected Moore (%d moves) to need fewer moves than Von Neumann (%d)", moore.Iterations, vn.Iterations)
	}
}

func TestSearchStaysInBounds(t *testing.T) {
	objectives := map[string]Objective{
		"towards min corner": func(x, y float64) float64 { return x + y },
		"towards max corner": func(x, y float64) float64 { return -x - y },
		"outside minimum":    bowl(-4, 7),
		"steep ridge":        func(x, y float64) float64 { return -100 * y },
	}
	for name, f := range objectives {
		for _, dirs := range [][]Direction{VonNeumann(), Moore()} {
			r := New(calibrationBounds, dirs).Search(f)
			if !calibrationBounds.Contains(r.X, r.Y) {
				t.Errorf("%s: result (%v, %v) outside %+v", name, r.X, r.Y, calibrationBounds)
			}
			if r.Value != f(r.X, r.Y) {
				t.Errorf("%s: reported value %v does not match objective at result %v", name, r.Value, f(r.X, r.Y))
			}
		}
	}
}

func TestSearchStopsAtLocalOptimum(t *testing.T) {
	cx, cy := calibrationBounds.Center()
	r := New(calibrationBounds, Moore()).Search(bowl(cx, cy))
	if r.Iterations != 0 {
		t.Errorf("expected no moves from the optimum, got %d", r.Iterations)
	}
	if r.Evaluations != 1+len(Moore()) {
		t.Errorf("expected %d evaluations, got %d", 1+len(Moore()), r.Evaluations)
	}
	if r.X != cx || r.Y != cy {
		t.Errorf("expected the centre (%v, %v), got (%v, %v)", cx, cy, r.X, r.Y)
	}
}

func TestConstantObjectiveStaysAtCentre(t *testing.T) {
	cx, cy := calibrationBounds.Center()
	x, y := New(calibrationBounds, VonNeumann()).Approx(func(float64, float64) float64 { return 1 })
	if x != cx || y != cy {
		t.Errorf("expected the centre (%v, %v), got (%v, %v)", cx, cy, x, y)
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	bumpy := func(x, y float64) float64 {
		return math.Sin(17*x)*math.Cos(11*y) + (x-0.3)*(x-0.3) + (y-0.6)*(y-0.6)
	}
	seq := New(calibrationBounds, Moore())
	par := New(calibrationBounds, Moore())
	par.Parallel = true
	a, b := seq.Search(bumpy), par.Search(bumpy)
	if a != b {
		t.Errorf("parallel result %+v differs from sequential %+v", b, a)
	}
}

func TestCustomSteps(t *testing.T) {
	n := New(Bounds{XMin: 0, XMax: 10, YMin: 0, YMax: 10}, Moore())
	n.XStep, n.YStep = 0.5, 0.25
	x, y := n.Approx(bowl(2, 8))
	if x != 2 || y != 8 {
		t.Errorf("expected (2, 8) on the coarse grid, got (%v, %v)", x, y)
	}
}

func TestDirectionSets(t *testing.T) {
	if len(VonNeumann()) != 4 || len(Moore()) != 8 {
		t.Fatalf("unexpected direction set sizes %d, %d", len(VonNeumann()), len(Moore()))
	}
	seen := map[Direction]bool{}
	for _, d := range Moore() {
		if d == (Direction{}) {
			t.Error("Moore set must not contain the zero vector")
		}
		seen[d] = true
	}
	for _, d := range VonNeumann() {
		if abs(d.DX)+abs(d.DY) != 1 {
			t.Errorf("Von Neumann direction %+v is not axis-aligned", d)
		}
		if !seen[d] {
			t.Errorf("Von Neumann direction %+v missing from Moore", d)
		}
	}
}

func TestParseName(t *testing.T) {
	for raw, want := range map[string]Name{"moore": NameMoore, "Von-Neumann": NameVonNeumann, "von_neumann": NameVonNeumann} {
		got, err := ParseName(raw)
		if err != nil || got != want {
			t.Errorf("ParseName(%q) = %q, %v; expected %q", raw, got, err, want)
		}
		if _, err := Directions(got); err != nil {
			t.Errorf("Directions(%q): %v", got, err)
		}
	}
	if _, err := ParseName("hex"); !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
