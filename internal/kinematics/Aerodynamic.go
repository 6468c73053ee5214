package kinematics

import (
	"math"

	"github.com/golang/geo/r3"
)

// Aerodynamic implements MotionModel for a spinning ball under gravity,
// quadratic drag and Magnus lift. The lift acts perpendicular to the x axis;
// the spin-axis angle Alpha splits it between y (sin) and z (cos).
type Aerodynamic struct {
	Ball  Ball
	Cd    float64 // drag coefficient
	Cl    float64 // lift coefficient
	Alpha float64 // spin-axis angle, rad

	// per-unit-mass force factors, fixed at construction
	drag, liftY, liftZ float64
}

// NewAerodynamic binds the coefficients and spin-axis angle to ball.
func NewAerodynamic(ball Ball, cd, cl, alpha float64) Aerodynamic {
	q := 0.5 * ball.AirDensity * ball.Area() / ball.Mass
	return Aerodynamic{
		Ball:  ball,
		Cd:    cd,
		Cl:    cl,
		Alpha: alpha,
		drag:  q * cd,
		liftY: q * cl * math.Sin(alpha),
		liftZ: q * cl * math.Cos(alpha),
	}
}

func (a Aerodynamic) Derivatives(s State) State {
	vx, vy, vz := s[3], s[4], s[5]
	v2 := vx*vx + vy*vy + vz*vz
	v := math.Sqrt(v2)
	return State{
		vx, vy, vz,
		-a.drag * vx * v,
		-a.Ball.Gravity - a.drag*vy*v + a.liftY*v2,
		-a.drag*vz*v + a.liftZ*v2,
	}
}

// ReleaseVelocity decomposes a speed and two release angles into a velocity
// vector: (v·sinφ·cosθ, v·sinφ·sinθ, v·cosφ).
func ReleaseVelocity(v, phi, theta float64) r3.Vector {
	sinPhi := math.Sin(phi)
	return r3.Vector{
		X: v * sinPhi * math.Cos(theta),
		Y: v * sinPhi * math.Sin(theta),
		Z: v * math.Cos(phi),
	}
}
