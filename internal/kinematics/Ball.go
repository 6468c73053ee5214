package kinematics

import (
	"encoding/json"
	"fmt"
	"math"
)

// Ball model discriminator strings.
const (
	SoftballModelName = "softball"
	BaseballModelName = "baseball"
	CustomModelName   = "custom"
)

const (
	DefaultGravity    = 9.813 // m/s²
	DefaultAirDensity = 1.204 // kg/m³
)

// Ball holds the physical constants of a projectile.
//
// JSON form: {"model": "softball"} or {"model": "baseball"} for a preset, or
// {"model": "custom", "mass": 0.2, "circumference": 0.3}. gravity and
// air_density may be set on any model and default to DefaultGravity and
// DefaultAirDensity.
type Ball struct {
	Model         string  `json:"model"`
	Mass          float64 `json:"mass"`          // kg
	Circumference float64 `json:"circumference"` // m
	Gravity       float64 `json:"gravity"`       // m/s²
	AirDensity    float64 `json:"air_density"`   // kg/m³
}

// Softball returns the softball preset (0.188 kg, 0.305 m).
func Softball() Ball {
	return Ball{Model: SoftballModelName, Mass: 0.188, Circumference: 0.305, Gravity: DefaultGravity, AirDensity: DefaultAirDensity}
}

// Baseball returns the baseball preset (0.145 kg, 0.232 m).
func Baseball() Ball {
	return Ball{Model: BaseballModelName, Mass: 0.145, Circumference: 0.232, Gravity: DefaultGravity, AirDensity: DefaultAirDensity}
}

// Area returns the cross-sectional area derived from the circumference, m².
func (b Ball) Area() float64 {
	return b.Circumference * b.Circumference / (4 * math.Pi)
}

// Validate checks that the constants describe a physical ball.
func (b Ball) Validate() error {
	if !(b.Mass > 0) || math.IsInf(b.Mass, 0) {
		return fmt.Errorf("ball %q: mass must be positive, got %v", b.Model, b.Mass)
	}
	if !(b.Circumference > 0) || math.IsInf(b.Circumference, 0) {
		return fmt.Errorf("ball %q: circumference must be positive, got %v", b.Model, b.Circumference)
	}
	if math.IsNaN(b.Gravity) || math.IsInf(b.Gravity, 0) {
		return fmt.Errorf("ball %q: gravity must be finite", b.Model)
	}
	if !(b.AirDensity >= 0) || math.IsInf(b.AirDensity, 0) {
		return fmt.Errorf("ball %q: air density must be non-negative, got %v", b.Model, b.AirDensity)
	}
	return nil
}

// ballJSON is the raw JSON shape of a Ball; pointers distinguish absent fields.
type ballJSON struct {
	Model         string   `json:"model"`
	Mass          *float64 `json:"mass"`
	Circumference *float64 `json:"circumference"`
	Gravity       *float64 `json:"gravity"`
	AirDensity    *float64 `json:"air_density"`
}

// UnmarshalJSON implements json.Unmarshaler for Ball.
// The "model" key selects the preset; "custom" requires mass and circumference.
func (b *Ball) UnmarshalJSON(data []byte) error {
	var aux ballJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var out Ball
	switch aux.Model {
	case SoftballModelName, "":
		out = Softball()
	case BaseballModelName:
		out = Baseball()
	case CustomModelName:
		if aux.Mass == nil || aux.Circumference == nil {
			return fmt.Errorf("ball model %q: mass and circumference are required", aux.Model)
		}
		out = Ball{Model: CustomModelName, Gravity: DefaultGravity, AirDensity: DefaultAirDensity}
	default:
		return fmt.Errorf("unknown ball model %q", aux.Model)
	}

	if aux.Mass != nil {
		out.Mass = *aux.Mass
	}
	if aux.Circumference != nil {
		out.Circumference = *aux.Circumference
	}
	if aux.Gravity != nil {
		out.Gravity = *aux.Gravity
	}
	if aux.AirDensity != nil {
		out.AirDensity = *aux.AirDensity
	}
	*b = out
	return nil
}
