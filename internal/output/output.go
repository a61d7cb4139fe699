// Package output describes dependent variables: derived quantities recorded
// alongside the propagated state or used as termination triggers.
package output

import (
	"fmt"

	"github.com/san-kum/propsetup/internal/dynamo"
)

// Kind identifies a dependent variable. Values are stable.
type Kind int

const (
	MachNumber            Kind = 0
	Altitude              Kind = 1
	Airspeed              Kind = 2
	LocalDensity          Kind = 3
	RelativeSpeed         Kind = 4
	RelativePosition      Kind = 5
	RelativeDistance      Kind = 6
	RelativeVelocity      Kind = 7
	TotalAccelerationNorm Kind = 8
	TotalAcceleration     Kind = 9
	BodyMass              Kind = 10
	KeplerianState        Kind = 11
	RotationAngles        Kind = 12
	TotalTorqueNorm       Kind = 13
	SpecificOrbitalEnergy Kind = 14
)

var kindNames = map[Kind]string{
	MachNumber:            "mach_number",
	Altitude:              "altitude",
	Airspeed:              "airspeed",
	LocalDensity:          "local_density",
	RelativeSpeed:         "relative_speed",
	RelativePosition:      "relative_position",
	RelativeDistance:      "relative_distance",
	RelativeVelocity:      "relative_velocity",
	TotalAccelerationNorm: "total_acceleration_norm",
	TotalAcceleration:     "total_acceleration",
	BodyMass:              "body_mass",
	KeplerianState:        "keplerian_state",
	RotationAngles:        "rotation_angles",
	TotalTorqueNorm:       "total_torque_norm",
	SpecificOrbitalEnergy: "specific_orbital_energy",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown dependent variable %d", int(k))
	}
	return []byte(name), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	v, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

func ParseKind(name string) (Kind, error) {
	for v, n := range kindNames {
		if n == name {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown dependent variable: %s", name)
}

// fullSize is the number of columns the variable produces without a
// component selection.
func (k Kind) fullSize() int {
	switch k {
	case RelativePosition, RelativeVelocity, TotalAcceleration, RotationAngles:
		return 3
	case KeplerianState:
		return 6
	default:
		return 1
	}
}

// needsSecondary reports whether the variable is defined relative to a
// second body.
func (k Kind) needsSecondary() bool {
	switch k {
	case MachNumber, Altitude, Airspeed, LocalDensity, RelativeSpeed, RelativePosition,
		RelativeDistance, RelativeVelocity, KeplerianState, SpecificOrbitalEnergy:
		return true
	default:
		return false
	}
}

// Variable is one dependent variable. Component selects a single entry of a
// vector variable; -1 keeps the whole vector.
type Variable struct {
	Kind          Kind
	Body          string
	SecondaryBody string
	Component     int
}

// NewVariable returns a whole-vector variable.
func NewVariable(kind Kind, body, secondary string) Variable {
	return Variable{Kind: kind, Body: body, SecondaryBody: secondary, Component: -1}
}

// WithComponent selects one component of a vector variable.
func (v Variable) WithComponent(i int) Variable {
	v.Component = i
	return v
}

func (v Variable) Size() int {
	if v.Component >= 0 {
		return 1
	}
	return v.Kind.fullSize()
}

func (v Variable) Validate() error {
	if _, ok := kindNames[v.Kind]; !ok {
		return fmt.Errorf("%w: unknown dependent variable %d", dynamo.ErrInvalidArgument, int(v.Kind))
	}
	if v.Body == "" {
		return fmt.Errorf("%w: %s requires a body", dynamo.ErrInvalidArgument, v.Kind)
	}
	if v.Kind.needsSecondary() && v.SecondaryBody == "" {
		return fmt.Errorf("%w: %s of %s requires a secondary body", dynamo.ErrInvalidArgument, v.Kind, v.Body)
	}
	if v.Component < -1 || v.Component >= v.Kind.fullSize() {
		return fmt.Errorf("%w: component %d out of range for %s", dynamo.ErrInvalidArgument, v.Component, v.Kind)
	}
	return nil
}

func (v Variable) String() string {
	s := v.Kind.String() + "(" + v.Body
	if v.SecondaryBody != "" {
		s += "," + v.SecondaryBody
	}
	s += ")"
	if v.Component >= 0 {
		s += fmt.Sprintf("[%d]", v.Component)
	}
	return s
}
