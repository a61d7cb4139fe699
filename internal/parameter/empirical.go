package parameter

import "fmt"

type Direction int

const (
	Radial      Direction = 0
	AlongTrack  Direction = 1
	AcrossTrack Direction = 2
)

func (d Direction) String() string {
	switch d {
	case Radial:
		return "radial"
	case AlongTrack:
		return "along_track"
	case AcrossTrack:
		return "across_track"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

type Shape int

const (
	Constant Shape = 0
	Sine     Shape = 1
	Cosine   Shape = 2
)

func (s Shape) String() string {
	switch s {
	case Constant:
		return "constant"
	case Sine:
		return "sine"
	case Cosine:
		return "cosine"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// EmpiricalTerm is one estimated empirical acceleration coefficient.
type EmpiricalTerm struct {
	Direction Direction
	Shape     Shape
}

func constantTerms() []EmpiricalTerm {
	return []EmpiricalTerm{{Radial, Constant}, {AlongTrack, Constant}, {AcrossTrack, Constant}}
}

func empirical(typ Type, body, centralBody string) (*Settings, error) {
	if err := requireBody(typ, body); err != nil {
		return nil, err
	}
	if err := requireBody(typ, centralBody); err != nil {
		return nil, fmt.Errorf("central body: %w", err)
	}
	s := newSettings(body, typ)
	s.centralBody = centralBody
	s.empirical = constantTerms()
	return s, nil
}

// NewConstantEmpiricalAccelerationTerms estimates constant radial,
// along-track and across-track accelerations of body about centralBody.
func NewConstantEmpiricalAccelerationTerms(body, centralBody string) (*Settings, error) {
	return empirical(EmpiricalAccelerationCoefficients, body, centralBody)
}

func NewArcwiseEmpiricalAccelerationTerms(body, centralBody string, arcInitialTimes []float64) (*Settings, error) {
	s, err := empirical(ArcWiseEmpiricalAccelerationCoefficients, body, centralBody)
	if err != nil {
		return nil, err
	}
	times, err := checkArcTimes(arcInitialTimes)
	if err != nil {
		return nil, fmt.Errorf("%s of %s: %w", s.typ, body, err)
	}
	s.arcTimes = times
	return s, nil
}
