package statetype

import "fmt"

// TranslationalPropagator selects the coordinates in which translational
// motion is integrated. It never changes the size of the conventional
// (Cartesian) state exchanged with the caller.
type TranslationalPropagator int

const (
	UndefinedTranslational             TranslationalPropagator = 0
	Cowell                             TranslationalPropagator = 1
	Encke                              TranslationalPropagator = 2
	GaussKeplerian                     TranslationalPropagator = 3
	GaussModifiedEquinoctial           TranslationalPropagator = 4
	UnifiedStateModelQuaternions       TranslationalPropagator = 5
	UnifiedStateModelModifiedRodrigues TranslationalPropagator = 6
	UnifiedStateModelExponentialMap    TranslationalPropagator = 7
)

var translationalNames = map[TranslationalPropagator]string{
	UndefinedTranslational:             "undefined_translational_propagator",
	Cowell:                             "cowell",
	Encke:                              "encke",
	GaussKeplerian:                     "gauss_keplerian",
	GaussModifiedEquinoctial:           "gauss_modified_equinoctial",
	UnifiedStateModelQuaternions:       "unified_state_model_quaternions",
	UnifiedStateModelModifiedRodrigues: "unified_state_model_modified_rodrigues_parameters",
	UnifiedStateModelExponentialMap:    "unified_state_model_exponential_map",
}

func (p TranslationalPropagator) String() string {
	if name, ok := translationalNames[p]; ok {
		return name
	}
	return fmt.Sprintf("TranslationalPropagator(%d)", int(p))
}

func (p TranslationalPropagator) Defined() bool {
	_, ok := translationalNames[p]
	return ok && p != UndefinedTranslational
}

// ProcessedSize is the number of integrated elements per body in this
// representation.
func (p TranslationalPropagator) ProcessedSize() int {
	switch p {
	case UnifiedStateModelQuaternions, UnifiedStateModelModifiedRodrigues, UnifiedStateModelExponentialMap:
		return 7
	default:
		return 6
	}
}

func (p TranslationalPropagator) MarshalText() ([]byte, error) {
	name, ok := translationalNames[p]
	if !ok {
		return nil, fmt.Errorf("unknown translational propagator %d", int(p))
	}
	return []byte(name), nil
}

func (p *TranslationalPropagator) UnmarshalText(text []byte) error {
	v, err := ParseTranslationalPropagator(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func ParseTranslationalPropagator(name string) (TranslationalPropagator, error) {
	for v, n := range translationalNames {
		if n == name {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown translational propagator: %s", name)
}

// RotationalPropagator selects the attitude coordinates. The conventional
// rotational state is always a quaternion plus angular velocity.
type RotationalPropagator int

const (
	UndefinedRotational         RotationalPropagator = 0
	Quaternions                 RotationalPropagator = 1
	ModifiedRodriguesParameters RotationalPropagator = 2
	ExponentialMap              RotationalPropagator = 3
)

var rotationalNames = map[RotationalPropagator]string{
	UndefinedRotational:         "undefined_rotational_propagator",
	Quaternions:                 "quaternions",
	ModifiedRodriguesParameters: "modified_rodrigues_parameters",
	ExponentialMap:              "exponential_map",
}

func (p RotationalPropagator) String() string {
	if name, ok := rotationalNames[p]; ok {
		return name
	}
	return fmt.Sprintf("RotationalPropagator(%d)", int(p))
}

func (p RotationalPropagator) Defined() bool {
	_, ok := rotationalNames[p]
	return ok && p != UndefinedRotational
}

// ProcessedSize: quaternions 4+3, MRP 3 plus shadow flag plus 3, exponential
// map 3 plus shadow flag plus 3.
func (p RotationalPropagator) ProcessedSize() int {
	return 7
}

func (p RotationalPropagator) MarshalText() ([]byte, error) {
	name, ok := rotationalNames[p]
	if !ok {
		return nil, fmt.Errorf("unknown rotational propagator %d", int(p))
	}
	return []byte(name), nil
}

func (p *RotationalPropagator) UnmarshalText(text []byte) error {
	v, err := ParseRotationalPropagator(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func ParseRotationalPropagator(name string) (RotationalPropagator, error) {
	for v, n := range rotationalNames {
		if n == name {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown rotational propagator: %s", name)
}
