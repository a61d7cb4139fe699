// Package statetype enumerates the propagated state categories and their
// coordinate representations.
//
// The numeric value and the symbolic name of every constant are a stable
// contract: persisted scenarios and stored results refer to them by value.
// New variants are appended; existing ones are never renumbered.
package statetype

import "fmt"

type StateType int

const (
	Translational StateType = 0
	Rotational    StateType = 1
	Mass          StateType = 2
	// Hybrid is the state type reported by multi-type settings.
	Hybrid        StateType = 3
)

var stateTypeNames = map[StateType]string{
	Translational: "translational",
	Rotational:    "rotational",
	Mass:          "mass",
	Hybrid:        "hybrid",
}

func (s StateType) String() string {
	if name, ok := stateTypeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("StateType(%d)", int(s))
}

// SizePerBody is the size of the conventional state of one body. Hybrid has
// no fixed per-body size and reports 0.
func (s StateType) SizePerBody() int {
	switch s {
	case Translational:
		return 6
	case Rotational:
		return 7
	case Mass:
		return 1
	default:
		return 0
	}
}

func (s StateType) MarshalText() ([]byte, error) {
	name, ok := stateTypeNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown state type %d", int(s))
	}
	return []byte(name), nil
}

func (s *StateType) UnmarshalText(text []byte) error {
	v, err := ParseStateType(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func ParseStateType(name string) (StateType, error) {
	for v, n := range stateTypeNames {
		if n == name {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown state type: %s", name)
}
