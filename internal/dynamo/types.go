package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// Concat joins the parts in order into a new vector.
func Concat(parts ...State) State {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make(State, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Split cuts x into consecutive sub-vectors of the given sizes. The sizes
// must cover x exactly; every returned part is an independent copy.
func Split(x State, sizes []int) ([]State, error) {
	total := 0
	for i, n := range sizes {
		if n < 0 {
			return nil, fmt.Errorf("%w: negative size %d at position %d", ErrDimensionMismatch, n, i)
		}
		total += n
	}
	if total != len(x) {
		return nil, fmt.Errorf("%w: sizes sum to %d, vector has %d entries", ErrDimensionMismatch, total, len(x))
	}

	parts := make([]State, len(sizes))
	offset := 0
	for i, n := range sizes {
		parts[i] = x[offset : offset+n].Clone()
		offset += n
	}
	return parts, nil
}

// System is a state derivative model.
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

type Hamiltonian interface {
	Energy(x State) float64
}

type Integrator interface {
	Step(dyn System, x State, t float64, dt float64) State
}

type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(dyn System, x State, t, dt, tol float64) (State, float64, error)
}
