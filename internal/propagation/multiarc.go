package propagation

import (
	"fmt"
	"math"
	"slices"

	"github.com/san-kum/propsetup/internal/dynamo"
	"github.com/san-kum/propsetup/internal/environment"
)

// MultiArcView is the read-only side of a multi-arc description.
type MultiArcView interface {
	NumberOfArcs() int
	ArcView(i int) SingleArcView
	ArcStartTimes() []float64
	TransferStateToNextArc() bool
	InitialStates() dynamo.State
	PropagatedStateSize() int
}

// MultiArc propagates one single arc per time arc. With state transfer, each
// arc after the first starts from the final propagated state of the previous
// one and its own initial state is only a placeholder.
type MultiArc struct {
	arcs       []SingleArc
	startTimes []float64
	transfer   bool
	// set once the multi-arc is part of a hybrid arc
	hybrid     *HybridArc
}

func NewMultiArc(arcs []SingleArc, arcStartTimes []float64, transferStateToNextArc bool) (*MultiArc, error) {
	if len(arcs) == 0 {
		return nil, fmt.Errorf("%w: multi-arc settings have no arcs", dynamo.ErrInvalidArgument)
	}
	if len(arcStartTimes) != len(arcs) {
		return nil, fmt.Errorf("%w: %d arc start times for %d arcs", dynamo.ErrDimensionMismatch, len(arcStartTimes), len(arcs))
	}
	for i, a := range arcs {
		if a == nil {
			return nil, fmt.Errorf("%w: arc %d is nil", dynamo.ErrInvalidArgument, i)
		}
	}
	if err := checkIncreasing(arcStartTimes); err != nil {
		return nil, err
	}
	s := &MultiArc{
		arcs:       append([]SingleArc(nil), arcs...),
		startTimes: append([]float64(nil), arcStartTimes...),
		transfer:   transferStateToNextArc,
	}
	if transferStateToNextArc {
		for i := 1; i < len(arcs); i++ {
			if err := transferable(arcs[i-1], arcs[i]); err != nil {
				return nil, fmt.Errorf("arcs %d and %d: %w", i-1, i, err)
			}
		}
	}
	return s, nil
}

func checkIncreasing(times []float64) error {
	for i, t := range times {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Errorf("%w: arc time %d is %v", dynamo.ErrInvalidArgument, i, t)
		}
		if i > 0 && t <= times[i-1] {
			return fmt.Errorf("%w: arc time %d (%g) does not follow %g", dynamo.ErrNonMonotonic, i, t, times[i-1])
		}
	}
	return nil
}

// transferable checks that the final state of prev can seed next.
func transferable(prev, next SingleArcView) error {
	if prev.StateType() != next.StateType() {
		return fmt.Errorf("%w: cannot transfer a %s state into a %s arc", dynamo.ErrDimensionMismatch, prev.StateType(), next.StateType())
	}
	if prev.PropagatedStateSize() != next.PropagatedStateSize() {
		return fmt.Errorf("%w: cannot transfer %d entries into an arc of size %d", dynamo.ErrDimensionMismatch, prev.PropagatedStateSize(), next.PropagatedStateSize())
	}
	if !slices.Equal(prev.Contributions(), next.Contributions()) {
		return fmt.Errorf("%w: consecutive arcs propagate different bodies", dynamo.ErrDimensionMismatch)
	}
	return nil
}

func (s *MultiArc) isSettings() {}

func (s *MultiArc) NumberOfArcs() int            { return len(s.arcs) }
func (s *MultiArc) ArcStartTimes() []float64     { return append([]float64(nil), s.startTimes...) }
func (s *MultiArc) TransferStateToNextArc() bool { return s.transfer }
func (s *MultiArc) Arcs() []SingleArc            { return append([]SingleArc(nil), s.arcs...) }

// Arc returns the settings of arc i; it panics when i is out of range.
func (s *MultiArc) Arc(i int) SingleArc { return s.arcs[i] }

func (s *MultiArc) ArcView(i int) SingleArcView { return s.arcs[i] }

// ReplaceArc swaps the settings of arc i after checking that the new arc
// fits its neighbours.
func (s *MultiArc) ReplaceArc(i int, arc SingleArc) error {
	if i < 0 || i >= len(s.arcs) {
		return fmt.Errorf("%w: arc %d out of range [0, %d)", dynamo.ErrInvalidArgument, i, len(s.arcs))
	}
	if arc == nil {
		return fmt.Errorf("%w: arc %d is nil", dynamo.ErrInvalidArgument, i)
	}
	if s.hybrid != nil {
		if err := disjoint(s.hybrid.single, arc); err != nil {
			return fmt.Errorf("single arc and arc %d: %w", i, err)
		}
	}
	if s.transfer {
		if i > 0 {
			if err := transferable(s.arcs[i-1], arc); err != nil {
				return fmt.Errorf("arcs %d and %d: %w", i-1, i, err)
			}
		}
		if i+1 < len(s.arcs) {
			if err := transferable(arc, s.arcs[i+1]); err != nil {
				return fmt.Errorf("arcs %d and %d: %w", i, i+1, err)
			}
		}
	}
	s.arcs[i] = arc
	return nil
}

func (s *MultiArc) PropagatedStateSize() int {
	n := 0
	for _, a := range s.arcs {
		n += a.PropagatedStateSize()
	}
	return n
}

func (s *MultiArc) arcSizes() []int {
	sizes := make([]int, len(s.arcs))
	for i, a := range s.arcs {
		sizes[i] = a.PropagatedStateSize()
	}
	return sizes
}

// InitialStates concatenates the initial states of all arcs.
func (s *MultiArc) InitialStates() dynamo.State {
	return CombineInitialStates(s.arcs)
}

// ArcInitialStates returns the initial state of every arc.
func (s *MultiArc) ArcInitialStates() []dynamo.State {
	out := make([]dynamo.State, len(s.arcs))
	for i, a := range s.arcs {
		out[i] = a.InitialStates()
	}
	return out
}

// ResetInitialStates splits x over the arcs.
func (s *MultiArc) ResetInitialStates(x dynamo.State) error {
	parts, err := dynamo.Split(x, s.arcSizes())
	if err != nil {
		return fmt.Errorf("multi-arc initial state: %w", err)
	}
	for i, a := range s.arcs {
		if err := a.ResetInitialStates(parts[i]); err != nil {
			return fmt.Errorf("arc %d: %w", i, err)
		}
	}
	return nil
}

func (s *MultiArc) RecreateStateDerivativeModels(env *environment.Registry) error {
	for i, a := range s.arcs {
		if err := a.RecreateStateDerivativeModels(env); err != nil {
			return fmt.Errorf("arc %d: %w", i, err)
		}
	}
	return nil
}
