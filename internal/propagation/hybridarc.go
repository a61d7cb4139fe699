package propagation

import (
	"fmt"

	"github.com/san-kum/propsetup/internal/dynamo"
	"github.com/san-kum/propsetup/internal/environment"
)

// HybridArc pairs a single-arc problem with a multi-arc problem on a shared
// time base. The two propagate disjoint sets of (state type, body).
type HybridArc struct {
	single SingleArc
	multi  *MultiArc
}

func NewHybridArc(single SingleArc, multi *MultiArc) (*HybridArc, error) {
	if single == nil || multi == nil {
		return nil, fmt.Errorf("%w: hybrid-arc settings need a single-arc and a multi-arc part", dynamo.ErrInvalidArgument)
	}
	for i, arc := range multi.arcs {
		if err := disjoint(single, arc); err != nil {
			return nil, fmt.Errorf("single arc and arc %d: %w", i, err)
		}
	}
	if multi.hybrid != nil {
		return nil, fmt.Errorf("%w: multi-arc settings already belong to a hybrid arc", dynamo.ErrInvalidArgument)
	}
	h := &HybridArc{single: single, multi: multi}
	multi.hybrid = h
	return h, nil
}

func (s *HybridArc) isSettings() {}

func (s *HybridArc) SingleArc() SingleArcView { return s.single }
func (s *HybridArc) MultiArc() MultiArcView   { return s.multi }

func (s *HybridArc) SingleArcSize() int { return s.single.PropagatedStateSize() }
func (s *HybridArc) MultiArcSize() int  { return s.multi.PropagatedStateSize() }

func (s *HybridArc) PropagatedStateSize() int {
	return s.SingleArcSize() + s.MultiArcSize()
}

// InitialStates is the single-arc state followed by all multi-arc states.
func (s *HybridArc) InitialStates() dynamo.State {
	return dynamo.Concat(s.single.InitialStates(), s.multi.InitialStates())
}

// ResetInitialStates splits x into the single-arc and multi-arc parts.
func (s *HybridArc) ResetInitialStates(x dynamo.State) error {
	parts, err := dynamo.Split(x, []int{s.SingleArcSize(), s.MultiArcSize()})
	if err != nil {
		return fmt.Errorf("hybrid-arc initial state: %w", err)
	}
	if err := s.single.ResetInitialStates(parts[0]); err != nil {
		return err
	}
	return s.multi.ResetInitialStates(parts[1])
}

func (s *HybridArc) RecreateStateDerivativeModels(env *environment.Registry) error {
	if err := s.single.RecreateStateDerivativeModels(env); err != nil {
		return fmt.Errorf("single arc: %w", err)
	}
	if err := s.multi.RecreateStateDerivativeModels(env); err != nil {
		return fmt.Errorf("multi arc: %w", err)
	}
	return nil
}
