package propagation

import (
	"fmt"

	"github.com/san-kum/propsetup/internal/dynamo"
	"github.com/san-kum/propsetup/internal/environment"
	"github.com/san-kum/propsetup/internal/statetype"
	"github.com/san-kum/propsetup/internal/termination"
)

// MultiType propagates several single-type arcs as one state vector, the
// concatenation of the members' states in list order. All members share
// the multi-type's termination condition instance. Members belong to the
// multi-type once added: their termination can only be reset through it, and
// replacing a member's models invalidates the composed derivative until the
// multi-type recreates it.
type MultiType struct {
	common
	members []SingleArc

	system   *environment.Composite
	// member derivatives the composite was built from
	composed []dynamo.System
}

func NewMultiType(members []SingleArc, term termination.Condition, opts ...Option) (*MultiType, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	c, err := newCommon(term, o)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: multi-type settings have no members", dynamo.ErrInvalidArgument)
	}
	views := make([]SingleArcView, len(members))
	for i, m := range members {
		if m == nil {
			return nil, fmt.Errorf("%w: multi-type member %d is nil", dynamo.ErrInvalidArgument, i)
		}
		if _, nested := m.(*MultiType); nested {
			return nil, fmt.Errorf("%w: multi-type member %d is itself multi-type", dynamo.ErrInvalidArgument, i)
		}
		if m.base().member {
			return nil, fmt.Errorf("%w: multi-type member %d (%s) already belongs to a multi-type", dynamo.ErrInvalidArgument, i, m.StateType())
		}
		if m.Termination() != term {
			return nil, fmt.Errorf("%w: multi-type member %d (%s) does not share the termination condition", dynamo.ErrInvalidArgument, i, m.StateType())
		}
		views[i] = m
	}
	if err := disjoint(views...); err != nil {
		return nil, err
	}
	for _, m := range members {
		m.base().member = true
	}
	return &MultiType{common: c, members: append([]SingleArc(nil), members...)}, nil
}

func (s *MultiType) StateType() statetype.StateType { return statetype.Hybrid }
func (s *MultiType) isSettings()                    {}
func (s *MultiType) isSingleArc()                   {}

// Members returns the member settings in state-vector order.
func (s *MultiType) Members() []SingleArc { return append([]SingleArc(nil), s.members...) }

// SingleTypeSettings returns the members propagating st, in order.
func (s *MultiType) SingleTypeSettings(st statetype.StateType) []SingleArc {
	var out []SingleArc
	for _, m := range s.members {
		if m.StateType() == st {
			out = append(out, m)
		}
	}
	return out
}

// PerType groups the members by state type.
func (s *MultiType) PerType() map[statetype.StateType][]SingleArc {
	out := make(map[statetype.StateType][]SingleArc)
	for _, m := range s.members {
		out[m.StateType()] = append(out[m.StateType()], m)
	}
	return out
}

func (s *MultiType) Contributions() []Contribution {
	var out []Contribution
	for _, m := range s.members {
		out = append(out, m.Contributions()...)
	}
	return out
}

func (s *MultiType) PropagatedStateSize() int {
	n := 0
	for _, m := range s.members {
		n += m.PropagatedStateSize()
	}
	return n
}

func (s *MultiType) memberSizes() []int {
	sizes := make([]int, len(s.members))
	for i, m := range s.members {
		sizes[i] = m.PropagatedStateSize()
	}
	return sizes
}

// InitialStates concatenates the member initial states in list order.
func (s *MultiType) InitialStates() dynamo.State {
	return CombineInitialStates(s.members)
}

// SplitInitialStates cuts x into per-member vectors by each member's size.
func (s *MultiType) SplitInitialStates(x dynamo.State) ([]dynamo.State, error) {
	return dynamo.Split(x, s.memberSizes())
}

// ResetInitialStates splits x over the members. Nothing is changed unless
// x has exactly the propagated size.
func (s *MultiType) ResetInitialStates(x dynamo.State) error {
	parts, err := s.SplitInitialStates(x)
	if err != nil {
		return fmt.Errorf("multi-type initial state: %w", err)
	}
	for i, m := range s.members {
		if err := m.ResetInitialStates(parts[i]); err != nil {
			return err
		}
	}
	return nil
}

// ResetTermination replaces the condition on the multi-type and on every
// member.
func (s *MultiType) ResetTermination(term termination.Condition) error {
	if err := s.common.ResetTermination(term); err != nil {
		return err
	}
	for _, m := range s.members {
		m.base().termination = term
	}
	return nil
}

// RecreateStateDerivativeModels rebuilds every member's models and the
// composed derivative.
func (s *MultiType) RecreateStateDerivativeModels(env *environment.Registry) error {
	for _, m := range s.members {
		if err := m.RecreateStateDerivativeModels(env); err != nil {
			return fmt.Errorf("%s member: %w", m.StateType(), err)
		}
	}
	return s.compose()
}

// ResetAndRecreateAccelerationModels swaps the acceleration map of the
// translational member at index member and rebuilds the composed derivative.
// On failure the settings are left unchanged.
func (s *MultiType) ResetAndRecreateAccelerationModels(member int, accelerations environment.Handle, env *environment.Registry) error {
	if member < 0 || member >= len(s.members) {
		return fmt.Errorf("%w: member %d out of range [0, %d)", dynamo.ErrInvalidArgument, member, len(s.members))
	}
	tr, ok := s.members[member].(*Translational)
	if !ok {
		return fmt.Errorf("%w: member %d propagates %s, not translational state", dynamo.ErrInvalidArgument, member, s.members[member].StateType())
	}
	if err := tr.ResetAndRecreateAccelerationModels(accelerations, env); err != nil {
		return err
	}
	return s.compose()
}

// compose builds the composite from the members' current derivatives.
func (s *MultiType) compose() error {
	composed := make([]dynamo.System, len(s.members))
	for i, m := range s.members {
		sys, err := m.StateDerivative()
		if err != nil {
			return fmt.Errorf("%s member: %w", m.StateType(), err)
		}
		composed[i] = sys
	}
	blocks, err := s.memberBlocks()
	if err != nil {
		return err
	}
	system, err := environment.NewComposite(blocks)
	if err != nil {
		return err
	}
	s.system = system
	s.composed = composed
	return nil
}

// current reports whether the composite still wraps the members' derivatives.
func (s *MultiType) current() bool {
	if s.system == nil {
		return false
	}
	for i, m := range s.members {
		sys, err := m.StateDerivative()
		if err != nil || sys != s.composed[i] {
			return false
		}
	}
	return true
}

func (s *MultiType) memberBlocks() ([]environment.Block, error) {
	var blocks []environment.Block
	offset := 0
	for _, m := range s.members {
		mb, err := m.Blocks()
		if err != nil {
			return nil, err
		}
		for _, b := range mb {
			b.Offset += offset
			blocks = append(blocks, b)
		}
		offset += m.PropagatedStateSize()
	}
	return blocks, nil
}

func (s *MultiType) StateDerivative() (dynamo.System, error) {
	if !s.current() {
		return nil, errNotCreated("multi-type")
	}
	return s.system, nil
}

func (s *MultiType) Blocks() ([]environment.Block, error) {
	if !s.current() {
		return nil, errNotCreated("multi-type")
	}
	return s.system.Blocks(), nil
}

// CombineInitialStates concatenates the initial states of arcs in order.
func CombineInitialStates(arcs []SingleArc) dynamo.State {
	parts := make([]dynamo.State, len(arcs))
	for i, a := range arcs {
		parts[i] = a.InitialStates()
	}
	return dynamo.Concat(parts...)
}
