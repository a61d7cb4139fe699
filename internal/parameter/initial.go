package parameter

import (
	"fmt"

	"github.com/san-kum/propsetup/internal/dynamo"
	"github.com/san-kum/propsetup/internal/propagation"
	"github.com/san-kum/propsetup/internal/statetype"
)

// NewInitialStates returns the initial-state parameters of every body
// propagated by ps: translational and rotational states of single arcs,
// arc-wise translational states of multi-arcs, both for hybrid arcs. Mass
// states are not estimated.
func NewInitialStates(ps propagation.Settings) ([]*Settings, error) {
	switch s := ps.(type) {
	case propagation.SingleArc:
		return singleArcStates(s)
	case *propagation.MultiArc:
		return multiArcStates(s)
	case *propagation.HybridArc:
		single, err := singleArcStates(s.SingleArc())
		if err != nil {
			return nil, err
		}
		multi, ok := s.MultiArc().(*propagation.MultiArc)
		if !ok {
			return nil, fmt.Errorf("%w: unsupported multi-arc view %T", dynamo.ErrInvalidArgument, s.MultiArc())
		}
		arcs, err := multiArcStates(multi)
		if err != nil {
			return nil, err
		}
		return append(single, arcs...), nil
	case nil:
		return nil, fmt.Errorf("%w: nil propagation settings", dynamo.ErrInvalidArgument)
	default:
		return nil, fmt.Errorf("%w: unsupported propagation settings %T", dynamo.ErrInvalidArgument, ps)
	}
}

func singleArcStates(s propagation.SingleArcView) ([]*Settings, error) {
	switch s := s.(type) {
	case *propagation.Translational:
		x := s.InitialStates()
		central := s.CentralBodies()
		var out []*Settings
		for i, body := range s.BodiesToIntegrate() {
			p := newSettings(body, InitialBodyState)
			p.centralBody = central[i]
			p.initial = x[6*i : 6*i+6].Clone()
			out = append(out, p)
		}
		return out, nil
	case *propagation.Rotational:
		x := s.InitialStates()
		var out []*Settings
		for i, body := range s.BodiesToIntegrate() {
			p := newSettings(body, InitialRotationalBodyState)
			p.initial = x[7*i : 7*i+7].Clone()
			out = append(out, p)
		}
		return out, nil
	case *propagation.Mass:
		return nil, nil
	case *propagation.MultiType:
		var out []*Settings
		for _, m := range s.Members() {
			ps, err := singleArcStates(m)
			if err != nil {
				return nil, err
			}
			out = append(out, ps...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unsupported single-arc settings %T", dynamo.ErrInvalidArgument, s)
	}
}

// multiArcStates builds one arc-wise parameter per translational body, over
// the arcs that propagate it.
func multiArcStates(s *propagation.MultiArc) ([]*Settings, error) {
	starts := s.ArcStartTimes()
	var order []string
	params := make(map[string]*Settings)
	for i, arc := range s.Arcs() {
		states, err := singleArcStates(arc)
		if err != nil {
			return nil, fmt.Errorf("arc %d: %w", i, err)
		}
		for _, st := range states {
			if st.typ != InitialBodyState {
				return nil, fmt.Errorf("%w: arc-wise %s of %s is not supported", dynamo.ErrInvalidArgument, statetype.Rotational, st.body)
			}
			p, ok := params[st.body]
			if !ok {
				p = newSettings(st.body, ArcWiseInitialBodyState)
				p.centralBody = st.centralBody
				params[st.body] = p
				order = append(order, st.body)
			}
			p.arcTimes = append(p.arcTimes, starts[i])
			p.initial = append(p.initial, st.initial...)
		}
	}
	out := make([]*Settings, len(order))
	for i, body := range order {
		out[i] = params[body]
	}
	return out, nil
}
