package propagation

import (
	"fmt"

	"github.com/san-kum/propsetup/internal/dynamo"
	"github.com/san-kum/propsetup/internal/environment"
	"github.com/san-kum/propsetup/internal/statetype"
	"github.com/san-kum/propsetup/internal/termination"
)

// Mass propagates one mass per body.
type Mass struct {
	common
	bodies    []string
	massRates environment.Handle
	initial   dynamo.State

	system *environment.MassRate
}

func NewMass(bodies []string, massRates environment.Handle, initialMasses dynamo.State, term termination.Condition, opts ...Option) (*Mass, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	c, err := newCommon(term, o)
	if err != nil {
		return nil, err
	}
	bodies, err = bodyList(statetype.Mass, bodies)
	if err != nil {
		return nil, err
	}
	if massRates.IsZero() {
		return nil, fmt.Errorf("%w: mass settings need mass rate models", dynamo.ErrInvalidArgument)
	}
	s := &Mass{common: c, bodies: bodies, massRates: massRates}
	if err := s.ResetInitialStates(initialMasses); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Mass) StateType() statetype.StateType     { return statetype.Mass }
func (s *Mass) BodiesWithMass() []string           { return append([]string(nil), s.bodies...) }
func (s *Mass) MassRateModels() environment.Handle { return s.massRates }
func (s *Mass) InitialStates() dynamo.State        { return s.initial.Clone() }
func (s *Mass) PropagatedStateSize() int           { return len(s.bodies) }
func (s *Mass) Contributions() []Contribution      { return contributionsOf(statetype.Mass, s.bodies) }
func (s *Mass) isSettings()                        {}
func (s *Mass) isSingleArc()                       {}

func (s *Mass) ResetInitialStates(x dynamo.State) error {
	if err := checkSize("initial masses", x, s.PropagatedStateSize()); err != nil {
		return err
	}
	s.initial = x.Clone()
	return nil
}

func (s *Mass) RecreateStateDerivativeModels(env *environment.Registry) error {
	if env == nil {
		return fmt.Errorf("%w: no environment", dynamo.ErrInvalidArgument)
	}
	models, err := env.CreateMassRateModels(s.massRates, s.bodies)
	if err != nil {
		return fmt.Errorf("create mass rate models: %w", err)
	}
	s.system = environment.NewMassRate(models)
	return nil
}

func (s *Mass) StateDerivative() (dynamo.System, error) {
	if s.system == nil {
		return nil, errNotCreated("mass")
	}
	return s.system, nil
}

func (s *Mass) Blocks() ([]environment.Block, error) {
	if s.system == nil {
		return nil, errNotCreated("mass")
	}
	return []environment.Block{{Type: statetype.Mass, Bodies: s.BodiesWithMass(), System: s.system}}, nil
}
