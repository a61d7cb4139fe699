package propagation

import (
	"fmt"

	"github.com/san-kum/propsetup/internal/dynamo"
	"github.com/san-kum/propsetup/internal/environment"
	"github.com/san-kum/propsetup/internal/statetype"
	"github.com/san-kum/propsetup/internal/termination"
)

// Translational propagates position and velocity of a set of bodies, each
// relative to its own central body. The initial state is body-major, six
// entries per body, whatever the propagator representation.
type Translational struct {
	common
	central       []string
	bodies        []string
	accelerations environment.Handle
	initial       dynamo.State
	propagator    statetype.TranslationalPropagator

	system *environment.Cowell
}

func NewTranslational(central, bodies []string, accelerations environment.Handle, initial dynamo.State, term termination.Condition, opts ...Option) (*Translational, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	c, err := newCommon(term, o)
	if err != nil {
		return nil, err
	}
	bodies, err = bodyList(statetype.Translational, bodies)
	if err != nil {
		return nil, err
	}
	if len(central) != len(bodies) {
		return nil, fmt.Errorf("%w: %d central bodies for %d integrated bodies", dynamo.ErrDimensionMismatch, len(central), len(bodies))
	}
	if accelerations.IsZero() {
		return nil, fmt.Errorf("%w: translational settings need acceleration models", dynamo.ErrInvalidArgument)
	}
	if !o.translational.Defined() {
		return nil, fmt.Errorf("%w: translational propagator %s", dynamo.ErrInvalidArgument, o.translational)
	}
	s := &Translational{
		common:        c,
		central:       append([]string(nil), central...),
		bodies:        bodies,
		accelerations: accelerations,
		propagator:    o.translational,
	}
	if err := s.ResetInitialStates(initial); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Translational) StateType() statetype.StateType                { return statetype.Translational }
func (s *Translational) CentralBodies() []string                       { return append([]string(nil), s.central...) }
func (s *Translational) BodiesToIntegrate() []string                   { return append([]string(nil), s.bodies...) }
func (s *Translational) AccelerationModels() environment.Handle        { return s.accelerations }
func (s *Translational) Propagator() statetype.TranslationalPropagator { return s.propagator }
func (s *Translational) InitialStates() dynamo.State                   { return s.initial.Clone() }
func (s *Translational) PropagatedStateSize() int                      { return statetype.Translational.SizePerBody() * len(s.bodies) }
func (s *Translational) Contributions() []Contribution                 { return contributionsOf(statetype.Translational, s.bodies) }
func (s *Translational) isSettings()                                   {}
func (s *Translational) isSingleArc()                                  {}

func (s *Translational) ResetInitialStates(x dynamo.State) error {
	if err := checkSize("translational initial state", x, s.PropagatedStateSize()); err != nil {
		return err
	}
	s.initial = x.Clone()
	return nil
}

// ResetAndRecreateAccelerationModels swaps the acceleration map and rebuilds
// the derivative model from it. On failure the settings are left unchanged.
func (s *Translational) ResetAndRecreateAccelerationModels(accelerations environment.Handle, env *environment.Registry) error {
	if accelerations.IsZero() {
		return fmt.Errorf("%w: translational settings need acceleration models", dynamo.ErrInvalidArgument)
	}
	system, err := s.build(accelerations, env)
	if err != nil {
		return err
	}
	s.accelerations = accelerations
	s.system = system
	return nil
}

// RecreateStateDerivativeModels rebuilds the derivative model from the
// current settings.
func (s *Translational) RecreateStateDerivativeModels(env *environment.Registry) error {
	system, err := s.build(s.accelerations, env)
	if err != nil {
		return err
	}
	s.system = system
	return nil
}

func (s *Translational) build(h environment.Handle, env *environment.Registry) (*environment.Cowell, error) {
	if env == nil {
		return nil, fmt.Errorf("%w: no environment", dynamo.ErrInvalidArgument)
	}
	models, err := env.CreateAccelerationModels(h, s.bodies, s.central)
	if err != nil {
		return nil, fmt.Errorf("create acceleration models: %w", err)
	}
	// every representation is propagated through its Cartesian state
	return environment.NewCowell(models), nil
}

func (s *Translational) StateDerivative() (dynamo.System, error) {
	if s.system == nil {
		return nil, errNotCreated("translational")
	}
	return s.system, nil
}

func (s *Translational) Blocks() ([]environment.Block, error) {
	if s.system == nil {
		return nil, errNotCreated("translational")
	}
	return []environment.Block{{
		Type:    statetype.Translational,
		Bodies:  s.BodiesToIntegrate(),
		Central: s.CentralBodies(),
		System:  s.system,
	}}, nil
}
