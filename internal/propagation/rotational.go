package propagation

import (
	"fmt"

	"github.com/san-kum/propsetup/internal/dynamo"
	"github.com/san-kum/propsetup/internal/environment"
	"github.com/san-kum/propsetup/internal/statetype"
	"github.com/san-kum/propsetup/internal/termination"
)

// Rotational propagates attitude and angular velocity, seven entries per
// body: quaternion (w, x, y, z) then body-frame angular velocity.
type Rotational struct {
	common
	bodies     []string
	torques    environment.Handle
	initial    dynamo.State
	propagator statetype.RotationalPropagator

	system *environment.RigidBody
}

func NewRotational(torques environment.Handle, bodies []string, initial dynamo.State, term termination.Condition, opts ...Option) (*Rotational, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	c, err := newCommon(term, o)
	if err != nil {
		return nil, err
	}
	bodies, err = bodyList(statetype.Rotational, bodies)
	if err != nil {
		return nil, err
	}
	if torques.IsZero() {
		return nil, fmt.Errorf("%w: rotational settings need torque models", dynamo.ErrInvalidArgument)
	}
	if !o.rotational.Defined() {
		return nil, fmt.Errorf("%w: rotational propagator %s", dynamo.ErrInvalidArgument, o.rotational)
	}
	s := &Rotational{
		common:     c,
		bodies:     bodies,
		torques:    torques,
		propagator: o.rotational,
	}
	if err := s.ResetInitialStates(initial); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Rotational) StateType() statetype.StateType             { return statetype.Rotational }
func (s *Rotational) BodiesToIntegrate() []string                { return append([]string(nil), s.bodies...) }
func (s *Rotational) TorqueModels() environment.Handle           { return s.torques }
func (s *Rotational) Propagator() statetype.RotationalPropagator { return s.propagator }
func (s *Rotational) InitialStates() dynamo.State                { return s.initial.Clone() }
func (s *Rotational) PropagatedStateSize() int                   { return statetype.Rotational.SizePerBody() * len(s.bodies) }
func (s *Rotational) Contributions() []Contribution              { return contributionsOf(statetype.Rotational, s.bodies) }
func (s *Rotational) isSettings()                                {}
func (s *Rotational) isSingleArc()                               {}

func (s *Rotational) ResetInitialStates(x dynamo.State) error {
	if err := checkSize("rotational initial state", x, s.PropagatedStateSize()); err != nil {
		return err
	}
	s.initial = x.Clone()
	return nil
}

func (s *Rotational) RecreateStateDerivativeModels(env *environment.Registry) error {
	if env == nil {
		return fmt.Errorf("%w: no environment", dynamo.ErrInvalidArgument)
	}
	models, err := env.CreateTorqueModels(s.torques, s.bodies)
	if err != nil {
		return fmt.Errorf("create torque models: %w", err)
	}
	s.system = environment.NewRigidBody(models)
	return nil
}

func (s *Rotational) StateDerivative() (dynamo.System, error) {
	if s.system == nil {
		return nil, errNotCreated("rotational")
	}
	return s.system, nil
}

func (s *Rotational) Blocks() ([]environment.Block, error) {
	if s.system == nil {
		return nil, errNotCreated("rotational")
	}
	return []environment.Block{{Type: statetype.Rotational, Bodies: s.BodiesToIntegrate(), System: s.system}}, nil
}
