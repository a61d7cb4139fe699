package propagation

import (
	"fmt"
	"math"

	"github.com/san-kum/propsetup/internal/dynamo"
	"github.com/san-kum/propsetup/internal/environment"
	"github.com/san-kum/propsetup/internal/output"
	"github.com/san-kum/propsetup/internal/statetype"
	"github.com/san-kum/propsetup/internal/termination"
)

// Settings is implemented by every propagation description.
type Settings interface {
	InitialStates() dynamo.State
	ResetInitialStates(x dynamo.State) error
	PropagatedStateSize() int
	RecreateStateDerivativeModels(env *environment.Registry) error
	isSettings()
}

// SingleArcView is the read-only side of a single-arc description.
type SingleArcView interface {
	StateType() statetype.StateType
	InitialStates() dynamo.State
	PropagatedStateSize() int
	Termination() termination.Condition
	Outputs() output.Selection
	PrintInterval() float64
	// StateDerivative returns the cached derivative model.
	StateDerivative() (dynamo.System, error)
	// Blocks returns where each propagated body lives in the state vector.
	Blocks() ([]environment.Block, error)
	Contributions() []Contribution
}

// SingleArc is one propagable unit: [Translational], [Rotational], [Mass] or
// [MultiType].
type SingleArc interface {
	Settings
	SingleArcView
	ResetTermination(c termination.Condition) error
	isSingleArc()
	base() *common
}

// Contribution is one (state type, body) pair a single arc propagates.
type Contribution struct {
	Type statetype.StateType
	Body string
}

func (c Contribution) String() string { return c.Type.String() + ":" + c.Body }

type options struct {
	outputs       output.Selection
	printInterval float64
	translational statetype.TranslationalPropagator
	rotational    statetype.RotationalPropagator
}

type Option func(*options)

// WithOutputs selects the dependent variables recorded with the state.
func WithOutputs(s output.Selection) Option {
	return func(o *options) { o.outputs = s }
}

// WithPrintInterval sets the diagnostic cadence in simulation time; zero
// disables it.
func WithPrintInterval(dt float64) Option {
	return func(o *options) { o.printInterval = dt }
}

func WithTranslationalPropagator(p statetype.TranslationalPropagator) Option {
	return func(o *options) { o.translational = p }
}

func WithRotationalPropagator(p statetype.RotationalPropagator) Option {
	return func(o *options) { o.rotational = p }
}

func buildOptions(opts []Option) (options, error) {
	o := options{
		translational: statetype.Cowell,
		rotational:    statetype.Quaternions,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if math.IsNaN(o.printInterval) || o.printInterval < 0 {
		return o, fmt.Errorf("%w: print interval must be non-negative, got %v", dynamo.ErrInvalidArgument, o.printInterval)
	}
	return o, nil
}

// common holds what every single arc carries. A member of a multi-type is
// owned by it: its termination follows the multi-type's.
type common struct {
	termination   termination.Condition
	outputs       output.Selection
	printInterval float64
	member        bool
}

func newCommon(term termination.Condition, o options) (common, error) {
	if term == nil {
		return common{}, fmt.Errorf("%w: single arc settings need a termination condition", dynamo.ErrInvalidArgument)
	}
	return common{termination: term, outputs: o.outputs, printInterval: o.printInterval}, nil
}

func (c *common) Termination() termination.Condition { return c.termination }
func (c *common) Outputs() output.Selection          { return c.outputs }
func (c *common) PrintInterval() float64             { return c.printInterval }
func (c *common) base() *common                      { return c }

func (c *common) ResetTermination(term termination.Condition) error {
	if term == nil {
		return fmt.Errorf("%w: nil termination condition", dynamo.ErrInvalidArgument)
	}
	if c.member {
		return fmt.Errorf("%w: arc is a multi-type member, reset the multi-type's termination instead", dynamo.ErrInvalidArgument)
	}
	c.termination = term
	return nil
}

// bodyList validates the bodies propagated by one single-type arc.
func bodyList(st statetype.StateType, bodies []string) ([]string, error) {
	if len(bodies) == 0 {
		return nil, fmt.Errorf("%w: %s settings propagate no body", dynamo.ErrInvalidArgument, st)
	}
	seen := make(map[string]bool, len(bodies))
	for _, b := range bodies {
		if b == "" {
			return nil, fmt.Errorf("%w: empty body name", dynamo.ErrInvalidArgument)
		}
		if seen[b] {
			return nil, fmt.Errorf("%w: %s state of %s listed twice", dynamo.ErrDuplicateContribution, st, b)
		}
		seen[b] = true
	}
	return append([]string(nil), bodies...), nil
}

func checkSize(what string, x dynamo.State, want int) error {
	if len(x) != want {
		return fmt.Errorf("%w: %s has %d entries, expected %d", dynamo.ErrDimensionMismatch, what, len(x), want)
	}
	return nil
}

func contributionsOf(st statetype.StateType, bodies []string) []Contribution {
	out := make([]Contribution, len(bodies))
	for i, b := range bodies {
		out[i] = Contribution{Type: st, Body: b}
	}
	return out
}

// disjoint reports the first contribution shared by two lists of arcs.
func disjoint(arcs ...SingleArcView) error {
	seen := make(map[Contribution]bool)
	for _, a := range arcs {
		for _, c := range a.Contributions() {
			if seen[c] {
				return fmt.Errorf("%w: %s propagated twice", dynamo.ErrDuplicateContribution, c)
			}
			seen[c] = true
		}
	}
	return nil
}

// Resolver returns a dependent-variable resolver for the state layout of s.
// The derivative models must have been created.
func Resolver(s SingleArcView, env *environment.Registry) (*environment.Resolver, error) {
	blocks, err := s.Blocks()
	if err != nil {
		return nil, err
	}
	return environment.NewResolver(env.Bodies(), blocks), nil
}

func errNotCreated(what string) error {
	return fmt.Errorf("%w: %s derivative models were not created", dynamo.ErrModelsNotCreated, what)
}
