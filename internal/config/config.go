// Package config reads scenario files: the bodies, environment models,
// propagator settings and estimated parameters of one propagation, written
// in YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/propsetup/internal/dynamo"
	"github.com/san-kum/propsetup/internal/environment"
	"github.com/san-kum/propsetup/internal/sim"
)

const (
	KindSingle    = "single"
	KindMultiArc  = "multi_arc"
	KindHybridArc = "hybrid_arc"
)

type Scenario struct {
	Name                  string                          `yaml:"name" validate:"required"`
	Bodies                []BodyConfig                    `yaml:"bodies" validate:"required,min=1,dive"`
	Accelerations         map[string][]AccelerationConfig `yaml:"accelerations,omitempty" validate:"dive,dive"`
	Torques               map[string][]TorqueConfig       `yaml:"torques,omitempty" validate:"dive,dive"`
	MassRates             map[string][]MassRateConfig     `yaml:"mass_rates,omitempty" validate:"dive,dive"`
	Propagation           PropagationConfig               `yaml:"propagation"`
	Integrator            sim.IntegratorSettings          `yaml:"integrator"`
	Parameters            []ParameterConfig               `yaml:"parameters,omitempty" validate:"dive"`
	EstimateInitialStates bool                            `yaml:"estimate_initial_states,omitempty"`
}

type BodyConfig struct {
	Name                   string                  `yaml:"name" validate:"required"`
	Mass                   float64                 `yaml:"mass,omitempty" validate:"gte=0"`
	GravitationalParameter float64                 `yaml:"gravitational_parameter,omitempty" validate:"gte=0"`
	Radius                 float64                 `yaml:"radius,omitempty" validate:"gte=0"`
	Inertia                [3]float64              `yaml:"inertia,flow,omitempty"`
	Atmosphere             *environment.Atmosphere `yaml:"atmosphere,omitempty"`
}

type AccelerationConfig struct {
	Body   string     `yaml:"body" validate:"required"`
	By     string     `yaml:"by" validate:"required"`
	Type   string     `yaml:"type" validate:"required,oneof=point_mass thrust"`
	Vector [3]float64 `yaml:"vector,flow,omitempty"`
}

type TorqueConfig struct {
	Body   string     `yaml:"body" validate:"required"`
	By     string     `yaml:"by" validate:"required"`
	Torque [3]float64 `yaml:"torque,flow"`
}

type MassRateConfig struct {
	Body string  `yaml:"body" validate:"required"`
	Rate float64 `yaml:"rate"`
}

// PropagationConfig holds a single arc, a list of arcs, or both for a hybrid
// arc. Arcs without their own termination use the shared one.
type PropagationConfig struct {
	Kind          string             `yaml:"kind" validate:"required,oneof=single multi_arc hybrid_arc"`
	Single        *ArcConfig         `yaml:"single,omitempty"`
	Arcs          []ArcConfig        `yaml:"arcs,omitempty" validate:"dive"`
	TransferState bool               `yaml:"transfer_state,omitempty"`
	Termination   *TerminationConfig `yaml:"termination,omitempty"`
}

// ArcConfig is one single arc. More than one block makes it a multi-type
// arc.
type ArcConfig struct {
	StartTime     float64            `yaml:"start_time,omitempty"`
	Blocks        []BlockConfig      `yaml:"blocks" validate:"required,min=1,dive"`
	Termination   *TerminationConfig `yaml:"termination,omitempty"`
	Outputs       []VariableConfig   `yaml:"outputs,omitempty" validate:"dive"`
	PrintInterval float64            `yaml:"print_interval,omitempty" validate:"gte=0"`
}

// BlockConfig is one state type over a list of bodies. Models names an
// entry of the acceleration, torque or mass-rate maps matching the type.
type BlockConfig struct {
	Type          string    `yaml:"type" validate:"required,oneof=translational rotational mass"`
	Bodies        []string  `yaml:"bodies" validate:"required,min=1,dive,required"`
	CentralBodies []string  `yaml:"central_bodies,omitempty"`
	Models        string    `yaml:"models" validate:"required"`
	Propagator    string    `yaml:"propagator,omitempty"`
	InitialState  []float64 `yaml:"initial_state,flow" validate:"required"`
}

type TerminationConfig struct {
	Type       string              `yaml:"type" validate:"required,oneof=time cpu_time dependent_variable hybrid"`
	Time       float64             `yaml:"time,omitempty"`
	CPUSeconds float64             `yaml:"cpu_seconds,omitempty" validate:"gte=0"`
	Variable   *VariableConfig     `yaml:"variable,omitempty"`
	Limit      float64             `yaml:"limit,omitempty"`
	LowerLimit bool                `yaml:"lower_limit,omitempty"`
	Exact      bool                `yaml:"exact,omitempty"`
	RootFinder *RootFinderConfig   `yaml:"root_finder,omitempty"`
	Any        bool                `yaml:"any,omitempty"`
	Conditions []TerminationConfig `yaml:"conditions,omitempty" validate:"dive"`
}

type RootFinderConfig struct {
	Method            string  `yaml:"method" validate:"required,oneof=bisection secant"`
	AbsoluteTolerance float64 `yaml:"absolute_tolerance" validate:"gt=0"`
	RelativeTolerance float64 `yaml:"relative_tolerance,omitempty" validate:"gte=0"`
	MaxIterations     int     `yaml:"max_iterations" validate:"gt=0"`
	OnMaxIterations   string  `yaml:"on_max_iterations,omitempty" validate:"omitempty,oneof=accept accept_with_warning throw"`
}

type VariableConfig struct {
	Kind      string `yaml:"kind" validate:"required"`
	Body      string `yaml:"body" validate:"required"`
	Relative  string `yaml:"relative_to,omitempty"`
	Component *int   `yaml:"component,omitempty" validate:"omitempty,gte=0"`
}

type LinkEndConfig struct {
	Role    string `yaml:"role" validate:"required"`
	Body    string `yaml:"body" validate:"required"`
	Station string `yaml:"station,omitempty"`
}

type ParameterConfig struct {
	Type        string          `yaml:"type" validate:"required"`
	Body        string          `yaml:"body,omitempty"`
	Station     string          `yaml:"station,omitempty"`
	ArcTimes    []float64       `yaml:"arc_times,flow,omitempty"`
	MinDegree   int             `yaml:"min_degree,omitempty"`
	MinOrder    int             `yaml:"min_order,omitempty"`
	MaxDegree   int             `yaml:"max_degree,omitempty"`
	MaxOrder    int             `yaml:"max_order,omitempty"`
	Degree      int             `yaml:"degree,omitempty"`
	Orders      []int           `yaml:"orders,flow,omitempty"`
	Deforming   []string        `yaml:"deforming,flow,omitempty"`
	Complex     bool            `yaml:"complex,omitempty"`
	CentralBody string          `yaml:"central_body,omitempty"`
	LinkEnds    []LinkEndConfig `yaml:"link_ends,omitempty" validate:"dive"`
	Observable  string          `yaml:"observable,omitempty"`
	TimeLinkEnd string          `yaml:"time_link_end,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func DefaultScenario() *Scenario {
	return &Scenario{
		Propagation: PropagationConfig{Kind: KindSingle},
		Integrator:  sim.DefaultIntegratorSettings(),
	}
}

// Validate checks the document structure. Shape errors of the built
// settings are reported by Build.
func (s *Scenario) Validate() error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: scenario %q: %s failed on %q", dynamo.ErrInvalidArgument, s.Name, verrs[0].Namespace(), verrs[0].Tag())
		}
		return err
	}
	switch s.Propagation.Kind {
	case KindSingle:
		if s.Propagation.Single == nil {
			return fmt.Errorf("%w: scenario %q: single propagation without an arc", dynamo.ErrInvalidArgument, s.Name)
		}
	case KindMultiArc:
		if len(s.Propagation.Arcs) == 0 {
			return fmt.Errorf("%w: scenario %q: multi-arc propagation without arcs", dynamo.ErrInvalidArgument, s.Name)
		}
	case KindHybridArc:
		if s.Propagation.Single == nil || len(s.Propagation.Arcs) == 0 {
			return fmt.Errorf("%w: scenario %q: hybrid-arc propagation needs a single arc and arcs", dynamo.ErrInvalidArgument, s.Name)
		}
	}
	return nil
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Scenario, error) {
	s := DefaultScenario()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}

func Save(path string, s *Scenario) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
