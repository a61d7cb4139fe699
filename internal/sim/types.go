package sim

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/propsetup/internal/dynamo"
	"github.com/san-kum/propsetup/internal/termination"
)

// ErrMaxSteps is returned when a propagation exhausts its step budget
// before the termination condition holds.
var ErrMaxSteps = errors.New("sim: maximum number of steps reached")

// Metric observes every accepted state of one arc.
type Metric interface {
	Name() string
	Observe(x dynamo.State, t float64)
	Value() float64
	Reset()
}

// MetricFactory builds a fresh metric for the derivative model of one arc.
// Arcs may run concurrently, so metrics are never shared between them.
type MetricFactory func(sys dynamo.System) Metric

type Observer interface {
	OnStep(arc int, x dynamo.State, t float64)
}

// Recorder receives a summary of every finished arc.
type Recorder interface {
	ObserveArc(kind string, steps int, reason string, elapsed time.Duration)
}

// IntegratorSettings selects the integrator and step control. A negative
// Step propagates backward in time.
type IntegratorSettings struct {
	Name          string  `yaml:"name" json:"name"`
	InitialTime   float64 `yaml:"initial_time" json:"initial_time"`
	Step          float64 `yaml:"step" json:"step"`
	Adaptive      bool    `yaml:"adaptive" json:"adaptive"`
	Tolerance     float64 `yaml:"tolerance" json:"tolerance"`
	MinStep       float64 `yaml:"min_step" json:"min_step"`
	MaxStep       float64 `yaml:"max_step" json:"max_step"`
	MaxSteps      int     `yaml:"max_steps" json:"max_steps"`
	ValidateState bool    `yaml:"validate_state" json:"validate_state"`
}

func DefaultIntegratorSettings() IntegratorSettings {
	return IntegratorSettings{
		Name:          "rk4",
		Step:          10,
		Tolerance:     1e-10,
		MinStep:       1e-6,
		MaxStep:       300,
		MaxSteps:      1_000_000,
		ValidateState: true,
	}
}

func (c IntegratorSettings) validate() error {
	if c.Step == 0 || math.IsNaN(c.Step) || math.IsInf(c.Step, 0) {
		return fmt.Errorf("%w: integration step must be finite and non-zero, got %v", dynamo.ErrInvalidArgument, c.Step)
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("%w: max steps must not be negative, got %d", dynamo.ErrInvalidArgument, c.MaxSteps)
	}
	if c.Adaptive {
		if c.Tolerance <= 0 {
			return fmt.Errorf("%w: tolerance must be positive for adaptive stepping", dynamo.ErrInvalidArgument)
		}
		if c.MinStep <= 0 || c.MaxStep < c.MinStep {
			return fmt.Errorf("%w: adaptive step bounds [%v, %v] are invalid", dynamo.ErrInvalidArgument, c.MinStep, c.MaxStep)
		}
	}
	return nil
}

// SingleArcIndex identifies a single-arc propagation to observers and in
// results. Multi-arc arcs are numbered from zero.
const SingleArcIndex = -1

// Result is the output of one propagated arc.
type Result struct {
	Arc                int
	InitialTime        float64
	InitialState       dynamo.State
	Times              []float64
	States             []dynamo.State
	DependentHeaders   []string
	DependentVariables [][]float64
	StepsTaken         int
	TerminationReason  string
	Crossing           termination.Crossing
	FinalTime          float64
	FinalState         dynamo.State
	EnergyDrift        float64
	Metrics            map[string]float64
	Elapsed            time.Duration
}

func (r *Result) record(x dynamo.State, t float64, dep []float64) {
	r.Times = append(r.Times, t)
	r.States = append(r.States, x.Clone())
	if dep != nil {
		r.DependentVariables = append(r.DependentVariables, dep)
	}
}

// MultiArcResult holds the arcs of a multi-arc propagation in order, and the
// initial state each arc was actually started from. With state transfer the
// effective initial state of arc k+1 is the final state of arc k.
type MultiArcResult struct {
	Arcs                   []*Result
	EffectiveInitialStates []dynamo.State
}

func (r *MultiArcResult) FinalStates() []dynamo.State {
	out := make([]dynamo.State, len(r.Arcs))
	for i, a := range r.Arcs {
		out[i] = a.FinalState.Clone()
	}
	return out
}

// Outcome is the result of Propagate. Single is set for single-arc and
// hybrid-arc settings, Arcs for multi-arc and hybrid-arc settings.
type Outcome struct {
	Single *Result
	Arcs   *MultiArcResult
}
