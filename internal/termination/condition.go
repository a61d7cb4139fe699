// Package termination describes when a single propagation arc stops.
//
// A condition is one of five variants: [Time], [CPUTime],
// [DependentVariable], [Custom] and [Hybrid]. Hybrid conditions nest, so a
// condition is a small tree. Conditions are immutable once constructed and
// are safe to share between settings and goroutines; evaluation state lives
// in a [Checker] or [Detector], never in the condition itself.
package termination

import (
	"fmt"
	"math"
	"time"

	"github.com/san-kum/propsetup/internal/dynamo"
	"github.com/san-kum/propsetup/internal/output"
	"github.com/san-kum/propsetup/internal/rootfind"
)

type Kind int

const (
	TimeStopping              Kind = 0
	CPUTimeStopping           Kind = 1
	DependentVariableStopping Kind = 2
	CustomStopping            Kind = 3
	HybridStopping            Kind = 4
)

func (k Kind) String() string {
	switch k {
	case TimeStopping:
		return "time"
	case CPUTimeStopping:
		return "cpu_time"
	case DependentVariableStopping:
		return "dependent_variable"
	case CustomStopping:
		return "custom"
	case HybridStopping:
		return "hybrid"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Condition is implemented only by the variants of this package.
type Condition interface {
	Kind() Kind
	String() string
	isCondition()
}

// Time stops the propagation at a simulation epoch.
type Time struct {
	stop  float64
	exact bool
}

// NewTime returns a time condition. With exact set, the final state is
// placed on the stop time instead of the first step past it.
func NewTime(stop float64, exact bool) (*Time, error) {
	if math.IsNaN(stop) || math.IsInf(stop, 0) {
		return nil, fmt.Errorf("%w: termination time must be finite, got %v", dynamo.ErrInvalidArgument, stop)
	}
	return &Time{stop: stop, exact: exact}, nil
}

func (c *Time) Kind() Kind           { return TimeStopping }
func (c *Time) StopTime() float64    { return c.stop }
func (c *Time) ExactlyOnFinal() bool { return c.exact }
func (c *Time) String() string       { return fmt.Sprintf("time(%g)", c.stop) }
func (c *Time) isCondition()         {}

// CPUTime stops the propagation once the wall-clock budget is spent. The
// budget is recorded here and enforced by the driver.
type CPUTime struct {
	budget time.Duration
}

func NewCPUTime(budget time.Duration) (*CPUTime, error) {
	if budget <= 0 {
		return nil, fmt.Errorf("%w: cpu time budget must be positive, got %v", dynamo.ErrInvalidArgument, budget)
	}
	return &CPUTime{budget: budget}, nil
}

func (c *CPUTime) Kind() Kind            { return CPUTimeStopping }
func (c *CPUTime) Budget() time.Duration { return c.budget }
func (c *CPUTime) String() string        { return fmt.Sprintf("cpu_time(%s)", c.budget) }
func (c *CPUTime) isCondition()          {}

// DependentVariable stops the propagation when a scalar dependent variable
// passes a limit: from above when used as lower limit, from below otherwise.
type DependentVariable struct {
	variable   output.Variable
	limit      float64
	lower      bool
	exact      bool
	rootFinder *rootfind.Settings
}

// NewDependentVariable returns a dependent-variable condition. Requesting
// exact termination without root finder settings is rejected rather than
// degraded to step-level termination.
func NewDependentVariable(v output.Variable, limit float64, useAsLowerLimit, exact bool, rf *rootfind.Settings) (*DependentVariable, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	if v.Size() != 1 {
		return nil, fmt.Errorf("%w: termination variable %s must be scalar, has %d components", dynamo.ErrInvalidArgument, v, v.Size())
	}
	if math.IsNaN(limit) {
		return nil, fmt.Errorf("%w: termination limit for %s is NaN", dynamo.ErrInvalidArgument, v)
	}
	if exact && rf == nil {
		return nil, fmt.Errorf("%w: exact termination on %s requested without root finder settings", dynamo.ErrPolicyAmbiguity, v)
	}
	if rf != nil {
		if err := rf.Validate(); err != nil {
			return nil, err
		}
		copied := *rf
		rf = &copied
	}
	return &DependentVariable{
		variable:   v,
		limit:      limit,
		lower:      useAsLowerLimit,
		exact:      exact,
		rootFinder: rf,
	}, nil
}

func (c *DependentVariable) Kind() Kind                { return DependentVariableStopping }
func (c *DependentVariable) Variable() output.Variable { return c.variable }
func (c *DependentVariable) Limit() float64            { return c.limit }
func (c *DependentVariable) UseAsLowerLimit() bool     { return c.lower }
func (c *DependentVariable) ExactlyOnFinal() bool      { return c.exact }

// RootFinder returns a copy of the root finder settings, or nil.
func (c *DependentVariable) RootFinder() *rootfind.Settings {
	if c.rootFinder == nil {
		return nil
	}
	rf := *c.rootFinder
	return &rf
}

func (c *DependentVariable) String() string {
	op := ">"
	if c.lower {
		op = "<"
	}
	return fmt.Sprintf("%s %s %g", c.variable, op, c.limit)
}

func (c *DependentVariable) isCondition() {}

// reached reports whether value is on the terminating side of the limit.
func (c *DependentVariable) reached(value float64) bool {
	if c.lower {
		return value < c.limit
	}
	return value > c.limit
}

// Predicate is a caller-supplied stopping rule.
type Predicate func(x dynamo.State, t float64) bool

type Custom struct {
	pred Predicate
}

func NewCustom(pred Predicate) (*Custom, error) {
	if pred == nil {
		return nil, fmt.Errorf("%w: custom termination needs a predicate", dynamo.ErrInvalidArgument)
	}
	return &Custom{pred: pred}, nil
}

func (c *Custom) Kind() Kind           { return CustomStopping }
func (c *Custom) Predicate() Predicate { return c.pred }
func (c *Custom) String() string       { return "custom" }
func (c *Custom) isCondition()         {}

// Hybrid combines conditions: any of them (fulfillSingle) or all of them.
type Hybrid struct {
	conditions    []Condition
	fulfillSingle bool
}

func NewHybrid(conditions []Condition, fulfillSingle bool) (*Hybrid, error) {
	if len(conditions) == 0 {
		return nil, fmt.Errorf("%w: hybrid termination has no conditions", dynamo.ErrEmptyCondition)
	}
	for i, c := range conditions {
		if c == nil {
			return nil, fmt.Errorf("%w: hybrid termination member %d is nil", dynamo.ErrInvalidArgument, i)
		}
	}
	out := make([]Condition, len(conditions))
	copy(out, conditions)
	return &Hybrid{conditions: out, fulfillSingle: fulfillSingle}, nil
}

func (c *Hybrid) Kind() Kind                   { return HybridStopping }
func (c *Hybrid) FulfillSingleCondition() bool { return c.fulfillSingle }

func (c *Hybrid) Conditions() []Condition {
	out := make([]Condition, len(c.conditions))
	copy(out, c.conditions)
	return out
}

func (c *Hybrid) String() string {
	sep := " AND "
	if c.fulfillSingle {
		sep = " OR "
	}
	s := "("
	for i, m := range c.conditions {
		if i > 0 {
			s += sep
		}
		s += m.String()
	}
	return s + ")"
}

func (c *Hybrid) isCondition() {}

// Combine merges member results: OR when fulfillSingle, AND otherwise.
// An empty slice has no defined value and yields false.
func Combine(results []bool, fulfillSingle bool) bool {
	if len(results) == 0 {
		return false
	}
	if fulfillSingle {
		for _, r := range results {
			if r {
				return true
			}
		}
		return false
	}
	for _, r := range results {
		if !r {
			return false
		}
	}
	return true
}

// Walk visits c and, for hybrids, every member depth-first.
func Walk(c Condition, fn func(Condition)) {
	fn(c)
	if h, ok := c.(*Hybrid); ok {
		for _, m := range h.conditions {
			Walk(m, fn)
		}
	}
}
