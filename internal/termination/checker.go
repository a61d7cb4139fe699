package termination

import (
	"fmt"
	"strings"
	"time"

	"github.com/san-kum/propsetup/internal/dynamo"
	"github.com/san-kum/propsetup/internal/output"
)

// Evaluator computes a scalar dependent variable from the current state.
type Evaluator func(x dynamo.State, t float64) float64

// VariableResolver binds dependent-variable descriptors to evaluators. It is
// supplied by whoever owns the environment the variables refer to.
type VariableResolver interface {
	Resolve(v output.Variable) (Evaluator, error)
}

type node struct {
	cond     Condition
	eval     Evaluator
	dir      float64
	children []*node
	last     bool
}

// Checker evaluates a condition tree once per accepted step. Hybrid members
// are all evaluated on every call, so members with side effects (custom
// predicates counting calls, for instance) observe every step.
//
// A Checker belongs to one propagation and is not safe for concurrent use.
type Checker struct {
	root   *node
	leaves []*node
}

// NewChecker binds c for a propagation starting at initialTime. Time
// conditions before initialTime are treated as backward propagation.
func NewChecker(c Condition, r VariableResolver, initialTime float64) (*Checker, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil termination condition", dynamo.ErrInvalidArgument)
	}
	ch := &Checker{}
	root, err := ch.bind(c, r, initialTime)
	if err != nil {
		return nil, err
	}
	ch.root = root
	return ch, nil
}

func (ch *Checker) bind(c Condition, r VariableResolver, t0 float64) (*node, error) {
	n := &node{cond: c}
	switch cond := c.(type) {
	case *Time:
		n.dir = 1
		if cond.stop < t0 {
			n.dir = -1
		}
	case *DependentVariable:
		if r == nil {
			return nil, fmt.Errorf("%w: no resolver for termination variable %s", dynamo.ErrInvalidArgument, cond.variable)
		}
		eval, err := r.Resolve(cond.variable)
		if err != nil {
			return nil, fmt.Errorf("resolve termination variable %s: %w", cond.variable, err)
		}
		n.eval = eval
	case *Hybrid:
		for _, m := range cond.conditions {
			child, err := ch.bind(m, r, t0)
			if err != nil {
				return nil, err
			}
			n.children = append(n.children, child)
		}
		return n, nil
	case *CPUTime, *Custom:
	default:
		return nil, fmt.Errorf("%w: unsupported termination condition %T", dynamo.ErrInvalidArgument, c)
	}
	ch.leaves = append(ch.leaves, n)
	return n, nil
}

// Check reports whether the propagation must stop at (x, t).
func (ch *Checker) Check(x dynamo.State, t float64, cpu time.Duration) bool {
	return ch.root.check(x, t, cpu)
}

func (n *node) check(x dynamo.State, t float64, cpu time.Duration) bool {
	switch cond := n.cond.(type) {
	case *Time:
		n.last = (t-cond.stop)*n.dir >= 0
	case *CPUTime:
		n.last = cpu >= cond.budget
	case *DependentVariable:
		n.last = cond.reached(n.eval(x, t))
	case *Custom:
		n.last = cond.pred(x, t)
	case *Hybrid:
		results := make([]bool, len(n.children))
		for i, child := range n.children {
			results[i] = child.check(x, t, cpu)
		}
		n.last = Combine(results, cond.fulfillSingle)
	}
	return n.last
}

// Fired returns the leaf conditions that held at the last Check.
func (ch *Checker) Fired() []Condition {
	var out []Condition
	for _, l := range ch.leaves {
		if l.last {
			out = append(out, l.cond)
		}
	}
	return out
}

// Reason formats the fired leaves for logs and metrics labels.
func Reason(fired []Condition) string {
	if len(fired) == 0 {
		return "none"
	}
	kinds := make([]string, len(fired))
	for i, c := range fired {
		kinds[i] = c.Kind().String()
	}
	return strings.Join(kinds, "+")
}
