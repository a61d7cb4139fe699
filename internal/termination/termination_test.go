package termination

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/propsetup/internal/dynamo"
	"github.com/san-kum/propsetup/internal/output"
	"github.com/san-kum/propsetup/internal/rootfind"
)

func TestCombine(t *testing.T) {
	tests := []struct {
		name    string
		results []bool
		or      bool
		want    bool
	}{
		{"or mixed", []bool{true, false}, true, true},
		{"and mixed", []bool{true, false}, false, false},
		{"or none", []bool{false, false}, true, false},
		{"and all", []bool{true, true, true}, false, true},
		{"or last", []bool{false, false, true}, true, true},
		{"empty", nil, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Combine(tt.results, tt.or))
		})
	}
}

func TestHybridRejectsEmpty(t *testing.T) {
	_, err := NewHybrid(nil, true)
	require.ErrorIs(t, err, dynamo.ErrEmptyCondition)

	_, err = NewHybrid([]Condition{}, false)
	require.ErrorIs(t, err, dynamo.ErrEmptyCondition)

	_, err = NewHybrid([]Condition{nil}, false)
	require.ErrorIs(t, err, dynamo.ErrInvalidArgument)
}

func TestHybridCopiesMembers(t *testing.T) {
	tc, err := NewTime(10, false)
	require.NoError(t, err)
	members := []Condition{tc}
	h, err := NewHybrid(members, true)
	require.NoError(t, err)

	members[0] = nil
	assert.NotNil(t, h.Conditions()[0])
}

func altitude() output.Variable {
	return output.NewVariable(output.Altitude, "Vehicle", "Earth")
}

func TestDependentVariablePolicy(t *testing.T) {
	_, err := NewDependentVariable(altitude(), 100e3, true, true, nil)
	require.ErrorIs(t, err, dynamo.ErrPolicyAmbiguity)

	c, err := NewDependentVariable(altitude(), 100e3, true, true, rootfind.NewBisection(1e-3, 100))
	require.NoError(t, err)
	assert.True(t, c.ExactlyOnFinal())

	// step-level termination needs no root finder
	_, err = NewDependentVariable(altitude(), 100e3, true, false, nil)
	require.NoError(t, err)

	_, err = NewDependentVariable(output.NewVariable(output.RelativePosition, "Vehicle", "Earth"), 1, false, false, nil)
	require.ErrorIs(t, err, dynamo.ErrInvalidArgument)

	_, err = NewDependentVariable(altitude(), math.NaN(), false, false, nil)
	require.ErrorIs(t, err, dynamo.ErrInvalidArgument)
}

func TestRootFinderIsCopied(t *testing.T) {
	rf := rootfind.NewBisection(1e-3, 100)
	c, err := NewDependentVariable(altitude(), 0, true, true, rf)
	require.NoError(t, err)

	rf.MaxIterations = 1
	assert.Equal(t, 100, c.RootFinder().MaxIterations)
	c.RootFinder().MaxIterations = 2
	assert.Equal(t, 100, c.RootFinder().MaxIterations)
}

func TestLeafConstructors(t *testing.T) {
	_, err := NewTime(math.Inf(1), false)
	assert.ErrorIs(t, err, dynamo.ErrInvalidArgument)

	_, err = NewCPUTime(-time.Second)
	assert.ErrorIs(t, err, dynamo.ErrInvalidArgument)

	_, err = NewCustom(nil)
	assert.ErrorIs(t, err, dynamo.ErrInvalidArgument)
}

func TestCheckerEvaluatesEveryMember(t *testing.T) {
	var first, second int
	a, _ := NewCustom(func(dynamo.State, float64) bool { first++; return true })
	b, _ := NewCustom(func(dynamo.State, float64) bool { second++; return false })
	h, err := NewHybrid([]Condition{a, b}, true)
	require.NoError(t, err)

	ch, err := NewChecker(h, nil, 0)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		assert.True(t, ch.Check(dynamo.State{0}, float64(i), 0))
	}
	assert.Equal(t, 3, first)
	assert.Equal(t, 3, second)
	assert.Equal(t, []Condition{a}, ch.Fired())
	assert.Equal(t, "custom", Reason(ch.Fired()))
}

func TestCheckerAndSemantics(t *testing.T) {
	tc, _ := NewTime(5, false)
	cpu, _ := NewCPUTime(time.Second)
	h, _ := NewHybrid([]Condition{tc, cpu}, false)

	ch, err := NewChecker(h, nil, 0)
	require.NoError(t, err)
	assert.False(t, ch.Check(nil, 6, 0))
	assert.False(t, ch.Check(nil, 1, 2*time.Second))
	assert.True(t, ch.Check(nil, 6, 2*time.Second))
	assert.Equal(t, "time+cpu_time", Reason(ch.Fired()))
}

func TestCheckerBackwardTime(t *testing.T) {
	tc, _ := NewTime(-10, false)
	ch, err := NewChecker(tc, nil, 0)
	require.NoError(t, err)
	assert.False(t, ch.Check(nil, -5, 0))
	assert.True(t, ch.Check(nil, -10, 0))
}

func TestCheckerNeedsResolver(t *testing.T) {
	c, _ := NewDependentVariable(altitude(), 0, true, false, nil)
	_, err := NewChecker(c, nil, 0)
	assert.ErrorIs(t, err, dynamo.ErrInvalidArgument)

	_, err = NewChecker(c, failingResolver{}, 0)
	assert.Error(t, err)
}

type failingResolver struct{}

func (failingResolver) Resolve(output.Variable) (Evaluator, error) {
	return nil, errors.New("no such body")
}

// firstComponent resolves every variable to x[0].
type firstComponent struct{}

func (firstComponent) Resolve(output.Variable) (Evaluator, error) {
	return func(x dynamo.State, _ float64) float64 { return x[0] }, nil
}

// squareSegment carries the signal x(t) = t*t over [t0, t1].
type squareSegment struct{ t0, t1 float64 }

func (s squareSegment) Start() float64            { return s.t0 }
func (s squareSegment) End() float64              { return s.t1 }
func (s squareSegment) At(t float64) dynamo.State { return dynamo.State{t * t} }

func TestDetectorRefinesCrossing(t *testing.T) {
	for _, rf := range []*rootfind.Settings{
		rootfind.NewBisection(1e-9, 200),
		rootfind.NewSecant(1e-9, 200),
	} {
		t.Run(rf.Method.String(), func(t *testing.T) {
			c, err := NewDependentVariable(altitude(), 2, false, true, rf)
			require.NoError(t, err)
			d, err := NewDetector(c, firstComponent{}, 0)
			require.NoError(t, err)

			assert.False(t, d.Initial(dynamo.State{0}, 0, 0))
			stop, err := d.Observe(squareSegment{0, 1}, 0)
			require.NoError(t, err)
			assert.False(t, stop)
			assert.Equal(t, Searching, d.Phase())

			stop, err = d.Observe(squareSegment{1, 2}, 0)
			require.NoError(t, err)
			assert.True(t, stop)
			assert.Equal(t, Terminated, d.Phase())

			cr, ok := d.Crossing()
			require.True(t, ok)
			assert.True(t, cr.Refined)
			assert.True(t, cr.Converged)
			assert.InDelta(t, math.Sqrt2, cr.Time, 1e-9)
			assert.InDelta(t, 2, cr.State[0], 1e-8)
		})
	}
}

func TestDetectorStepLevel(t *testing.T) {
	c, _ := NewDependentVariable(altitude(), 2, false, false, nil)
	d, err := NewDetector(c, firstComponent{}, 0)
	require.NoError(t, err)

	stop, err := d.Observe(squareSegment{1, 2}, 0)
	require.NoError(t, err)
	require.True(t, stop)
	cr, _ := d.Crossing()
	assert.False(t, cr.Refined)
	assert.Equal(t, 2.0, cr.Time)
	assert.Equal(t, 4.0, cr.State[0])
}

func TestDetectorExactTime(t *testing.T) {
	tc, _ := NewTime(1.25, true)
	d, err := NewDetector(tc, nil, 0)
	require.NoError(t, err)

	stop, err := d.Observe(squareSegment{1, 2}, 0)
	require.NoError(t, err)
	require.True(t, stop)
	cr, _ := d.Crossing()
	assert.Equal(t, 1.25, cr.Time)
	assert.Equal(t, 1.5625, cr.State[0])
}

func TestDetectorHybridPicksEarliest(t *testing.T) {
	tc, _ := NewTime(1.9, true)
	dv, _ := NewDependentVariable(altitude(), 2, false, true, rootfind.NewBisection(1e-10, 200))

	or, _ := NewHybrid([]Condition{tc, dv}, true)
	d, _ := NewDetector(or, firstComponent{}, 0)
	_, err := d.Observe(squareSegment{1, 2}, 0)
	require.NoError(t, err)
	cr, _ := d.Crossing()
	assert.InDelta(t, math.Sqrt2, cr.Time, 1e-9)

	and, _ := NewHybrid([]Condition{tc, dv}, false)
	d, _ = NewDetector(and, firstComponent{}, 0)
	_, err = d.Observe(squareSegment{1, 2}, 0)
	require.NoError(t, err)
	cr, _ = d.Crossing()
	assert.Equal(t, 1.9, cr.Time)
	assert.Len(t, cr.Fired, 2)
}

func TestDetectorHybridLeafHeldBeforeStep(t *testing.T) {
	exactX := func() Condition {
		c, _ := NewDependentVariable(altitude(), 1, false, true, rootfind.NewBisection(1e-10, 200))
		return c
	}
	timeAt := func(stop float64, exact bool) Condition {
		c, _ := NewTime(stop, exact)
		return c
	}

	tests := []struct {
		name          string
		members       []Condition
		fulfillSingle bool
		wantTime      float64
		wantRefined   bool
	}{
		{"all with inexact time", []Condition{exactX(), timeAt(4.5, false)}, false, 5, false},
		{"all with exact time", []Condition{exactX(), timeAt(4.5, true)}, false, 4.5, true},
		{"all with exact time first", []Condition{timeAt(4.5, true), exactX()}, false, 4.5, true},
		{"any with exact time", []Condition{exactX(), timeAt(4.5, true)}, true, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHybrid(tt.members, tt.fulfillSingle)
			require.NoError(t, err)
			d, err := NewDetector(h, firstComponent{}, 0)
			require.NoError(t, err)

			stopped := false
			for k := 0; k < 10 && !stopped; k++ {
				stopped, err = d.Observe(squareSegment{float64(k), float64(k + 1)}, 0)
				require.NoError(t, err)
			}
			require.True(t, stopped)

			cr, ok := d.Crossing()
			require.True(t, ok)
			assert.InDelta(t, tt.wantTime, cr.Time, 1e-9)
			assert.Equal(t, tt.wantRefined, cr.Refined)
			assert.True(t, cr.Converged)
		})
	}
}

func TestDetectorInitialState(t *testing.T) {
	dv, _ := NewDependentVariable(altitude(), 2, true, false, nil)
	d, _ := NewDetector(dv, firstComponent{}, 0)
	assert.True(t, d.Initial(dynamo.State{1}, 0, 0))
	cr, ok := d.Crossing()
	require.True(t, ok)
	assert.Equal(t, 0.0, cr.Time)

	stop, err := d.Observe(squareSegment{0, 1}, 0)
	assert.NoError(t, err)
	assert.True(t, stop)
}
