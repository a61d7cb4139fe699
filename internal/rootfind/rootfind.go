// Package rootfind holds the root-finder configuration consumed by
// exact-crossing termination, and a reference bracketing implementation.
package rootfind

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/propsetup/internal/dynamo"
)

type Method int

const (
	Bisection Method = 0
	Secant    Method = 1
)

func (m Method) String() string {
	switch m {
	case Bisection:
		return "bisection"
	case Secant:
		return "secant"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// MaxIterationsPolicy decides what happens when the iteration budget runs out.
type MaxIterationsPolicy int

const (
	AcceptResult            MaxIterationsPolicy = 0
	AcceptResultWithWarning MaxIterationsPolicy = 1
	ThrowException          MaxIterationsPolicy = 2
)

var (
	ErrNotBracketed  = errors.New("rootfind: interval does not bracket a root")
	ErrMaxIterations = errors.New("rootfind: maximum number of iterations exceeded")
)

type Settings struct {
	Method            Method
	AbsoluteTolerance float64
	RelativeTolerance float64
	MaxIterations     int
	OnMaxIterations   MaxIterationsPolicy
}

func NewBisection(absTol float64, maxIter int) *Settings {
	return &Settings{
		Method:            Bisection,
		AbsoluteTolerance: absTol,
		RelativeTolerance: 0,
		MaxIterations:     maxIter,
		OnMaxIterations:   ThrowException,
	}
}

func NewSecant(absTol float64, maxIter int) *Settings {
	return &Settings{
		Method:            Secant,
		AbsoluteTolerance: absTol,
		MaxIterations:     maxIter,
		OnMaxIterations:   ThrowException,
	}
}

func (s *Settings) Validate() error {
	if s.Method != Bisection && s.Method != Secant {
		return fmt.Errorf("%w: unknown root finder %s", dynamo.ErrInvalidArgument, s.Method)
	}
	if s.AbsoluteTolerance <= 0 && s.RelativeTolerance <= 0 {
		return fmt.Errorf("%w: root finder needs a positive tolerance", dynamo.ErrInvalidArgument)
	}
	if s.AbsoluteTolerance < 0 || s.RelativeTolerance < 0 {
		return fmt.Errorf("%w: negative root finder tolerance", dynamo.ErrInvalidArgument)
	}
	if s.MaxIterations <= 0 {
		return fmt.Errorf("%w: max iterations must be positive, got %d", dynamo.ErrInvalidArgument, s.MaxIterations)
	}
	return nil
}

// Result of a root search.
type Result struct {
	Root       float64
	Iterations int
	Converged  bool
}

// Find locates a root of f in [lo, hi]; f(lo) and f(hi) must differ in sign
// (or one of them be zero). Both methods keep the bracket, so the returned
// root always lies inside [lo, hi].
func (s *Settings) Find(f func(float64) float64, lo, hi float64) (Result, error) {
	if err := s.Validate(); err != nil {
		return Result{}, err
	}
	if lo > hi {
		lo, hi = hi, lo
	}

	flo, fhi := f(lo), f(hi)
	if flo == 0 {
		return Result{Root: lo, Converged: true}, nil
	}
	if fhi == 0 {
		return Result{Root: hi, Converged: true}, nil
	}
	if math.Signbit(flo) == math.Signbit(fhi) {
		return Result{}, fmt.Errorf("%w: f(%g)=%g, f(%g)=%g", ErrNotBracketed, lo, flo, hi, fhi)
	}

	side := 0
	for i := 1; i <= s.MaxIterations; i++ {
		var x float64
		switch s.Method {
		case Secant:
			// Illinois variant of regula falsi: keeps the bracket and
			// halves a stale endpoint so both ends converge.
			x = (lo*fhi - hi*flo) / (fhi - flo)
			if x <= lo || x >= hi {
				x = 0.5 * (lo + hi)
			}
		default:
			x = 0.5 * (lo + hi)
		}

		fx := f(x)
		if fx == 0 {
			return Result{Root: x, Iterations: i, Converged: true}, nil
		}
		if math.Signbit(fx) == math.Signbit(flo) {
			lo, flo = x, fx
			if side == -1 {
				fhi /= 2
			}
			side = -1
		} else {
			hi, fhi = x, fx
			if side == 1 {
				flo /= 2
			}
			side = 1
		}

		if s.converged(lo, hi) {
			// the side nearest in value is the better estimate
			root := lo
			if math.Abs(fhi) < math.Abs(flo) {
				root = hi
			}
			return Result{Root: root, Iterations: i, Converged: true}, nil
		}
	}

	res := Result{Root: 0.5 * (lo + hi), Iterations: s.MaxIterations}
	if s.OnMaxIterations == ThrowException {
		return res, ErrMaxIterations
	}
	return res, nil
}

func (s *Settings) converged(lo, hi float64) bool {
	width := hi - lo
	if s.AbsoluteTolerance > 0 && width <= s.AbsoluteTolerance {
		return true
	}
	scale := math.Max(math.Abs(lo), math.Abs(hi))
	return s.RelativeTolerance > 0 && width <= s.RelativeTolerance*scale
}
