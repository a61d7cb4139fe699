package environment

import (
	"fmt"

	"github.com/san-kum/propsetup/internal/dynamo"
	"github.com/san-kum/propsetup/internal/output"
	"github.com/san-kum/propsetup/internal/statetype"
	"github.com/san-kum/propsetup/internal/termination"
)

// VectorEvaluator computes every component of a dependent variable.
type VectorEvaluator func(x dynamo.State, t float64) []float64

// Resolver evaluates dependent variables on a propagated state laid out as
// the given blocks. It implements [termination.VariableResolver].
type Resolver struct {
	bodies *Bodies
	blocks []Block
}

func NewResolver(bodies *Bodies, blocks []Block) *Resolver {
	return &Resolver{bodies: bodies, blocks: append([]Block(nil), blocks...)}
}

// Resolve returns a scalar evaluator; v must have exactly one component.
func (r *Resolver) Resolve(v output.Variable) (termination.Evaluator, error) {
	if v.Size() != 1 {
		return nil, fmt.Errorf("%w: %s is not scalar", dynamo.ErrInvalidArgument, v)
	}
	f, err := r.ResolveVector(v)
	if err != nil {
		return nil, err
	}
	return func(x dynamo.State, t float64) float64 { return f(x, t)[0] }, nil
}

// ResolveVector returns an evaluator producing v.Size() values.
func (r *Resolver) ResolveVector(v output.Variable) (VectorEvaluator, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	full, err := r.full(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", v, err)
	}
	if v.Component < 0 {
		return full, nil
	}
	c := v.Component
	return func(x dynamo.State, t float64) []float64 { return []float64{full(x, t)[c]} }, nil
}

// ResolveSelection resolves every variable of s and evaluates them into one
// row in selection order.
func (r *Resolver) ResolveSelection(s output.Selection) (VectorEvaluator, error) {
	evals := make([]VectorEvaluator, 0, s.Len())
	for _, v := range s.Variables() {
		f, err := r.ResolveVector(v)
		if err != nil {
			return nil, err
		}
		evals = append(evals, f)
	}
	size := s.Size()
	return func(x dynamo.State, t float64) []float64 {
		row := make([]float64, 0, size)
		for _, f := range evals {
			row = append(row, f(x, t)...)
		}
		return row
	}, nil
}

func (r *Resolver) full(v output.Variable) (VectorEvaluator, error) {
	switch v.Kind {
	case output.RelativePosition, output.RelativeVelocity, output.RelativeDistance, output.RelativeSpeed,
		output.Altitude, output.Airspeed, output.MachNumber, output.LocalDensity,
		output.KeplerianState, output.SpecificOrbitalEnergy:
		return r.relative(v)

	case output.TotalAcceleration, output.TotalAccelerationNorm:
		b, i, err := r.locate(statetype.Translational, v.Body)
		if err != nil {
			return nil, err
		}
		cowell, ok := b.System.(*Cowell)
		if !ok {
			return nil, fmt.Errorf("%w: translational model of %s exposes no acceleration", ErrUnsupportedVariable, v.Body)
		}
		norm := v.Kind == output.TotalAccelerationNorm
		return func(x dynamo.State, _ float64) []float64 {
			a := cowell.Acceleration(x[b.Offset:b.Offset+b.Size()], i)
			if norm {
				return []float64{norm3(a)}
			}
			return a[:]
		}, nil

	case output.BodyMass:
		if b, i, err := r.locate(statetype.Mass, v.Body); err == nil {
			return func(x dynamo.State, _ float64) []float64 { return []float64{x[b.Offset+i]} }, nil
		}
		body, err := r.bodies.Get(v.Body)
		if err != nil {
			return nil, err
		}
		return func(dynamo.State, float64) []float64 { return []float64{body.Mass} }, nil

	case output.RotationAngles:
		b, i, err := r.locate(statetype.Rotational, v.Body)
		if err != nil {
			return nil, err
		}
		return func(x dynamo.State, _ float64) []float64 {
			o := b.Offset + 7*i
			q := dynamo.State(x[o : o+4])
			n := q.Norm()
			angles := QuaternionToEulerAngles(q[0]/n, q[1]/n, q[2]/n, q[3]/n)
			return angles[:]
		}, nil

	case output.TotalTorqueNorm:
		b, i, err := r.locate(statetype.Rotational, v.Body)
		if err != nil {
			return nil, err
		}
		rb, ok := b.System.(*RigidBody)
		if !ok {
			return nil, fmt.Errorf("%w: rotational model of %s exposes no torque", ErrUnsupportedVariable, v.Body)
		}
		tq := norm3(rb.Torque(i))
		return func(dynamo.State, float64) []float64 { return []float64{tq} }, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedVariable, v.Kind)
}

// locate finds the block propagating body with the given state type.
func (r *Resolver) locate(st statetype.StateType, body string) (Block, int, error) {
	for _, b := range r.blocks {
		if b.Type != st {
			continue
		}
		for i, name := range b.Bodies {
			if name == body {
				return b, i, nil
			}
		}
	}
	return Block{}, 0, fmt.Errorf("%w: %s state of %s is not propagated", ErrUnsupportedVariable, st, body)
}

type relativeFunc func(x dynamo.State) (pos, vel [3]float64)

// relativeState returns the state of body relative to other. Supported: other
// is the central body of body, or both are integrated about the same central
// body, or body is the central body of other.
func (r *Resolver) relativeState(body, other string) (relativeFunc, error) {
	read := func(b Block, i int, x dynamo.State) (p, v [3]float64) {
		o := b.Offset + 6*i
		copy(p[:], x[o:o+3])
		copy(v[:], x[o+3:o+6])
		return p, v
	}

	bb, bi, errB := r.locate(statetype.Translational, body)
	if errB == nil && bb.Central[bi] == other {
		return func(x dynamo.State) (p, v [3]float64) { return read(bb, bi, x) }, nil
	}
	ob, oi, errO := r.locate(statetype.Translational, other)
	switch {
	case errB == nil && errO == nil && bb.Central[bi] == ob.Central[oi]:
		return func(x dynamo.State) (p, v [3]float64) {
			p1, v1 := read(bb, bi, x)
			p2, v2 := read(ob, oi, x)
			for k := 0; k < 3; k++ {
				p[k], v[k] = p1[k]-p2[k], v1[k]-v2[k]
			}
			return p, v
		}, nil
	case errO == nil && ob.Central[oi] == body:
		return func(x dynamo.State) (p, v [3]float64) {
			p2, v2 := read(ob, oi, x)
			for k := 0; k < 3; k++ {
				p[k], v[k] = -p2[k], -v2[k]
			}
			return p, v
		}, nil
	}
	return nil, fmt.Errorf("%w: no propagated relative state of %s with respect to %s", ErrUnsupportedVariable, body, other)
}

func (r *Resolver) relative(v output.Variable) (VectorEvaluator, error) {
	rel, err := r.relativeState(v.Body, v.SecondaryBody)
	if err != nil {
		return nil, err
	}
	body, err := r.bodies.Get(v.Body)
	if err != nil {
		return nil, err
	}
	secondary, err := r.bodies.Get(v.SecondaryBody)
	if err != nil {
		return nil, err
	}
	mu := body.GravitationalParameter + secondary.GravitationalParameter
	atm := secondary.Atmosphere

	switch v.Kind {
	case output.RelativePosition:
		return func(x dynamo.State, _ float64) []float64 {
			p, _ := rel(x)
			return p[:]
		}, nil
	case output.RelativeVelocity:
		return func(x dynamo.State, _ float64) []float64 {
			_, vel := rel(x)
			return vel[:]
		}, nil
	case output.RelativeDistance:
		return func(x dynamo.State, _ float64) []float64 {
			p, _ := rel(x)
			return []float64{norm3(p)}
		}, nil
	case output.RelativeSpeed, output.Airspeed:
		return func(x dynamo.State, _ float64) []float64 {
			_, vel := rel(x)
			return []float64{norm3(vel)}
		}, nil
	case output.Altitude:
		return func(x dynamo.State, _ float64) []float64 {
			p, _ := rel(x)
			return []float64{norm3(p) - secondary.Radius}
		}, nil
	case output.LocalDensity:
		if atm == nil {
			return nil, fmt.Errorf("%w: %s has no atmosphere", ErrUnsupportedVariable, secondary.Name)
		}
		return func(x dynamo.State, _ float64) []float64 {
			p, _ := rel(x)
			return []float64{atm.Density(norm3(p) - secondary.Radius)}
		}, nil
	case output.MachNumber:
		if atm == nil || atm.SpeedOfSound <= 0 {
			return nil, fmt.Errorf("%w: %s has no speed of sound", ErrUnsupportedVariable, secondary.Name)
		}
		return func(x dynamo.State, _ float64) []float64 {
			_, vel := rel(x)
			return []float64{norm3(vel) / atm.SpeedOfSound}
		}, nil
	case output.KeplerianState, output.SpecificOrbitalEnergy:
		if mu <= 0 {
			return nil, fmt.Errorf("%w: %s about %s has no gravitational parameter", ErrUnsupportedVariable, body.Name, secondary.Name)
		}
		if v.Kind == output.SpecificOrbitalEnergy {
			return func(x dynamo.State, _ float64) []float64 {
				p, vel := rel(x)
				s := norm3(vel)
				return []float64{s*s/2 - mu/norm3(p)}
			}, nil
		}
		return func(x dynamo.State, _ float64) []float64 {
			p, vel := rel(x)
			k := CartesianToKeplerian(p, vel, mu)
			return k[:]
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedVariable, v.Kind)
}

var _ termination.VariableResolver = (*Resolver)(nil)
