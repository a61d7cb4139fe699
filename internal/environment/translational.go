package environment

import (
	"fmt"
	"math"

	"github.com/san-kum/propsetup/internal/dynamo"
)

type accelerationTerm struct {
	kind   AccelerationType
	source int // integrated body index, -1 for the central body
	mu     float64
	vector [3]float64
}

// AccelerationModels are the accelerations of a set of integrated bodies,
// resolved against the registry. Bodies and Central have equal length.
type AccelerationModels struct {
	Bodies  []string
	Central []string
	terms   [][]accelerationTerm
}

// CreateAccelerationModels resolves the map behind h for the given bodies.
// Point-mass gravity is supported from the central body of the undergoing
// body and from other integrated bodies sharing that central body.
func (r *Registry) CreateAccelerationModels(h Handle, bodies, central []string) (*AccelerationModels, error) {
	m, err := r.Accelerations(h)
	if err != nil {
		return nil, err
	}
	if len(bodies) != len(central) {
		return nil, fmt.Errorf("%w: %d integrated bodies, %d central bodies", dynamo.ErrDimensionMismatch, len(bodies), len(central))
	}

	index := make(map[string]int, len(bodies))
	for i, name := range bodies {
		if _, err := r.bodies.Get(name); err != nil {
			return nil, err
		}
		if _, err := r.bodies.Get(central[i]); err != nil {
			return nil, err
		}
		index[name] = i
	}

	models := &AccelerationModels{
		Bodies:  append([]string(nil), bodies...),
		Central: append([]string(nil), central...),
		terms:   make([][]accelerationTerm, len(bodies)),
	}
	for _, on := range sortedKeys(m) {
		undergoing, err := r.bodies.Get(on)
		if err != nil {
			return nil, err
		}
		i, integrated := index[on]
		for _, by := range sortedKeys(m[on]) {
			exerting, err := r.bodies.Get(by)
			if err != nil {
				return nil, err
			}
			if !integrated {
				continue
			}
			for _, s := range m[on][by] {
				term, err := resolveTerm(s, undergoing, exerting, central[i], index, central)
				if err != nil {
					return nil, err
				}
				models.terms[i] = append(models.terms[i], term)
			}
		}
	}
	return models, nil
}

func resolveTerm(s AccelerationSettings, on, by Body, central string, index map[string]int, centrals []string) (accelerationTerm, error) {
	switch s.Type {
	case ConstantThrust:
		return accelerationTerm{kind: ConstantThrust, source: -1, vector: s.Vector}, nil
	case PointMassGravity:
		if by.GravitationalParameter <= 0 {
			return accelerationTerm{}, fmt.Errorf("%w: %s has no gravitational parameter", ErrUnsupportedModel, by.Name)
		}
		if by.Name == central {
			return accelerationTerm{kind: PointMassGravity, source: -1, mu: by.GravitationalParameter + on.GravitationalParameter}, nil
		}
		j, ok := index[by.Name]
		if !ok || centrals[j] != central {
			return accelerationTerm{}, fmt.Errorf("%w: point mass gravity of %s on %s needs %s integrated about %s",
				ErrUnsupportedModel, by.Name, on.Name, by.Name, central)
		}
		return accelerationTerm{kind: PointMassGravity, source: j, mu: by.GravitationalParameter}, nil
	default:
		return accelerationTerm{}, fmt.Errorf("%w: acceleration %s", ErrUnsupportedModel, s.Type)
	}
}

// Cowell integrates the Cartesian state of every body relative to its
// central body, body-major: x, y, z, vx, vy, vz per body.
type Cowell struct {
	models *AccelerationModels
}

func NewCowell(m *AccelerationModels) *Cowell {
	return &Cowell{models: m}
}

func (c *Cowell) StateDim() int               { return 6 * len(c.models.Bodies) }
func (c *Cowell) Models() *AccelerationModels { return c.models }

func (c *Cowell) Derive(x dynamo.State, t float64) dynamo.State {
	dx := make(dynamo.State, len(x))
	for i := range c.models.Bodies {
		dx[6*i] = x[6*i+3]
		dx[6*i+1] = x[6*i+4]
		dx[6*i+2] = x[6*i+5]
		a := c.Acceleration(x, i)
		dx[6*i+3] = a[0]
		dx[6*i+4] = a[1]
		dx[6*i+5] = a[2]
	}
	return dx
}

// Acceleration returns the total acceleration of body i.
func (c *Cowell) Acceleration(x dynamo.State, i int) [3]float64 {
	var a [3]float64
	ri := x[6*i : 6*i+3]
	for _, term := range c.models.terms[i] {
		switch term.kind {
		case ConstantThrust:
			for k := 0; k < 3; k++ {
				a[k] += term.vector[k]
			}
		case PointMassGravity:
			var d [3]float64
			if term.source < 0 {
				d = [3]float64{-ri[0], -ri[1], -ri[2]}
			} else {
				rj := x[6*term.source : 6*term.source+3]
				d = [3]float64{rj[0] - ri[0], rj[1] - ri[1], rj[2] - ri[2]}
			}
			r := math.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
			if r == 0 {
				continue
			}
			f := term.mu / (r * r * r)
			for k := 0; k < 3; k++ {
				a[k] += f * d[k]
			}
		}
	}
	return a
}

// Energy is the sum of the specific orbital energies of the integrated
// bodies about their central bodies.
func (c *Cowell) Energy(x dynamo.State) float64 {
	e := 0.0
	for i := range c.models.Bodies {
		v := dynamo.State(x[6*i+3 : 6*i+6]).Norm()
		e += 0.5 * v * v
		r := dynamo.State(x[6*i : 6*i+3]).Norm()
		for _, term := range c.models.terms[i] {
			if term.kind == PointMassGravity && term.source < 0 && r > 0 {
				e -= term.mu / r
			}
		}
	}
	return e
}
