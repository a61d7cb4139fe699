package environment

import (
	"fmt"

	"github.com/san-kum/propsetup/internal/dynamo"
)

// TorqueModels are the resolved torques of a set of rotating bodies.
type TorqueModels struct {
	Bodies  []string
	inertia [][3]float64
	torque  [][3]float64
}

// CreateTorqueModels resolves the map behind h. Every rotating body needs
// positive principal moments of inertia.
func (r *Registry) CreateTorqueModels(h Handle, bodies []string) (*TorqueModels, error) {
	m, err := r.Torques(h)
	if err != nil {
		return nil, err
	}
	models := &TorqueModels{
		Bodies:  append([]string(nil), bodies...),
		inertia: make([][3]float64, len(bodies)),
		torque:  make([][3]float64, len(bodies)),
	}
	index := make(map[string]int, len(bodies))
	for i, name := range bodies {
		b, err := r.bodies.Get(name)
		if err != nil {
			return nil, err
		}
		for _, moment := range b.Inertia {
			if moment <= 0 {
				return nil, fmt.Errorf("%w: %s has no inertia tensor", ErrUnsupportedModel, name)
			}
		}
		models.inertia[i] = b.Inertia
		index[name] = i
	}
	for _, on := range sortedKeys(m) {
		if _, err := r.bodies.Get(on); err != nil {
			return nil, err
		}
		for _, by := range sortedKeys(m[on]) {
			if _, err := r.bodies.Get(by); err != nil {
				return nil, err
			}
			i, ok := index[on]
			if !ok {
				continue
			}
			for _, s := range m[on][by] {
				for k := 0; k < 3; k++ {
					models.torque[i][k] += s.Torque[k]
				}
			}
		}
	}
	return models, nil
}

// RigidBody integrates attitude quaternion (w, x, y, z, body to inertial)
// and body-frame angular velocity, seven entries per body.
type RigidBody struct {
	models *TorqueModels
}

func NewRigidBody(m *TorqueModels) *RigidBody {
	return &RigidBody{models: m}
}

func (rb *RigidBody) StateDim() int { return 7 * len(rb.models.Bodies) }

// Torque returns the total body-frame torque on body i.
func (rb *RigidBody) Torque(i int) [3]float64 { return rb.models.torque[i] }

func (rb *RigidBody) Derive(x dynamo.State, _ float64) dynamo.State {
	dx := make(dynamo.State, len(x))
	for i := range rb.models.Bodies {
		o := 7 * i
		qw, qx, qy, qz := x[o], x[o+1], x[o+2], x[o+3]
		w1, w2, w3 := x[o+4], x[o+5], x[o+6]

		dx[o] = 0.5 * (-qx*w1 - qy*w2 - qz*w3)
		dx[o+1] = 0.5 * (qw*w1 + qy*w3 - qz*w2)
		dx[o+2] = 0.5 * (qw*w2 + qz*w1 - qx*w3)
		dx[o+3] = 0.5 * (qw*w3 + qx*w2 - qy*w1)

		I := rb.models.inertia[i]
		tq := rb.models.torque[i]
		dx[o+4] = (tq[0] + (I[1]-I[2])*w2*w3) / I[0]
		dx[o+5] = (tq[1] + (I[2]-I[0])*w3*w1) / I[1]
		dx[o+6] = (tq[2] + (I[0]-I[1])*w1*w2) / I[2]
	}
	return dx
}

// Energy is the total rotational kinetic energy.
func (rb *RigidBody) Energy(x dynamo.State) float64 {
	e := 0.0
	for i := range rb.models.Bodies {
		I := rb.models.inertia[i]
		w := x[7*i+4 : 7*i+7]
		e += 0.5 * (I[0]*w[0]*w[0] + I[1]*w[1]*w[1] + I[2]*w[2]*w[2])
	}
	return e
}
