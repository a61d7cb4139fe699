package metrics

import (
	"math"

	"github.com/san-kum/propsetup/internal/dynamo"
)

// MinimumRadius tracks the smallest position norm of any body in a Cartesian
// translational state laid out as x, y, z, vx, vy, vz per body.
type MinimumRadius struct {
	name    string
	minimum float64
	samples int
}

func NewMinimumRadius() *MinimumRadius {
	return &MinimumRadius{
		name:    "minimum_radius",
		minimum: math.Inf(1),
	}
}

func (m *MinimumRadius) Name() string {
	return m.name
}

func (m *MinimumRadius) Observe(x dynamo.State, t float64) {
	if len(x) == 0 || len(x)%6 != 0 {
		return
	}
	m.samples++
	for i := 0; i < len(x); i += 6 {
		r := math.Sqrt(x[i]*x[i] + x[i+1]*x[i+1] + x[i+2]*x[i+2])
		m.minimum = math.Min(m.minimum, r)
	}
}

func (m *MinimumRadius) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.minimum
}

func (m *MinimumRadius) Reset() {
	m.minimum = math.Inf(1)
	m.samples = 0
}
