package integrators

import "github.com/san-kum/propsetup/internal/dynamo"

// Hermite is the cubic Hermite interpolant over one accepted step, built
// from the states and derivatives at both ends.
type Hermite struct {
	t0, t1 float64
	x0, x1 dynamo.State
	f0, f1 dynamo.State
}

func NewHermite(dyn dynamo.System, t0 float64, x0 dynamo.State, t1 float64, x1 dynamo.State) *Hermite {
	return &Hermite{
		t0: t0,
		t1: t1,
		x0: x0.Clone(),
		x1: x1.Clone(),
		f0: dyn.Derive(x0, t0),
		f1: dyn.Derive(x1, t1),
	}
}

func (h *Hermite) Start() float64 { return h.t0 }
func (h *Hermite) End() float64   { return h.t1 }

func (h *Hermite) At(t float64) dynamo.State {
	dt := h.t1 - h.t0
	if dt == 0 {
		return h.x1.Clone()
	}
	s := (t - h.t0) / dt
	s2 := s * s
	s3 := s2 * s

	h00 := 2*s3 - 3*s2 + 1
	h10 := s3 - 2*s2 + s
	h01 := -2*s3 + 3*s2
	h11 := s3 - s2

	out := make(dynamo.State, len(h.x0))
	for i := range out {
		out[i] = h00*h.x0[i] + h10*dt*h.f0[i] + h01*h.x1[i] + h11*dt*h.f1[i]
	}
	return out
}
