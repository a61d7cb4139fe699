package metrics

import (
	"math"

	"github.com/san-kum/propsetup/internal/dynamo"
)

// StepSize is the mean absolute time between consecutive observed states.
type StepSize struct {
	name  string
	last  float64
	sum   float64
	steps int
	seen  bool
}

func NewStepSize() *StepSize {
	return &StepSize{
		name: "mean_step",
	}
}

func (s *StepSize) Name() string {
	return s.name
}

func (s *StepSize) Observe(x dynamo.State, t float64) {
	if s.seen {
		s.sum += math.Abs(t - s.last)
		s.steps++
	}
	s.last = t
	s.seen = true
}

func (s *StepSize) Value() float64 {
	if s.steps == 0 {
		return 0
	}
	return s.sum / float64(s.steps)
}

func (s *StepSize) Reset() {
	s.sum = 0
	s.steps = 0
	s.seen = false
}
