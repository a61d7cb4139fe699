package parameter

import (
	"fmt"

	"github.com/san-kum/propsetup/internal/dynamo"
)

// Set is an ordered list of parameters estimated together. The order fixes
// the layout of the estimated parameter vector.
type Set struct {
	params []*Settings
}

// NewSet rejects two parameters estimating the same quantity.
func NewSet(params ...*Settings) (*Set, error) {
	seen := make(map[string]bool, len(params))
	for i, p := range params {
		if p == nil {
			return nil, fmt.Errorf("%w: parameter %d is nil", dynamo.ErrInvalidArgument, i)
		}
		k := p.Key()
		if seen[k] {
			return nil, fmt.Errorf("%w: parameter %s listed twice", dynamo.ErrDuplicateContribution, k)
		}
		seen[k] = true
	}
	return &Set{params: append([]*Settings(nil), params...)}, nil
}

func (s *Set) Len() int                { return len(s.params) }
func (s *Set) Parameters() []*Settings { return append([]*Settings(nil), s.params...) }

// With returns a new set with more parameters appended.
func (s *Set) With(more ...*Settings) (*Set, error) {
	return NewSet(append(s.Parameters(), more...)...)
}

// TotalSize sums the parameter sizes. The second result is false when any
// size is left to the environment.
func (s *Set) TotalSize() (int, bool) {
	total, known := 0, true
	for _, p := range s.params {
		n, ok := p.Size()
		total += n
		known = known && ok
	}
	return total, known
}

// Instances lists every estimated value in order, arc-wise parameters
// expanded per arc.
func (s *Set) Instances() []Instance {
	var out []Instance
	for _, p := range s.params {
		out = append(out, p.Instances()...)
	}
	return out
}
