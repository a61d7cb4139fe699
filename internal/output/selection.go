package output

import (
	"fmt"

	"github.com/san-kum/propsetup/internal/dynamo"
)

// Selection is an ordered set of dependent variables. The order defines the
// column layout of the recorded output.
type Selection struct {
	vars       []Variable
	printTypes bool
}

func NewSelection(vars ...Variable) (Selection, error) {
	seen := make(map[Variable]bool, len(vars))
	for i, v := range vars {
		if err := v.Validate(); err != nil {
			return Selection{}, fmt.Errorf("output variable %d: %w", i, err)
		}
		if seen[v] {
			return Selection{}, fmt.Errorf("%w: output variable %s listed twice", dynamo.ErrDuplicateContribution, v)
		}
		seen[v] = true
	}
	out := make([]Variable, len(vars))
	copy(out, vars)
	return Selection{vars: out}, nil
}

// WithPrintTypes returns a copy that asks the driver to log the column
// layout before propagating.
func (s Selection) WithPrintTypes(on bool) Selection {
	s.printTypes = on
	return s
}

func (s Selection) PrintTypes() bool { return s.printTypes }

func (s Selection) Len() int { return len(s.vars) }

func (s Selection) Variables() []Variable {
	out := make([]Variable, len(s.vars))
	copy(out, s.vars)
	return out
}

// Size is the total number of output columns.
func (s Selection) Size() int {
	n := 0
	for _, v := range s.vars {
		n += v.Size()
	}
	return n
}

// Column is the position of one variable in the output vector.
type Column struct {
	Variable Variable
	Offset   int
	Size     int
}

func (s Selection) Layout() []Column {
	cols := make([]Column, len(s.vars))
	offset := 0
	for i, v := range s.vars {
		cols[i] = Column{Variable: v, Offset: offset, Size: v.Size()}
		offset += v.Size()
	}
	return cols
}

// Headers names every output column in order.
func (s Selection) Headers() []string {
	headers := make([]string, 0, s.Size())
	for _, c := range s.Layout() {
		if c.Size == 1 {
			headers = append(headers, c.Variable.String())
			continue
		}
		for j := 0; j < c.Size; j++ {
			headers = append(headers, fmt.Sprintf("%s[%d]", c.Variable, j))
		}
	}
	return headers
}
