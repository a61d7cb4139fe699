package environment

import (
	"fmt"

	"github.com/san-kum/propsetup/internal/dynamo"
	"github.com/san-kum/propsetup/internal/statetype"
)

// Block places one derivative model inside a propagated state vector.
// Central is set for translational blocks only.
type Block struct {
	Type    statetype.StateType
	Bodies  []string
	Central []string
	Offset  int
	System  dynamo.System
}

func (b Block) Size() int { return b.System.StateDim() }

// Composite evaluates independent blocks side by side.
type Composite struct {
	blocks []Block
	dim    int
}

// NewComposite requires blocks to tile the state vector in order.
func NewComposite(blocks []Block) (*Composite, error) {
	dim := 0
	for i, b := range blocks {
		if b.System == nil {
			return nil, fmt.Errorf("%w: block %d has no derivative model", dynamo.ErrModelsNotCreated, i)
		}
		if b.Offset != dim {
			return nil, fmt.Errorf("%w: block %d starts at %d, expected %d", dynamo.ErrDimensionMismatch, i, b.Offset, dim)
		}
		dim += b.Size()
	}
	return &Composite{blocks: append([]Block(nil), blocks...), dim: dim}, nil
}

func (c *Composite) StateDim() int   { return c.dim }
func (c *Composite) Blocks() []Block { return append([]Block(nil), c.blocks...) }

func (c *Composite) Derive(x dynamo.State, t float64) dynamo.State {
	dx := make(dynamo.State, 0, len(x))
	for _, b := range c.blocks {
		dx = append(dx, b.System.Derive(x[b.Offset:b.Offset+b.Size()], t)...)
	}
	return dx
}
