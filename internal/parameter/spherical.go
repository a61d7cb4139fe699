package parameter

import (
	"fmt"

	"github.com/san-kum/propsetup/internal/dynamo"
)

// Index is one (degree, order) pair of a spherical-harmonics block.
type Index struct {
	Degree int `yaml:"degree" json:"degree"`
	Order  int `yaml:"order" json:"order"`
}

func (i Index) String() string { return fmt.Sprintf("(%d,%d)", i.Degree, i.Order) }

// BlockRange expands a rectangular degree/order range into its pairs,
// degree-major, keeping only pairs with order <= degree. Sine blocks skip
// order zero, whose sine coefficients vanish.
func BlockRange(minDegree, minOrder, maxDegree, maxOrder int, sine bool) ([]Index, error) {
	if minDegree < 0 || minOrder < 0 {
		return nil, fmt.Errorf("%w: negative degree or order (%d, %d)", dynamo.ErrInvalidRange, minDegree, minOrder)
	}
	if minDegree > maxDegree {
		return nil, fmt.Errorf("%w: minimum degree %d above maximum degree %d", dynamo.ErrInvalidRange, minDegree, maxDegree)
	}
	if minOrder > maxOrder {
		return nil, fmt.Errorf("%w: minimum order %d above maximum order %d", dynamo.ErrInvalidRange, minOrder, maxOrder)
	}
	if sine && minOrder == 0 {
		minOrder = 1
	}
	var out []Index
	for d := minDegree; d <= maxDegree; d++ {
		for m := minOrder; m <= maxOrder && m <= d; m++ {
			out = append(out, Index{Degree: d, Order: m})
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: degree %d..%d, order %d..%d selects no coefficient", dynamo.ErrInvalidRange, minDegree, maxDegree, minOrder, maxOrder)
	}
	return out, nil
}

func checkIndices(indices []Index, sine bool) ([]Index, error) {
	if len(indices) == 0 {
		return nil, fmt.Errorf("%w: empty coefficient block", dynamo.ErrInvalidArgument)
	}
	seen := make(map[Index]bool, len(indices))
	for _, ix := range indices {
		if ix.Order < 0 || ix.Order > ix.Degree {
			return nil, fmt.Errorf("%w: coefficient %s needs 0 <= order <= degree", dynamo.ErrInvalidRange, ix)
		}
		if sine && ix.Order == 0 {
			return nil, fmt.Errorf("%w: sine coefficient %s vanishes", dynamo.ErrInvalidRange, ix)
		}
		if seen[ix] {
			return nil, fmt.Errorf("%w: coefficient %s listed twice", dynamo.ErrDuplicateContribution, ix)
		}
		seen[ix] = true
	}
	return append([]Index(nil), indices...), nil
}

func block(typ Type, body string, indices []Index) (*Settings, error) {
	if err := requireBody(typ, body); err != nil {
		return nil, err
	}
	blocks, err := checkIndices(indices, typ == SphericalHarmonicsSineCoefficientBlock)
	if err != nil {
		return nil, fmt.Errorf("%s of %s: %w", typ, body, err)
	}
	s := newSettings(body, typ)
	s.blocks = blocks
	return s, nil
}

// NewSphericalHarmonicsCosineBlock selects the cosine coefficients of body
// in the given degree/order rectangle.
func NewSphericalHarmonicsCosineBlock(body string, minDegree, minOrder, maxDegree, maxOrder int) (*Settings, error) {
	indices, err := BlockRange(minDegree, minOrder, maxDegree, maxOrder, false)
	if err != nil {
		return nil, fmt.Errorf("%s of %s: %w", SphericalHarmonicsCosineCoefficientBlock, body, err)
	}
	return block(SphericalHarmonicsCosineCoefficientBlock, body, indices)
}

func NewSphericalHarmonicsCosineBlockIndices(body string, indices []Index) (*Settings, error) {
	return block(SphericalHarmonicsCosineCoefficientBlock, body, indices)
}

func NewSphericalHarmonicsSineBlock(body string, minDegree, minOrder, maxDegree, maxOrder int) (*Settings, error) {
	indices, err := BlockRange(minDegree, minOrder, maxDegree, maxOrder, true)
	if err != nil {
		return nil, fmt.Errorf("%s of %s: %w", SphericalHarmonicsSineCoefficientBlock, body, err)
	}
	return block(SphericalHarmonicsSineCoefficientBlock, body, indices)
}

func NewSphericalHarmonicsSineBlockIndices(body string, indices []Index) (*Settings, error) {
	return block(SphericalHarmonicsSineCoefficientBlock, body, indices)
}
