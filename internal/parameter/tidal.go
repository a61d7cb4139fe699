package parameter

import (
	"fmt"

	"github.com/san-kum/propsetup/internal/dynamo"
)

func loveDegree(deformed string, degree int) error {
	if err := requireBody(FullDegreeTidalLoveNumber, deformed); err != nil {
		return err
	}
	if degree < 2 {
		return fmt.Errorf("%w: love number degree must be at least 2, got %d", dynamo.ErrInvalidRange, degree)
	}
	return nil
}

func orderInvariant(deformed string, degree int, deforming []string, complex bool) (*Settings, error) {
	if err := loveDegree(deformed, degree); err != nil {
		return nil, err
	}
	s := newSettings(deformed, FullDegreeTidalLoveNumber)
	s.degree = degree
	s.deforming = deforming
	s.complex = complex
	return s, nil
}

// NewOrderInvariantKLoveNumber is the degree-wide k Love number of deformed
// for the tide raised by deforming.
func NewOrderInvariantKLoveNumber(deformed string, degree int, deforming string, complex bool) (*Settings, error) {
	return NewOrderInvariantKLoveNumberMulti(deformed, degree, []string{deforming}, complex)
}

func NewOrderInvariantKLoveNumberMulti(deformed string, degree int, deforming []string, complex bool) (*Settings, error) {
	list, err := bodyList(deforming)
	if err != nil {
		return nil, fmt.Errorf("love number of %s: %w", deformed, err)
	}
	return orderInvariant(deformed, degree, list, complex)
}

// NewOrderInvariantKLoveNumberAll applies to the tides of every deforming
// body of deformed.
func NewOrderInvariantKLoveNumberAll(deformed string, degree int, complex bool) (*Settings, error) {
	return orderInvariant(deformed, degree, nil, complex)
}

func orderVarying(deformed string, degree int, orders []int, deforming []string, complex bool) (*Settings, error) {
	if err := loveDegree(deformed, degree); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("%w: order-varying love number of %s without orders", dynamo.ErrInvalidArgument, deformed)
	}
	seen := make(map[int]bool, len(orders))
	for _, m := range orders {
		if m < 0 || m > degree {
			return nil, fmt.Errorf("%w: order %d outside 0..%d", dynamo.ErrInvalidRange, m, degree)
		}
		if seen[m] {
			return nil, fmt.Errorf("%w: order %d listed twice", dynamo.ErrDuplicateContribution, m)
		}
		seen[m] = true
	}
	s := newSettings(deformed, SingleDegreeVariableTidalLoveNumber)
	s.degree = degree
	s.orders = append([]int(nil), orders...)
	s.deforming = deforming
	s.complex = complex
	return s, nil
}

func NewOrderVaryingKLoveNumber(deformed string, degree int, orders []int, deforming string, complex bool) (*Settings, error) {
	return NewOrderVaryingKLoveNumberMulti(deformed, degree, orders, []string{deforming}, complex)
}

func NewOrderVaryingKLoveNumberMulti(deformed string, degree int, orders []int, deforming []string, complex bool) (*Settings, error) {
	list, err := bodyList(deforming)
	if err != nil {
		return nil, fmt.Errorf("love number of %s: %w", deformed, err)
	}
	return orderVarying(deformed, degree, orders, list, complex)
}

func NewOrderVaryingKLoveNumberAll(deformed string, degree int, orders []int, complex bool) (*Settings, error) {
	return orderVarying(deformed, degree, orders, nil, complex)
}
