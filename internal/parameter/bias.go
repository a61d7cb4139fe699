package parameter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/propsetup/internal/dynamo"
)

// LinkEnd is one participant of an observation: a body, optionally a
// station on it, in a role such as transmitter or receiver.
type LinkEnd struct {
	Role    string `yaml:"role" json:"role"`
	Body    string `yaml:"body" json:"body"`
	Station string `yaml:"station,omitempty" json:"station,omitempty"`
}

func (l LinkEnd) String() string {
	if l.Station == "" {
		return l.Role + "=" + l.Body
	}
	return l.Role + "=" + l.Body + ":" + l.Station
}

// LinkEnds identifies an observation link, sorted by role.
type LinkEnds []LinkEnd

func (ls LinkEnds) String() string {
	parts := make([]string, len(ls))
	for i, l := range ls {
		parts[i] = l.String()
	}
	return strings.Join(parts, ",")
}

// Has reports whether role takes part in the link.
func (ls LinkEnds) Has(role string) bool {
	for _, l := range ls {
		if l.Role == role {
			return true
		}
	}
	return false
}

func checkLinkEnds(ends LinkEnds) (LinkEnds, error) {
	if len(ends) == 0 {
		return nil, fmt.Errorf("%w: observation bias without link ends", dynamo.ErrInvalidArgument)
	}
	out := append(LinkEnds(nil), ends...)
	sort.Slice(out, func(i, j int) bool { return out[i].Role < out[j].Role })
	for i, l := range out {
		if l.Role == "" || l.Body == "" {
			return nil, fmt.Errorf("%w: link end %q needs a role and a body", dynamo.ErrInvalidArgument, l)
		}
		if i > 0 && out[i-1].Role == l.Role {
			return nil, fmt.Errorf("%w: link end role %s listed twice", dynamo.ErrDuplicateContribution, l.Role)
		}
	}
	return out, nil
}

func bias(typ Type, ends LinkEnds, observable string) (*Settings, error) {
	list, err := checkLinkEnds(ends)
	if err != nil {
		return nil, err
	}
	if observable == "" {
		return nil, fmt.Errorf("%w: %s needs an observable type", dynamo.ErrInvalidArgument, typ)
	}
	s := newSettings(list[0].Body, typ)
	s.linkEnds = list
	s.observable = observable
	return s, nil
}

func arcwiseBias(typ Type, ends LinkEnds, observable string, arcStartTimes []float64, timeLinkEnd string) (*Settings, error) {
	s, err := bias(typ, ends, observable)
	if err != nil {
		return nil, err
	}
	if !s.linkEnds.Has(timeLinkEnd) {
		return nil, fmt.Errorf("%w: time link end %q is not part of %s", dynamo.ErrInvalidArgument, timeLinkEnd, s.linkEnds)
	}
	times, err := checkArcTimes(arcStartTimes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", typ, err)
	}
	s.arcTimes = times
	s.timeLinkEnd = timeLinkEnd
	return s, nil
}

// NewObservationBias is a constant additive bias on one observable of a
// link.
func NewObservationBias(ends LinkEnds, observable string) (*Settings, error) {
	return bias(ConstantAdditiveObservationBias, ends, observable)
}

func NewRelativeObservationBias(ends LinkEnds, observable string) (*Settings, error) {
	return bias(ConstantRelativeObservationBias, ends, observable)
}

// NewArcwiseObservationBias estimates one additive bias per arc; arcs are
// delimited on the time tags of timeLinkEnd.
func NewArcwiseObservationBias(ends LinkEnds, observable string, arcStartTimes []float64, timeLinkEnd string) (*Settings, error) {
	return arcwiseBias(ArcwiseConstantAdditiveObservationBias, ends, observable, arcStartTimes, timeLinkEnd)
}

func NewArcwiseRelativeObservationBias(ends LinkEnds, observable string, arcStartTimes []float64, timeLinkEnd string) (*Settings, error) {
	return arcwiseBias(ArcwiseConstantRelativeObservationBias, ends, observable, arcStartTimes, timeLinkEnd)
}
