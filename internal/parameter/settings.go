package parameter

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/propsetup/internal/dynamo"
)

// GlobalMetric is the body name of parameters that belong to no body.
const GlobalMetric = "global_metric"

// Settings identifies one estimable parameter.
type Settings struct {
	body     string
	typ      Type
	pointID  string
	arcTimes []float64

	linkEnds    LinkEnds
	observable  string
	timeLinkEnd string

	blocks []Index

	degree    int
	orders    []int
	deforming []string
	complex   bool

	centralBody string
	empirical   []EmpiricalTerm

	initial dynamo.State
}

// New returns settings for types that need nothing beyond a body and an
// optional point on that body. Types with extra shape use their own
// constructor.
func New(body string, typ Type, pointID string) (*Settings, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: parameter type %d", dynamo.ErrInvalidArgument, int(typ))
	}
	switch typ {
	case GravitationalParameter, ConstantDragCoefficient, RadiationPressureCoefficient, ConstantRotationRate,
		RotationPolePosition, MeanMomentOfInertia, PeriodicSpinVariation, PolarMotionAmplitude, CoreFactor,
		FreeCoreNutationRate, DesaturationDeltaVValues:
	case PPNParameterGamma, PPNParameterBeta, EquivalencePrincipleLPIViolation:
		if body == "" {
			body = GlobalMetric
		}
	case GroundStationPosition:
		if pointID == "" {
			return nil, fmt.Errorf("%w: %s needs a station name", dynamo.ErrInvalidArgument, typ)
		}
	default:
		return nil, fmt.Errorf("%w: %s needs its dedicated constructor", dynamo.ErrInvalidArgument, typ)
	}
	if body == "" {
		return nil, fmt.Errorf("%w: %s needs a body", dynamo.ErrInvalidArgument, typ)
	}
	return &Settings{body: body, typ: typ, pointID: pointID}, nil
}

func newSettings(body string, typ Type) *Settings {
	return &Settings{body: body, typ: typ}
}

func requireBody(typ Type, body string) error {
	if body == "" {
		return fmt.Errorf("%w: %s needs a body", dynamo.ErrInvalidArgument, typ)
	}
	return nil
}

func checkArcTimes(times []float64) ([]float64, error) {
	if len(times) == 0 {
		return nil, fmt.Errorf("%w: no arc initial times", dynamo.ErrInvalidArgument)
	}
	for i, t := range times {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, fmt.Errorf("%w: arc initial time %d is %v", dynamo.ErrInvalidArgument, i, t)
		}
		if i > 0 && t <= times[i-1] {
			return nil, fmt.Errorf("%w: arc initial time %d (%g) does not follow %g", dynamo.ErrNonMonotonic, i, t, times[i-1])
		}
	}
	return append([]float64(nil), times...), nil
}

func scalar(typ Type, body string) (*Settings, error) {
	if err := requireBody(typ, body); err != nil {
		return nil, err
	}
	return newSettings(body, typ), nil
}

func arcWise(typ Type, body string, arcInitialTimes []float64) (*Settings, error) {
	if err := requireBody(typ, body); err != nil {
		return nil, err
	}
	times, err := checkArcTimes(arcInitialTimes)
	if err != nil {
		return nil, fmt.Errorf("%s of %s: %w", typ, body, err)
	}
	s := newSettings(body, typ)
	s.arcTimes = times
	return s, nil
}

func NewGravitationalParameter(body string) (*Settings, error) {
	return scalar(GravitationalParameter, body)
}

func NewConstantDragCoefficient(body string) (*Settings, error) {
	return scalar(ConstantDragCoefficient, body)
}

func NewArcwiseDragCoefficient(body string, arcInitialTimes []float64) (*Settings, error) {
	return arcWise(ArcWiseConstantDragCoefficient, body, arcInitialTimes)
}

func NewRadiationPressureCoefficient(body string) (*Settings, error) {
	return scalar(RadiationPressureCoefficient, body)
}

func NewArcwiseRadiationPressureCoefficient(body string, arcInitialTimes []float64) (*Settings, error) {
	return arcWise(ArcWiseRadiationPressureCoefficient, body, arcInitialTimes)
}

func NewConstantRotationRate(body string) (*Settings, error) {
	return scalar(ConstantRotationRate, body)
}

func NewRotationPolePosition(body string) (*Settings, error) {
	return scalar(RotationPolePosition, body)
}

func NewMeanMomentOfInertia(body string) (*Settings, error) {
	return scalar(MeanMomentOfInertia, body)
}

func NewDesaturationDeltaV(body string) (*Settings, error) {
	return scalar(DesaturationDeltaVValues, body)
}

func NewPPNGamma() *Settings { return newSettings(GlobalMetric, PPNParameterGamma) }
func NewPPNBeta() *Settings  { return newSettings(GlobalMetric, PPNParameterBeta) }

func NewGroundStationPosition(body, station string) (*Settings, error) {
	return New(body, GroundStationPosition, station)
}

// NewDirectTidalDissipationTimeLag is the time lag of the tide raised on
// body by deforming.
func NewDirectTidalDissipationTimeLag(body, deforming string) (*Settings, error) {
	return NewDirectTidalDissipationTimeLagMulti(body, []string{deforming})
}

func NewDirectTidalDissipationTimeLagMulti(body string, deforming []string) (*Settings, error) {
	if err := requireBody(DirectDissipationTidalTimeLag, body); err != nil {
		return nil, err
	}
	list, err := bodyList(deforming)
	if err != nil {
		return nil, fmt.Errorf("tidal time lag of %s: %w", body, err)
	}
	s := newSettings(body, DirectDissipationTidalTimeLag)
	s.deforming = list
	return s, nil
}

func bodyList(bodies []string) ([]string, error) {
	if len(bodies) == 0 {
		return nil, fmt.Errorf("%w: empty deforming body list", dynamo.ErrInvalidArgument)
	}
	seen := make(map[string]bool, len(bodies))
	for _, b := range bodies {
		if b == "" {
			return nil, fmt.Errorf("%w: empty deforming body name", dynamo.ErrInvalidArgument)
		}
		if seen[b] {
			return nil, fmt.Errorf("%w: deforming body %s listed twice", dynamo.ErrDuplicateContribution, b)
		}
		seen[b] = true
	}
	return append([]string(nil), bodies...), nil
}

func (s *Settings) Body() string               { return s.body }
func (s *Settings) Type() Type                 { return s.typ }
func (s *Settings) PointOnBodyID() string      { return s.pointID }
func (s *Settings) ObservableType() string     { return s.observable }
func (s *Settings) TimeLinkEnd() string        { return s.timeLinkEnd }
func (s *Settings) Degree() int                { return s.degree }
func (s *Settings) UseComplexLoveNumber() bool { return s.complex }
func (s *Settings) CentralBody() string        { return s.centralBody }

func (s *Settings) ArcInitialTimes() []float64 { return append([]float64(nil), s.arcTimes...) }
func (s *Settings) LinkEnds() LinkEnds         { return append(LinkEnds(nil), s.linkEnds...) }
func (s *Settings) BlockIndices() []Index      { return append([]Index(nil), s.blocks...) }
func (s *Settings) Orders() []int              { return append([]int(nil), s.orders...) }
func (s *Settings) DeformingBodies() []string  { return append([]string(nil), s.deforming...) }
func (s *Settings) EmpiricalTerms() []EmpiricalTerm {
	return append([]EmpiricalTerm(nil), s.empirical...)
}

// InitialState returns the initial-state value of initial-state parameters,
// arc states concatenated for arc-wise ones.
func (s *Settings) InitialState() dynamo.State { return s.initial.Clone() }

// NumberOfArcs is 1 for parameters that are not arc-wise.
func (s *Settings) NumberOfArcs() int {
	if s.typ.ArcWise() {
		return len(s.arcTimes)
	}
	return 1
}

// Size is the number of scalars estimated, over all arcs. The second result
// is false when the size depends on the environment (maneuver counts, spin
// variation frequencies); Size then returns zero.
func (s *Settings) Size() (int, bool) {
	per, ok := s.sizePerArc()
	return per * s.NumberOfArcs(), ok
}

func (s *Settings) sizePerArc() (int, bool) {
	switch s.typ {
	case ArcWiseInitialBodyState:
		return len(s.initial) / len(s.arcTimes), true
	case InitialBodyState, InitialRotationalBodyState:
		return len(s.initial), true
	case RotationPolePosition:
		return 2, true
	case GroundStationPosition:
		return 3, true
	case SphericalHarmonicsCosineCoefficientBlock, SphericalHarmonicsSineCoefficientBlock:
		return len(s.blocks), true
	case EmpiricalAccelerationCoefficients, ArcWiseEmpiricalAccelerationCoefficients:
		return len(s.empirical), true
	case FullDegreeTidalLoveNumber:
		if s.complex {
			return 2, true
		}
		return 1, true
	case SingleDegreeVariableTidalLoveNumber:
		if s.complex {
			return 2 * len(s.orders), true
		}
		return len(s.orders), true
	case DesaturationDeltaVValues, PeriodicSpinVariation, PolarMotionAmplitude:
		return 0, false
	default:
		return 1, true
	}
}

// Key identifies what is estimated; two settings with the same key estimate
// the same quantity.
func (s *Settings) Key() string {
	var b strings.Builder
	b.WriteString(s.typ.String())
	b.WriteString("(")
	if s.typ.ObservationBias() {
		b.WriteString(s.linkEnds.String())
		b.WriteString(";" + s.observable)
	} else {
		b.WriteString(s.body)
	}
	if s.pointID != "" {
		b.WriteString(":" + s.pointID)
	}
	if s.centralBody != "" {
		b.WriteString(";central=" + s.centralBody)
	}
	if len(s.deforming) > 0 {
		b.WriteString(";deforming=" + strings.Join(s.deforming, ","))
	}
	if s.typ == FullDegreeTidalLoveNumber || s.typ == SingleDegreeVariableTidalLoveNumber {
		fmt.Fprintf(&b, ";degree=%d", s.degree)
	}
	b.WriteString(")")
	return b.String()
}

func (s *Settings) String() string {
	k := s.Key()
	if len(s.blocks) > 0 {
		k += fmt.Sprintf("%v", s.blocks)
	}
	if len(s.orders) > 0 {
		k += fmt.Sprintf("orders%v", s.orders)
	}
	if s.typ.ArcWise() {
		k += fmt.Sprintf("@%v", s.arcTimes)
	}
	return k
}

// Instance is one estimated value of a parameter: the whole parameter, or
// one arc of an arc-wise parameter (Arc >= 0).
type Instance struct {
	Parameter *Settings
	Arc       int
	ArcStart  float64
}

// Instances expands arc-wise parameters into one instance per arc.
func (s *Settings) Instances() []Instance {
	if !s.typ.ArcWise() {
		return []Instance{{Parameter: s, Arc: -1}}
	}
	out := make([]Instance, len(s.arcTimes))
	for i, t := range s.arcTimes {
		out[i] = Instance{Parameter: s, Arc: i, ArcStart: t}
	}
	return out
}
