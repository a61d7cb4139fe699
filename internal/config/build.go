package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/san-kum/propsetup/internal/dynamo"
	"github.com/san-kum/propsetup/internal/environment"
	"github.com/san-kum/propsetup/internal/output"
	"github.com/san-kum/propsetup/internal/parameter"
	"github.com/san-kum/propsetup/internal/propagation"
	"github.com/san-kum/propsetup/internal/rootfind"
	"github.com/san-kum/propsetup/internal/sim"
	"github.com/san-kum/propsetup/internal/statetype"
	"github.com/san-kum/propsetup/internal/termination"
)

// Model is the typed graph built from a scenario.
type Model struct {
	Name        string
	Environment *environment.Registry
	Propagation propagation.Settings
	Parameters  *parameter.Set
	Integrator  sim.IntegratorSettings
}

type builder struct {
	env           *environment.Registry
	accelerations map[string]environment.Handle
	torques       map[string]environment.Handle
	massRates     map[string]environment.Handle
}

// Build validates the scenario and turns it into settings. Derivative
// models are not created; the caller decides when.
func (s *Scenario) Build() (*Model, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	bodies := make([]environment.Body, 0, len(s.Bodies))
	for _, b := range s.Bodies {
		bodies = append(bodies, environment.Body{
			Name:                   b.Name,
			Mass:                   b.Mass,
			GravitationalParameter: b.GravitationalParameter,
			Radius:                 b.Radius,
			Inertia:                b.Inertia,
			Atmosphere:             b.Atmosphere,
		})
	}
	catalog, err := environment.NewBodies(bodies...)
	if err != nil {
		return nil, err
	}

	b := &builder{
		env:           environment.NewRegistry(catalog),
		accelerations: make(map[string]environment.Handle),
		torques:       make(map[string]environment.Handle),
		massRates:     make(map[string]environment.Handle),
	}
	if err := b.models(s); err != nil {
		return nil, err
	}

	ps, err := b.propagation(s.Propagation)
	if err != nil {
		return nil, err
	}

	var params []*parameter.Settings
	if s.EstimateInitialStates {
		initial, err := parameter.NewInitialStates(ps)
		if err != nil {
			return nil, err
		}
		params = append(params, initial...)
	}
	for i, pc := range s.Parameters {
		p, err := buildParameter(pc)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
		params = append(params, p)
	}
	set, err := parameter.NewSet(params...)
	if err != nil {
		return nil, err
	}

	return &Model{
		Name:        s.Name,
		Environment: b.env,
		Propagation: ps,
		Parameters:  set,
		Integrator:  s.Integrator,
	}, nil
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (b *builder) models(s *Scenario) error {
	for _, name := range sortedNames(s.Accelerations) {
		m := environment.AccelerationMap{}
		for _, a := range s.Accelerations[name] {
			var settings environment.AccelerationSettings
			switch a.Type {
			case "point_mass":
				settings = environment.PointMass()
			case "thrust":
				settings = environment.Thrust(a.Vector)
			}
			if m[a.Body] == nil {
				m[a.Body] = map[string][]environment.AccelerationSettings{}
			}
			m[a.Body][a.By] = append(m[a.Body][a.By], settings)
		}
		b.accelerations[name] = b.env.AddAccelerations(m)
	}
	for _, name := range sortedNames(s.Torques) {
		m := environment.TorqueMap{}
		for _, t := range s.Torques[name] {
			if m[t.Body] == nil {
				m[t.Body] = map[string][]environment.TorqueSettings{}
			}
			m[t.Body][t.By] = append(m[t.Body][t.By], environment.TorqueSettings{Torque: t.Torque})
		}
		b.torques[name] = b.env.AddTorques(m)
	}
	for _, name := range sortedNames(s.MassRates) {
		m := environment.MassRateMap{}
		for _, r := range s.MassRates[name] {
			m[r.Body] = append(m[r.Body], environment.MassRateSettings{Rate: r.Rate})
		}
		b.massRates[name] = b.env.AddMassRates(m)
	}
	return nil
}

func (b *builder) propagation(pc PropagationConfig) (propagation.Settings, error) {
	switch pc.Kind {
	case KindSingle:
		return b.arc(*pc.Single, pc.Termination)
	case KindMultiArc:
		return b.multiArc(pc)
	case KindHybridArc:
		single, err := b.arc(*pc.Single, pc.Termination)
		if err != nil {
			return nil, fmt.Errorf("single arc: %w", err)
		}
		multi, err := b.multiArc(pc)
		if err != nil {
			return nil, err
		}
		return propagation.NewHybridArc(single, multi)
	default:
		return nil, fmt.Errorf("%w: propagation kind %q", dynamo.ErrInvalidArgument, pc.Kind)
	}
}

func (b *builder) multiArc(pc PropagationConfig) (*propagation.MultiArc, error) {
	arcs := make([]propagation.SingleArc, 0, len(pc.Arcs))
	starts := make([]float64, 0, len(pc.Arcs))
	for i, ac := range pc.Arcs {
		arc, err := b.arc(ac, pc.Termination)
		if err != nil {
			return nil, fmt.Errorf("arc %d: %w", i, err)
		}
		arcs = append(arcs, arc)
		starts = append(starts, ac.StartTime)
	}
	return propagation.NewMultiArc(arcs, starts, pc.TransferState)
}

// arc builds one single arc. Every block of a multi-type arc shares the
// same termination instance.
func (b *builder) arc(ac ArcConfig, shared *TerminationConfig) (propagation.SingleArc, error) {
	tc := ac.Termination
	if tc == nil {
		tc = shared
	}
	if tc == nil {
		return nil, fmt.Errorf("%w: arc without termination settings", dynamo.ErrInvalidArgument)
	}
	term, err := buildTermination(*tc)
	if err != nil {
		return nil, err
	}

	opts := []propagation.Option{propagation.WithPrintInterval(ac.PrintInterval)}
	if len(ac.Outputs) > 0 {
		sel, err := buildSelection(ac.Outputs)
		if err != nil {
			return nil, err
		}
		opts = append(opts, propagation.WithOutputs(sel))
	}

	if len(ac.Blocks) == 1 {
		return b.block(ac.Blocks[0], term, opts)
	}
	members := make([]propagation.SingleArc, 0, len(ac.Blocks))
	for i, bc := range ac.Blocks {
		m, err := b.block(bc, term, nil)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		members = append(members, m)
	}
	return propagation.NewMultiType(members, term, opts...)
}

func (b *builder) block(bc BlockConfig, term termination.Condition, opts []propagation.Option) (propagation.SingleArc, error) {
	x0 := dynamo.State(bc.InitialState).Clone()
	switch bc.Type {
	case "translational":
		h, ok := b.accelerations[bc.Models]
		if !ok {
			return nil, fmt.Errorf("%w: no acceleration models named %q", dynamo.ErrInvalidArgument, bc.Models)
		}
		if bc.Propagator != "" {
			p, err := statetype.ParseTranslationalPropagator(bc.Propagator)
			if err != nil {
				return nil, err
			}
			opts = append(opts, propagation.WithTranslationalPropagator(p))
		}
		return propagation.NewTranslational(bc.CentralBodies, bc.Bodies, h, x0, term, opts...)
	case "rotational":
		h, ok := b.torques[bc.Models]
		if !ok {
			return nil, fmt.Errorf("%w: no torque models named %q", dynamo.ErrInvalidArgument, bc.Models)
		}
		if bc.Propagator != "" {
			p, err := statetype.ParseRotationalPropagator(bc.Propagator)
			if err != nil {
				return nil, err
			}
			opts = append(opts, propagation.WithRotationalPropagator(p))
		}
		return propagation.NewRotational(h, bc.Bodies, x0, term, opts...)
	case "mass":
		h, ok := b.massRates[bc.Models]
		if !ok {
			return nil, fmt.Errorf("%w: no mass rate models named %q", dynamo.ErrInvalidArgument, bc.Models)
		}
		return propagation.NewMass(bc.Bodies, h, x0, term, opts...)
	default:
		return nil, fmt.Errorf("%w: state type %q", dynamo.ErrInvalidArgument, bc.Type)
	}
}

func buildVariable(vc VariableConfig) (output.Variable, error) {
	kind, err := output.ParseKind(vc.Kind)
	if err != nil {
		return output.Variable{}, err
	}
	v := output.NewVariable(kind, vc.Body, vc.Relative)
	if vc.Component != nil {
		v = v.WithComponent(*vc.Component)
	}
	return v, nil
}

func buildSelection(vcs []VariableConfig) (output.Selection, error) {
	vars := make([]output.Variable, 0, len(vcs))
	for _, vc := range vcs {
		v, err := buildVariable(vc)
		if err != nil {
			return output.Selection{}, err
		}
		vars = append(vars, v)
	}
	return output.NewSelection(vars...)
}

func buildTermination(tc TerminationConfig) (termination.Condition, error) {
	switch tc.Type {
	case "time":
		return termination.NewTime(tc.Time, tc.Exact)
	case "cpu_time":
		return termination.NewCPUTime(time.Duration(tc.CPUSeconds * float64(time.Second)))
	case "dependent_variable":
		if tc.Variable == nil {
			return nil, fmt.Errorf("%w: dependent variable termination without a variable", dynamo.ErrInvalidArgument)
		}
		v, err := buildVariable(*tc.Variable)
		if err != nil {
			return nil, err
		}
		var rf *rootfind.Settings
		if tc.RootFinder != nil {
			rf = buildRootFinder(*tc.RootFinder)
		}
		return termination.NewDependentVariable(v, tc.Limit, tc.LowerLimit, tc.Exact, rf)
	case "hybrid":
		members := make([]termination.Condition, 0, len(tc.Conditions))
		for i, mc := range tc.Conditions {
			m, err := buildTermination(mc)
			if err != nil {
				return nil, fmt.Errorf("hybrid member %d: %w", i, err)
			}
			members = append(members, m)
		}
		return termination.NewHybrid(members, tc.Any)
	default:
		return nil, fmt.Errorf("%w: termination type %q", dynamo.ErrInvalidArgument, tc.Type)
	}
}

func buildRootFinder(rc RootFinderConfig) *rootfind.Settings {
	var rf *rootfind.Settings
	if rc.Method == "secant" {
		rf = rootfind.NewSecant(rc.AbsoluteTolerance, rc.MaxIterations)
	} else {
		rf = rootfind.NewBisection(rc.AbsoluteTolerance, rc.MaxIterations)
	}
	rf.RelativeTolerance = rc.RelativeTolerance
	switch rc.OnMaxIterations {
	case "accept":
		rf.OnMaxIterations = rootfind.AcceptResult
	case "accept_with_warning":
		rf.OnMaxIterations = rootfind.AcceptResultWithWarning
	}
	return rf
}

func buildParameter(pc ParameterConfig) (*parameter.Settings, error) {
	typ, err := parameter.ParseType(pc.Type)
	if err != nil {
		return nil, err
	}
	switch typ {
	case parameter.InitialBodyState, parameter.ArcWiseInitialBodyState, parameter.InitialRotationalBodyState:
		return nil, fmt.Errorf("%w: %s is derived from the propagation, set estimate_initial_states", dynamo.ErrInvalidArgument, typ)
	case parameter.ArcWiseConstantDragCoefficient:
		return parameter.NewArcwiseDragCoefficient(pc.Body, pc.ArcTimes)
	case parameter.ArcWiseRadiationPressureCoefficient:
		return parameter.NewArcwiseRadiationPressureCoefficient(pc.Body, pc.ArcTimes)
	case parameter.SphericalHarmonicsCosineCoefficientBlock:
		return parameter.NewSphericalHarmonicsCosineBlock(pc.Body, pc.MinDegree, pc.MinOrder, pc.MaxDegree, pc.MaxOrder)
	case parameter.SphericalHarmonicsSineCoefficientBlock:
		return parameter.NewSphericalHarmonicsSineBlock(pc.Body, pc.MinDegree, pc.MinOrder, pc.MaxDegree, pc.MaxOrder)
	case parameter.ConstantAdditiveObservationBias:
		return parameter.NewObservationBias(linkEnds(pc.LinkEnds), pc.Observable)
	case parameter.ConstantRelativeObservationBias:
		return parameter.NewRelativeObservationBias(linkEnds(pc.LinkEnds), pc.Observable)
	case parameter.ArcwiseConstantAdditiveObservationBias:
		return parameter.NewArcwiseObservationBias(linkEnds(pc.LinkEnds), pc.Observable, pc.ArcTimes, pc.TimeLinkEnd)
	case parameter.ArcwiseConstantRelativeObservationBias:
		return parameter.NewArcwiseRelativeObservationBias(linkEnds(pc.LinkEnds), pc.Observable, pc.ArcTimes, pc.TimeLinkEnd)
	case parameter.EmpiricalAccelerationCoefficients:
		return parameter.NewConstantEmpiricalAccelerationTerms(pc.Body, pc.CentralBody)
	case parameter.ArcWiseEmpiricalAccelerationCoefficients:
		return parameter.NewArcwiseEmpiricalAccelerationTerms(pc.Body, pc.CentralBody, pc.ArcTimes)
	case parameter.FullDegreeTidalLoveNumber:
		if len(pc.Deforming) == 0 {
			return parameter.NewOrderInvariantKLoveNumberAll(pc.Body, pc.Degree, pc.Complex)
		}
		return parameter.NewOrderInvariantKLoveNumberMulti(pc.Body, pc.Degree, pc.Deforming, pc.Complex)
	case parameter.SingleDegreeVariableTidalLoveNumber:
		if len(pc.Deforming) == 0 {
			return parameter.NewOrderVaryingKLoveNumberAll(pc.Body, pc.Degree, pc.Orders, pc.Complex)
		}
		return parameter.NewOrderVaryingKLoveNumberMulti(pc.Body, pc.Degree, pc.Orders, pc.Deforming, pc.Complex)
	case parameter.DirectDissipationTidalTimeLag:
		return parameter.NewDirectTidalDissipationTimeLagMulti(pc.Body, pc.Deforming)
	default:
		return parameter.New(pc.Body, typ, pc.Station)
	}
}

func linkEnds(lcs []LinkEndConfig) parameter.LinkEnds {
	ends := make(parameter.LinkEnds, 0, len(lcs))
	for _, lc := range lcs {
		ends = append(ends, parameter.LinkEnd{Role: lc.Role, Body: lc.Body, Station: lc.Station})
	}
	return ends
}
