package config

import (
	"math"
	"sort"

	"github.com/san-kum/propsetup/internal/environment"
)

const (
	muEarth     = 3.986004418e14
	radiusEarth = 6378137.0
)

var Presets = map[string]func() *Scenario{
	"leo":           leo,
	"tracking_arcs": trackingArcs,
	"hybrid":        hybrid,
}

func earth() BodyConfig {
	return BodyConfig{
		Name:                   "Earth",
		Mass:                   5.972e24,
		GravitationalParameter: muEarth,
		Radius:                 radiusEarth,
	}
}

func circular(radius float64) []float64 {
	return []float64{radius, 0, 0, 0, math.Sqrt(muEarth / radius), 0}
}

func pointMass(bodies ...string) map[string][]AccelerationConfig {
	terms := make([]AccelerationConfig, 0, len(bodies))
	for _, b := range bodies {
		terms = append(terms, AccelerationConfig{Body: b, By: "Earth", Type: "point_mass"})
	}
	return map[string][]AccelerationConfig{"gravity": terms}
}

func leo() *Scenario {
	s := DefaultScenario()
	s.Name = "leo"

	e := earth()
	e.Atmosphere = &environment.Atmosphere{SurfaceDensity: 1.225, ScaleHeight: 7200, SpeedOfSound: 340}
	s.Bodies = []BodyConfig{e, {Name: "Vehicle", Mass: 500, Inertia: [3]float64{120, 150, 90}}}
	s.Accelerations = pointMass("Vehicle")
	s.Torques = map[string][]TorqueConfig{"free": {{Body: "Vehicle", By: "Vehicle"}}}
	s.MassRates = map[string][]MassRateConfig{"burn": {{Body: "Vehicle", Rate: -0.001}}}

	altitude := VariableConfig{Kind: "altitude", Body: "Vehicle", Relative: "Earth"}
	s.Propagation = PropagationConfig{
		Kind: KindSingle,
		Single: &ArcConfig{
			Blocks: []BlockConfig{
				{Type: "translational", Bodies: []string{"Vehicle"}, CentralBodies: []string{"Earth"}, Models: "gravity", InitialState: circular(radiusEarth + 400e3)},
				{Type: "rotational", Bodies: []string{"Vehicle"}, Models: "free", InitialState: []float64{1, 0, 0, 0, 0, 0, 0.001}},
				{Type: "mass", Bodies: []string{"Vehicle"}, Models: "burn", InitialState: []float64{500}},
			},
			Termination: &TerminationConfig{
				Type: "hybrid",
				Any:  true,
				Conditions: []TerminationConfig{
					{Type: "time", Time: 5400, Exact: true},
					{
						Type:       "dependent_variable",
						Variable:   &altitude,
						Limit:      100e3,
						LowerLimit: true,
						Exact:      true,
						RootFinder: &RootFinderConfig{Method: "bisection", AbsoluteTolerance: 1e-6, MaxIterations: 100},
					},
				},
			},
			Outputs: []VariableConfig{
				altitude,
				{Kind: "keplerian_state", Body: "Vehicle", Relative: "Earth"},
				{Kind: "body_mass", Body: "Vehicle"},
			},
			PrintInterval: 600,
		},
	}
	s.EstimateInitialStates = true
	s.Parameters = []ParameterConfig{
		{Type: "gravitational_parameter", Body: "Earth"},
		{Type: "constant_drag_coefficient", Body: "Vehicle"},
		{Type: "spherical_harmonics_cosine_coefficient_block", Body: "Earth", MinDegree: 2, MinOrder: 0, MaxDegree: 4, MaxOrder: 4},
		{Type: "ppn_parameter_gamma"},
	}
	return s
}

func trackingArcs() *Scenario {
	s := DefaultScenario()
	s.Name = "tracking_arcs"
	s.Bodies = []BodyConfig{earth(), {Name: "Vehicle", Mass: 500}}
	s.Accelerations = pointMass("Vehicle")

	starts := []float64{0, 3600, 7200}
	arcs := make([]ArcConfig, 0, len(starts))
	for _, t0 := range starts {
		arcs = append(arcs, ArcConfig{
			StartTime: t0,
			Blocks: []BlockConfig{
				{Type: "translational", Bodies: []string{"Vehicle"}, CentralBodies: []string{"Earth"}, Models: "gravity", InitialState: circular(radiusEarth + 700e3)},
			},
			Termination: &TerminationConfig{Type: "time", Time: t0 + 3600, Exact: true},
		})
	}
	s.Propagation = PropagationConfig{Kind: KindMultiArc, Arcs: arcs, TransferState: true}

	s.EstimateInitialStates = true
	s.Parameters = []ParameterConfig{
		{Type: "arc_wise_constant_drag_coefficient", Body: "Vehicle", ArcTimes: starts},
		{
			Type:        "arcwise_constant_additive_observation_bias",
			LinkEnds:    []LinkEndConfig{{Role: "transmitter", Body: "Earth", Station: "Station1"}, {Role: "receiver", Body: "Vehicle"}},
			Observable:  "one_way_range",
			ArcTimes:    starts,
			TimeLinkEnd: "receiver",
		},
	}
	return s
}

func hybrid() *Scenario {
	s := DefaultScenario()
	s.Name = "hybrid"
	s.Bodies = []BodyConfig{earth(), {Name: "Relay", Mass: 2000}, {Name: "Vehicle", Mass: 500}}
	s.Accelerations = pointMass("Relay", "Vehicle")

	s.Propagation = PropagationConfig{
		Kind: KindHybridArc,
		Single: &ArcConfig{
			Blocks: []BlockConfig{
				{Type: "translational", Bodies: []string{"Relay"}, CentralBodies: []string{"Earth"}, Models: "gravity", InitialState: circular(42164e3)},
			},
			Termination: &TerminationConfig{Type: "time", Time: 7200, Exact: true},
		},
		Arcs: []ArcConfig{
			vehicleArc(0, 500e3),
			vehicleArc(3600, 520e3),
		},
	}

	s.EstimateInitialStates = true
	s.Parameters = []ParameterConfig{
		{Type: "gravitational_parameter", Body: "Earth"},
		{Type: "empirical_acceleration_coefficients", Body: "Vehicle", CentralBody: "Earth"},
		{Type: "full_degree_tidal_love_number", Body: "Earth", Degree: 2, Deforming: []string{"Relay"}},
	}
	return s
}

func vehicleArc(t0, altitude float64) ArcConfig {
	return ArcConfig{
		StartTime: t0,
		Blocks: []BlockConfig{
			{Type: "translational", Bodies: []string{"Vehicle"}, CentralBodies: []string{"Earth"}, Models: "gravity", InitialState: circular(radiusEarth + altitude)},
		},
		Termination: &TerminationConfig{Type: "time", Time: t0 + 1800, Exact: true},
	}
}

// GetPreset returns a fresh copy of a preset, or nil.
func GetPreset(name string) *Scenario {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
