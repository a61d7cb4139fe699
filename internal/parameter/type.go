// Package parameter names the quantities of the dynamical and observation
// models that an estimation run treats as unknowns.
//
// A [Settings] value is immutable: every constructor checks the shape of
// its arguments (arc times, degree and order ranges, body lists) and a new
// value must be built to re-parameterize. Whether the named bodies, stations
// and observables exist is left to the estimation engine.
package parameter

import "fmt"

// Type identifies a parameter kind. Values are persisted and must not be
// renumbered.
type Type int

const (
	ArcWiseInitialBodyState                  Type = 0
	InitialBodyState                         Type = 1
	InitialRotationalBodyState               Type = 2
	GravitationalParameter                   Type = 3
	ConstantDragCoefficient                  Type = 4
	RadiationPressureCoefficient             Type = 5
	ArcWiseRadiationPressureCoefficient      Type = 6
	SphericalHarmonicsCosineCoefficientBlock Type = 7
	SphericalHarmonicsSineCoefficientBlock   Type = 8
	ConstantRotationRate                     Type = 9
	RotationPolePosition                     Type = 10
	ConstantAdditiveObservationBias          Type = 11
	ArcwiseConstantAdditiveObservationBias   Type = 12
	ConstantRelativeObservationBias          Type = 13
	ArcwiseConstantRelativeObservationBias   Type = 14
	PPNParameterGamma                        Type = 15
	PPNParameterBeta                         Type = 16
	GroundStationPosition                    Type = 17
	EquivalencePrincipleLPIViolation         Type = 18
	EmpiricalAccelerationCoefficients        Type = 19
	ArcWiseEmpiricalAccelerationCoefficients Type = 20
	FullDegreeTidalLoveNumber                Type = 21
	SingleDegreeVariableTidalLoveNumber      Type = 22
	DirectDissipationTidalTimeLag            Type = 23
	MeanMomentOfInertia                      Type = 24
	ArcWiseConstantDragCoefficient           Type = 25
	PeriodicSpinVariation                    Type = 26
	PolarMotionAmplitude                     Type = 27
	CoreFactor                               Type = 28
	FreeCoreNutationRate                     Type = 29
	DesaturationDeltaVValues                 Type = 30
)

var typeNames = [...]string{
	ArcWiseInitialBodyState:                  "arc_wise_initial_body_state",
	InitialBodyState:                         "initial_body_state",
	InitialRotationalBodyState:               "initial_rotational_body_state",
	GravitationalParameter:                   "gravitational_parameter",
	ConstantDragCoefficient:                  "constant_drag_coefficient",
	RadiationPressureCoefficient:             "radiation_pressure_coefficient",
	ArcWiseRadiationPressureCoefficient:      "arc_wise_radiation_pressure_coefficient",
	SphericalHarmonicsCosineCoefficientBlock: "spherical_harmonics_cosine_coefficient_block",
	SphericalHarmonicsSineCoefficientBlock:   "spherical_harmonics_sine_coefficient_block",
	ConstantRotationRate:                     "constant_rotation_rate",
	RotationPolePosition:                     "rotation_pole_position",
	ConstantAdditiveObservationBias:          "constant_additive_observation_bias",
	ArcwiseConstantAdditiveObservationBias:   "arcwise_constant_additive_observation_bias",
	ConstantRelativeObservationBias:          "constant_relative_observation_bias",
	ArcwiseConstantRelativeObservationBias:   "arcwise_constant_relative_observation_bias",
	PPNParameterGamma:                        "ppn_parameter_gamma",
	PPNParameterBeta:                         "ppn_parameter_beta",
	GroundStationPosition:                    "ground_station_position",
	EquivalencePrincipleLPIViolation:         "equivalence_principle_lpi_violation_parameter",
	EmpiricalAccelerationCoefficients:        "empirical_acceleration_coefficients",
	ArcWiseEmpiricalAccelerationCoefficients: "arc_wise_empirical_acceleration_coefficients",
	FullDegreeTidalLoveNumber:                "full_degree_tidal_love_number",
	SingleDegreeVariableTidalLoveNumber:      "single_degree_variable_tidal_love_number",
	DirectDissipationTidalTimeLag:            "direct_dissipation_tidal_time_lag",
	MeanMomentOfInertia:                      "mean_moment_of_inertia",
	ArcWiseConstantDragCoefficient:           "arc_wise_constant_drag_coefficient",
	PeriodicSpinVariation:                    "periodic_spin_variation",
	PolarMotionAmplitude:                     "polar_motion_amplitude",
	CoreFactor:                               "core_factor",
	FreeCoreNutationRate:                     "free_core_nutation_rate",
	DesaturationDeltaVValues:                 "desaturation_delta_v_values",
}

// Types returns every parameter type in numeric order.
func Types() []Type {
	out := make([]Type, len(typeNames))
	for i := range typeNames {
		out[i] = Type(i)
	}
	return out
}

func (t Type) Valid() bool { return t >= 0 && int(t) < len(typeNames) }

func (t Type) String() string {
	if t.Valid() {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown parameter type %d", int(t))
	}
	return []byte(typeNames[t]), nil
}

func (t *Type) UnmarshalText(text []byte) error {
	v, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func ParseType(name string) (Type, error) {
	for i, n := range typeNames {
		if n == name {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("unknown parameter type: %s", name)
}

// ArcWise reports whether the type carries one value per arc.
func (t Type) ArcWise() bool {
	switch t {
	case ArcWiseInitialBodyState, ArcWiseRadiationPressureCoefficient, ArcwiseConstantAdditiveObservationBias,
		ArcwiseConstantRelativeObservationBias, ArcWiseEmpiricalAccelerationCoefficients, ArcWiseConstantDragCoefficient:
		return true
	default:
		return false
	}
}

// ObservationBias reports whether the type is attached to an observation
// model rather than a body.
func (t Type) ObservationBias() bool {
	switch t {
	case ConstantAdditiveObservationBias, ArcwiseConstantAdditiveObservationBias,
		ConstantRelativeObservationBias, ArcwiseConstantRelativeObservationBias:
		return true
	default:
		return false
	}
}

// Global reports whether the type belongs to no body.
func (t Type) Global() bool {
	switch t {
	case PPNParameterGamma, PPNParameterBeta, EquivalencePrincipleLPIViolation:
		return true
	default:
		return false
	}
}
