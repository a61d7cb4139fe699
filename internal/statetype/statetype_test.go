package statetype

import (
	"testing"

	"gopkg.in/yaml.v3"
)

// Persisted configurations refer to these values; changing any of them is a
// breaking change.
func TestStableValues(t *testing.T) {
	stateTypes := map[StateType]int{Translational: 0, Rotational: 1, Mass: 2, Hybrid: 3}
	for v, want := range stateTypes {
		if int(v) != want {
			t.Errorf("%s = %d, want %d", v, int(v), want)
		}
	}

	translational := []struct {
		p    TranslationalPropagator
		val  int
		name string
	}{
		{UndefinedTranslational, 0, "undefined_translational_propagator"},
		{Cowell, 1, "cowell"},
		{Encke, 2, "encke"},
		{GaussKeplerian, 3, "gauss_keplerian"},
		{GaussModifiedEquinoctial, 4, "gauss_modified_equinoctial"},
		{UnifiedStateModelQuaternions, 5, "unified_state_model_quaternions"},
		{UnifiedStateModelModifiedRodrigues, 6, "unified_state_model_modified_rodrigues_parameters"},
		{UnifiedStateModelExponentialMap, 7, "unified_state_model_exponential_map"},
	}
	for _, tt := range translational {
		if int(tt.p) != tt.val || tt.p.String() != tt.name {
			t.Errorf("translational propagator %q = %d, want %q = %d", tt.p.String(), int(tt.p), tt.name, tt.val)
		}
	}

	rotational := []struct {
		p    RotationalPropagator
		val  int
		name string
	}{
		{UndefinedRotational, 0, "undefined_rotational_propagator"},
		{Quaternions, 1, "quaternions"},
		{ModifiedRodriguesParameters, 2, "modified_rodrigues_parameters"},
		{ExponentialMap, 3, "exponential_map"},
	}
	for _, tt := range rotational {
		if int(tt.p) != tt.val || tt.p.String() != tt.name {
			t.Errorf("rotational propagator %q = %d, want %q = %d", tt.p.String(), int(tt.p), tt.name, tt.val)
		}
	}
}

func TestSizePerBody(t *testing.T) {
	tests := []struct {
		s    StateType
		want int
	}{
		{Translational, 6},
		{Rotational, 7},
		{Mass, 1},
		{Hybrid, 0},
	}
	for _, tt := range tests {
		if got := tt.s.SizePerBody(); got != tt.want {
			t.Errorf("%s.SizePerBody() = %d, want %d", tt.s, got, tt.want)
		}
	}
}

func TestProcessedSize(t *testing.T) {
	if Cowell.ProcessedSize() != 6 || GaussKeplerian.ProcessedSize() != 6 {
		t.Error("element sets should have 6 processed entries")
	}
	if UnifiedStateModelQuaternions.ProcessedSize() != 7 {
		t.Error("USM quaternions should have 7 processed entries")
	}
	if ExponentialMap.ProcessedSize() != 7 {
		t.Error("exponential map should have 7 processed entries")
	}
}

func TestYAMLText(t *testing.T) {
	type doc struct {
		Type       StateType               `yaml:"type"`
		Propagator TranslationalPropagator `yaml:"propagator"`
		Attitude   RotationalPropagator    `yaml:"attitude"`
	}

	in := doc{Type: Rotational, Propagator: Encke, Attitude: ModifiedRodriguesParameters}
	data, err := yaml.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out doc
	if err := yaml.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}

	if err := yaml.Unmarshal([]byte("propagator: kepler\n"), &out); err == nil {
		t.Error("expected error for unknown propagator name")
	}
}

func TestDefined(t *testing.T) {
	if UndefinedTranslational.Defined() || UndefinedRotational.Defined() {
		t.Error("undefined values must not report Defined")
	}
	if !Cowell.Defined() || !Quaternions.Defined() {
		t.Error("cowell and quaternions must be defined")
	}
	if TranslationalPropagator(42).Defined() {
		t.Error("out of range value must not be defined")
	}
}
