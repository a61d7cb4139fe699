package environment

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/propsetup/internal/dynamo"
	"github.com/san-kum/propsetup/internal/output"
	"github.com/san-kum/propsetup/internal/statetype"
)

const muEarth = 3.986004418e14

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	bodies, err := NewBodies(
		Body{Name: "Earth", GravitationalParameter: muEarth, Radius: 6378137,
			Atmosphere: &Atmosphere{SurfaceDensity: 1.225, ScaleHeight: 7200, SpeedOfSound: 340}},
		Body{Name: "Vehicle", Mass: 500, Inertia: [3]float64{10, 20, 30}},
		Body{Name: "Chaser", Mass: 400},
	)
	if err != nil {
		t.Fatalf("NewBodies: %v", err)
	}
	return NewRegistry(bodies)
}

func circularOrbit(radius float64) dynamo.State {
	return dynamo.State{radius, 0, 0, 0, math.Sqrt(muEarth / radius), 0}
}

func TestBodiesRejectDuplicates(t *testing.T) {
	b, _ := NewBodies(Body{Name: "Earth"})
	if err := b.Add(Body{Name: "Earth"}); !errors.Is(err, dynamo.ErrDuplicateContribution) {
		t.Errorf("expected duplicate error, got %v", err)
	}
	if _, err := b.Get("Mars"); !errors.Is(err, ErrUnknownBody) {
		t.Errorf("expected unknown body, got %v", err)
	}
}

func TestHandles(t *testing.T) {
	r := testRegistry(t)
	if !(Handle{}).IsZero() {
		t.Error("zero handle must be zero")
	}

	m := AccelerationMap{"Vehicle": {"Earth": {PointMass()}}}
	h := r.AddAccelerations(m)
	m["Vehicle"]["Earth"] = nil

	got, err := r.Accelerations(h)
	if err != nil {
		t.Fatal(err)
	}
	if len(got["Vehicle"]["Earth"]) != 1 {
		t.Error("registry must keep its own copy of the map")
	}

	if _, err := r.Torques(h); !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("acceleration handle used as torque handle: %v", err)
	}
	if _, err := r.Accelerations(Handle{}); !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("zero handle: %v", err)
	}
}

func TestCreateAccelerationModelsUnknownBody(t *testing.T) {
	r := testRegistry(t)
	h := r.AddAccelerations(AccelerationMap{"Vehicle": {"Moon": {PointMass()}}})
	if _, err := r.CreateAccelerationModels(h, []string{"Vehicle"}, []string{"Earth"}); !errors.Is(err, ErrUnknownBody) {
		t.Errorf("expected unknown body, got %v", err)
	}
	if _, err := r.CreateAccelerationModels(h, []string{"Vehicle"}, nil); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected dimension mismatch, got %v", err)
	}
}

func TestCowellCircularOrbit(t *testing.T) {
	r := testRegistry(t)
	h := r.AddAccelerations(AccelerationMap{"Vehicle": {"Earth": {PointMass()}}})
	m, err := r.CreateAccelerationModels(h, []string{"Vehicle"}, []string{"Earth"})
	if err != nil {
		t.Fatal(err)
	}
	c := NewCowell(m)
	radius := 7000e3
	x := circularOrbit(radius)
	dx := c.Derive(x, 0)

	want := -muEarth / (radius * radius)
	if math.Abs(dx[3]-want) > 1e-9 {
		t.Errorf("radial acceleration: expected %g, got %g", want, dx[3])
	}
	if dx[1] != x[4] {
		t.Errorf("position derivative must be the velocity")
	}
	if e := c.Energy(x); math.Abs(e+muEarth/(2*radius)) > 1e-6 {
		t.Errorf("circular orbit energy: got %g", e)
	}
}

func TestCowellThrust(t *testing.T) {
	r := testRegistry(t)
	h := r.AddAccelerations(AccelerationMap{"Vehicle": {"Vehicle": {Thrust([3]float64{0, 0.1, 0})}}})
	m, err := r.CreateAccelerationModels(h, []string{"Vehicle"}, []string{"Earth"})
	if err != nil {
		t.Fatal(err)
	}
	a := NewCowell(m).Acceleration(circularOrbit(7000e3), 0)
	if a != [3]float64{0, 0.1, 0} {
		t.Errorf("unexpected thrust acceleration %v", a)
	}
}

func TestRigidBodyTorqueFree(t *testing.T) {
	r := testRegistry(t)
	h := r.AddTorques(TorqueMap{})
	m, err := r.CreateTorqueModels(h, []string{"Vehicle"})
	if err != nil {
		t.Fatal(err)
	}
	rb := NewRigidBody(m)
	if rb.StateDim() != 7 {
		t.Fatalf("expected 7, got %d", rb.StateDim())
	}

	// spin about a principal axis is an equilibrium of Euler's equations
	dx := rb.Derive(dynamo.State{1, 0, 0, 0, 0, 0, 0.5}, 0)
	for k := 4; k < 7; k++ {
		if dx[k] != 0 {
			t.Errorf("angular acceleration %d: %g", k, dx[k])
		}
	}
	if math.Abs(dx[3]-0.25) > 1e-15 {
		t.Errorf("quaternion rate: expected 0.25, got %g", dx[3])
	}

	if _, err := r.CreateTorqueModels(h, []string{"Chaser"}); !errors.Is(err, ErrUnsupportedModel) {
		t.Errorf("body without inertia: %v", err)
	}
}

func TestMassRate(t *testing.T) {
	r := testRegistry(t)
	h := r.AddMassRates(MassRateMap{"Vehicle": {{Rate: -1}, {Rate: -0.5}}})
	m, err := r.CreateMassRateModels(h, []string{"Vehicle", "Chaser"})
	if err != nil {
		t.Fatal(err)
	}
	dx := NewMassRate(m).Derive(dynamo.State{500, 400}, 0)
	if dx[0] != -1.5 || dx[1] != 0 {
		t.Errorf("unexpected mass rates %v", dx)
	}
}

func TestCompositeTiling(t *testing.T) {
	r := testRegistry(t)
	mh := r.AddMassRates(MassRateMap{"Vehicle": {{Rate: -2}}})
	mm, _ := r.CreateMassRateModels(mh, []string{"Vehicle"})

	_, err := NewComposite([]Block{{Type: statetype.Mass, Offset: 1, System: NewMassRate(mm)}})
	if !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected gap to be rejected, got %v", err)
	}

	c, err := NewComposite([]Block{
		{Type: statetype.Mass, Bodies: []string{"Vehicle"}, Offset: 0, System: NewMassRate(mm)},
		{Type: statetype.Mass, Bodies: []string{"Vehicle"}, Offset: 1, System: NewMassRate(mm)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if dx := c.Derive(dynamo.State{1, 2}, 0); dx[0] != -2 || dx[1] != -2 {
		t.Errorf("unexpected composite derivative %v", dx)
	}
}

func TestKeplerianCircular(t *testing.T) {
	k := CartesianToKeplerian([3]float64{7000e3, 0, 0}, [3]float64{0, math.Sqrt(muEarth / 7000e3), 0}, muEarth)
	if math.Abs(k[0]-7000e3) > 1e-3 {
		t.Errorf("semi-major axis: %g", k[0])
	}
	if k[1] > 1e-10 || k[2] > 1e-10 {
		t.Errorf("expected circular equatorial orbit, got e=%g i=%g", k[1], k[2])
	}
}

func TestKeplerianInclined(t *testing.T) {
	r := 7000e3
	v := math.Sqrt(muEarth / r)
	inc := 0.5
	k := CartesianToKeplerian([3]float64{r, 0, 0}, [3]float64{0, v * math.Cos(inc), v * math.Sin(inc)}, muEarth)
	if math.Abs(k[2]-inc) > 1e-12 {
		t.Errorf("inclination: expected %g, got %g", inc, k[2])
	}
	if math.Abs(k[4]) > 1e-12 {
		t.Errorf("node: expected 0, got %g", k[4])
	}
}

func TestResolver(t *testing.T) {
	r := testRegistry(t)
	ah := r.AddAccelerations(AccelerationMap{"Vehicle": {"Earth": {PointMass()}}})
	am, _ := r.CreateAccelerationModels(ah, []string{"Vehicle"}, []string{"Earth"})
	mh := r.AddMassRates(MassRateMap{})
	mm, _ := r.CreateMassRateModels(mh, []string{"Vehicle"})

	blocks := []Block{
		{Type: statetype.Translational, Bodies: []string{"Vehicle"}, Central: []string{"Earth"}, Offset: 0, System: NewCowell(am)},
		{Type: statetype.Mass, Bodies: []string{"Vehicle"}, Offset: 6, System: NewMassRate(mm)},
	}
	res := NewResolver(r.Bodies(), blocks)
	radius := 7000e3
	x := append(circularOrbit(radius), 450)

	tests := []struct {
		v    output.Variable
		want float64
	}{
		{output.NewVariable(output.Altitude, "Vehicle", "Earth"), radius - 6378137},
		{output.NewVariable(output.RelativeDistance, "Vehicle", "Earth"), radius},
		{output.NewVariable(output.RelativeDistance, "Earth", "Vehicle"), radius},
		{output.NewVariable(output.BodyMass, "Vehicle", ""), 450},
		{output.NewVariable(output.BodyMass, "Chaser", ""), 400},
		{output.NewVariable(output.TotalAccelerationNorm, "Vehicle", ""), muEarth / (radius * radius)},
		{output.NewVariable(output.SpecificOrbitalEnergy, "Vehicle", "Earth"), -muEarth / (2 * radius)},
		{output.NewVariable(output.RelativePosition, "Vehicle", "Earth").WithComponent(0), radius},
		{output.NewVariable(output.KeplerianState, "Vehicle", "Earth").WithComponent(0), radius},
	}
	for _, tt := range tests {
		f, err := res.Resolve(tt.v)
		if err != nil {
			t.Errorf("%s: %v", tt.v, err)
			continue
		}
		if got := f(x, 0); math.Abs(got-tt.want) > 1e-6*math.Max(1, math.Abs(tt.want)) {
			t.Errorf("%s: expected %g, got %g", tt.v, tt.want, got)
		}
	}

	if _, err := res.Resolve(output.NewVariable(output.RelativePosition, "Vehicle", "Earth")); !errors.Is(err, dynamo.ErrInvalidArgument) {
		t.Errorf("vector variable as scalar: %v", err)
	}
	if _, err := res.Resolve(output.NewVariable(output.RotationAngles, "Vehicle", "").WithComponent(2)); !errors.Is(err, ErrUnsupportedVariable) {
		t.Errorf("rotation not propagated: %v", err)
	}

	sel, err := output.NewSelection(
		output.NewVariable(output.RelativePosition, "Vehicle", "Earth"),
		output.NewVariable(output.Altitude, "Vehicle", "Earth"),
	)
	if err != nil {
		t.Fatal(err)
	}
	row, err := res.ResolveSelection(sel)
	if err != nil {
		t.Fatal(err)
	}
	if got := row(x, 0); len(got) != 4 || got[0] != radius {
		t.Errorf("unexpected selection row %v", got)
	}
}
