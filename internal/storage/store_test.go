package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/propsetup/internal/dynamo"
	"github.com/san-kum/propsetup/internal/sim"
)

func testOutcome() *sim.Outcome {
	single := &sim.Result{
		InitialTime:        0,
		Times:              []float64{0, 10, 12.5},
		States:             []dynamo.State{{1, 0}, {0.9, -0.1}, {0.85, -0.12}},
		DependentHeaders:   []string{"relative_distance(Vehicle, Earth)"},
		DependentVariables: [][]float64{{1}, {0.9}, {0.85}},
		StepsTaken:         2,
		TerminationReason:  "dependent_variable",
		FinalTime:          12.5,
		FinalState:         dynamo.State{0.85, -0.12},
	}
	arc := &sim.Result{
		Arc:               1,
		InitialTime:       100,
		Times:             []float64{100, 101},
		States:            []dynamo.State{{5, 5, 5}, {6, 6, 6}},
		StepsTaken:        1,
		TerminationReason: "time",
		FinalTime:         101,
		FinalState:        dynamo.State{6, 6, 6},
	}
	return &sim.Outcome{
		Single: single,
		Arcs:   &sim.MultiArcResult{Arcs: []*sim.Result{nil, arc}},
	}
}

func openStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestStoreSaveLoad(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)

	integ := sim.IntegratorSettings{Name: "rk4", Step: 10}
	runID, err := st.Save(ctx, "leo", "hybrid_arc", integ, testOutcome(), map[string]float64{"energy_drift": 1e-9})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(ctx, runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Scenario != "leo" || meta.Kind != "hybrid_arc" || meta.Integrator != "rk4" {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Metrics["energy_drift"] != 1e-9 {
		t.Errorf("expected energy drift 1e-9, got %g", meta.Metrics["energy_drift"])
	}
	if len(meta.Arcs) != 2 {
		t.Fatalf("expected 2 arcs, got %d", len(meta.Arcs))
	}
	if meta.Arcs[0].Label != "arc_001" || meta.Arcs[0].StateSize != 3 || meta.Arcs[0].InitialTime != 100 {
		t.Errorf("unexpected arc metadata %+v", meta.Arcs[0])
	}
	if meta.Arcs[1].Reason != "dependent_variable" {
		t.Errorf("expected dependent_variable, got %s", meta.Arcs[1].Reason)
	}

	series, err := st.LoadArc(runID, "single")
	if err != nil {
		t.Fatalf("load arc failed: %v", err)
	}
	if len(series.Times) != 3 || series.Times[2] != 12.5 {
		t.Errorf("unexpected times %v", series.Times)
	}
	if len(series.States[1]) != 2 || series.States[1][1] != -0.1 {
		t.Errorf("unexpected state %v", series.States[1])
	}
	if len(series.DependentHeaders) != 1 || series.DependentVariables[2][0] != 0.85 {
		t.Errorf("unexpected dependent variables %v %v", series.DependentHeaders, series.DependentVariables)
	}

	states, times, err := st.LoadStates(runID, "arc_001")
	if err != nil {
		t.Fatalf("load states failed: %v", err)
	}
	if len(states) != 2 || len(times) != 2 || states[1][0] != 6 {
		t.Errorf("unexpected arc samples %v %v", states, times)
	}
}

func TestStoreList(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)

	runs, err := st.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected empty catalog, got %d runs", len(runs))
	}

	first, err := st.Save(ctx, "a", "single", sim.IntegratorSettings{Name: "rk4", Step: 1}, testOutcome(), nil)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	second, err := st.Save(ctx, "b", "single", sim.IntegratorSettings{Name: "rk45", Step: 1}, testOutcome(), nil)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != second || runs[1].ID != first {
		t.Errorf("expected newest run first, got %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestStoreLoadMissing(t *testing.T) {
	st := openStore(t)
	if _, err := st.Load(context.Background(), "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestLoadArcTruncatedRow(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)

	runID, err := st.Save(ctx, "leo", "single", sim.IntegratorSettings{Name: "rk4", Step: 10}, testOutcome(), nil)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	path := filepath.Join(st.baseDir, runID, "single.csv")
	if err := os.WriteFile(path, []byte("time,x0,x1\n0,1,0\n10,0.9\n"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	_, err = st.LoadArc(runID, "single")
	if !errors.Is(err, ErrMalformedSeries) {
		t.Errorf("expected ErrMalformedSeries, got %v", err)
	}
}

func TestExportJSON(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)

	runID, err := st.Save(ctx, "leo", "single", sim.IntegratorSettings{Name: "rk4", Step: 10}, testOutcome(), nil)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	var buf bytes.Buffer
	if err := st.ExportJSON(ctx, runID, &buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if data.Run.ID != runID {
		t.Errorf("expected run %s, got %s", runID, data.Run.ID)
	}
	if len(data.Arcs) != 2 || len(data.Arcs["single"].Times) != 3 {
		t.Errorf("unexpected exported arcs %v", data.Arcs)
	}
}
