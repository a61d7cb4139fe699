package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/propsetup/internal/config"
	"github.com/san-kum/propsetup/internal/dynamo"
	"github.com/san-kum/propsetup/internal/metrics"
	"github.com/san-kum/propsetup/internal/propagation"
	"github.com/san-kum/propsetup/internal/sim"
	"github.com/san-kum/propsetup/internal/storage"
	"github.com/san-kum/propsetup/internal/viz"
)

func loadScenario(args []string) (*config.Scenario, error) {
	if preset != "" {
		s := config.GetPreset(preset)
		if s == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		return s, nil
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("a scenario file or --preset is required")
	}
	s, err := config.Load(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario: %w", err)
	}
	return s, nil
}

func buildModel(args []string) (*config.Model, error) {
	s, err := loadScenario(args)
	if err != nil {
		return nil, err
	}
	return s.Build()
}

func openStore() (*storage.Store, error) {
	return storage.Open(settings.GetString(cfgKeyDataDir))
}

func validateScenario(cmd *cobra.Command, args []string) error {
	m, err := buildModel(args)
	if err != nil {
		return err
	}
	if err := m.Propagation.RecreateStateDerivativeModels(m.Environment); err != nil {
		return err
	}
	size, known := m.Parameters.TotalSize()
	sizeText := fmt.Sprint(size)
	if !known {
		sizeText += "+"
	}
	fmt.Println(okStyle.Render("ok") + " " + m.Name)
	fmt.Println(field("state size", m.Propagation.PropagatedStateSize()))
	fmt.Println(field("parameters", fmt.Sprintf("%d (%s scalars)", m.Parameters.Len(), sizeText)))
	return nil
}

func describeScenario(cmd *cobra.Command, args []string) error {
	m, err := buildModel(args)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.Name) + "\n")
	b.WriteString(field("integrator", fmt.Sprintf("%s, step %g", m.Integrator.Name, m.Integrator.Step)) + "\n")
	b.WriteString(field("state size", m.Propagation.PropagatedStateSize()) + "\n")

	switch ps := m.Propagation.(type) {
	case propagation.SingleArc:
		b.WriteString(field("kind", "single arc") + "\n")
		describeArc(&b, "", ps)
	case *propagation.MultiArc:
		describeMultiArc(&b, ps)
	case *propagation.HybridArc:
		b.WriteString(field("kind", "hybrid arc") + "\n")
		b.WriteString(titleStyle.Render("single-arc part") + "\n")
		describeArc(&b, "  ", ps.SingleArc())
		b.WriteString(titleStyle.Render("multi-arc part") + "\n")
		describeMultiArc(&b, ps.MultiArc())
	}

	fmt.Println(panelStyle.Render(strings.TrimRight(b.String(), "\n")))
	return nil
}

func describeMultiArc(b *strings.Builder, ma propagation.MultiArcView) {
	b.WriteString(field("kind", fmt.Sprintf("multi arc, %d arcs, transfer %v", ma.NumberOfArcs(), ma.TransferStateToNextArc())) + "\n")
	times := ma.ArcStartTimes()
	for i := 0; i < ma.NumberOfArcs(); i++ {
		b.WriteString(titleStyle.Render(fmt.Sprintf("arc %d @ %g", i, times[i])) + "\n")
		describeArc(b, "  ", ma.ArcView(i))
	}
}

func describeArc(b *strings.Builder, indent string, arc propagation.SingleArcView) {
	b.WriteString(indent + field("type", arc.StateType()) + "\n")
	contributions := make([]string, 0)
	for _, c := range arc.Contributions() {
		contributions = append(contributions, c.String())
	}
	b.WriteString(indent + field("propagates", strings.Join(contributions, ", ")) + "\n")
	b.WriteString(indent + field("size", arc.PropagatedStateSize()) + "\n")
	b.WriteString(indent + field("termination", arc.Termination()) + "\n")
	if arc.Outputs().Len() > 0 {
		b.WriteString(indent + field("outputs", strings.Join(arc.Outputs().Headers(), ", ")) + "\n")
	}
}

func listParameters(cmd *cobra.Command, args []string) error {
	m, err := buildModel(args)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tBODY\tARCS\tSIZE\tKEY")
	for _, p := range m.Parameters.Parameters() {
		size := "?"
		if n, ok := p.Size(); ok {
			size = fmt.Sprint(n)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", p.Type(), p.Body(), p.NumberOfArcs(), size, p.Key())
	}
	if err := w.Flush(); err != nil {
		return err
	}

	total, known := m.Parameters.TotalSize()
	if known {
		fmt.Println(field("total size", total))
	} else {
		fmt.Println(field("total size", fmt.Sprintf("at least %d", total)))
	}
	return nil
}

func propagate(cmd *cobra.Command, args []string) error {
	s, err := loadScenario(args)
	if err != nil {
		return err
	}
	m, err := s.Build()
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	collector := metrics.NewCollector()
	opts := []sim.Option{
		sim.WithLogger(logger),
		sim.WithRecorder(collector),
		sim.WithMetric(func(sys dynamo.System) sim.Metric { return metrics.NewEnergyDrift(sys) }),
		sim.WithMetric(func(sys dynamo.System) sim.Metric { return metrics.NewStepSize() }),
		sim.WithMetric(func(sys dynamo.System) sim.Metric { return metrics.NewMinimumRadius() }),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("propagating", "scenario", m.Name, "kind", s.Propagation.Kind, "integrator", m.Integrator.Name)
	start := time.Now()
	var out *sim.Outcome
	if live {
		out, err = propagateLive(ctx, m, opts)
	} else {
		var simulator *sim.Simulator
		simulator, err = sim.New(m.Environment, m.Integrator, opts...)
		if err == nil {
			out, err = simulator.Propagate(ctx, m.Propagation)
		}
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	summary := summarize(out)
	runID, err := st.Save(ctx, m.Name, s.Propagation.Kind, m.Integrator, out, summary)
	if err != nil {
		return err
	}

	if path := settings.GetString(cfgKeyMetricsFile); path != "" {
		if err := collector.WriteTextfile(path); err != nil {
			return err
		}
	}

	fmt.Println(okStyle.Render("completed") + " in " + elapsed.String())
	fmt.Println(field("run id", runID))
	for _, a := range arcResults(out) {
		fmt.Printf("  %-8s %s\n", a.label, field("t", fmt.Sprintf("%g -> %g, %d steps, %s", a.result.InitialTime, a.result.FinalTime, a.result.StepsTaken, a.result.TerminationReason)))
	}
	fmt.Println(titleStyle.Render("metrics"))
	for _, name := range []string{"steps", "energy_drift", "mean_step", "minimum_radius"} {
		fmt.Printf("  %s\n", field(name, fmt.Sprintf("%.6g", summary[name])))
	}
	return nil
}

// propagateLive runs the propagation behind a bubbletea view. Closing the
// view cancels the propagation.
func propagateLive(ctx context.Context, m *config.Model, opts []sim.Option) (*sim.Outcome, error) {
	p, err := viz.ParsePlane(plane)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// keep log lines from tearing the view
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	program := tea.NewProgram(viz.NewModel(m.Name, p))
	opts = append(opts,
		sim.WithLogger(quiet),
		sim.WithObserver(viz.NewFeed(program, 50*time.Millisecond)),
	)
	simulator, err := sim.New(m.Environment, m.Integrator, opts...)
	if err != nil {
		return nil, err
	}

	type result struct {
		out *sim.Outcome
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := simulator.Propagate(ctx, m.Propagation)
		done <- result{out, err}
		program.Send(viz.DoneMsg{Err: err})
	}()

	final, runErr := program.Run()
	if view, ok := final.(viz.Model); runErr != nil || (ok && view.Aborted()) {
		cancel()
	}
	r := <-done
	if runErr != nil {
		return nil, runErr
	}
	return r.out, r.err
}

type arcResult struct {
	label  string
	result *sim.Result
}

func arcResults(out *sim.Outcome) []arcResult {
	var list []arcResult
	if out.Single != nil {
		list = append(list, arcResult{"single", out.Single})
	}
	if out.Arcs != nil {
		for i, r := range out.Arcs.Arcs {
			list = append(list, arcResult{fmt.Sprintf("arc %d", i), r})
		}
	}
	return list
}

// summarize aggregates the per-arc metrics of a run.
func summarize(out *sim.Outcome) map[string]float64 {
	summary := map[string]float64{"minimum_radius": math.Inf(1)}
	var stepSum float64
	for _, a := range arcResults(out) {
		r := a.result
		summary["steps"] += float64(r.StepsTaken)
		summary["energy_drift"] = math.Max(summary["energy_drift"], r.Metrics["energy_drift"])
		stepSum += r.Metrics["mean_step"] * float64(r.StepsTaken)
		if v, ok := r.Metrics["minimum_radius"]; ok && v > 0 {
			summary["minimum_radius"] = math.Min(summary["minimum_radius"], v)
		}
	}
	if summary["steps"] > 0 {
		summary["mean_step"] = stepSum / summary["steps"]
	}
	if math.IsInf(summary["minimum_radius"], 1) {
		summary["minimum_radius"] = 0
	}
	return summary
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List(cmd.Context())
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tKIND\tTIME\tINTEG\tSTEP\tSTEPS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%g\t%.0f\n",
			run.ID,
			run.Scenario,
			run.Kind,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			run.Integrator,
			run.Step,
			run.Metrics["steps"],
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if len(meta.Arcs) == 0 {
		return fmt.Errorf("run %s has no arcs", runID)
	}
	label := arcLabel
	if label == "" {
		label = meta.Arcs[0].Label
	}

	series, err := st.LoadArc(runID, label)
	if err != nil {
		return err
	}
	if len(series.States) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Println(field("run", meta.ID))
	fmt.Println(field("scenario", meta.Scenario))
	fmt.Println(field("arc", label))
	fmt.Printf("%s\n\n", field("samples", len(series.States)))

	if track {
		p, err := viz.ParsePlane(plane)
		if err != nil {
			return err
		}
		tr := viz.NewTrack(p, len(series.States))
		for _, x := range series.States {
			tr.Add(0, x)
		}
		canvas := viz.NewCanvas(60, 24)
		tr.Render(canvas)
		fmt.Print(panelStyle.Render(strings.TrimRight(canvas.String(), "\n")) + "\n")
		return nil
	}

	numVars := len(series.States[0])
	if numVars > maxPlots {
		numVars = maxPlots
	}

	for varIdx := 0; varIdx < numVars; varIdx++ {
		data := make([]float64, len(series.States))
		for i := range series.States {
			data[i] = series.States[i][varIdx]
		}

		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("x%d vs time (%g to %g)", varIdx, series.Times[0], series.Times[len(series.Times)-1])),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	for j, header := range series.DependentHeaders {
		data := make([]float64, len(series.DependentVariables))
		for i := range series.DependentVariables {
			data[i] = series.DependentVariables[i][j]
		}
		fmt.Println(asciigraph.Plot(data, asciigraph.Height(10), asciigraph.Width(80), asciigraph.Caption(header)))
		fmt.Println()
	}

	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if outputPath == "" {
		return st.ExportJSON(cmd.Context(), args[0], os.Stdout)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := st.ExportJSON(cmd.Context(), args[0], file); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", outputPath)
	return nil
}

func showPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		fmt.Println("presets:")
		for _, name := range config.ListPresets() {
			fmt.Printf("  %s\n", name)
		}
		return nil
	}

	s := config.GetPreset(args[0])
	if s == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}
