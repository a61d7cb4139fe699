// Package sim is the reference driver: it propagates the settings built by
// package propagation with the integrators of this module and the
// termination protocol of package termination.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/san-kum/propsetup/internal/dynamo"
	"github.com/san-kum/propsetup/internal/environment"
	"github.com/san-kum/propsetup/internal/integrators"
	"github.com/san-kum/propsetup/internal/propagation"
	"github.com/san-kum/propsetup/internal/termination"
)

type Simulator struct {
	env       *environment.Registry
	cfg       IntegratorSettings
	logger    *slog.Logger
	metrics   []MetricFactory
	observers []Observer
	recorder  Recorder
}

type Option func(*Simulator)

func WithLogger(l *slog.Logger) Option  { return func(s *Simulator) { s.logger = l } }
func WithMetric(f MetricFactory) Option { return func(s *Simulator) { s.metrics = append(s.metrics, f) } }
func WithObserver(o Observer) Option    { return func(s *Simulator) { s.observers = append(s.observers, o) } }
func WithRecorder(r Recorder) Option    { return func(s *Simulator) { s.recorder = r } }

func New(env *environment.Registry, cfg IntegratorSettings, opts ...Option) (*Simulator, error) {
	if env == nil {
		return nil, fmt.Errorf("%w: simulator needs an environment", dynamo.ErrInvalidArgument)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if _, err := integrators.New(cfg.Name); err != nil {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrInvalidArgument, err)
	}
	s := &Simulator{env: env, cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Simulator) Settings() IntegratorSettings { return s.cfg }

// Propagate creates the state derivative models of settings and propagates
// it. Single-arc settings start at the configured initial time, arcs of a
// multi-arc at their own start times.
func (s *Simulator) Propagate(ctx context.Context, settings propagation.Settings) (*Outcome, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: nil propagator settings", dynamo.ErrInvalidArgument)
	}
	if err := settings.RecreateStateDerivativeModels(s.env); err != nil {
		return nil, err
	}

	switch ps := settings.(type) {
	case propagation.SingleArc:
		r, err := s.PropagateSingleArc(ctx, ps)
		return &Outcome{Single: r}, err
	case *propagation.MultiArc:
		r, err := s.PropagateMultiArc(ctx, ps)
		return &Outcome{Arcs: r}, err
	case *propagation.HybridArc:
		return s.PropagateHybridArc(ctx, ps)
	default:
		return nil, fmt.Errorf("%w: unsupported propagator settings %T", dynamo.ErrInvalidArgument, settings)
	}
}

// PropagateSingleArc propagates one arc from its own initial states. The
// derivative models must already exist.
func (s *Simulator) PropagateSingleArc(ctx context.Context, arc propagation.SingleArcView) (*Result, error) {
	return s.run(ctx, SingleArcIndex, arc, s.cfg.InitialTime, arc.InitialStates())
}

func (s *Simulator) run(ctx context.Context, index int, arc propagation.SingleArcView, t0 float64, x0 dynamo.State) (*Result, error) {
	sys, err := arc.StateDerivative()
	if err != nil {
		return nil, err
	}
	if len(x0) != sys.StateDim() {
		return nil, fmt.Errorf("%w: arc %d initial state has %d entries, model expects %d", dynamo.ErrDimensionMismatch, index, len(x0), sys.StateDim())
	}
	resolver, err := propagation.Resolver(arc, s.env)
	if err != nil {
		return nil, err
	}
	det, err := termination.NewDetector(arc.Termination(), resolver, t0)
	if err != nil {
		return nil, err
	}
	var dependent environment.VectorEvaluator
	if arc.Outputs().Len() > 0 {
		if dependent, err = resolver.ResolveSelection(arc.Outputs()); err != nil {
			return nil, err
		}
	}
	integ, err := integrators.New(s.cfg.Name)
	if err != nil {
		return nil, err
	}

	metrics := make([]Metric, 0, len(s.metrics))
	for _, f := range s.metrics {
		m := f(sys)
		m.Reset()
		metrics = append(metrics, m)
	}

	result := &Result{
		Arc:          index,
		InitialTime:  t0,
		InitialState: x0.Clone(),
		Metrics:      make(map[string]float64),
	}
	if dependent != nil {
		result.DependentHeaders = arc.Outputs().Headers()
	}
	logger := s.logger.With("arc", index, "type", arc.StateType().String())

	start := time.Now()
	x := x0.Clone()
	t := t0
	dt := s.cfg.Step
	sample := func(x dynamo.State, t float64) []float64 {
		if dependent == nil {
			return nil
		}
		return dependent(x, t)
	}

	result.record(x, t, sample(x, t))
	s.observe(metrics, index, x, t)
	initialEnergy := energy(sys, x)

	interval := arc.PrintInterval()
	lastPrint := t0

	stopped := det.Initial(x, t, 0)
	for !stopped {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if s.cfg.MaxSteps > 0 && result.StepsTaken >= s.cfg.MaxSteps {
			return result, fmt.Errorf("%w: %d steps at t=%g", ErrMaxSteps, result.StepsTaken, t)
		}

		xNew, taken, next, err := s.step(integ, sys, x, t, dt)
		if err != nil {
			return result, &dynamo.StepError{Step: result.StepsTaken, Time: t, State: x.Clone(), Wrapped: err}
		}
		if s.cfg.ValidateState && !xNew.IsValid() {
			return result, &dynamo.StepError{Step: result.StepsTaken, Time: t + taken, State: xNew, Wrapped: dynamo.ErrInvalidState}
		}
		tNew := t + taken
		result.StepsTaken++

		seg := integrators.NewHermite(sys, t, x, tNew, xNew)
		stopped, err = det.Observe(seg, time.Since(start))
		if err != nil {
			return result, err
		}
		if stopped {
			break
		}

		result.record(xNew, tNew, sample(xNew, tNew))
		s.observe(metrics, index, xNew, tNew)
		if interval > 0 && math.Abs(tNew-lastPrint) >= interval {
			lastPrint = tNew
			logger.Info("propagating", "t", tNew, "step", result.StepsTaken, "dt", taken)
		}

		x, t, dt = xNew, tNew, next
	}

	crossing, _ := det.Crossing()
	if result.StepsTaken > 0 {
		result.record(crossing.State, crossing.Time, sample(crossing.State, crossing.Time))
		s.observe(metrics, index, crossing.State, crossing.Time)
	}
	result.Crossing = crossing
	result.FinalTime = crossing.Time
	result.FinalState = crossing.State.Clone()
	result.TerminationReason = termination.Reason(crossing.Fired)
	result.Elapsed = time.Since(start)
	if initialEnergy != 0 {
		result.EnergyDrift = math.Abs(energy(sys, result.FinalState)-initialEnergy) / math.Abs(initialEnergy)
	}
	for _, m := range metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	if s.recorder != nil {
		s.recorder.ObserveArc(arc.StateType().String(), result.StepsTaken, result.TerminationReason, result.Elapsed)
	}

	logger.Debug("arc terminated",
		"reason", result.TerminationReason,
		"t", result.FinalTime,
		"steps", result.StepsTaken,
		"refined", crossing.Refined,
	)
	return result, nil
}

func (s *Simulator) observe(metrics []Metric, arc int, x dynamo.State, t float64) {
	for _, m := range metrics {
		m.Observe(x, t)
	}
	for _, o := range s.observers {
		o.OnStep(arc, x, t)
	}
}

// step advances one accepted step and returns the new state, the step that
// was taken and the step to try next.
func (s *Simulator) step(integ dynamo.Integrator, sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, float64, float64, error) {
	adaptive, ok := integ.(dynamo.AdaptiveIntegrator)
	if !s.cfg.Adaptive || !ok {
		return integ.Step(sys, x, t, dt), dt, dt, nil
	}

	for {
		xNew, suggested, err := adaptive.StepAdaptive(sys, x, t, dt, s.cfg.Tolerance)
		if errors.Is(err, integrators.ErrStepRejected) {
			if math.Abs(suggested) < s.cfg.MinStep {
				return nil, 0, 0, fmt.Errorf("step size %g below minimum %g: %w", suggested, s.cfg.MinStep, err)
			}
			dt = suggested
			continue
		}
		if err != nil {
			return nil, 0, 0, err
		}
		return xNew, dt, clampStep(suggested, s.cfg.MinStep, s.cfg.MaxStep), nil
	}
}

func clampStep(dt, lo, hi float64) float64 {
	mag := math.Min(math.Max(math.Abs(dt), lo), hi)
	return math.Copysign(mag, dt)
}

func energy(sys dynamo.System, x dynamo.State) float64 {
	if h, ok := sys.(dynamo.Hamiltonian); ok {
		return h.Energy(x)
	}
	return 0
}
