package sim_test

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/propsetup/internal/dynamo"
	"github.com/san-kum/propsetup/internal/environment"
	"github.com/san-kum/propsetup/internal/output"
	"github.com/san-kum/propsetup/internal/propagation"
	"github.com/san-kum/propsetup/internal/rootfind"
	"github.com/san-kum/propsetup/internal/sim"
	"github.com/san-kum/propsetup/internal/termination"
)

const muEarth = 3.986004418e14

type countingMetric struct {
	samples int
}

func (m *countingMetric) Name() string                      { return "samples" }
func (m *countingMetric) Observe(x dynamo.State, t float64) { m.samples++ }
func (m *countingMetric) Value() float64                    { return float64(m.samples) }
func (m *countingMetric) Reset()                            { m.samples = 0 }

type arcRecorder struct {
	mu      sync.Mutex
	reasons []string
}

type stepLog struct {
	mu   sync.Mutex
	arcs map[int]int
}

func (l *stepLog) OnStep(arc int, x dynamo.State, t float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.arcs == nil {
		l.arcs = make(map[int]int)
	}
	l.arcs[arc]++
}

func (r *arcRecorder) ObserveArc(kind string, steps int, reason string, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasons = append(r.reasons, reason)
}

var _ = Describe("Simulator", func() {
	var (
		env    *environment.Registry
		thrust environment.Handle
		orbit  environment.Handle
		cfg    sim.IntegratorSettings
		quiet  sim.Option
	)

	BeforeEach(func() {
		bodies, err := environment.NewBodies(
			environment.Body{Name: "Earth", GravitationalParameter: muEarth, Radius: 6378137},
			environment.Body{Name: "Vehicle", Mass: 500},
			environment.Body{Name: "Probe", Mass: 20},
		)
		Expect(err).NotTo(HaveOccurred())
		env = environment.NewRegistry(bodies)
		thrust = env.AddAccelerations(environment.AccelerationMap{
			"Vehicle": {"Vehicle": {environment.Thrust([3]float64{1, 0, 0})}},
			"Probe":   {"Probe": {environment.Thrust([3]float64{0, 2, 0})}},
		})
		orbit = env.AddAccelerations(environment.AccelerationMap{
			"Vehicle": {"Earth": {environment.PointMass()}},
		})
		cfg = sim.IntegratorSettings{Name: "rk4", Step: 0.5, MaxSteps: 100_000, ValidateState: true}
		quiet = sim.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	timeStop := func(stop float64, exact bool) termination.Condition {
		c, err := termination.NewTime(stop, exact)
		Expect(err).NotTo(HaveOccurred())
		return c
	}

	accelerating := func(body string, x0 dynamo.State, term termination.Condition, opts ...propagation.Option) *propagation.Translational {
		s, err := propagation.NewTranslational([]string{"Earth"}, []string{body}, thrust, x0, term, opts...)
		Expect(err).NotTo(HaveOccurred())
		return s
	}

	newSimulator := func(opts ...sim.Option) *sim.Simulator {
		s, err := sim.New(env, cfg, append([]sim.Option{quiet}, opts...)...)
		Expect(err).NotTo(HaveOccurred())
		return s
	}

	Describe("configuration", func() {
		It("rejects invalid integrator settings", func() {
			for _, bad := range []sim.IntegratorSettings{
				{Name: "rk4", Step: 0},
				{Name: "rk4", Step: math.NaN()},
				{Name: "leapfrog", Step: 1},
				{Name: "rk45", Step: 1, Adaptive: true, Tolerance: 0},
				{Name: "rk45", Step: 1, Adaptive: true, Tolerance: 1e-9, MinStep: 10, MaxStep: 1},
			} {
				_, err := sim.New(env, bad)
				Expect(err).To(MatchError(dynamo.ErrInvalidArgument))
			}
		})

		It("requires created derivative models for a bare arc", func() {
			arc := accelerating("Vehicle", make(dynamo.State, 6), timeStop(1, false))
			_, err := newSimulator().PropagateSingleArc(context.Background(), arc)
			Expect(err).To(MatchError(dynamo.ErrModelsNotCreated))
		})
	})

	Describe("single arc", func() {
		It("places the final state on an exact stop time", func() {
			arc := accelerating("Vehicle", make(dynamo.State, 6), timeStop(1.25, true))
			out, err := newSimulator().Propagate(context.Background(), arc)
			Expect(err).NotTo(HaveOccurred())

			r := out.Single
			Expect(r.FinalTime).To(Equal(1.25))
			Expect(r.FinalState[0]).To(BeNumerically("~", 0.5*1.25*1.25, 1e-12))
			Expect(r.FinalState[3]).To(BeNumerically("~", 1.25, 1e-12))
			Expect(r.TerminationReason).To(Equal("time"))
			Expect(r.Times[len(r.Times)-1]).To(Equal(1.25))
			Expect(r.States).To(HaveLen(len(r.Times)))
		})

		It("ends on the first step past an inexact stop time", func() {
			arc := accelerating("Vehicle", make(dynamo.State, 6), timeStop(1.25, false))
			out, err := newSimulator().Propagate(context.Background(), arc)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Single.FinalTime).To(Equal(1.5))
			Expect(out.Single.Crossing.Refined).To(BeFalse())
		})

		It("refines a dependent-variable crossing with the root finder", func() {
			distance := output.NewVariable(output.RelativeDistance, "Vehicle", "Earth")
			for _, rf := range []*rootfind.Settings{rootfind.NewBisection(1e-12, 200), rootfind.NewSecant(1e-12, 200)} {
				cond, err := termination.NewDependentVariable(distance, 1.28, false, true, rf)
				Expect(err).NotTo(HaveOccurred())
				arc := accelerating("Vehicle", make(dynamo.State, 6), cond)

				out, err := newSimulator().Propagate(context.Background(), arc)
				Expect(err).NotTo(HaveOccurred())
				Expect(out.Single.FinalTime).To(BeNumerically("~", 1.6, 1e-9))
				Expect(out.Single.FinalState[0]).To(BeNumerically("~", 1.28, 1e-9))
				Expect(out.Single.Crossing.Refined).To(BeTrue())
				Expect(out.Single.TerminationReason).To(Equal("dependent_variable"))
			}
		})

		It("terminates before the first step when the condition already holds", func() {
			distance := output.NewVariable(output.RelativeDistance, "Vehicle", "Earth")
			cond, err := termination.NewDependentVariable(distance, 10, true, false, nil)
			Expect(err).NotTo(HaveOccurred())
			x0 := dynamo.State{1, 0, 0, 0, 0, 0}
			arc := accelerating("Vehicle", x0, cond)

			out, err := newSimulator().Propagate(context.Background(), arc)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Single.StepsTaken).To(Equal(0))
			Expect(out.Single.FinalState).To(Equal(x0))
			Expect(out.Single.Times).To(Equal([]float64{0}))
		})

		It("records dependent variables on every sample", func() {
			sel, err := output.NewSelection(
				output.NewVariable(output.RelativePosition, "Vehicle", "Earth"),
				output.NewVariable(output.RelativeSpeed, "Vehicle", "Earth"),
			)
			Expect(err).NotTo(HaveOccurred())
			arc := accelerating("Vehicle", make(dynamo.State, 6), timeStop(2, true), propagation.WithOutputs(sel))

			out, err := newSimulator().Propagate(context.Background(), arc)
			Expect(err).NotTo(HaveOccurred())
			r := out.Single
			Expect(r.DependentVariables).To(HaveLen(len(r.Times)))
			Expect(r.DependentHeaders).To(HaveLen(4))
			last := r.DependentVariables[len(r.DependentVariables)-1]
			Expect(last[0]).To(BeNumerically("~", 2, 1e-12))
			Expect(last[3]).To(BeNumerically("~", 2, 1e-12))
		})

		It("stops a hybrid OR condition on the earliest member", func() {
			distance := output.NewVariable(output.RelativeDistance, "Vehicle", "Earth")
			dv, err := termination.NewDependentVariable(distance, 1.28, false, true, rootfind.NewBisection(1e-12, 200))
			Expect(err).NotTo(HaveOccurred())
			cond, err := termination.NewHybrid([]termination.Condition{timeStop(10, true), dv}, true)
			Expect(err).NotTo(HaveOccurred())
			arc := accelerating("Vehicle", make(dynamo.State, 6), cond)

			out, err := newSimulator().Propagate(context.Background(), arc)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Single.FinalTime).To(BeNumerically("~", 1.6, 1e-9))
		})

		It("keeps a circular orbit on its radius with adaptive steps", func() {
			radius := 7000e3
			x0 := dynamo.State{radius, 0, 0, 0, math.Sqrt(muEarth / radius), 0}
			arc, err := propagation.NewTranslational([]string{"Earth"}, []string{"Vehicle"}, orbit, x0, timeStop(3000, true))
			Expect(err).NotTo(HaveOccurred())

			cfg = sim.IntegratorSettings{Name: "rk45", Step: 10, Adaptive: true, Tolerance: 1e-10, MinStep: 1e-3, MaxStep: 60}
			s := newSimulator(sim.WithMetric(func(dynamo.System) sim.Metric { return &countingMetric{} }))
			out, err := s.Propagate(context.Background(), arc)
			Expect(err).NotTo(HaveOccurred())

			r := out.Single
			final := math.Sqrt(r.FinalState[0]*r.FinalState[0] + r.FinalState[1]*r.FinalState[1] + r.FinalState[2]*r.FinalState[2])
			Expect(final / radius).To(BeNumerically("~", 1, 1e-5))
			Expect(r.EnergyDrift).To(BeNumerically("<", 1e-5))
			Expect(r.FinalTime).To(Equal(3000.0))
			Expect(r.Metrics["samples"]).To(Equal(float64(len(r.Times))))
		})

		It("propagates backward with a negative step", func() {
			arc := accelerating("Vehicle", make(dynamo.State, 6), timeStop(-1, true))
			cfg.Step = -0.25
			out, err := newSimulator().Propagate(context.Background(), arc)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Single.FinalTime).To(Equal(-1.0))
			Expect(out.Single.FinalState[3]).To(BeNumerically("~", -1, 1e-12))
		})

		It("honours context cancellation", func() {
			arc := accelerating("Vehicle", make(dynamo.State, 6), timeStop(1e9, false))
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := newSimulator().Propagate(ctx, arc)
			Expect(err).To(MatchError(context.Canceled))
		})

		It("fails when the step budget runs out", func() {
			arc := accelerating("Vehicle", make(dynamo.State, 6), timeStop(1e9, false))
			cfg.MaxSteps = 10
			_, err := newSimulator().Propagate(context.Background(), arc)
			Expect(err).To(MatchError(sim.ErrMaxSteps))
		})

		It("stops on a CPU time budget", func() {
			budget, err := termination.NewCPUTime(time.Nanosecond)
			Expect(err).NotTo(HaveOccurred())
			arc := accelerating("Vehicle", make(dynamo.State, 6), budget)
			out, err := newSimulator().Propagate(context.Background(), arc)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Single.TerminationReason).To(Equal("cpu_time"))
			Expect(out.Single.StepsTaken).To(BeNumerically(">=", 1))
		})
	})

	Describe("multi arc", func() {
		newMultiArc := func(transfer bool) *propagation.MultiArc {
			first := accelerating("Vehicle", make(dynamo.State, 6), timeStop(10, true))
			second := accelerating("Vehicle", dynamo.State{100, 0, 0, 0, 0, 0}, timeStop(20, true))
			ma, err := propagation.NewMultiArc([]propagation.SingleArc{first, second}, []float64{0, 10}, transfer)
			Expect(err).NotTo(HaveOccurred())
			return ma
		}

		It("starts every arc from the final state of its predecessor with transfer", func() {
			out, err := newSimulator().Propagate(context.Background(), newMultiArc(true))
			Expect(err).NotTo(HaveOccurred())

			r := out.Arcs
			Expect(r.Arcs).To(HaveLen(2))
			Expect(r.EffectiveInitialStates[1]).To(Equal(r.Arcs[0].FinalState))
			Expect(r.Arcs[0].FinalState[0]).To(BeNumerically("~", 50, 1e-9))
			Expect(r.Arcs[1].InitialTime).To(Equal(10.0))
			Expect(r.Arcs[1].FinalState[0]).To(BeNumerically("~", 50+100+50, 1e-9))
		})

		It("propagates independent arcs from their own initial states", func() {
			rec := &arcRecorder{}
			out, err := newSimulator(sim.WithRecorder(rec)).Propagate(context.Background(), newMultiArc(false))
			Expect(err).NotTo(HaveOccurred())

			r := out.Arcs
			Expect(r.EffectiveInitialStates[1]).To(Equal(dynamo.State{100, 0, 0, 0, 0, 0}))
			Expect(r.Arcs[1].FinalState[0]).To(BeNumerically("~", 150, 1e-9))
			Expect(r.FinalStates()).To(HaveLen(2))
			Expect(rec.reasons).To(ConsistOf("time", "time"))
		})
	})

	Describe("hybrid arc", func() {
		It("propagates both parts", func() {
			single := accelerating("Probe", make(dynamo.State, 6), timeStop(1, true))
			arc := accelerating("Vehicle", make(dynamo.State, 6), timeStop(2, true))
			ma, err := propagation.NewMultiArc([]propagation.SingleArc{arc}, []float64{0}, false)
			Expect(err).NotTo(HaveOccurred())
			h, err := propagation.NewHybridArc(single, ma)
			Expect(err).NotTo(HaveOccurred())

			steps := &stepLog{}
			out, err := newSimulator(sim.WithObserver(steps)).Propagate(context.Background(), h)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Single.FinalState[1]).To(BeNumerically("~", 1, 1e-12))
			Expect(out.Arcs.Arcs[0].FinalState[0]).To(BeNumerically("~", 2, 1e-12))

			Expect(out.Single.Arc).To(Equal(sim.SingleArcIndex))
			Expect(out.Arcs.Arcs[0].Arc).To(Equal(0))
			Expect(steps.arcs).To(HaveLen(2))
			Expect(steps.arcs).To(HaveKey(sim.SingleArcIndex))
			Expect(steps.arcs).To(HaveKey(0))
		})
	})
})
