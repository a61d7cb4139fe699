package sim

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/propsetup/internal/dynamo"
	"github.com/san-kum/propsetup/internal/propagation"
)

// PropagateMultiArc propagates every arc from its start time. With state
// transfer the arcs run in order and each arc after the first starts from
// the final state of its predecessor; otherwise the arcs are independent and
// run concurrently.
func (s *Simulator) PropagateMultiArc(ctx context.Context, ma propagation.MultiArcView) (*MultiArcResult, error) {
	if ma == nil || ma.NumberOfArcs() == 0 {
		return nil, fmt.Errorf("%w: multi-arc settings without arcs", dynamo.ErrInvalidArgument)
	}
	if ma.TransferStateToNextArc() {
		return s.chained(ctx, ma)
	}
	return s.concurrent(ctx, ma)
}

func (s *Simulator) chained(ctx context.Context, ma propagation.MultiArcView) (*MultiArcResult, error) {
	n := ma.NumberOfArcs()
	times := ma.ArcStartTimes()
	out := &MultiArcResult{
		Arcs:                   make([]*Result, 0, n),
		EffectiveInitialStates: make([]dynamo.State, 0, n),
	}

	x0 := ma.ArcView(0).InitialStates()
	for i := 0; i < n; i++ {
		arc := ma.ArcView(i)
		out.EffectiveInitialStates = append(out.EffectiveInitialStates, x0.Clone())
		r, err := s.run(ctx, i, arc, times[i], x0)
		if err != nil {
			return out, fmt.Errorf("arc %d: %w", i, err)
		}
		out.Arcs = append(out.Arcs, r)
		x0 = r.FinalState
	}
	return out, nil
}

func (s *Simulator) concurrent(ctx context.Context, ma propagation.MultiArcView) (*MultiArcResult, error) {
	n := ma.NumberOfArcs()
	times := ma.ArcStartTimes()
	out := &MultiArcResult{
		Arcs:                   make([]*Result, n),
		EffectiveInitialStates: make([]dynamo.State, n),
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		arc := ma.ArcView(i)
		x0 := arc.InitialStates()
		out.EffectiveInitialStates[i] = x0.Clone()
		g.Go(func() error {
			r, err := s.run(gctx, i, arc, times[i], x0)
			if err != nil {
				return fmt.Errorf("arc %d: %w", i, err)
			}
			out.Arcs[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}

// PropagateHybridArc propagates the single-arc part from the configured
// initial time and the multi-arc part arc by arc.
func (s *Simulator) PropagateHybridArc(ctx context.Context, h *propagation.HybridArc) (*Outcome, error) {
	if h == nil {
		return nil, fmt.Errorf("%w: nil hybrid-arc settings", dynamo.ErrInvalidArgument)
	}

	out := &Outcome{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.run(gctx, SingleArcIndex, h.SingleArc(), s.cfg.InitialTime, h.SingleArc().InitialStates())
		if err != nil {
			return fmt.Errorf("single arc: %w", err)
		}
		out.Single = r
		return nil
	})
	g.Go(func() error {
		r, err := s.PropagateMultiArc(gctx, h.MultiArc())
		out.Arcs = r
		return err
	})
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}
