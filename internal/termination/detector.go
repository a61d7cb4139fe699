package termination

import (
	"fmt"
	"math"
	"time"

	"github.com/san-kum/propsetup/internal/dynamo"
)

// Phase of a [Detector].
type Phase int

const (
	Searching Phase = iota
	Refining
	Terminated
)

func (p Phase) String() string {
	switch p {
	case Searching:
		return "searching"
	case Refining:
		return "refining"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Segment is the dense output of one accepted step.
type Segment interface {
	Start() float64
	End() float64
	At(t float64) dynamo.State
}

// Crossing is where a propagation ended.
type Crossing struct {
	Time      float64
	State     dynamo.State
	Refined   bool
	Converged bool
	Fired     []Condition
}

// Detector runs the two-phase termination protocol. While Searching it
// checks the end of every accepted step; when the condition holds it
// switches to Refining and locates the crossing inside the step for every
// fired leaf that asked for exact termination, then moves to Terminated.
// Leaves without refinement terminate on the step that triggered them.
type Detector struct {
	checker  *Checker
	phase    Phase
	crossing Crossing
}

func NewDetector(c Condition, r VariableResolver, initialTime float64) (*Detector, error) {
	ch, err := NewChecker(c, r, initialTime)
	if err != nil {
		return nil, err
	}
	return &Detector{checker: ch}, nil
}

func (d *Detector) Phase() Phase { return d.phase }

// Crossing returns the final point once Terminated.
func (d *Detector) Crossing() (Crossing, bool) {
	if d.phase != Terminated {
		return Crossing{}, false
	}
	return d.crossing, true
}

// Initial checks the initial state; a condition already holding there ends
// the propagation without a single step.
func (d *Detector) Initial(x dynamo.State, t float64, cpu time.Duration) bool {
	if d.phase == Terminated {
		return true
	}
	if !d.checker.Check(x, t, cpu) {
		return false
	}
	d.crossing = Crossing{Time: t, State: x.Clone(), Converged: true, Fired: d.checker.Fired()}
	d.phase = Terminated
	return true
}

// Observe feeds one accepted step. It returns true once the propagation must
// stop; the final point is then available from Crossing.
func (d *Detector) Observe(seg Segment, cpu time.Duration) (bool, error) {
	if d.phase == Terminated {
		return true, nil
	}

	end := seg.End()
	x := seg.At(end)
	if !d.checker.Check(x, end, cpu) {
		return false, nil
	}

	d.phase = Refining
	fired := d.checker.Fired()
	tc, refined, converged, err := d.refine(d.checker.root, seg)
	if err != nil {
		d.crossing = Crossing{Time: end, State: x, Fired: fired}
		d.phase = Terminated
		return true, fmt.Errorf("refine termination crossing in [%g, %g]: %w", seg.Start(), end, err)
	}

	state := x
	if refined {
		state = seg.At(tc)
	}
	d.crossing = Crossing{Time: tc, State: state, Refined: refined, Converged: converged, Fired: fired}
	d.phase = Terminated
	return true, nil
}

// refine returns the time at which n became true inside seg. Only nodes that
// held at the end of the step are refined.
func (d *Detector) refine(n *node, seg Segment) (t float64, refined, converged bool, err error) {
	switch cond := n.cond.(type) {
	case *Time:
		if !cond.exact {
			return seg.End(), false, true, nil
		}
		lo, hi := math.Min(seg.Start(), seg.End()), math.Max(seg.Start(), seg.End())
		return math.Max(lo, math.Min(hi, cond.stop)), true, true, nil

	case *DependentVariable:
		if !cond.exact {
			return seg.End(), false, true, nil
		}
		// a leaf that already held when the step began crossed in an
		// earlier step
		if start := seg.Start(); cond.reached(n.eval(seg.At(start), start)) {
			return start, true, true, nil
		}
		g := func(t float64) float64 {
			return n.eval(seg.At(t), t) - cond.limit
		}
		res, err := cond.rootFinder.Find(g, seg.Start(), seg.End())
		if err != nil {
			return 0, false, false, err
		}
		return res.Root, true, res.Converged, nil

	case *Hybrid:
		dir := 1.0
		if seg.End() < seg.Start() {
			dir = -1
		}
		found := false
		converged = true
		for _, child := range n.children {
			if !child.last {
				continue
			}
			ct, cr, cc, err := d.refine(child, seg)
			if err != nil {
				return 0, false, false, err
			}
			// any member: earliest crossing; all members: latest crossing
			better := ct*dir < t*dir
			if !cond.fulfillSingle {
				better = ct*dir > t*dir
			}
			if !found || better {
				t, refined = ct, cr
				found = true
			}
			converged = converged && cc
		}
		return t, refined, converged, nil

	default:
		return seg.End(), false, true, nil
	}
}
