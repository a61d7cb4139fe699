package viz

import (
	"fmt"
	"math"

	"github.com/san-kum/propsetup/internal/dynamo"
)

// Plane selects the two position components a track is projected on.
type Plane int

const (
	PlaneXY Plane = iota
	PlaneXZ
	PlaneYZ
)

func ParsePlane(s string) (Plane, error) {
	switch s {
	case "xy":
		return PlaneXY, nil
	case "xz":
		return PlaneXZ, nil
	case "yz":
		return PlaneYZ, nil
	}
	return 0, fmt.Errorf("%w: unknown plane %q", dynamo.ErrInvalidArgument, s)
}

func (p Plane) axes() (int, int) {
	switch p {
	case PlaneXZ:
		return 0, 2
	case PlaneYZ:
		return 1, 2
	default:
		return 0, 1
	}
}

type point struct{ x, y float64 }

// Track keeps the projected positions of several series, each capped at a
// fixed number of most recent points.
type Track struct {
	plane    Plane
	capacity int
	series   map[int][]point
	order    []int
}

func NewTrack(plane Plane, capacity int) *Track {
	if capacity < 2 {
		capacity = 2
	}
	return &Track{plane: plane, capacity: capacity, series: make(map[int][]point)}
}

// Add appends the position held in the first three entries of x. States
// shorter than the projected axes are skipped.
func (tr *Track) Add(series int, x dynamo.State) {
	i, j := tr.plane.axes()
	if len(x) <= j {
		return
	}
	p := point{x[i], x[j]}
	if math.IsNaN(p.x) || math.IsNaN(p.y) || math.IsInf(p.x, 0) || math.IsInf(p.y, 0) {
		return
	}
	pts, ok := tr.series[series]
	if !ok {
		tr.order = append(tr.order, series)
	}
	pts = append(pts, p)
	if len(pts) > tr.capacity {
		pts = pts[len(pts)-tr.capacity:]
	}
	tr.series[series] = pts
}

// Len returns the number of points kept over all series.
func (tr *Track) Len() int {
	n := 0
	for _, pts := range tr.series {
		n += len(pts)
	}
	return n
}

// Render clears c and draws every series with a common scale that keeps
// the origin in view. The origin is marked with a small cross.
func (tr *Track) Render(c *Canvas) {
	c.Clear()
	minX, maxX, minY, maxY := 0.0, 0.0, 0.0, 0.0
	for _, pts := range tr.series {
		for _, p := range pts {
			minX, maxX = math.Min(minX, p.x), math.Max(maxX, p.x)
			minY, maxY = math.Min(minY, p.y), math.Max(maxY, p.y)
		}
	}
	w, h := c.Dots()
	spanX, spanY := maxX-minX, maxY-minY
	scale := 1.0
	if spanX > 0 || spanY > 0 {
		scale = math.Inf(1)
		if spanX > 0 {
			scale = float64(w-1) / spanX
		}
		if spanY > 0 {
			scale = math.Min(scale, float64(h-1)/spanY)
		}
	}
	// center the drawing on the unused axis
	offX := (float64(w-1) - spanX*scale) / 2
	offY := (float64(h-1) - spanY*scale) / 2
	project := func(p point) (int, int) {
		px := offX + (p.x-minX)*scale
		py := float64(h-1) - offY - (p.y-minY)*scale
		return int(math.Round(px)), int(math.Round(py))
	}

	ox, oy := project(point{})
	c.Line(ox-1, oy, ox+1, oy)
	c.Line(ox, oy-1, ox, oy+1)

	for _, s := range tr.order {
		pts := tr.series[s]
		x0, y0 := project(pts[0])
		c.Set(x0, y0)
		for _, p := range pts[1:] {
			x1, y1 := project(p)
			c.Line(x0, y0, x1, y1)
			x0, y0 = x1, y1
		}
	}
}
