package viz

import (
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/propsetup/internal/dynamo"
)

func TestCanvasSetAndLine(t *testing.T) {
	c := NewCanvas(4, 2)
	w, h := c.Dots()
	assert.Equal(t, 8, w)
	assert.Equal(t, 8, h)

	c.Set(0, 0)
	assert.True(t, c.IsSet(0, 0))
	assert.Equal(t, '⠁', []rune(c.String())[0])

	c.Set(-1, 3)
	c.Set(100, 100)
	assert.False(t, c.IsSet(100, 100))

	c.Line(0, 7, 7, 7)
	for x := 0; x < 8; x++ {
		assert.True(t, c.IsSet(x, 7), "dot %d", x)
	}

	c.Clear()
	for _, r := range strings.ReplaceAll(c.String(), "\n", "") {
		assert.Equal(t, rune(blank), r)
	}
	assert.Len(t, strings.Split(strings.TrimSuffix(c.String(), "\n"), "\n"), 2)
}

func TestParsePlane(t *testing.T) {
	p, err := ParsePlane("xz")
	require.NoError(t, err)
	assert.Equal(t, PlaneXZ, p)

	_, err = ParsePlane("uv")
	assert.ErrorIs(t, err, dynamo.ErrInvalidArgument)
}

func TestTrackCapacityAndFilter(t *testing.T) {
	tr := NewTrack(PlaneXY, 3)
	for i := 0; i < 5; i++ {
		tr.Add(0, dynamo.State{float64(i), 0, 0})
	}
	tr.Add(1, dynamo.State{1})
	tr.Add(1, dynamo.State{math.NaN(), 1, 0})
	assert.Equal(t, 3, tr.Len())
	assert.Equal(t, []point{{2, 0}, {3, 0}, {4, 0}}, tr.series[0])
}

func TestTrackRenderCircle(t *testing.T) {
	tr := NewTrack(PlaneXY, 1000)
	for i := 0; i <= 360; i++ {
		a := float64(i) * math.Pi / 180
		tr.Add(0, dynamo.State{7000 * math.Cos(a), 7000 * math.Sin(a), 0})
	}
	c := NewCanvas(20, 10)
	tr.Render(c)

	w, h := c.Dots()
	// the circle touches the top and bottom rows, the origin sits near the center
	top, bottom := false, false
	for x := 0; x < w; x++ {
		top = top || c.IsSet(x, 0)
		bottom = bottom || c.IsSet(x, h-1)
	}
	assert.True(t, top)
	assert.True(t, bottom)
	assert.True(t, c.IsSet(w/2, h/2) || c.IsSet(w/2-1, h/2) || c.IsSet(w/2, h/2-1) || c.IsSet(w/2-1, h/2-1))
}

func TestModelUpdate(t *testing.T) {
	m := NewModel("leo", PlaneXY)

	next, cmd := m.Update(StepMsg{Arc: 1, Time: 60, State: dynamo.State{3, 4, 0, 0, 0, 0}})
	assert.Nil(t, cmd)
	m = next.(Model)
	require.Contains(t, m.arcs, 1)
	assert.Equal(t, 5.0, m.arcs[1].radius)
	assert.Equal(t, 1, m.track.Len())
	assert.Contains(t, m.View(), "arc 1")

	next, _ = m.Update(StepMsg{Arc: -1, Time: 30, State: dynamo.State{1, 0, 0}})
	m = next.(Model)
	assert.Contains(t, m.View(), "single")
	assert.Len(t, m.track.series, 2)

	next, cmd = m.Update(DoneMsg{Err: errors.New("boom")})
	require.NotNil(t, cmd)
	m = next.(Model)
	assert.False(t, m.Aborted())
	assert.Contains(t, m.View(), "FAILED")
}

func TestModelAbort(t *testing.T) {
	m := NewModel("leo", PlaneXY)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.True(t, next.(Model).Aborted())
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func TestFeedThrottlesPerArc(t *testing.T) {
	s := &recordingSender{}
	f := NewFeed(s, time.Hour)

	x := dynamo.State{1, 2, 3}
	f.OnStep(0, x, 0)
	f.OnStep(0, x, 1)
	f.OnStep(1, x, 0)
	x[0] = 99

	require.Len(t, s.msgs, 2)
	first := s.msgs[0].(StepMsg)
	assert.Equal(t, 0, first.Arc)
	assert.Equal(t, 1.0, first.State[0])
	assert.Equal(t, 1, s.msgs[1].(StepMsg).Arc)
}
