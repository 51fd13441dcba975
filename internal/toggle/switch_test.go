package toggle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type recorder struct {
	values []bool
}

func (r *recorder) record(on bool) { r.values = append(r.values, on) }

func newTestSwitch(t *testing.T, opts ...Option) (*Switch, *fakeClock, *recorder) {
	t.Helper()
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	rec := &recorder{}
	sw := New(append([]Option{WithClock(clock.Now)}, opts...)...)
	sw.OnValueChanged(rec.record)
	return sw, clock, rec
}

// xAt returns the pointer x that puts the knob center at fraction f on the
// default 50x30 track.
func xAt(sw *Switch, f float32) float32 {
	return sw.Geometry().KnobCenter(f)
}

func drag(sw *Switch, fractions ...float32) {
	y := sw.Geometry().Height / 2
	sw.PointerDown(xAt(sw, sw.Fraction()), y)
	for _, f := range fractions {
		sw.PointerMove(xAt(sw, f), y)
	}
}

func settle(sw *Switch, clock *fakeClock) {
	clock.Advance(DefaultDuration)
	sw.Tick(clock.Now())
}

func TestSetOnIsIdempotent(t *testing.T) {
	sw, _, rec := newTestSwitch(t)

	sw.SetOn(true, false)
	sw.SetOn(true, false)

	assert.True(t, sw.IsOn())
	assert.Equal(t, float32(1), sw.Fraction())
	assert.Equal(t, Idle, sw.Phase())
	assert.Empty(t, rec.values)
}

func TestSetOnNeverNotifies(t *testing.T) {
	sw, clock, rec := newTestSwitch(t)

	sw.SetOn(true, true)
	clock.Advance(50 * time.Millisecond)
	sw.Tick(clock.Now())
	sw.SetOn(false, false)
	sw.SetOn(true, false)
	sw.SetOn(false, true)
	settle(sw, clock)

	assert.False(t, sw.IsOn())
	assert.Empty(t, rec.values)
}

func TestTapToggles(t *testing.T) {
	tests := []struct {
		name  string
		start bool
		moveX float32
	}{
		{"from off", false, 0},
		{"from on", true, 0},
		{"jitter below threshold", false, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sw, clock, rec := newTestSwitch(t, WithState(tt.start))
			x, y := xAt(sw, sw.Fraction()), float32(15)

			sw.PointerDown(x, y)
			sw.PointerMove(x+tt.moveX, y)
			sw.PointerUp(x+tt.moveX, y)

			assert.Equal(t, !tt.start, sw.IsOn())
			require.Len(t, rec.values, 1)
			assert.Equal(t, !tt.start, rec.values[0])

			settle(sw, clock)
			assert.Equal(t, StateOf(!tt.start).Fraction(), sw.Fraction())
			assert.Equal(t, Idle, sw.Phase())
		})
	}
}

func TestDragResolvesOnFinalFraction(t *testing.T) {
	tests := []struct {
		name      string
		start     bool
		path      []float32
		wantOn    bool
		wantNotes []bool
	}{
		{"overshoot then back below midpoint", false, []float32{0.9, 0.3}, false, nil},
		{"past midpoint", false, []float32{0.6}, true, []bool{true}},
		{"exactly midpoint", false, []float32{0.5}, true, []bool{true}},
		{"on dragged below midpoint", true, []float32{0.2}, false, []bool{false}},
		{"on wiggled and kept", true, []float32{0.4, 0.8}, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sw, clock, rec := newTestSwitch(t, WithState(tt.start))

			drag(sw, tt.path...)
			last := tt.path[len(tt.path)-1]
			assert.InDelta(t, last, sw.Fraction(), 1e-5)
			assert.Equal(t, tt.start, sw.IsOn(), "state must not change mid-gesture")

			sw.PointerUp(xAt(sw, last), 15)

			assert.Equal(t, tt.wantOn, sw.IsOn())
			assert.Equal(t, tt.wantNotes, rec.values)

			settle(sw, clock)
			assert.Equal(t, StateOf(tt.wantOn).Fraction(), sw.Fraction())
		})
	}
}

func TestPointerCancelReverts(t *testing.T) {
	sw, clock, rec := newTestSwitch(t, WithState(true))

	drag(sw, 0.1)
	assert.InDelta(t, 0.1, sw.Fraction(), 1e-5)

	sw.PointerCancel()
	assert.True(t, sw.IsOn())
	assert.Equal(t, Settling, sw.Phase())
	assert.Empty(t, rec.values)

	settle(sw, clock)
	assert.Equal(t, float32(1), sw.Fraction())
	assert.Equal(t, Idle, sw.Phase())
}

func TestDragClampsToTrack(t *testing.T) {
	sw, clock, rec := newTestSwitch(t)
	y := float32(15)

	sw.PointerDown(15, y)
	for _, x := range []float32{-1e6, -40, 0} {
		sw.PointerMove(x, y)
		assert.Equal(t, float32(0), sw.Fraction())
	}
	for _, x := range []float32{50, 400, 1e6} {
		sw.PointerMove(x, y)
		assert.Equal(t, float32(1), sw.Fraction())
	}
	sw.PointerUp(1e6, y)

	assert.True(t, sw.IsOn())
	assert.Equal(t, []bool{true}, rec.values)
	settle(sw, clock)
	assert.Equal(t, float32(1), sw.Fraction())
}

func TestInterruptedAnimationIsContinuous(t *testing.T) {
	sw, clock, _ := newTestSwitch(t)

	sw.SetOn(true, true)
	clock.Advance(DefaultDuration / 2)
	require.True(t, sw.Tick(clock.Now()))
	mid := sw.Fraction()
	require.Greater(t, mid, float32(0))
	require.Less(t, mid, float32(1))

	sw.SetOn(false, true)
	assert.Equal(t, mid, sw.Fraction(), "reversal must start from the displayed fraction")

	prev := mid
	for i := 0; i < 20; i++ {
		clock.Advance(16 * time.Millisecond)
		sw.Tick(clock.Now())
		cur := sw.Fraction()
		assert.LessOrEqual(t, cur, prev)
		assert.Less(t, prev-cur, float32(0.1), "step %d jumped from %v to %v", i, prev, cur)
		prev = cur
	}
	settle(sw, clock)
	assert.Equal(t, float32(0), sw.Fraction())
}

func TestPointerDownCatchesKnobMidFlight(t *testing.T) {
	sw, clock, rec := newTestSwitch(t)

	sw.Tap()
	clock.Advance(100 * time.Millisecond)
	sw.Tick(clock.Now())
	mid := sw.Fraction()

	sw.PointerDown(xAt(sw, mid), 15)
	assert.Equal(t, Dragging, sw.Phase())
	assert.Equal(t, mid, sw.Fraction())

	clock.Advance(100 * time.Millisecond)
	sw.Tick(clock.Now())
	assert.Equal(t, mid, sw.Fraction(), "knob must stay put under the finger")

	// A tap during flight flips the committed state again.
	sw.PointerUp(xAt(sw, mid), 15)
	assert.False(t, sw.IsOn())
	assert.Equal(t, []bool{true, false}, rec.values)
}

func TestSetOnDuringGestureWins(t *testing.T) {
	sw, clock, rec := newTestSwitch(t)

	drag(sw, 0.3)
	sw.SetOn(true, false)
	assert.Equal(t, Idle, sw.Phase())
	assert.Equal(t, float32(1), sw.Fraction())

	// The finger lifting afterwards belongs to the abandoned gesture.
	sw.PointerUp(xAt(sw, 0.3), 15)
	settle(sw, clock)
	assert.True(t, sw.IsOn())
	assert.Empty(t, rec.values)
}

func TestSetOnSameStateKeepsGesture(t *testing.T) {
	sw, clock, rec := newTestSwitch(t)

	drag(sw, 0.9)
	sw.SetOn(false, true)
	assert.Equal(t, Dragging, sw.Phase())
	assert.InDelta(t, 0.9, sw.Fraction(), 1e-5)

	sw.PointerUp(xAt(sw, 0.9), 15)
	settle(sw, clock)
	assert.True(t, sw.IsOn())
	assert.Equal(t, []bool{true}, rec.values)
}

func TestTapDuringGestureIgnored(t *testing.T) {
	sw, _, rec := newTestSwitch(t)

	drag(sw, 0.9)
	sw.Tap()
	assert.Equal(t, Dragging, sw.Phase())
	assert.False(t, sw.IsOn())
	assert.Empty(t, rec.values)

	sw.PointerMove(xAt(sw, 0.2), 15)
	sw.PointerUp(xAt(sw, 0.2), 15)
	assert.False(t, sw.IsOn())
	assert.Empty(t, rec.values)
}

func TestSecondPointerDownIgnored(t *testing.T) {
	sw, _, rec := newTestSwitch(t)

	drag(sw, 0.8)
	sw.PointerDown(xAt(sw, 0), 15)
	assert.InDelta(t, 0.8, sw.Fraction(), 1e-5)

	sw.PointerUp(xAt(sw, 0.8), 15)
	assert.True(t, sw.IsOn())
	assert.Equal(t, []bool{true}, rec.values)
}

func TestStrayPointerEventsIgnored(t *testing.T) {
	sw, _, rec := newTestSwitch(t)

	sw.PointerMove(40, 15)
	sw.PointerUp(40, 15)
	sw.PointerCancel()

	assert.False(t, sw.IsOn())
	assert.Equal(t, float32(0), sw.Fraction())
	assert.Empty(t, rec.values)
}

func TestZeroDurationSnaps(t *testing.T) {
	sw, _, rec := newTestSwitch(t, WithDuration(0))

	sw.Tap()

	assert.True(t, sw.IsOn())
	assert.Equal(t, float32(1), sw.Fraction())
	assert.Equal(t, Idle, sw.Phase())
	assert.Equal(t, []bool{true}, rec.values)
}

func TestDegenerateGeometryRendersOff(t *testing.T) {
	sw, _, rec := newTestSwitch(t, WithSize(20, 30), WithState(true))

	assert.False(t, sw.Geometry().Valid())
	assert.Equal(t, float32(0), sw.Frame().Fraction)

	// Taps still work; only rendering degrades.
	sw.Tap()
	assert.False(t, sw.IsOn())
	assert.Equal(t, []bool{false}, rec.values)
}

func TestResizeKeepsFraction(t *testing.T) {
	sw, _, _ := newTestSwitch(t, WithState(true))

	sw.Resize(100, 60)

	g := sw.Geometry()
	assert.Equal(t, float32(1), sw.Fraction())
	assert.Equal(t, g.Width-g.Inset-g.KnobDiameter(), sw.Frame().KnobOffset)
}

func TestPressWidensKnob(t *testing.T) {
	sw, clock, _ := newTestSwitch(t, WithState(true))

	sw.PointerDown(xAt(sw, 1), 15)
	settle(sw, clock)

	f := sw.Frame()
	assert.Equal(t, float32(1), f.Pressed)
	assert.Equal(t, float32(28+KnobGrowth), f.KnobWidth)
	assert.Equal(t, float32(49), f.KnobOffset+f.KnobWidth, "widened knob stays right-aligned")

	sw.PointerUp(xAt(sw, 1), 15)
	settle(sw, clock)
	assert.Equal(t, float32(0), sw.Frame().Pressed)
	assert.Equal(t, float32(28), sw.Frame().KnobWidth)
}

func TestObserverSeesCommittedState(t *testing.T) {
	sw, _, _ := newTestSwitch(t)
	var seen []bool
	sw.OnValueChanged(func(on bool) {
		seen = append(seen, sw.IsOn() == on)
	})

	sw.Tap()
	sw.Tap()

	assert.Equal(t, []bool{true, true}, seen)
}
