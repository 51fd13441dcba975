package toggle

import (
	"image/color"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPositionToFraction(t *testing.T) {
	g := NewGeometry(DefaultWidth, DefaultHeight)
	assert.Equal(t, float32(28), g.KnobDiameter())
	assert.Equal(t, float32(20), g.Travel())

	tests := []struct {
		x    float32
		want float32
	}{
		{-1e9, 0},
		{0, 0},
		{15, 0},
		{20, 0.25},
		{25, 0.5},
		{35, 1},
		{50, 1},
		{1e9, 1},
		{float32(math.NaN()), 0},
		{float32(math.Inf(1)), 1},
		{float32(math.Inf(-1)), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, g.PositionToFraction(tt.x), "x=%v", tt.x)
	}
}

func TestFractionRoundTrip(t *testing.T) {
	g := NewGeometry(120, 44)
	for _, f := range []float32{0, 0.1, 0.25, 0.5, 0.75, 1} {
		assert.InDelta(t, f, g.PositionToFraction(g.KnobCenter(f)), 1e-6)
	}
}

func TestGeometryValidity(t *testing.T) {
	tests := []struct {
		name  string
		w, h  float32
		valid bool
	}{
		{"default", DefaultWidth, DefaultHeight, true},
		{"zero", 0, 0, false},
		{"narrower than knob", 20, 30, false},
		{"square", 30, 30, false},
		{"wide", 200, 60, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGeometry(tt.w, tt.h)
			assert.Equal(t, tt.valid, g.Valid())
			assert.GreaterOrEqual(t, g.Travel(), float32(0))
			if !tt.valid {
				assert.Equal(t, float32(0), g.PositionToFraction(tt.w))
			}
		})
	}
}

func TestRenderDefaultStyle(t *testing.T) {
	g := NewGeometry(DefaultWidth, DefaultHeight)
	onTint := color.NRGBA{76, 217, 100, 255}

	off := Render(g, Style{}, 0, 0)
	assert.Equal(t, uint8(0), off.TrackColor.A, "inactive track is clear")
	assert.Equal(t, color.NRGBA{199, 199, 204, 255}, off.BorderColor)
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, off.KnobColor)
	assert.Equal(t, float32(1), off.KnobOffset)
	assert.Equal(t, float32(15), off.TrackRadius)
	assert.Equal(t, float32(14), off.KnobRadius)

	on := Render(g, Style{}, 1, 0)
	assert.Equal(t, onTint, on.TrackColor)
	assert.Equal(t, onTint, on.BorderColor)
	assert.Equal(t, float32(21), on.KnobOffset)
	assert.Equal(t, float32(1), on.ImageBlend)
	assert.Equal(t, float32(1), on.LabelBlend)
}

func TestRenderPressedTrack(t *testing.T) {
	g := NewGeometry(DefaultWidth, DefaultHeight)

	f := Render(g, Style{}, 0, 1)
	assert.Equal(t, color.NRGBA{227, 227, 227, 255}, f.TrackColor)
	assert.Equal(t, float32(28+KnobGrowth), f.KnobWidth)
}

func TestRenderIsPureInFraction(t *testing.T) {
	g := NewGeometry(DefaultWidth, DefaultHeight)
	st := Style{OnLabel: "ON", OffLabel: "OFF"}

	// A drag to 0.4 and a settle passing through 0.4 must look the same.
	sw := New(WithDuration(0))
	sw.SetStyle(st)
	sw.PointerDown(15, 15)
	sw.PointerMove(g.KnobCenter(0.4), 15)
	sw.press.Set(0)

	assert.Equal(t, Render(g, st, 0.4, 0), sw.Frame())
}

func TestRenderClampsFraction(t *testing.T) {
	g := NewGeometry(DefaultWidth, DefaultHeight)
	assert.Equal(t, Render(g, Style{}, 0, 0), Render(g, Style{}, -3, -1))
	assert.Equal(t, Render(g, Style{}, 1, 1), Render(g, Style{}, 7, 2))
}

func TestRenderSquareCorners(t *testing.T) {
	f := Render(NewGeometry(DefaultWidth, DefaultHeight), Style{Square: true}, 0.5, 0)
	assert.Equal(t, float32(2), f.TrackRadius)
	assert.Equal(t, float32(2), f.KnobRadius)
}

func TestOnThumbTintFollowsThumbTint(t *testing.T) {
	g := NewGeometry(DefaultWidth, DefaultHeight)
	red := color.NRGBA{255, 0, 0, 255}
	blue := color.NRGBA{0, 0, 255, 255}

	f := Render(g, Style{ThumbTintColor: red}, 1, 0)
	assert.Equal(t, red, f.KnobColor)

	f = Render(g, Style{ThumbTintColor: red, OnThumbTintColor: blue}, 1, 0)
	assert.Equal(t, blue, f.KnobColor)

	f = Render(g, Style{ThumbTintColor: red, OnThumbTintColor: blue}, 0, 0)
	assert.Equal(t, red, f.KnobColor)
}

func TestDefaultStyle(t *testing.T) {
	st := DefaultStyle()
	assert.True(t, st.Rounded())
	assert.Equal(t, DefaultOnTintColor, st.OnTintColor)
	assert.Equal(t, DefaultThumbColor, st.OnThumbTintColor)
	assert.Equal(t, DefaultInactiveColor, st.InactiveColor)
}

func TestBlend(t *testing.T) {
	black := color.NRGBA{0, 0, 0, 255}
	white := color.NRGBA{255, 255, 255, 255}
	green := color.NRGBA{0, 255, 0, 255}

	assert.Equal(t, black, Blend(black, white, 0))
	assert.Equal(t, white, Blend(black, white, 1))
	assert.Equal(t, color.NRGBA{128, 128, 128, 255}, Blend(black, white, 0.5))
	assert.Equal(t, color.NRGBA{0, 255, 0, 128}, Blend(color.Transparent, green, 0.5))
	assert.Equal(t, color.NRGBA{}, Blend(color.Transparent, color.Transparent, 0.5))
	assert.Equal(t, white, Blend(black, white, 4), "t is clamped")
}

func TestAnimator(t *testing.T) {
	start := time.Unix(0, 0)

	t.Run("eases between endpoints", func(t *testing.T) {
		a := NewAnimator(0)
		a.AnimateTo(1, start, time.Second)
		assert.True(t, a.Running())
		assert.Equal(t, float32(1), a.Target())

		assert.True(t, a.Step(start.Add(500*time.Millisecond)))
		assert.InDelta(t, 0.5, a.Value(), 1e-6)

		a.Step(start.Add(250 * time.Millisecond))
		assert.InDelta(t, EaseInOut(0.25), a.Value(), 1e-6)

		assert.True(t, a.Step(start.Add(2*time.Second)))
		assert.Equal(t, float32(1), a.Value())
		assert.False(t, a.Running())
		assert.False(t, a.Step(start.Add(3*time.Second)))
	})

	t.Run("zero duration jumps", func(t *testing.T) {
		a := NewAnimator(0)
		a.AnimateTo(0.7, start, 0)
		assert.False(t, a.Running())
		assert.Equal(t, float32(0.7), a.Value())
	})

	t.Run("cancel holds position", func(t *testing.T) {
		a := NewAnimator(0)
		a.AnimateTo(1, start, time.Second)
		a.Step(start.Add(500 * time.Millisecond))
		a.Cancel()
		assert.False(t, a.Running())
		assert.InDelta(t, 0.5, a.Value(), 1e-6)
		assert.InDelta(t, 0.5, a.Target(), 1e-6)
	})

	t.Run("linear curve", func(t *testing.T) {
		a := NewAnimator(0)
		a.SetCurve(Linear)
		a.AnimateTo(1, start, time.Second)
		a.Step(start.Add(300 * time.Millisecond))
		assert.InDelta(t, 0.3, a.Value(), 1e-6)
	})
}

func TestCurvesHitEndpoints(t *testing.T) {
	for name, c := range map[string]Curve{"linear": Linear, "ease-in-out": EaseInOut, "ease-out": EaseOut} {
		assert.Equal(t, float32(0), c(0), name)
		assert.Equal(t, float32(1), c(1), name)
	}
}
