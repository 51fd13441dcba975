// Package toggle implements an on/off switch control: it resolves pointer
// gestures into a definite state and renders every visual property of the
// switch as a function of a single knob fraction in [0, 1].
//
// The engine does no drawing and no locking. A host feeds it pointer events
// and frame ticks from a single goroutine and paints the Frame it returns.
package toggle

import "github.com/chewxy/math32"

// Default dimensions and spacing of a switch.
const (
	DefaultWidth  = 50
	DefaultHeight = 30

	// DefaultInset is the gap between the track edge and the knob.
	DefaultInset = 1

	// KnobGrowth is how much wider the knob gets while a finger is down.
	KnobGrowth = 5
)

// Geometry describes the track and knob sizes of a switch, in pixels of the
// switch's own coordinate space (origin at the track's top-left corner).
type Geometry struct {
	Width  float32
	Height float32
	Inset  float32
}

// NewGeometry returns the geometry of a track with the given size and the
// default inset.
func NewGeometry(width, height float32) Geometry {
	return Geometry{Width: width, Height: height, Inset: DefaultInset}
}

// KnobDiameter is the resting knob size; the knob is as tall as the track
// minus the inset on both sides.
func (g Geometry) KnobDiameter() float32 {
	return math32.Max(0, g.Height-2*g.Inset)
}

// KnobRadius is half the knob diameter.
func (g Geometry) KnobRadius() float32 {
	return g.KnobDiameter() / 2
}

// Travel is the horizontal distance the knob center moves between the off
// and on positions. It is never negative.
func (g Geometry) Travel() float32 {
	return math32.Max(0, g.Width-g.KnobDiameter()-2*g.Inset)
}

// Valid reports whether the knob has room to move. Degenerate geometries
// (zero size, or a track narrower than its knob) are rendered as Off.
func (g Geometry) Valid() bool {
	return g.Width > 0 && g.Height > 0 && g.Travel() > 0
}

// PositionToFraction maps a pointer x coordinate to a knob fraction. The
// mapping is monotonic and saturates at 0 and 1 outside the track.
func (g Geometry) PositionToFraction(x float32) float32 {
	travel := g.Travel()
	if travel <= 0 {
		return 0
	}
	return clamp01((x - g.Inset - g.KnobRadius()) / travel)
}

// FractionToKnobOffset returns the x of the resting knob's left edge for a
// fraction.
func (g Geometry) FractionToKnobOffset(f float32) float32 {
	return g.Inset + clamp01(f)*g.Travel()
}

// KnobCenter returns the x of the knob center for a fraction; it is the exact
// inverse of PositionToFraction inside the track.
func (g Geometry) KnobCenter(f float32) float32 {
	return g.FractionToKnobOffset(f) + g.KnobRadius()
}

func clamp01(v float32) float32 {
	// NaN compares false both ways and falls through to 0.
	if v >= 1 {
		return 1
	}
	if v > 0 {
		return v
	}
	return 0
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}
