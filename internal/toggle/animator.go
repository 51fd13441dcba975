package toggle

import (
	"time"

	"github.com/chewxy/math32"
)

// DefaultDuration is how long a settle animation takes.
const DefaultDuration = 300 * time.Millisecond

// Curve maps linear progress t in [0, 1] to eased progress.
type Curve func(t float32) float32

// Linear is the identity curve.
func Linear(t float32) float32 {
	return t
}

// EaseInOut is the cubic smoothstep curve: slow start, slow finish.
func EaseInOut(t float32) float32 {
	return t * t * (3 - 2*t)
}

// EaseOut decelerates towards the end.
func EaseOut(t float32) float32 {
	u := 1 - t
	return 1 - u*u*u
}

// Animator tweens a single value. Starting a new animation always interrupts
// the running one and continues from the value last reported by Value, so the
// animated property never jumps.
type Animator struct {
	value    float32
	from     float32
	to       float32
	start    time.Time
	duration time.Duration
	curve    Curve
	running  bool
}

// NewAnimator returns an idle animator resting at v.
func NewAnimator(v float32) *Animator {
	return &Animator{value: v, to: v, curve: EaseInOut}
}

// Value returns the current (last stepped) value.
func (a *Animator) Value() float32 {
	return a.value
}

// Target returns where the animator is heading, or its value when idle.
func (a *Animator) Target() float32 {
	return a.to
}

// Running reports whether an animation is in progress.
func (a *Animator) Running() bool {
	return a.running
}

// SetCurve changes the easing curve used by later animations.
func (a *Animator) SetCurve(c Curve) {
	if c == nil {
		c = EaseInOut
	}
	a.curve = c
}

// Set cancels any animation and jumps to v.
func (a *Animator) Set(v float32) {
	a.running = false
	a.value = v
	a.from = v
	a.to = v
}

// Cancel stops the animation where it is.
func (a *Animator) Cancel() {
	a.Set(a.value)
}

// AnimateTo starts an animation from the current value to target. A
// non-positive duration, or a target equal to the current value, jumps
// immediately.
func (a *Animator) AnimateTo(target float32, now time.Time, d time.Duration) {
	if d <= 0 || target == a.value {
		a.Set(target)
		return
	}
	a.from = a.value
	a.to = target
	a.start = now
	a.duration = d
	a.running = true
}

// Step advances the animation to now and reports whether the value changed.
func (a *Animator) Step(now time.Time) bool {
	if !a.running {
		return false
	}
	prev := a.value
	t := float32(now.Sub(a.start)) / float32(a.duration)
	if t >= 1 {
		a.Set(a.to)
		return a.value != prev
	}
	t = math32.Max(0, t)
	a.value = lerp(a.from, a.to, a.curve(t))
	return a.value != prev
}
