package toggle

import (
	"time"

	"github.com/chewxy/math32"
)

// DefaultDragThreshold is how far, in pixels, a pointer must travel from
// where it went down before the gesture counts as a drag instead of a tap.
const DefaultDragThreshold = 4

// State is the committed value of a switch.
type State uint8

const (
	Off State = iota
	On
)

// StateOf converts a bool to a State.
func StateOf(on bool) State {
	if on {
		return On
	}
	return Off
}

// Fraction is the knob fraction at which the state rests.
func (s State) Fraction() float32 {
	if s == On {
		return 1
	}
	return 0
}

// Not returns the opposite state.
func (s State) Not() State {
	if s == On {
		return Off
	}
	return On
}

func (s State) String() string {
	if s == On {
		return "on"
	}
	return "off"
}

// Phase is the interaction phase of a switch.
type Phase uint8

const (
	// Idle: no finger down, nothing moving.
	Idle Phase = iota
	// Dragging: a pointer is down on the switch.
	Dragging
	// Settling: the knob is animating towards the committed state.
	Settling
)

func (p Phase) String() string {
	switch p {
	case Dragging:
		return "dragging"
	case Settling:
		return "settling"
	default:
		return "idle"
	}
}

// dragSession tracks one pointer from down to up.
type dragSession struct {
	start   State
	originX float32
	originY float32
	dragged bool
}

// Switch is a two-state control driven by pointer gestures. It is not safe
// for concurrent use.
type Switch struct {
	state State
	geom  Geometry
	style Style

	knob  *Animator
	press *Animator

	session *dragSession

	watchers []func(on bool)

	now       func() time.Time
	duration  time.Duration
	threshold float32
}

// Option configures a Switch.
type Option func(*Switch)

// WithClock replaces time.Now as the source of animation start times.
func WithClock(now func() time.Time) Option {
	return func(s *Switch) { s.now = now }
}

// WithDuration sets the settle animation length. Zero disables animation.
func WithDuration(d time.Duration) Option {
	return func(s *Switch) { s.duration = d }
}

// WithDragThreshold sets the tap/drag distinction distance in pixels.
func WithDragThreshold(px float32) Option {
	return func(s *Switch) { s.threshold = px }
}

// WithSize sets the track size.
func WithSize(width, height float32) Option {
	return func(s *Switch) { s.geom = NewGeometry(width, height) }
}

// WithStyle sets the initial style.
func WithStyle(st Style) Option {
	return func(s *Switch) { s.style = st }
}

// WithCurve sets the easing curve of the settle and press animations.
func WithCurve(c Curve) Option {
	return func(s *Switch) {
		s.knob.SetCurve(c)
		s.press.SetCurve(c)
	}
}

// WithState sets the initial state without animating.
func WithState(on bool) Option {
	return func(s *Switch) { s.state = StateOf(on) }
}

// New returns a switch at rest in the Off state with the default size.
func New(opts ...Option) *Switch {
	s := &Switch{
		geom:      NewGeometry(DefaultWidth, DefaultHeight),
		knob:      NewAnimator(0),
		press:     NewAnimator(0),
		now:       time.Now,
		duration:  DefaultDuration,
		threshold: DefaultDragThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.knob.Set(s.state.Fraction())
	return s
}

// IsOn reports the committed state. It never reflects an unresolved drag.
func (s *Switch) IsOn() bool {
	return s.state == On
}

// State returns the committed state.
func (s *Switch) State() State {
	return s.state
}

// Phase returns the current interaction phase.
func (s *Switch) Phase() Phase {
	switch {
	case s.session != nil:
		return Dragging
	case s.knob.Running() || s.press.Running():
		return Settling
	default:
		return Idle
	}
}

// Fraction returns the displayed knob fraction.
func (s *Switch) Fraction() float32 {
	return s.knob.Value()
}

// Geometry returns the current geometry.
func (s *Switch) Geometry() Geometry {
	return s.geom
}

// Style returns the current style.
func (s *Switch) Style() Style {
	return s.style
}

// SetStyle replaces the style; it shows on the next frame.
func (s *Switch) SetStyle(st Style) {
	s.style = st
}

// Resize changes the track size. The knob keeps its fraction.
func (s *Switch) Resize(width, height float32) {
	inset := s.geom.Inset
	s.geom = Geometry{Width: width, Height: height, Inset: inset}
}

// OnValueChanged registers fn to be called with the new value whenever a
// gesture changes the state. Programmatic SetOn calls never notify.
func (s *Switch) OnValueChanged(fn func(on bool)) {
	s.watchers = append(s.watchers, fn)
}

// SetOn sets the state programmatically. Setting the current state does
// nothing, not even to a gesture in progress; a different state abandons the
// gesture. With animated false the knob snaps to its resting position.
func (s *Switch) SetOn(on, animated bool) {
	next := StateOf(on)
	if next == s.state {
		return
	}
	s.session = nil
	s.state = next
	if animated {
		now := s.now()
		s.knob.AnimateTo(next.Fraction(), now, s.duration)
		s.press.AnimateTo(0, now, s.duration)
		return
	}
	s.knob.Set(next.Fraction())
	s.press.Set(0)
}

// PointerDown starts a gesture at (x, y). Any settle animation stops where
// it is, so a quick re-touch picks the knob up mid-flight. A second
// PointerDown while a gesture is active is ignored.
func (s *Switch) PointerDown(x, y float32) {
	if s.session != nil {
		return
	}
	s.knob.Cancel()
	s.session = &dragSession{start: s.state, originX: x, originY: y}
	s.press.AnimateTo(1, s.now(), s.duration)
}

// PointerMove updates the gesture. Once the pointer has moved past the drag
// threshold the knob follows it directly.
func (s *Switch) PointerMove(x, y float32) {
	sess := s.session
	if sess == nil {
		return
	}
	if !sess.dragged && math32.Hypot(x-sess.originX, y-sess.originY) > s.threshold {
		sess.dragged = true
	}
	if sess.dragged {
		s.knob.Set(s.geom.PositionToFraction(x))
	}
}

// PointerUp ends the gesture at (x, y) and commits its outcome: a tap flips
// the state the gesture started from, a drag lands on whichever side the
// knob is nearer (the midpoint counts as On). Observers hear about it only
// if the state changed.
func (s *Switch) PointerUp(x, y float32) {
	sess := s.session
	if sess == nil {
		return
	}
	s.PointerMove(x, y)
	s.session = nil

	next := sess.start.Not()
	if sess.dragged {
		next = Off
		if s.knob.Value() >= 0.5 {
			next = On
		}
	}
	s.settle(next)
}

// PointerCancel abandons the gesture and animates back to the state it
// started from. Observers are not notified.
func (s *Switch) PointerCancel() {
	sess := s.session
	if sess == nil {
		return
	}
	s.session = nil
	s.settle(sess.start)
}

// Tap flips the switch as if it had been tapped on the knob. It does nothing
// while a gesture is in progress.
func (s *Switch) Tap() {
	if s.session != nil {
		return
	}
	x := s.geom.KnobCenter(s.knob.Value())
	y := s.geom.Height / 2
	s.PointerDown(x, y)
	s.PointerUp(x, y)
}

// Tick advances animations to now and reports whether the frame changed.
func (s *Switch) Tick(now time.Time) bool {
	knob := s.knob.Step(now)
	press := s.press.Step(now)
	return knob || press
}

// Animating reports whether Tick still has work to do.
func (s *Switch) Animating() bool {
	return s.knob.Running() || s.press.Running()
}

// Frame renders the switch as currently displayed.
func (s *Switch) Frame() Frame {
	return Render(s.geom, s.style, s.knob.Value(), s.press.Value())
}

func (s *Switch) settle(next State) {
	now := s.now()
	changed := next != s.state
	s.state = next
	s.knob.AnimateTo(next.Fraction(), now, s.duration)
	s.press.AnimateTo(0, now, s.duration)
	if changed {
		s.notify(next == On)
	}
}

func (s *Switch) notify(on bool) {
	watchers := append([]func(bool){}, s.watchers...)
	for _, fn := range watchers {
		fn(on)
	}
}
