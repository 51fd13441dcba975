// Package touch recognizes strip gestures from raw pointer state, for
// devices (like the emulator) that see the pointer rather than finished
// taps and swipes.
package touch

import (
	"image"
	"time"

	"github.com/phinze/toggledeck/internal/device"
)

// Thresholds for summarizing a touch on release.
const (
	LongTapAfter  = 500 * time.Millisecond
	SwipeDistance = 20
)

// Sink receives the gestures a Tracker recognizes.
type Sink interface {
	Drag(phase device.TouchStripDragPhase, p image.Point)
	Tap(t device.TouchStripTouchType, p image.Point)
	Swipe(origin, destination image.Point)
}

// Tracker turns pointer state over the strip into gestures. In continuous
// mode every change becomes a drag phase; otherwise the touch is summarized
// on release as a tap or swipe, the way the hardware reports it. A Tracker
// is driven from a single goroutine.
type Tracker struct {
	sink   Sink
	bounds image.Rectangle

	active     bool
	continuous bool
	start      image.Point
	last       image.Point
	startTime  time.Time
}

// NewTracker reports to sink; moves are clamped to bounds.
func NewTracker(sink Sink, bounds image.Rectangle) *Tracker {
	return &Tracker{sink: sink, bounds: bounds}
}

// Active reports whether a touch is in progress.
func (t *Tracker) Active() bool {
	return t.active
}

func (t *Tracker) clamp(p image.Point) image.Point {
	p.X = min(max(p.X, t.bounds.Min.X), t.bounds.Max.X-1)
	p.Y = min(max(p.Y, t.bounds.Min.Y), t.bounds.Max.Y-1)
	return p
}

// Press starts a touch at p, which must be inside the bounds.
func (t *Tracker) Press(p image.Point, now time.Time, continuous bool) {
	if t.active {
		return
	}
	t.active = true
	t.continuous = continuous
	t.start, t.last = p, p
	t.startTime = now
	if continuous {
		t.sink.Drag(device.DragBegin, p)
	}
}

// Move follows the pointer while it is held, even outside the bounds.
func (t *Tracker) Move(p image.Point) {
	if !t.active {
		return
	}
	p = t.clamp(p)
	if p == t.last {
		return
	}
	t.last = p
	if t.continuous {
		t.sink.Drag(device.DragMove, p)
	}
}

// Release ends the touch at p.
func (t *Tracker) Release(p image.Point, now time.Time) {
	if !t.active {
		return
	}
	t.Move(p)
	t.active = false
	end := t.last

	if t.continuous {
		t.sink.Drag(device.DragEnd, end)
		return
	}

	d := end.Sub(t.start)
	if d.X*d.X+d.Y*d.Y < SwipeDistance*SwipeDistance {
		touchType := device.TOUCH_STRIP_TOUCH_TYPE_SHORT
		if now.Sub(t.startTime) > LongTapAfter {
			touchType = device.TOUCH_STRIP_TOUCH_TYPE_LONG
		}
		t.sink.Tap(touchType, t.start)
		return
	}
	t.sink.Swipe(t.start, end)
}

// Cancel abandons the touch, e.g. when the window loses focus mid-drag.
func (t *Tracker) Cancel() {
	if !t.active {
		return
	}
	t.active = false
	if t.continuous {
		t.sink.Drag(device.DragCancel, t.last)
	}
}
