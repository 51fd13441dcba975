package module

import (
	"image"

	"github.com/phinze/toggledeck/internal/device"
)

// TouchStripEventFromDeviceTap creates a TouchStripEvent from a tap.
func TouchStripEventFromDeviceTap(touchType device.TouchStripTouchType, point image.Point) TouchStripEvent {
	eventType := TouchTap
	if touchType == device.TOUCH_STRIP_TOUCH_TYPE_LONG {
		eventType = TouchLongTap
	}
	return TouchStripEvent{Type: eventType, Point: point}
}

// TouchStripEventFromSwipe creates a TouchStripEvent from a swipe gesture.
func TouchStripEventFromSwipe(origin, destination image.Point) TouchStripEvent {
	return TouchStripEvent{
		Type:       TouchSwipe,
		Point:      origin,
		SwipeStart: origin,
		SwipeEnd:   destination,
	}
}

// TouchStripEventFromDrag creates a pointer TouchStripEvent from a drag phase.
func TouchStripEventFromDrag(phase device.TouchStripDragPhase, point image.Point) TouchStripEvent {
	var eventType TouchStripEventType
	switch phase {
	case device.DragBegin:
		eventType = TouchPress
	case device.DragMove:
		eventType = TouchDrag
	case device.DragEnd:
		eventType = TouchRelease
	default:
		eventType = TouchCancel
	}
	return TouchStripEvent{Type: eventType, Point: point}
}

// Localize translates a strip-space event into the coordinates of rect.
func (e TouchStripEvent) Localize(rect image.Rectangle) TouchStripEvent {
	e.Point = e.Point.Sub(rect.Min)
	if e.Type == TouchSwipe {
		e.SwipeStart = e.SwipeStart.Sub(rect.Min)
		e.SwipeEnd = e.SwipeEnd.Sub(rect.Min)
	}
	return e
}
