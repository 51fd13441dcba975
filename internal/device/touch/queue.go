package touch

import (
	"image"

	"github.com/phinze/toggledeck/internal/device"
)

// DragEvent is one queued drag phase.
type DragEvent struct {
	Phase device.TouchStripDragPhase
	Point image.Point
}

// Queue carries drag phases, in order, from an input loop to a single
// dispatcher. A full queue drops moves, which the next move supersedes, but
// holds begin, end and cancel until there is room so no touch is left open.
type Queue struct {
	ch chan DragEvent
}

// NewQueue returns a queue buffering up to size events.
func NewQueue(size int) *Queue {
	return &Queue{ch: make(chan DragEvent, size)}
}

// Push enqueues ev. It reports false if ev was dropped: a move while the
// queue is full, or any phase once stop is closed.
func (q *Queue) Push(ev DragEvent, stop <-chan struct{}) bool {
	select {
	case <-stop:
		return false
	default:
	}

	if ev.Phase == device.DragMove {
		select {
		case q.ch <- ev:
			return true
		default:
			return false
		}
	}

	select {
	case q.ch <- ev:
		return true
	case <-stop:
		return false
	}
}

// Events returns the channel the dispatcher reads.
func (q *Queue) Events() <-chan DragEvent {
	return q.ch
}
