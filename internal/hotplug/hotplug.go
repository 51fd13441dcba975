// Package hotplug reports when a Stream Deck is plugged in, so the daemon can
// reconnect without polling.
package hotplug

import (
	"context"
	"time"
)

// ElgatoVendorID is the USB vendor ID of every Stream Deck model.
const ElgatoVendorID uint16 = 0x0fd9

// settleDelay is how long arrivals are collected before one is reported. A
// Stream Deck shows up as several HID interfaces in quick succession.
const settleDelay = 250 * time.Millisecond

// Coalesce forwards a burst of signals on in as a single signal on the
// returned channel, once in has been quiet for quiet. The returned channel
// is closed when ctx is done or in is closed.
func Coalesce(ctx context.Context, in <-chan struct{}, quiet time.Duration) <-chan struct{} {
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)

		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case _, ok := <-in:
				if !ok {
					return
				}
				if timer == nil {
					timer = time.NewTimer(quiet)
				} else {
					timer.Reset(quiet)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out
}

// Arrivals returns a channel signalled once per Stream Deck plug-in. On
// platforms without hotplug support the channel never fires.
func Arrivals(ctx context.Context) <-chan struct{} {
	return Coalesce(ctx, Watch(ctx, ElgatoVendorID), settleDelay)
}
