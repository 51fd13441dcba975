//go:build !darwin

package hotplug

import (
	"context"
	"log/slog"
)

// Watch is not implemented on this platform; the returned channel is closed
// when ctx is done and never signals before that. Callers fall back to
// retrying on an interval.
func Watch(ctx context.Context, vendorID uint16) <-chan struct{} {
	slog.Debug("USB hotplug notifications unavailable on this platform")
	ch := make(chan struct{})
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch
}
