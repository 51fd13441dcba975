package hotplug

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoalesceBurst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan struct{})
	out := Coalesce(ctx, in, 20*time.Millisecond)

	for range 3 {
		in <- struct{}{}
	}

	select {
	case <-out:
	case <-time.After(time.Second):
		t.Fatal("burst was not reported")
	}
	assert.Never(t, func() bool { return len(out) > 0 }, 60*time.Millisecond, 5*time.Millisecond)

	in <- struct{}{}
	select {
	case <-out:
	case <-time.After(time.Second):
		t.Fatal("second arrival was not reported")
	}
}

func TestCoalesceClosesWithInput(t *testing.T) {
	in := make(chan struct{})
	out := Coalesce(context.Background(), in, time.Millisecond)
	close(in)

	select {
	case _, ok := <-out:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("output not closed")
	}
}

func TestCoalesceStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	out := Coalesce(ctx, make(chan struct{}), time.Millisecond)
	cancel()

	select {
	case _, ok := <-out:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("output not closed")
	}
}
