package module

import (
	"context"
	"image"
	"testing"

	"github.com/phinze/toggledeck/internal/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTouchStripEventFromDrag(t *testing.T) {
	tests := []struct {
		phase device.TouchStripDragPhase
		want  TouchStripEventType
	}{
		{device.DragBegin, TouchPress},
		{device.DragMove, TouchDrag},
		{device.DragEnd, TouchRelease},
		{device.DragCancel, TouchCancel},
	}
	for _, tt := range tests {
		ev := TouchStripEventFromDrag(tt.phase, image.Pt(3, 4))
		assert.Equal(t, tt.want, ev.Type, tt.phase.String())
		assert.Equal(t, image.Pt(3, 4), ev.Point)
		assert.True(t, ev.Type.IsPointer())
	}
}

func TestTouchStripEventFromDeviceTap(t *testing.T) {
	assert.Equal(t, TouchTap, TouchStripEventFromDeviceTap(device.TOUCH_STRIP_TOUCH_TYPE_SHORT, image.Point{}).Type)
	assert.Equal(t, TouchLongTap, TouchStripEventFromDeviceTap(device.TOUCH_STRIP_TOUCH_TYPE_LONG, image.Point{}).Type)
	assert.False(t, TouchTap.IsPointer())
}

func TestLocalize(t *testing.T) {
	rect := image.Rect(200, 0, 400, 100)

	tap := TouchStripEvent{Type: TouchTap, Point: image.Pt(250, 40)}.Localize(rect)
	assert.Equal(t, image.Pt(50, 40), tap.Point)

	swipe := TouchStripEventFromSwipe(image.Pt(210, 50), image.Pt(390, 60)).Localize(rect)
	assert.Equal(t, image.Pt(10, 50), swipe.Point)
	assert.Equal(t, image.Pt(10, 50), swipe.SwipeStart)
	assert.Equal(t, image.Pt(190, 60), swipe.SwipeEnd)
}

func TestStripSlot(t *testing.T) {
	strip := image.Rect(0, 0, 800, 100)
	assert.Equal(t, image.Rect(0, 0, 200, 100), StripSlot(strip, 4, 0))
	assert.Equal(t, image.Rect(600, 0, 800, 100), StripSlot(strip, 4, 3))

	res := Resources{StripRect: StripSlot(strip, 4, 1), Keys: []KeyID{Key2}, Dials: []DialID{Dial2}}
	assert.True(t, res.HasStrip())
	assert.True(t, res.OwnsStripPoint(image.Pt(200, 0)))
	assert.False(t, res.OwnsStripPoint(image.Pt(400, 0)))
	assert.True(t, res.OwnsKey(Key2))
	assert.False(t, res.OwnsKey(Key1))
	assert.True(t, res.OwnsDial(Dial2))
}

func TestBaseModuleLifecycle(t *testing.T) {
	b := NewBaseModule("switch/0")
	var _ Module = &b
	_, animated := any(&b).(Animated)
	assert.False(t, animated)

	require.NotNil(t, b.Context())
	assert.NoError(t, b.Stop(), "stop before init")

	res := Resources{StripRect: image.Rect(0, 0, 200, 100), Dials: []DialID{0}}
	require.NoError(t, b.Init(context.Background(), res))
	assert.Equal(t, "switch/0", b.ID())
	assert.Equal(t, res, b.Resources())
	assert.Nil(t, b.RenderKeys())
	assert.Nil(t, b.RenderStrip())
	assert.NoError(t, b.HandleStripTouch(TouchStripEvent{Type: TouchPress}))
	assert.NoError(t, b.HandleKey(1, KeyEvent{Pressed: true}))
	assert.NoError(t, b.HandleDial(0, DialEvent{Type: DialPress}))

	ctx := b.Context()
	assert.NoError(t, ctx.Err())
	require.NoError(t, b.Stop())
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
