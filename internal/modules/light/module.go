// Package light provides a Stream Deck module that shows one on/off switch in
// a touch strip slot, optionally mirrored on a key, and keeps it in step with
// a Home Assistant entity.
package light

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"sync"
	"time"

	"github.com/phinze/toggledeck/internal/config"
	"github.com/phinze/toggledeck/internal/module"
	"github.com/phinze/toggledeck/internal/paint"
	"github.com/phinze/toggledeck/internal/toggle"
)

// Strip slot layout: a title band above the track.
const (
	titleBand   = 30
	titleSize   = 16
	trackWidth  = 104
	trackHeight = 56

	keySize        = 72
	keyTrackWidth  = 50
	keyTrackHeight = 30
)

var (
	_ module.Module   = (*Module)(nil)
	_ module.Animated = (*Module)(nil)
)

// Remote reads and writes entity state, e.g. a homeassistant.Client.
type Remote interface {
	State(ctx context.Context, entity string) (bool, error)
	SetState(ctx context.Context, entity string, on bool) error
}

// Module implements one switch.
type Module struct {
	module.BaseModule

	remote Remote

	mu     sync.Mutex
	cfg    config.SwitchConfig
	anim   config.AnimationConfig
	sw     *toggle.Switch
	now    func() time.Time
	track  image.Rectangle // in slot coordinates
	dirty  bool
	synced bool // state confirmed by the remote
	gen    int  // bumped on every local change

	painter   *paint.Painter
	keyImages keyImages
}

// keyImages are the style images loaded at key scale.
type keyImages struct {
	thumb, on, off image.Image
}

// Option configures a Module.
type Option func(*Module)

// WithRemote connects the switch to its entity through r.
func WithRemote(r Remote) Option {
	return func(m *Module) { m.remote = r }
}

// WithClock replaces time.Now for animations.
func WithClock(now func() time.Time) Option {
	return func(m *Module) { m.now = now }
}

// New creates a module for the switch described by sc.
func New(sc config.SwitchConfig, anim config.AnimationConfig, opts ...Option) *Module {
	m := &Module{
		BaseModule: module.NewBaseModule(fmt.Sprintf("switch/%d", sc.Slot)),
		cfg:        sc,
		anim:       anim,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Resources returns the keys, dial and strip slot the switch occupies within
// a strip of the given size.
func Resources(sc config.SwitchConfig, strip image.Rectangle) module.Resources {
	res := module.Resources{
		StripRect: module.StripSlot(strip, config.SlotCount, sc.Slot),
		Dials:     []module.DialID{module.DialID(sc.Dial())},
	}
	if sc.Key != 0 {
		res.Keys = []module.KeyID{module.KeyID(sc.Key)}
	}
	return res
}

// Entity returns the Home Assistant entity the switch controls, if any.
func (m *Module) Entity() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.Entity
}

// Init lays the switch out in its slot and fetches the entity's state.
func (m *Module) Init(ctx context.Context, res module.Resources) error {
	if err := m.BaseModule.Init(ctx, res); err != nil {
		return err
	}
	if !res.HasStrip() {
		return fmt.Errorf("switch %q has no strip slot", m.cfg.Name)
	}

	painter, err := paint.New()
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.painter = painter
	slot := res.StripRect
	w := min(trackWidth, slot.Dx())
	h := min(trackHeight, slot.Dy()-titleBand)
	x := (slot.Dx() - w) / 2
	y := titleBand + (slot.Dy()-titleBand-h)/2
	m.track = image.Rect(x, y, x+w, y+h)
	m.rebuild(false)
	entity := m.cfg.Entity
	m.mu.Unlock()

	if m.remote != nil && entity != "" {
		go m.fetchState(m.Context(), entity)
	}
	slog.Info("Switch module initialized", "name", m.cfg.Name, "slot", m.cfg.Slot, "entity", entity)
	return nil
}

// rebuild creates the switch for the current config, keeping its state.
// Callers hold m.mu.
func (m *Module) rebuild(on bool) {
	if m.sw != nil {
		on = m.sw.IsOn()
	}
	st := m.loadStyle()
	m.sw = toggle.New(
		toggle.WithSize(float32(m.track.Dx()), float32(m.track.Dy())),
		toggle.WithStyle(st),
		toggle.WithDuration(m.anim.SettleDuration()),
		toggle.WithCurve(m.anim.CurveFunc()),
		toggle.WithDragThreshold(float32(m.anim.DragThreshold)),
		toggle.WithClock(m.now),
		toggle.WithState(on),
	)
	m.sw.OnValueChanged(m.valueChanged)
	m.dirty = true
}

// loadStyle converts the configured style and resolves its images at both
// strip and key scale. Images that fail to load are logged and left out.
func (m *Module) loadStyle() toggle.Style {
	sc := m.cfg.Style
	st := sc.Style()

	load := func(src string, size int, col color.Color) image.Image {
		img, err := m.painter.LoadImage(src, size, col)
		if err != nil {
			slog.Warn("Loading switch image", "switch", m.cfg.Name, "src", src, "err", err)
			return nil
		}
		return img
	}

	g := toggle.NewGeometry(float32(m.track.Dx()), float32(m.track.Dy()))
	kg := toggle.NewGeometry(keyTrackWidth, keyTrackHeight)
	st.ThumbImage = load(sc.ThumbImage, int(g.KnobDiameter()*0.6), paint.ColorDim)
	st.OnImage = load(sc.OnImage, int(g.Height*0.5), paint.ColorLabel)
	st.OffImage = load(sc.OffImage, int(g.Height*0.5), paint.ColorLabel)
	m.keyImages = keyImages{
		thumb: load(sc.ThumbImage, int(kg.KnobDiameter()*0.6), paint.ColorDim),
		on:    load(sc.OnImage, int(kg.Height*0.5), paint.ColorLabel),
		off:   load(sc.OffImage, int(kg.Height*0.5), paint.ColorLabel),
	}
	return st
}

// ApplyConfig restyles the switch in place after a config reload. The
// committed state is kept; a gesture in progress is abandoned.
func (m *Module) ApplyConfig(sc config.SwitchConfig, anim config.AnimationConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = sc
	m.anim = anim
	if m.painter == nil {
		return
	}
	m.rebuild(false)
}

// IsOn reports the switch's committed state.
func (m *Module) IsOn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sw != nil && m.sw.IsOn()
}

// ApplyRemoteState moves the switch to a state reported by the remote. It
// does not echo the change back.
func (m *Module) ApplyRemoteState(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.synced = true
	m.dirty = true
	if m.sw != nil {
		m.sw.SetOn(on, true)
	}
}

func (m *Module) fetchState(ctx context.Context, entity string) {
	on, err := m.remote.State(ctx, entity)
	if err != nil {
		slog.Warn("Fetching switch state", "entity", entity, "err", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.synced = true
	m.dirty = true
	m.sw.SetOn(on, false)
}

// valueChanged runs with m.mu held, from inside a switch gesture.
func (m *Module) valueChanged(on bool) {
	m.gen++
	slog.Info("Switch toggled", "name", m.cfg.Name, "on", on)
	if m.remote == nil || m.cfg.Entity == "" {
		return
	}
	go m.pushState(m.Context(), m.cfg.Entity, on, m.gen)
}

// pushState sends a gesture's outcome to the remote. If that fails and the
// user has not touched the switch since, it swings back.
func (m *Module) pushState(ctx context.Context, entity string, on bool, gen int) {
	err := m.remote.SetState(ctx, entity, on)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		m.synced = true
		return
	}
	slog.Warn("Setting switch state, reverting", "entity", entity, "on", on, "err", err)
	m.synced = false
	m.dirty = true
	if gen == m.gen && m.sw.IsOn() == on {
		m.sw.SetOn(!on, true)
	}
}

// Tick advances the switch animation.
func (m *Module) Tick(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sw == nil {
		return false
	}
	changed := m.sw.Tick(now) || m.dirty
	m.dirty = false
	return changed
}

// HandleStripTouch drives the switch from touches in its slot.
func (m *Module) HandleStripTouch(event module.TouchStripEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sw == nil {
		return nil
	}

	p := m.toTrack(event.Point)
	switch event.Type {
	case module.TouchTap, module.TouchLongTap:
		m.sw.PointerDown(p.x, p.y)
		m.sw.PointerUp(p.x, p.y)
	case module.TouchSwipe:
		end := m.toTrack(event.SwipeEnd)
		m.sw.PointerDown(p.x, p.y)
		m.sw.PointerMove(end.x, end.y)
		m.sw.PointerUp(end.x, end.y)
	case module.TouchPress:
		m.sw.PointerDown(p.x, p.y)
	case module.TouchDrag:
		m.sw.PointerMove(p.x, p.y)
	case module.TouchRelease:
		m.sw.PointerUp(p.x, p.y)
	case module.TouchCancel:
		m.sw.PointerCancel()
	}
	m.dirty = true
	return nil
}

// HandleKey flips the switch when its key is pressed.
func (m *Module) HandleKey(id module.KeyID, event module.KeyEvent) error {
	if !event.Pressed {
		return nil
	}
	m.tap()
	return nil
}

// HandleDial flips the switch on press; turning it right switches on and
// turning it left switches off.
func (m *Module) HandleDial(id module.DialID, event module.DialEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sw == nil {
		return nil
	}
	switch event.Type {
	case module.DialPress:
		m.sw.Tap()
	case module.DialRotate:
		if event.Delta != 0 && (event.Delta > 0) != m.sw.IsOn() {
			m.sw.Tap()
		}
	}
	m.dirty = true
	return nil
}

func (m *Module) tap() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sw == nil {
		return
	}
	m.sw.Tap()
	m.dirty = true
}

type trackPoint struct{ x, y float32 }

func (m *Module) toTrack(p image.Point) trackPoint {
	return trackPoint{
		x: float32(p.X - m.track.Min.X),
		y: float32(p.Y - m.track.Min.Y),
	}
}
