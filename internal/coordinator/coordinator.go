// Package coordinator manages module lifecycle and routes events to modules.
package coordinator

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"sync"
	"time"

	"github.com/phinze/toggledeck/internal/device"
	"github.com/phinze/toggledeck/internal/module"
)

const (
	// DefaultFrameInterval paces animation frames when no option is given.
	DefaultFrameInterval = time.Second / 30

	// refreshInterval is how often everything is redrawn regardless of events.
	refreshInterval = 500 * time.Millisecond
)

// Coordinator manages the lifecycle of modules and routes events to them.
type Coordinator struct {
	device  device.Device
	modules []module.Module

	// Resource tracking
	moduleResources map[module.Module]module.Resources

	// Ownership maps for event routing
	keyOwners  map[module.KeyID]module.Module
	dialOwners map[module.DialID]module.Module

	// Track modules that failed to initialize
	failedModules map[module.Module]bool

	// Strip compositing
	stripRect image.Rectangle

	// captured receives every pointer event from TouchPress until the
	// matching TouchRelease or TouchCancel.
	captured module.Module

	frameInterval time.Duration
	renderCh      chan struct{}
	now           func() time.Time

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// State tracking
	mu sync.Mutex
	// renderMu serializes writes to the device.
	renderMu sync.Mutex
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithFrameInterval sets the pace of the animation frame loop.
func WithFrameInterval(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.frameInterval = d
		}
	}
}

// New creates a new Coordinator for the given device.
func New(dev device.Device, opts ...Option) *Coordinator {
	c := &Coordinator{
		device:          dev,
		moduleResources: make(map[module.Module]module.Resources),
		keyOwners:       make(map[module.KeyID]module.Module),
		dialOwners:      make(map[module.DialID]module.Module),
		failedModules:   make(map[module.Module]bool),
		frameInterval:   DefaultFrameInterval,
		renderCh:        make(chan struct{}, 1),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RegisterModule registers a module with its allocated resources.
// Must be called before Start.
func (c *Coordinator) RegisterModule(m module.Module, res module.Resources) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.moduleResources[m] = res
	for _, key := range res.Keys {
		c.keyOwners[key] = m
	}
	for _, dial := range res.Dials {
		c.dialOwners[dial] = m
	}
	c.modules = append(c.modules, m)
	return nil
}

// Start initializes all modules and begins the event/render loop. It blocks
// until ctx is done or the device stops listening.
func (c *Coordinator) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)

	if c.device.GetTouchStripSupported() {
		rect, err := c.device.GetTouchStripImageRectangle()
		if err == nil {
			c.stripRect = rect
		}
	}

	// Initialize all modules (continue on error, just skip failed modules)
	for _, m := range c.modules {
		if err := m.Init(c.ctx, c.resourcesForModule(m)); err != nil {
			slog.Warn("Module failed to initialize, skipping", "module", m.ID(), "err", err)
			c.failedModules[m] = true
		}
	}

	c.setupEventHandlers()

	listenErr := make(chan error, 1)
	go func() {
		err := c.device.Listen(nil) // errors logged to stderr
		if err != nil {
			listenErr <- err
		}
		close(listenErr)
	}()

	c.wg.Add(1)
	go c.renderLoop()

	select {
	case <-c.ctx.Done():
		return nil
	case err := <-listenErr:
		return err
	}
}

// Stop cancels any touch in progress and shuts down all modules.
func (c *Coordinator) Stop() error {
	c.mu.Lock()
	captured := c.captured
	c.captured = nil
	c.mu.Unlock()
	if captured != nil {
		if err := captured.HandleStripTouch(module.TouchStripEvent{Type: module.TouchCancel}); err != nil {
			slog.Warn("Cancelling touch", "module", captured.ID(), "err", err)
		}
	}

	if c.cancel != nil {
		c.cancel()
	}

	for _, m := range c.modules {
		if err := m.Stop(); err != nil {
			slog.Warn("Module stop failed", "module", m.ID(), "err", err)
		}
	}

	c.wg.Wait()
	return nil
}

// RequestRender schedules a redraw on the next frame.
func (c *Coordinator) RequestRender() {
	select {
	case c.renderCh <- struct{}{}:
	default:
	}
}

func (c *Coordinator) resourcesForModule(m module.Module) module.Resources {
	return c.moduleResources[m]
}

func (c *Coordinator) live(m module.Module) bool {
	return m != nil && !c.failedModules[m]
}

// setupEventHandlers registers device event handlers that route to modules.
func (c *Coordinator) setupEventHandlers() {
	for keyID, owner := range c.keyOwners {
		if !c.live(owner) {
			continue
		}
		if err := c.device.AddKeyHandler(device.KeyID(keyID), func(d device.Device, k device.Key) error {
			if err := owner.HandleKey(keyID, module.KeyEvent{Pressed: true}); err != nil {
				return err
			}
			c.RequestRender()
			duration := k.WaitForRelease()
			defer c.RequestRender()
			return owner.HandleKey(keyID, module.KeyEvent{Pressed: false, Duration: duration})
		}); err != nil {
			slog.Warn("Registering key handler", "key", keyID, "err", err)
		}
	}

	for dialID, owner := range c.dialOwners {
		if !c.live(owner) {
			continue
		}
		if err := c.device.AddDialRotateHandler(device.DialID(dialID), func(d device.Device, di device.Dial, delta int8) error {
			defer c.RequestRender()
			return owner.HandleDial(dialID, module.DialEvent{Type: module.DialRotate, Delta: delta})
		}); err != nil {
			slog.Warn("Registering dial handler", "dial", dialID, "err", err)
		}
		if err := c.device.AddDialSwitchHandler(device.DialID(dialID), func(d device.Device, di device.Dial) error {
			if err := owner.HandleDial(dialID, module.DialEvent{Type: module.DialPress}); err != nil {
				return err
			}
			c.RequestRender()
			duration := di.WaitForRelease()
			defer c.RequestRender()
			return owner.HandleDial(dialID, module.DialEvent{Type: module.DialRelease, Duration: duration})
		}); err != nil {
			slog.Warn("Registering dial handler", "dial", dialID, "err", err)
		}
	}

	if !c.device.GetTouchStripSupported() {
		return
	}

	c.device.AddTouchStripTouchHandler(func(d device.Device, touchType device.TouchStripTouchType, point image.Point) error {
		return c.routeStripEvent(module.TouchStripEventFromDeviceTap(touchType, point))
	})
	c.device.AddTouchStripSwipeHandler(func(d device.Device, origin, dest image.Point) error {
		return c.routeStripEvent(module.TouchStripEventFromSwipe(origin, dest))
	})

	if c.device.GetTouchStripDragSupported() {
		if err := c.device.AddTouchStripDragHandler(func(d device.Device, phase device.TouchStripDragPhase, p image.Point) error {
			return c.routePointerEvent(module.TouchStripEventFromDrag(phase, p))
		}); err != nil {
			slog.Warn("Strip drags unavailable", "err", err)
		}
	}
}

// stripOwner returns the live module whose strip region contains p.
func (c *Coordinator) stripOwner(p image.Point) module.Module {
	for _, m := range c.modules {
		if c.live(m) && c.resourcesForModule(m).OwnsStripPoint(p) {
			return m
		}
	}
	return nil
}

// routeStripEvent dispatches a tap or swipe to the module under its start point.
func (c *Coordinator) routeStripEvent(event module.TouchStripEvent) error {
	owner := c.stripOwner(event.Point)
	if owner == nil {
		return nil
	}
	defer c.RequestRender()
	return owner.HandleStripTouch(event.Localize(c.resourcesForModule(owner).StripRect))
}

// routePointerEvent dispatches a continuous touch. The module under the
// press captures the touch until it ends, wherever the finger moves.
func (c *Coordinator) routePointerEvent(event module.TouchStripEvent) error {
	c.mu.Lock()
	var target module.Module
	switch event.Type {
	case module.TouchPress:
		if c.captured != nil {
			c.mu.Unlock()
			return nil
		}
		c.captured = c.stripOwner(event.Point)
		target = c.captured
	case module.TouchDrag:
		target = c.captured
	default:
		target = c.captured
		c.captured = nil
	}
	c.mu.Unlock()

	if target == nil {
		return nil
	}
	defer c.RequestRender()
	return target.HandleStripTouch(event.Localize(c.resourcesForModule(target).StripRect))
}

// renderLoop redraws on events, on animation frames and periodically.
func (c *Coordinator) renderLoop() {
	defer c.wg.Done()

	frames := time.NewTicker(c.frameInterval)
	defer frames.Stop()
	refresh := time.NewTicker(refreshInterval)
	defer refresh.Stop()

	c.render()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-refresh.C:
			c.render()
		case <-c.renderCh:
			c.render()
		case <-frames.C:
			if c.tick(c.now()) {
				c.render()
			}
		}
	}
}

// tick advances every animated module and reports whether any changed.
func (c *Coordinator) tick(now time.Time) bool {
	changed := false
	for _, m := range c.modules {
		if !c.live(m) {
			continue
		}
		if a, ok := m.(module.Animated); ok && a.Tick(now) {
			changed = true
		}
	}
	return changed
}

func (c *Coordinator) render() {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	c.renderKeys()
	c.renderStrip()
}

// renderKeys collects key images from all modules and applies them to the device.
func (c *Coordinator) renderKeys() {
	for _, m := range c.modules {
		if !c.live(m) {
			continue
		}
		for keyID, img := range m.RenderKeys() {
			if img == nil {
				continue
			}
			if err := c.device.SetKeyImage(device.KeyID(keyID), img); err != nil {
				slog.Debug("Setting key image", "key", keyID, "err", err)
			}
		}
	}
}

// renderStrip composites every module's strip image at its region.
func (c *Coordinator) renderStrip() {
	if c.stripRect.Empty() {
		return
	}

	composite := image.NewRGBA(c.stripRect)
	draw.Draw(composite, composite.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	for _, m := range c.modules {
		if !c.live(m) {
			continue
		}
		res := c.resourcesForModule(m)
		if !res.HasStrip() {
			continue
		}
		stripImg := m.RenderStrip()
		if stripImg == nil {
			continue
		}
		draw.Draw(composite, res.StripRect, stripImg, stripImg.Bounds().Min, draw.Over)
	}

	if err := c.device.SetTouchStripImage(composite); err != nil {
		slog.Debug("Setting strip image", "err", err)
	}
}

// Device returns the underlying device.
// Modules can use this to query device capabilities like key size.
func (c *Coordinator) Device() device.Device {
	return c.device
}
