package module

import (
	"context"
	"image"
)

// BaseModule provides default no-op implementations of the Module interface.
// Embed this in module implementations to only override the methods needed.
// BaseModule does not implement Animated; modules that animate add Tick.
type BaseModule struct {
	id        string
	resources Resources
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewBaseModule creates a BaseModule with the given ID.
func NewBaseModule(id string) BaseModule {
	return BaseModule{id: id}
}

// ID returns the module's identifier.
func (b *BaseModule) ID() string {
	return b.id
}

// Init stores the context and resources for the module.
// Override this to perform module-specific initialization, but call the base
// implementation to ensure resources and context are properly stored.
func (b *BaseModule) Init(ctx context.Context, resources Resources) error {
	b.ctx, b.cancel = context.WithCancel(ctx)
	b.resources = resources
	return nil
}

// Stop cancels the module's context.
// Override this to perform module-specific cleanup, but call the base
// implementation to ensure the context is cancelled.
func (b *BaseModule) Stop() error {
	if b.cancel != nil {
		b.cancel()
	}
	return nil
}

// RenderKeys returns nil by default (no key updates).
func (b *BaseModule) RenderKeys() map[KeyID]image.Image {
	return nil
}

// RenderStrip returns nil by default (no strip updates). Images are sized
// like the module's StripRect with their origin at (0, 0).
func (b *BaseModule) RenderStrip() image.Image {
	return nil
}

// HandleKey is a no-op by default.
func (b *BaseModule) HandleKey(id KeyID, event KeyEvent) error {
	return nil
}

// HandleDial is a no-op by default.
func (b *BaseModule) HandleDial(id DialID, event DialEvent) error {
	return nil
}

// HandleStripTouch is a no-op by default. Modules that track a finger
// handle the pointer phases (TouchPress through TouchCancel) as well as
// taps and swipes; a module that captured a press always sees its release
// or cancel.
func (b *BaseModule) HandleStripTouch(event TouchStripEvent) error {
	return nil
}

// Resources returns the allocated resources for this module.
func (b *BaseModule) Resources() Resources {
	return b.resources
}

// Context returns the module's context, cancelled by Stop. Before Init it is
// a background context so a module's remote calls never see nil.
func (b *BaseModule) Context() context.Context {
	if b.ctx == nil {
		return context.Background()
	}
	return b.ctx
}
