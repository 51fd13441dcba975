// Package emulator provides a GUI-based Stream Deck Plus emulator.
//
// Unlike the hardware, the emulator reports strip touches continuously: a
// mouse drag on the strip arrives as DragBegin, DragMove... and DragEnd, so
// switches can be dragged by their knob.
package emulator

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/nfnt/resize"
	"github.com/phinze/toggledeck/internal/device"
	"github.com/phinze/toggledeck/internal/device/touch"
)

// Stream Deck Plus geometry
const (
	keySize     = 72
	keyCount    = 8
	keysPerRow  = 4
	dialCount   = 4
	stripWidth  = 800
	stripHeight = 100
)

// Emulator implements the device.Device interface using Ebitengine for GUI rendering.
type Emulator struct {
	mu sync.RWMutex

	open       bool
	brightness byte
	keyImages  [keyCount]*image.RGBA
	stripImage *image.RGBA
	// dirty marks images that must be re-uploaded to the GPU.
	keysDirty  [keyCount]bool
	stripDirty bool

	keyHandlers        [keyCount][]device.KeyHandler
	dialRotateHandlers [dialCount][]device.DialRotateHandler
	dialSwitchHandlers [dialCount][]device.DialSwitchHandler
	stripTouchHandlers []device.TouchStripTouchHandler
	stripSwipeHandlers []device.TouchStripSwipeHandler
	stripDragHandlers  []device.TouchStripDragHandler

	// drags carries strip phases from the game loop to a single dispatcher
	// so handlers observe them in order.
	drags *touch.Queue

	game       *emulatorGame
	stopCh     chan struct{}
	errorCh    chan error
	listenDone chan struct{}
}

// New creates a new emulator instance.
func New() *Emulator {
	e := &Emulator{
		brightness: 80,
		stopCh:     make(chan struct{}),
		stripImage: image.NewRGBA(image.Rect(0, 0, stripWidth, stripHeight)),
		stripDirty: true,
	}
	for i := range e.keyImages {
		e.keyImages[i] = image.NewRGBA(image.Rect(0, 0, keySize, keySize))
		e.keysDirty[i] = true
	}
	return e
}

// Open initializes the emulator and starts the strip event dispatcher.
func (e *Emulator) Open() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.open {
		return fmt.Errorf("emulator: device is already open")
	}

	e.open = true
	e.stopCh = make(chan struct{})
	e.drags = touch.NewQueue(256)
	go e.dispatchDrags(e.drags.Events(), e.stopCh)
	return nil
}

// Close shuts down the emulator.
func (e *Emulator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.open {
		return fmt.Errorf("emulator: device is not open")
	}

	e.open = false
	close(e.stopCh)
	return nil
}

// IsOpen returns whether the emulator is open.
func (e *Emulator) IsOpen() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.open
}

// GetModelName returns the emulated model name.
func (e *Emulator) GetModelName() string {
	return "Stream Deck Plus (Emulator)"
}

// GetKeyCount returns the number of keys.
func (e *Emulator) GetKeyCount() byte {
	return keyCount
}

// GetDialCount returns the number of dials.
func (e *Emulator) GetDialCount() byte {
	return dialCount
}

// GetTouchStripSupported returns true as the emulated device supports touch strip.
func (e *Emulator) GetTouchStripSupported() bool {
	return true
}

// GetTouchStripDragSupported returns true: mouse drags are reported phase by phase.
func (e *Emulator) GetTouchStripDragSupported() bool {
	return true
}

// GetKeyImageRectangle returns the key image dimensions.
func (e *Emulator) GetKeyImageRectangle() (image.Rectangle, error) {
	return image.Rect(0, 0, keySize, keySize), nil
}

// GetTouchStripImageRectangle returns the touch strip dimensions.
func (e *Emulator) GetTouchStripImageRectangle() (image.Rectangle, error) {
	return image.Rect(0, 0, stripWidth, stripHeight), nil
}

// SetBrightness sets the display brightness.
func (e *Emulator) SetBrightness(perc byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.brightness = perc
	return nil
}

func keyIndex(key device.KeyID) (int, error) {
	idx := int(key) - 1
	if idx < 0 || idx >= keyCount {
		return 0, fmt.Errorf("emulator: invalid key ID: %d", key)
	}
	return idx, nil
}

func dialIndex(dial device.DialID) (int, error) {
	idx := int(dial) - 1
	if idx < 0 || idx >= dialCount {
		return 0, fmt.Errorf("emulator: invalid dial ID: %d", dial)
	}
	return idx, nil
}

// SetKeyImage sets the image for a key.
func (e *Emulator) SetKeyImage(key device.KeyID, img image.Image) error {
	idx, err := keyIndex(key)
	if err != nil {
		return err
	}

	rgba := image.NewRGBA(image.Rect(0, 0, keySize, keySize))
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.keyImages[idx] = rgba
	e.keysDirty[idx] = true
	return nil
}

// SetTouchStripImage sets the touch strip image.
func (e *Emulator) SetTouchStripImage(img image.Image) error {
	rgba := image.NewRGBA(image.Rect(0, 0, stripWidth, stripHeight))
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.stripImage = rgba
	e.stripDirty = true
	return nil
}

// ClearKey clears a key's image to black.
func (e *Emulator) ClearKey(key device.KeyID) error {
	return e.SetKeyImage(key, image.NewUniform(color.Black))
}

// ForEachKey calls the callback for each key.
func (e *Emulator) ForEachKey(cb func(device.KeyID) error) error {
	for i := device.KEY_1; i <= device.KEY_8; i++ {
		if err := cb(i); err != nil {
			return err
		}
	}
	return nil
}

// ForEachDial calls the callback for each dial.
func (e *Emulator) ForEachDial(cb func(device.DialID) error) error {
	for i := device.DIAL_1; i <= device.DIAL_4; i++ {
		if err := cb(i); err != nil {
			return err
		}
	}
	return nil
}

// AddKeyHandler registers a key press handler.
func (e *Emulator) AddKeyHandler(key device.KeyID, fn device.KeyHandler) error {
	idx, err := keyIndex(key)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.keyHandlers[idx] = append(e.keyHandlers[idx], fn)
	return nil
}

// AddDialRotateHandler registers a dial rotation handler.
func (e *Emulator) AddDialRotateHandler(dial device.DialID, fn device.DialRotateHandler) error {
	idx, err := dialIndex(dial)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dialRotateHandlers[idx] = append(e.dialRotateHandlers[idx], fn)
	return nil
}

// AddDialSwitchHandler registers a dial press handler.
func (e *Emulator) AddDialSwitchHandler(dial device.DialID, fn device.DialSwitchHandler) error {
	idx, err := dialIndex(dial)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dialSwitchHandlers[idx] = append(e.dialSwitchHandlers[idx], fn)
	return nil
}

// AddTouchStripTouchHandler registers a touch strip touch handler.
func (e *Emulator) AddTouchStripTouchHandler(fn device.TouchStripTouchHandler) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stripTouchHandlers = append(e.stripTouchHandlers, fn)
	return nil
}

// AddTouchStripSwipeHandler registers a touch strip swipe handler.
func (e *Emulator) AddTouchStripSwipeHandler(fn device.TouchStripSwipeHandler) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stripSwipeHandlers = append(e.stripSwipeHandlers, fn)
	return nil
}

// AddTouchStripDragHandler registers a handler for every strip drag phase.
// Once one is registered, strip touches are no longer also reported as
// taps and swipes.
func (e *Emulator) AddTouchStripDragHandler(fn device.TouchStripDragHandler) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stripDragHandlers = append(e.stripDragHandlers, fn)
	return nil
}

// Listen blocks until the emulator is closed.
// For the emulator, the actual event loop runs via RunGUI() which must be called from main.
func (e *Emulator) Listen(errCh chan error) error {
	e.mu.Lock()
	if !e.open {
		e.mu.Unlock()
		return fmt.Errorf("emulator: device is not open")
	}
	e.errorCh = errCh
	if e.listenDone == nil {
		e.listenDone = make(chan struct{})
	}
	done := e.listenDone
	e.mu.Unlock()

	<-done
	return nil
}

// RunGUI starts the Ebitengine GUI loop. This MUST be called from the main goroutine
// on macOS due to Cocoa threading requirements. This method blocks until the window is closed.
func (e *Emulator) RunGUI() error {
	e.mu.Lock()
	if !e.open {
		e.mu.Unlock()
		return fmt.Errorf("emulator: device is not open")
	}
	if e.listenDone == nil {
		e.listenDone = make(chan struct{})
	}
	e.game = newGame(e)
	e.mu.Unlock()

	ebiten.SetWindowSize(windowWidth, windowHeight)
	ebiten.SetWindowTitle("toggledeck emulator")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeDisabled)

	err := ebiten.RunGame(e.game)

	close(e.listenDone)
	return err
}

func (e *Emulator) report(err error) {
	if err == nil {
		return
	}
	e.mu.RLock()
	errCh := e.errorCh
	e.mu.RUnlock()
	if errCh == nil {
		slog.Warn("Emulator handler error", "err", err)
		return
	}
	select {
	case errCh <- err:
	default:
	}
}

// queueDrag hands a phase to the dispatcher. Only moves are dropped when the
// dispatcher falls behind.
func (e *Emulator) queueDrag(phase device.TouchStripDragPhase, p image.Point) {
	e.mu.RLock()
	q, stop := e.drags, e.stopCh
	e.mu.RUnlock()
	if q == nil {
		return
	}
	if !q.Push(touch.DragEvent{Phase: phase, Point: p}, stop) {
		slog.Debug("Emulator dropped strip event", "phase", phase)
	}
}

func (e *Emulator) dispatchDrags(ch <-chan touch.DragEvent, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case ev := <-ch:
			e.mu.RLock()
			handlers := e.stripDragHandlers
			e.mu.RUnlock()
			for _, h := range handlers {
				e.report(h(e, ev.Phase, ev.Point))
			}
		}
	}
}

func (e *Emulator) hasDragHandlers() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.stripDragHandlers) > 0
}

func (e *Emulator) pressKey(keyID device.KeyID) {
	e.mu.RLock()
	handlers := e.keyHandlers[int(keyID)-1]
	e.mu.RUnlock()

	for _, handler := range handlers {
		key := &emulatorKey{id: keyID, releaseCh: make(chan struct{})}
		go func() { e.report(handler(e, key)) }()
		// A click is a press immediately followed by a release.
		time.AfterFunc(50*time.Millisecond, key.release)
	}
}

func (e *Emulator) pressDial(dialID device.DialID) {
	e.mu.RLock()
	handlers := e.dialSwitchHandlers[int(dialID)-1]
	e.mu.RUnlock()

	for _, handler := range handlers {
		dial := &emulatorDial{id: dialID, releaseCh: make(chan struct{})}
		go func() { e.report(handler(e, dial)) }()
		time.AfterFunc(50*time.Millisecond, dial.release)
	}
}

func (e *Emulator) rotateDial(dialID device.DialID, delta int8) {
	e.mu.RLock()
	handlers := e.dialRotateHandlers[int(dialID)-1]
	e.mu.RUnlock()

	for _, handler := range handlers {
		dial := &emulatorDial{id: dialID, releaseCh: make(chan struct{})}
		go func() { e.report(handler(e, dial, delta)) }()
	}
}

func (e *Emulator) touchStrip(touchType device.TouchStripTouchType, point image.Point) {
	e.mu.RLock()
	handlers := e.stripTouchHandlers
	e.mu.RUnlock()

	for _, handler := range handlers {
		go func() { e.report(handler(e, touchType, point)) }()
	}
}

func (e *Emulator) swipeStrip(origin, destination image.Point) {
	e.mu.RLock()
	handlers := e.stripSwipeHandlers
	e.mu.RUnlock()

	for _, handler := range handlers {
		go func() { e.report(handler(e, origin, destination)) }()
	}
}

// emulatorKey implements device.Key for the emulator.
type emulatorKey struct {
	id          device.KeyID
	releaseCh   chan struct{}
	releaseOnce sync.Once
}

func (k *emulatorKey) GetID() device.KeyID {
	return k.id
}

func (k *emulatorKey) WaitForRelease() time.Duration {
	start := time.Now()
	<-k.releaseCh
	return time.Since(start)
}

func (k *emulatorKey) release() {
	k.releaseOnce.Do(func() { close(k.releaseCh) })
}

// emulatorDial implements device.Dial for the emulator.
type emulatorDial struct {
	id          device.DialID
	releaseCh   chan struct{}
	releaseOnce sync.Once
}

func (d *emulatorDial) GetID() device.DialID {
	return d.id
}

func (d *emulatorDial) WaitForRelease() time.Duration {
	start := time.Now()
	<-d.releaseCh
	return time.Since(start)
}

func (d *emulatorDial) release() {
	d.releaseOnce.Do(func() { close(d.releaseCh) })
}

// upscale enlarges a key image with nearest-neighbor so pixels stay crisp.
func upscale(src image.Image, size int) image.Image {
	return resize.Resize(uint(size), uint(size), src, resize.NearestNeighbor)
}
