package emulator

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/phinze/toggledeck/internal/device"
	"github.com/phinze/toggledeck/internal/device/touch"
)

// Window layout: keys at 2x, strip at native resolution, dials below.
const (
	keyDisplaySize = 144
	keyRows        = 2
	dialSize       = 120
	marginX        = 20
	marginY        = 20
	headerHeight   = 30
	stripMarginY   = 72
	dialMarginY    = 50
	bottomMarginY  = 50

	keyAreaWidth  = keysPerRow * keyDisplaySize
	keySpacing    = (stripWidth - keyAreaWidth) / (keysPerRow + 1)
	keyAreaHeight = keyRows*keyDisplaySize + (keyRows-1)*keySpacing
	dialSpacing   = (stripWidth - dialCount*dialSize) / (dialCount + 1)
	windowWidth   = 2*marginX + stripWidth
	windowHeight  = headerHeight + marginY + keyAreaHeight + stripMarginY + stripHeight + dialMarginY + dialSize + bottomMarginY

	keysTop  = headerHeight + marginY
	stripTop = keysTop + keyAreaHeight + stripMarginY
	dialsTop = stripTop + stripHeight + dialMarginY
)

var (
	colorWindow = color.RGBA{30, 30, 30, 255}
	colorBezel  = color.RGBA{60, 60, 60, 255}
	colorDialA  = color.RGBA{80, 80, 80, 255}
	colorDialB  = color.RGBA{50, 50, 50, 255}
	colorDialC  = color.RGBA{70, 70, 70, 255}
)

func keyRect(i int) image.Rectangle {
	x := marginX + keySpacing + (i%keysPerRow)*(keyDisplaySize+keySpacing)
	y := keysTop + (i/keysPerRow)*(keyDisplaySize+keySpacing)
	return image.Rect(x, y, x+keyDisplaySize, y+keyDisplaySize)
}

func stripRect() image.Rectangle {
	return image.Rect(marginX, stripTop, marginX+stripWidth, stripTop+stripHeight)
}

func dialCenter(i int) image.Point {
	x := marginX + dialSpacing + i*(dialSize+dialSpacing)
	return image.Pt(x+dialSize/2, dialsTop+dialSize/2)
}

func onDial(i int, p image.Point) bool {
	d := p.Sub(dialCenter(i))
	r := dialSize / 2
	return d.X*d.X+d.Y*d.Y <= r*r
}

// emulatorGame implements ebiten.Game for the emulator.
type emulatorGame struct {
	emu   *Emulator
	strip *touch.Tracker

	// GPU copies of the device images, refreshed when marked dirty.
	keys      [keyCount]*ebiten.Image
	stripView *ebiten.Image
}

func newGame(e *Emulator) *emulatorGame {
	return &emulatorGame{
		emu:   e,
		strip: touch.NewTracker(emulatorSink{e}, image.Rect(0, 0, stripWidth, stripHeight)),
	}
}

// emulatorSink forwards recognized strip gestures to the registered handlers.
type emulatorSink struct{ e *Emulator }

func (s emulatorSink) Drag(phase device.TouchStripDragPhase, p image.Point) {
	s.e.queueDrag(phase, p)
}

func (s emulatorSink) Tap(t device.TouchStripTouchType, p image.Point) {
	s.e.touchStrip(t, p)
}

func (s emulatorSink) Swipe(origin, destination image.Point) {
	s.e.swipeStrip(origin, destination)
}

func (g *emulatorGame) Update() error {
	select {
	case <-g.emu.stopCh:
		g.strip.Cancel()
		return ebiten.Termination
	default:
	}

	g.handleInput(time.Now())
	return nil
}

func (g *emulatorGame) handleInput(now time.Time) {
	mx, my := ebiten.CursorPosition()
	cursor := image.Pt(mx, my)
	strip := stripRect()
	local := cursor.Sub(strip.Min)

	if !ebiten.IsFocused() {
		g.strip.Cancel()
		return
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		switch {
		case cursor.In(strip):
			g.strip.Press(local, now, g.emu.hasDragHandlers())
		default:
			for i := 0; i < keyCount; i++ {
				if cursor.In(keyRect(i)) {
					g.emu.pressKey(device.KeyID(i + 1))
					return
				}
			}
			for i := 0; i < dialCount; i++ {
				if onDial(i, cursor) {
					g.emu.pressDial(device.DialID(i + 1))
					return
				}
			}
		}
	}

	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		g.strip.Move(local)
	} else {
		g.strip.Release(local, now)
	}

	if _, wheelY := ebiten.Wheel(); wheelY != 0 {
		for i := 0; i < dialCount; i++ {
			if onDial(i, cursor) {
				delta := int8(max(min(wheelY, 5), -5))
				g.emu.rotateDial(device.DialID(i+1), delta)
				break
			}
		}
	}
}

// sync uploads device images that changed since the last frame.
func (g *emulatorGame) sync() {
	g.emu.mu.Lock()
	defer g.emu.mu.Unlock()

	for i := range g.keys {
		if g.keys[i] == nil || g.emu.keysDirty[i] {
			g.keys[i] = ebiten.NewImageFromImage(upscale(g.emu.keyImages[i], keyDisplaySize))
			g.emu.keysDirty[i] = false
		}
	}
	if g.stripView == nil || g.emu.stripDirty {
		g.stripView = ebiten.NewImageFromImage(g.emu.stripImage)
		g.emu.stripDirty = false
	}
}

func (g *emulatorGame) Draw(screen *ebiten.Image) {
	g.sync()
	screen.Fill(colorWindow)

	g.emu.mu.RLock()
	level := float32(g.emu.brightness) / 100
	g.emu.mu.RUnlock()

	ebitenutil.DebugPrintAt(screen, "toggledeck emulator", windowWidth/2-60, 8)

	drawAt := func(img *ebiten.Image, at image.Point) {
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(float64(at.X), float64(at.Y))
		op.ColorScale.Scale(level, level, level, 1)
		screen.DrawImage(img, op)
	}

	for i, img := range g.keys {
		r := keyRect(i)
		fillRect(screen, r.Inset(-2), colorBezel)
		drawAt(img, r.Min)
	}

	strip := stripRect()
	fillRect(screen, strip.Inset(-2), colorBezel)
	drawAt(g.stripView, strip.Min)

	for i := 0; i < dialCount; i++ {
		c := dialCenter(i)
		r := float32(dialSize / 2)
		cx, cy := float32(c.X), float32(c.Y)
		vector.FillCircle(screen, cx, cy, r, colorDialA, true)
		vector.FillCircle(screen, cx, cy, r-8, colorDialB, true)
		vector.FillCircle(screen, cx, cy, r-12, colorDialC, true)
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("D%d", i+1), c.X-8, c.Y-4)
	}

	ebitenutil.DebugPrintAt(screen, "Click keys | Click dials to press, scroll to turn | Drag switches on the strip", 10, windowHeight-18)
}

func (g *emulatorGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return windowWidth, windowHeight
}

func fillRect(screen *ebiten.Image, r image.Rectangle, c color.Color) {
	vector.FillRect(screen, float32(r.Min.X), float32(r.Min.Y), float32(r.Dx()), float32(r.Dy()), c, false)
}
