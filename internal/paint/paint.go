// Package paint rasterizes switch frames onto Stream Deck images.
package paint

import (
	"fmt"
	"image"
	"image/color"

	"github.com/phinze/toggledeck/internal/toggle"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Colors used outside the switch itself.
var (
	ColorBackground = color.RGBA{25, 25, 25, 255}
	ColorKeyBg      = color.RGBA{40, 40, 40, 255}
	ColorLabel      = color.RGBA{211, 211, 211, 255}
	ColorTitle      = color.RGBA{255, 255, 255, 255}
	ColorDim        = color.RGBA{160, 160, 160, 255}
)

const (
	// Reference track height the shadow constants are tuned for.
	referenceHeight = 30
	shadowOffsetY   = 3
	shadowBlur      = 2
	shadowOpacity   = 0.5
	borderWidth     = 1

	// labelScale sizes labels relative to the track height.
	labelScale = 0.4
)

// Painter draws switch frames. Font faces are not safe for concurrent use,
// so neither is a Painter; give each renderer its own.
type Painter struct {
	regular *opentype.Font
	bold    *opentype.Font

	faces map[faceKey]font.Face

	images *imageCache
}

type faceKey struct {
	bold bool
	size float64
}

// New parses the bundled fonts and prepares the image cache.
func New() (*Painter, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	images, err := newImageCache(64)
	if err != nil {
		return nil, err
	}
	return &Painter{
		regular: regular,
		bold:    bold,
		faces:   make(map[faceKey]font.Face),
		images:  images,
	}, nil
}

// Face returns a cached font face of the given point size at 72 DPI.
func (p *Painter) Face(size float64, bold bool) (font.Face, error) {
	key := faceKey{bold: bold, size: size}
	if f, ok := p.faces[key]; ok {
		return f, nil
	}
	tt := p.regular
	if bold {
		tt = p.bold
	}
	f, err := opentype.NewFace(tt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create face: %w", err)
	}
	p.faces[key] = f
	return f, nil
}

// Paint draws fr with the track's top-left corner at at, in dst's pixel
// space relative to dst.Bounds().Min.
func (p *Painter) Paint(dst *image.RGBA, at image.Point, fr toggle.Frame) {
	b := dst.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 || fr.Width <= 0 || fr.Height <= 0 {
		return
	}
	ox := float64(at.X)
	oy := float64(at.Y)
	scale := float64(fr.Height) / referenceHeight

	scanner := rasterx.NewScannerGV(w, h, dst, b)
	filler := rasterx.NewFiller(w, h, scanner)
	stroker := rasterx.NewStroker(w, h, scanner)

	// Track.
	tw, th := float64(fr.Width), float64(fr.Height)
	tr := float64(fr.TrackRadius)
	fillRoundRect(filler, fr.TrackColor, ox, oy, ox+tw, oy+th, tr)

	half := borderWidth * scale / 2
	stroker.SetStroke(fixed.Int26_6(borderWidth*scale*64), 4<<6, rasterx.RoundCap, nil, rasterx.RoundGap, rasterx.Round)
	scanner.SetColor(fr.BorderColor)
	rasterx.AddRoundRect(ox+half, oy+half, ox+tw-half, oy+th-half, tr-half, tr-half, 0, rasterx.RoundGap, stroker)
	stroker.Draw()
	stroker.Clear()

	// Overlays fade across the part of the track the knob is not covering.
	onArea := image.Rect(at.X, at.Y, at.X+int(fr.Width-fr.Height), at.Y+int(fr.Height))
	offArea := image.Rect(at.X+int(fr.Height), at.Y, at.X+int(fr.Width), at.Y+int(fr.Height))
	p.overlayImage(dst, onArea, fr.OnImage, fr.ImageBlend)
	p.overlayImage(dst, offArea, fr.OffImage, 1-fr.ImageBlend)
	p.overlayLabel(dst, onArea, fr.OnLabel, fr.LabelBlend, fr.Height)
	p.overlayLabel(dst, offArea, fr.OffLabel, 1-fr.LabelBlend, fr.Height)

	// Shadow, then knob.
	kx := ox + float64(fr.KnobOffset)
	ky := oy + float64(fr.KnobTop)
	kw, kh := float64(fr.KnobWidth), float64(fr.KnobHeight)
	kr := float64(fr.KnobRadius)
	if kw <= 0 || kh <= 0 {
		return
	}
	sy := ky + shadowOffsetY*scale
	blur := shadowBlur * scale
	fillRoundRect(filler, rasterx.ApplyOpacity(fr.ShadowColor, shadowOpacity*0.4),
		kx-blur, sy-blur, kx+kw+blur, sy+kh+blur, kr+blur)
	fillRoundRect(filler, rasterx.ApplyOpacity(fr.ShadowColor, shadowOpacity*0.6),
		kx, sy, kx+kw, sy+kh, kr)
	fillRoundRect(filler, fr.KnobColor, kx, ky, kx+kw, ky+kh, kr)

	if fr.ThumbImage != nil {
		ib := fr.ThumbImage.Bounds()
		cx := int(kx + kw/2)
		cy := int(ky + kh/2)
		r := image.Rect(cx-ib.Dx()/2, cy-ib.Dy()/2, cx-ib.Dx()/2+ib.Dx(), cy-ib.Dy()/2+ib.Dy())
		draw.Draw(dst, r.Add(b.Min), fr.ThumbImage, ib.Min, draw.Over)
	}
}

func fillRoundRect(f *rasterx.Filler, c color.Color, minX, minY, maxX, maxY, r float64) {
	f.SetColor(c)
	rasterx.AddRoundRect(minX, minY, maxX, maxY, r, r, 0, rasterx.RoundGap, f)
	f.Draw()
	f.Clear()
}

// overlayImage draws img centered in area at the given opacity.
func (p *Painter) overlayImage(dst *image.RGBA, area image.Rectangle, img image.Image, alpha float32) {
	if img == nil || alpha <= 0 || area.Empty() {
		return
	}
	ib := img.Bounds()
	c := area.Min.Add(area.Size().Div(2))
	r := image.Rect(c.X-ib.Dx()/2, c.Y-ib.Dy()/2, c.X-ib.Dx()/2+ib.Dx(), c.Y-ib.Dy()/2+ib.Dy())
	mask := &image.Uniform{color.Alpha{A: uint8(alpha*255 + 0.5)}}
	draw.DrawMask(dst, r.Add(dst.Bounds().Min), img, ib.Min, mask, image.Point{}, draw.Over)
}

// overlayLabel draws text centered in area at the given opacity.
func (p *Painter) overlayLabel(dst *image.RGBA, area image.Rectangle, text string, alpha, height float32) {
	if text == "" || alpha <= 0 || area.Empty() {
		return
	}
	face, err := p.Face(float64(height*labelScale), false)
	if err != nil {
		return
	}
	col := rasterx.ApplyOpacity(ColorLabel, float64(alpha))
	p.drawCentered(dst, area.Add(dst.Bounds().Min), text, face, col)
}

// drawCentered draws text centered horizontally and vertically in r.
func (p *Painter) drawCentered(dst draw.Image, r image.Rectangle, text string, face font.Face, col color.Color) {
	width := font.MeasureString(face, text).Ceil()
	m := face.Metrics()
	x := r.Min.X + (r.Dx()-width)/2
	y := r.Min.Y + (r.Dy()+m.Ascent.Ceil()-m.Descent.Ceil())/2
	DrawText(dst, text, x, y, face, col)
}

// DrawText draws text with its baseline starting at (x, y).
func DrawText(dst draw.Image, text string, x, y int, face font.Face, col color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
