package paint

import (
	"image"
	"image/color"

	"github.com/phinze/toggledeck/internal/toggle"
	"golang.org/x/image/draw"
)

// keyTitleBand is the height reserved for the title on key images.
const keyTitleBand = 24

// Title draws title centered in r in bold at the given size. A dim title
// marks a switch whose state is not known to be current.
func (p *Painter) Title(dst draw.Image, r image.Rectangle, title string, size float64, dim bool) {
	if title == "" || r.Empty() {
		return
	}
	face, err := p.Face(size, true)
	if err != nil {
		return
	}
	var col color.Color = ColorTitle
	if dim {
		col = ColorDim
	}
	p.drawCentered(dst, r, title, face, col)
}

// Key draws a size x size key image mirroring a switch: the title across
// the top and fr centered below it.
func (p *Painter) Key(size int, title string, dim bool, fr toggle.Frame) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(ColorKeyBg), image.Point{}, draw.Src)

	p.Title(img, image.Rect(0, 2, size, keyTitleBand), title, 12, dim)

	body := image.Rect(0, keyTitleBand, size, size)
	at := image.Pt(
		body.Min.X+(body.Dx()-int(fr.Width))/2,
		body.Min.Y+(body.Dy()-int(fr.Height))/2,
	)
	p.Paint(img, at, fr)
	return img
}
