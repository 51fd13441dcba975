package light

import (
	"image"
	"image/draw"

	"github.com/phinze/toggledeck/internal/module"
	"github.com/phinze/toggledeck/internal/paint"
	"github.com/phinze/toggledeck/internal/toggle"
)

// RenderStrip draws the slot: the switch name above the switch.
func (m *Module) RenderStrip() image.Image {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sw == nil {
		return nil
	}

	slot := m.Resources().StripRect
	img := image.NewRGBA(image.Rect(0, 0, slot.Dx(), slot.Dy()))
	fillBackground(img)
	m.painter.Title(img, image.Rect(0, 0, slot.Dx(), titleBand), m.cfg.Name, titleSize, m.dim())
	m.painter.Paint(img, m.track.Min, m.sw.Frame())
	return img
}

// RenderKeys draws the mirror key, if one is configured.
func (m *Module) RenderKeys() map[module.KeyID]image.Image {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sw == nil || m.cfg.Key == 0 {
		return nil
	}

	cur := m.sw.Frame()
	st := m.sw.Style()
	st.ThumbImage, st.OnImage, st.OffImage = m.keyImages.thumb, m.keyImages.on, m.keyImages.off
	fr := toggle.Render(toggle.NewGeometry(keyTrackWidth, keyTrackHeight), st, cur.Fraction, cur.Pressed)

	return map[module.KeyID]image.Image{
		module.KeyID(m.cfg.Key): m.painter.Key(keySize, m.cfg.Name, m.dim(), fr),
	}
}

// dim reports whether the entity's state is unconfirmed.
func (m *Module) dim() bool {
	return m.remote != nil && m.cfg.Entity != "" && !m.synced
}

func fillBackground(img *image.RGBA) {
	draw.Draw(img, img.Bounds(), image.NewUniform(paint.ColorBackground), image.Point{}, draw.Src)
}
