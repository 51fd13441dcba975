package toggle

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/lucasb-eyer/go-colorful"
)

// squareRadius is the corner radius of the non-rounded look.
const squareRadius = 2

// Frame is everything needed to paint one frame of a switch. All positions
// are in the switch's coordinate space.
type Frame struct {
	// Fraction is the knob position: 0 is fully Off, 1 fully On.
	Fraction float32
	// Pressed is how far the press animation has progressed, 0 to 1.
	Pressed float32

	Width  float32
	Height float32

	KnobOffset float32
	KnobTop    float32
	KnobWidth  float32
	KnobHeight float32

	TrackRadius float32
	KnobRadius  float32

	TrackColor  color.NRGBA
	BorderColor color.NRGBA
	KnobColor   color.NRGBA
	ShadowColor color.NRGBA

	// ImageBlend is the opacity of OnImage; OffImage gets 1-ImageBlend.
	ImageBlend float32
	// LabelBlend is the opacity of OnLabel; OffLabel gets 1-LabelBlend.
	LabelBlend float32

	ThumbImage image.Image
	OnImage    image.Image
	OffImage   image.Image
	OnLabel    string
	OffLabel   string
}

// Render computes the frame for a knob fraction and press amount. Every
// property is a pure function of its inputs, so a drag and a settle
// animation passing through the same fraction look identical.
func Render(g Geometry, s Style, fraction, pressed float32) Frame {
	s = s.resolved()
	if !g.Valid() {
		fraction = 0
	}
	f := clamp01(fraction)
	p := clamp01(pressed)

	knobH := g.KnobDiameter()
	knobW := math32.Min(knobH+KnobGrowth*p, math32.Max(0, g.Width-2*g.Inset))
	room := math32.Max(0, g.Width-2*g.Inset-knobW)

	fr := Frame{
		Fraction:   f,
		Pressed:    p,
		Width:      g.Width,
		Height:     g.Height,
		KnobOffset: g.Inset + f*room,
		KnobTop:    g.Inset,
		KnobWidth:  knobW,
		KnobHeight: knobH,
		ImageBlend: f,
		LabelBlend: f,
		ThumbImage: s.ThumbImage,
		OnImage:    s.OnImage,
		OffImage:   s.OffImage,
		OnLabel:    s.OnLabel,
		OffLabel:   s.OffLabel,
	}

	if s.Rounded() {
		fr.TrackRadius = g.Height / 2
		fr.KnobRadius = knobH / 2
	} else {
		fr.TrackRadius = squareRadius
		fr.KnobRadius = squareRadius
	}

	base := Blend(s.InactiveColor, s.ActiveColor, p)
	fr.TrackColor = Blend(base, s.OnTintColor, f)
	fr.BorderColor = Blend(s.BorderColor, s.OnTintColor, f)
	fr.KnobColor = Blend(s.ThumbTintColor, s.OnThumbTintColor, f)
	fr.ShadowColor = color.NRGBAModel.Convert(s.ShadowColor).(color.NRGBA)
	return fr
}

// Blend interpolates between two colors. Hue is blended in sRGB and alpha
// linearly; a fully transparent end takes the hue of the other end so fading
// in from clear does not pass through black.
func Blend(a, b color.Color, t float32) color.NRGBA {
	t = clamp01(t)
	ca, okA := colorful.MakeColor(a)
	cb, okB := colorful.MakeColor(b)
	switch {
	case !okA && !okB:
		return color.NRGBA{}
	case !okA:
		ca = cb
	case !okB:
		cb = ca
	}

	_, _, _, aa := a.RGBA()
	_, _, _, ab := b.RGBA()
	alpha := lerp(float32(aa)/0xffff, float32(ab)/0xffff, t)

	r, g, bl := ca.BlendRgb(cb, float64(t)).Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: bl, A: uint8(alpha*255 + 0.5)}
}
