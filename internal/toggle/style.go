package toggle

import (
	"image"
	"image/color"
)

// Default colors of a switch.
var (
	DefaultInactiveColor color.Color = color.Transparent
	DefaultActiveColor   color.Color = color.NRGBA{227, 227, 227, 255}
	DefaultOnTintColor   color.Color = color.NRGBA{76, 217, 100, 255}
	DefaultBorderColor   color.Color = color.NRGBA{199, 199, 204, 255}
	DefaultThumbColor    color.Color = color.White
	DefaultShadowColor   color.Color = color.Gray{128}
)

// Style holds the visual configuration of a switch. Zero-valued colors fall
// back to the defaults, so a Style{} renders like the stock control. Changes
// take effect on the next rendered frame.
type Style struct {
	// InactiveColor fills the track while Off and untouched.
	InactiveColor color.Color
	// ActiveColor fills the track while Off and pressed.
	ActiveColor color.Color
	// OnTintColor fills the track and border while On.
	OnTintColor color.Color
	// BorderColor outlines the track while Off.
	BorderColor color.Color
	// ThumbTintColor fills the knob while Off.
	ThumbTintColor color.Color
	// OnThumbTintColor fills the knob while On. Nil follows ThumbTintColor.
	OnThumbTintColor color.Color
	// ShadowColor is the knob's drop shadow.
	ShadowColor color.Color

	// Square selects the square-cornered look instead of the rounded one.
	Square bool

	// ThumbImage is drawn centered on the knob and never fades.
	ThumbImage image.Image
	// OnImage and OffImage fade into the track opposite the knob.
	OnImage  image.Image
	OffImage image.Image

	// OnLabel and OffLabel fade like the images.
	OnLabel  string
	OffLabel string
}

// DefaultStyle returns the stock look with every color spelled out.
func DefaultStyle() Style {
	return Style{}.resolved()
}

// Rounded reports whether the track and knob use fully rounded corners.
func (s Style) Rounded() bool {
	return !s.Square
}

// resolved fills unset colors with their defaults.
func (s Style) resolved() Style {
	if s.InactiveColor == nil {
		s.InactiveColor = DefaultInactiveColor
	}
	if s.ActiveColor == nil {
		s.ActiveColor = DefaultActiveColor
	}
	if s.OnTintColor == nil {
		s.OnTintColor = DefaultOnTintColor
	}
	if s.BorderColor == nil {
		s.BorderColor = DefaultBorderColor
	}
	if s.ThumbTintColor == nil {
		s.ThumbTintColor = DefaultThumbColor
	}
	if s.OnThumbTintColor == nil {
		s.OnThumbTintColor = s.ThumbTintColor
	}
	if s.ShadowColor == nil {
		s.ShadowColor = DefaultShadowColor
	}
	return s
}
