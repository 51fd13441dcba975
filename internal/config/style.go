package config

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/phinze/toggledeck/internal/toggle"
	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"
)

// Animation curve names.
const (
	CurveEaseInOut = "ease-in-out"
	CurveEaseOut   = "ease-out"
	CurveLinear    = "linear"
)

var curves = map[string]toggle.Curve{
	CurveEaseInOut: toggle.EaseInOut,
	CurveEaseOut:   toggle.EaseOut,
	CurveLinear:    toggle.Linear,
}

// CurveFunc returns the easing function named by the config.
func (a AnimationConfig) CurveFunc() toggle.Curve {
	if c, ok := curves[a.Curve]; ok {
		return c
	}
	return toggle.EaseInOut
}

// StyleConfig is the YAML form of a switch style. Unset colors keep the
// stock look.
type StyleConfig struct {
	InactiveColor    *Color `yaml:"inactive_color,omitempty"`
	ActiveColor      *Color `yaml:"active_color,omitempty"`
	OnTintColor      *Color `yaml:"on_tint_color,omitempty"`
	BorderColor      *Color `yaml:"border_color,omitempty"`
	ThumbTintColor   *Color `yaml:"thumb_tint_color,omitempty"`
	OnThumbTintColor *Color `yaml:"on_thumb_tint_color,omitempty"`
	ShadowColor      *Color `yaml:"shadow_color,omitempty"`

	// Older names for on_tint_color and thumb_tint_color.
	OnColor   *Color `yaml:"on_color,omitempty"`
	KnobColor *Color `yaml:"knob_color,omitempty"`

	Square bool `yaml:"square,omitempty"`

	ThumbImage string `yaml:"thumb_image,omitempty"`
	OnImage    string `yaml:"on_image,omitempty"`
	OffImage   string `yaml:"off_image,omitempty"`

	OnLabel  string `yaml:"on_label,omitempty"`
	OffLabel string `yaml:"off_label,omitempty"`
}

// Canonical folds the legacy names into their current ones. The current
// name wins when both are given.
func (s StyleConfig) Canonical() StyleConfig {
	if s.OnTintColor == nil {
		s.OnTintColor = s.OnColor
	}
	if s.ThumbTintColor == nil {
		s.ThumbTintColor = s.KnobColor
	}
	s.OnColor = nil
	s.KnobColor = nil
	return s
}

// Style converts the colors, corners and labels to a toggle.Style. Images
// are resolved by the renderer.
func (s StyleConfig) Style() toggle.Style {
	s = s.Canonical()
	return toggle.Style{
		InactiveColor:    s.InactiveColor.color(),
		ActiveColor:      s.ActiveColor.color(),
		OnTintColor:      s.OnTintColor.color(),
		BorderColor:      s.BorderColor.color(),
		ThumbTintColor:   s.ThumbTintColor.color(),
		OnThumbTintColor: s.OnThumbTintColor.color(),
		ShadowColor:      s.ShadowColor.color(),
		Square:           s.Square,
		OnLabel:          s.OnLabel,
		OffLabel:         s.OffLabel,
	}
}

// Color is a color written in YAML as "#rgb", "#rrggbb", "#rrggbbaa",
// "transparent", or an SVG color name.
type Color struct {
	color.NRGBA
}

// ParseColor parses the YAML color syntax.
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "transparent" || s == "clear":
		return Color{}, nil
	case strings.HasPrefix(s, "#") && len(s) == 9:
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("color %q: bad alpha: %w", s, err)
		}
		c, err := ParseColor(s[:7])
		if err != nil {
			return Color{}, err
		}
		c.A = uint8(a)
		return c, nil
	case strings.HasPrefix(s, "#"):
		if len(s) != 4 && len(s) != 7 {
			return Color{}, fmt.Errorf("color %q: want #rgb, #rrggbb or #rrggbbaa", s)
		}
		hex, err := colorful.Hex(s)
		if err != nil {
			return Color{}, fmt.Errorf("color %q: %w", s, err)
		}
		r, g, b := hex.RGB255()
		return Color{color.NRGBA{R: r, G: g, B: b, A: 255}}, nil
	}
	named, ok := colornames.Map[s]
	if !ok {
		return Color{}, fmt.Errorf("unknown color %q", s)
	}
	return Color{color.NRGBAModel.Convert(named).(color.NRGBA)}, nil
}

// MustParseColor is ParseColor for literals known to be valid.
func MustParseColor(s string) *Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return &c
}

// String formats the color the way ParseColor reads it.
func (c Color) String() string {
	switch {
	case c.NRGBA == color.NRGBA{}:
		return "transparent"
	case c.A == 255:
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	default:
		return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
	}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: color must be a string", value.Line)
	}
	parsed, err := ParseColor(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*c = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (c Color) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

func (c *Color) color() color.Color {
	if c == nil {
		return nil
	}
	return c.NRGBA
}
