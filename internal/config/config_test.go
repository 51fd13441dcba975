package config

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestMain(m *testing.M) {
	keyring.MockInit()
	os.Exit(m.Run())
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HASS_SERVER", "")
	t.Setenv("HASS_TOKEN", "")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultDuration, cfg.Animation.SettleDuration())
	assert.Equal(t, DefaultFrameRate, cfg.Animation.FrameRate)
	assert.Equal(t, float64(DefaultDragThreshold), cfg.Animation.DragThreshold)
	assert.Equal(t, CurveEaseInOut, cfg.Animation.Curve)
	assert.Equal(t, time.Second/30, cfg.Animation.FrameInterval())
	require.Len(t, cfg.Switches, 1)
	assert.Equal(t, "Switch", cfg.Switches[0].Name)
	assert.Equal(t, 0, cfg.Switches[0].Slot)
	assert.Equal(t, 1, cfg.Switches[0].Dial())
	assert.False(t, cfg.HomeAssistant.Configured())
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
homeassistant:
  server: http://ha.local:8123
animation:
  duration: 450ms
  curve: ease-out
  frame_rate: 60
  drag_threshold: 6
switches:
  - name: Office
    entity: light.office
    slot: 2
    key: 3
    style:
      on_tint_color: "#ff8000"
      border_color: slategray
      inactive_color: transparent
      active_color: "#eee"
      shadow_color: "#00000080"
      square: true
      thumb_image: power
      on_label: "ON"
      off_label: "OFF"
  - slot: 3
`)

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "http://ha.local:8123", cfg.HomeAssistant.Server)
	assert.Equal(t, 450*time.Millisecond, cfg.Animation.SettleDuration())
	assert.Equal(t, 60, cfg.Animation.FrameRate)
	assert.Equal(t, 6.0, cfg.Animation.DragThreshold)
	assert.InDelta(t, 0.875, cfg.Animation.CurveFunc()(0.5), 1e-6)

	require.Len(t, cfg.Switches, 2)
	office := cfg.Switches[0]
	assert.Equal(t, "light.office", office.Entity)
	assert.Equal(t, 2, office.Slot)
	assert.Equal(t, 3, office.Key)
	assert.Equal(t, 3, office.Dial())
	assert.Equal(t, "Switch 2", cfg.Switches[1].Name)

	st := office.Style.Style()
	assert.Equal(t, color.NRGBA{255, 128, 0, 255}, st.OnTintColor)
	assert.Equal(t, color.NRGBA{112, 128, 144, 255}, st.BorderColor)
	assert.Equal(t, color.NRGBA{}, st.InactiveColor)
	assert.Equal(t, color.NRGBA{238, 238, 238, 255}, st.ActiveColor)
	assert.Equal(t, color.NRGBA{0, 0, 0, 128}, st.ShadowColor)
	assert.Nil(t, st.ThumbTintColor, "unset colors fall back to defaults")
	assert.True(t, st.Square)
	assert.Equal(t, "ON", st.OnLabel)
	assert.Equal(t, "power", office.Style.ThumbImage)
}

func TestCurveNames(t *testing.T) {
	tests := map[string]float32{
		CurveLinear:    0.25,
		CurveEaseOut:   1 - 0.75*0.75*0.75,
		CurveEaseInOut: 0.25 * 0.25 * (3 - 0.5),
	}
	for name, want := range tests {
		a := AnimationConfig{Curve: name}
		assert.InDelta(t, want, a.CurveFunc()(0.25), 1e-6, name)
	}
}

func TestInstantAnimation(t *testing.T) {
	a := AnimationConfig{Duration: time.Second, Instant: true}
	assert.Equal(t, time.Duration(0), a.SettleDuration())
}

func TestLegacyColorAliases(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
switches:
  - name: Legacy
    style:
      on_color: red
      knob_color: "#000"
  - name: Both
    slot: 1
    style:
      on_color: red
      on_tint_color: blue
`)

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	legacy := cfg.Switches[0].Style
	assert.Nil(t, legacy.OnColor, "aliases are folded away")
	assert.Nil(t, legacy.KnobColor)
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, legacy.Style().OnTintColor)
	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, legacy.Style().ThumbTintColor)

	both := cfg.Switches[1].Style
	assert.Equal(t, color.NRGBA{0, 0, 255, 255}, both.Style().OnTintColor)
}

func TestSecretsPrecedence(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "homeassistant:\n  server: http://file:8123\n")

	require.NoError(t, SetKeychainSecret(KeyHASSToken, "from-keychain"))
	t.Cleanup(func() { _ = keyring.Delete(KeychainService, KeyHASSToken) })

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "from-keychain", cfg.HomeAssistant.Token)
	assert.True(t, cfg.HomeAssistant.Configured())

	t.Setenv("HASS_TOKEN", "from-env")
	t.Setenv("HASS_SERVER", "http://env:8123")
	cfg, err = LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.HomeAssistant.Token)
	assert.Equal(t, "http://env:8123", cfg.HomeAssistant.Server)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"slot out of range", "switches:\n  - slot: 4\n", "slot 4 out of range"},
		{"negative slot", "switches:\n  - slot: -1\n", "slot -1 out of range"},
		{"duplicate slot", "switches:\n  - name: a\n  - name: b\n", `slot 0 already used by "a"`},
		{"key out of range", "switches:\n  - key: 9\n", "key 9 out of range"},
		{"duplicate key", "switches:\n  - {name: a, key: 1}\n  - {name: b, slot: 1, key: 1}\n", `key 1 already used by "a"`},
		{"too many switches", "switches:\n  - {slot: 0}\n  - {slot: 1}\n  - {slot: 2}\n  - {slot: 3}\n  - {slot: 0}\n", "at most 4 switches"},
		{"frame rate", "animation:\n  frame_rate: 500\n", "frame_rate must be between"},
		{"negative duration", "animation:\n  duration: -1s\n", "duration must not be negative"},
		{"unknown curve", "animation:\n  curve: bounce\n", `curve "bounce"`},
		{"bad color", "switches:\n  - style:\n      on_tint_color: notacolor\n", `unknown color "notacolor"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := LoadFrom(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{in: "#fff", want: color.NRGBA{255, 255, 255, 255}},
		{in: "#4CD964", want: color.NRGBA{76, 217, 100, 255}},
		{in: "#4cd96480", want: color.NRGBA{76, 217, 100, 128}},
		{in: " transparent ", want: color.NRGBA{}},
		{in: "clear", want: color.NRGBA{}},
		{in: "LightGray", want: color.NRGBA{211, 211, 211, 255}},
		{in: "#12345", wantErr: true},
		{in: "#gggggg", wantErr: true},
		{in: "#ffffffzz", wantErr: true},
		{in: "chartreuse-ish", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseColor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.NRGBA)
		})
	}
}

func TestColorString(t *testing.T) {
	assert.Equal(t, "transparent", Color{}.String())
	assert.Equal(t, "#4cd964", MustParseColor("#4cd964").String())
	assert.Equal(t, "#4cd96480", MustParseColor("#4cd96480").String())
	assert.Equal(t, "#ff000000", MustParseColor("#ff000000").String(), "clear red keeps its RGB")

	for _, s := range []string{"transparent", "#ff000000", "#00ff0001", "#123456"} {
		c := MustParseColor(s)
		back, err := ParseColor(c.String())
		require.NoError(t, err)
		assert.Equal(t, *c, back, s)
	}
}

func TestWriteConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	t.Setenv("TOGGLEDECK_CONFIG", path)

	in := &Config{
		HomeAssistant: HomeAssistantConfig{Server: "http://ha:8123", Token: "secret"},
		Switches: []SwitchConfig{{
			Name:   "Desk",
			Entity: "switch.desk",
			Slot:   1,
			Style:  StyleConfig{OnTintColor: MustParseColor("#336699"), OnLabel: "I"},
		}},
	}
	require.NoError(t, WriteConfigFile(in))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret", "tokens never land in the file")

	out, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://ha:8123", out.HomeAssistant.Server)
	require.Len(t, out.Switches, 1)
	assert.Equal(t, in.Switches[0].Entity, out.Switches[0].Entity)
	assert.Equal(t, in.Switches[0].Style.OnTintColor, out.Switches[0].Style.OnTintColor)
}

func TestWatchReloads(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "switches:\n  - name: Before\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var latest atomic.Value
	require.NoError(t, Watch(ctx, path, func(cfg *Config) {
		latest.Store(cfg.Switches[0].Name)
	}))

	// An invalid edit is skipped, the next valid one lands.
	require.NoError(t, os.WriteFile(path, []byte("switches:\n  - slot: 9\n"), 0o644))
	time.Sleep(2 * reloadDebounce)
	assert.Nil(t, latest.Load())

	require.NoError(t, os.WriteFile(path, []byte("switches:\n  - name: After\n"), 0o644))
	assert.Eventually(t, func() bool {
		return latest.Load() == "After"
	}, 3*time.Second, 20*time.Millisecond)
}
