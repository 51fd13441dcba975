// Package config provides configuration loading from YAML files, the OS keychain,
// and environment variables. Environment variables take precedence for dev flexibility.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

const (
	// KeychainService is the keychain service name for toggledeck secrets.
	KeychainService = "toggledeck"

	// KeyHASSToken is the keychain account holding the Home Assistant token.
	KeyHASSToken = "hass-token"
)

// Strip layout of the Stream Deck Plus: four slots, one above each dial.
const (
	SlotCount  = 4
	SlotWidth  = 200
	SlotHeight = 100
	KeyCount   = 8
)

// Animation defaults.
const (
	DefaultDuration      = 300 * time.Millisecond
	DefaultFrameRate     = 30
	DefaultDragThreshold = 4
	maxFrameRate         = 120
)

// Config holds the full application configuration, assembled from YAML + Keychain + env.
type Config struct {
	HomeAssistant HomeAssistantConfig `yaml:"homeassistant"`
	Animation     AnimationConfig     `yaml:"animation"`
	Switches      []SwitchConfig      `yaml:"switches"`
}

// HomeAssistantConfig holds the Home Assistant connection.
type HomeAssistantConfig struct {
	Server string `yaml:"server"`
	Token  string `yaml:"-"` // secret, not in YAML
}

// Configured reports whether both server and token are known.
func (h HomeAssistantConfig) Configured() bool {
	return h.Server != "" && h.Token != ""
}

// AnimationConfig tunes how switches move.
type AnimationConfig struct {
	// Duration of the settle animation. Zero means the default.
	Duration time.Duration `yaml:"duration,omitempty"`
	// Instant disables settle animations entirely.
	Instant bool `yaml:"instant,omitempty"`
	// Curve is one of ease-in-out (default), ease-out or linear.
	Curve string `yaml:"curve,omitempty"`
	// FrameRate caps how often the strip is redrawn while animating.
	FrameRate int `yaml:"frame_rate,omitempty"`
	// DragThreshold is how far a finger moves before a touch is a drag.
	DragThreshold float64 `yaml:"drag_threshold,omitempty"`
}

// SettleDuration returns the effective animation length.
func (a AnimationConfig) SettleDuration() time.Duration {
	if a.Instant {
		return 0
	}
	return a.Duration
}

// FrameInterval returns the delay between animation frames.
func (a AnimationConfig) FrameInterval() time.Duration {
	return time.Second / time.Duration(a.FrameRate)
}

// SwitchConfig places one switch on the device.
type SwitchConfig struct {
	Name string `yaml:"name"`
	// Entity is the Home Assistant entity the switch controls. Empty keeps
	// the switch local.
	Entity string `yaml:"entity,omitempty"`
	// Slot is the strip quarter (0-3); the dial below it presses the switch.
	Slot int `yaml:"slot"`
	// Key optionally mirrors the switch on a key (1-8).
	Key   int         `yaml:"key,omitempty"`
	Style StyleConfig `yaml:"style,omitempty"`
}

// Dial returns the 1-based dial under the switch's slot.
func (s SwitchConfig) Dial() int {
	return s.Slot + 1
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := homedir.Dir()
	if err != nil {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".config", "toggledeck")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	// Allow override via environment variable (used by nix-generated config)
	if p := os.Getenv("TOGGLEDECK_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Load assembles configuration from the default config path.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom assembles configuration from YAML file + Keychain + environment
// variables. Environment variables always take precedence. A missing file
// yields the defaults; a malformed or inconsistent one is an error.
func LoadFrom(configPath string) (*Config, error) {
	cfg := &Config{}

	// 1. Try to load YAML config file
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", configPath, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("reading %s: %w", configPath, err)
	}

	// 2. Layer in Keychain secrets (ignore errors, Keychain may not be populated)
	if token, err := keyring.Get(KeychainService, KeyHASSToken); err == nil {
		cfg.HomeAssistant.Token = token
	}

	// 3. Environment variables override everything
	if v := os.Getenv("HASS_SERVER"); v != "" {
		cfg.HomeAssistant.Server = v
	}
	if v := os.Getenv("HASS_TOKEN"); v != "" {
		cfg.HomeAssistant.Token = v
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Animation.Duration == 0 {
		c.Animation.Duration = DefaultDuration
	}
	if c.Animation.FrameRate == 0 {
		c.Animation.FrameRate = DefaultFrameRate
	}
	if c.Animation.DragThreshold == 0 {
		c.Animation.DragThreshold = DefaultDragThreshold
	}
	if c.Animation.Curve == "" {
		c.Animation.Curve = CurveEaseInOut
	}
	if len(c.Switches) == 0 {
		c.Switches = []SwitchConfig{{Name: "Switch"}}
	}
	for i := range c.Switches {
		if c.Switches[i].Name == "" {
			c.Switches[i].Name = fmt.Sprintf("Switch %d", i+1)
		}
		c.Switches[i].Style = c.Switches[i].Style.Canonical()
	}
}

// Validate checks that switches fit the device and do not overlap.
func (c *Config) Validate() error {
	var errs []error
	if c.Animation.Duration < 0 {
		errs = append(errs, fmt.Errorf("animation.duration must not be negative"))
	}
	if c.Animation.FrameRate < 1 || c.Animation.FrameRate > maxFrameRate {
		errs = append(errs, fmt.Errorf("animation.frame_rate must be between 1 and %d", maxFrameRate))
	}
	if c.Animation.DragThreshold < 0 {
		errs = append(errs, fmt.Errorf("animation.drag_threshold must not be negative"))
	}
	if _, ok := curves[c.Animation.Curve]; !ok {
		errs = append(errs, fmt.Errorf("animation.curve %q is not one of ease-in-out, ease-out, linear", c.Animation.Curve))
	}
	if len(c.Switches) > SlotCount {
		errs = append(errs, fmt.Errorf("at most %d switches fit on the strip", SlotCount))
	}

	slots := make(map[int]string)
	keys := make(map[int]string)
	for _, s := range c.Switches {
		if s.Slot < 0 || s.Slot >= SlotCount {
			errs = append(errs, fmt.Errorf("switch %q: slot %d out of range 0-%d", s.Name, s.Slot, SlotCount-1))
		} else if other, ok := slots[s.Slot]; ok {
			errs = append(errs, fmt.Errorf("switch %q: slot %d already used by %q", s.Name, s.Slot, other))
		} else {
			slots[s.Slot] = s.Name
		}
		if s.Key == 0 {
			continue
		}
		if s.Key < 1 || s.Key > KeyCount {
			errs = append(errs, fmt.Errorf("switch %q: key %d out of range 1-%d", s.Name, s.Key, KeyCount))
		} else if other, ok := keys[s.Key]; ok {
			errs = append(errs, fmt.Errorf("switch %q: key %d already used by %q", s.Name, s.Key, other))
		} else {
			keys[s.Key] = s.Name
		}
	}
	return errors.Join(errs...)
}

// WriteConfigFile writes the non-secret portion of config to the default path.
func WriteConfigFile(cfg *Config) error {
	return WriteConfigFileTo(DefaultConfigPath(), cfg)
}

// WriteConfigFileTo writes the non-secret portion of config to path.
func WriteConfigFileTo(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// SetKeychainSecret stores a secret in the OS keychain.
func SetKeychainSecret(account, value string) error {
	// Delete first to avoid "already exists" errors on update
	_ = keyring.Delete(KeychainService, account)
	return keyring.Set(KeychainService, account, value)
}

// GetKeychainSecret retrieves a secret from the OS keychain.
func GetKeychainSecret(account string) (string, error) {
	return keyring.Get(KeychainService, account)
}
