// Package deck runs the configured switches on one connected device.
package deck

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"slices"
	"time"

	"github.com/phinze/toggledeck/internal/config"
	"github.com/phinze/toggledeck/internal/coordinator"
	"github.com/phinze/toggledeck/internal/device"
	"github.com/phinze/toggledeck/internal/homeassistant"
	"github.com/phinze/toggledeck/internal/modules/light"
)

// ErrLayoutChanged is returned by Run when the config was edited in a way
// that cannot be applied to a running device: switches moved, were added or
// removed, or the Home Assistant connection changed.
var ErrLayoutChanged = errors.New("switch layout changed")

const (
	brightness  = 80
	stopTimeout = 2 * time.Second
)

// defaultStrip is the Stream Deck Plus strip, used if the device does not say.
var defaultStrip = image.Rect(0, 0, config.SlotCount*config.SlotWidth, config.SlotHeight)

// Session is the set of switch modules for one device and one config.
type Session struct {
	Modules []*light.Module
	Coord   *coordinator.Coordinator
	Client  *homeassistant.Client
}

// NewSession builds modules for every configured switch and registers them
// with a new coordinator for dev. Switches are local if Home Assistant is not
// configured.
func NewSession(dev device.Device, cfg *config.Config) *Session {
	s := &Session{
		Coord: coordinator.New(dev, coordinator.WithFrameInterval(cfg.Animation.FrameInterval())),
	}
	if cfg.HomeAssistant.Configured() {
		s.Client = homeassistant.NewClient(cfg.HomeAssistant.Server, cfg.HomeAssistant.Token)
	} else {
		slog.Warn("Home Assistant not configured, switches are local only")
	}

	strip := defaultStrip
	if dev.GetTouchStripSupported() {
		if r, err := dev.GetTouchStripImageRectangle(); err == nil && !r.Empty() {
			strip = r
		}
	}

	for _, sc := range cfg.Switches {
		var opts []light.Option
		if s.Client != nil {
			opts = append(opts, light.WithRemote(s.Client))
		}
		m := light.New(sc, cfg.Animation, opts...)
		if err := s.Coord.RegisterModule(m, light.Resources(sc, strip)); err != nil {
			slog.Warn("Registering switch", "name", sc.Name, "err", err)
			continue
		}
		s.Modules = append(s.Modules, m)
	}
	return s
}

// Apply restyles the running switches from cfg, which must have the same
// layout as the config the session was built from.
func (s *Session) Apply(cfg *config.Config) {
	for i, m := range s.Modules {
		m.ApplyConfig(cfg.Switches[i], cfg.Animation)
	}
	s.Coord.RequestRender()
}

// SameLayout reports whether b can be applied to a session built from a:
// the same switches in the same slots, keys and entities, and the same Home
// Assistant connection. Names, styles and animation settings may differ.
func SameLayout(a, b *config.Config) bool {
	if a.HomeAssistant != b.HomeAssistant {
		return false
	}
	if a.Animation.FrameRate != b.Animation.FrameRate {
		return false
	}
	return slices.EqualFunc(a.Switches, b.Switches, func(x, y config.SwitchConfig) bool {
		return x.Slot == y.Slot && x.Key == y.Key && x.Entity == y.Entity
	})
}

// Run drives dev with the switches in cfg until ctx is done, the device
// fails, or the config at configPath changes layout. Other config edits are
// applied in place.
func Run(ctx context.Context, dev device.Device, configPath string, cfg *config.Config) error {
	slog.Info("Connected", "model", dev.GetModelName())

	if err := dev.SetBrightness(brightness); err != nil {
		slog.Warn("Setting brightness", "err", err)
	}
	_ = dev.ForEachKey(func(key device.KeyID) error {
		return dev.ClearKey(key)
	})

	s := NewSession(dev, cfg)

	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Coord.Start(runCtx)
	}()

	if s.Client != nil {
		go func() {
			err := light.Follow(runCtx, s.Client, s.Modules, s.Coord.RequestRender)
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("Home Assistant subscription ended", "err", err)
			}
		}()
	}

	reloads := make(chan *config.Config, 1)
	if configPath != "" {
		err := config.Watch(runCtx, configPath, func(next *config.Config) {
			// Only the newest config matters.
			select {
			case <-reloads:
			default:
			}
			reloads <- next
		})
		if err != nil {
			slog.Warn("Config changes will not be picked up", "err", err)
		}
	}

	slog.Info("Ready", "switches", len(s.Modules))

	var result error
wait:
	for {
		select {
		case <-ctx.Done():
			slog.Info("Shutting down")
			break wait
		case err := <-errCh:
			if err != nil {
				slog.Warn("Device disconnected", "err", err)
			}
			result = err
			break wait
		case next := <-reloads:
			if !SameLayout(cfg, next) {
				slog.Info("Switch layout changed, restarting")
				result = ErrLayoutChanged
				break wait
			}
			s.Apply(next)
			cfg = next
		}
	}

	runCancel()
	stop(s.Coord)
	return result
}

// stop shuts the coordinator down, giving up after stopTimeout.
func stop(c *coordinator.Coordinator) {
	done := make(chan struct{})
	go func() {
		_ = c.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(stopTimeout):
		slog.Warn("Cleanup timed out")
	}
}
