package light

import (
	"context"
	"log/slog"

	"github.com/phinze/toggledeck/internal/homeassistant"
)

// Subscriber streams entity state changes, e.g. a homeassistant.Client.
type Subscriber interface {
	Subscribe(ctx context.Context, fn homeassistant.StateFunc) error
}

// Follow keeps mods in step with state changes made elsewhere, over a single
// subscription. It returns when ctx is done or the subscription fails for
// good. Changes apply through onChange so the caller can redraw.
func Follow(ctx context.Context, sub Subscriber, mods []*Module, onChange func()) error {
	return sub.Subscribe(ctx, func(entity string, on bool) {
		hit := false
		for _, m := range mods {
			if m.Entity() != entity {
				continue
			}
			if m.IsOn() != on {
				slog.Debug("Entity changed remotely", "entity", entity, "on", on)
			}
			m.ApplyRemoteState(on)
			hit = true
		}
		if hit && onChange != nil {
			onChange()
		}
	})
}
