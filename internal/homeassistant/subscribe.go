package homeassistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// StateFunc receives entity state changes.
type StateFunc func(entity string, on bool)

// message is the envelope of every websocket API frame we send or read.
type message struct {
	ID          int    `json:"id,omitempty"`
	Type        string `json:"type"`
	AccessToken string `json:"access_token,omitempty"`
	EventType   string `json:"event_type,omitempty"`
	Success     *bool  `json:"success,omitempty"`
	Event       *struct {
		Data struct {
			EntityID string       `json:"entity_id"`
			OldState *entityState `json:"old_state"`
			NewState *entityState `json:"new_state"`
		} `json:"data"`
	} `json:"event,omitempty"`
}

// errAuth is returned when the server rejects the token. It is not retried.
var errAuth = errors.New("authentication rejected")

// Subscribe follows state_changed events and calls fn for each entity that
// changes. It reconnects after ReconnectDelay when the connection drops and
// returns when ctx is done or the token is rejected.
func (c *Client) Subscribe(ctx context.Context, fn StateFunc) error {
	for {
		err := c.subscribeOnce(ctx, fn)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, errAuth) {
			return err
		}
		slog.Warn("Home Assistant websocket disconnected", "err", err, "retry", c.ReconnectDelay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.ReconnectDelay):
		}
	}
}

// websocketURL maps http(s)://host to ws(s)://host/api/websocket.
func (c *Client) websocketURL() (string, error) {
	u, err := url.Parse(c.server)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = u.Path + "/api/websocket"
	return u.String(), nil
}

func (c *Client) subscribeOnce(ctx context.Context, fn StateFunc) error {
	wsURL, err := c.websocketURL()
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()

	// Unblock ReadJSON when the context ends.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := c.authenticate(conn); err != nil {
		return err
	}

	if err := conn.WriteJSON(message{ID: 1, Type: "subscribe_events", EventType: "state_changed"}); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	slog.Info("Subscribed to Home Assistant state changes", "server", c.server)

	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		switch msg.Type {
		case "result":
			if msg.Success != nil && !*msg.Success {
				return fmt.Errorf("subscribe_events rejected")
			}
		case "event":
			if msg.Event == nil || msg.Event.Data.NewState == nil {
				continue
			}
			// Attribute-only changes (brightness, color) keep the state.
			if old := msg.Event.Data.OldState; old != nil && old.State == msg.Event.Data.NewState.State {
				continue
			}
			fn(msg.Event.Data.EntityID, IsOn(msg.Event.Data.NewState.State))
		}
	}
}

func (c *Client) authenticate(conn *websocket.Conn) error {
	var msg message
	if err := conn.ReadJSON(&msg); err != nil {
		return fmt.Errorf("read hello: %w", err)
	}
	if msg.Type != "auth_required" {
		return fmt.Errorf("unexpected hello %q", msg.Type)
	}

	if err := conn.WriteJSON(message{Type: "auth", AccessToken: c.token}); err != nil {
		return fmt.Errorf("send auth: %w", err)
	}
	if err := conn.ReadJSON(&msg); err != nil {
		return fmt.Errorf("read auth result: %w", err)
	}
	switch msg.Type {
	case "auth_ok":
		return nil
	case "auth_invalid":
		return errAuth
	default:
		return fmt.Errorf("unexpected auth reply %q", msg.Type)
	}
}
