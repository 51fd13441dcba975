// Package homeassistant talks to a Home Assistant server: it reads and sets
// the on/off state of entities over REST and follows state changes over the
// websocket API.
package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Home Assistant API client.
type Client struct {
	server string
	token  string
	http   *http.Client

	// ReconnectDelay is how long Subscribe waits before redialing.
	ReconnectDelay time.Duration
}

// NewClient creates a client for the server at base URL server
// (e.g. http://homeassistant.local:8123) using a long-lived access token.
func NewClient(server, token string) *Client {
	return &Client{
		server:         strings.TrimRight(server, "/"),
		token:          token,
		http:           &http.Client{Timeout: 10 * time.Second},
		ReconnectDelay: 5 * time.Second,
	}
}

// entityState is the subset of /api/states/<entity> we use.
type entityState struct {
	EntityID string `json:"entity_id"`
	State    string `json:"state"`
}

// IsOn maps a Home Assistant state string to a switch position. Anything
// other than "on" (off, unavailable, unknown) reads as off.
func IsOn(state string) bool {
	return state == "on"
}

// Domain returns the domain part of an entity id ("light" for "light.desk").
func Domain(entity string) (string, error) {
	domain, _, ok := strings.Cut(entity, ".")
	if !ok || domain == "" {
		return "", fmt.Errorf("entity %q: want <domain>.<object_id>", entity)
	}
	return domain, nil
}

// State fetches whether entity is currently on.
func (c *Client) State(ctx context.Context, entity string) (bool, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/states/"+url.PathEscape(entity), nil)
	if err != nil {
		return false, err
	}

	var st entityState
	if err := c.do(req, &st); err != nil {
		return false, fmt.Errorf("get state of %s: %w", entity, err)
	}
	return IsOn(st.State), nil
}

// SetState turns entity on or off through its domain's turn_on/turn_off service.
func (c *Client) SetState(ctx context.Context, entity string, on bool) error {
	domain, err := Domain(entity)
	if err != nil {
		return err
	}
	service := "turn_off"
	if on {
		service = "turn_on"
	}

	body, err := json.Marshal(map[string]string{"entity_id": entity})
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/services/"+domain+"/"+service, body)
	if err != nil {
		return err
	}
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("%s.%s %s: %w", domain, service, entity, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.server+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("API error: %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
