// Package waha is a client for the WAHA WhatsApp HTTP gateway.
package waha

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client calls a WAHA instance.
type Client struct {
	BaseURL string
	APIKey  string
	Session string
	HTTP    *http.Client
}

// New creates a client with the session defaulting to "default".
func New(baseURL, apiKey, session string) *Client {
	if session == "" {
		session = "default"
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Session: session,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// ChatID formats a phone number as a WAHA chat identifier
// (e.g. 5215512345678@c.us). Already-formatted ids pass through.
func ChatID(phone string) string {
	if strings.Contains(phone, "@") {
		return phone
	}
	return strings.TrimPrefix(phone, "+") + "@c.us"
}

// SendText delivers a text message to the given phone number.
func (c *Client) SendText(ctx context.Context, phone, text string) error {
	if c.BaseURL == "" {
		return fmt.Errorf("waha url not configured")
	}

	body, _ := json.Marshal(map[string]string{
		"chatId":  ChatID(phone),
		"text":    text,
		"session": c.Session,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/sendText", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("waha request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var errBody struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if errBody.Message != "" {
			return fmt.Errorf("waha error %s: %s", resp.Status, errBody.Message)
		}
		return fmt.Errorf("waha error %s", resp.Status)
	}
	return nil
}

// SessionStatus reports whether the configured WAHA session is reachable.
func (c *Client) SessionStatus(ctx context.Context) bool {
	if c.BaseURL == "" {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/sessions/"+c.Session, nil)
	if err != nil {
		return false
	}
	req.Header.Set("X-Api-Key", c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 300
}
