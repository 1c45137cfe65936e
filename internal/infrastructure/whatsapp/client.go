// Package whatsapp is a client for the external WhatsApp OTP gateway. The
// gateway generates, delivers and checks its own codes; this service only
// hands it normalized phone numbers.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fuel-otp/internal/domain"
)

const channel = "whatsapp"

// ErrNotConfigured is returned when no gateway URL is set.
var ErrNotConfigured = errors.New("WhatsApp gateway not configured")

// Gateway is the contract of the external WhatsApp OTP gateway.
type Gateway interface {
	Send(ctx context.Context, phone string) (*SendResponse, error)
	Verify(ctx context.Context, phone, code string) (*VerifyResponse, error)
}

type SendResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type VerifyResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	User    json.RawMessage `json:"user,omitempty"`
}

// Client calls the gateway over HTTP JSON.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

func (c *Client) Send(ctx context.Context, phone string) (*SendResponse, error) {
	var out SendResponse
	if err := c.post(ctx, "/whatsapp/send", map[string]string{"phoneNumber": phone}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Verify(ctx context.Context, phone, code string) (*VerifyResponse, error) {
	var out VerifyResponse
	if err := c.post(ctx, "/whatsapp/verify", map[string]string{"phoneNumber": phone, "otp": code}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// post sends body and decodes the gateway reply. A non-2xx reply with a JSON
// body is still decoded so the gateway's own error text reaches the caller.
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	if c.baseURL == "" {
		return &domain.DeliveryError{Channel: channel, Msg: ErrNotConfigured.Error(), Err: ErrNotConfigured}
	}
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal gateway request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.DeliveryError{Channel: channel, Msg: "WhatsApp gateway unreachable", Err: err}
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.DeliveryError{
			Channel: channel,
			Msg:     fmt.Sprintf("WhatsApp gateway returned status %d", resp.StatusCode),
			Err:     err,
		}
	}
	return nil
}
