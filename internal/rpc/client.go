package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client talks to a Server.
type Client struct {
	BaseURL string
	ID      string
	HTTP    *http.Client
}

func NewClient(addr, id string) *Client {
	base := addr
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		BaseURL: strings.TrimSuffix(base, "/"),
		ID:      id,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Submit wraps payload in a Message of messageType and posts it to /tx.
// Rejections come back as a TxResponse with a nil error; err is only set
// when no answer could be read.
func (c *Client) Submit(ctx context.Context, messageType string, payload any) (TxResponse, error) {
	var out TxResponse
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return out, fmt.Errorf("failed to marshal payload: %v", err)
	}
	messageBytes, err := json.Marshal(Message{Type: messageType, Payload: payloadBytes, SenderID: c.ID})
	if err != nil {
		return out, fmt.Errorf("failed to marshal message envelope: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/tx", bytes.NewReader(messageBytes))
	if err != nil {
		return out, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return out, fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("server returned %s: %v", resp.Status, err)
	}
	return out, nil
}

// Status fetches /status.
func (c *Client) Status(ctx context.Context) (StatusResponse, error) {
	var out StatusResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/status", nil)
	if err != nil {
		return out, fmt.Errorf("failed to create request: %v", err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return out, fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("server returned non-OK status: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("failed to decode status: %v", err)
	}
	return out, nil
}
