/**
 * @description
 * Client for the mail-delivery service. The campaign-service never renders
 * email bodies itself; it posts a template key and a context map and the
 * mail service does the templating and SMTP delivery. Callers treat sends as
 * fire-and-forget: a failed send is logged, never retried inline and never
 * rolls back the state change that triggered it.
 */
package mailclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Sender is the interface implemented by types that can send templated mail.
type Sender interface {
	Send(ctx context.Context, to, templateKey string, data map[string]string) error
}

// Client is a client for the mail-delivery service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new mail service client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type sendMailPayload struct {
	To          string            `json:"to"`
	TemplateKey string            `json:"template_key"`
	Data        map[string]string `json:"data,omitempty"`
}

// Send posts one templated email to the mail-delivery service.
func (c *Client) Send(ctx context.Context, to, templateKey string, data map[string]string) error {
	if c.baseURL == "" {
		return fmt.Errorf("mail service base URL is not configured")
	}

	payload := sendMailPayload{To: to, TemplateKey: templateKey, Data: data}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/internal/mail/send", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request to mail service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("mail service returned error status %d", resp.StatusCode)
	}
	return nil
}
