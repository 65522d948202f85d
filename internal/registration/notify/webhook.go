// Package notify tells the organisers about new registrations through a
// chat webhook (Teams or Discord).
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"confsite/internal/registration/models"
)

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Webhook posts registration notifications to one URL.
type Webhook struct {
	url      string
	provider Provider
	http     HTTPDoer
}

// Option configures a Webhook.
type Option func(*Webhook)

func WithHTTPClient(doer HTTPDoer) Option {
	return func(w *Webhook) {
		w.http = doer
	}
}

// NewWebhook creates a notifier for url. provider is "auto", "teams" or
// "discord".
func NewWebhook(url, provider string, opts ...Option) *Webhook {
	w := &Webhook{
		url:      url,
		provider: ResolveProvider(url, provider),
		http:     &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Provider returns the payload format in use.
func (w *Webhook) Provider() Provider {
	return w.provider
}

// Notify posts the notification for sub. Any non-2xx answer is an error.
func (w *Webhook) Notify(ctx context.Context, sub *models.Submission) error {
	var payload any
	switch w.provider {
	case ProviderTeams:
		payload = TeamsPayload(sub)
	default:
		payload = DiscordPayload(sub)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
