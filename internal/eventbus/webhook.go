package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"CoreBridge/internal/domain/models"
	"CoreBridge/internal/security"
	xhttp "CoreBridge/pkg/http"
)

// WebhookTransport POSTs each signal to a partner endpoint, signing the exact
// request body with HMAC-SHA256 so the receiver can verify integrity.
type WebhookTransport struct {
	client *xhttp.Client
	url    string
	secret string
}

// NewWebhookTransport creates a webhook transport. URL and secret are both
// required; without a secret the receiver cannot authenticate us.
func NewWebhookTransport(url, secret string, timeout time.Duration) (*WebhookTransport, error) {
	if url == "" {
		return nil, fmt.Errorf("webhook url is required")
	}
	if secret == "" {
		return nil, fmt.Errorf("webhook secret is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookTransport{
		client: xhttp.NewClient(xhttp.WithTimeout(timeout)),
		url:    url,
		secret: secret,
	}, nil
}

func (t *WebhookTransport) Publish(ctx context.Context, sig models.UnifiedTradingSignal, topic string) error {
	body, err := json.Marshal(sig.ToMap())
	if err != nil {
		return fmt.Errorf("marshal signal: %w", err)
	}

	resp, err := t.client.SendRequest(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    t.url,
		Headers: map[string]string{
			"Content-Type": "application/json",
			"X-Signature":  security.Sign([]byte(t.secret), body),
			"X-Signal-Id":  sig.SignalID,
			"X-Ecosystem":  sig.Ecosystem,
			"X-Topic":      topic,
		},
		Body: body,
	})
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func (t *WebhookTransport) Name() string { return "webhook" }
func (t *WebhookTransport) Close() error { return nil }
