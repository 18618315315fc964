package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const webhookTimeout = 10 * time.Second

// webhookPayload is the JSON document delivered for one plan alert.
type webhookPayload struct {
	Alert
	Source string `json:"source"`
	TS     string `json:"ts"`
}

// WebhookNotifier delivers scheduler alerts as JSON POSTs. The alert level
// is repeated in the X-Alert-Level header so receivers can route without
// parsing the body.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{url: url, client: &http.Client{Timeout: webhookTimeout}}
}

func (w *WebhookNotifier) Send(ctx context.Context, alert Alert) error {
	body, err := json.Marshal(webhookPayload{
		Alert:  alert,
		Source: "trading-analytics",
		TS:     time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("webhook %q: encode alert: %w", alert.Title, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook %q: %w", alert.Title, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Alert-Level", string(alert.Level))

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook %q: deliver: %w", alert.Title, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("webhook %q: receiver answered %d: %s", alert.Title, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	log.Printf("[webhook] delivered %s alert %q (%d bytes)", alert.Level, alert.Title, len(body))
	return nil
}
