package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// DefaultTimeout bounds a single webhook call.
const DefaultTimeout = 10 * time.Second

const maxErrorBody = 512

// DiscordNotifier sends notifications to a Discord webhook.
type DiscordNotifier struct {
	WebhookURL string
	Client     *http.Client
	UserAgent  string
	// ErrOut receives the operator-facing line for a failed delivery.
	ErrOut io.Writer
	// OnDelivery, if set, is called once per Deliver with the outcome.
	OnDelivery func(ok bool)
}

// NewDiscordNotifier creates a new DiscordNotifier. A non-positive timeout uses DefaultTimeout.
func NewDiscordNotifier(webhookURL string, timeout time.Duration) *DiscordNotifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &DiscordNotifier{
		WebhookURL: webhookURL,
		Client:     &http.Client{Timeout: timeout},
		ErrOut:     os.Stderr,
	}
}

// Notify sends a message to the configured Discord webhook.
func (n *DiscordNotifier) Notify(ctx context.Context, msg Message) error {
	if n.WebhookURL == "" {
		return fmt.Errorf("discord webhook URL is not configured")
	}
	if err := msg.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create discord request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if n.UserAgent != "" {
		req.Header.Set("User-Agent", n.UserAgent)
	}

	resp, err := n.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send discord notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if len(bytes.TrimSpace(detail)) > 0 {
			return fmt.Errorf("discord notification failed with status: %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
		}
		return fmt.Errorf("discord notification failed with status: %d", resp.StatusCode)
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	return nil
}

// Deliver sends msg and reports whether Discord acknowledged it.
// Failures are logged and printed to ErrOut, never returned.
func (n *DiscordNotifier) Deliver(ctx context.Context, msg Message) bool {
	err := n.Notify(ctx, msg)
	ok := err == nil
	if n.OnDelivery != nil {
		n.OnDelivery(ok)
	}
	if ok {
		slog.Debug("discord notification delivered", "bytes", len(msg.Content))
		return true
	}

	slog.Debug("discord notification failed", "error", err)
	if n.ErrOut != nil {
		fmt.Fprintf(n.ErrOut, "Error sending to Discord: %v\n", err)
	}
	return false
}
