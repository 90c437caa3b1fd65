package notifiers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/daniacca/achemsim/internal/achem"
)

// WebhookNotifier POSTs events to a URL. Each request carries the event kind,
// world and tick in X-Achemsim-* headers.
type WebhookNotifier struct {
	id      string
	url     string
	format  Format
	kinds   []achem.EventKind
	client  *http.Client
	headers map[string]string
}

// NewWebhookNotifier creates a webhook notifier sending JSON bodies.
func NewWebhookNotifier(id, url string) *WebhookNotifier {
	return &WebhookNotifier{
		id:      id,
		url:     url,
		format:  FormatJSON,
		client:  &http.Client{Timeout: 5 * time.Second},
		headers: make(map[string]string),
	}
}

// SetHeader sets a custom header to include in webhook requests
func (wn *WebhookNotifier) SetHeader(key, value string) {
	if wn.headers == nil {
		wn.headers = make(map[string]string)
	}
	wn.headers[key] = value
}

// SetFormat switches the request body encoding.
func (wn *WebhookNotifier) SetFormat(format Format) {
	wn.format = format
}

// SetKinds restricts delivery to the given event kinds. With no kinds every
// event is delivered.
func (wn *WebhookNotifier) SetKinds(kinds ...achem.EventKind) {
	wn.kinds = kinds
}

// Accepts reports whether events of the given kind are delivered.
func (wn *WebhookNotifier) Accepts(kind achem.EventKind) bool {
	return len(wn.kinds) == 0 || slices.Contains(wn.kinds, kind)
}

// ID returns the notifier ID
func (wn *WebhookNotifier) ID() string {
	return wn.id
}

// Type returns the notifier type
func (wn *WebhookNotifier) Type() string {
	return "webhook"
}

// Notify sends the event to the webhook URL. Any non-2xx status is an error.
// Events of kinds the notifier does not accept are skipped.
func (wn *WebhookNotifier) Notify(ctx context.Context, event achem.NotificationEvent) error {
	if !wn.Accepts(event.Kind) {
		return nil
	}

	body, err := encode(event, wn.format)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wn.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	contentType := "application/json"
	if wn.format == FormatMsgpack {
		contentType = "application/msgpack"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Achemsim-Event", string(event.Kind))
	req.Header.Set("X-Achemsim-World", string(event.WorldID))
	req.Header.Set("X-Achemsim-Tick", strconv.FormatInt(event.Tick, 10))
	for key, value := range wn.headers {
		req.Header.Set(key, value)
	}

	resp, err := wn.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// Close closes the notifier (no-op for webhook)
func (wn *WebhookNotifier) Close() error {
	return nil
}
