package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/great-cookie/internal/domain/order"
)

var _ order.EventPublisher = (*Webhook)(nil)

const (
	embedColor     = 16753920
	webhookTimeout = 5 * time.Second
)

// Webhook posts a chat message with an order embed to a Discord-compatible
// webhook URL. Detail-only updates are skipped.
type Webhook struct {
	url      string
	client   *http.Client
	currency string
}

// WebhookOption configures a Webhook.
type WebhookOption func(*Webhook)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) WebhookOption {
	return func(w *Webhook) { w.client = c }
}

// WithCurrency sets the symbol prefixed to totals.
func WithCurrency(symbol string) WebhookOption {
	return func(w *Webhook) { w.currency = symbol }
}

// NewWebhook creates a Webhook posting to url.
func NewWebhook(url string, opts ...WebhookOption) *Webhook {
	w := &Webhook{url: url, client: &http.Client{Timeout: webhookTimeout}, currency: "₱"}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Publish posts the message for e.
func (w *Webhook) Publish(ctx context.Context, e order.Event) error {
	if e.Type == order.EventUpdated {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(w.message(e)))
	if err != nil {
		return errors.Wrap(err, "create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "post webhook")
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return errors.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}

func (w *Webhook) message(e order.Event) []byte {
	o := e.Order
	title := "🍪 New Cookie Order!"
	if e.Type == order.EventStatusChanged {
		title = fmt.Sprintf("Order #%d: %s → %s", o.ID, statusLabel(e.PreviousStatus), statusLabel(o.Status))
	}

	total := "Pending Calc"
	if o.TotalPrice != nil {
		total = w.currency + o.TotalPrice.StringFixed(2)
	}
	payment := "N/A"
	if o.PaymentMethod != nil {
		payment = *o.PaymentMethod
	}

	fields := [][2]string{
		{"Customer", o.CustomerName},
		{"Contact", o.Contact},
		{"Cookie", o.CookieName},
		{"Quantity", strconv.Itoa(o.Quantity)},
		{"Total Price", total},
		{"Payment", payment},
		{"Status", statusLabel(o.Status)},
		{"Source", strings.ToUpper(string(o.Source))},
	}

	var enc jx.Encoder
	enc.ObjStart()
	enc.FieldStart("embeds")
	enc.ArrStart()
	enc.ObjStart()
	enc.FieldStart("title")
	enc.Str(title)
	enc.FieldStart("color")
	enc.Int(embedColor)
	enc.FieldStart("fields")
	enc.ArrStart()
	for _, f := range fields {
		enc.ObjStart()
		enc.FieldStart("name")
		enc.Str(f[0])
		enc.FieldStart("value")
		enc.Str(f[1])
		enc.FieldStart("inline")
		enc.Bool(true)
		enc.ObjEnd()
	}
	enc.ArrEnd()
	enc.FieldStart("footer")
	enc.ObjStart()
	enc.FieldStart("text")
	enc.Str("The Great Cookie Admin System")
	enc.ObjEnd()
	enc.ObjEnd()
	enc.ArrEnd()
	enc.ObjEnd()
	return enc.Bytes()
}

var statusEmoji = map[order.Status]string{
	order.StatusPending:        "🟡",
	order.StatusConfirmed:      "✅",
	order.StatusPreparing:      "👨‍🍳",
	order.StatusOutForDelivery: "🚚",
	order.StatusCompleted:      "✅",
	order.StatusCancelled:      "❌",
}

func statusLabel(s order.Status) string {
	words := strings.Split(string(s), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	emoji, ok := statusEmoji[s]
	if !ok {
		emoji = "⚪"
	}
	return emoji + " " + strings.Join(words, " ")
}
