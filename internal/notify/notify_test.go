package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xenking/great-cookie/internal/domain/order"
)

// --- Mock implementations ---

// stalledProducer never reads its input, like a producer whose buffer is
// full while brokers are unreachable.
type stalledProducer struct {
	sarama.AsyncProducer
	input     chan *sarama.ProducerMessage
	successes chan *sarama.ProducerMessage
	errs      chan *sarama.ProducerError
}

func newStalledProducer() *stalledProducer {
	return &stalledProducer{
		input:     make(chan *sarama.ProducerMessage),
		successes: make(chan *sarama.ProducerMessage),
		errs:      make(chan *sarama.ProducerError),
	}
}

func (p *stalledProducer) Input() chan<- *sarama.ProducerMessage { return p.input }

func (p *stalledProducer) Successes() <-chan *sarama.ProducerMessage { return p.successes }

func (p *stalledProducer) Errors() <-chan *sarama.ProducerError { return p.errs }

func (p *stalledProducer) AsyncClose() {
	close(p.successes)
	close(p.errs)
}

// --- Helpers ---

func testEvent(t order.EventType) order.Event {
	total := decimal.RequireFromString("310")
	at := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	return order.Event{
		Type: t,
		Order: order.Order{
			ID:           7,
			CustomerName: "Alex",
			Contact:      "0917 000 0000",
			CookieName:   "Red Velvet",
			Quantity:     2,
			TotalPrice:   &total,
			Source:       order.SourceWebsite,
			Status:       order.StatusConfirmed,
			CreatedAt:    at,
			UpdatedAt:    at,
		},
		PreviousStatus: order.StatusPending,
		At:             at,
	}
}

func TestEncodeEvent(t *testing.T) {
	raw := EncodeEvent(testEvent(order.EventStatusChanged))
	require.True(t, jx.Valid(raw), string(raw))

	var (
		typ, prev, status string
		id                int64
		total             string
		notesNull         bool
	)
	err := jx.DecodeBytes(raw).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "type":
			v, err := d.Str()
			typ = v
			return err
		case "previous_status":
			v, err := d.Str()
			prev = v
			return err
		case "order":
			return d.Obj(func(d *jx.Decoder, key string) error {
				switch key {
				case "id":
					v, err := d.Int64()
					id = v
					return err
				case "status":
					v, err := d.Str()
					status = v
					return err
				case "total_price":
					v, err := d.Num()
					total = v.String()
					return err
				case "notes":
					notesNull = d.Next() == jx.Null
					return d.Skip()
				default:
					return d.Skip()
				}
			})
		default:
			return d.Skip()
		}
	})
	require.NoError(t, err)
	assert.Equal(t, "order_status_changed", typ)
	assert.Equal(t, "pending", prev)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, "confirmed", status)
	assert.Equal(t, "310.00", total)
	assert.True(t, notesNull)
}

func TestKafka_Publish(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	producer := mocks.NewAsyncProducer(t, cfg)

	var got *sarama.ProducerMessage
	producer.ExpectInputWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		got = msg
		return nil
	})

	k := NewKafkaWithProducer(zap.NewNop(), producer, "bakery.orders")
	require.NoError(t, k.Publish(context.Background(), testEvent(order.EventCreated)))
	require.NoError(t, k.Close())

	require.NotNil(t, got)
	assert.Equal(t, "bakery.orders", got.Topic)
	key, err := got.Key.Encode()
	require.NoError(t, err)
	assert.Equal(t, "7", string(key))
	value, err := got.Value.Encode()
	require.NoError(t, err)
	assert.True(t, jx.Valid(value))
}

func TestKafka_DeliveryErrorLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	producer := mocks.NewAsyncProducer(t, mocks.NewTestConfig())
	producer.ExpectInputAndFail(sarama.ErrOutOfBrokers)

	k := NewKafkaWithProducer(zap.New(core), producer, "bakery.orders")
	require.NoError(t, k.Publish(context.Background(), testEvent(order.EventCreated)))
	require.NoError(t, k.Close())

	entries := logs.FilterMessage("Send order event").All()
	require.Len(t, entries, 1)
	assert.Equal(t, sarama.ErrOutOfBrokers.Error(), entries[0].ContextMap()["error"])
	assert.EqualValues(t, 7, entries[0].ContextMap()["order_id"])
}

func TestKafka_PublishHonorsContext(t *testing.T) {
	t.Run("Cancelled", func(t *testing.T) {
		producer := mocks.NewAsyncProducer(t, mocks.NewTestConfig())
		k := NewKafkaWithProducer(zap.NewNop(), producer, "bakery.orders")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := k.Publish(ctx, testEvent(order.EventCreated))
		require.ErrorIs(t, err, context.Canceled)
		require.NoError(t, k.Close())
	})
	t.Run("ProducerBlocked", func(t *testing.T) {
		producer := newStalledProducer()
		k := NewKafkaWithProducer(zap.NewNop(), producer, "bakery.orders")

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		start := time.Now()
		err := k.Publish(ctx, testEvent(order.EventCreated))
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), time.Second)
		require.NoError(t, k.Close())
	})
}

func TestWebhook_Publish(t *testing.T) {
	var (
		body        []byte
		contentType string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, WithHTTPClient(srv.Client()))
	require.NoError(t, wh.Publish(context.Background(), testEvent(order.EventCreated)))

	assert.Equal(t, "application/json", contentType)
	require.True(t, jx.Valid(body), string(body))
	assert.Contains(t, string(body), "New Cookie Order")
	assert.Contains(t, string(body), "₱310.00")
	assert.Contains(t, string(body), "WEBSITE")
}

func TestWebhook_SkipsDetailUpdates(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL)
	require.NoError(t, wh.Publish(context.Background(), testEvent(order.EventUpdated)))
	assert.Zero(t, calls)
}

func TestWebhook_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := NewWebhook(srv.URL).Publish(context.Background(), testEvent(order.EventStatusChanged))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "🚚 Out For Delivery", statusLabel(order.StatusOutForDelivery))
	assert.Equal(t, "⚪ Unknown", statusLabel("unknown"))
}

type funcPublisher func(context.Context, order.Event) error

func (f funcPublisher) Publish(ctx context.Context, e order.Event) error { return f(ctx, e) }

func TestMulti(t *testing.T) {
	var calls []string
	failing := errors.New("boom")
	m := Multi{
		funcPublisher(func(context.Context, order.Event) error { calls = append(calls, "a"); return failing }),
		funcPublisher(func(context.Context, order.Event) error { calls = append(calls, "b"); return nil }),
	}

	err := m.Publish(context.Background(), testEvent(order.EventCreated))
	require.ErrorIs(t, err, failing)
	assert.Equal(t, []string{"a", "b"}, calls)
}
