package notify

import (
	"context"
	"strconv"
	"time"

	"github.com/Shopify/sarama"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/great-cookie/internal/domain/order"
)

var _ order.EventPublisher = (*Kafka)(nil)

// Kafka publishes order events to a topic, keyed by order id so events of
// one order stay on one partition. Publish only enqueues the message;
// delivery results are logged in the background.
type Kafka struct {
	producer sarama.AsyncProducer
	topic    string
	lg       *zap.Logger
	done     chan struct{}
}

// NewKafkaConfig returns the producer settings used by NewKafka.
func NewKafkaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Retry.Backoff = 250 * time.Millisecond
	cfg.Producer.Return.Successes = true
	cfg.Producer.Timeout = 5 * time.Second
	return cfg
}

// NewKafka connects an asynchronous producer to brokers.
func NewKafka(lg *zap.Logger, brokers []string, topic string) (*Kafka, error) {
	p, err := sarama.NewAsyncProducer(brokers, NewKafkaConfig())
	if err != nil {
		return nil, errors.Wrap(err, "create kafka producer")
	}
	return NewKafkaWithProducer(lg, p, topic), nil
}

// NewKafkaWithProducer wraps an existing producer and starts draining its
// result channels.
func NewKafkaWithProducer(lg *zap.Logger, p sarama.AsyncProducer, topic string) *Kafka {
	k := &Kafka{
		producer: p,
		topic:    topic,
		lg:       lg.Named("kafka"),
		done:     make(chan struct{}),
	}
	go k.drain()
	return k
}

// Publish enqueues e. It gives up when ctx is done before the producer
// accepts the message.
func (k *Kafka) Publish(ctx context.Context, e order.Event) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrapf(err, "send %s for order %d", e.Type, e.Order.ID)
	}
	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(e.Order.ID, 10)),
		Value: sarama.ByteEncoder(EncodeEvent(e)),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(e.Type)},
		},
		Metadata: e.Order.ID,
	}
	select {
	case k.producer.Input() <- msg:
		zctx.From(ctx).Debug("Order event queued",
			zap.String("topic", k.topic),
			zap.String("type", string(e.Type)),
			zap.Int64("order_id", e.Order.ID),
		)
		return nil
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "send %s for order %d", e.Type, e.Order.ID)
	}
}

// drain logs delivery results until the producer shuts down.
func (k *Kafka) drain() {
	defer close(k.done)
	successes, errs := k.producer.Successes(), k.producer.Errors()
	for successes != nil || errs != nil {
		select {
		case msg, ok := <-successes:
			if !ok {
				successes = nil
				continue
			}
			k.lg.Debug("Order event sent",
				zap.String("topic", msg.Topic),
				zap.Any("order_id", msg.Metadata),
				zap.Int32("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
			)
		case pErr, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			fields := []zap.Field{zap.Error(pErr.Err)}
			if pErr.Msg != nil {
				fields = append(fields,
					zap.String("topic", pErr.Msg.Topic),
					zap.Any("order_id", pErr.Msg.Metadata),
				)
			}
			k.lg.Error("Send order event", fields...)
		}
	}
}

// Close flushes buffered messages and waits for their results.
func (k *Kafka) Close() error {
	k.producer.AsyncClose()
	<-k.done
	return nil
}
