package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Channel is the subset of *amqp.Channel the publisher uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher is what the order service needs from an event sink.
type Publisher interface {
	PublishOrderQuoted(ctx context.Context, meta EventMeta, payload OrderQuotedPayload) error
	PublishOrderCaptured(ctx context.Context, meta EventMeta, payload OrderCapturedPayload) error
}

type EventMeta struct {
	CorrelationID string
	PartitionKey  string
}

type RabbitPublisher struct {
	ch       Channel
	producer string
	now      func() time.Time
}

type PublisherOptions struct {
	Producer string
}

// Dial connects to RabbitMQ and returns a publisher plus the connection to
// close on shutdown.
func Dial(url string, opts PublisherOptions) (*RabbitPublisher, *amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	p, err := NewPublisher(ch, opts)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return p, conn, nil
}

func NewPublisher(ch Channel, opts PublisherOptions) (*RabbitPublisher, error) {
	if err := declareEventsExchange(ch); err != nil {
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}
	producer := opts.Producer
	if producer == "" {
		producer = defaultProducer
	}
	return &RabbitPublisher{ch: ch, producer: producer, now: time.Now}, nil
}

func (p *RabbitPublisher) Close() error {
	return p.ch.Close()
}

func (p *RabbitPublisher) PublishOrderQuoted(ctx context.Context, meta EventMeta, payload OrderQuotedPayload) error {
	env, err := p.envelope(meta, EventTypeOrderQuoted, orderQuotedSchema, payload)
	if err != nil {
		return fmt.Errorf("marshal OrderQuoted: %w", err)
	}
	return p.publishJSON(ctx, OrderQuotedRoutingKey, env)
}

func (p *RabbitPublisher) PublishOrderCaptured(ctx context.Context, meta EventMeta, payload OrderCapturedPayload) error {
	env, err := p.envelope(meta, EventTypeOrderCaptured, orderCapturedSchema, payload)
	if err != nil {
		return fmt.Errorf("marshal OrderCaptured: %w", err)
	}
	return p.publishJSON(ctx, OrderCapturedRoutingKey, env)
}

func (p *RabbitPublisher) envelope(meta EventMeta, name, schema string, payload any) (EventEnvelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return EventEnvelope{}, err
	}
	return EventEnvelope{
		EventName:     name,
		EventVersion:  1,
		EventID:       uuid.NewString(),
		CorrelationID: meta.CorrelationID,
		Producer:      p.producer,
		PartitionKey:  meta.PartitionKey,
		OccurredAt:    p.now().UTC(),
		Schema:        schema,
		Payload:       raw,
	}, nil
}

func (p *RabbitPublisher) publishJSON(ctx context.Context, routingKey string, env EventEnvelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			MessageId:     env.EventID,
			CorrelationId: env.CorrelationID,
			Timestamp:     env.OccurredAt,
			Body:          body,
		},
	)
}

// NoopPublisher drops events; it is used when no broker is configured.
type NoopPublisher struct {
	Logger *zap.Logger
}

func (n NoopPublisher) PublishOrderQuoted(_ context.Context, meta EventMeta, _ OrderQuotedPayload) error {
	n.debug(EventTypeOrderQuoted, meta)
	return nil
}

func (n NoopPublisher) PublishOrderCaptured(_ context.Context, meta EventMeta, _ OrderCapturedPayload) error {
	n.debug(EventTypeOrderCaptured, meta)
	return nil
}

func (n NoopPublisher) debug(name string, meta EventMeta) {
	if n.Logger != nil {
		n.Logger.Debug("event not published, no broker configured",
			zap.String("event", name),
			zap.String("partition_key", meta.PartitionKey),
		)
	}
}
