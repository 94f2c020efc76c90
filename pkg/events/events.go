package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.uber.org/zap"

	"imtr/backend/config"
)

// Domain event topics (without the configured prefix)
const (
	TopicStudentApproved = "student.approved"
	TopicStudentRejected = "student.rejected"
	TopicInvoiceCreated  = "invoice.created"
	TopicPaymentRecorded = "payment.recorded"
)

// AllTopics every topic the server emits
var AllTopics = []string{
	TopicStudentApproved,
	TopicStudentRejected,
	TopicInvoiceCreated,
	TopicPaymentRecorded,
}

// Publisher emits domain events; implemented by Bus
type Publisher interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
}

// Bus watermill publisher/subscriber pair with a topic prefix
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	shared     bool // gochannel serves both roles
	prefix     string
	logger     *zap.Logger
}

// NewBus builds a Kafka-backed bus or an in-process gochannel bus
func NewBus(cfg *config.EventsConfig, logger *zap.Logger) (*Bus, error) {
	wmLogger := NewZapAdapter(logger)

	if cfg.Driver != "kafka" {
		return newGoChannelBus(cfg.TopicPrefix, logger), nil
	}

	pub, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   cfg.Brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	sub, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:       cfg.Brokers,
		Unmarshaler:   kafka.DefaultMarshaler{},
		ConsumerGroup: "imtr-backend",
	}, wmLogger)
	if err != nil {
		pub.Close()
		return nil, fmt.Errorf("failed to create kafka subscriber: %w", err)
	}

	logger.Info("event bus connected", zap.Strings("brokers", cfg.Brokers))

	return &Bus{publisher: pub, subscriber: sub, prefix: cfg.TopicPrefix, logger: logger}, nil
}

// NewInMemoryBus gochannel bus, used when no broker is configured and in tests
func NewInMemoryBus(prefix string, logger *zap.Logger) *Bus {
	return newGoChannelBus(prefix, logger)
}

func newGoChannelBus(prefix string, logger *zap.Logger) *Bus {
	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, NewZapAdapter(logger))
	return &Bus{publisher: ch, subscriber: ch, shared: true, prefix: prefix, logger: logger}
}

// Publish marshals payload to JSON and publishes it on prefix+topic
func (b *Bus) Publish(ctx context.Context, topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)
	msg.Metadata.Set("topic", topic)

	return b.publisher.Publish(b.prefix+topic, msg)
}

// Subscribe returns the message stream for prefix+topic
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.subscriber.Subscribe(ctx, b.prefix+topic)
}

// Close closes publisher and subscriber
func (b *Bus) Close() error {
	pubErr := b.publisher.Close()
	if !b.shared {
		if err := b.subscriber.Close(); err != nil {
			return err
		}
	}
	return pubErr
}

// RunAuditLog consumes every topic and writes one structured log line per
// event. Blocks until ctx is cancelled.
func RunAuditLog(ctx context.Context, bus *Bus, logger *zap.Logger, topics ...string) error {
	type delivery struct {
		topic string
		msg   *message.Message
	}
	merged := make(chan delivery)

	for _, topic := range topics {
		stream, err := bus.Subscribe(ctx, topic)
		if err != nil {
			return fmt.Errorf("failed to subscribe %s: %w", topic, err)
		}
		go func(topic string, stream <-chan *message.Message) {
			for msg := range stream {
				select {
				case merged <- delivery{topic: topic, msg: msg}:
				case <-ctx.Done():
					msg.Nack()
					return
				}
			}
		}(topic, stream)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d := <-merged:
			logger.Info("domain event",
				zap.String("topic", d.topic),
				zap.String("event_id", d.msg.UUID),
				zap.ByteString("payload", d.msg.Payload),
			)
			d.msg.Ack()
		}
	}
}
