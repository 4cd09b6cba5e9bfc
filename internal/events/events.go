// Package events publishes domain events after their database changes commit.
// Events go to kafka when brokers are configured and to an in-process channel
// otherwise.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"fitforge/internal/config"
)

const (
	TopicTrainerApproved      = "trainer.approved"
	TopicTrainerRejected      = "trainer.rejected"
	TopicPaymentStatusChanged = "payment.status_changed"
)

// Event is anything that knows the topic it belongs on.
type Event interface {
	Topic() string
}

type TrainerApproved struct {
	ApplicationID uint      `json:"applicationId"`
	UserID        uint      `json:"userId"`
	TrainerID     uint      `json:"trainerId"`
	ApprovedBy    uint      `json:"approvedBy"`
	At            time.Time `json:"at"`
}

func (TrainerApproved) Topic() string { return TopicTrainerApproved }

type TrainerRejected struct {
	ApplicationID uint      `json:"applicationId"`
	UserID        uint      `json:"userId"`
	Reason        string    `json:"reason"`
	RejectedBy    uint      `json:"rejectedBy"`
	At            time.Time `json:"at"`
}

func (TrainerRejected) Topic() string { return TopicTrainerRejected }

type PaymentStatusChanged struct {
	PaymentIntentID string    `json:"paymentIntentId"`
	Status          string    `json:"status"`
	At              time.Time `json:"at"`
}

func (PaymentStatusChanged) Topic() string { return TopicPaymentStatusChanged }

// Publisher is what services depend on.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Bus is a Publisher backed by a watermill publisher.
type Bus struct {
	pub    message.Publisher
	prefix string
}

func NewBus(pub message.Publisher, prefix string) *Bus {
	return &Bus{pub: pub, prefix: prefix}
}

// inProcessNotice is logged once when events stay inside the process.
const inProcessNotice = "no kafka brokers configured: domain events are published in-process only and are not delivered to any consumer"

// NewFromConfig picks kafka when brokers are listed and an in-process go
// channel otherwise. Nothing in the server subscribes to the go channel, so
// without KAFKA_BROKERS published events are dropped.
func NewFromConfig(cfg config.Events, logger watermill.LoggerAdapter) (*Bus, error) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info(inProcessNotice, watermill.LogFields{"topic_prefix": cfg.TopicPrefix})
		return NewBus(NewInProcess(logger), cfg.TopicPrefix), nil
	}
	pub, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   cfg.KafkaBrokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("events.NewFromConfig: %w", err)
	}
	return NewBus(pub, cfg.TopicPrefix), nil
}

// NewInProcess returns a go channel pub/sub; it is also the subscriber side in tests.
func NewInProcess(logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger)
}

func (b *Bus) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("events.Publish: %w", err)
	}
	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set("event", e.Topic())
	msg.SetContext(ctx)

	if err := b.pub.Publish(b.prefix+e.Topic(), msg); err != nil {
		return fmt.Errorf("events.Publish %s: %w", e.Topic(), err)
	}
	return nil
}

func (b *Bus) Close() error {
	return b.pub.Close()
}
