package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Domenick1991/repricing/internal/domain"
	"github.com/segmentio/kafka-go"
)

var ErrInvalidEvent = errors.New("invalid repricing event")

// EventHandler processes one decoded repricing event.
type EventHandler func(ctx context.Context, event domain.RepricingEvent) error

type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventConsumer reads repricing events for one consumer group. Offsets are
// committed only after the handler succeeded, so a crash replays the event.
type EventConsumer struct {
	reader reader
}

func NewEventConsumer(brokers []string, groupID, topic string) *EventConsumer {
	return &EventConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
	}
}

func (c *EventConsumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume runs until ctx is done or the handler fails. Undecodable messages
// are logged and committed so they do not block the partition.
func (c *EventConsumer) Consume(ctx context.Context, handle EventHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}

		event, err := DecodeEvent(msg)
		if err != nil {
			log.Printf("[kafka] skipping offset %d on partition %d: %v", msg.Offset, msg.Partition, err)
		} else if err := handle(ctx, event); err != nil {
			return fmt.Errorf("handle event %s: %w", event.ID, err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("commit offset %d: %w", msg.Offset, err)
		}
	}
}

// DecodeEvent parses a repricing event message.
func DecodeEvent(msg kafka.Message) (domain.RepricingEvent, error) {
	var event domain.RepricingEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return domain.RepricingEvent{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if event.ID == "" || event.Type == "" {
		return domain.RepricingEvent{}, fmt.Errorf("%w: missing id or type", ErrInvalidEvent)
	}
	return event, nil
}
