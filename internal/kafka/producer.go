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

// EventTypeHeader carries the event type so consumers can route without decoding.
const EventTypeHeader = "event-type"

var ErrNoBrokers = errors.New("no kafka brokers configured")

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes repricing events. Messages are keyed by repricing
// session id so one session's events stay ordered on one partition.
type Producer struct {
	brokers []string
	writer  writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		brokers: brokers,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// EncodeEvent builds the wire message for event; DecodeEvent is its inverse.
func EncodeEvent(topic string, event domain.RepricingEvent) (kafka.Message, error) {
	if event.ID == "" || event.RepricingSessionID == "" {
		return kafka.Message{}, fmt.Errorf("%w: id and repricing_session_id are required", ErrInvalidEvent)
	}
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode event %s: %w", event.ID, err)
	}
	return kafka.Message{
		Topic:   topic,
		Key:     []byte(event.RepricingSessionID),
		Value:   data,
		Time:    event.OccurredAt,
		Headers: []kafka.Header{{Key: EventTypeHeader, Value: []byte(event.Type)}},
	}, nil
}

func (p *Producer) PublishEvent(ctx context.Context, topic string, event domain.RepricingEvent) error {
	msg, err := EncodeEvent(topic, event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s to %s: %w", event.Type, topic, err)
	}

	log.Printf("[kafka] published %s for session %s", event.Type, event.RepricingSessionID)
	return nil
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// CheckConnection dials the first broker and lists its partitions.
func (p *Producer) CheckConnection(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return ErrNoBrokers
	}
	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("dial kafka: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("read partitions: %w", err)
	}

	log.Printf("[kafka] connected, %d partitions visible", len(partitions))
	return nil
}
