package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	models "github.com/Schera-ole/phonemetrics/internal/model"
)

// MessageWriter is the part of kafka.Writer the sink uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink writes points as JSON messages keyed by their series.
type KafkaSink struct {
	Writer MessageWriter
}

// NewKafkaSink creates a synchronous writer for topic.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{Writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}}
}

func (s *KafkaSink) Publish(ctx context.Context, point models.Point) error {
	value, err := json.Marshal(point)
	if err != nil {
		return fmt.Errorf("error marshalling point: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(seriesID(point)),
		Value: value,
		Time:  point.Timestamp,
	}
	if err := s.Writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("error writing kafka message: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.Writer.Close()
}
