package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	models "github.com/Schera-ole/phonemetrics/internal/model"
)

// Publisher is the part of mqtt.Client the sink uses.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTSink publishes points as retained JSON messages on <topic>/<name>.
type MQTTSink struct {
	Client Publisher
	Topic  string

	disconnect func()
}

// NewMQTTSink connects to broker, waiting at most timeout.
func NewMQTTSink(broker, topic string, timeout time.Duration) (*MQTTSink, error) {
	hostname, _ := os.Hostname()
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(fmt.Sprintf("phonemetrics-%s-%d", hostname, os.Getpid())).
		SetConnectTimeout(timeout)
	client := mqtt.NewClient(opts)

	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("timeout connecting to %s", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("error connecting to %s: %w", broker, err)
	}
	return &MQTTSink{
		Client:     client,
		Topic:      topic,
		disconnect: func() { client.Disconnect(250) },
	}, nil
}

func (s *MQTTSink) Publish(ctx context.Context, point models.Point) error {
	payload, err := json.Marshal(point)
	if err != nil {
		return fmt.Errorf("error marshalling point: %w", err)
	}

	topic := s.Topic + "/" + point.Name
	token := s.Client.Publish(topic, 1, true, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

func (s *MQTTSink) Close() error {
	if s.disconnect != nil {
		s.disconnect()
	}
	return nil
}
