package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"patient-registration/internal/config"
	"patient-registration/internal/domain/patient"
	"patient-registration/pkg/mqtt"
)

const (
	qosAtLeastOnce = 1
	publishTimeout = 2 * time.Second
)

// Broker is the part of the MQTT client the publisher needs.
type Broker interface {
	Publish(ctx context.Context, topic string, qos byte, retained bool, payload []byte) error
}

// MQTTPublisher writes audit events as JSON to <prefix>/<event type>.
type MQTTPublisher struct {
	broker      Broker
	topicPrefix string
}

func NewMQTTPublisher(broker Broker, topicPrefix string) *MQTTPublisher {
	return &MQTTPublisher{
		broker:      broker,
		topicPrefix: strings.TrimSuffix(topicPrefix, "/"),
	}
}

// NewMQTTClient connects the shared MQTT client used for audit events.
func NewMQTTClient(cfg *config.Config) (*mqtt.Client, error) {
	client := mqtt.NewClient(&mqtt.Config{
		Broker:               cfg.MQTT.Broker,
		ClientID:             cfg.MQTT.ClientID,
		Username:             cfg.MQTT.Username,
		Password:             cfg.MQTT.Password,
		CleanSession:         true,
		KeepAlive:            30,
		ConnectTimeout:       10,
		AutoReconnect:        true,
		MaxReconnectInterval: time.Minute,
	})
	if err := client.Connect(); err != nil {
		return nil, err
	}
	return client, nil
}

func (p *MQTTPublisher) Publish(ctx context.Context, event patient.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	topic := p.topicPrefix + "/" + string(event.Type)
	if err := p.broker.Publish(ctx, topic, qosAtLeastOnce, false, payload); err != nil {
		return fmt.Errorf("failed to publish %s: %w", topic, err)
	}
	return nil
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, patient.Event) error {
	return nil
}
