package biogas

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// DefaultMQTTTopic is where readings are published when no topic is
// configured. ThingsBoard-compatible deployments typically override this
// with "v1/devices/me/telemetry".
const DefaultMQTTTopic = "biogas/telemetry"

// MQTTConfig configures an MQTTSink.
type MQTTConfig struct {
	// BrokerURL is the broker address, e.g. "tcp://localhost:1883".
	BrokerURL string
	// Topic defaults to DefaultMQTTTopic.
	Topic string
	// ClientID defaults to "biogas-<uuid>".
	ClientID string
	// Username is the access token for token-authenticated brokers
	// (ThingsBoard style); may be empty.
	Username string
	Password string
	// QoS for published readings, default 0.
	QoS byte
}

// MQTTSink publishes each Reading as a JSON payload to an MQTT topic.
// Like every Sink it is a pass-through observer: publish failures are
// reported to the producer, which counts and logs them.
type MQTTSink struct {
	client mqtt.Client
	topic  string
	qos    byte
}

// NewMQTTSink connects to the broker and returns a ready sink.
func NewMQTTSink(cfg MQTTConfig) (*MQTTSink, error) {
	if cfg.Topic == "" {
		cfg.Topic = DefaultMQTTTopic
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "biogas-" + uuid.NewString()
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to MQTT broker %s: %w", cfg.BrokerURL, token.Error())
	}
	return &MQTTSink{client: client, topic: cfg.Topic, qos: cfg.QoS}, nil
}

func (s *MQTTSink) Write(r Reading) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal reading: %w", err)
	}
	token := s.client.Publish(s.topic, s.qos, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", s.topic, err)
	}
	return nil
}

func (s *MQTTSink) Close() error {
	s.client.Disconnect(250)
	return nil
}
