package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/segmentio/kafka-go"
)

// Environment variables configuring the publisher.
const (
	EnvEnabled          = "KAFKA_ENABLED"
	EnvBootstrapServers = "KAFKA_BOOTSTRAP_SERVERS"
	EnvTopicPrefix      = "KAFKA_TOPIC_PREFIX"
)

// Defaults applied when the environment leaves a value unset.
const (
	DefaultBootstrapServers = "localhost:9092"
	DefaultTopicPrefix      = "franc"
)

const maxAttempts = 3

// Config holds the Kafka connection settings.
type Config struct {
	Enabled          bool
	BootstrapServers []string
	TopicPrefix      string
}

// ConfigFromEnv reads the Kafka settings from the environment.
func ConfigFromEnv() Config {
	servers := os.Getenv(EnvBootstrapServers)
	if servers == "" {
		servers = DefaultBootstrapServers
	}
	prefix := os.Getenv(EnvTopicPrefix)
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Config{
		Enabled:          parseEnabled(os.Getenv(EnvEnabled)),
		BootstrapServers: strings.Split(servers, ","),
		TopicPrefix:      prefix,
	}
}

func parseEnabled(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// Publisher sends events to their topics. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// messageWriter is the subset of kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes events to a Kafka cluster.
type KafkaPublisher struct {
	writer messageWriter
	prefix string
	logger *slog.Logger
}

// PublisherOption configures a KafkaPublisher.
type PublisherOption func(*KafkaPublisher)

// WithPublisherLogger sets a custom logger.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *KafkaPublisher) {
		p.logger = logger.With("component", "events")
	}
}

// withWriter replaces the Kafka writer, for tests.
func withWriter(w messageWriter) PublisherOption {
	return func(p *KafkaPublisher) {
		p.writer = w
	}
}

// NewKafkaPublisher creates a publisher connected to the configured brokers.
// Messages require acknowledgement from all in-sync replicas before a publish
// is considered successful.
func NewKafkaPublisher(cfg Config, opts ...PublisherOption) *KafkaPublisher {
	p := &KafkaPublisher{
		prefix: cfg.TopicPrefix,
		logger: slog.Default().With("component", "events"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.writer == nil {
		p.writer = &kafka.Writer{
			Addr:         kafka.TCP(cfg.BootstrapServers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  maxAttempts,
		}
	}
	return p
}

// Publish serializes the event as JSON and writes it to the event's topic,
// keyed by change number.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	topic := p.prefix + "." + event.TopicSuffix()
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(event.Key()),
		Value: payload,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish event", "topic", topic, "key", event.Key(), "error", err)
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}

	p.logger.Info("event published", "topic", topic, "key", event.Key())
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher discards every event. Used when Kafka is disabled so callers
// never need to branch on configuration.
type NopPublisher struct{}

// Publish implements Publisher and always succeeds.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }

// NewPublisher returns a Kafka-backed publisher when enabled, otherwise a
// no-op one.
func NewPublisher(cfg Config, opts ...PublisherOption) Publisher {
	if !cfg.Enabled {
		return NopPublisher{}
	}
	return NewKafkaPublisher(cfg, opts...)
}
