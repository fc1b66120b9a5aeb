// Package bus publishes events to a Kafka-compatible message bus.
// Delivery is at-least-once: a successful Publish means the brokers
// acknowledged the write, nothing more.
package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/JaimeStill/intake/pkg/lifecycle"
)

// ErrEmptyTopic indicates Publish was called without a topic.
var ErrEmptyTopic = errors.New("topic must not be empty")

// Publisher writes messages to named topics.
type Publisher interface {
	// Start registers a shutdown hook that flushes and closes the writer.
	Start(lc *lifecycle.Coordinator) error
	// Publish writes payload to topic, partitioned by key.
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

type kafkaPublisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// New creates a Kafka publisher. Connections are opened lazily on first write.
func New(cfg *Config, logger *slog.Logger) Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		WriteTimeout:           cfg.WriteTimeoutDuration(),
		AllowAutoTopicCreation: cfg.AutoCreateTopics,
		Transport: &kafka.Transport{
			ClientID: cfg.ClientID,
		},
	}

	return &kafkaPublisher{
		writer: w,
		logger: logger.With("system", "bus"),
	}
}

func (k *kafkaPublisher) Start(lc *lifecycle.Coordinator) error {
	k.logger.Info("starting message bus publisher", "brokers", k.writer.Addr.String())

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		k.logger.Info("closing message bus publisher")

		if err := k.writer.Close(); err != nil {
			k.logger.Error("message bus close failed", "error", err)
			return
		}

		k.logger.Info("message bus publisher closed")
	})

	return nil
}

func (k *kafkaPublisher) Publish(ctx context.Context, topic, key string, payload []byte) error {
	if topic == "" {
		return ErrEmptyTopic
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	}

	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	return nil
}
