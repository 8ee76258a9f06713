package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/fastprodman/cashcow/internal/config"
	"github.com/fastprodman/cashcow/pkg/retry"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON, keyed by purchase (or account) id.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

var _ Publisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(cfg config.KafkaConfig) (*KafkaPublisher, error) {
	if !cfg.Enabled() {
		return nil, errors.New("kafka publisher requires at least one broker")
	}

	if cfg.EventsTopic == "" {
		return nil, errors.New("kafka publisher requires an events topic")
	}

	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.EventsTopic,
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
		},
		topic: cfg.EventsTopic,
	}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.Key()),
		Value: payload,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(e.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("write event to %s: %w", p.topic, err)
	}

	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer feeds settlement commands to a CommandHandler. A message is
// committed once the handler succeeds or its retries run out, so every
// command is applied at most once per delivery.
type KafkaConsumer struct {
	reader messageReader
	policy retry.Policy
}

func NewKafkaConsumer(cfg config.KafkaConfig, policy retry.Policy) (*KafkaConsumer, error) {
	if !cfg.Enabled() {
		return nil, errors.New("kafka consumer requires at least one broker")
	}

	if cfg.GroupID == "" {
		return nil, errors.New("kafka consumer requires group id")
	}

	if cfg.CommandsTopic == "" {
		return nil, errors.New("kafka consumer requires a commands topic")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.CommandsTopic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	})

	return &KafkaConsumer{reader: reader, policy: policy}, nil
}

// Run blocks until ctx ends or the reader fails.
func (c *KafkaConsumer) Run(ctx context.Context, handle CommandHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("fetch command: %w", err)
		}

		c.process(ctx, msg, handle)

		err = c.reader.CommitMessages(ctx, msg)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("commit command offset %d: %w", msg.Offset, err)
		}
	}
}

func (c *KafkaConsumer) process(ctx context.Context, msg kafka.Message, handle CommandHandler) {
	var cmd Command

	err := json.Unmarshal(msg.Value, &cmd)
	if err != nil || cmd.PurchaseID == "" {
		slog.Warn("skipping malformed command", "offset", msg.Offset, "partition", msg.Partition, "error", err)
		return
	}

	err = retry.Do(ctx, c.policy, func(error) bool { return true }, func(ctx context.Context) error {
		return handle(ctx, cmd)
	})
	if err != nil {
		slog.Error("command failed",
			"command_id", cmd.ID,
			"command_type", cmd.Type,
			"purchase_id", cmd.PurchaseID,
			"error", err,
		)
	}
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
