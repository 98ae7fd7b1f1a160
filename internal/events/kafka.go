package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/bizhub-platform/auth-service/internal/metrics"
	"github.com/bizhub-platform/auth-service/internal/pkg/log"

	kafka "github.com/segmentio/kafka-go"
)

const (
	// publishAttempts — число попыток доставки в основной топик.
	publishAttempts = 3
	// publishBackoff — пауза между попытками.
	publishBackoff = 100 * time.Millisecond
)

// messageWriter — абстракция над Kafka Writer; в тестах подменяется моком.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher — боевая реализация Publisher поверх kafka-go.
type KafkaPublisher struct {
	writer   messageWriter
	topic    string
	dlqTopic string
}

// KafkaConfig — настройки публикации событий.
type KafkaConfig struct {
	Brokers  []string
	Topic    string
	DLQTopic string
}

// NewKafkaPublisher создаёт публикатор событий активности.
func NewKafkaPublisher(cfg KafkaConfig) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{}, // распределение по ключу (user_id)
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}

	return &KafkaPublisher{
		writer:   w,
		topic:    cfg.Topic,
		dlqTopic: cfg.DLQTopic,
	}
}

// Publish сериализует событие и доставляет его с ограниченным числом
// ретраев; после их исчерпания событие уходит в DLQ-топик. Ошибка
// возвращается только если не удалась и DLQ-доставка — вызывающий
// логирует её, но никогда не проваливает из-за неё основную операцию.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	const op = "events.kafka.Publish"

	lg := log.From(ctx)

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(e.UserID.String()),
		Value: data,
	}

	var lastErr error
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		lastErr = p.writer.WriteMessages(ctx, msg)
		if lastErr == nil {
			return nil
		}

		if attempt == publishAttempts || ctx.Err() != nil {
			break
		}

		select {
		case <-ctx.Done():
		case <-time.After(publishBackoff):
		}
	}

	lg.Warn("activity_publish_failed",
		slog.String("op", op),
		slog.String("type", e.Type),
		slog.String("err", lastErr.Error()),
	)

	if p.dlqTopic == "" {
		metrics.ActivityPublishFailures.Inc()
		return fmt.Errorf("%s: %w", op, lastErr)
	}

	dlqMsg := msg
	dlqMsg.Topic = p.dlqTopic
	if err := p.writer.WriteMessages(ctx, dlqMsg); err != nil {
		metrics.ActivityPublishFailures.Inc()
		return fmt.Errorf("%s: dlq: %w", op, err)
	}

	lg.Info("activity_event_dead_lettered",
		slog.String("op", op),
		slog.String("type", e.Type),
	)

	return nil
}

// Close закрывает writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

var _ Publisher = (*KafkaPublisher)(nil)
