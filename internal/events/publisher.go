// Package events 负责把订单领域事件投递到外部消息系统。
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/verso-store/internal/config"
	"github.com/verso-store/internal/logger"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Event 领域事件信封
type Event struct {
	EventID    string      `json:"event_id"`
	EventType  string      `json:"event_type"`
	Key        string      `json:"-"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

// NewEvent 创建事件并分配 ID
func NewEvent(eventType, key string, data interface{}) Event {
	return Event{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		Key:        key,
		OccurredAt: time.Now(),
		Data:       data,
	}
}

// Publisher 事件发布接口
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher 未启用消息系统时使用
type NopPublisher struct{}

// Publish 仅记录日志
func (NopPublisher) Publish(ctx context.Context, event Event) error {
	logger.Debugw("event_publish_skipped", "event_type", event.EventType, "key", event.Key)
	return nil
}

// Close 无操作
func (NopPublisher) Close() error { return nil }

// messageWriter kafka.Writer 的最小接口
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher Kafka 实现
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher 创建 Kafka 发布者
func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	timeout := time.Duration(cfg.WriteTimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		WriteTimeout: timeout,
		ReadTimeout:  timeout,
	}
	return &KafkaPublisher{writer: writer, topic: cfg.Topic}
}

// Publish 以事件 key 分区写入，同一订单的事件保持顺序
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.Key),
		Value: body,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write message to kafka: %w", err)
	}
	logger.Debugw("event_published", "topic", p.topic, "event_type", event.EventType, "key", event.Key)
	return nil
}

// Close 关闭底层 writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NewPublisher 按配置选择发布者
func NewPublisher(cfg config.KafkaConfig) Publisher {
	if !cfg.Enabled || len(cfg.Brokers) == 0 || strings.TrimSpace(cfg.Topic) == "" {
		return NopPublisher{}
	}
	return NewKafkaPublisher(cfg)
}
