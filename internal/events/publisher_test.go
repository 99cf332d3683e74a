package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/verso-store/internal/config"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestNewPublisherFallsBackToNop(t *testing.T) {
	if _, ok := NewPublisher(config.KafkaConfig{Enabled: false}).(NopPublisher); !ok {
		t.Fatalf("disabled kafka should yield nop publisher")
	}
	if _, ok := NewPublisher(config.KafkaConfig{Enabled: true, Topic: "orders"}).(NopPublisher); !ok {
		t.Fatalf("kafka without brokers should yield nop publisher")
	}
	if _, ok := NewPublisher(config.KafkaConfig{Enabled: true, Brokers: []string{"localhost:9092"}, Topic: "orders"}).(*KafkaPublisher); !ok {
		t.Fatalf("configured kafka should yield kafka publisher")
	}
}

func TestKafkaPublisherWritesKeyedMessage(t *testing.T) {
	writer := &fakeWriter{}
	publisher := &KafkaPublisher{writer: writer, topic: "orders"}
	event := NewEvent("order.status_changed", "order-12", map[string]interface{}{"status": "paid"})

	if err := publisher.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if len(writer.messages) != 1 {
		t.Fatalf("messages want 1 got %d", len(writer.messages))
	}
	msg := writer.messages[0]
	if string(msg.Key) != "order-12" {
		t.Fatalf("key want order-12 got %s", msg.Key)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode message failed: %v", err)
	}
	if decoded["event_type"] != "order.status_changed" || decoded["event_id"] == "" {
		t.Fatalf("unexpected envelope %v", decoded)
	}
}

func TestKafkaPublisherWrapsWriteError(t *testing.T) {
	boom := errors.New("broker down")
	publisher := &KafkaPublisher{writer: &fakeWriter{err: boom}, topic: "orders"}
	err := publisher.Publish(context.Background(), NewEvent("x", "k", nil))
	if !errors.Is(err, boom) {
		t.Fatalf("publish error want wrapped broker error got %v", err)
	}
}
