package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/miradorstack/mirador-scheduler/internal/models"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisherWritesKeyedJSON(t *testing.T) {
	w := &recordingWriter{}
	pub := newKafkaPublisher(w, time.Second, slog.Default())
	evt := SlotsProposed{
		RunID:           "run-1",
		GeneratedAt:     time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
		DurationMinutes: 30,
		LocationType:    models.LocationVirtual,
		Slots:           []models.CandidateSlot{{Score: 110, Reasons: []string{"[+] Optimal time slot (+15)"}}},
	}

	if err := pub.PublishSlotsProposed(context.Background(), evt); err != nil {
		t.Fatalf("PublishSlotsProposed: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "run-1" {
		t.Fatalf("expected run id key, got %q", msg.Key)
	}
	var decoded SlotsProposed
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if decoded.DurationMinutes != 30 || len(decoded.Slots) != 1 {
		t.Fatalf("unexpected payload: %+v", decoded)
	}

	if err := pub.Close(); err != nil || !w.closed {
		t.Fatalf("Close should close the writer")
	}
}

func TestKafkaPublisherWrapsWriteErrors(t *testing.T) {
	boom := errors.New("broker down")
	pub := newKafkaPublisher(&recordingWriter{err: boom}, time.Second, slog.Default())
	if err := pub.PublishSlotsProposed(context.Background(), SlotsProposed{RunID: "x"}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped broker error, got %v", err)
	}
}

func TestNewKafkaPublisherValidates(t *testing.T) {
	if _, err := NewKafkaPublisher(KafkaConfig{Topic: "t"}, nil); err == nil {
		t.Fatalf("expected error without brokers")
	}
	if _, err := NewKafkaPublisher(KafkaConfig{Brokers: []string{"localhost:9092"}}, nil); err == nil {
		t.Fatalf("expected error without topic")
	}
}
