package fanout

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"

	"github.com/gaswatch-project/gaswatch/internal/alerting"
)

type stubKafkaWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
}

func (w *stubKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)

	return nil
}

type stubKafkaReader struct {
	messages  []kafka.Message
	committed []int64
}

func (r *stubKafkaReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.messages) == 0 {
		return kafka.Message{}, io.EOF
	}

	msg := r.messages[0]
	r.messages = r.messages[1:]

	return msg, nil
}

func (r *stubKafkaReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}

	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	writer := &stubKafkaWriter{}
	publisher := NewKafkaPublisher(writer)
	event := alerting.AlertEvent{GasLevel: 950, GeneratedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), ReadingID: 42, DeviceID: "d7"}

	assert.NoError(t, publisher.Publish(context.Background(), event))

	assert.Len(t, writer.messages, 1)
	assert.Equal(t, "42", string(writer.messages[0].Key))

	var decoded alerting.AlertEvent
	assert.NoError(t, json.Unmarshal(writer.messages[0].Value, &decoded))
	assert.Equal(t, event, decoded)
}

func TestKafkaPublisher_HandlerSwallowsErrors(t *testing.T) {
	writer := &stubKafkaWriter{err: errors.New("broker unavailable")}
	handler := NewKafkaPublisher(writer).Handler()

	assert.NotPanics(t, func() {
		handler(context.Background(), alerting.NewAlertEvent(1, "d1", 800))
	})
}

func TestKafkaConsumer_Run(t *testing.T) {
	event := alerting.AlertEvent{GasLevel: 720, GeneratedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), ReadingID: 3, DeviceID: "d1"}
	value, _ := json.Marshal(event)

	reader := &stubKafkaReader{messages: []kafka.Message{
		{Offset: 1, Value: value},
		{Offset: 2, Value: []byte("not json")},
	}}
	handler := &recordingHandler{}

	err := NewKafkaConsumer(reader, handler).Run(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, []alerting.AlertEvent{event}, handler.events)
	assert.Equal(t, []int64{1, 2}, reader.committed)
}

func TestKafkaConfigValidation(t *testing.T) {
	_, err := NewKafkaWriter(KafkaConfig{Topic: DefaultKafkaTopic, GroupID: DefaultKafkaGroupID})
	assert.Error(t, err)

	_, err = NewKafkaReader(KafkaConfig{Brokers: []string{"kafka:9092"}, GroupID: DefaultKafkaGroupID})
	assert.Error(t, err)

	writer, err := NewKafkaWriter(KafkaConfig{Brokers: []string{"kafka:9092"}, Topic: DefaultKafkaTopic, GroupID: DefaultKafkaGroupID})
	assert.NoError(t, err)
	assert.Equal(t, DefaultKafkaTopic, writer.Topic)
}
