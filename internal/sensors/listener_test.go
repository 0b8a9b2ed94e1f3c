package sensors

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 0 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 1 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

type ingestRecorder struct {
	mu       sync.Mutex
	readings []Reading
	err      error
}

func (r *ingestRecorder) ingest(_ context.Context, reading Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readings = append(r.readings, reading)
	return r.err
}

func newTestListener(t *testing.T, recorder *ingestRecorder) *Listener {
	l, err := NewListener(&Config{Broker: "tcp://127.0.0.1:1883"}, recorder.ingest)
	require.NoError(t, err)
	return l
}

func TestNewListener_Defaults(t *testing.T) {
	config := &Config{Broker: "tcp://127.0.0.1:1883"}
	_, err := NewListener(config, func(context.Context, Reading) error { return nil })
	require.NoError(t, err)

	assert.Equal(t, DefaultTopic, config.Topic)
	assert.Equal(t, DefaultClientID, config.ClientID)
}

func TestNewListener_MissingBroker(t *testing.T) {
	_, err := NewListener(&Config{}, func(context.Context, Reading) error { return nil })
	assert.Error(t, err)
}

func TestHandleMessage(t *testing.T) {
	recorder := &ingestRecorder{}
	l := newTestListener(t, recorder)

	l.HandleMessage(nil, &fakeMessage{
		topic:   "gaswatch/readings/kitchen",
		payload: []byte(`{"deviceId":"d1","gas_level":812,"timestamp":"2024-03-01T10:00:00Z"}`),
	})

	require.Len(t, recorder.readings, 1)
	reading := recorder.readings[0]
	assert.Equal(t, "d1", reading.DeviceID)
	require.NotNil(t, reading.GasLevel)
	assert.Equal(t, int64(812), *reading.GasLevel)
	assert.True(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC).Equal(reading.CapturedAt))
}

func TestHandleMessage_DeviceFromTopic(t *testing.T) {
	recorder := &ingestRecorder{}
	l := newTestListener(t, recorder)

	l.HandleMessage(nil, &fakeMessage{
		topic:   "gaswatch/readings/kitchen",
		payload: []byte(`{"gas_level":12}`),
	})

	require.Len(t, recorder.readings, 1)
	assert.Equal(t, "kitchen", recorder.readings[0].DeviceID)
	assert.True(t, recorder.readings[0].CapturedAt.IsZero())
}

func TestHandleMessage_MissingGasLevelIsForwarded(t *testing.T) {
	recorder := &ingestRecorder{}
	l := newTestListener(t, recorder)

	l.HandleMessage(nil, &fakeMessage{
		topic:   "gaswatch/readings/kitchen",
		payload: []byte(`{"deviceId":"d1"}`),
	})

	require.Len(t, recorder.readings, 1)
	assert.Nil(t, recorder.readings[0].GasLevel)
}

func TestHandleMessage_InvalidPayload(t *testing.T) {
	recorder := &ingestRecorder{}
	l := newTestListener(t, recorder)

	l.HandleMessage(nil, &fakeMessage{topic: "gaswatch/readings/d1", payload: []byte(`not json`)})
	l.HandleMessage(nil, &fakeMessage{topic: "gaswatch/readings/d1", payload: []byte(`{"gas_level":12.5}`)})

	assert.Empty(t, recorder.readings)
}

func TestHandleMessage_IngestErrorIsSwallowed(t *testing.T) {
	recorder := &ingestRecorder{err: errors.New("boom")}
	l := newTestListener(t, recorder)

	assert.NotPanics(t, func() {
		l.HandleMessage(nil, &fakeMessage{topic: "gaswatch/readings/d1", payload: []byte(`{"gas_level":1}`)})
	})
	assert.Len(t, recorder.readings, 1)
}
