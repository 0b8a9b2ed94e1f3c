package sensors

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTopic    = "gaswatch/readings/+"
	DefaultClientID = "gaswatch-web"

	connectTimeout = 10 * time.Second
	ingestTimeout  = 10 * time.Second
	quiesceMillis  = 250
)

// Reading is a measurement as published by a sensor on the broker.
type Reading struct {
	DeviceID   string
	GasLevel   *int64
	CapturedAt time.Time
}

// IngestFunc stores a reading received from the broker.
type IngestFunc func(ctx context.Context, reading Reading) error

type Config struct {
	Broker   string
	Topic    string
	ClientID string
	QoS      byte
}

type message struct {
	DeviceID  string     `json:"deviceId"`
	GasLevel  *int64     `json:"gas_level"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Listener subscribes to the readings topic and forwards every decoded message to
// the ingestion pipeline.
type Listener struct {
	config *Config
	client mqtt.Client
	ingest IngestFunc
}

func NewListener(config *Config, ingest IngestFunc) (*Listener, error) {
	if strings.TrimSpace(config.Broker) == "" {
		return nil, errors.New("mqtt broker address is required")
	}
	if config.Topic == "" {
		config.Topic = DefaultTopic
	}
	if config.ClientID == "" {
		config.ClientID = DefaultClientID
	}

	l := &Listener{config: config, ingest: ingest}

	opts := mqtt.NewClientOptions().
		AddBroker(config.Broker).
		SetClientID(config.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetOnConnectHandler(l.subscribe).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warnf("Connection to the mqtt broker lost: %s", err)
		})
	l.client = mqtt.NewClient(opts)

	return l, nil
}

// Start connects to the broker. The subscription is renewed on every reconnection.
func (l *Listener) Start() error {
	log.Infof("Connecting to the mqtt broker %s...", l.config.Broker)

	token := l.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return errors.Errorf("timed out connecting to the mqtt broker %s", l.config.Broker)
	}
	if err := token.Error(); err != nil {
		return errors.Wrap(err, "could not connect to the mqtt broker")
	}

	return nil
}

func (l *Listener) Stop() {
	if l.client.IsConnected() {
		l.client.Disconnect(quiesceMillis)
	}
	log.Info("Mqtt listener stopped.")
}

func (l *Listener) subscribe(client mqtt.Client) {
	token := client.Subscribe(l.config.Topic, l.config.QoS, l.HandleMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		log.Errorf("Could not subscribe to %s: %s", l.config.Topic, err)
		return
	}

	log.Infof("Listening for readings on %s", l.config.Topic)
}

// HandleMessage decodes one broker message and ingests it. Messages without a
// deviceId take it from the last level of the topic.
func (l *Listener) HandleMessage(_ mqtt.Client, msg mqtt.Message) {
	reading, err := decode(msg)
	if err != nil {
		log.Errorf("Discarding message on %s: %s", msg.Topic(), err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	if err := l.ingest(ctx, reading); err != nil {
		log.Errorf("Could not ingest the reading of device %s: %s", reading.DeviceID, err)
	}
}

func decode(msg mqtt.Message) (Reading, error) {
	var m message
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		return Reading{}, errors.Wrap(err, "invalid reading payload")
	}

	reading := Reading{
		DeviceID: m.DeviceID,
		GasLevel: m.GasLevel,
	}
	if m.Timestamp != nil {
		reading.CapturedAt = *m.Timestamp
	}

	if strings.TrimSpace(reading.DeviceID) == "" {
		levels := strings.Split(msg.Topic(), "/")
		reading.DeviceID = levels[len(levels)-1]
	}

	return reading, nil
}
