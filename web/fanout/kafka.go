package fanout

import (
	"context"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"github.com/gaswatch-project/gaswatch/internal/alerting"
)

const (
	DefaultKafkaTopic   = "gaswatch.alerts"
	DefaultKafkaGroupID = "gaswatch-fanout"

	kafkaPublishTimeout = 5 * time.Second
	kafkaFetchBackoff   = time.Second
)

type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

func (c KafkaConfig) validate() error {
	if len(c.Brokers) == 0 {
		return errors.New("at least one kafka broker is required")
	}
	if strings.TrimSpace(c.Topic) == "" {
		return errors.New("kafka alerts topic must not be empty")
	}
	if strings.TrimSpace(c.GroupID) == "" {
		return errors.New("kafka consumer group must not be empty")
	}

	return nil
}

// kafkaMessageWriter mirrors the subset of kafka.Writer used by the publisher.
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// kafkaMessageReader mirrors the subset of kafka.Reader used by the consumer.
type kafkaMessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

func NewKafkaWriter(config KafkaConfig) (*kafka.Writer, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	return &kafka.Writer{
		Addr:                   kafka.TCP(config.Brokers...),
		Topic:                  config.Topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}, nil
}

func NewKafkaReader(config KafkaConfig) (*kafka.Reader, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  config.Brokers,
		GroupID:  config.GroupID,
		Topic:    config.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	}), nil
}

// KafkaPublisher relays alert events to a topic, so that the fan-out pass runs on
// whichever instance of the consumer group picks the message up.
type KafkaPublisher struct {
	writer kafkaMessageWriter
}

func NewKafkaPublisher(writer kafkaMessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event alerting.AlertEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "could not encode the alert event")
	}

	ctx, cancel := context.WithTimeout(ctx, kafkaPublishTimeout)
	defer cancel()

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(event.ReadingID), 10)),
		Value: value,
		Time:  event.GeneratedAt,
	})
}

// Handler adapts the publisher to the worker pool.
func (p *KafkaPublisher) Handler() Handler {
	return func(ctx context.Context, event alerting.AlertEvent) {
		if err := p.Publish(ctx, event); err != nil {
			log.Errorf("could not publish the alert for reading %d: %s", event.ReadingID, err)
		}
	}
}

type KafkaConsumer struct {
	reader  kafkaMessageReader
	handler AlertHandler
}

func NewKafkaConsumer(reader kafkaMessageReader, handler AlertHandler) *KafkaConsumer {
	return &KafkaConsumer{reader: reader, handler: handler}
}

// Run consumes alert events until ctx is cancelled or the reader is closed. Every
// message is committed once handled, undecodable ones included, since fan-out is best effort.
func (c *KafkaConsumer) Run(ctx context.Context) error {
	log.Info("Starting the alerts consumer...")
	defer log.Info("Alerts consumer stopped.")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, kafka.ErrGroupClosed) {
				return nil
			}

			log.Errorf("could not fetch an alert message: %s", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(kafkaFetchBackoff):
			}
			continue
		}

		var event alerting.AlertEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Errorf("can't decode alert message at offset %d: %s", msg.Offset, err)
		} else {
			c.handler.DispatchAlert(ctx, event)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			log.Errorf("could not commit alert message at offset %d: %s", msg.Offset, err)
		}
	}
}
