package broadcast

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/smartfactory/smartfactory/internal/types"
)

const kafkaWriteTimeout = 5 * time.Second

// messageWriter is the subset of *kafka.Writer the relay uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaRelay copies every alert event onto a Kafka topic for downstream
// consumers. Writes are asynchronous; failures are only logged.
type KafkaRelay struct {
	writer messageWriter
	topic  string
	key    []byte
	logger zerolog.Logger
}

// NewKafkaRelay creates an async producer for topic
func NewKafkaRelay(brokers []string, topic string, logger zerolog.Logger) (*KafkaRelay, error) {
	var brokerList []string
	for _, b := range brokers {
		if b = strings.TrimSpace(b); b != "" {
			brokerList = append(brokerList, b)
		}
	}
	if len(brokerList) == 0 {
		return nil, fmt.Errorf("kafka relay needs at least one broker")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka relay needs a topic")
	}

	logger = logger.With().Str("component", "kafka").Str("topic", topic).Logger()
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokerList...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: kafkaWriteTimeout,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				logger.Warn().Err(err).Int("messages", len(msgs)).Msg("Kafka delivery failed")
			}
		},
	}

	logger.Info().Strs("brokers", brokerList).Msg("Kafka relay configured")
	return newKafkaRelay(writer, topic, logger), nil
}

func newKafkaRelay(w messageWriter, topic string, logger zerolog.Logger) *KafkaRelay {
	// one key keeps every event on one partition, in publish order
	return &KafkaRelay{writer: w, topic: topic, key: []byte(topic), logger: logger}
}

func (k *KafkaRelay) BroadcastCreated(alert types.Alert) {
	k.publish(EventNewAlert, alert)
}

func (k *KafkaRelay) BroadcastDeleted(id uint) {
	k.publish(EventAlertDeleted, id)
}

func (k *KafkaRelay) BroadcastCleared() {
	k.publish(EventAlertsCleared, nil)
}

func (k *KafkaRelay) publish(event string, data interface{}) {
	value, err := Encode(event, data)
	if err != nil {
		k.logger.Error().Err(err).Str("event", event).Msg("Failed to encode event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), kafkaWriteTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:   k.key,
		Value: value,
		Time:  time.Now(),
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		k.logger.Warn().Err(err).Str("event", event).Msg("Failed to queue event")
	}
}

// Close flushes pending messages and closes the writer
func (k *KafkaRelay) Close() error {
	if err := k.writer.Close(); err != nil {
		return fmt.Errorf("closing kafka writer: %w", err)
	}
	return nil
}
