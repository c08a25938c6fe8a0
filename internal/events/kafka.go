package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaSink struct {
	w messageWriter
}

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{w: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}}
}

// Deliver keys messages by entity and id so updates to one row stay ordered
// within a partition.
func (s *KafkaSink) Deliver(ctx context.Context, evt Event) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return s.w.WriteMessages(ctx, kafka.Message{
		Key:     []byte(evt.Entity + ":" + evt.ID),
		Value:   value,
		Time:    evt.At,
		Headers: []kafka.Header{{Key: "type", Value: []byte(evt.Type)}},
	})
}

func (s *KafkaSink) Close() error {
	return s.w.Close()
}
