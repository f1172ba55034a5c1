// Package kafka adapts the command topic to the engine. One Reader
// feeding one service loop is what keeps the book single-writer: all
// mutating commands serialize through the consumer goroutine.
package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
)

type ReaderConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Reader consumes raw command messages from the order topic. Decoding
// is left to the service so the WAL and the wire share one payload
// format.
type Reader struct {
	kafkaReader *kafka.Reader
}

func NewReader(cfg ReaderConfig) *Reader {
	return &Reader{
		kafkaReader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.Brokers,
			Topic:       cfg.Topic,
			GroupID:     cfg.GroupID,
			MinBytes:    1,
			MaxBytes:    10e6,
			StartOffset: kafka.LastOffset,
		}),
	}
}

func (r *Reader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	return r.kafkaReader.ReadMessage(ctx)
}

func (r *Reader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	return r.kafkaReader.CommitMessages(ctx, msgs...)
}

func (r *Reader) Close() error {
	return r.kafkaReader.Close()
}
