// Package bridge ships decode results to external systems.
//
// The Kafka bridge publishes decoded lines to a Kafka topic so existing
// log pipelines (indexers, alerting, retention) can consume recovered
// mobile logs the same way they consume server logs.
//
// # Message Mapping
//
// One decoded line becomes one Kafka message:
//   - Key: the source container path (keeps one file's lines in one
//     partition, preserving their relative order)
//   - Value: the line text, including inline "[F]" diagnostic markers
//
// Delivery is at-least-once; the bridge does not deduplicate across
// retries.
package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"logcask/internal/logging"
)

// Default configuration values for the Kafka shipper.
const (
	// DefaultShipBatchSize bounds how many lines are written per
	// WriteMessages call.
	DefaultShipBatchSize = 500
	// DefaultWriteTimeout is the timeout for one batch write.
	DefaultWriteTimeout = 10 * time.Second
)

// lineWriter is the part of kafka.Writer the shipper uses; tests
// substitute a fake.
type lineWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Shipper publishes decoded lines to a Kafka topic.
type Shipper struct {
	writer    lineWriter
	batchSize int
	log       *logging.Logger
}

// NewShipper creates a Shipper for the given brokers and topic.
func NewShipper(brokers []string, topic string) *Shipper {
	return &Shipper{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			WriteTimeout: DefaultWriteTimeout,
			BatchTimeout: 50 * time.Millisecond,
		},
		batchSize: DefaultShipBatchSize,
		log:       logging.NewLogger("bridge"),
	}
}

// Ship publishes one file's decoded lines. Lines are written in order,
// in bounded batches; the first failed batch aborts the rest.
func (s *Shipper) Ship(ctx context.Context, path string, lines []string) error {
	for start := 0; start < len(lines); start += s.batchSize {
		end := start + s.batchSize
		if end > len(lines) {
			end = len(lines)
		}
		if err := s.writer.WriteMessages(ctx, buildMessages(path, lines[start:end])...); err != nil {
			return fmt.Errorf("bridge: ship %s lines %d-%d: %w", path, start, end-1, err)
		}
	}
	s.log.Info("shipped decoded lines", "path", path, "lines", len(lines))
	return nil
}

// Close flushes and closes the underlying writer.
func (s *Shipper) Close() error {
	return s.writer.Close()
}

func buildMessages(path string, lines []string) []kafka.Message {
	msgs := make([]kafka.Message, len(lines))
	for i, line := range lines {
		msgs[i] = kafka.Message{
			Key:   []byte(path),
			Value: []byte(line),
		}
	}
	return msgs
}
