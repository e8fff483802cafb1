// Package stream publishes daily price records to a Kafka topic.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"price_backend/internal/feature/prices/domain/entity"
	"price_backend/internal/feature/prices/usecase"
)

// Config holds the broker list and topic. An empty Brokers list disables publishing.
type Config struct {
	Brokers []string
	Topic   string
}

// LoadConfig loads KAFKA_BROKERS (comma separated) and KAFKA_TOPIC.
func LoadConfig() Config {
	cfg := Config{Topic: os.Getenv("KAFKA_TOPIC")}
	for _, b := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.Brokers = append(cfg.Brokers, b)
		}
	}
	if cfg.Topic == "" {
		cfg.Topic = "daily-price-records"
	}
	return cfg
}

// Enabled reports whether a broker is configured.
func (c Config) Enabled() bool { return len(c.Brokers) > 0 }

// MessageWriter is the subset of *kafka.Writer used by the publisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewWriter は同期書き込みの kafka.Writer を返します。送信失敗をサイクルの結果に反映するため Async は使いません。
func NewWriter(cfg Config) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Compression:  kafka.Zstd,
	}
}

// RecordPublisher は日次レコードを日付をキーとして1メッセージで発行します。
type RecordPublisher struct {
	w MessageWriter
}

var _ usecase.RecordForwarder = (*RecordPublisher)(nil)

func NewRecordPublisher(w MessageWriter) *RecordPublisher {
	return &RecordPublisher{w: w}
}

func (p *RecordPublisher) Name() string { return "record_stream" }

func (p *RecordPublisher) Forward(ctx context.Context, record *entity.DailyPriceRecord) error {
	b, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(record.Date),
		Value: b,
		Time:  time.Now().UTC(),
	})
}
