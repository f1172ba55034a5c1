// Package config loads engine configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config represents the engine configuration.
type Config struct {
	App      AppConfig      `envPrefix:"APP_"`
	Kafka    KafkaConfig    `envPrefix:"KAFKA_"`
	WAL      WALConfig      `envPrefix:"WAL_"`
	Outbox   OutboxConfig   `envPrefix:"OUTBOX_"`
	Snapshot SnapshotConfig `envPrefix:"SNAPSHOT_"`
	Memory   MemoryConfig   `envPrefix:"MEMORY_"`
}

// AppConfig identifies the engine instance. One process serves one
// instrument.
type AppConfig struct {
	Name       string `env:"NAME" envDefault:"njord"`
	Instrument string `env:"INSTRUMENT" envDefault:"BTC-USD"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
}

// KafkaConfig covers both the inbound command topic and the outbound
// trade topic.
type KafkaConfig struct {
	Brokers       []string `env:"BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	OrderTopic    string   `env:"ORDER_TOPIC" envDefault:"orders"`
	TradeTopic    string   `env:"TRADE_TOPIC" envDefault:"trades"`
	ConsumerGroup string   `env:"CONSUMER_GROUP" envDefault:"njord-engine"`
}

type WALConfig struct {
	Dir             string        `env:"DIR" envDefault:"data/wal"`
	SegmentSize     int64         `env:"SEGMENT_SIZE" envDefault:"67108864"`
	SegmentDuration time.Duration `env:"SEGMENT_DURATION" envDefault:"15m"`
}

type OutboxConfig struct {
	Dir string `env:"DIR" envDefault:"data/outbox"`
}

type SnapshotConfig struct {
	Dir      string        `env:"DIR" envDefault:"data/snapshot"`
	Interval time.Duration `env:"INTERVAL" envDefault:"1m"`
}

// MemoryConfig sizes the order pool machinery. RingSize must be a
// power of two.
type MemoryConfig struct {
	RingSize      uint64        `env:"RING_SIZE" envDefault:"65536"`
	EpochInterval time.Duration `env:"EPOCH_INTERVAL" envDefault:"100ms"`
}

// Load loads the configuration from the environment.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}
