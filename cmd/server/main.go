package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"njord/config"
	"njord/domain/book"
	"njord/infra/kafka"
	"njord/infra/memory"
	"njord/infra/sequence"
	"njord/infra/wal/entry"
	"njord/infra/wal/outbox"
	"njord/jobs/broadcaster"
	"njord/service"
	"njord/snapshot"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	logger, err := newLogger(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting engine",
		zap.String("name", cfg.App.Name),
		zap.String("instrument", cfg.App.Instrument),
	)

	// ---------------- Entry WAL ----------------

	wal, err := entry.Open(entry.Config{
		Dir:             cfg.WAL.Dir,
		SegmentSize:     cfg.WAL.SegmentSize,
		SegmentDuration: cfg.WAL.SegmentDuration,
	})
	if err != nil {
		logger.Fatal("entry WAL init failed", zap.Error(err))
	}
	defer wal.Close()

	// ---------------- Outbox ----------------

	ob, err := outbox.Open(cfg.Outbox.Dir)
	if err != nil {
		logger.Fatal("outbox init failed", zap.Error(err))
	}
	defer ob.Close()

	// ---------------- Memory / Sequencing ----------------

	pool := memory.NewPool(func() *book.Order {
		return &book.Order{}
	})
	ring := memory.NewRetireRing(cfg.Memory.RingSize)
	reader := snapshot.NewReader()
	seqGen := sequence.New(0)

	// ---------------- Command inlet ----------------

	cmdReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.OrderTopic,
		GroupID: cfg.Kafka.ConsumerGroup,
	})
	defer cmdReader.Close()

	// ---------------- Service ----------------

	svc := service.New(service.Deps{
		Pool:             pool,
		Ring:             ring,
		Reader:           reader,
		Sequencer:        seqGen,
		WAL:              wal,
		Outbox:           ob,
		Log:              logger,
		Commands:         cmdReader,
		SnapshotDir:      cfg.Snapshot.Dir,
		SnapshotInterval: cfg.Snapshot.Interval,
	})

	// ---------------- Recovery ----------------

	if err := svc.Recover(cfg.Snapshot.Dir, cfg.WAL.Dir); err != nil {
		logger.Fatal("recovery failed", zap.Error(err))
	}

	// ---------------- Background jobs ----------------

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(cfg.Memory.EpochInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				svc.AdvanceEpoch()
			}
		}
	}()

	bc, err := broadcaster.New(ob, cfg.Kafka.Brokers, cfg.Kafka.TradeTopic, 500*time.Millisecond, logger)
	if err != nil {
		logger.Fatal("broadcaster init failed", zap.Error(err))
	}
	defer bc.Close()
	go bc.Run(ctx)

	// ---------------- Command loop ----------------

	logger.Info("engine running",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("order_topic", cfg.Kafka.OrderTopic),
		zap.String("trade_topic", cfg.Kafka.TradeTopic),
	)

	if err := svc.Run(ctx); err != nil {
		logger.Fatal("command loop exited", zap.Error(err))
	}

	logger.Info("engine stopped")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	return cfg.Build()
}
