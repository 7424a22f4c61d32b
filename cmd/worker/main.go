package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/repricing/config"
	"github.com/Domenick1991/repricing/internal/kafka"
	"github.com/Domenick1991/repricing/internal/notify"
	"github.com/Domenick1991/repricing/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	if err := start(); err != nil {
		log.Printf("worker: %v", err)
		os.Exit(1)
	}
}

func start() error {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if !cfg.Kafka.Enabled() || !cfg.Database.Enabled() {
		return errors.New("worker needs kafka brokers and a database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer pool.Close()

	events := repository.NewRepricingEventRepository(pool)
	if err := events.EnsureSchema(ctx); err != nil {
		return err
	}

	consumer := kafka.NewEventConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.RepricingTopic)
	defer consumer.Close()

	w := &worker{
		source:     consumer,
		events:     events,
		notifier:   notify.NewNotifier(os.Stdout),
		sweepEvery: time.Duration(cfg.Worker.RetentionSweepMinutes) * time.Minute,
		retention:  time.Duration(cfg.Worker.EventRetentionDays) * 24 * time.Hour,
		now:        time.Now,
	}

	log.Printf("[worker] consuming %s as %s", cfg.Kafka.RepricingTopic, cfg.Kafka.GroupID)
	if err := w.run(ctx); err != nil {
		return err
	}
	log.Printf("[worker] shutting down")
	return nil
}
