package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/repricing/api"
	"github.com/Domenick1991/repricing/config"
	"github.com/Domenick1991/repricing/internal/bootstrap"
	"github.com/Domenick1991/repricing/internal/cache"
	"github.com/Domenick1991/repricing/internal/gateway"
	"github.com/Domenick1991/repricing/internal/kafka"
	"github.com/Domenick1991/repricing/internal/service/account"
	"github.com/Domenick1991/repricing/internal/service/airports"
	"github.com/Domenick1991/repricing/internal/service/repricing"
	"github.com/Domenick1991/repricing/internal/service/trips"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gw := gateway.NewClient(cfg.Upstream)

	var airportCache airports.Cache
	if cfg.Redis.Enabled() {
		client := cache.NewRedisClient(cfg.Redis)
		defer client.Close()
		airportCache = cache.NewRedisCache(client, time.Duration(cfg.Cache.AirportsTTLSeconds)*time.Second)
	}

	var repricingOpts []repricing.RepricingServiceOption
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := producer.CheckConnection(checkCtx); err != nil {
			log.Printf("kafka unavailable, repricing events will be dropped: %v", err)
		}
		cancel()
		repricingOpts = append(repricingOpts, repricing.WithEvents(producer, cfg.Kafka.RepricingTopic))
	}

	handlers := []api.Registrar{
		api.NewRepricingHandler(repricing.NewRepricingService(gw, repricingOpts...)),
		api.NewTripsHandler(trips.NewTripsService(gw)),
		api.NewAccountHandler(account.NewAccountService(gw, cfg.Tracking.FBPixelID)),
		api.NewAirportHandler(airports.NewAirportService(gw, airportCache)),
		api.NewClientConfigHandler(cfg.Tracking, cfg.Locale),
	}

	if err := bootstrap.Run(ctx, cfg, handlers...); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
