package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jdelmundo/flightreserve/config"
	"github.com/jdelmundo/flightreserve/internal/cache"
	"github.com/jdelmundo/flightreserve/internal/email"
	"github.com/jdelmundo/flightreserve/internal/kafka"
	"github.com/jdelmundo/flightreserve/internal/logger"
	"github.com/jdelmundo/flightreserve/internal/repository"
	"github.com/joho/godotenv"
	kafkaGo "github.com/segmentio/kafka-go"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logg := logger.New(cfg.Log.Level, "flightreserve-worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(
		cfg.Redis,
		time.Duration(cfg.Booking.FlightsCacheTTLSeconds)*time.Second,
		time.Duration(cfg.Booking.SeatMapCacheTTLSeconds)*time.Second,
	)
	flightRepo := repository.NewFlightRepository(pool)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	emailSender := email.NewSender()

	go func() {
		if err := consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var event kafka.ReservationEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				logg.Error("decode event", "error", err)
				return nil
			}
			return emailSender.Send(ctx, event)
		}); err != nil {
			logg.Error("consumer stopped", "error", err)
		}
	}()

	// Periodically re-warm the flights cache so seat-map pages do not
	// all stampede Postgres when the TTL lapses.
	refreshTicker := time.NewTicker(time.Duration(cfg.Worker.FlightsRefreshMinutes) * time.Minute)
	defer refreshTicker.Stop()

	for {
		select {
		case <-refreshTicker.C:
			flights, err := flightRepo.List(ctx)
			if err != nil {
				logg.Error("refresh flights cache", "error", err)
				continue
			}
			if err := redisCache.SetFlights(ctx, flights); err != nil {
				logg.Error("store flights cache", "error", err)
				continue
			}
			logg.Info("flights cache refreshed", "count", len(flights))
		case <-ctx.Done():
			logg.Info("shutting down")
			return
		}
	}
}
