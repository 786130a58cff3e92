package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jdelmundo/flightreserve/config"
	"github.com/jdelmundo/flightreserve/internal/bootstrap"
	"github.com/jdelmundo/flightreserve/internal/cache"
	"github.com/jdelmundo/flightreserve/internal/kafka"
	"github.com/jdelmundo/flightreserve/internal/logger"
	"github.com/jdelmundo/flightreserve/internal/metrics"
	"github.com/jdelmundo/flightreserve/internal/repository"
	"github.com/jdelmundo/flightreserve/internal/service/flights"
	"github.com/jdelmundo/flightreserve/internal/service/reservation"
	"github.com/joho/godotenv"
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

	logg := logger.New(cfg.Log.Level, "flightreserve-api")

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
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	m := metrics.New()

	flightRepo := repository.NewFlightRepository(pool)
	reservationRepo := repository.NewReservationRepository(pool)
	flightService := flights.NewFlightService(flightRepo, redisCache)
	reservationService := reservation.NewReservationService(
		reservationRepo,
		flightRepo,
		redisCache,
		producer,
		logg,
		cfg.Kafka.ReservationsTopic,
		time.Duration(cfg.Booking.SeatHoldTTLSeconds)*time.Second,
		cfg.Booking.CreateRetries,
		reservation.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		reservation.WithMetrics(m),
	)

	if err := bootstrap.Run(ctx, cfg, logg, flightService, reservationService); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
