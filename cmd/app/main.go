package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/cafebooking/config"
	"github.com/Domenick1991/cafebooking/internal/bootstrap"
	"github.com/Domenick1991/cafebooking/internal/cache"
	"github.com/Domenick1991/cafebooking/internal/kafka"
	"github.com/Domenick1991/cafebooking/internal/logger"
	"github.com/Domenick1991/cafebooking/internal/notify"
	"github.com/Domenick1991/cafebooking/internal/queue"
	"github.com/Domenick1991/cafebooking/internal/repository"
	"github.com/Domenick1991/cafebooking/internal/service/availability"
	"github.com/Domenick1991/cafebooking/internal/service/booking"
	"github.com/jackc/pgx/v5/pgxpool"
)

type emitter interface {
	booking.Emitter
	Close() error
}

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Log.Fatalf("load config: %v", err)
	}
	logFile, err := logger.Init(cfg.Log)
	if err != nil {
		logger.Log.Fatalf("init logger: %v", err)
	}
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(ctx, pool); err != nil {
			logger.Log.Fatalf("migrate: %v", err)
		}
	}

	location, err := cfg.Booking.Location()
	if err != nil {
		logger.Log.Fatalf("booking timezone: %v", err)
	}

	redisClient := cache.NewRedisClient(cfg.Redis)
	defer redisClient.Close()
	redisCache := cache.NewRedisCache(redisClient, cfg.Booking.AvailabilityTTL())

	events := newEmitter(ctx, cfg)
	defer events.Close()

	bookingRepo := repository.NewBookingRepository(pool, cfg.Booking.TxMaxRetries)
	cafeRepo := repository.NewCafeRepository(pool)

	bookingService := booking.NewBookingService(
		bookingRepo,
		events,
		booking.WithAvailabilityCache(redisCache),
		booking.WithLocation(location),
		booking.WithListLimits(cfg.Booking.ListDefaultLimit, cfg.Booking.ListMaxLimit),
	)
	availabilityService := availability.NewAvailabilityService(cafeRepo, redisCache, location)

	err = bootstrap.Run(ctx, cfg, bootstrap.Deps{
		Bookings:     bookingService,
		Availability: availabilityService,
		Managers:     cafeRepo,
		Redis:        redisClient,
	})
	if err != nil {
		logger.Log.Errorf("server error: %v", err)
		return
	}
	logger.Log.Info("server stopped")
}

func newEmitter(ctx context.Context, cfg *config.Config) emitter {
	switch cfg.Notifications.Driver {
	case config.DriverKafka:
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.BookingEventsTopic)
		if err := producer.CheckConnection(ctx); err != nil {
			logger.Log.WithError(err).Warn("kafka is unreachable at startup")
		}
		return notify.NewAsyncEmitter(producer, cfg.Notifications.PublishTimeout())
	case config.DriverRabbitMQ:
		return notify.NewAsyncEmitter(queue.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue), cfg.Notifications.PublishTimeout())
	default:
		logger.Log.Info("booking notifications are disabled")
		return notify.NopEmitter{}
	}
}
