package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/cafebooking/config"
	"github.com/Domenick1991/cafebooking/internal/cache"
	"github.com/Domenick1991/cafebooking/internal/email"
	"github.com/Domenick1991/cafebooking/internal/kafka"
	"github.com/Domenick1991/cafebooking/internal/logger"
	"github.com/Domenick1991/cafebooking/internal/notify"
	"github.com/Domenick1991/cafebooking/internal/queue"
	"github.com/Domenick1991/cafebooking/internal/repository"
	"github.com/Domenick1991/cafebooking/internal/service/booking"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
)

type consumer interface {
	Consume(ctx context.Context, handler func(context.Context, []byte) error) error
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

	location, err := cfg.Booking.Location()
	if err != nil {
		logger.Log.Fatalf("booking timezone: %v", err)
	}

	redisClient := cache.NewRedisClient(cfg.Redis)
	defer redisClient.Close()

	bookingRepo := repository.NewBookingRepository(pool, cfg.Booking.TxMaxRetries)
	cafeRepo := repository.NewCafeRepository(pool)
	handler := notify.NewHandler(cafeRepo, email.NewSender(cfg.SMTP))

	var (
		events   booking.Emitter = notify.NopEmitter{}
		messages consumer
	)
	switch cfg.Notifications.Driver {
	case config.DriverKafka:
		producer := notify.NewAsyncEmitter(kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.BookingEventsTopic), cfg.Notifications.PublishTimeout())
		defer producer.Close()
		events = producer

		kafkaConsumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.BookingEventsTopic)
		defer kafkaConsumer.Close()
		messages = kafkaConsumer
	case config.DriverRabbitMQ:
		producer := notify.NewAsyncEmitter(queue.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue), cfg.Notifications.PublishTimeout())
		defer producer.Close()
		events = producer

		messages = queue.NewConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
	}

	bookingService := booking.NewBookingService(
		bookingRepo,
		events,
		booking.WithAvailabilityCache(cache.NewRedisCache(redisClient, cfg.Booking.AvailabilityTTL())),
		booking.WithLocation(location),
	)

	scheduler := cron.New(cron.WithLocation(location))
	if _, err := scheduler.AddFunc(cfg.Booking.ReminderCron, func() {
		if _, err := bookingService.SendReminders(ctx); err != nil {
			logger.Log.WithError(err).Error("reminder sweep failed")
		}
	}); err != nil {
		logger.Log.Fatalf("schedule reminders %q: %v", cfg.Booking.ReminderCron, err)
	}
	scheduler.Start()
	logger.Log.WithField("schedule", cfg.Booking.ReminderCron).Info("reminder sweep scheduled")

	if messages != nil {
		go func() {
			if err := messages.Consume(ctx, handler.Handle); err != nil {
				logger.Log.WithError(err).Error("consumer stopped")
				stop()
			}
		}()
	} else {
		logger.Log.Info("notifications are disabled, no consumer started")
	}

	<-ctx.Done()
	logger.Log.Info("shutting down worker")
	<-scheduler.Stop().Done()
}
