package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"campusres/internal/bookings/validator"
	"campusres/internal/notifications/service"
	"campusres/pkg/config"
	"campusres/pkg/kafka"
	kafka_config "campusres/pkg/kafka/config"
	kafka_middleware "campusres/pkg/kafka/middleware"
	"campusres/pkg/obs"
)

const ServiceName = "notifier"

func main() {
	cfg := config.Load(ServiceName)
	cfg.LogConfiguration()

	shutdownTracer, err := obs.InitTracer(cfg, ServiceName)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize tracing", "error", err)
	}

	dispatcher := initDispatcher(cfg)
	handler := service.NewHandler(dispatcher, validator.NewBookingValidator(cfg.Log), cfg.DispatchTimeout, cfg.Log)

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.ReservationEventsTopic,
		cfg.NotifierGroupID,
		cfg.NotificationsDLQTopic,
		handler.Handle,
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	consumer.Use(kafka_middleware.TracingConsumerMiddleware())
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting Notifier service",
		"topic", cfg.ReservationEventsTopic,
		"group_id", cfg.NotifierGroupID,
		"dispatcher", cfg.Dispatcher,
	)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped unexpectedly", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close consumer", "error", err)
	}
	if err := dispatcher.Close(); err != nil {
		cfg.Log.Error("Failed to close dispatcher", "error", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		cfg.Log.Error("Failed to flush traces", "error", err)
	}
	cfg.Log.Info("Notifier stopped")
}

func initDispatcher(cfg *config.Config) service.Dispatcher {
	switch cfg.Dispatcher {
	case config.DispatcherAMQP:
		d, err := service.NewAMQPDispatcher(cfg.RabbitMQURL, cfg.NotificationsExchange, cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to connect notification broker", "error", err)
		}
		return d
	default:
		return service.NewLogDispatcher(cfg.Log)
	}
}
