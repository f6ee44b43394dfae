package main

import (
	"context"

	availabilityHandler "campusres/internal/availability/handler"
	availabilityService "campusres/internal/availability/service"
	blockedRepository "campusres/internal/blockeddates/repository"
	"campusres/internal/bookings/handler"
	"campusres/internal/bookings/repository"
	"campusres/internal/bookings/service"
	"campusres/internal/bookings/validator"
	"campusres/internal/notifications/outbox"
	"campusres/pkg/app"
	"campusres/pkg/config"
	"campusres/pkg/kafka"
	kafka_config "campusres/pkg/kafka/config"
	kafka_middleware "campusres/pkg/kafka/middleware"
	"campusres/pkg/obs"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)
	cfg.LogConfiguration()

	cfg.SetMongo()
	cfg.SetRedis()

	shutdownTracer, err := obs.InitTracer(cfg, ServiceName)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize tracing", "error", err)
	}

	cfg.Log.Info("Starting Reservations service")

	bookings := repository.NewMongoBookingRepository(cfg)
	outboxRepo := repository.NewMongoOutboxRepository(cfg)
	availability := availabilityService.NewAvailabilityService(
		bookings,
		blockedRepository.NewMongoBlockedDateRepository(cfg),
		cfg,
	)
	bookingService := service.NewBookingService(
		bookings,
		repository.NewSlotGuardRepository(cfg),
		outboxRepo,
		availability,
		validator.NewBookingValidator(cfg.Log),
		cfg,
	)

	producer := initProducer(cfg)
	relay := outbox.NewRelay(outboxRepo, producer, cfg)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		handler.NewHealthHandler(cfg.Client.Mongo, cfg.Log),
		handler.NewBookingHandler(bookingService, cfg.Log),
		availabilityHandler.NewAvailabilityHandler(availability, cfg.Log),
	)
	serverApp.AddWorker("outbox-relay", relay.Run)
	serverApp.OnShutdown("kafka-producer", func(context.Context) error {
		return producer.Close()
	})
	serverApp.OnShutdown("tracer", shutdownTracer)
	serverApp.OnShutdown("clients", func(context.Context) error {
		cfg.GracefulShutdown()
		return nil
	})
	serverApp.Run()
}

func initProducer(cfg *config.Config) *kafka.Producer {
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.ReservationEventsTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.TracingProducerMiddleware())
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))

	cfg.Log.Info("Outbox relay publisher ready", "topic", cfg.ReservationEventsTopic)
	return producer
}
