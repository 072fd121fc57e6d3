package main

import (
	"stayhub/internal/bookings/consumer"
	"stayhub/internal/bookings/events"
	"stayhub/internal/bookings/handler"
	"stayhub/internal/bookings/repository"
	"stayhub/internal/bookings/service"
	"stayhub/internal/bookings/validator"
	"stayhub/pkg/app"
	"stayhub/pkg/client"
	"stayhub/pkg/config"
	"stayhub/pkg/kafka"
	kafka_config "stayhub/pkg/kafka/config"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Bookings service")

	publisher := initPublisher(cfg)
	defer publisher.Close()

	bookingService := initServices(cfg, publisher)

	serverApp := app.NewApplication(cfg, handler.NewBookingHandler(bookingService, cfg))
	if cfg.KafkaEnabled {
		paymentConsumer := initPaymentConsumer(cfg, bookingService)
		defer paymentConsumer.Close()
		serverApp.AddWorker(paymentConsumer.Start)
	}
	serverApp.Run()
}

func initServices(cfg *config.Config, publisher events.Publisher) service.BookingService {
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingRepo := repository.NewMongoBookingRepository(cfg)
	lockRepo := repository.NewReservationLockRepository(cfg)

	// An empty URL disables the catalog existence check; bookings then
	// trust the property ID as given.
	var properties *client.PropertyClient
	if cfg.PropertyServiceURL != "" {
		properties = client.NewPropertyClient(cfg.PropertyServiceURL)
	}

	bookingService := service.NewBookingService(
		bookingRepo,
		lockRepo,
		bookingValidator,
		properties,
		publisher,
		cfg,
	)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookingService
}

func initPublisher(cfg *config.Config) events.Publisher {
	if !cfg.KafkaEnabled {
		return events.NoopPublisher{}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(func(msg string, args ...any) {
		cfg.Log.Info(msg, args...)
	})

	producer, err := kafka.NewProducer(kafkaCfg, cfg.BookingEventsTopic, "")
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	return events.NewKafkaPublisher(producer, cfg.Log)
}

func initPaymentConsumer(cfg *config.Config, svc service.BookingService) *consumer.PaymentConsumer {
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}

	paymentConsumer, err := consumer.NewPaymentConsumer(
		kafkaCfg,
		cfg.PaymentEventsTopic,
		cfg.ConsumerGroup,
		cfg.PaymentDLQTopic,
		svc,
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create payment consumer", "error", err)
	}
	return paymentConsumer
}
