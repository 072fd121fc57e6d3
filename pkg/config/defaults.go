package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "stayhub"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultJWTTTL = 7 * 24 * time.Hour

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Crash-safety expiry for reservation locks; normal release happens in
	// the same request.
	DefaultReserveLockTTL           = 10 * time.Second
	DefaultReserveLockRetryInterval = 50 * time.Millisecond
	DefaultReserveLockWaitTimeout   = 5 * time.Second

	DefaultBookingEventsTopic = "booking-events"
	DefaultPaymentEventsTopic = "payment-events"
	DefaultPaymentDLQTopic    = "dlq-bookings"
	DefaultConsumerGroup      = "bookings-service"

	DefaultPaginationLimit = 100
)
