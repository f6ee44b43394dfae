package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"
	EnvStoreTimeout      = "STORE_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"
	EnvEnv      = "ENV"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvAdvanceNoticeDays = "ADVANCE_NOTICE_DAYS"
	EnvTimeZone          = "TIME_ZONE"
	EnvFacilitySessions  = "FACILITY_SESSIONS"
	EnvTransitionRoles   = "TRANSITION_ROLES"

	EnvOutboxPollInterval = "OUTBOX_POLL_INTERVAL"
	EnvOutboxBatchSize    = "OUTBOX_BATCH_SIZE"
	EnvOutboxMaxAttempts  = "OUTBOX_MAX_ATTEMPTS"

	EnvReservationEventsTopic = "RESERVATION_EVENTS_TOPIC"
	EnvNotificationsDLQTopic  = "NOTIFICATIONS_DLQ_TOPIC"
	EnvNotifierGroupID        = "NOTIFIER_GROUP_ID"

	EnvDispatcher            = "DISPATCHER"
	EnvRabbitMQURL           = "RABBITMQ_URL"
	EnvNotificationsExchange = "NOTIFICATIONS_EXCHANGE"
	EnvDispatchTimeout       = "DISPATCH_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvTracingEnabled = "TRACING_ENABLED"
	EnvOTLPEndpoint   = "OTEL_EXPORTER_OTLP_ENDPOINT"
)
