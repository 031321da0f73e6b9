package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvJWTSecret = "JWT_KEY"

	EnvKafkaBrokers    = "KAFKA_BROKERS"
	EnvKafkaVisitTopic = "KAFKA_VISIT_TOPIC"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvDefaultSlotMinutes   = "DEFAULT_SLOT_MINUTES"
	EnvDefaultMaxConcurrent = "DEFAULT_MAX_CONCURRENT_VISITS"

	EnvSlotLockTTL        = "SLOT_LOCK_TTL"
	EnvSlotLockRetryDelay = "SLOT_LOCK_RETRY_DELAY"
)
