package config

import "time"

// DateLayout is the wire format for calendar dates in paths and payloads.
const DateLayout = "2006-01-02"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "petmatch"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "3010"
	DefaultLogLevel = "info"

	DefaultKafkaVisitTopic = "petmatch.visitas"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Slot configuration fallbacks, same ranges the rule validator enforces.
	DefaultSlotMinutes          = 30
	DefaultMaxConcurrentVisits  = 2
	DefaultSlotLockTTL          = 10 * time.Second
	DefaultSlotLockRetryDelay   = 20 * time.Millisecond
	DefaultPaginationLimit      = 100
	DefaultPaginationFetchLimit = 10
)
