package config

import (
	"campusres/pkg/client"
	"campusres/pkg/logger"
	"campusres/pkg/model"
	"campusres/pkg/sanitizer"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration
	StoreTimeout      time.Duration

	Port        string
	Environment string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	AdvanceNoticeDays int
	TimeZone          string
	Location          *time.Location
	FacilitySessions  map[model.FacilityType][]model.SessionDefinition
	TransitionRoles   []string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int

	ReservationEventsTopic string
	NotificationsDLQTopic  string
	NotifierGroupID        string

	Dispatcher            string
	RabbitMQURL           string
	NotificationsExchange string
	DispatchTimeout       time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	TracingEnabled bool
	OTLPEndpoint   string

	Log    *logger.Logger
	Client *client.Client

	loadErrors []string
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),
		StoreTimeout:      getEnvDuration(EnvStoreTimeout, DefaultStoreTimeout),

		Port:        getEnvStr(EnvPort, DefaultPort),
		Environment: getEnvStr(EnvEnv, DefaultEnv),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		AdvanceNoticeDays: getEnvNum(EnvAdvanceNoticeDays, DefaultAdvanceNoticeDays),
		TimeZone:          getEnvStr(EnvTimeZone, DefaultTimeZone),
		TransitionRoles:   getEnvList(EnvTransitionRoles, DefaultTransitionRoles),

		OutboxPollInterval: getEnvDuration(EnvOutboxPollInterval, DefaultOutboxPollInterval),
		OutboxBatchSize:    getEnvNum(EnvOutboxBatchSize, DefaultOutboxBatchSize),
		OutboxMaxAttempts:  getEnvNum(EnvOutboxMaxAttempts, DefaultOutboxMaxAttempts),

		ReservationEventsTopic: getEnvStr(EnvReservationEventsTopic, DefaultReservationEventsTopic),
		NotificationsDLQTopic:  getEnvStr(EnvNotificationsDLQTopic, DefaultNotificationsDLQTopic),
		NotifierGroupID:        getEnvStr(EnvNotifierGroupID, DefaultNotifierGroupID),

		Dispatcher:            getEnvStr(EnvDispatcher, DefaultDispatcher),
		RabbitMQURL:           getEnvStr(EnvRabbitMQURL, DefaultRabbitMQURL),
		NotificationsExchange: getEnvStr(EnvNotificationsExchange, DefaultNotificationsExchange),
		DispatchTimeout:       getEnvDuration(EnvDispatchTimeout, DefaultDispatchTimeout),

		RedisAddr:     getEnvStr(EnvRedisAddr, ""),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),

		TracingEnabled: getEnvBool(EnvTracingEnabled, DefaultTracingEnabled),
		OTLPEndpoint:   getEnvStr(EnvOTLPEndpoint, DefaultOTLPEndpoint),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	sessions, err := ParseFacilitySessions(os.Getenv(EnvFacilitySessions))
	if err != nil {
		cfg.loadErrors = append(cfg.loadErrors, err.Error())
		sessions = DefaultFacilitySessions
	}
	cfg.FacilitySessions = sessions

	if loc, err := time.LoadLocation(cfg.TimeZone); err != nil {
		cfg.loadErrors = append(cfg.loadErrors, fmt.Sprintf("TimeZone %q could not be loaded: %v", cfg.TimeZone, err))
	} else {
		cfg.Location = loc
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// ParseFacilitySessions decodes a JSON object of facility type to session list.
// An empty string yields the defaults.
func ParseFacilitySessions(raw string) (map[model.FacilityType][]model.SessionDefinition, error) {
	if strings.TrimSpace(raw) == "" {
		return DefaultFacilitySessions, nil
	}
	var sessions map[model.FacilityType][]model.SessionDefinition
	if err := json.Unmarshal([]byte(raw), &sessions); err != nil {
		return nil, fmt.Errorf("FacilitySessions must be a JSON object of facility to sessions: %v", err)
	}
	return sessions, nil
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// SetRedis connects the idempotency cache when REDIS_ADDR is configured.
func (cfg *Config) SetRedis() {
	if cfg.RedisAddr == "" {
		cfg.Log.Info("Redis not configured, using in-memory idempotency store")
		return
	}
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MongoConnTimeout)
}

// SessionsFor returns the configured sessions of facility.
func (cfg *Config) SessionsFor(facility model.FacilityType) []model.SessionDefinition {
	if sessions, ok := cfg.FacilitySessions[facility]; ok {
		return sessions
	}
	return DefaultFacilitySessions[facility]
}

// Today is the current calendar date in the institution's time zone.
func (cfg *Config) Today(now time.Time) time.Time {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

func (cfg *Config) CanTransition(role string) bool {
	for _, r := range cfg.TransitionRoles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

func (cfg *Config) Validate() error {
	errors := append([]string{}, cfg.loadErrors...)

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	positiveDurations := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"StoreTimeout", cfg.StoreTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"OutboxPollInterval", cfg.OutboxPollInterval},
		{"DispatchTimeout", cfg.DispatchTimeout},
	}
	for _, d := range positiveDurations {
		if d.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.AdvanceNoticeDays < 0 {
		errors = append(errors, fmt.Sprintf("AdvanceNoticeDays cannot be negative, got: %d", cfg.AdvanceNoticeDays))
	}
	if cfg.OutboxBatchSize <= 0 {
		errors = append(errors, fmt.Sprintf("OutboxBatchSize must be positive, got: %d", cfg.OutboxBatchSize))
	}
	if cfg.OutboxMaxAttempts <= 0 {
		errors = append(errors, fmt.Sprintf("OutboxMaxAttempts must be positive, got: %d", cfg.OutboxMaxAttempts))
	}
	if len(cfg.TransitionRoles) == 0 {
		errors = append(errors, "TransitionRoles must name at least one role")
	}
	if cfg.Dispatcher != DispatcherLog && cfg.Dispatcher != DispatcherAMQP {
		errors = append(errors, fmt.Sprintf("Dispatcher must be one of [%s, %s], got: %s", DispatcherLog, DispatcherAMQP, cfg.Dispatcher))
	}
	if cfg.ReservationEventsTopic == "" {
		errors = append(errors, "ReservationEventsTopic cannot be empty")
	}

	errors = append(errors, validateSessions(cfg.FacilitySessions)...)

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func validateSessions(sessions map[model.FacilityType][]model.SessionDefinition) []string {
	var errors []string
	for facility, defs := range sessions {
		if !facility.IsValid() {
			errors = append(errors, fmt.Sprintf("FacilitySessions names unknown facility %q", facility))
			continue
		}
		for _, def := range defs {
			start, startErr := model.ParseClock(def.Start)
			end, endErr := model.ParseClock(def.End)
			if startErr != nil || endErr != nil || start != def.Start || end != def.End {
				errors = append(errors, fmt.Sprintf("FacilitySessions %s/%s must use zero-padded HH:MM times", facility, def.Type))
				continue
			}
			if start >= end {
				errors = append(errors, fmt.Sprintf("FacilitySessions %s/%s must start before it ends", facility, def.Type))
			}
		}
	}
	return errors
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"store_timeout", cfg.StoreTimeout,
		"port", cfg.Port,
		"environment", cfg.Environment,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"advance_notice_days", cfg.AdvanceNoticeDays,
		"time_zone", cfg.TimeZone,
		"transition_roles", cfg.TransitionRoles,
		"outbox_poll_interval", cfg.OutboxPollInterval,
		"outbox_batch_size", cfg.OutboxBatchSize,
		"reservation_events_topic", cfg.ReservationEventsTopic,
		"dispatcher", cfg.Dispatcher,
		"rabbitmq_url", redactURI(cfg.RabbitMQURL),
		"dispatch_timeout", cfg.DispatchTimeout,
		"redis_configured", cfg.RedisAddr != "",
		"tracing_enabled", cfg.TracingEnabled,
	)
}

func redactURI(uri string) string {
	credentialRegex := regexp.MustCompile(`([a-z+]+://)[^:/@]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	return sanitizer.SanitizeSlice(strings.Split(getEnvStr(key, fallback), ","), sanitizer.TrimAndNormalize)
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log, cfg.ShutdownTimeout)
}
