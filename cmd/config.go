package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"turbodelivery/internal/core/application/dispatch"
	"turbodelivery/internal/core/application/presence"
	"turbodelivery/internal/core/application/usecases/commands"
	"turbodelivery/internal/jobs"
	"turbodelivery/internal/pkg/errs"
)

type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	JWTSecret string

	// KafkaBrokers empty means order events are only logged.
	KafkaBrokers          []string
	KafkaOrderEventsTopic string

	// RabbitMQURL empty means notifications stay on this instance.
	RabbitMQURL      string
	RabbitMQExchange string

	MaxDistanceKm           float64
	OfferTTL                time.Duration
	MaxOfferRounds          int
	PresencePersistInterval time.Duration

	ReofferSchedule       string
	ReofferBatch          int
	LocationFlushSchedule string

	ShutdownTimeout time.Duration
}

// LookupFunc reads one setting; os.LookupEnv in production.
type LookupFunc func(key string) (string, bool)

// ConfigFromEnv reads the configuration, falling back to defaults for unset keys.
func ConfigFromEnv(lookup LookupFunc) (Config, error) {
	r := reader{lookup: lookup}
	cfg := Config{
		HTTPPort:   r.str("HTTP_PORT", "8080"),
		DBHost:     r.str("DB_HOST", "localhost"),
		DBPort:     r.str("DB_PORT", "5432"),
		DBUser:     r.str("DB_USER", "postgres"),
		DBPassword: r.str("DB_PASSWORD", "postgres"),
		DBName:     r.str("DB_NAME", "turbodelivery"),
		DBSslMode:  r.str("DB_SSLMODE", "disable"),

		JWTSecret: r.str("JWT_SECRET", "turbo-delivery-secret"),

		KafkaBrokers:          r.list("KAFKA_BROKERS"),
		KafkaOrderEventsTopic: r.str("KAFKA_ORDER_EVENTS_TOPIC", "order.status-changed"),

		RabbitMQURL:      r.str("RABBITMQ_URL", ""),
		RabbitMQExchange: r.str("RABBITMQ_EXCHANGE", "turbodelivery.notifications"),

		MaxDistanceKm:           r.float("DISPATCH_MAX_DISTANCE_KM", 0),
		OfferTTL:                r.duration("DISPATCH_OFFER_TTL", dispatch.DefaultOfferTTL),
		MaxOfferRounds:          r.int("DISPATCH_MAX_ROUNDS", dispatch.DefaultMaxRounds),
		PresencePersistInterval: r.duration("PRESENCE_PERSIST_INTERVAL", presence.DefaultPersistInterval),

		ReofferSchedule:       r.str("JOB_REOFFER_SCHEDULE", jobs.DefaultReofferSchedule),
		ReofferBatch:          r.int("JOB_REOFFER_BATCH", commands.DefaultReofferBatch),
		LocationFlushSchedule: r.str("JOB_LOCATION_FLUSH_SCHEDULE", jobs.DefaultLocationFlushSchedule),

		ShutdownTimeout: r.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	if err := errors.Join(r.errs...); err != nil {
		return Config{}, err
	}
	if cfg.MaxDistanceKm < 0 {
		return Config{}, errs.NewValueIsOutOfRangeError("DISPATCH_MAX_DISTANCE_KM", cfg.MaxDistanceKm, 0, "+Inf")
	}
	return cfg, nil
}

// DSN is the libpq connection string used by both gorm and the migrations.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

type reader struct {
	lookup LookupFunc
	errs   []error
}

func (r *reader) str(key, def string) string {
	if v, ok := r.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (r *reader) list(key string) []string {
	var out []string
	for _, part := range strings.Split(r.str(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (r *reader) int(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, errs.NewValueIsInvalidErrorWithCause(key, err))
		return def
	}
	return n
}

func (r *reader) float(key string, def float64) float64 {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errs = append(r.errs, errs.NewValueIsInvalidErrorWithCause(key, err))
		return def
	}
	return f
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, errs.NewValueIsInvalidErrorWithCause(key, err))
		return def
	}
	return d
}
