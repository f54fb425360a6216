package cmd_test

import (
	"testing"
	"time"

	"turbodelivery/cmd"
	"turbodelivery/internal/pkg/errs"

	"github.com/stretchr/testify/require"
)

func env(values map[string]string) cmd.LookupFunc {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Run("should fall back to defaults", func(t *testing.T) {
		cfg, err := cmd.ConfigFromEnv(env(nil))

		require.NoError(t, err)
		require.Equal(t, "8080", cfg.HTTPPort)
		require.Equal(t, "turbo-delivery-secret", cfg.JWTSecret)
		require.Equal(t, 60*time.Second, cfg.OfferTTL)
		require.Equal(t, 5, cfg.MaxOfferRounds)
		require.Equal(t, 30*time.Second, cfg.PresencePersistInterval)
		require.Empty(t, cfg.KafkaBrokers)
		require.Empty(t, cfg.RabbitMQURL)
	})

	t.Run("should read overrides", func(t *testing.T) {
		cfg, err := cmd.ConfigFromEnv(env(map[string]string{
			"HTTP_PORT":                 "9090",
			"KAFKA_BROKERS":             "kafka-1:9092, kafka-2:9092,",
			"DISPATCH_MAX_DISTANCE_KM":  "7.5",
			"DISPATCH_OFFER_TTL":        "45s",
			"PRESENCE_PERSIST_INTERVAL": "1m",
			"DB_HOST":                   "db",
		}))

		require.NoError(t, err)
		require.Equal(t, "9090", cfg.HTTPPort)
		require.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
		require.InDelta(t, 7.5, cfg.MaxDistanceKm, 1e-9)
		require.Equal(t, 45*time.Second, cfg.OfferTTL)
		require.Equal(t, time.Minute, cfg.PresencePersistInterval)
		require.Contains(t, cfg.DSN(), "host=db port=5432")
	})

	t.Run("should report every malformed value", func(t *testing.T) {
		_, err := cmd.ConfigFromEnv(env(map[string]string{
			"DISPATCH_OFFER_TTL":  "soon",
			"DISPATCH_MAX_ROUNDS": "many",
		}))

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		require.ErrorContains(t, err, "DISPATCH_OFFER_TTL")
		require.ErrorContains(t, err, "DISPATCH_MAX_ROUNDS")
	})

	t.Run("should reject a negative distance limit", func(t *testing.T) {
		_, err := cmd.ConfigFromEnv(env(map[string]string{"DISPATCH_MAX_DISTANCE_KM": "-1"}))

		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	})
}
