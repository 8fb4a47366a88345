package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"instafeed/internal/config"
	"instafeed/internal/core"
)

func validConfig() config.Config {
	return config.Config{
		LogLevel:   "info",
		Store:      config.StoreMemory,
		PostPolicy: "require-content",
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		require.NoError(t, cfg.Validate())
	})

	t.Run("unknown store", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.Store = "postgres"
		require.ErrorIs(t, cfg.Validate(), core.ErrValidation)
	})

	t.Run("nats requires a bucket", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.Store = config.StoreNATS
		cfg.NATSURL = "nats://127.0.0.1:4222"
		require.ErrorIs(t, cfg.Validate(), core.ErrValidation)

		cfg.NATSBucket = "instafeed"
		require.NoError(t, cfg.Validate())
	})

	t.Run("one shot commands reject the memory store", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.OneShot = true
		err := cfg.Validate()
		require.ErrorIs(t, err, core.ErrValidation)
		require.ErrorIs(t, err, config.ErrEphemeralStore)

		cfg.Store = config.StoreBadger
		require.NoError(t, cfg.Validate())
	})
}

func TestSecrets_Init(t *testing.T) {
	t.Setenv("INSTAFEED_JWT_SECRET", "s3cret")

	secrets := config.Secrets{}
	require.NoError(t, secrets.Init(t.Context()))
	require.Equal(t, "s3cret", secrets.JWTSecret)
}
