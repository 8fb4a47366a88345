package clicfg_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"instafeed/pkg/clicfg"
)

type embedded struct {
	Tags []string `flag:"tag"`
}

type testConfig struct {
	embedded

	Name    string        `flag:"name"`
	Enabled bool          `flag:"enabled"`
	Timeout time.Duration `flag:"timeout"`
	Level   slog.Level    `flag:"level"`
	Ignored string
}

func TestParseFlags(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig{}
		cmd := &cli.Command{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "name"},
				&cli.BoolFlag{Name: "enabled"},
				&cli.DurationFlag{Name: "timeout", Value: time.Second},
				&cli.StringFlag{Name: "level"},
				&cli.StringSliceFlag{Name: "tag"},
			},
			Action: func(_ context.Context, c *cli.Command) error {
				return clicfg.ParseFlags(c, &cfg)
			},
		}

		require.NoError(t, cmd.Run(t.Context(), []string{
			"test", "--name", "feed", "--enabled", "--timeout", "3s", "--level", "warn", "--tag", "a", "--tag", "b",
		}))
		require.Equal(t, testConfig{
			embedded: embedded{Tags: []string{"a", "b"}},
			Name:     "feed",
			Enabled:  true,
			Timeout:  3 * time.Second,
			Level:    slog.LevelWarn,
		}, cfg)
	})

	t.Run("not a pointer", func(t *testing.T) {
		t.Parallel()

		err := clicfg.ParseFlags(&cli.Command{}, testConfig{})
		require.ErrorIs(t, err, clicfg.ErrCannotParseFlags)
	})
}

func TestParseFlags_Unsupported(t *testing.T) {
	t.Parallel()

	var cfg struct {
		Ports []int `flag:"port"`
	}

	cmd := &cli.Command{
		Name: "test",
		Action: func(_ context.Context, c *cli.Command) error {
			return clicfg.ParseFlags(c, &cfg)
		},
	}

	require.ErrorIs(t, cmd.Run(t.Context(), []string{"test"}), clicfg.ErrCannotParseFlags)
}
