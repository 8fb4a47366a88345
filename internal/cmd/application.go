package cmd

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal"

	"instafeed/internal/cmd/flags"
	"instafeed/internal/config"
	"instafeed/internal/core"
	"instafeed/internal/feed"
	"instafeed/internal/identity"
	"instafeed/internal/media"
	"instafeed/internal/mutation"
	"instafeed/internal/nats"
	"instafeed/internal/persistence"
	"instafeed/internal/store/memory"
	"instafeed/pkg/clicfg"
)

const VERSION = "0.1.0"

var cmd = &cli.Command{
	Name:    "instafeed",
	Usage:   "Instafeed keeps a live, normalized photo feed in sync and posts, likes and comments on it",
	Version: VERSION,
	Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
		if err := initLogger(c.String("log-level")); err != nil {
			return ctx, err
		}
		return ctx, nil
	},
	Flags: []cli.Flag{
		flags.LogLevel,
		flags.Store,
		flags.NATSUrl,
		flags.InitNATS,
		flags.NATSBucket,
		flags.BadgerPath,
		flags.Optimistic,
		flags.PostPolicy,
		flags.Token,
		flags.CloudinaryCloud,
		flags.CloudinaryPreset,
		flags.CloudinaryURL,
		flags.UploadTimeout,
	},
	Commands: []*cli.Command{
		watchCmd,
		postCmd,
		likeCmd,
		commentCmd,
		registerCmd,
		tokenCmd,
		serveCmd,
	},
}

func Run() {
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c *cli.Command, services ...pal.ServiceDef) error {
	return start(ctx, c, false, services...)
}

// runOnce runs a command that exits after a single mutation.
func runOnce(ctx context.Context, c *cli.Command, services ...pal.ServiceDef) error {
	return start(ctx, c, true, services...)
}

func start(ctx context.Context, c *cli.Command, oneShot bool, services ...pal.ServiceDef) error {
	cfg := config.Config{OneShot: oneShot}
	if err := clicfg.ParseFlags(c, &cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	services = append(services,
		pal.Provide(&cfg),
		pal.Provide(&config.Secrets{}),
		storeProvider(&cfg),
		pal.Provide[core.IdentityProvider](&identity.Bearer{}),
		pal.Provide(feed.NewOverlay()),
		pal.Provide(&feed.Synchronizer{}),
		pal.Provide(&mutation.Coordinator{}),
		pal.Provide(&media.Uploader{}),
	)

	return pal.New(services...).
		InjectSlog().
		InitTimeout(5*time.Second).
		HealthCheckTimeout(1*time.Second).
		ShutdownTimeout(10*time.Second).
		Run(ctx, syscall.SIGINT, syscall.SIGTERM)
}

func storeProvider(cfg *config.Config) pal.ServiceDef {
	switch cfg.Store {
	case config.StoreNATS:
		return nats.Provide()
	case config.StoreBadger:
		return persistence.Provide()
	default:
		return pal.Provide[core.DocumentStore](memory.New())
	}
}
