package cmd

import (
	"context"

	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal"

	"instafeed/internal/api"
	"instafeed/internal/cmd/flags"
	"instafeed/internal/metrics"
)

var serveCmd = &cli.Command{
	Name:  "serve",
	Usage: "Serve the feed over websockets and accept mutations over HTTP",
	Flags: []cli.Flag{
		flags.APIAddr,
		flags.MetricsAddr,
	},
	Action: func(ctx context.Context, c *cli.Command) error {
		return run(ctx, c,
			pal.Provide(&api.Server{}),
			pal.Provide(&metrics.Server{}),
		)
	},
}
