package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/k0kubun/pp"
	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal"
	"github.com/zhulik/pips"

	"instafeed/internal/api"
	"instafeed/internal/config"
	"instafeed/internal/feed"
)

var watchCmd = &cli.Command{
	Name:  "watch",
	Usage: "Subscribe to the feed and print every snapshot",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty print snapshots instead of JSON lines",
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Stop after this many snapshots, 0 means never",
		},
		&cli.StringFlag{
			Name:  "remote",
			Usage: "Watch the feed of a running server instead, e.g. ws://localhost:8888/v1/feed",
		},
	},
	Action: func(ctx context.Context, c *cli.Command) error {
		return run(ctx, c,
			pal.Provide(&watcher{
				pretty: c.Bool("pretty"),
				limit:  c.Int("limit"),
				remote: c.String("remote"),
			}),
		)
	},
}

type watcher struct {
	Logger       *slog.Logger
	Config       *config.Config
	Synchronizer *feed.Synchronizer

	pretty bool
	limit  int
	remote string
}

func (w *watcher) Run(ctx context.Context) error {
	ch, stop, err := w.subscribe(ctx)
	if err != nil {
		return err
	}
	defer stop()

	count := 0
	for d := range ch {
		snapshot, err := d.Unpack()
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if err := w.print(snapshot); err != nil {
			return err
		}

		count++
		if w.limit > 0 && count >= w.limit {
			return nil
		}
	}
	return nil
}

func (w *watcher) subscribe(ctx context.Context) (<-chan pips.D[feed.Snapshot], func(), error) {
	if w.remote != "" {
		w.Logger.Info("watching remote feed", "url", w.remote)
		ctx, cancel := context.WithCancel(ctx)
		ch, err := api.Subscribe(ctx, w.remote, w.Config.Token)
		if err != nil {
			cancel()
			return nil, nil, err
		}
		return ch, cancel, nil
	}

	w.Logger.Info("watching feed", "store", w.Config.Store)
	sub := w.Synchronizer.Subscribe(ctx)
	return sub.C(), sub.Unsubscribe, nil
}

func (w *watcher) print(snapshot feed.Snapshot) error {
	if w.pretty {
		_, err := pp.Println(snapshot)
		return err
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}
