package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"instafeed/internal/config"
	"instafeed/internal/core"
	"instafeed/internal/identity"
)

var tokenCmd = &cli.Command{
	Name:  "token",
	Usage: "Issue an identity token signed with INSTAFEED_JWT_SECRET",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "sub", Usage: "The user id", Required: true},
		&cli.StringFlag{Name: "name", Usage: "The display name"},
		&cli.StringFlag{Name: "picture", Usage: "The avatar URL"},
		&cli.DurationFlag{Name: "ttl", Usage: "The token lifetime, 0 means no expiry"},
	},
	Action: func(ctx context.Context, c *cli.Command) error {
		secrets := config.Secrets{}
		if err := secrets.Init(ctx); err != nil {
			return err
		}

		token, err := identity.NewTokens(secrets.JWTSecret, c.Duration("ttl")).Issue(core.Identity{
			ID:          c.String("sub"),
			DisplayName: c.String("name"),
			AvatarURL:   c.String("picture"),
		})
		if err != nil {
			return err
		}

		fmt.Println(token)
		return nil
	},
}
