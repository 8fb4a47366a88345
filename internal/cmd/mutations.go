package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal"

	"instafeed/internal/core"
	"instafeed/internal/feed"
	"instafeed/internal/media"
	"instafeed/internal/mutation"
)

var postCmd = &cli.Command{
	Name:  "post",
	Usage: "Create a post, optionally uploading an image",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "text", Usage: "The post text"},
		&cli.StringFlag{Name: "image", Usage: "A local image file to upload"},
	},
	Action: func(ctx context.Context, c *cli.Command) error {
		return runOnce(ctx, c, pal.Provide(&poster{
			text:  c.String("text"),
			image: c.String("image"),
		}))
	},
}

var likeCmd = &cli.Command{
	Name:      "like",
	Usage:     "Toggle the like of the acting user on a post",
	ArgsUsage: "<post id>",
	Action: func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() != 1 {
			return fmt.Errorf("%w: expected a post id", core.ErrValidation)
		}
		return runOnce(ctx, c, pal.Provide(&liker{postID: c.Args().First()}))
	},
}

var commentCmd = &cli.Command{
	Name:      "comment",
	Usage:     "Comment on a post",
	ArgsUsage: "<post id> <text>",
	Action: func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() != 2 {
			return fmt.Errorf("%w: expected a post id and a text", core.ErrValidation)
		}
		return runOnce(ctx, c, pal.Provide(&commenter{
			postID: c.Args().Get(0),
			text:   c.Args().Get(1),
		}))
	},
}

var registerCmd = &cli.Command{
	Name:  "register",
	Usage: "Store a user profile, uploading the avatar",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "name", Usage: "The full name", Required: true},
		&cli.StringFlag{Name: "email", Usage: "The email address", Required: true},
		&cli.StringFlag{Name: "avatar", Usage: "A local image file used as the profile photo", Required: true},
	},
	Action: func(ctx context.Context, c *cli.Command) error {
		return runOnce(ctx, c, pal.Provide(&registrar{
			name:   c.String("name"),
			email:  c.String("email"),
			avatar: c.String("avatar"),
		}))
	},
}

type poster struct {
	Logger      *slog.Logger
	Coordinator *mutation.Coordinator
	Uploader    *media.Uploader

	text  string
	image string
}

func (p *poster) Run(ctx context.Context) error {
	imageURL, err := p.Uploader.UploadFile(ctx, p.image)
	if err != nil {
		return err
	}

	id, err := p.Coordinator.CreatePost(ctx, p.text, imageURL)
	if err != nil {
		return err
	}

	p.Logger.Info("post created", "id", id)
	return printJSON(map[string]string{"id": id, "imageUrl": imageURL})
}

type liker struct {
	Logger       *slog.Logger
	Coordinator  *mutation.Coordinator
	Synchronizer *feed.Synchronizer
	Identity     core.IdentityProvider

	postID string
}

func (l *liker) Run(ctx context.Context) error {
	snapshot, err := l.Synchronizer.First(ctx)
	if err != nil {
		return err
	}

	post, ok := snapshot.Find(l.postID)
	if !ok {
		return fmt.Errorf("%w: post %s", core.ErrNotFound, l.postID)
	}

	liked := false
	if actor, ok := l.Identity.CurrentIdentity(); ok {
		liked = post.LikedBy(actor.ID)
	}

	if err := l.Coordinator.ToggleLike(ctx, l.postID, liked); err != nil {
		return err
	}

	l.Logger.Info("like toggled", "post", l.postID, "liked", !liked)
	return printJSON(map[string]any{"id": l.postID, "liked": !liked})
}

type commenter struct {
	Logger      *slog.Logger
	Coordinator *mutation.Coordinator

	postID string
	text   string
}

func (c *commenter) Run(ctx context.Context) error {
	comment, err := c.Coordinator.AddComment(ctx, c.postID, c.text)
	if err != nil {
		return err
	}

	c.Logger.Info("comment added", "post", c.postID)
	return printJSON(comment)
}

type registrar struct {
	Logger      *slog.Logger
	Coordinator *mutation.Coordinator
	Uploader    *media.Uploader

	name   string
	email  string
	avatar string
}

func (r *registrar) Run(ctx context.Context) error {
	photoURL, err := r.Uploader.UploadFile(ctx, r.avatar)
	if err != nil {
		return err
	}

	id, err := r.Coordinator.CreateProfile(ctx, core.Profile{
		FullName: r.name,
		Email:    r.email,
		PhotoURL: photoURL,
	})
	if err != nil {
		return err
	}

	r.Logger.Info("profile created", "id", id)
	return printJSON(map[string]string{"id": id, "photoURL": photoURL})
}

func printJSON(v any) error {
	return json.NewEncoder(os.Stdout).Encode(v)
}
