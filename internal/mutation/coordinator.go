package mutation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"instafeed/internal/config"
	"instafeed/internal/core"
	"instafeed/internal/feed"
)

const (
	opToggleLike    = "toggle_like"
	opAddComment    = "add_comment"
	opCreatePost    = "create_post"
	opCreateProfile = "create_profile"

	anonymousName = "Anonymous"
)

var validate = validator.New()

// Coordinator turns user intents into store patches on behalf of the current identity. It never touches the
// materialized feed: effects become visible with the next pushed snapshot, or earlier through the Overlay when
// optimistic updates are enabled.
type Coordinator struct {
	Logger   *slog.Logger
	Store    core.DocumentStore
	Identity core.IdentityProvider
	Overlay  *feed.Overlay
	Config   *config.Config

	policy       PostPolicy
	optimistic   bool
	stopIdentity func()
}

type Option func(*Coordinator)

func WithPolicy(policy PostPolicy) Option {
	return func(c *Coordinator) {
		c.policy = policy
	}
}

// WithOverlay enables optimistic like updates through overlay.
func WithOverlay(overlay *feed.Overlay) Option {
	return func(c *Coordinator) {
		c.Overlay = overlay
		c.optimistic = true
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.Logger = logger
	}
}

func New(store core.DocumentStore, identity core.IdentityProvider, opts ...Option) *Coordinator {
	c := &Coordinator{
		Store:    store,
		Identity: identity,
		policy:   PolicyRequireContent,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Init(context.Background()) //nolint:errcheck
	return c
}

func (c *Coordinator) Init(_ context.Context) error {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	c.Logger = c.Logger.With("component", "mutation.Coordinator")

	if c.policy == "" {
		c.policy = PolicyRequireContent
	}

	if c.Config != nil {
		policy, err := ParsePostPolicy(c.Config.PostPolicy)
		if err != nil {
			return err
		}
		c.policy = policy
		c.optimistic = c.Config.Optimistic
	}

	if c.Identity != nil {
		c.stopIdentity = c.Identity.OnIdentityChange(func(id *core.Identity) {
			if id == nil {
				c.Logger.Info("signed out, mutations are rejected until the next sign in")
				return
			}
			c.Logger.Info("signed in", "id", id.ID)
		})
	}

	return nil
}

func (c *Coordinator) Shutdown(_ context.Context) error {
	if c.stopIdentity != nil {
		c.stopIdentity()
	}
	return nil
}

// As returns a copy of the coordinator acting for identity.
func (c *Coordinator) As(identity core.IdentityProvider) *Coordinator {
	copied := *c
	copied.Identity = identity
	return &copied
}

// ToggleLike flips the like state of the current identity on postID. liked is the state the caller observed.
// The store applies a set union or difference, so repeating a toggle with the same observed state is harmless.
func (c *Coordinator) ToggleLike(ctx context.Context, postID string, liked bool) error {
	actor, err := c.actor(opToggleLike)
	if err != nil {
		return err
	}
	if postID == "" {
		return c.reject(opToggleLike, fmt.Errorf("%w: post id is required", core.ErrValidation))
	}

	patch := core.ArrayUnion("likes", actor.ID)
	if liked {
		patch = core.ArrayRemove("likes", actor.ID)
	}

	if c.overlay() != nil {
		c.Overlay.SetLike(postID, actor.ID, !liked)
	}

	err = c.submit(ctx, opToggleLike, func(ctx context.Context) error {
		return c.Store.Patch(ctx, core.PostsCollection, postID, patch)
	})
	if err != nil && c.overlay() != nil {
		c.Overlay.Discard(postID, actor.ID)
	}
	return err
}

// AddComment appends a comment by the current identity. Blank text is rejected without contacting the store.
func (c *Coordinator) AddComment(ctx context.Context, postID, text string) (core.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return core.Comment{}, c.reject(opAddComment, fmt.Errorf("%w: comment text is blank", core.ErrValidation))
	}

	actor, err := c.actor(opAddComment)
	if err != nil {
		return core.Comment{}, err
	}
	if postID == "" {
		return core.Comment{}, c.reject(opAddComment, fmt.Errorf("%w: post id is required", core.ErrValidation))
	}

	comment := core.Comment{
		AuthorID:     actor.ID,
		AuthorName:   orDefault(actor.DisplayName, anonymousName),
		AuthorAvatar: orDefault(actor.AvatarURL, feed.DefaultAvatarURL),
		Text:         text,
		CreatedAt:    time.Now().UTC(),
	}
	if err := validate.Struct(comment); err != nil {
		return core.Comment{}, c.reject(opAddComment, fmt.Errorf("%w: %w", core.ErrValidation, err))
	}

	err = c.submit(ctx, opAddComment, func(ctx context.Context) error {
		return c.Store.Patch(ctx, core.PostsCollection, postID, core.ArrayAppend("comments", comment))
	})
	if err != nil {
		return core.Comment{}, err
	}
	return comment, nil
}

// CreatePost creates a post authored by the current identity and returns its id. Author fields are copied at call
// time, createdAt is assigned by the store.
func (c *Coordinator) CreatePost(ctx context.Context, text, imageURL string) (string, error) {
	actor, err := c.actor(opCreatePost)
	if err != nil {
		return "", err
	}
	if err := c.policy.Validate(text, imageURL); err != nil {
		return "", c.reject(opCreatePost, err)
	}

	fields := map[string]any{
		"userId":      actor.ID,
		"userName":    orDefault(actor.DisplayName, anonymousName),
		"userProfile": actor.AvatarURL,
		"text":        text,
		"imageUrl":    imageURL,
		"createdAt":   core.ServerTime,
		"likes":       []string{},
		"comments":    []core.Comment{},
	}

	var id string
	err = c.submit(ctx, opCreatePost, func(ctx context.Context) error {
		id, err = c.Store.CreateDocument(ctx, core.PostsCollection, fields)
		return err
	})
	return id, err
}

// CreateProfile stores a user profile. A profile photo is required. The current identity, if any, is recorded as
// the owner.
func (c *Coordinator) CreateProfile(ctx context.Context, profile core.Profile) (string, error) {
	if err := validate.Struct(profile); err != nil {
		return "", c.reject(opCreateProfile, fmt.Errorf("%w: %w", core.ErrValidation, err))
	}

	fields := map[string]any{
		"fullName":  profile.FullName,
		"email":     profile.Email,
		"photoURL":  profile.PhotoURL,
		"createdAt": core.ServerTime,
	}
	if c.Identity != nil {
		if actor, ok := c.Identity.CurrentIdentity(); ok {
			fields["userId"] = actor.ID
		}
	}

	var id string
	err := c.submit(ctx, opCreateProfile, func(ctx context.Context) error {
		var err error
		id, err = c.Store.CreateDocument(ctx, core.ProfilesCollection, fields)
		return err
	})
	return id, err
}

func (c *Coordinator) actor(op string) (core.Identity, error) {
	if c.Identity != nil {
		if actor, ok := c.Identity.CurrentIdentity(); ok && actor.ID != "" {
			return actor, nil
		}
	}
	return core.Identity{}, c.reject(op, fmt.Errorf("%w: please sign in", core.ErrUnauthenticated))
}

func (c *Coordinator) overlay() *feed.Overlay {
	if !c.optimistic {
		return nil
	}
	return c.Overlay
}

func (c *Coordinator) reject(op string, err error) error {
	reason := "validation"
	if errors.Is(err, core.ErrUnauthenticated) {
		reason = "unauthenticated"
	}
	mutationsRejected.WithLabelValues(op, reason).Inc()
	c.Logger.Debug("mutation rejected", "operation", op, "error", err)
	return err
}

func (c *Coordinator) submit(ctx context.Context, op string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	mutationLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		mutationsProcessed.WithLabelValues(op, "failed").Inc()
		c.Logger.Error("mutation failed", "operation", op, "error", err)
		return fmt.Errorf("%w: %s: %w", core.ErrMutationFailure, op, err)
	}

	mutationsProcessed.WithLabelValues(op, "committed").Inc()
	c.Logger.Debug("mutation committed", "operation", op)
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
