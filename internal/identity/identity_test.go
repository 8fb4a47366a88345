package identity_test

import (
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"instafeed/internal/config"
	"instafeed/internal/core"
	"instafeed/internal/identity"
)

var ann = core.Identity{ID: "u1", DisplayName: "Ann", AvatarURL: "https://img/ann.png"}

func TestSession(t *testing.T) {
	t.Parallel()

	s := identity.NewSession()

	_, ok := s.CurrentIdentity()
	require.False(t, ok)

	var changes []*core.Identity
	stop := s.OnIdentityChange(func(i *core.Identity) {
		changes = append(changes, i)
	})

	s.SignIn(ann)
	current, ok := s.CurrentIdentity()
	require.True(t, ok)
	require.Equal(t, ann, current)

	s.SignOut()
	_, ok = s.CurrentIdentity()
	require.False(t, ok)

	stop()
	s.SignIn(ann)

	require.Len(t, changes, 2)
	require.Equal(t, ann, *changes[0])
	require.Nil(t, changes[1])
}

func TestStatic(t *testing.T) {
	t.Parallel()

	current, ok := identity.Static(ann).CurrentIdentity()
	require.True(t, ok)
	require.Equal(t, ann, current)

	_, ok = identity.Static{}.CurrentIdentity()
	require.False(t, ok)
}

func TestTokens(t *testing.T) {
	t.Parallel()

	tokens := identity.NewTokens("s3cret", time.Hour)

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		token, err := tokens.Issue(ann)
		require.NoError(t, err)

		got, err := tokens.Verify(token)
		require.NoError(t, err)
		require.Equal(t, ann, got)
	})

	t.Run("inspect reports the expiry", func(t *testing.T) {
		t.Parallel()

		token, err := tokens.Issue(ann)
		require.NoError(t, err)

		_, expiresAt, err := tokens.Inspect(token)
		require.NoError(t, err)
		require.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 2*time.Second)

		forever, err := identity.NewTokens("s3cret", 0).Issue(ann)
		require.NoError(t, err)

		_, expiresAt, err = tokens.Inspect(forever)
		require.NoError(t, err)
		require.True(t, expiresAt.IsZero())
	})

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()

		token, err := identity.NewTokens("other", time.Hour).Issue(ann)
		require.NoError(t, err)

		_, err = tokens.Verify(token)
		require.ErrorIs(t, err, core.ErrUnauthenticated)
	})

	t.Run("expired", func(t *testing.T) {
		t.Parallel()

		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}).SignedString([]byte("s3cret"))
		require.NoError(t, err)

		_, err = tokens.Verify(token)
		require.ErrorIs(t, err, core.ErrUnauthenticated)
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()

		_, err := tokens.Verify("garbage")
		require.ErrorIs(t, err, core.ErrUnauthenticated)
	})

	t.Run("no secret", func(t *testing.T) {
		t.Parallel()

		_, err := identity.NewTokens("", time.Hour).Issue(ann)
		require.ErrorIs(t, err, identity.ErrNoSecret)
	})
}

func TestBearer(t *testing.T) {
	t.Parallel()

	tokens := identity.NewTokens("s3cret", time.Hour)
	token, err := tokens.Issue(core.Identity{ID: "u1", DisplayName: "Ann"})
	require.NoError(t, err)

	t.Run("anonymous without token", func(t *testing.T) {
		t.Parallel()

		b := &identity.Bearer{Logger: slog.Default(), Config: &config.Config{}, Secrets: &config.Secrets{}}
		require.NoError(t, b.Init(t.Context()))

		_, ok := b.CurrentIdentity()
		require.False(t, ok)
	})

	t.Run("verified token", func(t *testing.T) {
		t.Parallel()

		b := &identity.Bearer{
			Logger:  slog.Default(),
			Config:  &config.Config{Token: token},
			Secrets: &config.Secrets{JWTSecret: "s3cret"},
		}
		require.NoError(t, b.Init(t.Context()))

		got, ok := b.CurrentIdentity()
		require.True(t, ok)
		require.Equal(t, "u1", got.ID)
		require.Equal(t, "Ann", got.DisplayName)
	})

	t.Run("expired token signs out", func(t *testing.T) {
		t.Parallel()

		short, err := identity.NewTokens("s3cret", 2*time.Second).Issue(core.Identity{ID: "u2"})
		require.NoError(t, err)

		b := &identity.Bearer{
			Logger:  slog.Default(),
			Config:  &config.Config{Token: short},
			Secrets: &config.Secrets{JWTSecret: "s3cret"},
		}
		require.NoError(t, b.Init(t.Context()))
		defer b.Shutdown(t.Context()) //nolint:errcheck

		_, ok := b.CurrentIdentity()
		require.True(t, ok)

		var signedOut atomic.Bool
		stop := b.OnIdentityChange(func(id *core.Identity) {
			if id == nil {
				signedOut.Store(true)
			}
		})
		defer stop()

		require.Eventually(t, signedOut.Load, 5*time.Second, 20*time.Millisecond)

		_, ok = b.CurrentIdentity()
		require.False(t, ok)
	})

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()

		b := &identity.Bearer{
			Logger:  slog.Default(),
			Config:  &config.Config{Token: token},
			Secrets: &config.Secrets{JWTSecret: "other"},
		}
		require.ErrorIs(t, b.Init(t.Context()), core.ErrUnauthenticated)
	})
}
