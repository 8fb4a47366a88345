package identity

import (
	"context"
	"log/slog"
	"time"

	"instafeed/internal/config"
	"instafeed/internal/core"
)

// Bearer is the identity of a process acting with the configured token. Without a token it is anonymous. An
// expiring token signs the session out when it expires.
type Bearer struct {
	Logger  *slog.Logger
	Config  *config.Config
	Secrets *config.Secrets

	session *Session
	expiry  *time.Timer
}

func (b *Bearer) Init(_ context.Context) error {
	b.session = NewSession()

	if b.Config.Token == "" {
		return nil
	}

	id, expiresAt, err := NewTokens(b.Secrets.JWTSecret, 0).Inspect(b.Config.Token)
	if err != nil {
		return err
	}
	b.session.SignIn(id)

	if !expiresAt.IsZero() {
		b.expiry = time.AfterFunc(time.Until(expiresAt), b.expire)
	}

	b.Logger.Debug("acting as", "id", id.ID, "name", id.DisplayName, "expires_at", expiresAt)
	return nil
}

func (b *Bearer) Shutdown(_ context.Context) error {
	if b.expiry != nil {
		b.expiry.Stop()
	}
	return nil
}

func (b *Bearer) CurrentIdentity() (core.Identity, bool) {
	return b.session.CurrentIdentity()
}

func (b *Bearer) OnIdentityChange(cb func(*core.Identity)) func() {
	return b.session.OnIdentityChange(cb)
}

func (b *Bearer) expire() {
	b.Logger.Warn("identity token expired, signing out")
	b.session.SignOut()
}
