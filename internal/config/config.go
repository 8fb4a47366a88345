package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"

	"instafeed/internal/core"
)

const (
	StoreMemory = "memory"
	StoreNATS   = "nats"
	StoreBadger = "badger"
)

type Config struct {
	LogLevel string `flag:"log-level" validate:"oneof=debug info warn error"`

	Store      string `flag:"store" validate:"oneof=memory nats badger"`
	NATSURL    string `flag:"nats-url" validate:"required_if=Store nats"`
	NATSInit   bool   `flag:"nats-init"`
	NATSBucket string `flag:"nats-bucket" validate:"required_if=Store nats"`
	BadgerPath string `flag:"badger-path"`

	Optimistic bool   `flag:"optimistic"`
	PostPolicy string `flag:"post-policy" validate:"oneof=allow-empty require-content require-image"`
	Token      string `flag:"token"`

	CloudinaryCloud  string        `flag:"cloudinary-cloud"`
	CloudinaryPreset string        `flag:"cloudinary-preset"`
	CloudinaryURL    string        `flag:"cloudinary-url" validate:"omitempty,url"`
	UploadTimeout    time.Duration `flag:"upload-timeout"`

	APIAddr     string `flag:"api-addr"`
	MetricsAddr string `flag:"metrics-addr"`

	// OneShot is set by commands that exit after a single mutation.
	OneShot bool
}

// ErrEphemeralStore is returned when a one shot command is pointed at the memory store, which starts empty in
// every process.
var ErrEphemeralStore = errors.New("the memory store does not outlive a single command, use --store nats or badger")

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", core.ErrValidation, err)
	}
	if c.OneShot && c.Store == StoreMemory {
		return fmt.Errorf("%w: %w", core.ErrValidation, ErrEphemeralStore)
	}
	return nil
}

// Secrets are read from INSTAFEED_* environment variables only.
type Secrets struct {
	JWTSecret string `envconfig:"JWT_SECRET"`
}

func (s *Secrets) Init(_ context.Context) error {
	return envconfig.Process("instafeed", s)
}
