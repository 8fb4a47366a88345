package flags

import (
	"fmt"
	"slices"
	"time"

	libnats "github.com/nats-io/nats.go"
	"github.com/urfave/cli/v3"

	"instafeed/internal/config"
	"instafeed/internal/mutation"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

var validStores = []string{config.StoreMemory, config.StoreNATS, config.StoreBadger}

func oneOf(name string, allowed []string) func(string) error {
	return func(value string) error {
		if !slices.Contains(allowed, value) {
			return fmt.Errorf("invalid %s: %s, allowed values are: %s", name, value, allowed)
		}
		return nil
	}
}

var LogLevel = &cli.StringFlag{
	Name:      "log-level",
	Aliases:   []string{"l"},
	Usage:     "The level of the logs",
	Value:     "info",
	Validator: oneOf("log level", validLogLevels),
	Sources:   cli.EnvVars("LOG_LEVEL"),
}

var Store = &cli.StringFlag{
	Name:      "store",
	Aliases:   []string{"s"},
	Usage:     "The document store backend",
	Value:     config.StoreMemory,
	Validator: oneOf("store", validStores),
	Sources:   cli.EnvVars("INSTAFEED_STORE"),
}

var NATSUrl = &cli.StringFlag{
	Name:    "nats-url",
	Aliases: []string{"n"},
	Usage:   "The URL of the NATS server",
	Value:   libnats.DefaultURL,
	Sources: cli.EnvVars("NATS_URL"),
}

var InitNATS = &cli.BoolFlag{
	Name:        "nats-init",
	Aliases:     []string{"i"},
	Usage:       "Initialize the NATS server: create the key value bucket",
	DefaultText: "false",
	Value:       false,
	Sources:     cli.EnvVars("NATS_INIT"),
}

var NATSBucket = &cli.StringFlag{
	Name:    "nats-bucket",
	Usage:   "The NATS key value bucket holding the documents",
	Value:   "instafeed",
	Sources: cli.EnvVars("NATS_BUCKET"),
}

var BadgerPath = &cli.StringFlag{
	Name:    "badger-path",
	Usage:   "The BadgerDB directory, in memory when empty",
	Sources: cli.EnvVars("INSTAFEED_BADGER_PATH"),
}

var Optimistic = &cli.BoolFlag{
	Name:    "optimistic",
	Usage:   "Show likes before the store confirms them",
	Sources: cli.EnvVars("INSTAFEED_OPTIMISTIC"),
}

var PostPolicy = &cli.StringFlag{
	Name:      "post-policy",
	Usage:     "Which posts are accepted: allow-empty, require-content or require-image",
	Value:     string(mutation.PolicyRequireContent),
	Validator: oneOf("post policy", []string{"allow-empty", "require-content", "require-image"}),
	Sources:   cli.EnvVars("INSTAFEED_POST_POLICY"),
}

var Token = &cli.StringFlag{
	Name:    "token",
	Aliases: []string{"t"},
	Usage:   "The identity token of the acting user",
	Sources: cli.EnvVars("INSTAFEED_TOKEN"),
}

var CloudinaryCloud = &cli.StringFlag{
	Name:    "cloudinary-cloud",
	Usage:   "The Cloudinary cloud name used for image uploads",
	Sources: cli.EnvVars("CLOUDINARY_CLOUD"),
}

var CloudinaryPreset = &cli.StringFlag{
	Name:    "cloudinary-preset",
	Usage:   "The Cloudinary unsigned upload preset",
	Sources: cli.EnvVars("CLOUDINARY_PRESET"),
}

var CloudinaryURL = &cli.StringFlag{
	Name:    "cloudinary-url",
	Usage:   "The Cloudinary API base URL",
	Value:   "https://api.cloudinary.com",
	Sources: cli.EnvVars("CLOUDINARY_API_URL"),
}

var UploadTimeout = &cli.DurationFlag{
	Name:    "upload-timeout",
	Usage:   "The image upload timeout",
	Value:   30 * time.Second,
	Sources: cli.EnvVars("INSTAFEED_UPLOAD_TIMEOUT"),
}

var APIAddr = &cli.StringFlag{
	Name:    "api-addr",
	Usage:   "The address of the feed API server",
	Value:   ":8888",
	Sources: cli.EnvVars("INSTAFEED_API_ADDR"),
}

var MetricsAddr = &cli.StringFlag{
	Name:    "metrics-addr",
	Usage:   "The address of the metrics server",
	Value:   ":8080",
	Sources: cli.EnvVars("INSTAFEED_METRICS_ADDR"),
}
