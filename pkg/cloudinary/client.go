package cloudinary

import (
	"context"
	"errors"

	"resty.dev/v3"
)

var ErrNotConfigured = errors.New("cloudinary: cloud name and upload preset are required")

type Client struct {
	client *resty.Client
	config ClientConfig
}

func NewClient(config *ClientConfig) (*Client, error) {
	if config == nil {
		config = DefaultConfig
	}
	if config.CloudName == "" || config.UploadPreset == "" {
		return nil, ErrNotConfigured
	}

	settings := config.TransportSettings
	if settings == nil {
		settings = DefaultConfig.TransportSettings
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client := resty.NewWithTransportSettings(settings).SetBaseURL(baseURL)
	if config.Timeout > 0 {
		client.SetTimeout(config.Timeout)
	}
	for _, m := range config.RequestMiddlewares {
		client.AddRequestMiddleware(m)
	}
	for _, m := range config.ResponseMiddlewares {
		client.AddResponseMiddleware(m)
	}

	return &Client{
		client: client,
		config: *config,
	}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) r(ctx context.Context) *resty.Request {
	return c.client.R().WithContext(ctx)
}
