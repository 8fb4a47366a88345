package cloudinary

import (
	"time"

	"resty.dev/v3"
)

const defaultBaseURL = "https://api.cloudinary.com"

type ClientConfig struct {
	// CloudName and UploadPreset identify an unsigned upload preset.
	CloudName    string
	UploadPreset string

	// BaseURL defaults to the public Cloudinary API.
	BaseURL string
	Timeout time.Duration

	TransportSettings *resty.TransportSettings

	ResponseMiddlewares []resty.ResponseMiddleware
	RequestMiddlewares  []resty.RequestMiddleware
}

var DefaultConfig = &ClientConfig{
	BaseURL: defaultBaseURL,
	Timeout: 30 * time.Second,
	TransportSettings: &resty.TransportSettings{
		DialerTimeout:         5 * time.Second,
		DialerKeepAlive:       30 * time.Second,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	},
}
