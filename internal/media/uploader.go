package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"resty.dev/v3"

	"instafeed/internal/config"
	"instafeed/internal/core"
	"instafeed/pkg/cloudinary"
)

var ErrUploadsDisabled = errors.New("image uploads are not configured")

var _ core.ImageUploader = (*Uploader)(nil)

var (
	uploadLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "instafeed_upload_latency_seconds",
			Help:    "Histogram of image upload latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "path", "status_code"},
	)
)

// Uploader stores images on Cloudinary. Without a configured cloud every upload fails with
// ErrUploadsDisabled.
type Uploader struct {
	Logger *slog.Logger
	Config *config.Config

	client *cloudinary.Client
}

func (u *Uploader) Init(_ context.Context) error {
	u.Logger = u.Logger.With("component", "media.Uploader")

	if u.Config.CloudinaryCloud == "" {
		return nil
	}

	client, err := cloudinary.NewClient(&cloudinary.ClientConfig{
		CloudName:         u.Config.CloudinaryCloud,
		UploadPreset:      u.Config.CloudinaryPreset,
		BaseURL:           u.Config.CloudinaryURL,
		Timeout:           u.Config.UploadTimeout,
		TransportSettings: cloudinary.DefaultConfig.TransportSettings,

		ResponseMiddlewares: []resty.ResponseMiddleware{metricMiddleware},
	})
	if err != nil {
		return err
	}
	u.client = client

	return nil
}

func (u *Uploader) Shutdown(_ context.Context) error {
	if u.client == nil {
		return nil
	}
	return u.client.Close()
}

func (u *Uploader) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	if u.client == nil {
		return "", ErrUploadsDisabled
	}

	secureURL, err := u.client.Upload(ctx, filepath.Base(name), r)
	if err != nil {
		u.Logger.Error("upload failed", "name", name, "error", err)
		return "", err
	}

	u.Logger.Debug("image uploaded", "name", name, "url", secureURL)
	return secureURL, nil
}

// UploadFile uploads a local file, returning "" when path is empty.
func (u *Uploader) UploadFile(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "", nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	return u.Upload(ctx, path, f)
}

func metricMiddleware(_ *resty.Client, response *resty.Response) error {
	reqURL, err := url.Parse(response.Request.URL)
	if err != nil {
		return err
	}

	uploadLatency.WithLabelValues(
		response.Request.Method,
		reqURL.Path,
		strconv.Itoa(response.StatusCode()),
	).Observe(response.Duration().Seconds())

	return nil
}
