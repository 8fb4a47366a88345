package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"io"
)

var ErrUpload = errors.New("cloudinary: upload failed")

// https://cloudinary.com/documentation/image_upload_api_reference#upload_response
type UploadResult struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	Format    string `json:"format"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Bytes     int    `json:"bytes"`
}

// Image uploads r through the unsigned upload preset.
func (c *Client) Image(ctx context.Context, fileName string, r io.Reader) (*UploadResult, error) {
	res, err := c.r(ctx).
		SetPathParam("cloud", c.config.CloudName).
		SetFormData(map[string]string{
			"upload_preset": c.config.UploadPreset,
		}).
		SetFileReader("file", fileName, r).
		SetResult(&UploadResult{}).
		Post("/v1_1/{cloud}/image/upload")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpload, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: %s: %s", ErrUpload, res.Status(), res.String())
	}

	result := res.Result().(*UploadResult)
	if result.SecureURL == "" {
		return nil, fmt.Errorf("%w: response has no secure_url", ErrUpload)
	}
	return result, nil
}

// Upload implements the image uploader contract: it returns the public https URL of the stored image.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	result, err := c.Image(ctx, name, r)
	if err != nil {
		return "", err
	}
	return result.SecureURL, nil
}
