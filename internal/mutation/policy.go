package mutation

import (
	"fmt"
	"slices"
	"strings"

	"instafeed/internal/core"
)

// PostPolicy decides which posts CreatePost accepts.
type PostPolicy string

const (
	PolicyAllowEmpty     PostPolicy = "allow-empty"
	PolicyRequireContent PostPolicy = "require-content"
	PolicyRequireImage   PostPolicy = "require-image"
)

var Policies = []PostPolicy{PolicyAllowEmpty, PolicyRequireContent, PolicyRequireImage}

func ParsePostPolicy(s string) (PostPolicy, error) {
	p := PostPolicy(s)
	if !slices.Contains(Policies, p) {
		return "", fmt.Errorf("%w: unknown post policy %q", core.ErrValidation, s)
	}
	return p, nil
}

func (p PostPolicy) Validate(text, imageURL string) error {
	hasText := strings.TrimSpace(text) != ""
	hasImage := strings.TrimSpace(imageURL) != ""

	switch p {
	case PolicyAllowEmpty:
		return nil
	case PolicyRequireImage:
		if !hasImage {
			return fmt.Errorf("%w: post requires an image", core.ErrValidation)
		}
	default:
		if !hasText && !hasImage {
			return fmt.Errorf("%w: post requires text or an image", core.ErrValidation)
		}
	}
	return nil
}
