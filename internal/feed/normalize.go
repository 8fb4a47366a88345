package feed

import (
	"time"

	"github.com/Jeffail/gabs"
	"github.com/samber/lo"

	"instafeed/internal/core"
	"instafeed/internal/store"
)

// Defaults applied to missing or empty fields.
const (
	DefaultAuthorName        = "Unknown User"
	DefaultAvatarURL         = "/default-user.png"
	DefaultCommentAuthorName = "Anonymous"
)

// Normalize converts a raw post document into a fully populated Post. now replaces a missing or unconvertible
// createdAt.
func Normalize(doc core.Document, now time.Time) core.Post {
	container, err := gabs.Consume(doc.Fields)
	if err != nil {
		container = gabs.New()
	}

	post := core.Post{
		ID:           doc.ID,
		AuthorID:     stringField(container, "userId", ""),
		AuthorName:   stringField(container, "userName", DefaultAuthorName),
		AuthorAvatar: stringField(container, "userProfile", DefaultAvatarURL),
		Text:         stringField(container, "text", ""),
		ImageURL:     stringField(container, "imageUrl", ""),
		CreatedAt:    timeField(container, "createdAt", now),
		Likes:        likes(container),
		Comments:     comments(container, now),
	}

	return post
}

func stringField(c *gabs.Container, path string, def string) string {
	s, ok := c.Path(path).Data().(string)
	if !ok || s == "" {
		if def != "" {
			defaultsApplied.WithLabelValues(path).Inc()
		}
		return def
	}
	return s
}

func timeField(c *gabs.Container, path string, now time.Time) time.Time {
	t, ok := store.OrderKey(c.Path(path).Data())
	if !ok {
		defaultsApplied.WithLabelValues(path).Inc()
		return now
	}
	return t
}

func likes(c *gabs.Container) []string {
	children, err := c.Path("likes").Children()
	if err != nil {
		defaultsApplied.WithLabelValues("likes").Inc()
		return []string{}
	}

	ids := lo.FilterMap(children, func(child *gabs.Container, _ int) (string, bool) {
		id, ok := child.Data().(string)
		return id, ok && id != ""
	})
	return lo.Uniq(ids)
}

func comments(c *gabs.Container, now time.Time) []core.Comment {
	children, err := c.Path("comments").Children()
	if err != nil {
		defaultsApplied.WithLabelValues("comments").Inc()
		return []core.Comment{}
	}

	return lo.FilterMap(children, func(child *gabs.Container, _ int) (core.Comment, bool) {
		text, ok := child.Path("text").Data().(string)
		if !ok || text == "" {
			return core.Comment{}, false
		}

		return core.Comment{
			AuthorID:     stringField(child, "userId", ""),
			AuthorName:   stringField(child, "userName", DefaultCommentAuthorName),
			AuthorAvatar: stringField(child, "userProfile", DefaultAvatarURL),
			Text:         text,
			CreatedAt:    timeField(child, "createdAt", now),
		}, true
	})
}
