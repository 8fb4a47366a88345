package feed_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"instafeed/internal/core"
	"instafeed/internal/feed"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestNormalize(t *testing.T) {
	t.Parallel()

	t.Run("missing fields get defaults", func(t *testing.T) {
		t.Parallel()

		post := feed.Normalize(core.Document{ID: "p1", Fields: map[string]any{
			"userId": "u1",
			"text":   "hi",
		}}, now)

		require.Equal(t, core.Post{
			ID:           "p1",
			AuthorID:     "u1",
			AuthorName:   feed.DefaultAuthorName,
			AuthorAvatar: feed.DefaultAvatarURL,
			Text:         "hi",
			CreatedAt:    now,
			Likes:        []string{},
			Comments:     []core.Comment{},
		}, post)
	})

	t.Run("empty author fields get defaults", func(t *testing.T) {
		t.Parallel()

		post := feed.Normalize(core.Document{ID: "p1", Fields: map[string]any{
			"userName":    "",
			"userProfile": "",
		}}, now)

		require.Equal(t, "Unknown User", post.AuthorName)
		require.Equal(t, "/default-user.png", post.AuthorAvatar)
	})

	t.Run("present fields are kept", func(t *testing.T) {
		t.Parallel()

		post := feed.Normalize(core.Document{ID: "p1", Fields: map[string]any{
			"userId":      "u1",
			"userName":    "Ann",
			"userProfile": "https://img/ann.png",
			"imageUrl":    "https://img/post.png",
			"createdAt":   "2025-01-02T03:04:05Z",
			"likes":       []any{"u2", "u3", "u2"},
			"comments": []any{
				map[string]any{"userName": "Bob", "text": "first", "createdAt": "2025-01-03T00:00:00Z"},
				map[string]any{"text": "second"},
				map[string]any{"userName": "Broken"},
			},
		}}, now)

		require.Equal(t, "Ann", post.AuthorName)
		require.Equal(t, "https://img/ann.png", post.AuthorAvatar)
		require.Equal(t, "https://img/post.png", post.ImageURL)
		require.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), post.CreatedAt)
		require.Equal(t, []string{"u2", "u3"}, post.Likes)

		require.Len(t, post.Comments, 2)
		require.Equal(t, "Bob", post.Comments[0].AuthorName)
		require.Equal(t, "first", post.Comments[0].Text)
		require.Equal(t, feed.DefaultCommentAuthorName, post.Comments[1].AuthorName)
		require.Equal(t, feed.DefaultAvatarURL, post.Comments[1].AuthorAvatar)
		require.Equal(t, now, post.Comments[1].CreatedAt)
	})

	t.Run("created at shapes", func(t *testing.T) {
		t.Parallel()

		cases := map[string]any{
			"time":      time.Unix(1700000000, 0),
			"rfc3339":   "2023-11-14T22:13:20Z",
			"millis":    float64(1700000000000),
			"timestamp": map[string]any{"seconds": float64(1700000000), "nanoseconds": float64(0)},
		}

		for name, value := range cases {
			post := feed.Normalize(core.Document{Fields: map[string]any{"createdAt": value}}, now)
			require.True(t, post.CreatedAt.Equal(time.Unix(1700000000, 0)), name)
		}
	})

	t.Run("unconvertible created at", func(t *testing.T) {
		t.Parallel()

		post := feed.Normalize(core.Document{Fields: map[string]any{"createdAt": "soon"}}, now)
		require.Equal(t, now, post.CreatedAt)
	})

	t.Run("malformed collections", func(t *testing.T) {
		t.Parallel()

		post := feed.Normalize(core.Document{Fields: map[string]any{
			"likes":    "u1",
			"comments": 42,
		}}, now)

		require.Equal(t, []string{}, post.Likes)
		require.Equal(t, []core.Comment{}, post.Comments)
	})
}
