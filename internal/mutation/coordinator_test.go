package mutation_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"instafeed/internal/core"
	"instafeed/internal/feed"
	"instafeed/internal/identity"
	"instafeed/internal/mutation"
	"instafeed/internal/store/memory"
)

var (
	testErr = errors.New("test error")

	ann = core.Identity{ID: "u1", DisplayName: "Ann"}
	bob = core.Identity{ID: "u2", DisplayName: "Bob", AvatarURL: "https://img/bob.png"}
)

func likes(t *testing.T, s *memory.Store, postID string) []any {
	t.Helper()

	doc, ok := s.Get(core.PostsCollection, postID)
	require.True(t, ok)
	return doc["likes"].([]any)
}

func newPost(t *testing.T, s *memory.Store) string {
	t.Helper()

	id, err := mutation.New(s, identity.Static(ann)).CreatePost(t.Context(), "hi", "")
	require.NoError(t, err)
	return id
}

func TestCoordinator_ToggleLike(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		s := memory.New()
		postID := newPost(t, s)
		c := mutation.New(s, identity.Static(bob))

		require.NoError(t, c.ToggleLike(t.Context(), postID, false))
		require.Equal(t, []any{"u2"}, likes(t, s, postID))

		require.NoError(t, c.ToggleLike(t.Context(), postID, true))
		require.Equal(t, []any{}, likes(t, s, postID))
	})

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()

		s := memory.New()
		postID := newPost(t, s)
		c := mutation.New(s, identity.Static(bob))

		require.NoError(t, c.ToggleLike(t.Context(), postID, false))
		require.NoError(t, c.ToggleLike(t.Context(), postID, false))
		require.Equal(t, []any{"u2"}, likes(t, s, postID))

		require.NoError(t, c.ToggleLike(t.Context(), postID, true))
		require.NoError(t, c.ToggleLike(t.Context(), postID, true))
		require.Equal(t, []any{}, likes(t, s, postID))
	})

	t.Run("concurrent likes from different actors", func(t *testing.T) {
		t.Parallel()

		s := memory.New()
		postID := newPost(t, s)

		done := make(chan error)
		for _, actor := range []core.Identity{ann, bob} {
			go func() {
				done <- mutation.New(s, identity.Static(actor)).ToggleLike(t.Context(), postID, false)
			}()
		}
		require.NoError(t, <-done)
		require.NoError(t, <-done)

		require.ElementsMatch(t, []any{"u1", "u2"}, likes(t, s, postID))
	})

	t.Run("unauthenticated", func(t *testing.T) {
		t.Parallel()

		s := memory.New()
		err := mutation.New(s, identity.NewSession()).ToggleLike(t.Context(), "p1", false)

		require.ErrorIs(t, err, core.ErrUnauthenticated)
		require.Zero(t, s.Calls())
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()

		s := memory.New()
		postID := newPost(t, s)
		s.FailNext(testErr)

		err := mutation.New(s, identity.Static(bob)).ToggleLike(t.Context(), postID, false)
		require.ErrorIs(t, err, core.ErrMutationFailure)
		require.ErrorIs(t, err, testErr)
		require.Equal(t, []any{}, likes(t, s, postID))
	})

	t.Run("missing post", func(t *testing.T) {
		t.Parallel()

		err := mutation.New(memory.New(), identity.Static(bob)).ToggleLike(t.Context(), "nope", false)
		require.ErrorIs(t, err, core.ErrMutationFailure)
		require.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestCoordinator_ToggleLike_Overlay(t *testing.T) {
	t.Parallel()

	t.Run("pending state is recorded", func(t *testing.T) {
		t.Parallel()

		s := memory.New()
		postID := newPost(t, s)
		overlay := feed.NewOverlay()

		require.NoError(t, mutation.New(s, identity.Static(bob), mutation.WithOverlay(overlay)).
			ToggleLike(t.Context(), postID, false))
		require.Equal(t, 1, overlay.Pending())
	})

	t.Run("failure discards the pending state", func(t *testing.T) {
		t.Parallel()

		s := memory.New()
		postID := newPost(t, s)
		overlay := feed.NewOverlay()
		s.FailNext(testErr)

		err := mutation.New(s, identity.Static(bob), mutation.WithOverlay(overlay)).
			ToggleLike(t.Context(), postID, false)
		require.ErrorIs(t, err, testErr)
		require.Equal(t, 0, overlay.Pending())
	})
}

func TestCoordinator_AddComment(t *testing.T) {
	t.Parallel()

	t.Run("appends in order", func(t *testing.T) {
		t.Parallel()

		s := memory.New()
		postID := newPost(t, s)
		c := mutation.New(s, identity.Static(bob))

		_, err := c.AddComment(t.Context(), postID, "first")
		require.NoError(t, err)

		comment, err := c.AddComment(t.Context(), postID, "hello")
		require.NoError(t, err)
		require.Equal(t, "u2", comment.AuthorID)
		require.Equal(t, "Bob", comment.AuthorName)
		require.Equal(t, "https://img/bob.png", comment.AuthorAvatar)

		doc, _ := s.Get(core.PostsCollection, postID)
		post := feed.Normalize(core.Document{ID: postID, Fields: doc}, comment.CreatedAt)

		require.Len(t, post.Comments, 2)
		require.Equal(t, "first", post.Comments[0].Text)
		require.Equal(t, "hello", post.Comments[1].Text)
	})

	t.Run("duplicates are kept", func(t *testing.T) {
		t.Parallel()

		s := memory.New()
		postID := newPost(t, s)
		c := mutation.New(s, identity.Static(ann))

		for range 2 {
			_, err := c.AddComment(t.Context(), postID, "same")
			require.NoError(t, err)
		}

		doc, _ := s.Get(core.PostsCollection, postID)
		require.Len(t, doc["comments"], 2)
	})

	t.Run("anonymous defaults", func(t *testing.T) {
		t.Parallel()

		s := memory.New()
		postID := newPost(t, s)

		comment, err := mutation.New(s, identity.Static{ID: "u3"}).AddComment(t.Context(), postID, "hey")
		require.NoError(t, err)
		require.Equal(t, "Anonymous", comment.AuthorName)
		require.Equal(t, feed.DefaultAvatarURL, comment.AuthorAvatar)
	})

	t.Run("blank text never reaches the store", func(t *testing.T) {
		t.Parallel()

		s := memory.New()
		c := mutation.New(s, identity.Static(ann))

		for _, text := range []string{"", "   ", "\n\t"} {
			_, err := c.AddComment(t.Context(), "p1", text)
			require.ErrorIs(t, err, core.ErrValidation)
		}
		require.Zero(t, s.Calls())
	})

	t.Run("unauthenticated", func(t *testing.T) {
		t.Parallel()

		s := memory.New()
		_, err := mutation.New(s, nil).AddComment(t.Context(), "p1", "hello")
		require.ErrorIs(t, err, core.ErrUnauthenticated)
		require.Zero(t, s.Calls())
	})
}

func TestCoordinator_CreatePost(t *testing.T) {
	t.Parallel()

	t.Run("creates an empty like set and comment list", func(t *testing.T) {
		t.Parallel()

		s := memory.New()
		id, err := mutation.New(s, identity.Static(ann)).CreatePost(t.Context(), "hi", "https://img/p.png")
		require.NoError(t, err)

		doc, ok := s.Get(core.PostsCollection, id)
		require.True(t, ok)
		require.Equal(t, "u1", doc["userId"])
		require.Equal(t, "Ann", doc["userName"])
		require.Equal(t, "", doc["userProfile"])
		require.Equal(t, "hi", doc["text"])
		require.Equal(t, "https://img/p.png", doc["imageUrl"])
		require.Equal(t, []any{}, doc["likes"])
		require.Equal(t, []any{}, doc["comments"])
		require.NotEmpty(t, doc["createdAt"])
	})

	t.Run("author fields are copied at call time", func(t *testing.T) {
		t.Parallel()

		s := memory.New()
		session := identity.NewSession()
		session.SignIn(ann)
		c := mutation.New(s, session)

		id, err := c.CreatePost(t.Context(), "hi", "")
		require.NoError(t, err)

		session.SignIn(core.Identity{ID: "u1", DisplayName: "Ann B."})

		doc, _ := s.Get(core.PostsCollection, id)
		require.Equal(t, "Ann", doc["userName"])
	})

	t.Run("policies", func(t *testing.T) {
		t.Parallel()

		s := memory.New()

		_, err := mutation.New(s, identity.Static(ann)).CreatePost(t.Context(), " ", "")
		require.ErrorIs(t, err, core.ErrValidation)

		_, err = mutation.New(s, identity.Static(ann), mutation.WithPolicy(mutation.PolicyRequireImage)).
			CreatePost(t.Context(), "text only", "")
		require.ErrorIs(t, err, core.ErrValidation)
		require.Zero(t, s.Calls())

		_, err = mutation.New(s, identity.Static(ann), mutation.WithPolicy(mutation.PolicyAllowEmpty)).
			CreatePost(t.Context(), "", "")
		require.NoError(t, err)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		t.Parallel()

		s := memory.New()
		_, err := mutation.New(s, identity.NewSession()).CreatePost(t.Context(), "hi", "")
		require.ErrorIs(t, err, core.ErrUnauthenticated)
		require.Zero(t, s.Calls())
	})
}

func TestCoordinator_CreateProfile(t *testing.T) {
	t.Parallel()

	s := memory.New()
	c := mutation.New(s, nil)

	_, err := c.CreateProfile(t.Context(), core.Profile{FullName: "Ann", Email: "ann@example.com"})
	require.ErrorIs(t, err, core.ErrValidation)

	id, err := c.CreateProfile(t.Context(), core.Profile{
		FullName: "Ann",
		Email:    "ann@example.com",
		PhotoURL: "https://img/ann.png",
	})
	require.NoError(t, err)

	doc, ok := s.Get(core.ProfilesCollection, id)
	require.True(t, ok)
	require.Equal(t, "ann@example.com", doc["email"])
}

func TestScenario(t *testing.T) {
	t.Parallel()

	s := memory.New()
	synchronizer := feed.New(s, nil)

	postID, err := mutation.New(s, identity.Static{ID: "u1", DisplayName: "Ann"}).CreatePost(t.Context(), "hi", "")
	require.NoError(t, err)

	first, err := synchronizer.First(t.Context())
	require.NoError(t, err)

	post, ok := first.Find(postID)
	require.True(t, ok)
	require.Equal(t, "u1", post.AuthorID)
	require.Equal(t, []string{}, post.Likes)
	require.Equal(t, []core.Comment{}, post.Comments)

	c := mutation.New(s, identity.Static{ID: "u2"})

	require.NoError(t, c.ToggleLike(t.Context(), postID, post.LikedBy("u2")))
	snapshot, err := synchronizer.First(t.Context())
	require.NoError(t, err)
	post, _ = snapshot.Find(postID)
	require.Equal(t, []string{"u2"}, post.Likes)

	require.NoError(t, c.ToggleLike(t.Context(), postID, post.LikedBy("u2")))
	snapshot, err = synchronizer.First(t.Context())
	require.NoError(t, err)
	post, _ = snapshot.Find(postID)
	require.Equal(t, []string{}, post.Likes)
}
