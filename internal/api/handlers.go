package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"instafeed/internal/core"
	"instafeed/internal/mutation"
)

type createPostRequest struct {
	Text     string `json:"text"`
	ImageURL string `json:"imageUrl"`
}

type toggleLikeRequest struct {
	Liked bool `json:"liked"`
}

type addCommentRequest struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if !decode(w, r, &req) {
		return
	}

	c := s.Coordinator.As(requestIdentity(r.Context()))
	id, err := commit(r.Context(), func(ctx context.Context) (string, error) {
		return c.CreatePost(ctx, req.Text, req.ImageURL)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) toggleLike(w http.ResponseWriter, r *http.Request) {
	var req toggleLikeRequest
	if !decode(w, r, &req) {
		return
	}

	postID := chi.URLParam(r, "id")
	c := s.Coordinator.As(requestIdentity(r.Context()))

	_, err := commit(r.Context(), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.ToggleLike(ctx, postID, req.Liked)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	// liked is the state after the toggle
	writeJSON(w, http.StatusOK, toggleLikeRequest{Liked: !req.Liked})
}

func (s *Server) addComment(w http.ResponseWriter, r *http.Request) {
	var req addCommentRequest
	if !decode(w, r, &req) {
		return
	}

	postID := chi.URLParam(r, "id")
	c := s.Coordinator.As(requestIdentity(r.Context()))

	comment, err := commit(r.Context(), func(ctx context.Context) (core.Comment, error) {
		return c.AddComment(ctx, postID, req.Text)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, comment)
}

// commit runs a mutation detached from the request. A client that goes away does not abort an issued write.
func commit[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	return mutation.Dispatch(ctx, fn).Wait(ctx)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, core.ErrValidation):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrMutationFailure):
		status = http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		logger(r.Context()).Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Message: err.Error()})
}
