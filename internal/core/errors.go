package core

import "errors"

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrValidation      = errors.New("validation error")
	ErrSyncFailure     = errors.New("sync failure")
	ErrMutationFailure = errors.New("mutation failure")
	ErrNotFound        = errors.New("document not found")
)
