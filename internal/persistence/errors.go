package persistence

import "errors"

var (
	ErrClosed             = errors.New("database is closed")
	ErrSubscriptionClosed = errors.New("subscription closed")
)
