package core

import (
	"context"
	"io"
)

type Direction int

const (
	Descending Direction = iota
	Ascending
)

type Query struct {
	Collection string
	OrderBy    string
	Direction  Direction
}

type SnapshotHandler func(docs []Document)
type ErrorHandler func(err error)

// DocumentStore is a subscribable document collection.
//
// Handlers passed to SubscribeQuery are called sequentially in store order and must not call back into the store.
// onError is terminal: no snapshot follows it.
type DocumentStore interface {
	SubscribeQuery(ctx context.Context, q Query, onSnapshot SnapshotHandler, onError ErrorHandler) (func(), error)
	Patch(ctx context.Context, collection, docID string, patches ...FieldPatch) error
	CreateDocument(ctx context.Context, collection string, fields map[string]any) (string, error)
}

type IdentityProvider interface {
	CurrentIdentity() (Identity, bool)
	// OnIdentityChange registers cb, called with nil on sign out. The returned func unregisters it.
	OnIdentityChange(cb func(*Identity)) func()
}

type ImageUploader interface {
	Upload(ctx context.Context, name string, r io.Reader) (string, error)
}
