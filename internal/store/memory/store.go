package memory

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"instafeed/internal/core"
	"instafeed/internal/store"
)

type subscription struct {
	query      core.Query
	onSnapshot core.SnapshotHandler
	onError    core.ErrorHandler
}

// Store is an in-process DocumentStore. Handlers are called synchronously while the store lock is held, which
// keeps pushes in commit order.
type Store struct {
	Logger *slog.Logger

	clock func() time.Time

	mu          sync.Mutex
	collections map[string]map[string]map[string]any
	subs        map[uint64]*subscription
	nextSub     uint64
	failNext    error

	calls atomic.Int64
}

func New() *Store {
	return &Store{}
}

// NewWithClock creates a store that resolves server timestamps with clock.
func NewWithClock(clock func() time.Time) *Store {
	return &Store{clock: clock}
}

func (s *Store) Init(_ context.Context) error {
	if s.Logger != nil {
		s.Logger = s.Logger.With("component", "memory.Store")
	}
	return nil
}

// Calls returns the number of operations that reached the store.
func (s *Store) Calls() int64 {
	return s.calls.Load()
}

// FailNext makes the next Patch or CreateDocument return err.
func (s *Store) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

// Break terminates every live subscription with err.
func (s *Store) Break(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sub := range s.subs {
		sub.onError(err)
		delete(s.subs, id)
	}
}

// Put stores a raw document as is, bypassing normalization and patching. Subscribers are notified.
func (s *Store) Put(collection, id string, fields map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.collection(collection)[id] = maps.Clone(fields)
	s.notify(collection)
}

// Get returns a copy of a stored document.
func (s *Store) Get(collection, id string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collection(collection)[id]
	if !ok {
		return nil, false
	}
	fields, err := store.CanonicalFields(doc)
	if err != nil {
		return maps.Clone(doc), true
	}
	return fields, true
}

func (s *Store) SubscribeQuery(_ context.Context, q core.Query, onSnapshot core.SnapshotHandler, onError core.ErrorHandler) (func(), error) {
	s.calls.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subs == nil {
		s.subs = map[uint64]*subscription{}
	}

	s.nextSub++
	id := s.nextSub
	sub := &subscription{query: q, onSnapshot: onSnapshot, onError: onError}
	s.subs[id] = sub

	onSnapshot(s.snapshot(q))

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
		})
	}, nil
}

func (s *Store) Patch(_ context.Context, collection, docID string, patches ...core.FieldPatch) error {
	s.calls.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure(); err != nil {
		return err
	}

	docs := s.collection(collection)
	doc, ok := docs[docID]
	if !ok {
		return fmt.Errorf("%w: %s/%s", core.ErrNotFound, collection, docID)
	}

	patched, err := store.Apply(doc, s.now(), patches...)
	if err != nil {
		return err
	}
	docs[docID] = patched

	s.notify(collection)
	return nil
}

func (s *Store) CreateDocument(_ context.Context, collection string, fields map[string]any) (string, error) {
	s.calls.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure(); err != nil {
		return "", err
	}

	doc, err := store.NewDocument(fields, s.now())
	if err != nil {
		return "", err
	}

	id := store.NewID()
	s.collection(collection)[id] = doc

	s.notify(collection)
	return id, nil
}

func (s *Store) takeFailure() error {
	err := s.failNext
	s.failNext = nil
	return err
}

func (s *Store) now() time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return time.Now()
}

func (s *Store) collection(name string) map[string]map[string]any {
	if s.collections == nil {
		s.collections = map[string]map[string]map[string]any{}
	}
	docs, ok := s.collections[name]
	if !ok {
		docs = map[string]map[string]any{}
		s.collections[name] = docs
	}
	return docs
}

func (s *Store) notify(collection string) {
	ids := slices.Sorted(maps.Keys(s.subs))
	for _, id := range ids {
		sub := s.subs[id]
		if sub.query.Collection != collection {
			continue
		}
		sub.onSnapshot(s.snapshot(sub.query))
	}
}

func (s *Store) snapshot(q core.Query) []core.Document {
	docs := make([]core.Document, 0, len(s.collection(q.Collection)))
	for id, fields := range s.collection(q.Collection) {
		copied, err := store.CanonicalFields(fields)
		if err != nil {
			if s.Logger != nil {
				s.Logger.Error("failed to copy document", "id", id, "error", err)
			}
			continue
		}
		docs = append(docs, core.Document{ID: id, Fields: copied})
	}
	store.Sort(docs, q)
	return docs
}
