package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"instafeed/internal/core"
	"instafeed/internal/store"
	"instafeed/pkg/retry"
)

const maxPatchAttempts = 10

var errWatchClosed = errors.New("watch closed")

var _ core.DocumentStore = (*Store)(nil)

// Store is a DocumentStore on top of a JetStream key value bucket. Documents are JSON values under
// "<collection>.<id>" keys.
type Store struct {
	Logger *slog.Logger
	NATS   *NATS

	kv jetstream.KeyValue
}

// NewStore creates a store over an existing bucket.
func NewStore(kv jetstream.KeyValue, logger *slog.Logger) *Store {
	s := &Store{kv: kv, Logger: logger}
	s.Init(context.Background()) //nolint:errcheck
	return s
}

func (s *Store) Init(_ context.Context) error {
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	s.Logger = s.Logger.With("component", "nats.Store")

	if s.kv == nil && s.NATS != nil {
		s.kv = s.NATS.KV
	}
	if s.kv == nil {
		return errors.New("nats store: no key value bucket")
	}
	return nil
}

func (s *Store) SubscribeQuery(ctx context.Context, q core.Query, onSnapshot core.SnapshotHandler, onError core.ErrorHandler) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)

	watcher, err := s.kv.Watch(ctx, q.Collection+".*")
	if err != nil {
		cancel()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.watch(ctx, watcher, q, onSnapshot, onError)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			if err := watcher.Stop(); err != nil {
				s.Logger.Debug("failed to stop watcher", "error", err)
			}
			<-done
		})
	}, nil
}

func (s *Store) watch(ctx context.Context, watcher jetstream.KeyWatcher, q core.Query, onSnapshot core.SnapshotHandler, onError core.ErrorHandler) {
	docs := map[string]map[string]any{}
	initialized := false

	for {
		select {
		case <-ctx.Done():
			return

		case entry, ok := <-watcher.Updates():
			if !ok {
				if ctx.Err() == nil {
					onError(errWatchClosed)
				}
				return
			}

			// nil marks the end of the initial values
			if entry == nil {
				initialized = true
				onSnapshot(snapshot(docs, q))
				continue
			}

			_, id, ok := store.SplitKey(entry.Key())
			if !ok {
				continue
			}

			switch entry.Operation() {
			case jetstream.KeyValueDelete, jetstream.KeyValuePurge:
				delete(docs, id)
			default:
				fields := map[string]any{}
				if err := json.Unmarshal(entry.Value(), &fields); err != nil {
					s.Logger.Warn("skipping undecodable document", "key", entry.Key(), "error", err)
					continue
				}
				docs[id] = fields
			}

			if initialized {
				onSnapshot(snapshot(docs, q))
			}
		}
	}
}

func (s *Store) Patch(ctx context.Context, collection, docID string, patches ...core.FieldPatch) error {
	key := store.Key(collection, docID)

	return retry.Do(ctx, maxPatchAttempts, s.retryConflict(key), func() error {
		entry, err := s.kv.Get(ctx, key)
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s/%s", core.ErrNotFound, collection, docID)
		}
		if err != nil {
			return err
		}

		fields := map[string]any{}
		if err := json.Unmarshal(entry.Value(), &fields); err != nil {
			return err
		}

		patched, err := store.Apply(fields, time.Now(), patches...)
		if err != nil {
			return err
		}

		data, err := json.Marshal(patched)
		if err != nil {
			return err
		}

		// Update fails when the entry changed since Get.
		_, err = s.kv.Update(ctx, key, data, entry.Revision())
		return err
	})
}

func (s *Store) CreateDocument(ctx context.Context, collection string, fields map[string]any) (string, error) {
	doc, err := store.NewDocument(fields, time.Now())
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}

	id := store.NewID()
	if _, err := s.kv.Create(ctx, store.Key(collection, id), data); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) retryConflict(key string) func(error, int) bool {
	return func(err error, attempt int) bool {
		if !isConflict(err) {
			return false
		}
		s.Logger.Debug("patch conflict, retrying", "key", key, "attempt", attempt)
		return true
	}
}

func isConflict(err error) bool {
	var apiErr *jetstream.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence
	}
	return errors.Is(err, jetstream.ErrKeyExists)
}

func snapshot(docs map[string]map[string]any, q core.Query) []core.Document {
	out := make([]core.Document, 0, len(docs))
	for _, id := range slices.Sorted(maps.Keys(docs)) {
		out = append(out, core.Document{ID: id, Fields: maps.Clone(docs[id])})
	}
	store.Sort(out, q)
	return out
}

func (s *Store) HealthCheck(ctx context.Context) error {
	_, err := s.kv.Status(ctx)
	return err
}
