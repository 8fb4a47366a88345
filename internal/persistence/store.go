package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/pb"

	"instafeed/internal/core"
	"instafeed/internal/store"
	"instafeed/pkg/retry"
)

const maxTxnAttempts = 10

var _ core.DocumentStore = (*Store)(nil)

// Store is a DocumentStore backed by badger. Documents are JSON values under "<collection>.<id>" keys. Live queries
// re-read the collection whenever a key under its prefix changes.
type Store struct {
	Logger *slog.Logger
	DB     *DB

	db *badger.DB
}

// NewStore creates a store over an open database.
func NewStore(db *badger.DB, logger *slog.Logger) *Store {
	s := &Store{db: db, Logger: logger}
	s.Init(context.Background()) //nolint:errcheck
	return s
}

func (s *Store) Init(_ context.Context) error {
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	s.Logger = s.Logger.With("component", "persistence.Store")

	if s.db == nil && s.DB != nil {
		s.db = s.DB.db
	}
	if s.db == nil {
		return ErrClosed
	}
	return nil
}

func (s *Store) SubscribeQuery(ctx context.Context, q core.Query, onSnapshot core.SnapshotHandler, onError core.ErrorHandler) (func(), error) {
	docs, err := s.read(q)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	prefix := []byte(q.Collection + ".")

	done := make(chan struct{})
	go func() {
		defer close(done)

		onSnapshot(docs)

		err := s.db.Subscribe(ctx, func(*badger.KVList) error {
			docs, err := s.read(q)
			if err != nil {
				return err
			}
			onSnapshot(docs)
			return nil
		}, []pb.Match{{Prefix: prefix}})

		if ctx.Err() != nil {
			return
		}
		if err == nil {
			err = ErrSubscriptionClosed
		}
		onError(err)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}

func (s *Store) Patch(ctx context.Context, collection, docID string, patches ...core.FieldPatch) error {
	key := []byte(store.Key(collection, docID))

	return s.update(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s/%s", core.ErrNotFound, collection, docID)
		}
		if err != nil {
			return err
		}

		fields := map[string]any{}
		err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &fields)
		})
		if err != nil {
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
		return txn.Set(key, data)
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
	err = s.update(ctx, func(txn *badger.Txn) error {
		return txn.Set([]byte(store.Key(collection, id)), data)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	return retry.Do(ctx, maxTxnAttempts, func(err error, attempt int) bool {
		if !errors.Is(err, badger.ErrConflict) {
			return false
		}
		s.Logger.Debug("transaction conflict, retrying", "attempt", attempt)
		return true
	}, func() error {
		return s.db.Update(fn)
	})
}

func (s *Store) read(q core.Query) ([]core.Document, error) {
	prefix := []byte(q.Collection + ".")
	docs := []core.Document{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()

			_, id, ok := store.SplitKey(string(item.Key()))
			if !ok {
				continue
			}

			fields := map[string]any{}
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &fields)
			})
			if err != nil {
				s.Logger.Warn("skipping undecodable document", "key", string(item.Key()), "error", err)
				continue
			}

			docs = append(docs, core.Document{ID: id, Fields: fields})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	store.Sort(docs, q)
	return docs, nil
}

func (s *Store) HealthCheck(_ context.Context) error {
	if s.db.IsClosed() {
		return ErrClosed
	}
	return nil
}
