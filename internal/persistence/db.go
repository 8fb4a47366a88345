package persistence

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"

	"instafeed/internal/config"
)

// DB is the embedded badger database. An empty BadgerPath keeps everything in memory.
type DB struct {
	Logger *slog.Logger
	Config *config.Config

	db *badger.DB
}

func (db *DB) Init(_ context.Context) error {
	path := ""
	if db.Config != nil {
		path = db.Config.BadgerPath
	}

	opened, err := Open(path, db.Logger)
	if err != nil {
		return err
	}
	db.db = opened

	return nil
}

func (db *DB) HealthCheck(_ context.Context) error {
	if db.db.IsClosed() {
		return ErrClosed
	}
	return nil
}

func (db *DB) Shutdown(_ context.Context) error {
	return db.db.Close()
}

// Open opens a badger database at path, or an in-memory one when path is empty.
func Open(path string, logger *slog.Logger) (*badger.DB, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	if path != "" {
		if err := os.MkdirAll(path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", path, err)
		}
		opts = badger.DefaultOptions(path)
	}

	opts = opts.WithNumVersionsToKeep(1)
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger.With("component", "badger")})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return db, nil
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
