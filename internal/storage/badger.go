package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// BadgerBackend stores keys in a BadgerDB database.
type BadgerBackend struct {
	db *badger.DB
}

type badgerConfig struct {
	inMemory   bool
	syncWrites bool
	logger     *slog.Logger
}

// BadgerOption configures OpenBadger.
type BadgerOption func(*badgerConfig)

// InMemory keeps the database in memory. The path is ignored.
func InMemory() BadgerOption {
	return func(c *badgerConfig) { c.inMemory = true }
}

// SyncWrites fsyncs every write.
func SyncWrites() BadgerOption {
	return func(c *badgerConfig) { c.syncWrites = true }
}

// WithBadgerLogger routes badger's internal logging to logger.
func WithBadgerLogger(logger *slog.Logger) BadgerOption {
	return func(c *badgerConfig) { c.logger = logger }
}

// OpenBadger opens (or creates) a database at dir.
func OpenBadger(dir string, opts ...BadgerOption) (*BadgerBackend, error) {
	cfg := badgerConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	var bopts badger.Options
	if cfg.inMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		bopts = badger.DefaultOptions(dir)
	}
	bopts = bopts.
		WithSyncWrites(cfg.syncWrites).
		WithLogger(badgerLogger{logger: cfg.logger.With("component", "badger")})

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}
	return &BadgerBackend{db: db}, nil
}

func (b *BadgerBackend) Get(key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *BadgerBackend) Set(key string, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

func (b *BadgerBackend) Delete(key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (b *BadgerBackend) Keys(prefix string) ([]string, error) {
	var keys []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (b *BadgerBackend) Close() error {
	return b.db.Close()
}

// badgerLogger adapts slog to badger.Logger. Badger's info output is
// startup chatter, so it is demoted to debug.
type badgerLogger struct {
	logger *slog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(msg(format, args))
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(msg(format, args))
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(msg(format, args))
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(msg(format, args))
}

func msg(format string, args []interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
