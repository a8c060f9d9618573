package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

const keyPrefix = "session/"

// BadgerConfig holds configuration for a badger-backed store.
type BadgerConfig struct {
	// Path is the directory for database files. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in RAM. Useful for tests.
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// TTL is the idle lifetime of a session. Zero means DefaultTTL.
	TTL time.Duration

	// GCInterval is how often value log GC runs. Zero disables it.
	GCInterval time.Duration

	// GCDiscardRatio is the minimum reclaimable share that triggers a rewrite.
	GCDiscardRatio float64

	// Logger receives badger's internal logs. Nil silences them.
	Logger *zap.Logger
}

// DefaultBadgerConfig returns production defaults for the database at path.
func DefaultBadgerConfig(path string) BadgerConfig {
	return BadgerConfig{
		Path:           path,
		SyncWrites:     true,
		TTL:            DefaultTTL,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryBadgerConfig returns a configuration for tests.
func InMemoryBadgerConfig() BadgerConfig {
	return BadgerConfig{
		InMemory: true,
		TTL:      DefaultTTL,
	}
}

// badgerLogger adapts zap to badger's Logger interface.
type badgerLogger struct {
	sugar *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// BadgerStore keeps sessions in badger. Every entry carries the session TTL,
// and every write re-stamps all of the session's entries.
type BadgerStore struct {
	db     *badger.DB
	ttl    time.Duration
	logger *zap.Logger

	stopCh chan struct{}
	doneCh chan struct{}
	once   sync.Once
}

// OpenBadger opens the database described by cfg.
func OpenBadger(cfg BadgerConfig) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	logger := cfg.Logger
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{sugar: logger.Named("badger").Sugar()})
	} else {
		logger = zap.NewNop()
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &BadgerStore{
		db:     db,
		ttl:    ttl,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		go s.runGC(cfg.GCInterval, cfg.GCDiscardRatio)
	} else {
		close(s.doneCh)
	}
	return s, nil
}

func (s *BadgerStore) runGC(interval time.Duration, ratio float64) {
	defer close(s.doneCh)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			for {
				if err := s.db.RunValueLogGC(ratio); err != nil {
					if !errors.Is(err, badger.ErrNoRewrite) {
						s.logger.Warn("value log gc failed", zap.Error(err))
					}
					break
				}
			}
		case <-s.stopCh:
			return
		}
	}
}

func sessionPrefix(sessionID string) []byte {
	return []byte(keyPrefix + sessionID + "/")
}

func entryKey(sessionID, key string) []byte {
	return []byte(keyPrefix + sessionID + "/" + key)
}

// scan calls fn for every live key of the session.
func scan(txn *badger.Txn, sessionID string, withValues bool, fn func(key string, item *badger.Item) error) error {
	prefix := sessionPrefix(sessionID)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = withValues
	it := txn.NewIterator(opts)
	defer it.Close()
	for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		if err := fn(string(item.Key()[len(prefix):]), item); err != nil {
			return err
		}
	}
	return nil
}

func (s *BadgerStore) Load(ctx context.Context, sessionID string) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string][]byte)
	err := s.db.View(func(txn *badger.Txn) error {
		return scan(txn, sessionID, true, func(key string, item *badger.Item) error {
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out[key] = v
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	return out, nil
}

func (s *BadgerStore) Put(ctx context.Context, sessionID string, values map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := s.touch(txn, sessionID, values); err != nil {
			return err
		}
		for k, v := range values {
			if err := txn.SetEntry(badger.NewEntry(entryKey(sessionID, k), v).WithTTL(s.ttl)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("put session %s: %w", sessionID, err)
	}
	return nil
}

func (s *BadgerStore) Remove(ctx context.Context, sessionID string, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	skip := make(map[string][]byte, len(keys))
	for _, k := range keys {
		skip[k] = nil
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete(entryKey(sessionID, k)); err != nil {
				return err
			}
		}
		return s.touch(txn, sessionID, skip)
	})
	if err != nil {
		return fmt.Errorf("remove from session %s: %w", sessionID, err)
	}
	return nil
}

// touch re-stamps the TTL of every existing key not present in skip.
func (s *BadgerStore) touch(txn *badger.Txn, sessionID string, skip map[string][]byte) error {
	type kv struct {
		key   string
		value []byte
	}
	var existing []kv
	err := scan(txn, sessionID, true, func(key string, item *badger.Item) error {
		if _, ok := skip[key]; ok {
			return nil
		}
		v, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		existing = append(existing, kv{key, v})
		return nil
	})
	if err != nil {
		return err
	}
	for _, e := range existing {
		if err := txn.SetEntry(badger.NewEntry(entryKey(sessionID, e.key), e.value).WithTTL(s.ttl)); err != nil {
			return err
		}
	}
	return nil
}

func (s *BadgerStore) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		var keys [][]byte
		err := scan(txn, sessionID, false, func(_ string, item *badger.Item) error {
			keys = append(keys, item.KeyCopy(nil))
			return nil
		})
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			return ErrNotFound
		}
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}

// Close stops value log GC and closes the database.
func (s *BadgerStore) Close() error {
	s.once.Do(func() { close(s.stopCh) })
	<-s.doneCh
	return s.db.Close()
}
