// Package kv provides the embedded key-value store backing every persisted
// collection in this service (credentials, escrow, nullifiers, audit log,
// verification records, proof cache L2).
package kv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"

	"github.com/zeroidhq/zeroid-core/internal/log"
)

// Store wraps a single BadgerDB instance. One Store is opened per logical
// collection (credentials, escrow, ...), each at its own sub-directory, so a
// corrupt or oversized collection never blocks the others.
type Store struct {
	db      *badgerdb.DB
	logger  log.Logger
	closing int32
	writeWg sync.WaitGroup
}

// Options configures Open.
type Options struct {
	// Path is the on-disk directory for this store. Empty opens an
	// in-memory instance, used by tests.
	Path string
	// SyncWrites forces an fsync on every write; the store layer turns this
	// on for anything holding escrow/credential data.
	SyncWrites bool
}

// Open opens (creating if necessary) a BadgerDB store at opts.Path.
func Open(opts Options, logger log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.NewNop()
	}

	var badgerOpts badgerdb.Options
	if opts.Path == "" {
		badgerOpts = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(opts.Path, 0o700); err != nil {
			return nil, fmt.Errorf("kv: create data directory %q: %w", opts.Path, err)
		}
		badgerOpts = badgerdb.DefaultOptions(opts.Path)
	}
	badgerOpts.SyncWrites = opts.SyncWrites
	badgerOpts.Logger = &badgerLogger{logger: logger}

	db, err := badgerdb.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("kv: open badger store at %q: %w", opts.Path, err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close drains any in-flight writes and closes the underlying database.
// Safe to call once at shutdown; subsequent writes fail fast instead of
// racing Badger's own close sequence.
func (s *Store) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closing, 0, 1) {
		return nil
	}
	s.writeWg.Wait()
	return s.db.Close()
}

func (s *Store) beginWrite() (func(), error) {
	if atomic.LoadInt32(&s.closing) == 1 {
		return nil, fmt.Errorf("kv: store is closing")
	}
	s.writeWg.Add(1)
	if atomic.LoadInt32(&s.closing) == 1 {
		s.writeWg.Done()
		return nil, fmt.Errorf("kv: store is closing")
	}
	return s.writeWg.Done, nil
}

// Get returns the value for key, or (nil, nil) if the key does not exist.
func (s *Store) Get(_ context.Context, key []byte) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key)
		if err == badgerdb.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("kv: get: %w", err)
	}
	return out, nil
}

// Set writes key/value, overwriting any existing value.
func (s *Store) Set(_ context.Context, key, value []byte) error {
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(key, value)
	})
}

// SetWithTTL writes key/value, expiring it after ttl.
func (s *Store) SetWithTTL(_ context.Context, key, value []byte, ttl time.Duration) error {
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.SetEntry(badgerdb.NewEntry(key, value).WithTTL(ttl))
	})
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(_ context.Context, key []byte) error {
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(key)
	})
}

// Exists reports whether key is present.
func (s *Store) Exists(_ context.Context, key []byte) (bool, error) {
	var exists bool
	err := s.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get(key)
		switch err {
		case nil:
			exists = true
			return nil
		case badgerdb.ErrKeyNotFound:
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return false, fmt.Errorf("kv: exists: %w", err)
	}
	return exists, nil
}

// PrefixScan returns every key/value pair whose key starts with prefix.
func (s *Store) PrefixScan(_ context.Context, prefix []byte) (map[string][]byte, error) {
	result := make(map[string][]byte)
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			result[string(item.KeyCopy(nil))] = val
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("kv: prefix scan: %w", err)
	}
	return result, nil
}

// RangeScan returns every key/value pair in [startKey, endKey). An empty
// endKey scans to the end of the keyspace.
func (s *Store) RangeScan(_ context.Context, startKey, endKey []byte) (map[string][]byte, error) {
	result := make(map[string][]byte)
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(startKey); it.Valid(); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)
			if len(endKey) > 0 && bytes.Compare(key, endKey) >= 0 {
				break
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			result[string(key)] = val
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("kv: range scan: %w", err)
	}
	return result, nil
}

// Transaction is a Badger-backed read/write transaction passed to
// RunInTransaction's callback, used where the store layer needs
// read-then-write atomicity (e.g. the nullifier single-use check).
type Transaction struct {
	txn *badgerdb.Txn
}

func (t *Transaction) Get(key []byte) ([]byte, error) {
	item, err := t.txn.Get(key)
	if err == badgerdb.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (t *Transaction) Set(key, value []byte) error {
	return t.txn.Set(key, value)
}

func (t *Transaction) Delete(key []byte) error {
	return t.txn.Delete(key)
}

// maxTransactionConflictRetries bounds how many times RunInTransaction
// retries a commit that lost a write-write race, so a genuinely hot key
// fails closed instead of retrying forever.
const maxTransactionConflictRetries = 10

// RunInTransaction executes fn against a single Badger transaction, committing
// on success and discarding on error; a panic in fn is not recovered. A commit that
// loses a write-write race returns ErrConflict, which is retried up to
// maxTransactionConflictRetries times by re-running fn against a fresh
// transaction, so callers doing a read-then-write check (e.g. the nullifier
// single-use check) see a consistent view instead of a raw commit error.
func (s *Store) RunInTransaction(_ context.Context, fn func(tx *Transaction) error) error {
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()

	for attempt := 0; ; attempt++ {
		txn := s.db.NewTransaction(true)

		if err := fn(&Transaction{txn: txn}); err != nil {
			txn.Discard()
			return fmt.Errorf("kv: transaction: %w", err)
		}
		err := txn.Commit()
		txn.Discard()
		if err == nil {
			return nil
		}
		if !errors.Is(err, badgerdb.ErrConflict) || attempt >= maxTransactionConflictRetries {
			return fmt.Errorf("kv: commit transaction: %w", err)
		}
	}
}

// badgerLogger adapts this service's Logger interface to Badger's internal
// logging interface.
type badgerLogger struct {
	logger log.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{})   { l.logger.Errorf(format, args...) }
func (l *badgerLogger) Warningf(format string, args ...interface{}) { l.logger.Warnf(format, args...) }
func (l *badgerLogger) Infof(format string, args ...interface{})    { l.logger.Infof(format, args...) }
func (l *badgerLogger) Debugf(format string, args ...interface{})   { l.logger.Debugf(format, args...) }
