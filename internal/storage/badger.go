// Package storage implements the dictionary store on top of BadgerDB.
package storage

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/aleksaelezovic/tridex/pkg/store"
	badger "github.com/dgraph-io/badger/v4"
)

// BadgerStorage implements store.Storage using BadgerDB
type BadgerStorage struct {
	db *badger.DB
}

// NewBadgerStorage opens (or creates) a BadgerDB-backed store at path
func NewBadgerStorage(path string) (*BadgerStorage, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	return &BadgerStorage{db: db}, nil
}

// Begin opens a badger transaction
func (s *BadgerStorage) Begin(writable bool) (store.Transaction, error) {
	txn := s.db.NewTransaction(writable)
	return &BadgerTransaction{
		txn:      txn,
		writable: writable,
	}, nil
}

// NewWriteBatch starts a bulk load
func (s *BadgerStorage) NewWriteBatch() store.WriteBatch {
	return &BadgerWriteBatch{wb: s.db.NewWriteBatch()}
}

// Reset drops every key so a new run starts from an empty store
func (s *BadgerStorage) Reset() error {
	if err := s.db.DropAll(); err != nil {
		return fmt.Errorf("failed to reset badger db: %w", err)
	}
	return nil
}

// Close flushes and closes the database
func (s *BadgerStorage) Close() error {
	return s.db.Close()
}

// Sync forces the value log to disk
func (s *BadgerStorage) Sync() error {
	return s.db.Sync()
}

// BadgerWriteBatch implements store.WriteBatch with badger.WriteBatch, which
// splits the load into transactions that fit badger's size limits
type BadgerWriteBatch struct {
	wb *badger.WriteBatch
}

// Set queues a key-value pair. Key and value are copied before queuing since
// callers reuse their buffers.
func (b *BadgerWriteBatch) Set(table store.Table, key, value []byte) error {
	return b.wb.Set(store.PrefixKey(table, key), bytes.Clone(value))
}

// Flush commits all queued writes
func (b *BadgerWriteBatch) Flush() error {
	return b.wb.Flush()
}

// Cancel discards the batch
func (b *BadgerWriteBatch) Cancel() {
	b.wb.Cancel()
}

// BadgerTransaction wraps a badger transaction; writes are refused on a
// read-only one
type BadgerTransaction struct {
	txn      *badger.Txn
	writable bool
}

func (t *BadgerTransaction) Get(table store.Table, key []byte) ([]byte, error) {
	item, err := t.txn.Get(store.PrefixKey(table, key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	return item.ValueCopy(nil)
}

func (t *BadgerTransaction) Set(table store.Table, key, value []byte) error {
	if !t.writable {
		return store.ErrTransactionRO
	}

	return t.txn.Set(store.PrefixKey(table, key), value)
}

// Scan iterates over a key range [start, end) within one table
func (t *BadgerTransaction) Scan(table store.Table, start, end []byte) (store.Iterator, error) {
	tablePrefix := store.TablePrefix(table)

	seekKey := tablePrefix
	if start != nil {
		seekKey = store.PrefixKey(table, start)
	}

	var endKey []byte
	if end != nil {
		endKey = store.PrefixKey(table, end)
	}

	opts := badger.DefaultIteratorOptions
	opts.Prefix = tablePrefix

	return &BadgerIterator{
		it:      t.txn.NewIterator(opts),
		prefix:  tablePrefix,
		seekKey: seekKey,
		endKey:  endKey,
	}, nil
}

func (t *BadgerTransaction) Commit() error {
	return t.txn.Commit()
}

// Rollback discards the transaction; it is safe after Commit
func (t *BadgerTransaction) Rollback() error {
	t.txn.Discard()
	return nil
}

// BadgerIterator is a prefix-bounded badger iterator with an optional
// exclusive end key
type BadgerIterator struct {
	it       *badger.Iterator
	prefix   []byte // Table prefix, stripped from keys
	seekKey  []byte
	endKey   []byte
	started  bool
	hasValue bool
}

func (i *BadgerIterator) Next() bool {
	if !i.started {
		i.it.Seek(i.seekKey)
		i.started = true
	} else {
		i.it.Next()
	}

	i.hasValue = i.it.Valid() &&
		(i.endKey == nil || bytes.Compare(i.it.Item().Key(), i.endKey) < 0)
	return i.hasValue
}

// Key returns the current key without the table prefix
func (i *BadgerIterator) Key() []byte {
	if !i.hasValue {
		return nil
	}

	key := i.it.Item().KeyCopy(nil)
	return key[len(i.prefix):]
}

func (i *BadgerIterator) Value() ([]byte, error) {
	if !i.hasValue {
		return nil, store.ErrNotFound
	}

	return i.it.Item().ValueCopy(nil)
}

func (i *BadgerIterator) Close() error {
	i.it.Close()
	return nil
}
