package store

import (
	"errors"
)

var (
	ErrNotFound      = errors.New("key not found")
	ErrTransactionRO = errors.New("transaction is read-only")
)

// Storage is the key-value store a dictionary is persisted in
type Storage interface {
	// Begin opens a snapshot; only writable transactions may Set
	Begin(writable bool) (Transaction, error)

	// NewWriteBatch starts a bulk load that is not bound by transaction
	// size limits
	NewWriteBatch() WriteBatch

	// Reset deletes every key in every table
	Reset() error

	// Close releases the store; pending writes are flushed first
	Close() error

	// Sync forces written dictionaries to disk
	Sync() error
}

// Transaction is a snapshot of the store. Keys are scoped to a Table.
type Transaction interface {
	// Get returns ErrNotFound for missing keys
	Get(table Table, key []byte) ([]byte, error)

	Set(table Table, key, value []byte) error

	// Scan walks [start, end) of one table in key order. Nil bounds are
	// open.
	Scan(table Table, start, end []byte) (Iterator, error)

	Commit() error
	Rollback() error
}

// WriteBatch buffers writes and commits them in as many transactions as
// needed
type WriteBatch interface {
	// Set queues a key-value pair
	Set(table Table, key, value []byte) error

	// Flush commits everything queued and waits for it
	Flush() error

	// Cancel drops the batch; it must be called if Flush is not
	Cancel()
}

// Iterator walks the entries of one table; keys come without the table
// prefix
type Iterator interface {
	Next() bool
	Key() []byte
	Value() ([]byte, error)
	Close() error
}

// Table is the one-byte key prefix that separates the dictionary tables
type Table byte

const (
	// Entity dictionary: token -> id, id -> token
	TableEntity2ID Table = iota
	TableID2Entity

	// Predicate dictionary: token -> id, id -> token
	TableRelation2ID
	TableID2Relation

	// Run metadata
	TableMeta
)

func (t Table) String() string {
	switch t {
	case TableEntity2ID:
		return "entity2id"
	case TableID2Entity:
		return "id2entity"
	case TableRelation2ID:
		return "relation2id"
	case TableID2Relation:
		return "id2relation"
	case TableMeta:
		return "meta"
	default:
		return "unknown"
	}
}

// TablePrefix returns the prefix shared by every key of table
func TablePrefix(table Table) []byte {
	return []byte{byte(table)}
}

// PrefixKey returns a new slice holding the table byte followed by key
func PrefixKey(table Table, key []byte) []byte {
	return append(append(make([]byte, 0, 1+len(key)), byte(table)), key...)
}
