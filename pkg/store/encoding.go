package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aleksaelezovic/tridex/internal/encoding"
)

// MetaStatsKey holds the statistics of the run that filled the store
var MetaStatsKey = []byte("stats")

// DictionaryTables returns the token->id and id->token tables of a namespace
func DictionaryTables(ns encoding.Namespace) (toID, toToken Table) {
	if ns == encoding.Predicates {
		return TableRelation2ID, TableID2Relation
	}
	return TableEntity2ID, TableID2Entity
}

// Dictionary reads one namespace of a persisted dictionary
type Dictionary struct {
	storage   Storage
	namespace encoding.Namespace
	toID      Table
	toToken   Table
}

// NewDictionary opens the namespace ns of storage for lookups
func NewDictionary(storage Storage, ns encoding.Namespace) *Dictionary {
	toID, toToken := DictionaryTables(ns)
	return &Dictionary{
		storage:   storage,
		namespace: ns,
		toID:      toID,
		toToken:   toToken,
	}
}

// LookupID returns the identifier stored for token
func (d *Dictionary) LookupID(token string) (uint64, error) {
	value, err := d.get(d.toID, []byte(token))
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", d.namespace, token, err)
	}
	return encoding.DecodeID(value)
}

// LookupToken returns the token stored for id
func (d *Dictionary) LookupToken(id uint64) (string, error) {
	value, err := d.get(d.toToken, encoding.EncodeID(id))
	if err != nil {
		return "", fmt.Errorf("%s %d: %w", d.namespace, id, err)
	}
	return string(value), nil
}

// Count returns the number of identifiers in the namespace
func (d *Dictionary) Count() (uint64, error) {
	txn, err := d.storage.Begin(false)
	if err != nil {
		return 0, err
	}
	defer txn.Rollback()

	it, err := txn.Scan(d.toToken, nil, nil)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	var count uint64
	for it.Next() {
		count++
	}
	return count, nil
}

// Range calls fn for every identifier in [from, to) in id order. A to of 0
// means no upper bound.
func (d *Dictionary) Range(from, to uint64, fn func(id uint64, token []byte) error) error {
	txn, err := d.storage.Begin(false)
	if err != nil {
		return err
	}
	defer txn.Rollback()

	var end []byte
	if to > 0 {
		end = encoding.EncodeID(to)
	}

	it, err := txn.Scan(d.toToken, encoding.EncodeID(from), end)
	if err != nil {
		return err
	}
	defer it.Close()

	for it.Next() {
		id, err := encoding.DecodeID(it.Key())
		if err != nil {
			return fmt.Errorf("%s dictionary: %w", d.namespace, err)
		}
		token, err := it.Value()
		if err != nil {
			return err
		}
		if err := fn(id, token); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dictionary) get(table Table, key []byte) ([]byte, error) {
	txn, err := d.storage.Begin(false)
	if err != nil {
		return nil, err
	}
	defer txn.Rollback()

	return txn.Get(table, key)
}

// RunStats is the summary stored with a dictionary
type RunStats struct {
	RunID        string `json:"run_id"`
	Source       string `json:"source"`
	Mode         string `json:"mode"`
	LinesRead    uint64 `json:"lines_read"`
	LinesEncoded uint64 `json:"lines_encoded"`
	LinesFailed  uint64 `json:"lines_failed"`
	Entities     uint64 `json:"entities"`
	Predicates   uint64 `json:"predicates"`
}

// PutRunStats stores stats in the meta table
func PutRunStats(storage Storage, stats RunStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to encode run stats: %w", err)
	}

	txn, err := storage.Begin(true)
	if err != nil {
		return err
	}
	if err := txn.Set(TableMeta, MetaStatsKey, data); err != nil {
		_ = txn.Rollback()
		return err
	}
	return txn.Commit()
}

// GetRunStats reads the stats stored by PutRunStats
func GetRunStats(storage Storage) (RunStats, error) {
	var stats RunStats

	txn, err := storage.Begin(false)
	if err != nil {
		return stats, err
	}
	defer txn.Rollback()

	data, err := txn.Get(TableMeta, MetaStatsKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return stats, fmt.Errorf("store has no run stats: %w", err)
		}
		return stats, err
	}
	if err := json.Unmarshal(data, &stats); err != nil {
		return stats, fmt.Errorf("failed to decode run stats: %w", err)
	}
	return stats, nil
}
