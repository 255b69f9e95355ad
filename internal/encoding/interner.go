package encoding

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/zeebo/xxh3"
)

// Order is the iteration order used when a table is exported
type Order int

const (
	// OrderToken sorts entries by token bytes
	OrderToken Order = iota

	// OrderID sorts entries by identifier, i.e. first-seen order
	OrderID
)

func (o Order) String() string {
	switch o {
	case OrderToken:
		return "token"
	case OrderID:
		return "id"
	default:
		return "unknown"
	}
}

// ParseOrder converts a configuration value into an Order
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "token", "":
		return OrderToken, nil
	case "id":
		return OrderID, nil
	default:
		return OrderToken, fmt.Errorf("unknown dictionary order: %s", s)
	}
}

// Interner assigns dense identifiers to tokens in first-seen order.
//
// Tokens are indexed by their 128-bit xxhash3 value and their bytes are kept
// once in an arena addressed by identifier, which keeps the per-entry cost
// flat for tables with tens of millions of entries. A hash hit is always
// confirmed against the stored bytes; the rare token whose hash collides
// with a different token is kept in an exact string map instead.
//
// An Interner is not safe for concurrent use.
type Interner struct {
	namespace  Namespace
	index      map[xxh3.Uint128]uint64
	collisions map[string]uint64
	tokens     arena
	hash       func(string) xxh3.Uint128
}

// NewInterner creates an empty table for the given namespace
func NewInterner(namespace Namespace) *Interner {
	return &Interner{
		namespace: namespace,
		index:     make(map[xxh3.Uint128]uint64),
		hash:      Hash128,
	}
}

// Namespace returns the namespace this table assigns identifiers in
func (in *Interner) Namespace() Namespace {
	return in.namespace
}

// Resolve returns the identifier of token, assigning the next one if the
// token has not been seen before
func (in *Interner) Resolve(token string) uint64 {
	h := in.hash(token)

	id, ok := in.index[h]
	if !ok {
		id = in.tokens.add(token)
		in.index[h] = id
		return id
	}
	if string(in.tokens.get(id)) == token {
		return id
	}

	// Different token, same hash
	if id, ok := in.collisions[token]; ok {
		return id
	}
	if in.collisions == nil {
		in.collisions = make(map[string]uint64)
	}
	id = in.tokens.add(token)
	in.collisions[token] = id
	return id
}

// Lookup returns the identifier of token without assigning one
func (in *Interner) Lookup(token string) (uint64, bool) {
	id, ok := in.index[in.hash(token)]
	if !ok {
		return 0, false
	}
	if string(in.tokens.get(id)) == token {
		return id, true
	}
	id, ok = in.collisions[token]
	return id, ok
}

// Token returns the token assigned to id
func (in *Interner) Token(id uint64) (string, bool) {
	if id >= in.tokens.len() {
		return "", false
	}
	return string(in.tokens.get(id)), true
}

// Len returns the number of assigned identifiers
func (in *Interner) Len() uint64 {
	return in.tokens.len()
}

// Bytes returns the total size of all stored tokens
func (in *Interner) Bytes() uint64 {
	return in.tokens.bytes
}

// Sorted returns every identifier in the requested order. The result only
// depends on the table contents, so an unchanged table always yields the
// same sequence.
func (in *Interner) Sorted(order Order) []uint64 {
	ids := make([]uint64, in.tokens.len())
	for i := range ids {
		ids[i] = uint64(i)
	}

	if order == OrderToken {
		slices.SortFunc(ids, func(a, b uint64) int {
			return bytes.Compare(in.tokens.get(a), in.tokens.get(b))
		})
	}

	return ids
}

// Each calls fn for every entry in the requested order until fn returns an
// error
func (in *Interner) Each(order Order, fn func(token []byte, id uint64) error) error {
	for _, id := range in.Sorted(order) {
		if err := fn(in.tokens.get(id), id); err != nil {
			return err
		}
	}
	return nil
}
