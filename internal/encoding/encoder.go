package encoding

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"
)

const (
	// IDSize is the width of an identifier in binary keys
	IDSize = 8
)

// Namespace separates entity identifiers from predicate identifiers.
// The same text interned in both namespaces gets two unrelated ids.
type Namespace byte

const (
	// Entities holds subjects and objects
	Entities Namespace = iota

	// Predicates holds predicates (exported as "relation")
	Predicates
)

func (n Namespace) String() string {
	switch n {
	case Entities:
		return "entity"
	case Predicates:
		return "relation"
	default:
		return "unknown"
	}
}

// ParseNamespace accepts the names used on the command line
func ParseNamespace(s string) (Namespace, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "entity", "entities":
		return Entities, nil
	case "relation", "relations", "predicate", "predicates":
		return Predicates, nil
	default:
		return Entities, fmt.Errorf("unknown namespace: %s", s)
	}
}

// Hash128 computes a 128-bit xxhash3 hash of the token without copying it
func Hash128(s string) xxh3.Uint128 {
	return xxh3.HashString128(s)
}

// EncodeID encodes an identifier as a big-endian key so that byte order
// matches numeric order
func EncodeID(id uint64) []byte {
	var key [IDSize]byte
	binary.BigEndian.PutUint64(key[:], id)
	return key[:]
}

// DecodeID is the inverse of EncodeID
func DecodeID(key []byte) (uint64, error) {
	if len(key) != IDSize {
		return 0, fmt.Errorf("invalid identifier key length: %d", len(key))
	}
	return binary.BigEndian.Uint64(key), nil
}
