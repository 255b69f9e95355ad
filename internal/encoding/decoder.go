package encoding

import (
	"fmt"
)

// Decoder maps identifiers of one namespace back to tokens. It is built from
// an exported dictionary, after the Interner that produced it is gone.
type Decoder struct {
	namespace Namespace
	tokens    []string
	present   []bool
}

// NewDecoder creates an empty decoder with room for size identifiers
func NewDecoder(namespace Namespace, size int) *Decoder {
	return &Decoder{
		namespace: namespace,
		tokens:    make([]string, 0, size),
		present:   make([]bool, 0, size),
	}
}

// Namespace returns the namespace of the decoded identifiers
func (d *Decoder) Namespace() Namespace {
	return d.namespace
}

// Add registers token under id. Entries may arrive in any order, but an id
// may only be registered once.
func (d *Decoder) Add(token string, id uint64) error {
	if id >= uint64(len(d.tokens)) {
		grow := int(id) + 1 - len(d.tokens) // #nosec G115 - bounded by dictionary size
		d.tokens = append(d.tokens, make([]string, grow)...)
		d.present = append(d.present, make([]bool, grow)...)
	}
	if d.present[id] {
		return fmt.Errorf("duplicate %s identifier %d", d.namespace, id)
	}
	d.tokens[id] = token
	d.present[id] = true
	return nil
}

// DecodeID returns the token registered for id
func (d *Decoder) DecodeID(id uint64) (string, error) {
	if id >= uint64(len(d.tokens)) || !d.present[id] {
		return "", fmt.Errorf("unknown %s identifier %d", d.namespace, id)
	}
	return d.tokens[id], nil
}

// Len returns the number of registered identifiers
func (d *Decoder) Len() int {
	return len(d.tokens)
}

// Validate checks that the registered identifiers are exactly 0..Len()-1
func (d *Decoder) Validate() error {
	for id, ok := range d.present {
		if !ok {
			return fmt.Errorf("%s dictionary has a gap at identifier %d", d.namespace, id)
		}
	}
	return nil
}
