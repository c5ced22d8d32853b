// Package unit defines the Compilation Unit: the immutable artifact the
// compiler produces and the VM executes. It holds the instruction stream,
// constant pools, the function and type tables, and source spans aligned
// with instructions for diagnostics.
package unit

import (
	"errors"
	"hash/fnv"
	"strings"
)

// Item is a hierarchical name path addressing a function, type, or
// variant uniformly — e.g. ["std", "option", "Option"]. Equality is
// component-wise.
type Item []string

// Equal compares two items component-wise.
func (it Item) Equal(other Item) bool {
	if len(it) != len(other) {
		return false
	}
	for i := range it {
		if it[i] != other[i] {
			return false
		}
	}
	return true
}

func (it Item) String() string { return strings.Join(it, "::") }

func (it Item) key() string { return strings.Join(it, "\x00") }

// Hash is a 64-bit digest over an Item, or an (Item, variant) pair. The
// compiler is the single source of truth: it computes the same hash on
// both the declaring and the referencing side, so collisions are assumed
// absent.
type Hash uint64

// HashItem digests a bare Item (a function or a type name).
func HashItem(it Item) Hash {
	h := fnv.New64a()
	h.Write([]byte(it.key()))
	return Hash(h.Sum64())
}

// HashVariant digests an (Item, variant) pair — used for enum variants,
// where the enum's Item and the variant's bare name combine into one hash
// distinct from the enum's own Hash.
func HashVariant(enum Item, variant string) Hash {
	h := fnv.New64a()
	h.Write([]byte(enum.key()))
	h.Write([]byte{0})
	h.Write([]byte(variant))
	return Hash(h.Sum64())
}

// ErrDuplicateFunction is returned by Builder.DeclareFunction when an
// Item is already bound.
var ErrDuplicateFunction = errors.New("duplicate function")

// ErrDuplicateType is returned by Builder.DeclareType on redefinition.
var ErrDuplicateType = errors.New("duplicate type")
