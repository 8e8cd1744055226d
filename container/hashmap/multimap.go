package hashmap

import (
	"iter"

	"github.com/pavanmanishd/pktmem"
	"github.com/pavanmanishd/pktmem/container/tree"
)

// MultiMap maps a key to values ordered by position. A dissector uses the
// frame number as position to track state that changes over a capture and
// asks for the value in force at a given frame with LookupLE.
//
// Inserting the same key at a new position keeps both values; inserting at
// an existing position overwrites.
type MultiMap[K comparable, V any] struct {
	pool  *pktmem.Pool
	keys  *Map[K, *tree.Tree[uint32, V]]
	count int
}

// NewMulti returns an empty multimap hashing keys with hash/maphash.
func NewMulti[K comparable, V any](p *pktmem.Pool) *MultiMap[K, V] {
	mm := pktmem.New[MultiMap[K, V]](p)
	mm.pool = p
	mm.keys = New[K, *tree.Tree[uint32, V]](p)
	return mm
}

// NewMultiFunc returns an empty multimap using the given hash function.
func NewMultiFunc[K comparable, V any](p *pktmem.Pool, hash func(K) uint64) *MultiMap[K, V] {
	mm := pktmem.New[MultiMap[K, V]](p)
	mm.pool = p
	mm.keys = NewFunc[K, *tree.Tree[uint32, V]](p, hash)
	return mm
}

// Len returns the number of stored values across all keys.
func (mm *MultiMap[K, V]) Len() int { return mm.count }

// KeyCount returns the number of distinct keys.
func (mm *MultiMap[K, V]) KeyCount() int { return mm.keys.Len() }

// Insert stores v under (k, pos), returning any value it replaced.
func (mm *MultiMap[K, V]) Insert(k K, pos uint32, v V) (V, bool) {
	t, ok := mm.keys.Lookup(k)
	if !ok {
		t = tree.New[uint32, V](mm.pool)
		mm.keys.Insert(k, t)
	}
	old, replaced := t.Insert(pos, v)
	if !replaced {
		mm.count++
	}
	return old, replaced
}

// Lookup returns the value stored under exactly (k, pos).
func (mm *MultiMap[K, V]) Lookup(k K, pos uint32) (V, bool) {
	if t, ok := mm.keys.Lookup(k); ok {
		return t.Lookup(pos)
	}
	var zero V
	return zero, false
}

// LookupLE returns the value of k with the greatest position not above pos.
func (mm *MultiMap[K, V]) LookupLE(k K, pos uint32) (uint32, V, bool) {
	if t, ok := mm.keys.Lookup(k); ok {
		return t.LookupLE(pos)
	}
	var zero V
	return 0, zero, false
}

// Remove deletes the value at (k, pos). A key left without values is
// dropped.
func (mm *MultiMap[K, V]) Remove(k K, pos uint32) (V, bool) {
	var zero V
	t, ok := mm.keys.Lookup(k)
	if !ok {
		return zero, false
	}
	v, ok := t.Remove(pos)
	if !ok {
		return zero, false
	}
	mm.count--
	if t.Len() == 0 {
		mm.keys.Remove(k)
	}
	return v, true
}

// Values yields the values of k by ascending position.
func (mm *MultiMap[K, V]) Values(k K) iter.Seq2[uint32, V] {
	return func(yield func(uint32, V) bool) {
		t, ok := mm.keys.Lookup(k)
		if !ok {
			return
		}
		for pos, v := range t.All() {
			if !yield(pos, v) {
				return
			}
		}
	}
}

// Keys yields every key that holds at least one value.
func (mm *MultiMap[K, V]) Keys() iter.Seq[K] { return mm.keys.Keys() }
