// Package hashmap implements pool-backed hash maps.
//
// Map holds one value per key; inserting an existing key overwrites the
// value and hands the old one back. MultiMap keeps several values per key,
// told apart by a uint32 position such as a frame number.
package hashmap

import (
	"hash/maphash"
	"iter"

	"github.com/cespare/xxhash/v2"

	"github.com/pavanmanishd/pktmem"
)

const minBuckets = 8

type entry[K comparable, V any] struct {
	next  *entry[K, V]
	hash  uint64
	key   K
	value V
}

// Map is a chained hash map. Iteration order is unspecified.
type Map[K comparable, V any] struct {
	pool    *pktmem.Pool
	entries *pktmem.Slab[entry[K, V]]
	heads   *pktmem.Slab[*entry[K, V]]
	buckets []*entry[K, V]
	hash    func(K) uint64
	n       int

	finalize   func(K, V)
	finalizeID pktmem.CallbackID
}

// New returns an empty map hashing keys with hash/maphash.
func New[K comparable, V any](p *pktmem.Pool) *Map[K, V] {
	seed := maphash.MakeSeed()
	return NewFunc[K, V](p, func(k K) uint64 { return maphash.Comparable(seed, k) })
}

// NewString returns an empty map with string keys hashed by xxhash.
func NewString[V any](p *pktmem.Pool) *Map[string, V] {
	return NewFunc[string, V](p, xxhash.Sum64String)
}

// NewFunc returns an empty map using the given hash function.
func NewFunc[K comparable, V any](p *pktmem.Pool, hash func(K) uint64) *Map[K, V] {
	m := pktmem.New[Map[K, V]](p)
	m.pool = p
	m.entries = pktmem.SlabOf[entry[K, V]](p)
	m.heads = pktmem.SlabOf[*entry[K, V]](p)
	m.hash = hash
	return m
}

// Len returns the number of keys.
func (m *Map[K, V]) Len() int { return m.n }

// Insert sets k to v, returning the value it replaced if k was present.
func (m *Map[K, V]) Insert(k K, v V) (old V, replaced bool) {
	h := m.hash(k)
	if e := m.find(k, h); e != nil {
		old, e.value = e.value, v
		return old, true
	}
	if m.n >= len(m.buckets) {
		m.grow()
	}
	e := m.entries.New()
	e.hash, e.key, e.value = h, k, v
	i := m.slot(h)
	e.next = m.buckets[i]
	m.buckets[i] = e
	m.n++
	return old, false
}

// Lookup returns the value stored under k.
func (m *Map[K, V]) Lookup(k K) (V, bool) {
	if e := m.find(k, m.hash(k)); e != nil {
		return e.value, true
	}
	var zero V
	return zero, false
}

// LookupExtended returns the stored key equal to k along with its value.
func (m *Map[K, V]) LookupExtended(k K) (K, V, bool) {
	if e := m.find(k, m.hash(k)); e != nil {
		return e.key, e.value, true
	}
	var zk K
	var zv V
	return zk, zv, false
}

// Contains reports whether k is present.
func (m *Map[K, V]) Contains(k K) bool {
	return m.find(k, m.hash(k)) != nil
}

// Remove deletes k and returns its value. The finalizer does not run; the
// caller owns the returned value.
func (m *Map[K, V]) Remove(k K) (V, bool) {
	var zero V
	if m.n == 0 {
		return zero, false
	}
	h := m.hash(k)
	for pp := &m.buckets[m.slot(h)]; *pp != nil; pp = &(*pp).next {
		e := *pp
		if e.hash == h && e.key == k {
			*pp = e.next
			v := e.value
			m.n--
			m.entries.Free(e)
			return v, true
		}
	}
	return zero, false
}

// SetFinalizer arranges for fn to run on every entry still in the map when
// its pool is next reset or destroyed. A nil fn cancels it.
func (m *Map[K, V]) SetFinalizer(fn func(K, V)) {
	if fn != nil && m.finalizeID == 0 {
		m.finalizeID = m.pool.RegisterCallback(func(*pktmem.Pool, pktmem.Event, any) {
			m.finalizeID = 0
			if m.finalize == nil {
				return
			}
			for k, v := range m.All() {
				m.finalize(k, v)
			}
		}, nil)
	}
	m.finalize = fn
}

// All yields every entry.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, e := range m.buckets {
			for ; e != nil; e = e.next {
				if !yield(e.key, e.value) {
					return
				}
			}
		}
	}
}

// Keys yields every key.
func (m *Map[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range m.All() {
			if !yield(k) {
				return
			}
		}
	}
}

// Values yields every value.
func (m *Map[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, v := range m.All() {
			if !yield(v) {
				return
			}
		}
	}
}

func (m *Map[K, V]) find(k K, h uint64) *entry[K, V] {
	if m.n == 0 {
		return nil
	}
	for e := m.buckets[m.slot(h)]; e != nil; e = e.next {
		if e.hash == h && e.key == k {
			return e
		}
	}
	return nil
}

func (m *Map[K, V]) slot(h uint64) int {
	return int(h & uint64(len(m.buckets)-1))
}

// grow doubles the bucket array, keeping the load factor at most one.
func (m *Map[K, V]) grow() {
	old := m.buckets
	m.buckets = m.heads.MakeSlice(max(minBuckets, 2*len(old)))
	for _, e := range old {
		for e != nil {
			next := e.next
			i := m.slot(e.hash)
			e.next = m.buckets[i]
			m.buckets[i] = e
			e = next
		}
	}
	m.heads.FreeSlice(old)
}
