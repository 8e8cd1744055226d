// Package array implements a growable array whose backing store comes from
// a pktmem pool.
package array

import (
	"fmt"
	"iter"
	"slices"

	"github.com/pavanmanishd/pktmem"
)

const minCap = 8

// Array is a growable array. Growth copies into a larger pool slice and
// hands the old one back to the pool, so pointers from Ptr and slices from
// Slice are only valid until the next Append.
type Array[T any] struct {
	store *pktmem.Slab[T]
	buf   []T
}

// New returns an empty array with room for hint elements.
func New[T any](p *pktmem.Pool, hint int) *Array[T] {
	a := pktmem.New[Array[T]](p)
	a.store = pktmem.SlabOf[T](p)
	if hint > 0 {
		a.buf = a.store.MakeSlice(hint)[:0]
	}
	return a
}

// Len returns the number of elements.
func (a *Array[T]) Len() int { return len(a.buf) }

// Cap returns the number of elements the array holds before growing.
func (a *Array[T]) Cap() int { return cap(a.buf) }

// Append adds vs at the end.
func (a *Array[T]) Append(vs ...T) {
	if need := len(a.buf) + len(vs); need > cap(a.buf) {
		a.grow(need)
	}
	a.buf = append(a.buf, vs...)
}

// At returns element i.
func (a *Array[T]) At(i int) T {
	a.bounds(i)
	return a.buf[i]
}

// Ptr returns a pointer to element i.
func (a *Array[T]) Ptr(i int) *T {
	a.bounds(i)
	return &a.buf[i]
}

// Set replaces element i.
func (a *Array[T]) Set(i int, v T) {
	a.bounds(i)
	a.buf[i] = v
}

// Remove deletes element i, shifting later elements down, and returns it.
func (a *Array[T]) Remove(i int) T {
	a.bounds(i)
	v := a.buf[i]
	a.buf = slices.Delete(a.buf, i, i+1)
	return v
}

// Truncate shortens the array to n elements.
func (a *Array[T]) Truncate(n int) {
	if n < 0 || n > len(a.buf) {
		panic(fmt.Sprintf("array: truncate to %d of %d", n, len(a.buf)))
	}
	clear(a.buf[n:])
	a.buf = a.buf[:n]
}

// Slice returns the elements in place.
func (a *Array[T]) Slice() []T { return a.buf }

// Sort sorts the elements by cmp.
func (a *Array[T]) Sort(cmp func(a, b T) int) {
	slices.SortFunc(a.buf, cmp)
}

// BinarySearch searches a sorted array for target and returns the position
// where it is or would be inserted.
func (a *Array[T]) BinarySearch(target T, cmp func(a, b T) int) (int, bool) {
	return slices.BinarySearchFunc(a.buf, target, cmp)
}

// All yields index and value pairs in order.
func (a *Array[T]) All() iter.Seq2[int, T] {
	return slices.All(a.buf)
}

func (a *Array[T]) grow(need int) {
	nb := a.store.MakeSlice(max(need, 2*cap(a.buf), minCap))
	n := copy(nb, a.buf)
	a.store.FreeSlice(a.buf)
	a.buf = nb[:n]
}

func (a *Array[T]) bounds(i int) {
	if i < 0 || i >= len(a.buf) {
		panic(fmt.Sprintf("array: index %d out of range [0:%d]", i, len(a.buf)))
	}
}
