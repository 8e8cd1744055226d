// Package itree implements an interval tree over closed ranges [low, high].
//
// The tree is an AVL tree ordered by (low, high, insertion order) in which
// every entry also records the greatest high endpoint in its subtree. Queries
// skip subtrees whose greatest high lies below the query, so finding the k
// ranges that overlap a point or range costs O(log n + k).
//
// Equal ranges are kept side by side: each Insert creates a distinct entry
// and Delete removes exactly the entry it is given.
package itree

import (
	"cmp"
	"fmt"
	"iter"

	"github.com/pavanmanishd/pktmem"
)

// Entry is one range in a Tree.
type Entry[K cmp.Ordered, V any] struct {
	left, right, parent *Entry[K, V]
	tree                *Tree[K, V]
	height              int32

	low, high K
	max       K // greatest high in this subtree
	seq       uint64

	Value V
}

// Low returns the lower endpoint.
func (e *Entry[K, V]) Low() K { return e.low }

// High returns the upper endpoint.
func (e *Entry[K, V]) High() K { return e.high }

// Overlaps reports whether [lo, hi] intersects e.
func (e *Entry[K, V]) Overlaps(lo, hi K) bool { return e.low <= hi && lo <= e.high }

func (e *Entry[K, V]) String() string {
	return fmt.Sprintf("[%v, %v]", e.low, e.high)
}

func (e *Entry[K, V]) before(o *Entry[K, V]) bool {
	if c := cmp.Compare(e.low, o.low); c != 0 {
		return c < 0
	}
	if c := cmp.Compare(e.high, o.high); c != 0 {
		return c < 0
	}
	return e.seq < o.seq
}

// update recomputes height and max from the children.
func (e *Entry[K, V]) update() {
	e.height = 1 + max(height(e.left), height(e.right))
	e.max = e.high
	if e.left != nil && e.left.max > e.max {
		e.max = e.left.max
	}
	if e.right != nil && e.right.max > e.max {
		e.max = e.right.max
	}
}

// Tree is an interval tree. The zero value is not usable; call New.
type Tree[K cmp.Ordered, V any] struct {
	entries *pktmem.Slab[Entry[K, V]]
	root    *Entry[K, V]
	n       int
	seq     uint64
}

// New returns an empty interval tree allocated from p.
func New[K cmp.Ordered, V any](p *pktmem.Pool) *Tree[K, V] {
	t := pktmem.New[Tree[K, V]](p)
	t.entries = pktmem.SlabOf[Entry[K, V]](p)
	return t
}

// Len returns the number of entries.
func (t *Tree[K, V]) Len() int { return t.n }

// Insert adds the range [low, high] carrying v and returns its entry.
func (t *Tree[K, V]) Insert(low, high K, v V) *Entry[K, V] {
	if high < low {
		panic(fmt.Sprintf("itree: high %v below low %v", high, low))
	}
	e := t.entries.New()
	t.seq++
	e.low, e.high, e.max, e.seq = low, high, high, t.seq
	e.height = 1
	e.tree = t
	e.Value = v

	var parent *Entry[K, V]
	left := false
	for x := t.root; x != nil; {
		parent = x
		left = e.before(x)
		if left {
			x = x.left
		} else {
			x = x.right
		}
	}
	e.parent = parent
	switch {
	case parent == nil:
		t.root = e
	case left:
		parent.left = e
	default:
		parent.right = e
	}
	t.n++
	t.retrace(parent)
	return e
}

// Delete removes e, which must belong to t.
func (t *Tree[K, V]) Delete(e *Entry[K, V]) {
	if e.tree != t {
		panic("itree: entry does not belong to this tree")
	}
	var from *Entry[K, V]
	switch {
	case e.left == nil:
		from = e.parent
		t.replace(e, e.right)
	case e.right == nil:
		from = e.parent
		t.replace(e, e.left)
	default:
		y := e.right
		for y.left != nil {
			y = y.left
		}
		if y.parent != e {
			from = y.parent
			t.replace(y, y.right)
			y.right = e.right
			y.right.parent = y
		} else {
			from = y
		}
		t.replace(e, y)
		y.left = e.left
		y.left.parent = y
	}
	t.n--
	t.retrace(from)
	t.entries.Free(e)
}

// Overlapping yields, in order, every entry intersecting [lo, hi]. The tree
// must not be modified while the sequence is consumed.
func (t *Tree[K, V]) Overlapping(lo, hi K) iter.Seq[*Entry[K, V]] {
	return func(yield func(*Entry[K, V]) bool) {
		overlapping(t.root, lo, hi, yield)
	}
}

// Stab yields every entry containing p.
func (t *Tree[K, V]) Stab(p K) iter.Seq[*Entry[K, V]] {
	return t.Overlapping(p, p)
}

// All yields every entry ordered by (low, high, insertion order).
func (t *Tree[K, V]) All() iter.Seq[*Entry[K, V]] {
	return func(yield func(*Entry[K, V]) bool) {
		inorder(t.root, yield)
	}
}

func overlapping[K cmp.Ordered, V any](n *Entry[K, V], lo, hi K, yield func(*Entry[K, V]) bool) bool {
	if n == nil || n.max < lo {
		return true
	}
	if !overlapping(n.left, lo, hi, yield) {
		return false
	}
	if n.low > hi {
		// everything to the right starts later still
		return true
	}
	if n.high >= lo && !yield(n) {
		return false
	}
	return overlapping(n.right, lo, hi, yield)
}

func inorder[K cmp.Ordered, V any](n *Entry[K, V], yield func(*Entry[K, V]) bool) bool {
	if n == nil {
		return true
	}
	return inorder(n.left, yield) && yield(n) && inorder(n.right, yield)
}

// retrace walks from n to the root refreshing annotations and restoring
// AVL balance.
func (t *Tree[K, V]) retrace(n *Entry[K, V]) {
	for n != nil {
		n.update()
		parent := n.parent
		switch bf := balance(n); {
		case bf > 1:
			if balance(n.left) < 0 {
				t.rotateLeft(n.left)
			}
			t.rotateRight(n)
		case bf < -1:
			if balance(n.right) > 0 {
				t.rotateRight(n.right)
			}
			t.rotateLeft(n)
		}
		n = parent
	}
}

func (t *Tree[K, V]) rotateLeft(x *Entry[K, V]) {
	y := x.right
	x.right = y.left
	if y.left != nil {
		y.left.parent = x
	}
	t.replace(x, y)
	y.left = x
	x.parent = y
	x.update()
	y.update()
}

func (t *Tree[K, V]) rotateRight(x *Entry[K, V]) {
	y := x.left
	x.left = y.right
	if y.right != nil {
		y.right.parent = x
	}
	t.replace(x, y)
	y.right = x
	x.parent = y
	x.update()
	y.update()
}

// replace puts v where u hangs from its parent.
func (t *Tree[K, V]) replace(u, v *Entry[K, V]) {
	switch {
	case u.parent == nil:
		t.root = v
	case u == u.parent.left:
		u.parent.left = v
	default:
		u.parent.right = v
	}
	if v != nil {
		v.parent = u.parent
	}
}

func height[K cmp.Ordered, V any](e *Entry[K, V]) int32 {
	if e == nil {
		return 0
	}
	return e.height
}

func balance[K cmp.Ordered, V any](e *Entry[K, V]) int32 {
	return height(e.left) - height(e.right)
}
