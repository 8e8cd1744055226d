// Package tree implements an ordered map as a red-black tree whose nodes are
// allocated from a pktmem pool.
//
// Inserting a key that is already present overwrites its value.
package tree

import (
	"cmp"
	"iter"

	"github.com/pavanmanishd/pktmem"
)

type color bool

const (
	red   color = false
	black color = true
)

type node[K, V any] struct {
	left, right, parent *node[K, V]
	color               color

	key   K
	value V
}

// Tree is an ordered map. The zero value is not usable; call New or NewFunc.
type Tree[K, V any] struct {
	nodes *pktmem.Slab[node[K, V]]
	root  *node[K, V]
	cmp   func(a, b K) int
	n     int
}

// New returns an empty tree over naturally ordered keys.
func New[K cmp.Ordered, V any](p *pktmem.Pool) *Tree[K, V] {
	return NewFunc[K, V](p, cmp.Compare[K])
}

// NewFunc returns an empty tree ordered by compare.
func NewFunc[K, V any](p *pktmem.Pool, compare func(a, b K) int) *Tree[K, V] {
	t := pktmem.New[Tree[K, V]](p)
	t.nodes = pktmem.SlabOf[node[K, V]](p)
	t.cmp = compare
	return t
}

// Len returns the number of keys.
func (t *Tree[K, V]) Len() int { return t.n }

// Insert sets k to v. If k was present its previous value is returned with
// replaced set.
func (t *Tree[K, V]) Insert(k K, v V) (old V, replaced bool) {
	var parent *node[K, V]
	x := t.root
	c := 0
	for x != nil {
		parent = x
		c = t.cmp(k, x.key)
		switch {
		case c < 0:
			x = x.left
		case c > 0:
			x = x.right
		default:
			old, x.value = x.value, v
			return old, true
		}
	}

	z := t.nodes.New()
	z.key, z.value, z.parent, z.color = k, v, parent, red
	switch {
	case parent == nil:
		t.root = z
	case c < 0:
		parent.left = z
	default:
		parent.right = z
	}
	t.n++
	t.insertFixup(z)
	return old, false
}

// Lookup returns the value stored under k.
func (t *Tree[K, V]) Lookup(k K) (V, bool) {
	if x := t.find(k); x != nil {
		return x.value, true
	}
	var zero V
	return zero, false
}

// LookupLE returns the entry with the greatest key not above k.
func (t *Tree[K, V]) LookupLE(k K) (K, V, bool) {
	var best *node[K, V]
	for x := t.root; x != nil; {
		c := t.cmp(k, x.key)
		if c == 0 {
			return x.key, x.value, true
		}
		if c > 0 {
			best = x
			x = x.right
		} else {
			x = x.left
		}
	}
	return entry(best)
}

// LookupGE returns the entry with the smallest key not below k.
func (t *Tree[K, V]) LookupGE(k K) (K, V, bool) {
	var best *node[K, V]
	for x := t.root; x != nil; {
		c := t.cmp(k, x.key)
		if c == 0 {
			return x.key, x.value, true
		}
		if c < 0 {
			best = x
			x = x.left
		} else {
			x = x.right
		}
	}
	return entry(best)
}

// Min returns the entry with the smallest key.
func (t *Tree[K, V]) Min() (K, V, bool) {
	if t.root == nil {
		return entry[K, V](nil)
	}
	return entry(minimum(t.root))
}

// Max returns the entry with the greatest key.
func (t *Tree[K, V]) Max() (K, V, bool) {
	if t.root == nil {
		return entry[K, V](nil)
	}
	return entry(maximum(t.root))
}

// Remove deletes k and returns the value it held.
func (t *Tree[K, V]) Remove(k K) (V, bool) {
	z := t.find(k)
	if z == nil {
		var zero V
		return zero, false
	}
	v := z.value
	t.delete(z)
	return v, true
}

// All yields entries in ascending key order. The entry just yielded may be
// removed during iteration.
func (t *Tree[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		if t.root == nil {
			return
		}
		for x := minimum(t.root); x != nil; {
			next := successor(x)
			if !yield(x.key, x.value) {
				return
			}
			x = next
		}
	}
}

// Backward yields entries in descending key order.
func (t *Tree[K, V]) Backward() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		if t.root == nil {
			return
		}
		for x := maximum(t.root); x != nil; {
			prev := predecessor(x)
			if !yield(x.key, x.value) {
				return
			}
			x = prev
		}
	}
}

func (t *Tree[K, V]) find(k K) *node[K, V] {
	x := t.root
	for x != nil {
		c := t.cmp(k, x.key)
		switch {
		case c < 0:
			x = x.left
		case c > 0:
			x = x.right
		default:
			return x
		}
	}
	return nil
}

func (t *Tree[K, V]) insertFixup(z *node[K, V]) {
	for z.parent != nil && z.parent.color == red {
		gp := z.parent.parent
		if z.parent == gp.left {
			if y := gp.right; isRed(y) {
				z.parent.color, y.color, gp.color = black, black, red
				z = gp
				continue
			}
			if z == z.parent.right {
				z = z.parent
				t.rotateLeft(z)
			}
			z.parent.color, gp.color = black, red
			t.rotateRight(gp)
		} else {
			if y := gp.left; isRed(y) {
				z.parent.color, y.color, gp.color = black, black, red
				z = gp
				continue
			}
			if z == z.parent.left {
				z = z.parent
				t.rotateRight(z)
			}
			z.parent.color, gp.color = black, red
			t.rotateLeft(gp)
		}
	}
	t.root.color = black
}

// delete unlinks z. Nodes are relinked rather than having their payloads
// swapped, so pointers to other nodes stay valid.
func (t *Tree[K, V]) delete(z *node[K, V]) {
	var x, xParent *node[K, V]
	removed := z.color
	switch {
	case z.left == nil:
		x, xParent = z.right, z.parent
		t.transplant(z, z.right)
	case z.right == nil:
		x, xParent = z.left, z.parent
		t.transplant(z, z.left)
	default:
		y := minimum(z.right)
		removed = y.color
		x = y.right
		if y.parent == z {
			xParent = y
		} else {
			xParent = y.parent
			t.transplant(y, y.right)
			y.right = z.right
			y.right.parent = y
		}
		t.transplant(z, y)
		y.left = z.left
		y.left.parent = y
		y.color = z.color
	}
	if removed == black {
		t.deleteFixup(x, xParent)
	}
	t.n--
	t.nodes.Free(z)
}

func (t *Tree[K, V]) deleteFixup(x, parent *node[K, V]) {
	for x != t.root && !isRed(x) {
		if x == parent.left {
			w := parent.right
			if isRed(w) {
				w.color, parent.color = black, red
				t.rotateLeft(parent)
				w = parent.right
			}
			if !isRed(w.left) && !isRed(w.right) {
				w.color = red
				x, parent = parent, parent.parent
				continue
			}
			if !isRed(w.right) {
				w.left.color, w.color = black, red
				t.rotateRight(w)
				w = parent.right
			}
			w.color, parent.color = parent.color, black
			w.right.color = black
			t.rotateLeft(parent)
			x = t.root
		} else {
			w := parent.left
			if isRed(w) {
				w.color, parent.color = black, red
				t.rotateRight(parent)
				w = parent.left
			}
			if !isRed(w.left) && !isRed(w.right) {
				w.color = red
				x, parent = parent, parent.parent
				continue
			}
			if !isRed(w.left) {
				w.right.color, w.color = black, red
				t.rotateLeft(w)
				w = parent.left
			}
			w.color, parent.color = parent.color, black
			w.left.color = black
			t.rotateRight(parent)
			x = t.root
		}
	}
	if x != nil {
		x.color = black
	}
}

func (t *Tree[K, V]) transplant(u, v *node[K, V]) {
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

func (t *Tree[K, V]) rotateLeft(x *node[K, V]) {
	y := x.right
	x.right = y.left
	if y.left != nil {
		y.left.parent = x
	}
	t.transplant(x, y)
	y.left = x
	x.parent = y
}

func (t *Tree[K, V]) rotateRight(x *node[K, V]) {
	y := x.left
	x.left = y.right
	if y.right != nil {
		y.right.parent = x
	}
	t.transplant(x, y)
	y.right = x
	x.parent = y
}

func isRed[K, V any](n *node[K, V]) bool { return n != nil && n.color == red }

func minimum[K, V any](n *node[K, V]) *node[K, V] {
	for n.left != nil {
		n = n.left
	}
	return n
}

func maximum[K, V any](n *node[K, V]) *node[K, V] {
	for n.right != nil {
		n = n.right
	}
	return n
}

func successor[K, V any](n *node[K, V]) *node[K, V] {
	if n.right != nil {
		return minimum(n.right)
	}
	p := n.parent
	for p != nil && n == p.right {
		n, p = p, p.parent
	}
	return p
}

func predecessor[K, V any](n *node[K, V]) *node[K, V] {
	if n.left != nil {
		return maximum(n.left)
	}
	p := n.parent
	for p != nil && n == p.left {
		n, p = p, p.parent
	}
	return p
}

func entry[K, V any](n *node[K, V]) (K, V, bool) {
	if n == nil {
		var k K
		var v V
		return k, v, false
	}
	return n.key, n.value, true
}
