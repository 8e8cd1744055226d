package tree

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavanmanishd/pktmem"
)

func newPool(t *testing.T, kind pktmem.Kind) *pktmem.Pool {
	t.Helper()
	p := pktmem.NewPool(kind, &pktmem.Config{Checks: pktmem.ChecksOn})
	t.Cleanup(p.Destroy)
	return p
}

// audit checks the red-black properties, key order and parent links.
func audit[K, V any](t *testing.T, tr *Tree[K, V]) {
	t.Helper()
	require.False(t, isRed(tr.root), "root must be black")
	if tr.root != nil {
		require.Nil(t, tr.root.parent)
	}
	n := 0
	var walk func(x *node[K, V]) int
	walk = func(x *node[K, V]) int {
		if x == nil {
			return 1
		}
		n++
		if isRed(x) {
			require.False(t, isRed(x.left) || isRed(x.right), "red node with red child")
		}
		for _, c := range []*node[K, V]{x.left, x.right} {
			if c != nil {
				require.Same(t, x, c.parent)
			}
		}
		if x.left != nil {
			require.Negative(t, tr.cmp(x.left.key, x.key))
		}
		if x.right != nil {
			require.Positive(t, tr.cmp(x.right.key, x.key))
		}
		lh, rh := walk(x.left), walk(x.right)
		require.Equal(t, lh, rh, "black heights differ")
		if x.color == black {
			lh++
		}
		return lh
	}
	walk(tr.root)
	require.Equal(t, tr.n, n)
}

func TestTreeDuplicateKeyOverwrites(t *testing.T) {
	p := newPool(t, pktmem.KindBlock)
	tr := New[string, int](p)

	steps := []struct {
		key      string
		value    int
		old      int
		replaced bool
		len      int
	}{
		{"ip", 1, 0, false, 1},
		{"tcp", 2, 0, false, 2},
		{"ip", 3, 1, true, 2},
		{"ip", 4, 3, true, 2},
	}
	for _, s := range steps {
		old, replaced := tr.Insert(s.key, s.value)
		assert.Equal(t, s.old, old)
		assert.Equal(t, s.replaced, replaced)
		assert.Equal(t, s.len, tr.Len())
	}
	v, ok := tr.Lookup("ip")
	assert.True(t, ok)
	assert.Equal(t, 4, v)
}

func TestTreeAgainstOracle(t *testing.T) {
	for _, kind := range []pktmem.Kind{pktmem.KindBlock, pktmem.KindBlockFast, pktmem.KindStrict} {
		t.Run(kind.String(), func(t *testing.T) {
			p := newPool(t, kind)
			tr := New[int, int](p)
			oracle := redblacktree.NewWithIntComparator()
			rng := rand.New(rand.NewPCG(3, 5))

			for i := range 3000 {
				k := rng.IntN(500)
				if rng.IntN(3) == 0 {
					_, found := oracle.Get(k)
					_, ok := tr.Remove(k)
					require.Equal(t, found, ok)
					oracle.Remove(k)
				} else {
					tr.Insert(k, i)
					oracle.Put(k, i)
				}
				require.Equal(t, oracle.Size(), tr.Len())
				if i%100 == 0 {
					audit(t, tr)
				}
			}
			audit(t, tr)

			var keys []int
			for k, v := range tr.All() {
				want, _ := oracle.Get(k)
				require.Equal(t, want, v)
				keys = append(keys, k)
			}
			want := make([]int, 0, oracle.Size())
			for _, k := range oracle.Keys() {
				want = append(want, k.(int))
			}
			require.Equal(t, want, keys)

			for q := -1; q <= 501; q++ {
				fk, _, fok := tr.LookupLE(q)
				floor, found := oracle.Floor(q)
				require.Equal(t, found, fok, "LookupLE(%d)", q)
				if found {
					require.Equal(t, floor.Key, fk)
				}
				ck, _, cok := tr.LookupGE(q)
				ceil, found := oracle.Ceiling(q)
				require.Equal(t, found, cok, "LookupGE(%d)", q)
				if found {
					require.Equal(t, ceil.Key, ck)
				}
			}
		})
	}
}

func TestTreeMinMaxBackward(t *testing.T) {
	p := newPool(t, pktmem.KindBlock)
	tr := New[int, string](p)
	_, _, ok := tr.Min()
	assert.False(t, ok)

	for _, k := range []int{5, 1, 9, 3, 7} {
		tr.Insert(k, "")
	}
	k, _, _ := tr.Min()
	assert.Equal(t, 1, k)
	k, _, _ = tr.Max()
	assert.Equal(t, 9, k)

	var back []int
	for k := range tr.Backward() {
		back = append(back, k)
	}
	assert.Equal(t, []int{9, 7, 5, 3, 1}, back)
}

func TestTreeRemoveWhileIterating(t *testing.T) {
	p := newPool(t, pktmem.KindBlock)
	tr := New[int, int](p)
	for i := range 100 {
		tr.Insert(i, i)
	}
	for k := range tr.All() {
		if k%2 == 0 {
			tr.Remove(k)
		}
	}
	audit(t, tr)
	assert.Equal(t, 50, tr.Len())
	var keys []int
	for k := range tr.All() {
		keys = append(keys, k)
	}
	assert.True(t, slices.IsSorted(keys))
	assert.Equal(t, 1, keys[0])
}

func TestTreeCustomOrder(t *testing.T) {
	p := newPool(t, pktmem.KindSimple)
	tr := NewFunc[string, int](p, func(a, b string) int { return len(a) - len(b) })
	tr.Insert("ccc", 3)
	tr.Insert("a", 1)
	tr.Insert("bb", 2)
	_, replaced := tr.Insert("zz", 4)
	assert.True(t, replaced, "equal under the comparator means the same key")

	var got []int
	for _, v := range tr.All() {
		got = append(got, v)
	}
	assert.Equal(t, []int{1, 4, 3}, got)
}

func TestTreeEmptiesAfterReset(t *testing.T) {
	p := newPool(t, pktmem.KindBlockFast)
	tr := New[int, int](p)
	tr.Insert(1, 1)
	p.Reset()

	tr = New[int, int](p)
	assert.Zero(t, tr.Len())
	tr.Insert(2, 2)
	v, ok := tr.Lookup(2)
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}
