package itree

import (
	"math/rand/v2"
	"slices"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
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

// audit verifies ordering, AVL balance, cached heights, subtree maxima and
// parent links of the whole tree.
func audit[V any](t *testing.T, tr *Tree[int, V]) {
	t.Helper()
	if tr.root != nil {
		require.Nil(t, tr.root.parent)
	}
	n := 0
	var walk func(e *Entry[int, V]) (int32, int)
	walk = func(e *Entry[int, V]) (int32, int) {
		if e == nil {
			return 0, minInt
		}
		n++
		require.Same(t, tr, e.tree)
		require.LessOrEqual(t, e.low, e.high)
		for _, c := range []*Entry[int, V]{e.left, e.right} {
			if c != nil {
				require.Same(t, e, c.parent)
			}
		}
		if e.left != nil {
			require.True(t, e.left.before(e), "%v not before %v", e.left, e)
		}
		if e.right != nil {
			require.True(t, e.before(e.right), "%v not before %v", e, e.right)
		}
		lh, lmax := walk(e.left)
		rh, rmax := walk(e.right)
		require.LessOrEqual(t, max(lh-rh, rh-lh), int32(1), "unbalanced at %v", e)
		require.Equal(t, 1+max(lh, rh), e.height, "height at %v", e)
		require.Equal(t, max(e.high, lmax, rmax), e.max, "max at %v", e)
		return e.height, e.max
	}
	walk(tr.root)
	require.Equal(t, tr.n, n)

	var prev *Entry[int, V]
	for e := range tr.All() {
		if prev != nil {
			require.True(t, prev.before(e))
		}
		prev = e
	}
}

const minInt = -1 << 63

func TestInsertRejectsInvertedRange(t *testing.T) {
	p := newPool(t, pktmem.KindBlock)
	tr := New[int, string](p)
	assert.PanicsWithValue(t, "itree: high 1 below low 5", func() {
		tr.Insert(5, 1, "")
	})
	assert.Zero(t, tr.Len())
}

func TestDuplicateRangesAreKept(t *testing.T) {
	p := newPool(t, pktmem.KindBlock)
	tr := New[int, string](p)
	a := tr.Insert(10, 20, "a")
	b := tr.Insert(10, 20, "b")
	tr.Insert(10, 20, "c")
	require.Equal(t, 3, tr.Len())

	var got []string
	for e := range tr.Stab(15) {
		got = append(got, e.Value)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got, "equal ranges keep insertion order")

	tr.Delete(b)
	got = got[:0]
	for e := range tr.All() {
		got = append(got, e.Value)
	}
	assert.Equal(t, []string{"a", "c"}, got)
	assert.Equal(t, 10, a.Low())
	assert.Equal(t, 20, a.High())
	assert.Equal(t, "[10, 20]", a.String())
	audit(t, tr)
}

func TestDeleteForeignEntry(t *testing.T) {
	p := newPool(t, pktmem.KindBlock)
	one := New[int, int](p)
	two := New[int, int](p)
	e := one.Insert(1, 2, 0)
	assert.PanicsWithValue(t, "itree: entry does not belong to this tree", func() {
		two.Delete(e)
	})
	assert.Equal(t, 1, one.Len())
}

func TestOverlapBoundaries(t *testing.T) {
	p := newPool(t, pktmem.KindSimple)
	tr := New[int, int](p)
	e := tr.Insert(10, 20, 0)

	tests := []struct {
		lo, hi int
		want   bool
	}{
		{0, 9, false},
		{0, 10, true},
		{20, 30, true},
		{21, 30, false},
		{12, 14, true},
		{0, 100, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.Overlaps(tt.lo, tt.hi), "[%d, %d]", tt.lo, tt.hi)
		n := 0
		for range tr.Overlapping(tt.lo, tt.hi) {
			n++
		}
		assert.Equal(t, tt.want, n == 1, "query [%d, %d]", tt.lo, tt.hi)
	}
}

func TestStabMatchesBruteForce(t *testing.T) {
	for _, kind := range []pktmem.Kind{pktmem.KindBlock, pktmem.KindBlockFast, pktmem.KindStrict} {
		t.Run(kind.String(), func(t *testing.T) {
			p := newPool(t, kind)
			tr := New[int, int](p)
			rng := rand.New(rand.NewPCG(11, 13))
			var live []*Entry[int, int]

			check := func() {
				t.Helper()
				audit(t, tr)
				for point := -1; point <= 1001; point += 7 {
					want := mapset.NewThreadUnsafeSet[*Entry[int, int]]()
					for _, e := range live {
						if e.low <= point && point <= e.high {
							want.Add(e)
						}
					}
					got := mapset.NewThreadUnsafeSet[*Entry[int, int]]()
					var order []*Entry[int, int]
					for e := range tr.Stab(point) {
						require.True(t, got.Add(e), "entry yielded twice")
						order = append(order, e)
					}
					require.True(t, want.Equal(got), "stab %d: want %d entries, got %d",
						point, want.Cardinality(), got.Cardinality())
					require.True(t, slices.IsSortedFunc(order, func(a, b *Entry[int, int]) int {
						if a.before(b) {
							return -1
						}
						return 1
					}))
				}
			}

			for i := range 600 {
				if len(live) > 0 && rng.IntN(4) == 0 {
					j := rng.IntN(len(live))
					tr.Delete(live[j])
					live = slices.Delete(live, j, j+1)
				} else {
					lo := rng.IntN(1000)
					live = append(live, tr.Insert(lo, lo+rng.IntN(60), i))
				}
				require.Equal(t, len(live), tr.Len())
				if i%50 == 0 {
					check()
				}
			}
			check()

			for len(live) > 0 {
				tr.Delete(live[0])
				live = live[1:]
				audit(t, tr)
			}
			assert.Nil(t, tr.root)
		})
	}
}

func TestOverlappingEarlyStop(t *testing.T) {
	p := newPool(t, pktmem.KindBlock)
	tr := New[int, int](p)
	for i := range 50 {
		tr.Insert(i, i+100, i)
	}
	n := 0
	for range tr.Overlapping(0, 1000) {
		n++
		if n == 5 {
			break
		}
	}
	assert.Equal(t, 5, n)
}
