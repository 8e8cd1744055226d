package hashmap

import (
	"slices"
	"strconv"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavanmanishd/pktmem"
	"github.com/pavanmanishd/pktmem/container/itree"
	"github.com/pavanmanishd/pktmem/container/tree"
)

func TestMultiMapPositions(t *testing.T) {
	p := newPool(t, pktmem.KindBlock)
	mm := NewMulti[string, string](p)

	mm.Insert("tcp.stream", 10, "syn")
	mm.Insert("tcp.stream", 30, "fin")
	mm.Insert("tcp.stream", 20, "data")
	mm.Insert("udp.stream", 5, "dns")
	assert.Equal(t, 4, mm.Len())
	assert.Equal(t, 2, mm.KeyCount())

	tests := []struct {
		pos  uint32
		at   uint32
		want string
		ok   bool
	}{
		{pos: 5, ok: false},
		{pos: 10, at: 10, want: "syn", ok: true},
		{pos: 19, at: 10, want: "syn", ok: true},
		{pos: 25, at: 20, want: "data", ok: true},
		{pos: 1000, at: 30, want: "fin", ok: true},
	}
	for _, tt := range tests {
		at, v, ok := mm.LookupLE("tcp.stream", tt.pos)
		assert.Equal(t, tt.ok, ok, "pos %d", tt.pos)
		assert.Equal(t, tt.at, at, "pos %d", tt.pos)
		assert.Equal(t, tt.want, v, "pos %d", tt.pos)
	}

	v, ok := mm.Lookup("tcp.stream", 20)
	assert.True(t, ok)
	assert.Equal(t, "data", v)
	_, ok = mm.Lookup("tcp.stream", 21)
	assert.False(t, ok)
	_, _, ok = mm.LookupLE("icmp", 100)
	assert.False(t, ok)

	var order []uint32
	for pos := range mm.Values("tcp.stream") {
		order = append(order, pos)
	}
	assert.Equal(t, []uint32{10, 20, 30}, order)
}

func TestMultiMapRemoveDropsEmptyKeys(t *testing.T) {
	p := newPool(t, pktmem.KindStrict)
	mm := NewMultiFunc[string, int](p, xxhash.Sum64String)
	mm.Insert("a", 1, 1)
	mm.Insert("a", 2, 2)
	mm.Insert("b", 1, 3)

	_, ok := mm.Remove("a", 9)
	assert.False(t, ok)
	_, ok = mm.Remove("zz", 1)
	assert.False(t, ok)

	v, ok := mm.Remove("a", 1)
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, mm.KeyCount())

	mm.Remove("a", 2)
	assert.Equal(t, 1, mm.KeyCount())
	assert.Equal(t, 1, mm.Len())
	assert.Equal(t, []string{"b"}, slices.Collect(mm.Keys()))
}

// Each container has its own answer to a second insert of an existing key.
func TestDuplicateKeyPolicies(t *testing.T) {
	type result struct {
		len    int
		values []string
	}
	tests := []struct {
		name string
		run  func(p *pktmem.Pool) result
		want result
	}{
		{
			name: "map overwrites",
			run: func(p *pktmem.Pool) result {
				m := NewString[string](p)
				m.Insert("k", "first")
				old, replaced := m.Insert("k", "second")
				v, _ := m.Lookup("k")
				return result{m.Len(), []string{old, strconv.FormatBool(replaced), v}}
			},
			want: result{1, []string{"first", "true", "second"}},
		},
		{
			name: "multimap keeps distinct positions",
			run: func(p *pktmem.Pool) result {
				mm := NewMulti[string, string](p)
				mm.Insert("k", 1, "first")
				_, replaced := mm.Insert("k", 2, "second")
				var vs []string
				for _, v := range mm.Values("k") {
					vs = append(vs, v)
				}
				return result{mm.Len(), append(vs, strconv.FormatBool(replaced))}
			},
			want: result{2, []string{"first", "second", "false"}},
		},
		{
			name: "multimap overwrites the same position",
			run: func(p *pktmem.Pool) result {
				mm := NewMulti[string, string](p)
				mm.Insert("k", 1, "first")
				old, replaced := mm.Insert("k", 1, "second")
				v, _ := mm.Lookup("k", 1)
				return result{mm.Len(), []string{old, strconv.FormatBool(replaced), v}}
			},
			want: result{1, []string{"first", "true", "second"}},
		},
		{
			name: "tree overwrites",
			run: func(p *pktmem.Pool) result {
				tr := tree.New[string, string](p)
				tr.Insert("k", "first")
				old, replaced := tr.Insert("k", "second")
				v, _ := tr.Lookup("k")
				return result{tr.Len(), []string{old, strconv.FormatBool(replaced), v}}
			},
			want: result{1, []string{"first", "true", "second"}},
		},
		{
			name: "interval tree keeps both",
			run: func(p *pktmem.Pool) result {
				it := itree.New[int, string](p)
				it.Insert(1, 5, "first")
				it.Insert(1, 5, "second")
				var vs []string
				for e := range it.Stab(3) {
					vs = append(vs, e.Value)
				}
				return result{it.Len(), vs}
			},
			want: result{2, []string{"first", "second"}},
		},
	}
	for _, tt := range tests {
		for _, kind := range kinds {
			t.Run(tt.name+"/"+kind.String(), func(t *testing.T) {
				assert.Equal(t, tt.want, tt.run(newPool(t, kind)))
			})
		}
	}
}
