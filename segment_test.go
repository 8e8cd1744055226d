package pktmem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentChainCarve(t *testing.T) {
	p := newTestPool(t, KindBlockFast)
	c := &p.b.(*blockFastBackend).chain

	seg, off := c.carve(512)
	assert.Equal(t, uint32(0), seg)
	assert.Equal(t, 0, off)
	seg, off = c.carve(512)
	assert.Equal(t, uint32(0), seg)
	assert.Equal(t, 512, off)

	// segment full: a new standard one
	seg, off = c.carve(8)
	assert.Equal(t, uint32(1), seg)
	assert.Equal(t, 0, off)

	// oversized requests get a dedicated segment and do not move the cursor
	big, off := c.carve(4096)
	assert.Equal(t, uint32(2), big)
	assert.Equal(t, 0, off)
	assert.True(t, c.segs[big].oversized)
	seg, _ = c.carve(8)
	assert.Equal(t, uint32(1), seg)

	assert.Equal(t, 2*1024+4096, c.reserved)
	assert.Equal(t, c.reserved, p.Capacity())
}

func TestSegmentChainRewind(t *testing.T) {
	p := newTestPool(t, KindBlockFast)
	c := &p.b.(*blockFastBackend).chain
	c.carve(1000)
	c.carve(1000)
	c.carve(5000)
	c.carve(1000)
	require.Len(t, c.segs, 4)

	c.rewind()
	require.Len(t, c.segs, 3)
	for _, s := range c.segs {
		assert.False(t, s.oversized)
		assert.Zero(t, s.off)
	}
	assert.Zero(t, c.cur)
	assert.Equal(t, 3*1024, c.reserved)
}

func TestAlignUp(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 0}, {1, 8}, {7, 8}, {8, 8}, {9, 16}, {1023, 1024},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, alignUp(tt.in), "alignUp(%d)", tt.in)
	}
}
