package pktmem

// DefaultSegmentSize is the default size of a standard segment (64 KiB).
const DefaultSegmentSize = 1 << 16

// alignment of every carved run.
const alignment = 8

// segment represents a single contiguous region owned by a backend.
type segment struct {
	buf       []byte // backing memory
	off       int    // carve cursor within buf
	oversized bool   // dedicated to one request larger than a standard segment
}

// segmentChain is the growing list of segments shared by the block and
// block-fast backends. Standard segments survive a rewind and are reused;
// oversized segments are dropped by it.
type segmentChain struct {
	owner     *Pool
	segs      []*segment
	size      int // standard segment size
	cur       int // segment currently carved from
	reserved  int
	sysAllocs int
}

func newSegmentChain(owner *Pool, size int) segmentChain {
	c := segmentChain{owner: owner, size: size}
	c.cur = c.grow(size, false)
	return c
}

// carve reserves n bytes (n already aligned) and returns the segment index
// and offset of the run.
func (c *segmentChain) carve(n int) (uint32, int) {
	if n > c.size {
		i := c.grow(n, true)
		c.segs[i].off = n
		return uint32(i), 0
	}
	for {
		s := c.segs[c.cur]
		off := alignUp(s.off)
		if !s.oversized && off+n <= len(s.buf) {
			s.off = off + n
			return uint32(c.cur), off
		}
		if next := c.nextStandard(c.cur + 1); next >= 0 {
			c.cur = next
			continue
		}
		c.cur = c.grow(c.size, false)
	}
}

// fits reports whether the run at off in segment seg could be extended to
// end at off+n without crossing the segment.
func (c *segmentChain) fits(seg uint32, off, n int) bool {
	return off+n <= len(c.segs[seg].buf)
}

// nextStandard returns the first standard segment at or after i, or -1.
func (c *segmentChain) nextStandard(i int) int {
	for ; i < len(c.segs); i++ {
		if !c.segs[i].oversized {
			return i
		}
	}
	return -1
}

// grow appends a new segment of exactly size bytes and returns its index.
func (c *segmentChain) grow(size int, oversized bool) int {
	c.owner.reserve(size)
	buf := make([]byte, size)
	c.segs = append(c.segs, &segment{buf: buf, oversized: oversized})
	c.reserved += size
	c.sysAllocs++
	c.owner.log.Debug("pktmem: segment reserved",
		"pool", c.owner.name, "size", size, "oversized", oversized, "segments", len(c.segs))
	return len(c.segs) - 1
}

// rewind resets every standard segment's cursor to zero, keeping its memory
// for reuse, and drops oversized segments. Cost is O(segments).
func (c *segmentChain) rewind() {
	kept := c.segs[:0]
	for _, s := range c.segs {
		if s.oversized {
			c.reserved -= len(s.buf)
			c.owner.unreserve(len(s.buf))
			continue
		}
		s.off = 0
		kept = append(kept, s)
	}
	clear(c.segs[len(kept):])
	c.segs = kept
	c.cur = 0
	if len(c.segs) == 0 {
		c.cur = c.grow(c.size, false)
	}
}

// release drops all segments.
func (c *segmentChain) release() {
	c.owner.unreserve(c.reserved)
	clear(c.segs)
	c.segs = nil
	c.reserved = 0
	c.cur = 0
}

// used returns the sum of all segment cursors.
func (c *segmentChain) used() int {
	sum := 0
	for _, s := range c.segs {
		sum += s.off
	}
	return sum
}

// alignUp rounds off up to the run alignment.
func alignUp(off int) int {
	const mask = alignment - 1
	return (off + mask) &^ mask
}
