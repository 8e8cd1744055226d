package pktmem

// blockFastBackend bumps a cursor through the segment chain. Nothing is
// reclaimed before reset.
type blockFastBackend struct {
	chain segmentChain
}

func newBlockFastBackend(owner *Pool, c Config) *blockFastBackend {
	return &blockFastBackend{chain: newSegmentChain(owner, c.SegmentSize)}
}

func (b *blockFastBackend) alloc(n int) Handle {
	seg, off := b.chain.carve(alignUp(n))
	return Handle{seg: seg + 1, off: uint32(off), size: uint32(n)}
}

func (b *blockFastBackend) bytes(h Handle) []byte {
	s := b.chain.segs[h.seg-1]
	end := h.off + h.size
	return s.buf[h.off:end:end]
}

func (b *blockFastBackend) free(Handle) {}

// realloc never shrinks the cursor; growing always moves.
func (b *blockFastBackend) realloc(h Handle, n int) Handle {
	if n <= int(h.size) {
		h.size = uint32(n)
		return h
	}
	moved := b.alloc(n)
	copy(b.bytes(moved), b.bytes(h))
	return moved
}

func (b *blockFastBackend) reset()   { b.chain.rewind() }
func (b *blockFastBackend) release() { b.chain.release() }
func (b *blockFastBackend) check()   {}

func (b *blockFastBackend) stats(st *Stats) {
	st.Segments = len(b.chain.segs)
	st.Reserved = b.chain.reserved
	st.InUse = b.chain.used()
	st.SystemAllocs = b.chain.sysAllocs
}
