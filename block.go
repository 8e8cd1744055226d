package pktmem

import "encoding/binary"

// Every block run starts with an 8-byte header: run size (header included)
// followed by a tag saying whether the run is handed out or free.
const (
	hdrSize  = 8
	minSplit = 4 * alignment

	tagAlloc uint32 = 0xA110CA7E
	tagFree  uint32 = 0xF4EEF4EE

	// maxProbes bounds the scan of a run's home class, which may hold runs
	// smaller than the request.
	maxProbes = 4
)

// run is a free-list entry. Entries are not removed eagerly when a run is
// claimed or merged; the freeSet is authoritative and stale entries are
// dropped when they surface.
type run struct {
	seg  uint32
	off  uint32 // header offset
	size uint32 // run size, header included
}

func (r run) key() uint64 { return posKey(r.seg, r.off) }
func (r run) end() uint64 { return posKey(r.seg, r.off+r.size) }

type blockBackend struct {
	owner   *Pool
	chain   segmentChain
	classes classBounds
	checked bool

	lists   [][]run           // per size class; the last list holds large runs
	big     []run             // freed oversized segments
	freeSet map[uint64]uint32 // (seg, off) -> size of each free run
	tails   map[uint64]uint32 // (seg, end) -> off of the free run ending there

	freeBytes int
}

func newBlockBackend(owner *Pool, c Config) *blockBackend {
	classes := newClassBounds(*c.SizeClasses)
	return &blockBackend{
		owner:   owner,
		chain:   newSegmentChain(owner, c.SegmentSize),
		classes: classes,
		checked: owner.checked,
		lists:   make([][]run, len(classes)+1),
		freeSet: make(map[uint64]uint32, 256),
		tails:   make(map[uint64]uint32, 256),
	}
}

func (b *blockBackend) alloc(n int) Handle {
	need := alignUp(hdrSize + n)
	var r run
	if need > b.chain.size {
		r = b.takeBig(need)
	} else if fr, ok := b.takeFree(need); ok {
		r = b.split(fr, need)
	} else {
		seg, off := b.chain.carve(need)
		r = run{seg: seg, off: uint32(off), size: uint32(need)}
	}
	b.setHeader(r.seg, r.off, r.size, tagAlloc)
	return Handle{seg: r.seg + 1, off: r.off + hdrSize, size: uint32(n)}
}

func (b *blockBackend) bytes(h Handle) []byte {
	s := b.chain.segs[h.seg-1]
	end := h.off + h.size
	return s.buf[h.off:end:end]
}

func (b *blockBackend) free(h Handle) {
	seg, off := h.seg-1, h.off-hdrSize
	if b.checked {
		b.validate(h)
	}
	size, _ := b.header(seg, off)
	r := run{seg: seg, off: off, size: size}
	if b.chain.segs[seg].oversized {
		b.setHeader(seg, off, size, tagFree)
		b.freeSet[r.key()] = size
		b.freeBytes += int(size)
		b.big = append(b.big, r)
		return
	}
	b.putRun(r)
}

// putRun returns r to the free lists, merging it with free neighbours in
// the same segment. A run that reaches the segment cursor goes back to the
// tail instead.
func (b *blockBackend) putRun(r run) {
	s := b.chain.segs[r.seg]
	b.setHeader(r.seg, r.off, r.size, tagFree)

	next := r.off + r.size
	if int(next) < s.off {
		if nsize, ok := b.freeSet[posKey(r.seg, next)]; ok {
			b.unlink(run{seg: r.seg, off: next, size: nsize})
			r.size += nsize
		}
	}
	if start, ok := b.tails[r.key()]; ok {
		psize := b.freeSet[posKey(r.seg, start)]
		b.unlink(run{seg: r.seg, off: start, size: psize})
		r.off = start
		r.size += psize
	}

	if int(r.off+r.size) == s.off {
		s.off = int(r.off)
		return
	}
	b.insertFree(r)
}

func (b *blockBackend) realloc(h Handle, n int) Handle {
	seg, off := h.seg-1, h.off-hdrSize
	if b.checked {
		b.validate(h)
	}
	size, _ := b.header(seg, off)
	need := uint32(alignUp(hdrSize + n))
	s := b.chain.segs[seg]
	nh := h
	nh.size = uint32(n)

	switch {
	case need <= size:
		// shrink in place, handing back the tail if it is worth a run
		if !s.oversized && size-need >= minSplit {
			b.setHeader(seg, off, need, tagAlloc)
			b.putRun(run{seg: seg, off: off + need, size: size - need})
		}
		return nh
	case s.oversized:
	case int(off+size) == s.off && b.chain.fits(seg, int(off), int(need)):
		s.off = int(off + need)
		b.setHeader(seg, off, need, tagAlloc)
		return nh
	default:
		next := off + size
		if nsize, ok := b.freeSet[posKey(seg, next)]; ok && size+nsize >= need {
			b.unlink(run{seg: seg, off: next, size: nsize})
			grown := b.split(run{seg: seg, off: off, size: size + nsize}, int(need))
			b.setHeader(seg, off, grown.size, tagAlloc)
			return nh
		}
	}

	moved := b.alloc(n)
	copy(b.bytes(moved), b.bytes(h))
	b.free(h)
	return moved
}

// takeFree finds a free run of at least need bytes.
func (b *blockBackend) takeFree(need int) (run, bool) {
	nc := len(b.classes)
	c := b.classes.of(need)
	if c < nc {
		l := b.lists[c]
		probes := 0
		for i := len(l) - 1; i >= 0 && probes < maxProbes; i-- {
			r := l[i]
			if !b.isFree(r) {
				l = removeAt(l, i)
				continue
			}
			probes++
			if int(r.size) >= need {
				b.lists[c] = removeAt(l, i)
				b.unlink(r)
				return r, true
			}
		}
		b.lists[c] = l

		// every run in a higher class is larger than need
		for c++; c < nc; c++ {
			if r, ok := b.popFree(c); ok {
				b.unlink(r)
				return r, true
			}
		}
	}

	l := b.lists[nc]
	for i := len(l) - 1; i >= 0; i-- {
		r := l[i]
		if !b.isFree(r) {
			l = removeAt(l, i)
			continue
		}
		if int(r.size) >= need {
			b.lists[nc] = removeAt(l, i)
			b.unlink(r)
			return r, true
		}
	}
	b.lists[nc] = l
	return run{}, false
}

// takeBig serves a request larger than a standard segment, reusing a freed
// oversized segment when one is large enough.
func (b *blockBackend) takeBig(need int) run {
	for i := len(b.big) - 1; i >= 0; i-- {
		r := b.big[i]
		if !b.isFree(r) {
			b.big = removeAt(b.big, i)
			continue
		}
		if int(r.size) >= need {
			b.big = removeAt(b.big, i)
			delete(b.freeSet, r.key())
			b.freeBytes -= int(r.size)
			return r
		}
	}
	seg, _ := b.chain.carve(need)
	return run{seg: seg, size: uint32(need)}
}

func (b *blockBackend) popFree(c int) (run, bool) {
	l := b.lists[c]
	for len(l) > 0 {
		r := l[len(l)-1]
		l = l[:len(l)-1]
		if b.isFree(r) {
			b.lists[c] = l
			return r, true
		}
	}
	b.lists[c] = l
	return run{}, false
}

// split trims r to need bytes and frees the remainder when it is large
// enough to be useful.
func (b *blockBackend) split(r run, need int) run {
	if rest := int(r.size) - need; rest >= minSplit {
		b.insertFree(run{seg: r.seg, off: r.off + uint32(need), size: uint32(rest)})
		r.size = uint32(need)
	}
	return r
}

func (b *blockBackend) insertFree(r run) {
	b.setHeader(r.seg, r.off, r.size, tagFree)
	b.freeSet[r.key()] = r.size
	b.tails[r.end()] = r.off
	c := b.classes.of(int(r.size))
	b.lists[c] = append(b.lists[c], r)
	b.freeBytes += int(r.size)
}

// unlink forgets a free run. Its header keeps the free tag so a later free
// of a handle inside it is still recognised as a double free.
func (b *blockBackend) unlink(r run) {
	delete(b.freeSet, r.key())
	delete(b.tails, r.end())
	b.freeBytes -= int(r.size)
}

func (b *blockBackend) isFree(r run) bool {
	size, ok := b.freeSet[r.key()]
	return ok && size == r.size
}

// validate reports double frees and handles this backend never issued.
func (b *blockBackend) validate(h Handle) {
	seg := h.seg - 1
	if int(seg) >= len(b.chain.segs) || h.off < hdrSize {
		b.owner.fatal(ViolationForeignHandle, h, "", "no segment %d or offset %#x", seg, h.off)
	}
	s := b.chain.segs[seg]
	if int(h.off)+int(h.size) > len(s.buf) {
		b.owner.fatal(ViolationForeignHandle, h, "", "handle extends past segment %d", seg)
	}
	size, tag := b.header(seg, h.off-hdrSize)
	switch {
	case tag == tagFree:
		b.owner.fatal(ViolationDoubleFree, h, "", "run at %d:%#x is already free", seg, h.off-hdrSize)
	case tag != tagAlloc || int(h.off)+int(h.size) > s.off || h.size+hdrSize > size:
		b.owner.fatal(ViolationForeignHandle, h, "", "no allocated run at %d:%#x", seg, h.off-hdrSize)
	}
}

func (b *blockBackend) header(seg, off uint32) (size, tag uint32) {
	buf := b.chain.segs[seg].buf[off : off+hdrSize]
	return binary.LittleEndian.Uint32(buf), binary.LittleEndian.Uint32(buf[4:])
}

func (b *blockBackend) setHeader(seg, off, size, tag uint32) {
	buf := b.chain.segs[seg].buf[off : off+hdrSize]
	binary.LittleEndian.PutUint32(buf, size)
	binary.LittleEndian.PutUint32(buf[4:], tag)
}

// reset clears the free lists and rewinds the segment chain.
func (b *blockBackend) reset() {
	for i := range b.lists {
		b.lists[i] = b.lists[i][:0]
	}
	b.big = b.big[:0]
	clear(b.freeSet)
	clear(b.tails)
	b.freeBytes = 0
	b.chain.rewind()
}

func (b *blockBackend) release() {
	b.chain.release()
	b.lists = nil
	b.big = nil
	b.freeSet = nil
	b.tails = nil
}

func (b *blockBackend) check() {}

func (b *blockBackend) stats(st *Stats) {
	st.Segments = len(b.chain.segs)
	st.Reserved = b.chain.reserved
	st.FreeBytes = b.freeBytes
	st.InUse = b.chain.used() - b.freeBytes
	st.SystemAllocs = b.chain.sysAllocs
}

// removeAt swap-removes element i.
func removeAt(l []run, i int) []run {
	last := len(l) - 1
	l[i] = l[last]
	return l[:last]
}
