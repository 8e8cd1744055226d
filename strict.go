package pktmem

import "slices"

const (
	guardByte  = 0xAB // written around each allocation
	fillByte   = 0xCD // fresh, never-written memory
	poisonByte = 0xDD // freed memory
)

type strictRecord struct {
	inner Handle
	size  int
	gen   uint32
	site  string
}

// strictBackend wraps an inner strategy with guard regions on both sides of
// every allocation, fills fresh memory, poisons freed memory, and tracks
// every live handle so misuse is reported at the offending call.
//
// Each allocation gets a serial that its handle carries. The inner backend
// may hand a freed block out again at the same position; the serial tells
// the new owner's handle apart from stale copies of the old one.
type strictBackend struct {
	owner *Pool
	inner backend
	guard int
	gen   uint32
	live  map[uint64]strictRecord // by position
	freed map[uint32]string       // serials freed this cycle -> site of the free
}

func newStrictBackend(owner *Pool, inner backend, guard int) *strictBackend {
	return &strictBackend{
		owner: owner,
		inner: inner,
		guard: guard,
		live:  make(map[uint64]strictRecord),
		freed: make(map[uint32]string),
	}
}

func (s *strictBackend) alloc(n int) Handle {
	ih := s.inner.alloc(n + 2*s.guard)
	buf := s.inner.bytes(ih)
	fill(buf[:s.guard], guardByte)
	fill(buf[s.guard:s.guard+n], fillByte)
	fill(buf[s.guard+n:], guardByte)

	s.gen++
	if s.gen == 0 {
		s.gen++
	}
	s.live[ih.key()] = strictRecord{inner: ih, size: n, gen: s.gen, site: callerSite()}
	return Handle{seg: ih.seg, off: ih.off, size: uint32(n), gen: s.gen}
}

func (s *strictBackend) bytes(h Handle) []byte {
	rec := s.lookup(h, ViolationUseAfterFree)
	return s.inner.bytes(rec.inner)[s.guard : s.guard+rec.size : s.guard+rec.size]
}

func (s *strictBackend) free(h Handle) {
	rec := s.lookup(h, ViolationDoubleFree)
	s.verify(h, rec)
	buf := s.inner.bytes(rec.inner)
	fill(buf[s.guard:s.guard+rec.size], poisonByte)

	delete(s.live, h.key())
	s.freed[rec.gen] = callerSite()
	s.inner.free(rec.inner)
}

// realloc always moves so stale copies of the old handle are caught.
func (s *strictBackend) realloc(h Handle, n int) Handle {
	rec := s.lookup(h, ViolationUseAfterFree)
	nh := s.alloc(n)
	copy(s.bytes(nh), s.inner.bytes(rec.inner)[s.guard:s.guard+rec.size])
	s.free(h)
	return nh
}

// lookup returns the record of a live handle; a handle freed earlier in
// this cycle is reported as v, even when its block now belongs to a newer
// allocation, and anything else as foreign.
func (s *strictBackend) lookup(h Handle, v Violation) strictRecord {
	rec, ok := s.live[h.key()]
	if !ok || rec.gen != h.gen {
		if site, freed := s.freed[h.gen]; freed {
			s.owner.fatal(v, h, "", "handle was freed at %s", site)
		}
		s.owner.fatal(ViolationForeignHandle, h, "", "handle is not live in this pool")
	}
	if int(h.size) != rec.size {
		s.owner.fatal(ViolationForeignHandle, h, rec.site, "handle length %d, allocation length %d", h.size, rec.size)
	}
	return rec
}

// verify checks both guard regions of one allocation.
func (s *strictBackend) verify(h Handle, rec strictRecord) {
	buf := s.inner.bytes(rec.inner)
	for i, c := range buf[:s.guard] {
		if c != guardByte {
			s.owner.fatal(ViolationGuardCorrupted, h, rec.site,
				"underrun: guard byte %d before the allocation is %#x", s.guard-i, c)
		}
	}
	for i, c := range buf[s.guard+rec.size:] {
		if c != guardByte {
			s.owner.fatal(ViolationGuardCorrupted, h, rec.site,
				"overrun: guard byte %d after the allocation is %#x", i, c)
		}
	}
}

// check verifies every live allocation, in handle order.
func (s *strictBackend) check() {
	keys := make([]uint64, 0, len(s.live))
	for k := range s.live {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		rec := s.live[k]
		s.verify(Handle{seg: rec.inner.seg, off: rec.inner.off, size: uint32(rec.size), epoch: s.owner.epoch, gen: rec.gen}, rec)
	}
}

func (s *strictBackend) reset() {
	s.check()
	clear(s.live)
	clear(s.freed)
	s.inner.reset()
}

func (s *strictBackend) release() {
	s.inner.release()
	s.live = nil
	s.freed = nil
}

func (s *strictBackend) stats(st *Stats) {
	s.inner.stats(st)
	st.Live = len(s.live)
}

func fill(b []byte, c byte) {
	for i := range b {
		b[i] = c
	}
}
