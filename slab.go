package pktmem

import (
	"reflect"
	"unsafe"
)

// slab is the pool's view of a typed Slab.
type slab interface {
	reset()
	release()
	footprint() int
}

// minChunkLen is the smallest number of elements in a slab chunk.
const minChunkLen = 16

// Slab hands out storage for values of type T. Values containing Go pointers
// cannot live in raw segment bytes, so containers take their nodes and
// backing arrays from typed chunks owned by the pool instead. Chunks survive
// Reset, which clears and rewinds them; Destroy drops them.
//
// Free follows the pool's backend: a no-op on block-fast pools, immediate
// reuse on block and simple pools, and quarantine until reset on strict
// pools. Checked pools report a slot freed twice.
type Slab[T any] struct {
	owner    *Pool
	elemSize int
	chunkLen int

	chunks [][]T
	cur    int // chunk carved from
	off    int // next free element in chunks[cur]
	big    [][]T

	free []*T
	runs map[int][][]T // freed contiguous runs by length

	quarantine bool
	freed      map[*T]struct{}
}

// SlabOf returns the pool's slab for T, creating it on first use.
func SlabOf[T any](p *Pool) *Slab[T] {
	p.live()
	t := reflect.TypeFor[T]()
	if s, ok := p.slabIdx[t]; ok {
		return s.(*Slab[T])
	}
	s := newSlab[T](p)
	p.slabIdx[t] = s
	p.slabs = append(p.slabs, s)
	return s
}

func newSlab[T any](p *Pool) *Slab[T] {
	var zero T
	size := max(int(unsafe.Sizeof(zero)), 1)
	s := &Slab[T]{
		owner:      p,
		elemSize:   size,
		chunkLen:   max(minChunkLen, p.segSize/size),
		runs:       make(map[int][][]T),
		quarantine: p.kind == KindStrict,
	}
	if p.checked {
		s.freed = make(map[*T]struct{})
	}
	return s
}

// New returns a pointer to a zero T.
func New[T any](p *Pool) *T {
	return SlabOf[T](p).New()
}

// MakeSlice returns n contiguous zero values of T.
func MakeSlice[T any](p *Pool, n int) []T {
	return SlabOf[T](p).MakeSlice(n)
}

// New returns a pointer to a zero T.
func (s *Slab[T]) New() *T {
	s.owner.live()
	if n := len(s.free); n > 0 {
		x := s.free[n-1]
		s.free[n-1] = nil
		s.free = s.free[:n-1]
		if s.freed != nil {
			delete(s.freed, x)
		}
		return x
	}
	return &s.MakeSlice(1)[0]
}

// MakeSlice returns n contiguous zero values of T. The slice's capacity is
// exactly n; appending to it copies out of the pool.
func (s *Slab[T]) MakeSlice(n int) []T {
	s.owner.live()
	if n <= 0 {
		if n < 0 {
			panic("pktmem: negative slice length")
		}
		return nil
	}
	if rs := s.runs[n]; len(rs) > 0 {
		r := rs[len(rs)-1]
		rs[len(rs)-1] = nil
		s.runs[n] = rs[:len(rs)-1]
		return r
	}
	if n > s.chunkLen {
		s.owner.reserve(n * s.elemSize)
		r := make([]T, n)
		s.big = append(s.big, r)
		return r
	}
	for {
		if s.cur < len(s.chunks) {
			c := s.chunks[s.cur]
			if s.off+n <= len(c) {
				r := c[s.off : s.off+n : s.off+n]
				s.off += n
				return r
			}
			s.cur++
			s.off = 0
			continue
		}
		s.owner.reserve(s.chunkLen * s.elemSize)
		s.chunks = append(s.chunks, make([]T, s.chunkLen))
	}
}

// Free zeroes *x and makes its slot available again, subject to the pool's
// backend policy.
func (s *Slab[T]) Free(x *T) {
	if x == nil || s.owner.kind == KindBlockFast {
		return
	}
	if s.freed != nil {
		if _, dup := s.freed[x]; dup {
			s.owner.fatal(ViolationDoubleFree, Handle{}, "", "%s slot %p freed twice", reflect.TypeFor[T](), x)
		}
		s.freed[x] = struct{}{}
	}
	var zero T
	*x = zero
	if !s.quarantine {
		s.free = append(s.free, x)
	}
}

// FreeSlice zeroes r and keeps it for a later MakeSlice of the same length.
func (s *Slab[T]) FreeSlice(r []T) {
	if cap(r) == 0 || s.owner.kind == KindBlockFast {
		return
	}
	r = r[:cap(r)]
	clear(r)
	if !s.quarantine {
		s.runs[len(r)] = append(s.runs[len(r)], r)
	}
}

// reset clears every element handed out this cycle so the values they
// referenced can be collected, then rewinds.
func (s *Slab[T]) reset() {
	for i := 0; i < s.cur && i < len(s.chunks); i++ {
		clear(s.chunks[i])
	}
	if s.cur < len(s.chunks) {
		clear(s.chunks[s.cur][:s.off])
	}
	for _, r := range s.big {
		s.owner.unreserve(len(r) * s.elemSize)
	}
	clear(s.big)
	s.big = s.big[:0]
	clear(s.free)
	s.free = s.free[:0]
	clear(s.runs)
	if s.freed != nil {
		clear(s.freed)
	}
	s.cur, s.off = 0, 0
}

func (s *Slab[T]) release() {
	s.reset()
	s.owner.unreserve(len(s.chunks) * s.chunkLen * s.elemSize)
	s.chunks = nil
	s.big = nil
	s.free = nil
	s.runs = nil
	s.freed = nil
}

func (s *Slab[T]) footprint() int {
	n := len(s.chunks) * s.chunkLen
	for _, r := range s.big {
		n += len(r)
	}
	return n * s.elemSize
}
