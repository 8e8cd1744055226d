package pktmem

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync/atomic"

	"github.com/cockroachdb/errors"
)

// backend is the allocation strategy behind a pool. It is chosen once in
// NewPool; handles it returns carry no epoch, the pool stamps it.
type backend interface {
	alloc(n int) Handle
	bytes(h Handle) []byte
	free(h Handle)
	realloc(h Handle, n int) Handle
	reset()
	release()
	check()
	stats(st *Stats)
}

// epochs hands out process-unique pool generations so handles from another
// pool or an earlier reset cycle can be told apart under checks.
var epochs atomic.Uint32

func nextEpoch() uint32 {
	for {
		if e := epochs.Add(1); e != 0 {
			return e
		}
	}
}

// Pool is a scoped arena. It owns exactly one backend, the typed slabs
// handed to containers, and a stack of finalizer callbacks. A Pool is
// single-owner and performs no locking; give each worker its own.
type Pool struct {
	name    string
	kind    Kind
	b       backend
	checked bool
	segSize int
	limit   int
	log     *slog.Logger

	epoch uint32
	born  uint32

	reserved int

	callbacks []callback
	nextCB    CallbackID

	slabs   []slab
	slabIdx map[reflect.Type]slab

	allocs, frees, reallocs uint64
	resets                  int
}

// NewPool creates a pool backed by the given strategy. A nil cfg uses the
// defaults. Creation reserves the first segment; exhaustion is fatal.
func NewPool(kind Kind, cfg *Config) *Pool {
	if cfg == nil {
		cfg = &Config{}
	}
	c := cfg.withDefaults()
	p := &Pool{
		name:    c.Name,
		kind:    kind,
		checked: c.Checks.enabled(),
		segSize: c.SegmentSize,
		limit:   c.Limit,
		log:     c.Logger,
		slabIdx: make(map[reflect.Type]slab),
	}
	p.epoch = nextEpoch()
	p.born = p.epoch
	p.b = p.newBackend(kind, c)
	p.log.Debug("pktmem: pool created", "pool", p.name, "kind", kind.String(), "checked", p.checked)
	return p
}

func (p *Pool) newBackend(kind Kind, c Config) backend {
	switch kind {
	case KindBlock:
		return newBlockBackend(p, c)
	case KindBlockFast:
		return newBlockFastBackend(p, c)
	case KindSimple:
		return newSimpleBackend(p)
	case KindStrict:
		if c.Inner == KindStrict {
			panic("pktmem: strict backend cannot wrap another strict backend")
		}
		p.checked = true
		return newStrictBackend(p, p.newBackend(c.Inner, c), c.GuardSize)
	}
	panic(fmt.Sprintf("pktmem: unknown backend %s", kind))
}

// Name returns the pool's configured name.
func (p *Pool) Name() string { return p.name }

// Kind returns the pool's backend strategy.
func (p *Pool) Kind() Kind { return p.kind }

// Checked reports whether misuse is detected and reported as fatal.
func (p *Pool) Checked() bool { return p.checked }

// Alloc returns a handle to n bytes. The contents are unspecified. Alloc(0)
// returns a valid zero-length handle whose Bytes are empty.
func (p *Pool) Alloc(n int) Handle {
	p.live()
	if n <= 0 {
		if n < 0 {
			panic(fmt.Sprintf("pktmem: negative allocation size %d", n))
		}
		return Handle{seg: zeroSegment, epoch: p.epoch}
	}
	if n > MaxAlloc {
		p.tooLarge(n)
	}
	h := p.b.alloc(n)
	h.epoch = p.epoch
	p.allocs++
	return h
}

// Alloc0 is Alloc with the returned memory zeroed.
func (p *Pool) Alloc0(n int) Handle {
	h := p.Alloc(n)
	if n > 0 {
		clear(p.b.bytes(h))
	}
	return h
}

// Bytes returns the usable region of h. The slice is valid until h is
// freed or reallocated, or the pool is reset. The nil handle yields nil.
func (p *Pool) Bytes(h Handle) []byte {
	switch {
	case h.IsNil():
		return nil
	case h.isZeroLen():
		return []byte{}
	}
	if p.checked {
		p.verify(h)
	}
	return p.b.bytes(h)
}

// Free releases h. It is a no-op for the block-fast backend and for nil or
// zero-length handles. Freeing a handle twice, or one this pool did not
// return, is fatal on checked pools and undefined otherwise.
func (p *Pool) Free(h Handle) {
	p.live()
	if h.IsNil() || h.isZeroLen() {
		return
	}
	if p.checked {
		p.verify(h)
	}
	p.b.free(h)
	p.frees++
}

// Realloc resizes h, preserving min(old, new) bytes of content. The
// allocation may move; always use the returned handle. A nil or zero-length
// h behaves like Alloc; n == 0 frees h.
func (p *Pool) Realloc(h Handle, n int) Handle {
	p.live()
	switch {
	case h.IsNil() || h.isZeroLen():
		return p.Alloc(n)
	case n < 0:
		panic(fmt.Sprintf("pktmem: negative allocation size %d", n))
	case n == 0:
		p.Free(h)
		return Handle{seg: zeroSegment, epoch: p.epoch}
	case n > MaxAlloc:
		p.tooLarge(n)
	}
	if p.checked {
		p.verify(h)
	}
	nh := p.b.realloc(h, n)
	nh.epoch = p.epoch
	p.reallocs++
	return nh
}

// Reset runs the registered callbacks newest first, clears them, and
// reclaims every allocation in bulk. The pool stays usable; every earlier
// handle and typed value is invalid.
//
// Byte memory is not cleared, so reclaiming it costs
// O(segments). Typed slabs are zeroed up to their high-water mark so the
// values they pointed at can be collected; that part costs O(typed bytes
// used this cycle).
func (p *Pool) Reset() {
	p.live()
	p.runCallbacks(EventReset)
	p.b.reset()
	for _, s := range p.slabs {
		s.reset()
	}
	p.epoch = nextEpoch()
	p.resets++
	p.log.Debug("pktmem: pool reset", "pool", p.name, "resets", p.resets)
}

// Destroy resets the pool with EventDestroy and releases all its memory.
// Any further use of the pool panics.
func (p *Pool) Destroy() {
	p.live()
	p.runCallbacks(EventDestroy)
	p.b.reset()
	p.b.release()
	for _, s := range p.slabs {
		s.release()
	}
	p.slabs = nil
	p.slabIdx = nil
	p.b = nil
	p.log.Debug("pktmem: pool destroyed", "pool", p.name)
}

// Check audits the pool now. The strict backend verifies every live guard
// region; other backends have nothing to audit.
func (p *Pool) Check() {
	p.live()
	p.b.check()
}

func (p *Pool) live() {
	if p.b == nil {
		panic("pktmem: use after Destroy()")
	}
}

// verify rejects handles from another pool or an earlier reset cycle.
func (p *Pool) verify(h Handle) {
	if h.epoch == p.epoch {
		return
	}
	if h.epoch >= p.born && h.epoch < p.epoch {
		p.fatal(ViolationStaleHandle, h, "", "handle from epoch %d used in epoch %d", h.epoch, p.epoch)
	}
	p.fatal(ViolationForeignHandle, h, "", "handle epoch %d does not belong to this pool", h.epoch)
}

// reserve accounts n more bytes against the pool limit.
func (p *Pool) reserve(n int) {
	if p.limit > 0 && p.reserved+n > p.limit {
		p.exhausted(n, ErrExhausted)
	}
	p.reserved += n
}

func (p *Pool) unreserve(n int) { p.reserved -= n }

func (p *Pool) tooLarge(n int) {
	p.exhausted(n, ErrTooLarge)
}

func (p *Pool) exhausted(n int, reason error) {
	err := &ExhaustedError{
		Pool:      p.name,
		Requested: n,
		Reserved:  p.reserved,
		Limit:     p.limit,
		cause:     errors.WithStack(reason),
	}
	p.log.Error("pktmem: resource exhaustion",
		"pool", p.name, "requested", n, "reserved", p.reserved, "limit", p.limit)
	panic(err)
}

// fatal reports an integrity violation. It never returns.
func (p *Pool) fatal(v Violation, h Handle, allocSite string, format string, args ...any) {
	cause := errors.WithAssertionFailure(errors.Wrapf(v.sentinel(), format, args...))
	err := &IntegrityError{
		Violation: v,
		Pool:      p.name,
		Handle:    h,
		AllocSite: allocSite,
		cause:     cause,
	}
	p.log.Error("pktmem: integrity violation",
		"pool", p.name, "violation", v.String(), "handle", h.String(),
		"allocated_at", allocSite, "caller", callerSite(), "err", cause)
	panic(err)
}
