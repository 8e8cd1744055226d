package pktmem

// simpleBackend hands every request to the Go allocator and remembers it in
// a slot table so reset can drop everything at once.
type simpleBackend struct {
	owner     *Pool
	checked   bool
	slots     [][]byte
	vacant    []uint32
	reserved  int
	sysAllocs int
}

func newSimpleBackend(owner *Pool) *simpleBackend {
	return &simpleBackend{owner: owner, checked: owner.checked}
}

func (b *simpleBackend) alloc(n int) Handle {
	b.owner.reserve(n)
	buf := make([]byte, n)
	b.reserved += n
	b.sysAllocs++
	var i uint32
	if k := len(b.vacant); k > 0 {
		i = b.vacant[k-1]
		b.vacant = b.vacant[:k-1]
		b.slots[i] = buf
	} else {
		i = uint32(len(b.slots))
		b.slots = append(b.slots, buf)
	}
	return Handle{seg: i + 1, size: uint32(n)}
}

func (b *simpleBackend) bytes(h Handle) []byte {
	return b.slots[h.seg-1][:h.size:h.size]
}

func (b *simpleBackend) free(h Handle) {
	i := h.seg - 1
	if b.checked {
		b.validate(h)
	}
	n := cap(b.slots[i])
	b.owner.unreserve(n)
	b.reserved -= n
	b.slots[i] = nil
	b.vacant = append(b.vacant, i)
}

func (b *simpleBackend) realloc(h Handle, n int) Handle {
	i := h.seg - 1
	if b.checked {
		b.validate(h)
	}
	buf := b.slots[i]
	if n <= cap(buf) {
		b.slots[i] = buf[:n]
	} else {
		b.owner.reserve(n - cap(buf))
		b.reserved += n - cap(buf)
		nb := make([]byte, n)
		copy(nb, buf)
		b.slots[i] = nb
		b.sysAllocs++
	}
	h.size = uint32(n)
	return h
}

func (b *simpleBackend) validate(h Handle) {
	i := h.seg - 1
	switch {
	case int(i) >= len(b.slots) || h.off != 0:
		b.owner.fatal(ViolationForeignHandle, h, "", "no slot %d", i)
	case b.slots[i] == nil:
		b.owner.fatal(ViolationDoubleFree, h, "", "slot %d is already free", i)
	case int(h.size) > cap(b.slots[i]):
		b.owner.fatal(ViolationForeignHandle, h, "", "slot %d holds %d bytes", i, cap(b.slots[i]))
	}
}

func (b *simpleBackend) reset() {
	b.owner.unreserve(b.reserved)
	b.reserved = 0
	clear(b.slots)
	b.slots = b.slots[:0]
	b.vacant = b.vacant[:0]
}

func (b *simpleBackend) release() {
	b.reset()
	b.slots = nil
	b.vacant = nil
}

func (b *simpleBackend) check() {}

func (b *simpleBackend) stats(st *Stats) {
	st.Segments = len(b.slots) - len(b.vacant)
	st.Reserved = b.reserved
	st.InUse = b.reserved
	st.SystemAllocs = b.sysAllocs
}
