package pktmem

// Stats is a snapshot of a pool's memory usage.
type Stats struct {
	Kind         Kind
	Segments     int     // segments (or, for simple pools, live allocations)
	Reserved     int     // bytes held by the backend
	InUse        int     // bytes handed out, headers and alignment included
	FreeBytes    int     // bytes sitting on block free lists
	Live         int     // tracked live allocations (strict pools)
	SystemAllocs int     // allocations made from the Go runtime, cumulative
	Slabs        int     // typed slabs
	SlabBytes    int     // bytes held by typed slabs
	Allocs       uint64  // Alloc calls that reached the backend
	Frees        uint64  // Free calls that reached the backend
	Reallocs     uint64  // Realloc calls that reached the backend
	Resets       int     // completed resets
	Utilization  float64 // InUse / Reserved
}

// Stats returns a snapshot of pool statistics.
func (p *Pool) Stats() Stats {
	p.live()
	st := Stats{
		Kind:     p.kind,
		Allocs:   p.allocs,
		Frees:    p.frees,
		Reallocs: p.reallocs,
		Resets:   p.resets,
		Slabs:    len(p.slabs),
	}
	p.b.stats(&st)
	for _, s := range p.slabs {
		st.SlabBytes += s.footprint()
	}
	if st.Reserved > 0 {
		st.Utilization = float64(st.InUse) / float64(st.Reserved)
	}
	return st
}

// SizeInUse returns the bytes currently handed out by the backend.
func (p *Pool) SizeInUse() int {
	return p.Stats().InUse
}

// NumSegments returns the number of segments the backend holds.
func (p *Pool) NumSegments() int {
	return p.Stats().Segments
}

// Capacity returns the bytes reserved by the backend and typed slabs.
func (p *Pool) Capacity() int {
	p.live()
	return p.reserved
}

// Utilization returns the ratio of bytes in use to bytes reserved by the
// backend (0.0 to 1.0).
func (p *Pool) Utilization() float64 {
	return p.Stats().Utilization
}
