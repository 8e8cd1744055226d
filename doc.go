// Package pktmem implements scoped memory pools for packet dissection.
//
// # Overview
//
// A dissector allocates thousands of short-lived, tree-shaped values per
// packet and throws all of them away together. A Pool is a scoped arena built
// for that pattern: allocate freely, then Reset the pool at the end of the
// unit of work and every allocation is reclaimed in one step.
//
// Pools are created against one of four backends:
//
//   - KindBlock: segments carved into runs; freed runs go to size-classed
//     free lists and are coalesced with free neighbours
//   - KindBlockFast: a bump allocator over the same segments; Free is a no-op
//   - KindSimple: one Go allocation per request, tracked for bulk release
//   - KindStrict: wraps another backend with guard bytes and poisoning to
//     catch overruns, double frees and use after free
//
// # Basic Usage
//
//	p := pktmem.NewPool(pktmem.KindBlockFast, &pktmem.Config{Name: "packet"})
//	defer p.Destroy()
//
//	h := p.Alloc(64)
//	copy(p.Bytes(h), payload)
//
//	// typed storage for containers and consumers
//	hdr := pktmem.New[Header](p)
//
//	// end of the packet: everything above is gone
//	p.Reset()
//
// # Handles
//
// Byte allocations are addressed by Handle values (segment, offset, length)
// rather than pointers. Bytes resolves a handle to a slice that stays valid
// until the allocation is freed or the pool is reset.
//
// # Callbacks
//
// RegisterCallback pushes a finalizer that runs on the next Reset or
// Destroy, newest first, before memory is reclaimed. Containers whose
// elements own outside resources use it to release them.
//
// # Integrity Checks
//
// The strict backend always reports misuse as a panic carrying an
// *IntegrityError. Other backends check for double frees, foreign handles and
// handles used after a reset only when Config.Checks is ChecksOn, or in
// builds tagged pktmemdebug. Unchecked misuse is undefined behaviour.
// Running out of memory (or past Config.Limit) panics with *ExhaustedError.
//
// # Thread Safety
//
// Pools, slabs and the containers built on them do no locking. Give every
// worker its own pool; the scope package hands them out.
package pktmem
