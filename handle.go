package pktmem

import (
	"fmt"
	"math"
)

// zeroSegment marks the zero-length handle returned by Alloc(0).
const zeroSegment = math.MaxUint32

// MaxAlloc is the largest single request a handle can describe.
const MaxAlloc = math.MaxUint32 >> 1

// Handle identifies one allocation inside a pool: a segment index, an offset
// into that segment and the requested length. The zero Handle is the nil
// handle. Handles are only meaningful to the pool that returned them.
type Handle struct {
	seg   uint32 // segment (or slot) index + 1; 0 for the nil handle
	off   uint32
	size  uint32
	epoch uint32
	gen   uint32 // allocation serial; strict pools only
}

// Len returns the usable length of the allocation.
func (h Handle) Len() int { return int(h.size) }

// IsNil reports whether h is the nil handle.
func (h Handle) IsNil() bool { return h.seg == 0 }

func (h Handle) isZeroLen() bool { return h.seg == zeroSegment }

func (h Handle) String() string {
	switch {
	case h.IsNil():
		return "nil"
	case h.isZeroLen():
		return "zero"
	}
	if h.gen != 0 {
		return fmt.Sprintf("%d:%#x+%d@%d#%d", h.seg-1, h.off, h.size, h.epoch, h.gen)
	}
	return fmt.Sprintf("%d:%#x+%d@%d", h.seg-1, h.off, h.size, h.epoch)
}

// key packs the segment and offset, which are unique among live handles.
func (h Handle) key() uint64 { return uint64(h.seg)<<32 | uint64(h.off) }

func posKey(seg, off uint32) uint64 { return uint64(seg)<<32 | uint64(off) }
