package pktmem

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrDoubleFree indicates a handle was freed after it had already been freed.
	ErrDoubleFree = errors.New("pktmem: double free")

	// ErrForeignHandle indicates a handle that was never allocated by this pool.
	ErrForeignHandle = errors.New("pktmem: foreign handle")

	// ErrStaleHandle indicates a handle used after the pool was reset.
	ErrStaleHandle = errors.New("pktmem: handle used after reset")

	// ErrUseAfterFree indicates access through a handle that was already freed.
	ErrUseAfterFree = errors.New("pktmem: use after free")

	// ErrGuardCorrupted indicates a write outside an allocation's usable region.
	ErrGuardCorrupted = errors.New("pktmem: guard region corrupted")

	// ErrExhausted indicates the pool could not reserve another segment.
	ErrExhausted = errors.New("pktmem: memory exhausted")

	// ErrTooLarge indicates a single request beyond what a handle can address.
	ErrTooLarge = errors.New("pktmem: allocation too large")
)

// Violation classifies an integrity failure.
type Violation uint8

const (
	ViolationDoubleFree Violation = iota + 1
	ViolationForeignHandle
	ViolationStaleHandle
	ViolationGuardCorrupted
	ViolationUseAfterFree
)

func (v Violation) String() string {
	switch v {
	case ViolationDoubleFree:
		return "double-free"
	case ViolationForeignHandle:
		return "foreign-handle"
	case ViolationStaleHandle:
		return "stale-handle"
	case ViolationGuardCorrupted:
		return "guard-corrupted"
	case ViolationUseAfterFree:
		return "use-after-free"
	default:
		return fmt.Sprintf("violation(%d)", uint8(v))
	}
}

func (v Violation) sentinel() error {
	switch v {
	case ViolationDoubleFree:
		return ErrDoubleFree
	case ViolationForeignHandle:
		return ErrForeignHandle
	case ViolationStaleHandle:
		return ErrStaleHandle
	case ViolationUseAfterFree:
		return ErrUseAfterFree
	default:
		return ErrGuardCorrupted
	}
}

// IntegrityError is the panic value for misuse detected by a checked pool.
// AllocSite names the call that allocated the offending memory when known;
// the wrapped cause carries the stack of the violating call.
type IntegrityError struct {
	Violation Violation
	Pool      string
	Handle    Handle
	AllocSite string
	cause     error
}

func (e *IntegrityError) Error() string {
	msg := fmt.Sprintf("pktmem: %s in pool %q (handle %s)", e.Violation, e.Pool, e.Handle)
	if e.AllocSite != "" {
		msg += ", allocated at " + e.AllocSite
	}
	return msg + ": " + e.cause.Error()
}

func (e *IntegrityError) Unwrap() error { return e.cause }

// ExhaustedError is the panic value for resource exhaustion.
type ExhaustedError struct {
	Pool      string
	Requested int
	Reserved  int
	Limit     int
	cause     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("pktmem: pool %q cannot reserve %d bytes (reserved %d, limit %d): %v",
		e.Pool, e.Requested, e.Reserved, e.Limit, e.cause)
}

func (e *ExhaustedError) Unwrap() error { return e.cause }
