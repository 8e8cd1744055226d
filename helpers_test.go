package pktmem

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var allKinds = []Kind{KindBlock, KindBlockFast, KindSimple, KindStrict}

// newTestPool returns a checked pool with small segments that is destroyed
// when the test ends.
func newTestPool(t testing.TB, kind Kind) *Pool {
	t.Helper()
	p := NewPool(kind, &Config{Name: t.Name(), SegmentSize: 1024, Checks: ChecksOn})
	t.Cleanup(func() {
		if p.b != nil {
			p.Destroy()
		}
	})
	return p
}

// recoverPanic runs fn and returns what it panicked with, or nil.
func recoverPanic(fn func()) (r any) {
	defer func() { r = recover() }()
	fn()
	return nil
}

// requireViolation runs fn and requires it to panic with an integrity error
// of kind v.
func requireViolation(t *testing.T, v Violation, fn func()) *IntegrityError {
	t.Helper()
	r := recoverPanic(fn)
	require.NotNil(t, r, "expected a %s panic", v)
	ie, ok := r.(*IntegrityError)
	require.True(t, ok, "panic value %T: %v", r, r)
	require.Equal(t, v, ie.Violation, ie.Error())
	return ie
}

func pattern(b []byte, seed byte) {
	for i := range b {
		b[i] = seed + byte(i*7)
	}
}

func hasPattern(b []byte, seed byte) bool {
	for i := range b {
		if b[i] != seed+byte(i*7) {
			return false
		}
	}
	return true
}
