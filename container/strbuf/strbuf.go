// Package strbuf implements a growable string buffer in pool memory.
package strbuf

import (
	"fmt"
	"unicode/utf8"

	"github.com/pavanmanishd/pktmem"
)

// DefaultSize is the initial capacity used by New.
const DefaultSize = 16

// Buffer accumulates bytes in a single pool allocation, reallocating as it
// grows. A buffer with a maximum length silently drops what does not fit,
// never splitting a UTF-8 sequence.
type Buffer struct {
	pool *pktmem.Pool
	h    pktmem.Handle
	n    int
	max  int
}

// New returns an empty, unbounded buffer.
func New(p *pktmem.Pool) *Buffer {
	return NewSized(p, DefaultSize, 0)
}

// NewSized returns an empty buffer with the given initial capacity that
// never grows beyond max bytes. A max of 0 means unbounded.
func NewSized(p *pktmem.Pool, initial, max int) *Buffer {
	if max > 0 && initial > max {
		initial = max
	}
	b := pktmem.New[Buffer](p)
	b.pool = p
	b.max = max
	b.h = p.Alloc(initial)
	return b
}

// Len returns the number of bytes written.
func (b *Buffer) Len() int { return b.n }

// Bytes returns the contents in place. The slice is valid until the next
// write.
func (b *Buffer) Bytes() []byte {
	return b.pool.Bytes(b.h)[:b.n]
}

// String returns a copy of the contents.
func (b *Buffer) String() string { return string(b.Bytes()) }

// Append adds s.
func (b *Buffer) Append(s string) {
	s = s[:b.room(s)]
	b.reserve(len(s))
	b.n += copy(b.pool.Bytes(b.h)[b.n:], s)
}

// AppendBytes adds p.
func (b *Buffer) AppendBytes(p []byte) {
	b.Append(string(p))
}

// AppendByte adds c.
func (b *Buffer) AppendByte(c byte) {
	if b.max > 0 && b.n >= b.max {
		return
	}
	b.reserve(1)
	b.pool.Bytes(b.h)[b.n] = c
	b.n++
}

// AppendRune adds the UTF-8 encoding of r.
func (b *Buffer) AppendRune(r rune) {
	b.Append(string(r))
}

// Appendf formats and adds the result.
func (b *Buffer) Appendf(format string, args ...any) {
	b.Append(fmt.Sprintf(format, args...))
}

// Truncate discards all but the first n bytes.
func (b *Buffer) Truncate(n int) {
	if n < 0 || n > b.n {
		panic(fmt.Sprintf("strbuf: truncate to %d of %d", n, b.n))
	}
	b.n = n
}

// Finalize shrinks the allocation to the written length and returns it.
// The buffer must not be used afterwards.
func (b *Buffer) Finalize() pktmem.Handle {
	h := b.pool.Realloc(b.h, b.n)
	b.h = pktmem.Handle{}
	b.n = 0
	return h
}

// room returns how much of s fits under the maximum length, backing off to
// a rune boundary.
func (b *Buffer) room(s string) int {
	if b.max <= 0 || b.n+len(s) <= b.max {
		return len(s)
	}
	n := max(b.max-b.n, 0)
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return n
}

func (b *Buffer) reserve(extra int) {
	need := b.n + extra
	c := b.h.Len()
	if need <= c {
		return
	}
	c = max(2*c, need, DefaultSize)
	if b.max > 0 {
		c = min(c, b.max)
	}
	b.h = b.pool.Realloc(b.h, c)
}
