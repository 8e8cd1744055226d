package pktmem

import (
	"fmt"
	"strings"
)

// Memdup copies b into a new allocation.
func (p *Pool) Memdup(b []byte) Handle {
	h := p.Alloc(len(b))
	copy(p.Bytes(h), b)
	return h
}

// Strdup copies s into a new allocation.
func (p *Pool) Strdup(s string) Handle {
	h := p.Alloc(len(s))
	copy(p.Bytes(h), s)
	return h
}

// Strndup copies at most n bytes of s.
func (p *Pool) Strndup(s string, n int) Handle {
	if n < len(s) {
		s = s[:max(n, 0)]
	}
	return p.Strdup(s)
}

// Sprintf formats into a new allocation.
func (p *Pool) Sprintf(format string, args ...any) Handle {
	return p.Strdup(fmt.Sprintf(format, args...))
}

// Strconcat joins parts into a single allocation.
func (p *Pool) Strconcat(parts ...string) Handle {
	n := 0
	for _, s := range parts {
		n += len(s)
	}
	h := p.Alloc(n)
	buf := p.Bytes(h)[:0]
	for _, s := range parts {
		buf = append(buf, s...)
	}
	return h
}

// Strsplit splits s around sep and copies each piece into the pool.
func (p *Pool) Strsplit(s, sep string) []Handle {
	parts := strings.Split(s, sep)
	hs := MakeSlice[Handle](p, len(parts))
	for i, part := range parts {
		hs[i] = p.Strdup(part)
	}
	return hs
}

// String copies the contents of h out of the pool.
func (p *Pool) String(h Handle) string {
	return string(p.Bytes(h))
}
