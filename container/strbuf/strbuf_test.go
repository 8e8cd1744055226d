package strbuf

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavanmanishd/pktmem"
)

func newPool(t *testing.T, kind pktmem.Kind) *pktmem.Pool {
	t.Helper()
	p := pktmem.NewPool(kind, &pktmem.Config{Checks: pktmem.ChecksOn})
	t.Cleanup(p.Destroy)
	return p
}

func TestBufferAppend(t *testing.T) {
	for _, kind := range []pktmem.Kind{pktmem.KindBlock, pktmem.KindBlockFast, pktmem.KindSimple, pktmem.KindStrict} {
		t.Run(kind.String(), func(t *testing.T) {
			b := New(newPool(t, kind))
			b.Append("frame ")
			b.Appendf("%d", 42)
			b.AppendByte(':')
			b.AppendRune('→')
			b.AppendBytes([]byte(" tcp"))
			assert.Equal(t, "frame 42:→ tcp", b.String())
			assert.Equal(t, len("frame 42:→ tcp"), b.Len())

			long := strings.Repeat("abcdefgh", 100)
			b.Append(long)
			assert.True(t, strings.HasSuffix(b.String(), long))

			b.Truncate(5)
			assert.Equal(t, "frame", b.String())
			assert.Panics(t, func() { b.Truncate(6) })
		})
	}
}

func TestBufferMaxLength(t *testing.T) {
	const s = "héllo wörld" // é and ö are two bytes each
	tests := []struct {
		max  int
		want string
	}{
		{max: 0, want: s + "!x"},
		{max: 100, want: s + "!x"},
		{max: 10, want: "héllo wö"},
		{max: 9, want: "héllo w!"},
		{max: 2, want: "h!"},
		{max: 1, want: "h"},
	}
	for _, tt := range tests {
		b := NewSized(newPool(t, pktmem.KindBlock), 4, tt.max)
		b.Append(s)
		b.AppendByte('!')
		b.AppendRune('x')
		got := b.String()
		assert.Equal(t, tt.want, got, "max %d", tt.max)
		assert.True(t, utf8.ValidString(got))
		if tt.max > 0 {
			assert.LessOrEqual(t, b.Len(), tt.max)
		}
	}
}

func TestBufferMaxFillsExactly(t *testing.T) {
	b := NewSized(newPool(t, pktmem.KindSimple), 64, 8)
	b.Append("abc")
	b.Append("defgh")
	b.AppendByte('i')
	b.Append("j")
	assert.Equal(t, "abcdefgh", b.String())
}

func TestBufferFinalize(t *testing.T) {
	p := newPool(t, pktmem.KindBlock)
	b := New(p)
	b.Append("ip.src == 10.0.0.1")
	h := b.Finalize()
	require.Equal(t, len("ip.src == 10.0.0.1"), h.Len())
	assert.Equal(t, "ip.src == 10.0.0.1", p.String(h))
	p.Free(h)

	empty := New(p).Finalize()
	assert.Zero(t, empty.Len())
	assert.Empty(t, p.Bytes(empty))
}
