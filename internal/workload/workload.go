// Package workload drives pools with a synthetic packet dissection: every
// packet is decoded into a unit-of-work pool that is reset afterwards, while
// per-conversation state accumulates in a session pool.
//
// The digest depends only on the options, never on the backend, so the same
// workload run against two backends must produce the same digest.
package workload

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"

	"github.com/pavanmanishd/pktmem"
	"github.com/pavanmanishd/pktmem/container/array"
	"github.com/pavanmanishd/pktmem/container/hashmap"
	"github.com/pavanmanishd/pktmem/container/itree"
	"github.com/pavanmanishd/pktmem/container/list"
	"github.com/pavanmanishd/pktmem/container/queue"
	"github.com/pavanmanishd/pktmem/container/stack"
	"github.com/pavanmanishd/pktmem/container/strbuf"
)

// Options controls the generated traffic.
type Options struct {
	Packets   int
	Seed      uint64
	Flows     int // distinct conversations
	MaxLayers int
	MaxFields int // per layer
	MaxLen    int // payload bytes
}

// DefaultOptions is a small, mixed workload.
var DefaultOptions = Options{
	Packets:   1000,
	Seed:      1,
	Flows:     32,
	MaxLayers: 5,
	MaxFields: 8,
	MaxLen:    1500,
}

// Result summarises a run.
type Result struct {
	Packets int
	Fields  int
	Bytes   int
	Digest  uint64
}

type field struct {
	name  pktmem.Handle
	off   int
	size  int
	value uint64
}

var layerNames = [...]string{"eth", "vlan", "ip", "ipv6", "udp", "tcp", "dns", "http", "tls"}

// Run dissects opts.Packets synthetic packets. unit is reset after every
// packet; session is left for the caller.
func Run(session, unit *pktmem.Pool, opts Options) Result {
	opts = opts.withDefaults()
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9E3779B97F4A7C15))
	digest := xxhash.New()
	conv := hashmap.NewMulti[string, uint64](session)
	var res Result

	for frame := range opts.Packets {
		flow := fmt.Sprintf("10.0.%d.%d", rng.IntN(opts.Flows), rng.IntN(4))
		fields, size := dissect(unit, rng, opts, digest, uint32(frame), flow, conv)
		res.Fields += fields
		res.Bytes += size
		res.Packets++
		unit.Reset()
	}

	// conversation keys come out in hash order, so fold them commutatively
	var fold uint64
	var buf [16]byte
	for k := range conv.Keys() {
		for pos, v := range conv.Values(k) {
			binary.LittleEndian.PutUint64(buf[:8], uint64(pos))
			binary.LittleEndian.PutUint64(buf[8:], v)
			fold += xxhash.Sum64String(k) ^ xxhash.Sum64(buf[:])
		}
	}
	res.Digest = digest.Sum64() ^ fold
	return res
}

func dissect(p *pktmem.Pool, rng *rand.Rand, opts Options, digest *xxhash.Digest,
	frame uint32, flow string, conv *hashmap.MultiMap[string, uint64]) (int, int) {

	payload := p.Alloc(rng.IntN(opts.MaxLen + 1))
	data := p.Bytes(payload)
	for i := range data {
		data[i] = byte(rng.Uint32())
	}

	layers := stack.New[string](p)
	pending := queue.New[*field](p)
	fields := array.New[*field](p, 16)
	byName := hashmap.NewString[*field](p)
	ranges := itree.New[int, *field](p)
	items := list.New[*field](p)

	nl := 1 + rng.IntN(opts.MaxLayers)
	for l := range nl {
		name := layerNames[rng.IntN(len(layerNames))]
		layers.Push(name)
		nf := 1 + rng.IntN(opts.MaxFields)
		for i := range nf {
			f := pktmem.New[field](p)
			f.name = p.Sprintf("%s.f%d.%d", name, l, i)
			if len(data) > 0 {
				f.off = rng.IntN(len(data))
				f.size = 1 + rng.IntN(min(8, len(data)-f.off))
				f.value = load(data[f.off : f.off+f.size])
			}
			pending.Push(f)
		}
	}

	for pending.Len() > 0 {
		f, _ := pending.Pop()
		fields.Append(f)
		byName.Insert(p.String(f.name), f)
		items.InsertSorted(f, func(a, b *field) int { return a.off - b.off })
		if f.size > 0 {
			ranges.Insert(f.off, f.off+f.size-1, f)
		}
	}

	sum := strbuf.New(p)
	sum.Appendf("frame %d %s", frame, flow)
	for name := range layers.All() {
		sum.AppendByte(' ')
		sum.Append(name)
	}
	for f := range items.All() {
		sum.Appendf(" %d:%d=%x", f.off, f.size, f.value)
	}
	if len(data) > 0 {
		for range 4 {
			at := rng.IntN(len(data))
			hits := 0
			for range ranges.Stab(at) {
				hits++
			}
			sum.Appendf(" @%d#%d", at, hits)
		}
	}

	var seq uint64
	if _, prev, ok := conv.LookupLE(flow, frame); ok {
		seq = prev + uint64(fields.Len())
	}
	conv.Insert(flow, frame, seq)
	sum.Appendf(" seq=%d map=%d", seq, byName.Len())

	_, _ = digest.Write(sum.Bytes())
	p.Free(sum.Finalize())
	p.Free(payload)
	for _, f := range fields.All() {
		p.Free(f.name)
	}
	return fields.Len(), len(data)
}

// load reads up to eight bytes big-endian.
func load(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

func (o Options) withDefaults() Options {
	d := DefaultOptions
	if o.Packets > 0 {
		d.Packets = o.Packets
	}
	if o.Seed != 0 {
		d.Seed = o.Seed
	}
	if o.Flows > 0 {
		d.Flows = o.Flows
	}
	if o.MaxLayers > 0 {
		d.MaxLayers = o.MaxLayers
	}
	if o.MaxFields > 0 {
		d.MaxFields = o.MaxFields
	}
	if o.MaxLen > 0 {
		d.MaxLen = o.MaxLen
	}
	return d
}
