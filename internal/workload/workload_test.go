package workload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavanmanishd/pktmem"
)

func run(t *testing.T, kind pktmem.Kind, checks pktmem.CheckMode, opts Options) Result {
	t.Helper()
	session := pktmem.NewPool(pktmem.KindBlock, &pktmem.Config{Name: "session", Checks: checks})
	unit := pktmem.NewPool(kind, &pktmem.Config{Name: "unit", Checks: checks})
	defer session.Destroy()
	defer unit.Destroy()
	return Run(session, unit, opts)
}

func TestDigestIndependentOfBackend(t *testing.T) {
	opts := Options{Packets: 200, Seed: 42}
	want := run(t, pktmem.KindSimple, pktmem.ChecksOff, opts)
	require.Equal(t, 200, want.Packets)
	require.Positive(t, want.Fields)

	for _, kind := range []pktmem.Kind{pktmem.KindBlock, pktmem.KindBlockFast, pktmem.KindSimple, pktmem.KindStrict} {
		for _, checks := range []pktmem.CheckMode{pktmem.ChecksOn, pktmem.ChecksOff} {
			got := run(t, kind, checks, opts)
			assert.Equal(t, want, got, "%s checks=%d", kind, checks)
		}
	}
}

func TestDigestDependsOnSeed(t *testing.T) {
	a := run(t, pktmem.KindBlock, pktmem.ChecksOff, Options{Packets: 50, Seed: 1})
	b := run(t, pktmem.KindBlock, pktmem.ChecksOff, Options{Packets: 50, Seed: 2})
	assert.NotEqual(t, a.Digest, b.Digest)
}

func TestUnitPoolResetPerPacket(t *testing.T) {
	session := pktmem.NewPool(pktmem.KindBlock, nil)
	unit := pktmem.NewPool(pktmem.KindBlockFast, nil)
	defer session.Destroy()
	defer unit.Destroy()

	Run(session, unit, Options{Packets: 30, Seed: 3})
	st := unit.Stats()
	assert.Equal(t, 30, st.Resets)
	assert.Zero(t, st.InUse)
}

func TestOptionsDefaults(t *testing.T) {
	assert.Equal(t, DefaultOptions, Options{}.withDefaults())
	o := Options{Packets: 5, MaxLen: 64}.withDefaults()
	assert.Equal(t, 5, o.Packets)
	assert.Equal(t, 64, o.MaxLen)
	assert.Equal(t, DefaultOptions.Flows, o.Flows)
}
