package pktmem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallbackOrder(t *testing.T) {
	p := newTestPool(t, KindBlock)
	var got []string
	record := func(_ *Pool, _ Event, ctx any) { got = append(got, ctx.(string)) }
	p.RegisterCallback(record, "A")
	p.RegisterCallback(record, "B")
	p.Reset()
	assert.Equal(t, []string{"B", "A"}, got)
}

func TestCallbacksRunOncePerCycle(t *testing.T) {
	p := newTestPool(t, KindBlockFast)
	calls := 0
	p.RegisterCallback(func(*Pool, Event, any) { calls++ }, nil)
	p.Reset()
	p.Reset()
	assert.Equal(t, 1, calls)
}

func TestCallbackEvents(t *testing.T) {
	p := NewPool(KindBlock, nil)
	var events []Event
	record := func(_ *Pool, ev Event, _ any) { events = append(events, ev) }
	p.RegisterCallback(record, nil)
	p.Reset()
	p.RegisterCallback(record, nil)
	p.Destroy()
	assert.Equal(t, []Event{EventReset, EventDestroy}, events)
	assert.Equal(t, "destroy", EventDestroy.String())
}

func TestCallbackSeesLiveMemory(t *testing.T) {
	p := newTestPool(t, KindStrict)
	h := p.Strdup("still here")
	var seen string
	p.RegisterCallback(func(p *Pool, _ Event, ctx any) {
		seen = p.String(ctx.(Handle))
	}, h)
	p.Reset()
	assert.Equal(t, "still here", seen)
}

func TestUnregisterCallback(t *testing.T) {
	p := newTestPool(t, KindBlock)
	var got []int
	ids := make([]CallbackID, 3)
	for i := range ids {
		ids[i] = p.RegisterCallback(func(_ *Pool, _ Event, ctx any) { got = append(got, ctx.(int)) }, i)
	}
	p.UnregisterCallback(ids[1])
	p.UnregisterCallback(ids[1])
	p.Reset()
	assert.Equal(t, []int{2, 0}, got)
}

func TestCallbackRegisteredDuringReset(t *testing.T) {
	p := newTestPool(t, KindBlock)
	calls := 0
	var again Callback
	again = func(p *Pool, _ Event, _ any) {
		calls++
		if calls == 1 {
			p.RegisterCallback(again, nil)
		}
	}
	p.RegisterCallback(again, nil)
	p.Reset()
	require.Equal(t, 1, calls, "a registration made during reset belongs to the next cycle")
	p.Reset()
	assert.Equal(t, 2, calls)
}
