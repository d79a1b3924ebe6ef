package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/software-center/catalog/internal/catalogerr"
)

func TestAddDropsCancelledEvents(t *testing.T) {
	b := New(false)
	ok := b.Add(NewEvent(catalogerr.Cancel("user hit stop")).WithApp("system/package/origin/a/stable"))
	assert.False(t, ok)
	assert.Equal(t, 0, b.Len())
}

func TestAddLatestWinsPerUniqueID(t *testing.T) {
	b := New(false)
	first := NewEvent(catalogerr.GenericFailure("first")).WithApp("system/package/origin/a/stable")
	second := NewEvent(catalogerr.GenericFailure("second")).WithApp("system/package/origin/a/stable")
	require.True(t, b.Add(first))
	require.True(t, b.Add(second))

	require.Equal(t, 1, b.Len())
	got, ok := b.Get("system/package/origin/a/stable")
	require.True(t, ok)
	assert.Equal(t, "second", got.Err.Message)
}

func TestOnAddFansOutToRegisteredCallbacks(t *testing.T) {
	b := New(false)
	var seen []*Event
	b.OnAdd(func(ev *Event) { seen = append(seen, ev) })

	ev := NewEvent(catalogerr.GenericFailure("boom")).WithApp("system/package/origin/a/stable")
	b.Add(ev)

	require.Len(t, seen, 1)
	assert.Same(t, ev, seen[0])
}

func TestDefaultSkipsInvalidatedEvents(t *testing.T) {
	b := New(false)
	ev1 := NewEvent(catalogerr.GenericFailure("first")).WithApp("a")
	ev2 := NewEvent(catalogerr.GenericFailure("second")).WithApp("b")
	b.Add(ev1)
	b.Add(ev2)

	b.Invalidate("a")
	def, ok := b.Default()
	require.True(t, ok)
	assert.Equal(t, "b", def.App)
}

func TestUniqueIDPrefersOriginOverApp(t *testing.T) {
	ev := NewEvent(catalogerr.GenericFailure("x")).WithApp("app-id").WithOrigin("origin-id")
	assert.Equal(t, "origin-id", ev.UniqueID())
}

func TestUniqueIDSynthesizedFromKindWhenNeitherSet(t *testing.T) {
	ev := NewEvent(catalogerr.New(catalogerr.NoNetwork, "offline"))
	assert.Contains(t, ev.UniqueID(), string(catalogerr.NoNetwork))
}

func TestFailHardPropagatedFromBus(t *testing.T) {
	b := New(true)
	assert.True(t, b.FailHard())
}
