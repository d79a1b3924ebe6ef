package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/software-center/catalog/internal/app"
)

func TestCacheAddSkipsBlankUniqueID(t *testing.T) {
	c := NewCache()
	c.Add(app.New("org.ex.A")) // no unique_id set yet
	assert.Equal(t, 0, c.Len())
}

func TestCacheAddAndLookup(t *testing.T) {
	c := NewCache()
	a := app.New("org.ex.A")
	a.SetUniqueID("system/package/origin/org.ex.A/stable")
	c.Add(a)

	got, ok := c.Lookup("system/package/origin/org.ex.A/stable")
	require.True(t, ok)
	assert.Same(t, a, got)
}

func TestCacheRemove(t *testing.T) {
	c := NewCache()
	a := app.New("org.ex.A")
	a.SetUniqueID("system/package/origin/org.ex.A/stable")
	c.Add(a)
	c.Remove("system/package/origin/org.ex.A/stable")

	_, ok := c.Lookup("system/package/origin/org.ex.A/stable")
	assert.False(t, ok)
}

func TestCacheLookupByState(t *testing.T) {
	c := NewCache()
	a1 := app.New("org.ex.A")
	a1.SetUniqueID("system/package/origin/org.ex.A/stable")
	require.NoError(t, a1.SetState(app.StateAvailable))
	a2 := app.New("org.ex.B")
	a2.SetUniqueID("system/package/origin/org.ex.B/stable")
	require.NoError(t, a2.SetState(app.StateAvailable))
	require.NoError(t, a2.SetState(app.StateInstalled))
	c.Add(a1)
	c.Add(a2)

	installed := c.LookupByState(app.StateInstalled)
	require.Len(t, installed, 1)
	assert.Same(t, a2, installed[0])
}

func TestCacheInvalidateClearsEverything(t *testing.T) {
	c := NewCache()
	a := app.New("org.ex.A")
	a.SetUniqueID("system/package/origin/org.ex.A/stable")
	c.Add(a)
	c.Invalidate()
	assert.Equal(t, 0, c.Len())
}
