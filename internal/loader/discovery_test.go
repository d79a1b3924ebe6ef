package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/software-center/catalog/internal/plugin"
)

func TestRegisterBuiltinAndLoad(t *testing.T) {
	plugin.New("builtin-discovery-test") // no-op, just ensures the plugin package is linked
	RegisterBuiltin("discovery-test-appstream", func() *plugin.Plugin { return plugin.New("discovery-test-appstream") })

	d := &Discovery{}
	plugins := d.Load()

	var found bool
	for _, p := range plugins {
		if p.Name == "discovery-test-appstream" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDiscoveryAllowlistFiltersBuiltins(t *testing.T) {
	RegisterBuiltin("discovery-test-flatpak", func() *plugin.Plugin { return plugin.New("discovery-test-flatpak") })
	RegisterBuiltin("discovery-test-snap", func() *plugin.Plugin { return plugin.New("discovery-test-snap") })

	d := &Discovery{Allowlist: map[string]bool{"discovery-test-flatpak": true}}
	plugins := d.Load()

	names := make(map[string]bool, len(plugins))
	for _, p := range plugins {
		names[p.Name] = true
	}
	assert.True(t, names["discovery-test-flatpak"])
	assert.False(t, names["discovery-test-snap"])
}

func TestDiscoveryBlocklistExcludesBuiltin(t *testing.T) {
	RegisterBuiltin("discovery-test-packagekit", func() *plugin.Plugin { return plugin.New("discovery-test-packagekit") })

	d := &Discovery{Blocklist: map[string]bool{"discovery-test-packagekit": true}}
	plugins := d.Load()

	for _, p := range plugins {
		require.NotEqual(t, "discovery-test-packagekit", p.Name)
	}
}
