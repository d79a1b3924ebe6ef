package appstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/software-center/catalog/internal/app"
	"github.com/software-center/catalog/internal/config"
	"github.com/software-center/catalog/internal/plugin"
)

// RefineApp honors config.CompatibleProjects (SPEC_FULL.md §5.1): a
// project_group outside the allowlist gets QuirkHideEverywhere.
func TestRefineAppHidesIncompatibleProjectGroup(t *testing.T) {
	xml := `<components origin="test"><component type="desktop-application">
<id>org.ex.A</id><name>A</name><summary>s</summary>
<project_group>SomeOtherDesktop</project_group>
</component></components>`
	s := newSiloFromXML(t, xml)
	e := NewEngine()
	e.SetSilo(s)
	e.SetSettings(config.Settings{CompatibleProjects: []string{"GNOME"}})

	a := app.New("org.ex.A")
	comp := e.findComponent("org.ex.A")
	require.NoError(t, e.RefineApp(a, comp, plugin.RequireProjectGroup))

	assert.Equal(t, "SomeOtherDesktop", a.ProjectGroup())
	assert.True(t, a.HasQuirk(app.QuirkHideEverywhere))
}

func TestRefineAppAllowsCompatibleProjectGroup(t *testing.T) {
	xml := `<components origin="test"><component type="desktop-application">
<id>org.ex.A</id><name>A</name><summary>s</summary>
<project_group>GNOME</project_group>
</component></components>`
	s := newSiloFromXML(t, xml)
	e := NewEngine()
	e.SetSilo(s)
	e.SetSettings(config.Settings{CompatibleProjects: []string{"GNOME"}})

	a := app.New("org.ex.A")
	comp := e.findComponent("org.ex.A")
	require.NoError(t, e.RefineApp(a, comp, plugin.RequireProjectGroup))

	assert.Equal(t, "GNOME", a.ProjectGroup())
	assert.False(t, a.HasQuirk(app.QuirkHideEverywhere))
}

func TestRefineAppEmptyAllowlistPassesEverything(t *testing.T) {
	xml := `<components origin="test"><component type="desktop-application">
<id>org.ex.A</id><name>A</name><summary>s</summary>
<project_group>Anything</project_group>
</component></components>`
	s := newSiloFromXML(t, xml)
	e := NewEngine()
	e.SetSilo(s)

	a := app.New("org.ex.A")
	comp := e.findComponent("org.ex.A")
	require.NoError(t, e.RefineApp(a, comp, plugin.RequireProjectGroup))

	assert.False(t, a.HasQuirk(app.QuirkHideEverywhere))
}

// Search synthesizes the extended parent's id as an is-wildcard
// placeholder for addon matches instead of returning the addon itself
// (spec.md §4.1 "For addons...").
func TestSearchSynthesizesAddonParentAsWildcard(t *testing.T) {
	xml := `<components origin="test">
<component type="addon"><id>org.ex.A.plugin</id><name>A Plugin</name><summary>s</summary><extends>org.ex.A</extends></component>
</components>`
	s := newSiloFromXML(t, xml)
	e := NewEngine()
	e.SetSilo(s)

	results := e.Search([]string{"plugin"})
	require.Len(t, results, 1)
	assert.Equal(t, "org.ex.A", results[0].App.ID())
	assert.True(t, results[0].App.HasQuirk(app.QuirkIsWildcard))
}
