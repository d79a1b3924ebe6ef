package appstream

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/software-center/catalog/internal/app"
	"github.com/software-center/catalog/internal/catalogerr"
	"github.com/software-center/catalog/internal/plugin"
)

func newSiloFromXML(t *testing.T, xml string) *Silo {
	t.Helper()
	s := NewSilo()
	require.NoError(t, s.AddXMLBytes([]byte(xml)))
	s.Seal()
	return s
}

// S1 — silo creation & id refine.
func TestCreateAppFromComponent(t *testing.T) {
	xml := `<components origin="test"><component type="desktop-application">
<id>org.ex.A</id><name>A</name><summary>s</summary><metadata_license>X</metadata_license>
</component></components>`
	s := newSiloFromXML(t, xml)
	e := NewEngine()
	e.SetSilo(s)
	p := plugin.New("test-plugin")

	a, err := e.CreateApp(p, "org.ex.A")
	require.NoError(t, err)
	assert.Equal(t, "org.ex.A", a.ID())
	assert.Equal(t, app.KindDesktopApp, a.Kind())
	assert.Equal(t, app.ScopeSystem, a.Scope())
	assert.Equal(t, "test", a.Origin())
	assert.NotEmpty(t, a.UniqueID())
	assert.False(t, a.HasQuirk(app.QuirkIsWildcard))
	creator, ok := a.Metadata("Creator")
	require.True(t, ok)
	assert.Equal(t, "test-plugin", creator)

	again, err := e.CreateApp(p, "org.ex.A")
	require.NoError(t, err)
	assert.Same(t, a, again, "second create_app should hit the plugin cache")
}

// S2 — wildcard detection: a component with no <name> and no
// <metadata_license> is marked is-wildcard and never touches the plugin
// cache.
func TestCreateAppWildcardSkipsCache(t *testing.T) {
	xml := `<components origin="test"><component type="desktop-application">
<id>org.ex.B</id>
</component></components>`
	s := newSiloFromXML(t, xml)
	e := NewEngine()
	e.SetSilo(s)
	p := plugin.New("test-plugin")

	a, err := e.CreateApp(p, "org.ex.B")
	require.NoError(t, err)
	assert.True(t, a.HasQuirk(app.QuirkIsWildcard))
	assert.Equal(t, 0, p.Cache.Len())

	again, err := e.CreateApp(p, "org.ex.B")
	require.NoError(t, err)
	assert.NotSame(t, a, again, "wildcard apps are never cached, so each create_app call allocates a new one")
}

// S3 — flatpak bundle parsing.
func TestParseBundleRefValid(t *testing.T) {
	ref, err := ParseBundleRef("app/org.ex.A/x86_64/stable")
	require.NoError(t, err)
	assert.Equal(t, "app", ref.Kind)
	assert.Equal(t, "org.ex.A", ref.ID)
	assert.Equal(t, "x86_64", ref.Arch)
	assert.Equal(t, "stable", ref.Branch)
}

func TestParseBundleRefMalformedIsNotSupported(t *testing.T) {
	_, err := ParseBundleRef("too/few/parts")
	require.Error(t, err)
	assert.True(t, catalogerr.IsKind(err, catalogerr.NotSupported))
}

// S4 — search ranking: name match outranks keyword match outranks a
// pkgname substring match, and the id weight never leaks into the
// reported MatchValue.
func TestSearchRanking(t *testing.T) {
	xml := `<components origin="test">
<component type="desktop-application"><id>org.ex.C1</id><name>C1</name><summary>s1</summary><pkgname>foo-bar</pkgname></component>
<component type="desktop-application"><id>org.ex.C2</id><name>Bar Foo</name><summary>s2</summary></component>
<component type="desktop-application"><id>org.ex.C3</id><name>C3</name><summary>s3</summary><keywords><keyword>bar</keyword></keywords></component>
</components>`
	s := newSiloFromXML(t, xml)
	e := NewEngine()
	e.SetSilo(s)

	results := e.Search([]string{"bar"})
	require.Len(t, results, 3)

	byID := make(map[string]Result, 3)
	for _, r := range results {
		byID[r.App.ID()] = r
	}
	require.Contains(t, byID, "org.ex.C1")
	require.Contains(t, byID, "org.ex.C2")
	require.Contains(t, byID, "org.ex.C3")

	assert.Greater(t, byID["org.ex.C2"].MatchValue, byID["org.ex.C3"].MatchValue,
		"name match should outrank keyword match")
	assert.Greater(t, byID["org.ex.C3"].MatchValue, byID["org.ex.C1"].MatchValue,
		"keyword match should outrank a pkgname substring match")

	// ID weight must never appear in the reported ranking.
	for _, r := range results {
		assert.Zero(t, r.MatchValue&weightID, "id weight bit must be stripped from the ranking")
	}
}

func TestSearchRequiresEveryTokenToMatch(t *testing.T) {
	xml := `<components origin="test">
<component type="desktop-application"><id>org.ex.A</id><name>Alpha</name><summary>only alpha</summary></component>
</components>`
	s := newSiloFromXML(t, xml)
	e := NewEngine()
	e.SetSilo(s)

	// "alpha" alone matches; "alpha beta" should not, since "beta" hits
	// nothing in this single component.
	assert.Len(t, e.Search([]string{"alpha"}), 1)
	assert.Len(t, e.Search([]string{"alpha", "beta"}), 0)
}

func TestDescriptionFormatterParagraphWithInlineMarkup(t *testing.T) {
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(`<description><p>a<em>b</em>c</p></description>`))
	got := FormatDescription(doc.Root())
	assert.Equal(t, "a<i>b</i>c", got)
}

func TestDescriptionFormatterDropsUnknownTags(t *testing.T) {
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(`<description><bogus>ignored</bogus><p>kept</p></description>`))
	got := FormatDescription(doc.Root())
	assert.Equal(t, "kept", got)
}

func TestReleaseTimestampPrefersTimestampOverDate(t *testing.T) {
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(`<release timestamp="100" date="1970-01-02"/>`))
	assert.Equal(t, int64(100), releaseTimestamp(doc.Root()))
}

func TestURLToAppMatchesByID(t *testing.T) {
	xml := `<components origin="test"><component type="desktop-application">
<id>org.ex.A</id><name>A</name>
</component></components>`
	s := newSiloFromXML(t, xml)
	e := NewEngine()
	e.SetSilo(s)

	a, ok := e.URLToApp("appstream:org.ex.A")
	require.True(t, ok)
	assert.Equal(t, "org.ex.A", a.ID())
}
