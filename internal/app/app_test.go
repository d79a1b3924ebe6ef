package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniqueIDImmutableOnceSet(t *testing.T) {
	a := New("org.ex.A")
	a.SetUniqueID("system/package/origin/org.ex.A/stable")
	a.SetUniqueID("user/flatpak/other/org.ex.A/master")
	assert.Equal(t, "system/package/origin/org.ex.A/stable", a.UniqueID())
}

func TestSetFromUniqueIDParsesSegments(t *testing.T) {
	a := New("")
	err := a.SetFromUniqueID("system/flatpak/flathub/org.ex.A/stable")
	require.NoError(t, err)
	assert.Equal(t, ScopeSystem, a.Scope())
	assert.Equal(t, BundleFlatpak, a.BundleKind())
	assert.Equal(t, "flathub", a.Origin())
	assert.Equal(t, "org.ex.A", a.ID())
	assert.Equal(t, "stable", a.Branch())
}

func TestSetFromUniqueIDRejectsMalformed(t *testing.T) {
	a := New("")
	err := a.SetFromUniqueID("too/few/parts")
	assert.Error(t, err)
}

func TestStateTransitionsLegal(t *testing.T) {
	a := New("org.ex.A")
	require.NoError(t, a.SetState(StateAvailable))
	require.NoError(t, a.SetState(StateInstalling))
	require.NoError(t, a.SetState(StateInstalled))
	require.NoError(t, a.SetState(StateRemoving))
	require.NoError(t, a.SetState(StateUnknown))
}

func TestStateTransitionIllegal(t *testing.T) {
	a := New("org.ex.A")
	require.NoError(t, a.SetState(StateInstalled))
	err := a.SetState(StateDownloading)
	assert.Error(t, err)
	var illegal *ErrIllegalTransition
	assert.ErrorAs(t, err, &illegal)
}

func TestAnyStateCanGoUnavailable(t *testing.T) {
	a := New("org.ex.A")
	require.NoError(t, a.SetState(StateInstalled))
	require.NoError(t, a.SetState(StateUnavailable))
}

func TestStateRecoverReturnsToLastStable(t *testing.T) {
	a := New("org.ex.A")
	require.NoError(t, a.SetState(StateAvailable))
	require.NoError(t, a.SetState(StateInstalling))
	a.SetStateRecover()
	assert.Equal(t, StateAvailable, a.State())
}

func TestProgressOnlyMeaningfulDuringActiveStates(t *testing.T) {
	a := New("org.ex.A")
	a.SetProgress(42)
	_, ok := a.Progress()
	assert.False(t, ok, "progress must be meaningless outside installing/downloading/removing")

	require.NoError(t, a.SetState(StateAvailable))
	require.NoError(t, a.SetState(StateInstalling))
	p, ok := a.Progress()
	assert.True(t, ok)
	assert.Equal(t, 42, p)
}

func TestSetNameRespectsQuality(t *testing.T) {
	a := New("org.ex.A")
	a.SetName(QualityLowest, "low quality name")
	a.SetName(QualityNormal, "normal name")
	assert.Equal(t, "normal name", a.Name())

	// A lower-quality write must not clobber a higher-quality value.
	a.SetName(QualityLowest, "should not win")
	assert.Equal(t, "normal name", a.Name())
}

func TestSetMetadataNoopIfKeySet(t *testing.T) {
	a := New("org.ex.A")
	a.SetMetadata("Creator", "flatpak")
	a.SetMetadata("Creator", "packagekit")
	v, ok := a.Metadata("Creator")
	require.True(t, ok)
	assert.Equal(t, "flatpak", v)
}

func TestAddIconDedupesBySizeKindSource(t *testing.T) {
	a := New("org.ex.A")
	icon := Icon{Kind: IconStock, Name: "app-icon", Size: 64, Scale: 1}
	a.AddIcon(icon)
	a.AddIcon(icon)
	assert.Len(t, a.Icons(), 1)

	other := icon
	other.Size = 128
	a.AddIcon(other)
	assert.Len(t, a.Icons(), 2)
}

func TestManagementPluginNeverSetOnWildcard(t *testing.T) {
	a := New("")
	a.AddQuirk(QuirkIsWildcard)
	a.SetManagementPlugin("flatpak")
	assert.Equal(t, "", a.ManagementPlugin())
}

func TestAddAddonsSkipsMismatchedExtends(t *testing.T) {
	parent := New("org.ex.Parent")
	matching := New("org.ex.Parent.Addon")
	matching.SetMetadata("ExtendsID", "org.ex.Parent")
	mismatched := New("org.ex.Other.Addon")
	mismatched.SetMetadata("ExtendsID", "org.ex.Other")

	extra := NewList()
	extra.Add(matching)
	extra.Add(mismatched)

	parent.AddAddons(extra)
	addons := parent.DupAddons()
	require.Len(t, addons, 1)
	assert.Equal(t, "org.ex.Parent.Addon", addons[0].ID())
}

func TestIsOwnedRepository(t *testing.T) {
	repo := New("org.ex.repo")
	repo.SetKind(KindRepository)
	repo.AddSource("org.ex.repo")
	assert.True(t, repo.IsOwnedRepository())

	repo.AddSource("some-other-source")
	assert.False(t, repo.IsOwnedRepository())
}
