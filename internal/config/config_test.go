package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	s := Default()
	assert.True(t, s.AllowUpdates)
	assert.True(t, s.DownloadUpdates)
	assert.Empty(t, s.CompatibleProjects)
}

func TestLoadMissingOverlayFallsBackToDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().AllowUpdates, s.AllowUpdates)
}

func TestLoadYAMLOverlayOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("allow-updates: false\nshow-only-free-apps: true\n"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.False(t, s.AllowUpdates)
	assert.True(t, s.ShowOnlyFreeApps)
}

func TestEnvOverrideSetsFailHard(t *testing.T) {
	t.Setenv("GS_SELF_TEST_PLUGIN_ERROR_FAIL_HARD", "1")
	s, err := Load("")
	require.NoError(t, err)
	assert.True(t, s.FailHard)
}

func TestEnvOverrideCompatibleProjects(t *testing.T) {
	t.Setenv("GNOME_SOFTWARE_COMPATIBLE_PROJECTS", "GNOME, KDE ,  ")
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"GNOME", "KDE"}, s.CompatibleProjects)
}

func TestPackagingFormatForScopedAndUnscoped(t *testing.T) {
	s := Settings{PackagingFormatPreference: []string{"flatpak:flathub", "package"}}
	assert.Equal(t, "flatpak", s.PackagingFormatFor("flathub"))
	// "package" has no origin qualifier, so it applies everywhere and wins
	// for any origin not already matched by an earlier scoped entry.
	assert.Equal(t, "package", s.PackagingFormatFor("some-other-origin"))
}

func TestPackagingFormatForNoPreference(t *testing.T) {
	s := Settings{}
	assert.Equal(t, "", s.PackagingFormatFor("flathub"))
}

func TestIsCompatibleProjectEmptyAllowlistPassesEverything(t *testing.T) {
	s := Settings{}
	assert.True(t, s.IsCompatibleProject("GNOME"))
}

func TestIsCompatibleProjectAllowlist(t *testing.T) {
	s := Settings{CompatibleProjects: []string{"GNOME", "KDE"}}
	assert.True(t, s.IsCompatibleProject("gnome"))
	assert.False(t, s.IsCompatibleProject("Unity"))
}

func TestExternalAppstreamURLsDedupedByBasename(t *testing.T) {
	s := Settings{ExternalAppstreamURLs: []string{
		"https://mirror1.example/data/extra.xml.gz",
		"https://mirror2.example/other/extra.xml.gz",
		"https://mirror1.example/data/unique.xml.gz",
	}}
	got := s.ExternalAppstreamURLsDeduped()
	require.Len(t, got, 2)
	assert.Equal(t, "https://mirror1.example/data/extra.xml.gz", got[0])
	assert.Equal(t, "https://mirror1.example/data/unique.xml.gz", got[1])
}

func TestBoundedPoolMaxDefaultAndOverride(t *testing.T) {
	assert.Equal(t, 20, BoundedPoolMax())
	t.Setenv("CATALOG_BOUNDED_POOL_MAX", "5")
	assert.Equal(t, 5, BoundedPoolMax())
}

func TestRAMTotalMBOverride(t *testing.T) {
	assert.Equal(t, 2048, RAMTotalMB(2048))
	t.Setenv("CATALOG_RAM_TOTAL_MB", "4096")
	assert.Equal(t, 4096, RAMTotalMB(2048))
}
