// Package config reads the settings the core consumes (spec.md §6), in the
// teacher's getEnv/getEnvInt style (cmd/main.go), extended with an optional
// YAML overlay file the way internal/sync reads its repo descriptors with
// gopkg.in/yaml.v3.
package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings holds the handful of GSettings-equivalent keys spec.md §6 names.
// Every field has a default (Default); a YAML overlay (Load) can override
// it, and FailHard and CompatibleProjects also take an env var override.
type Settings struct {
	AllowUpdates               bool     `yaml:"allow-updates"`
	PackagingFormatPreference  []string `yaml:"packaging-format-preference"`
	CompatibleProjects         []string `yaml:"compatible-projects"`
	ShowOnlyFreeApps           bool     `yaml:"show-only-free-apps"`
	DownloadUpdates            bool     `yaml:"download-updates"`
	DownloadUpdatesNotify      bool     `yaml:"download-updates-notify"`
	ReviewServer               string   `yaml:"review-server"`
	ExternalAppstreamURLs      []string `yaml:"external-appstream-urls"`

	// FailHard mirrors GS_SELF_TEST_PLUGIN_ERROR_FAIL_HARD. The loader passes
	// it on to its own and every job's event bus (events.Bus.FailHard); no
	// dispatch path reads it, so masked plugin errors stay masked whether or
	// not it is set. Test-only escape hatch.
	FailHard bool
}

// Default returns the settings a fresh install would see: updates allowed,
// no packaging-format preference, no compatible-projects allowlist (every
// project_group passes), free-apps filter off.
func Default() Settings {
	return Settings{
		AllowUpdates:          true,
		DownloadUpdates:       true,
		DownloadUpdatesNotify: true,
		ReviewServer:          "https://odrs.gnome.org/1.0/reviews/api/1.0",
	}
}

// Load starts from Default(), applies a YAML overlay file if path is
// non-empty and exists, then applies environment-variable overrides.
// A missing overlay file is not an error — it just means "use defaults
// plus env".
func Load(path string) (Settings, error) {
	s := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &s); err != nil {
				return s, err
			}
		} else if !os.IsNotExist(err) {
			return s, err
		}
	}

	s.applyEnvOverrides()
	return s, nil
}

// applyEnvOverrides layers the two named environment overrides from
// spec.md §6 on top of whatever Default()/the YAML overlay produced.
func (s *Settings) applyEnvOverrides() {
	if getEnv("GS_SELF_TEST_PLUGIN_ERROR_FAIL_HARD", "") != "" {
		s.FailHard = true
	}
	if v := getEnv("GNOME_SOFTWARE_COMPATIBLE_PROJECTS", ""); v != "" {
		s.CompatibleProjects = splitCommaList(v)
	}
}

// PackagingFormatFor returns the preferred bundle-kind string for the given
// origin, honoring the `format[:origin]` / `:origin` shapes spec.md §6
// describes for packaging-format-preference. An empty return means "no
// preference for this origin".
func (s Settings) PackagingFormatFor(origin string) string {
	for _, entry := range s.PackagingFormatPreference {
		format, scopedOrigin, hasOrigin := strings.Cut(entry, ":")
		if !hasOrigin {
			// "format" with no origin qualifier applies everywhere.
			return entry
		}
		if scopedOrigin == origin {
			return format
		}
	}
	return ""
}

// IsCompatibleProject reports whether projectGroup passes the
// compatible-projects allowlist. An empty allowlist means everything
// passes (gs-plugin-loader.c's default).
func (s Settings) IsCompatibleProject(projectGroup string) bool {
	if len(s.CompatibleProjects) == 0 {
		return true
	}
	for _, p := range s.CompatibleProjects {
		if strings.EqualFold(p, projectGroup) {
			return true
		}
	}
	return false
}

// ExternalAppstreamURLsDeduped returns ExternalAppstreamURLs deduplicated by
// basename, reproducing gs-external-appstream-utils.c's dedup rule so a
// fetcher plugin consuming this setting never double-fetches the same file
// served from two mirrors.
func (s Settings) ExternalAppstreamURLsDeduped() []string {
	seen := make(map[string]bool, len(s.ExternalAppstreamURLs))
	out := make([]string, 0, len(s.ExternalAppstreamURLs))
	for _, u := range s.ExternalAppstreamURLs {
		base := u
		if idx := strings.LastIndexByte(u, '/'); idx >= 0 {
			base = u[idx+1:]
		}
		if seen[base] {
			continue
		}
		seen[base] = true
		out = append(out, u)
	}
	return out
}

func splitCommaList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnv mirrors cmd/main.go's helper: env var value, or defaultValue when
// unset or empty.
func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// getEnvInt mirrors cmd/main.go's helper for integer-valued settings (e.g.
// a cache-age override for RefreshMetadata).
func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

// RAMTotalMB returns the loader's bounded-pool sizing input (spec.md §4.4,
// §5), overridable via CATALOG_RAM_TOTAL_MB for environments where
// /proc/meminfo isn't representative (containers with cgroup limits).
func RAMTotalMB(defaultMB int) int {
	return getEnvInt("CATALOG_RAM_TOTAL_MB", defaultMB)
}

// BoundedPoolMax returns the configurable cap on the install/download
// thread pool (spec.md §5 "default cap 20").
func BoundedPoolMax() int {
	return getEnvInt("CATALOG_BOUNDED_POOL_MAX", 20)
}
