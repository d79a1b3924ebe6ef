// Package query defines the AppQuery input to a ListApps job (spec.md
// §4.5), kept separate from the job package so both the plugin vtable and
// the loader's post-processing can depend on it without a cycle.
package query

import "github.com/software-center/catalog/internal/app"

// LicenseType filters candidates by license openness.
type LicenseType string

const (
	LicenseAny       LicenseType = ""
	LicenseFreeOnly  LicenseType = "free-only"
	LicenseNonFree   LicenseType = "non-free"
)

// DeveloperVerifiedType filters candidates by developer-verification status.
type DeveloperVerifiedType string

const (
	DeveloperVerifiedAny  DeveloperVerifiedType = ""
	DeveloperVerifiedOnly DeveloperVerifiedType = "verified-only"
)

// AppQuery describes a ListApps request (spec.md §4.5). Plugins contribute
// candidates; the loader applies FilterFunc, SortFunc, truncates to
// MaxResults, then refines with RefineRequireFlags.
type AppQuery struct {
	FilterFunc func(*app.App) bool
	SortFunc   func(a, b *app.App) int

	MaxResults        int
	RefineRequireFlags uint64 // plugin.RefineFlag, kept opaque here to avoid an import cycle
	DedupeFlags        app.DedupeFlag

	LicenseType           LicenseType
	DeveloperVerifiedType DeveloperVerifiedType

	Category     string
	Developers   []string
	AlternateOf  *app.App
}
