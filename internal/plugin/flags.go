package plugin

// RefineFlag is the require_flags bitset gating which (possibly expensive)
// fields a refine pass populates (spec.md §4.5). A caller that only needs
// an App's id doesn't pay for screenshots, reviews, or icon construction.
type RefineFlag uint64

const (
	RequireID RefineFlag = 1 << iota
	RequireOrigin
	RequireOriginHostname
	RequireOriginUI
	RequireDescription
	RequireLicense
	RequireSize
	RequireSizeData
	RequireVersion
	RequireHistory
	RequireAddons
	RequireScreenshots
	RequireIcon
	RequireURL
	RequireCategories
	RequireProvenance
	RequirePermissions
	RequireUpdateDetails
	RequireKudos
	RequireRating
	RequireReviewRatings
	RequireReviews
	RequireRelated
	RequireRuntime
	RequireSetupAction
	RequireDeveloperName
	RequireProjectGroup

	// DisableFiltering suppresses any plugin-side filtering of candidates
	// during a follow-up refine, per the loader's post-processing pass
	// (spec.md §4.4).
	DisableFiltering
)

func (f RefineFlag) Has(flag RefineFlag) bool    { return f&flag != 0 }
func (f RefineFlag) Add(flag RefineFlag) RefineFlag { return f | flag }

// RepositoryAction is the action a ManageRepository job requests.
type RepositoryAction string

const (
	RepositoryInstall RepositoryAction = "install"
	RepositoryRemove  RepositoryAction = "remove"
	RepositoryEnable  RepositoryAction = "enable"
	RepositoryDisable RepositoryAction = "disable"
)
