package job

import (
	"github.com/software-center/catalog/internal/app"
	"github.com/software-center/catalog/internal/plugin"
	"github.com/software-center/catalog/internal/query"
)

// RefineInput is the input to a Refine job (spec.md §4.5).
type RefineInput struct {
	List  *app.List
	Flags plugin.RefineFlag
}

// ListAppsInput is the input to a ListApps job.
type ListAppsInput struct {
	Query query.AppQuery
}

// RefreshMetadataInput is the input to a RefreshMetadata job.
type RefreshMetadataInput struct {
	CacheAgeSeconds int64
	Flags           plugin.RefineFlag
}

// ListDistroUpgradesInput is the input to a ListDistroUpgrades job.
type ListDistroUpgradesInput struct {
	Flags plugin.RefineFlag
}

// ManageRepositoryInput is the input to a ManageRepository job; routed to
// the single plugin that owns Repo (spec.md §4.5).
type ManageRepositoryInput struct {
	Repo   *app.App
	Action plugin.RepositoryAction
}

// UpdateAppsInput is the input to an UpdateApps job.
type UpdateAppsInput struct {
	List  *app.List
	Flags plugin.RefineFlag
}

// AppListInput is the shared shape for InstallApps/RemoveApps, which
// operate on a whole list rather than a single App.
type AppListInput struct {
	List  *app.List
	Flags plugin.RefineFlag
}

// SingleAppInput is the shared shape for Install/Remove/UpgradeDownload/
// UpgradeTrigger/Launch/UpdateCancel, which target exactly one App.
type SingleAppInput struct {
	App   *app.App
	Flags plugin.RefineFlag
}

// FileToAppInput is the input to a FileToApp job.
type FileToAppInput struct {
	Path string
}

// URLToAppInput is the input to a UrlToApp job.
type URLToAppInput struct {
	URL string
}

// SetOfflineUpdateActionInput is the input to a SetOfflineUpdateAction job.
type SetOfflineUpdateActionInput struct {
	Action string
}
