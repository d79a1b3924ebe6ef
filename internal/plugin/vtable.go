package plugin

import (
	"context"

	"github.com/software-center/catalog/internal/app"
	"github.com/software-center/catalog/internal/query"
)

// ProgressFunc reports fractional progress (0..100, or -1 for unknown)
// during a long-running operation such as UpdateApps.
type ProgressFunc func(a *app.App, percent int)

// UserActionFunc asks the caller to resolve an interactive prompt (e.g. a
// distro-upgrade confirmation) mid-operation.
type UserActionFunc func(ctx context.Context, prompt string) (bool, error)

// VTable is a Plugin's asynchronous operation table (spec.md §4.3). Every
// slot is optional; a nil slot means "operation not supported" and the
// loader treats invoking it as a no-op success (the vtable-probe rule).
type VTable struct {
	Setup    func(ctx context.Context) error
	Shutdown func(ctx context.Context) error

	Refine func(ctx context.Context, list *app.List, flags RefineFlag) error

	ListApps func(ctx context.Context, q query.AppQuery) (*app.List, error)

	RefreshMetadata func(ctx context.Context, cacheAgeSeconds int64, flags RefineFlag) error

	ListDistroUpgrades func(ctx context.Context, flags RefineFlag) (*app.List, error)

	ManageRepository func(ctx context.Context, repo *app.App, action RepositoryAction, flags RefineFlag) error

	RefineCategories func(ctx context.Context, categories *app.List, flags RefineFlag) error

	UpdateApps func(ctx context.Context, list *app.List, flags RefineFlag, onProgress ProgressFunc, onUserAction UserActionFunc) error

	InstallApps func(ctx context.Context, list *app.List, flags RefineFlag, onProgress ProgressFunc) error
	RemoveApps  func(ctx context.Context, list *app.List, flags RefineFlag, onProgress ProgressFunc) error

	UpgradeDownload func(ctx context.Context, a *app.App, onProgress ProgressFunc) error
	UpgradeTrigger  func(ctx context.Context, a *app.App) error
	Launch          func(ctx context.Context, a *app.App) error

	FileToApp func(ctx context.Context, path string) (*app.App, error)
	URLToApp  func(ctx context.Context, url string) (*app.App, error)

	GetOfflineUpdateState   func(ctx context.Context) (string, error)
	CancelOfflineUpdate     func(ctx context.Context) error
	SetOfflineUpdateAction  func(ctx context.Context, action string) error

	// AdoptApp is a synchronous hint, not a job slot: "is this app yours?"
	// (spec.md §4.3). The first plugin (in plugin order) whose AdoptApp
	// returns true wins the adopt pass; the loader then sets it as the
	// App's management plugin.
	AdoptApp func(a *app.App) (claimed bool)
}
