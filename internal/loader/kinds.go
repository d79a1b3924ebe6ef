package loader

import (
	"context"

	"github.com/software-center/catalog/internal/app"
	"github.com/software-center/catalog/internal/catalogerr"
	"github.com/software-center/catalog/internal/job"
	"github.com/software-center/catalog/internal/logging"
	"github.com/software-center/catalog/internal/plugin"
)

func (l *Loader) dispatchRefine(j *job.Job) (*app.List, string, error) {
	in, ok := j.Input.(job.RefineInput)
	if !ok {
		return nil, "", catalogerr.Unsupported("refine: wrong input type")
	}
	var first error
	for _, p := range l.enabledPlugins() {
		fn := p.VTable.Refine
		if fn == nil {
			continue
		}
		first = maskOrSurface(j.Kind(), first, fn(j.Context(), in.List, in.Flags), p.Name)
	}
	return in.List, "", first
}

func (l *Loader) dispatchListApps(j *job.Job) (*app.List, string, error) {
	in, ok := j.Input.(job.ListAppsInput)
	if !ok {
		return nil, "", catalogerr.Unsupported("list_apps: wrong input type")
	}
	result := app.NewList()
	priorityByID := make(map[string]int)
	var first error
	for _, p := range l.enabledPlugins() {
		fn := p.VTable.ListApps
		if fn == nil {
			continue
		}
		partial, err := fn(j.Context(), in.Query)
		first = maskOrSurface(j.Kind(), first, err, p.Name)
		if partial != nil {
			for _, a := range partial.Items() {
				if uid := a.UniqueID(); uid != "" {
					priorityByID[uid] = p.Priority()
				}
			}
			// AddAllRaw, not AddAll: a later plugin's competing App for the
			// same unique_id must still reach FilterDuplicates below, or
			// the priority merge rule never gets a chance to pick it.
			result.AddAllRaw(partial)
		}
	}
	if in.Query.FilterFunc != nil {
		result = result.Filter(in.Query.FilterFunc)
	}
	// Map each produced App back to its producing plugin's dispatch
	// priority so FilterDuplicates' "higher-priority plugin wins" merge
	// arm (spec.md §3.3) actually discriminates between plugins instead
	// of collapsing to a version-only tie-break.
	result.FilterDuplicates(in.Query.DedupeFlags, func(a *app.App) int {
		return priorityByID[a.UniqueID()]
	})
	if in.Query.SortFunc != nil {
		result.Sort(in.Query.SortFunc)
	}
	if in.Query.MaxResults > 0 {
		result.Truncate(in.Query.MaxResults)
	}
	return result, "", first
}

func (l *Loader) dispatchRefreshMetadata(j *job.Job) (*app.List, string, error) {
	in, ok := j.Input.(job.RefreshMetadataInput)
	if !ok {
		return nil, "", catalogerr.Unsupported("refresh_metadata: wrong input type")
	}
	var first error
	for _, p := range l.enabledPlugins() {
		fn := p.VTable.RefreshMetadata
		if fn == nil {
			continue
		}
		first = maskOrSurface(j.Kind(), first, fn(j.Context(), in.CacheAgeSeconds, in.Flags), p.Name)
	}
	return nil, "", first
}

func (l *Loader) dispatchListDistroUpgrades(j *job.Job) (*app.List, string, error) {
	in, ok := j.Input.(job.ListDistroUpgradesInput)
	if !ok {
		return nil, "", catalogerr.Unsupported("list_distro_upgrades: wrong input type")
	}
	result := app.NewList()
	var first error
	for _, p := range l.enabledPlugins() {
		fn := p.VTable.ListDistroUpgrades
		if fn == nil {
			continue
		}
		partial, err := fn(j.Context(), in.Flags)
		first = maskOrSurface(j.Kind(), first, err, p.Name)
		if partial != nil {
			result.AddAll(partial)
		}
	}
	return result, "", first
}

func (l *Loader) dispatchManageRepository(j *job.Job) (*app.List, string, error) {
	in, ok := j.Input.(job.ManageRepositoryInput)
	if !ok {
		return nil, "", catalogerr.Unsupported("manage_repository: wrong input type")
	}
	if in.Action == plugin.RepositoryInstall && l.blockedForInstall() {
		if err := l.queueInstall(in.Repo, "manage-repository-install"); err != nil {
			return nil, "", catalogerr.Normalize(err)
		}
		return nil, "", nil
	}
	owner := in.Repo.ManagementPlugin()
	for _, p := range l.enabledPlugins() {
		if owner != "" && p.Name != owner {
			continue
		}
		fn := p.VTable.ManageRepository
		if fn == nil {
			continue
		}
		err := fn(j.Context(), in.Repo, in.Action, 0)
		if err != nil {
			return nil, "", catalogerr.Normalize(err)
		}
		if owner != "" {
			break
		}
	}
	return nil, "", nil
}

func (l *Loader) dispatchUpdateApps(j *job.Job) (*app.List, string, error) {
	in, ok := j.Input.(job.UpdateAppsInput)
	if !ok {
		return nil, "", catalogerr.Unsupported("update_apps: wrong input type")
	}
	var first error
	for _, p := range l.enabledPlugins() {
		fn := p.VTable.UpdateApps
		if fn == nil {
			continue
		}
		progress := func(a *app.App, percent int) { a.SetProgress(percent) }
		first = maskOrSurface(j.Kind(), first, fn(j.Context(), in.List, in.Flags, progress, nil), p.Name)
	}
	return in.List, "", first
}

func (l *Loader) dispatchAppListOp(j *job.Job, pick func(plugin.VTable) func(context.Context, *app.List, plugin.RefineFlag, plugin.ProgressFunc) error) (*app.List, string, error) {
	in, ok := j.Input.(job.AppListInput)
	if !ok {
		return nil, "", catalogerr.Unsupported("app-list op: wrong input type")
	}
	if j.Kind() == job.KindInstallApps && l.blockedForInstall() {
		log := logging.GetLogger("loader")
		for _, a := range in.List.Items() {
			if err := l.queueInstall(a, "install"); err != nil {
				log.Warn().Err(err).Str("app", a.UniqueID()).Msg("failed to queue install for later")
			}
		}
		return in.List, "", nil
	}
	var first error
	for _, p := range l.enabledPlugins() {
		fn := pick(p.VTable)
		if fn == nil {
			continue
		}
		progress := func(a *app.App, percent int) { a.SetProgress(percent) }
		err := fn(j.Context(), in.List, in.Flags, progress)
		if err != nil {
			first = err
		}
	}
	return in.List, "", first
}

func (l *Loader) dispatchSingleAppOp(j *job.Job) (*app.List, string, error) {
	in, ok := j.Input.(job.SingleAppInput)
	if !ok {
		return nil, "", catalogerr.Unsupported("single-app op: wrong input type")
	}
	if j.Kind() == job.KindInstall && l.blockedForInstall() {
		if err := l.queueInstall(in.App, "install"); err != nil {
			return nil, "", catalogerr.Normalize(err)
		}
		return nil, "", nil
	}
	owner := in.App.ManagementPlugin()
	progress := func(a *app.App, percent int) { a.SetProgress(percent) }
	for _, p := range l.enabledPlugins() {
		if owner != "" && p.Name != owner {
			continue
		}
		var err error
		switch j.Kind() {
		case job.KindInstall:
			if fn := p.VTable.InstallApps; fn != nil {
				single := app.NewList()
				single.Add(in.App)
				err = fn(j.Context(), single, in.Flags, progress)
			}
		case job.KindRemove:
			if fn := p.VTable.RemoveApps; fn != nil {
				single := app.NewList()
				single.Add(in.App)
				err = fn(j.Context(), single, in.Flags, progress)
			}
		case job.KindUpgradeDownload:
			if fn := p.VTable.UpgradeDownload; fn != nil {
				err = fn(j.Context(), in.App, progress)
			}
		case job.KindUpgradeTrigger:
			if fn := p.VTable.UpgradeTrigger; fn != nil {
				err = fn(j.Context(), in.App)
			}
		case job.KindLaunch:
			if fn := p.VTable.Launch; fn != nil {
				err = fn(j.Context(), in.App)
			}
		case job.KindUpdateCancel:
			in.App.Cancellable().Cancel()
		}
		if err != nil {
			return nil, "", catalogerr.Normalize(err)
		}
		if owner != "" {
			break
		}
	}
	return nil, "", nil
}

func (l *Loader) dispatchFileToApp(j *job.Job) (*app.List, string, error) {
	in, ok := j.Input.(job.FileToAppInput)
	if !ok {
		return nil, "", catalogerr.Unsupported("file_to_app: wrong input type")
	}
	result := app.NewList()
	for _, p := range l.enabledPlugins() {
		fn := p.VTable.FileToApp
		if fn == nil {
			continue
		}
		a, err := fn(j.Context(), in.Path)
		if err != nil {
			return nil, "", catalogerr.Normalize(err)
		}
		if a != nil {
			result.Add(a)
		}
	}
	return result, "", nil
}

func (l *Loader) dispatchURLToApp(j *job.Job) (*app.List, string, error) {
	in, ok := j.Input.(job.URLToAppInput)
	if !ok {
		return nil, "", catalogerr.Unsupported("url_to_app: wrong input type")
	}
	result := app.NewList()
	for _, p := range l.enabledPlugins() {
		fn := p.VTable.URLToApp
		if fn == nil {
			continue
		}
		a, err := fn(j.Context(), in.URL)
		if err != nil {
			return nil, "", catalogerr.Normalize(err)
		}
		if a != nil {
			result.Add(a)
		}
	}
	return result, "", nil
}

func (l *Loader) dispatchOfflineState(j *job.Job) (*app.List, string, error) {
	for _, p := range l.enabledPlugins() {
		fn := p.VTable.GetOfflineUpdateState
		if fn == nil {
			continue
		}
		state, err := fn(j.Context())
		if err != nil {
			return nil, "", catalogerr.Normalize(err)
		}
		if state != "" {
			return nil, state, nil
		}
	}
	return nil, "", nil
}

func (l *Loader) dispatchOfflineVoid(j *job.Job, pick func(plugin.VTable) func(context.Context) error) (*app.List, string, error) {
	for _, p := range l.enabledPlugins() {
		fn := pick(p.VTable)
		if fn == nil {
			continue
		}
		if err := fn(j.Context()); err != nil {
			return nil, "", catalogerr.Normalize(err)
		}
	}
	return nil, "", nil
}

func (l *Loader) dispatchSetOfflineAction(j *job.Job) (*app.List, string, error) {
	in, ok := j.Input.(job.SetOfflineUpdateActionInput)
	if !ok {
		return nil, "", catalogerr.Unsupported("set_offline_update_action: wrong input type")
	}
	for _, p := range l.enabledPlugins() {
		fn := p.VTable.SetOfflineUpdateAction
		if fn == nil {
			continue
		}
		if err := fn(j.Context(), in.Action); err != nil {
			return nil, "", catalogerr.Normalize(err)
		}
	}
	return nil, "", nil
}
