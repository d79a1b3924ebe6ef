package loader

import (
	"context"

	"github.com/software-center/catalog/internal/app"
	"github.com/software-center/catalog/internal/catalogerr"
	"github.com/software-center/catalog/internal/events"
	"github.com/software-center/catalog/internal/job"
	"github.com/software-center/catalog/internal/logging"
	"github.com/software-center/catalog/internal/plugin"
)

// Dispatch runs j to completion following spec.md §4.4's seven-step job
// dispatch policy: block on setup-complete, register with the Job
// Manager, pick a pool class, fan out to every enabled plugin's matching
// vtable slot in order, aggregate, post-process, deregister, and finish
// the job. The caller typically does `go loader.Dispatch(ctx, l, j)` and
// then `j.Wait(ctx)`.
func (l *Loader) Dispatch(ctx context.Context, j *job.Job) {
	log := logging.GetLogger("loader")
	j.Events().OnAdd(func(ev *events.Event) { l.bus.Add(ev) })

	if err := l.WaitReady(ctx); err != nil {
		j.Finish(nil, "", err)
		return
	}

	l.jobs.Register(j, referencedAppIDs(j))
	defer l.jobs.Deregister(j)

	bounded := j.Kind().Bounded()
	if bounded {
		if err := l.acquireBounded(j.Context()); err != nil {
			j.Finish(nil, "", err)
			return
		}
		defer l.releaseBounded()
	}

	l.debounce.JobStarted()
	defer l.debounce.JobFinished()

	if j.Kind().Interactive() {
		for _, p := range l.enabledPlugins() {
			p.InteractiveInc()
		}
		defer func() {
			for _, p := range l.enabledPlugins() {
				p.InteractiveDec()
			}
		}()
	}

	list, str, err := l.runKind(j)

	if j.Cancelled() && err == nil {
		err = catalogerr.New(catalogerr.Cancelled, "job cancelled")
	}

	if list != nil {
		list = l.postProcess(j, list)
	}

	log.Debug().Str("kind", string(j.Kind())).Str("job", j.ID()).Msg("job dispatch complete")
	j.Finish(list, str, err)
}

// referencedAppIDs extracts the unique_ids the Job Manager should index j
// under, from whichever input shape j carries.
func referencedAppIDs(j *job.Job) []string {
	switch in := j.Input.(type) {
	case job.SingleAppInput:
		return []string{in.App.UniqueID()}
	case job.AppListInput:
		return uniqueIDs(in.List)
	case job.UpdateAppsInput:
		return uniqueIDs(in.List)
	case job.RefineInput:
		return uniqueIDs(in.List)
	case job.ManageRepositoryInput:
		return []string{in.Repo.UniqueID()}
	default:
		return nil
	}
}

func uniqueIDs(list *app.List) []string {
	if list == nil {
		return nil
	}
	out := make([]string, 0, list.Len())
	for _, a := range list.Items() {
		if u := a.UniqueID(); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// maskOrSurface applies spec.md §7/§4.4 step 6's mask-vs-surface error
// policy: maskable kinds log-and-swallow a per-plugin error; everything
// else keeps the first non-cancelled error.
func maskOrSurface(kind job.Kind, first error, err error, pluginName string) error {
	if err == nil {
		return first
	}
	ce := catalogerr.Normalize(err)
	if catalogerr.IsKind(ce, catalogerr.Cancelled) {
		return first
	}
	if kind.Maskable() {
		logging.GetLogger("loader").Warn().Err(ce).Str("plugin", pluginName).Msg("plugin job error masked")
		return first
	}
	if first == nil {
		return ce
	}
	return first
}

// runKind fans j out to every enabled plugin's matching vtable slot, in
// plugin order, and aggregates the results (spec.md §4.4 steps 4-5).
func (l *Loader) runKind(j *job.Job) (*app.List, string, error) {
	switch j.Kind() {
	case job.KindRefine:
		return l.dispatchRefine(j)
	case job.KindListApps:
		return l.dispatchListApps(j)
	case job.KindRefreshMetadata:
		return l.dispatchRefreshMetadata(j)
	case job.KindListDistroUpgrades:
		return l.dispatchListDistroUpgrades(j)
	case job.KindManageRepository:
		return l.dispatchManageRepository(j)
	case job.KindUpdateApps:
		return l.dispatchUpdateApps(j)
	case job.KindInstallApps:
		return l.dispatchAppListOp(j, func(v plugin.VTable) func(context.Context, *app.List, plugin.RefineFlag, plugin.ProgressFunc) error {
			return v.InstallApps
		})
	case job.KindRemoveApps:
		return l.dispatchAppListOp(j, func(v plugin.VTable) func(context.Context, *app.List, plugin.RefineFlag, plugin.ProgressFunc) error {
			return v.RemoveApps
		})
	case job.KindInstall, job.KindRemove, job.KindUpgradeDownload, job.KindUpgradeTrigger, job.KindLaunch, job.KindUpdateCancel:
		return l.dispatchSingleAppOp(j)
	case job.KindFileToApp:
		return l.dispatchFileToApp(j)
	case job.KindURLToApp:
		return l.dispatchURLToApp(j)
	case job.KindGetOfflineUpdateState:
		return l.dispatchOfflineState(j)
	case job.KindCancelOfflineUpdate:
		return l.dispatchOfflineVoid(j, func(v plugin.VTable) func(context.Context) error { return v.CancelOfflineUpdate })
	case job.KindSetOfflineUpdateAction:
		return l.dispatchSetOfflineAction(j)
	default:
		return nil, "", catalogerr.Unsupported("unknown job kind " + string(j.Kind()))
	}
}
