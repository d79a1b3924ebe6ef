package loader

import (
	"github.com/software-center/catalog/internal/app"
	"github.com/software-center/catalog/internal/job"
	"github.com/software-center/catalog/internal/plugin"
)

// postProcess applies spec.md §4.4 step 6 to a job's aggregated result
// list: the adopt-app pass, then icon fallback and a follow-up refine for
// file/url-to-app results, or a follow-up refine for list-apps jobs whose
// query sets RefineRequireFlags. A url_to_app job over a file:// URL that
// produced nothing is not retried as file_to_app, and file/url-to-app
// results are not checked for being exactly one App.
func (l *Loader) postProcess(j *job.Job, list *app.List) *app.List {
	l.runAdoptPass(list)

	switch j.Kind() {
	case job.KindFileToApp, job.KindURLToApp:
		l.ensureFallbackIcons(list)
		l.runFollowUpRefine(j, list, plugin.RequireIcon)
	case job.KindRefine:
		// already the refine itself; nothing further to chase.
	case job.KindListApps, job.KindListDistroUpgrades:
		if in, ok := j.Input.(job.ListAppsInput); ok && in.Query.RefineRequireFlags != 0 {
			l.runFollowUpRefine(j, list, plugin.RefineFlag(in.Query.RefineRequireFlags))
		}
	}
	return list
}

// runFollowUpRefine dispatches a nested Refine job over list with
// DisableFiltering set, resolving any wildcard placeholders left by the
// original job (spec.md §4.4 "run a follow-up Refine job over the
// aggregated list").
func (l *Loader) runFollowUpRefine(parent *job.Job, list *app.List, flags plugin.RefineFlag) {
	if list == nil || list.Len() == 0 {
		return
	}
	refineJob := job.New(parent.Context(), job.KindRefine, job.RefineInput{
		List:  list,
		Flags: flags.Add(plugin.DisableFiltering),
	}, l.failHard)
	l.Dispatch(parent.Context(), refineJob)
	refineJob.Wait(parent.Context())
}

// ensureFallbackIcons attaches a themed fallback icon to any App in list
// that has none, matching spec.md §4.4's file_to_app/url_to_app icon
// fallback step.
func (l *Loader) ensureFallbackIcons(list *app.List) {
	if list == nil {
		return
	}
	for _, a := range list.Items() {
		if !a.HasIcons() {
			a.AddIcon(app.Icon{Kind: app.IconThemed, Name: "application-x-executable", Size: 64, Scale: 1})
		}
	}
}

// runAdoptPass gives every enabled plugin, in order, a chance to claim
// management of any non-wildcard App in list with no management_plugin yet
// (spec.md §4.4 "Adopt pass"). The first plugin to claim wins.
func (l *Loader) runAdoptPass(list *app.List) {
	if list == nil {
		return
	}
	for _, a := range list.Items() {
		if a.HasQuirk(app.QuirkIsWildcard) || a.ManagementPlugin() != "" {
			continue
		}
		for _, p := range l.enabledPlugins() {
			fn := p.VTable.AdoptApp
			if fn == nil {
				continue
			}
			if fn(a) {
				a.SetManagementPlugin(p.Name)
				break
			}
		}
	}
}
