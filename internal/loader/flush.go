package loader

import (
	"context"

	"github.com/software-center/catalog/internal/app"
	"github.com/software-center/catalog/internal/job"
	"github.com/software-center/catalog/internal/logging"
	"github.com/software-center/catalog/internal/plugin"
	"github.com/software-center/catalog/internal/queue"
)

// FlushQueue runs the pending-install queue's network-recovery sequence
// (spec.md §4.6): snapshot, reset each App to available, dispatch an
// Install (or ManageRepository-install for repository entries)
// sequentially — respecting the bounded install pool via the ordinary
// Dispatch path — and on any failure, recover the App's state and drop it
// from the queue. Apps left in queued-for-install by a job are kept in the
// queue (the network blocker persists).
func (l *Loader) FlushQueue(ctx context.Context, q *queue.Queue, resolve func(uniqueID string) *app.App) {
	log := logging.GetLogger("loader")
	for _, entry := range q.Snapshot() {
		a := resolve(entry.UniqueID)
		if a == nil {
			// Nothing left to resolve it to; drop the stale entry.
			_ = q.Remove(entry.UniqueID)
			continue
		}
		_ = a.SetState(app.StateAvailable)

		var err error
		if entry.Kind == "manage-repository-install" {
			j := job.New(ctx, job.KindManageRepository, job.ManageRepositoryInput{
				Repo: a, Action: plugin.RepositoryInstall,
			}, l.failHard)
			l.Dispatch(ctx, j)
			_, _, err = j.Wait(ctx)
		} else {
			j := job.New(ctx, job.KindInstall, job.SingleAppInput{App: a}, l.failHard)
			l.Dispatch(ctx, j)
			_, _, err = j.Wait(ctx)
		}

		if err != nil {
			log.Warn().Err(err).Str("app", entry.UniqueID).Msg("queued install failed, recovering")
			a.SetStateRecover()
			_ = q.Remove(entry.UniqueID)
			continue
		}
		if a.State() != app.StateQueuedForInstall {
			_ = q.Remove(entry.UniqueID)
		}
	}
}
