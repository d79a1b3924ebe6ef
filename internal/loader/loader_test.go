package loader

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/software-center/catalog/internal/app"
	"github.com/software-center/catalog/internal/catalogerr"
	"github.com/software-center/catalog/internal/events"
	"github.com/software-center/catalog/internal/job"
	"github.com/software-center/catalog/internal/plugin"
	"github.com/software-center/catalog/internal/query"
	"github.com/software-center/catalog/internal/queue"
)

func newTestLoader(t *testing.T, plugins []*plugin.Plugin) *Loader {
	t.Helper()
	l, err := New(context.Background(), plugins, Config{BoundedPoolSize: 2})
	require.NoError(t, err)
	return l
}

func TestDispatchListAppsAggregatesAcrossPlugins(t *testing.T) {
	p1 := plugin.New("stub-a")
	p1.VTable.ListApps = func(ctx context.Context, q query.AppQuery) (*app.List, error) {
		list := app.NewList()
		list.Add(app.New("org.ex.A"))
		return list, nil
	}
	p2 := plugin.New("stub-b")
	p2.VTable.ListApps = func(ctx context.Context, q query.AppQuery) (*app.List, error) {
		list := app.NewList()
		list.Add(app.New("org.ex.B"))
		return list, nil
	}

	l := newTestLoader(t, []*plugin.Plugin{p1, p2})
	l.Setup(context.Background())
	defer l.Shutdown(context.Background())

	j := job.New(context.Background(), job.KindListApps, job.ListAppsInput{Query: query.AppQuery{}}, false)
	go l.Dispatch(context.Background(), j)

	list, _, err := j.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, list.Len())
}

// FilterDuplicates' "higher-priority plugin wins" merge rule (spec.md
// §3.3) must actually discriminate by the producing plugin's dispatch
// priority, not collapse every candidate to the same rank.
func TestDispatchListAppsDedupePrefersHigherPriorityPlugin(t *testing.T) {
	uid := "system/package/origin/org.ex.A/stable"

	low := plugin.New("low-priority")
	low.SetPriority(10)
	lowApp := app.New("org.ex.A")
	lowApp.SetUniqueID(uid)
	lowApp.SetVersion("2.0")
	low.VTable.ListApps = func(ctx context.Context, q query.AppQuery) (*app.List, error) {
		list := app.NewList()
		list.Add(lowApp)
		return list, nil
	}

	high := plugin.New("high-priority")
	high.SetPriority(20)
	highApp := app.New("org.ex.A")
	highApp.SetUniqueID(uid)
	highApp.SetVersion("1.0")
	high.VTable.ListApps = func(ctx context.Context, q query.AppQuery) (*app.List, error) {
		list := app.NewList()
		list.Add(highApp)
		return list, nil
	}

	l := newTestLoader(t, []*plugin.Plugin{low, high})
	l.Setup(context.Background())
	defer l.Shutdown(context.Background())

	j := job.New(context.Background(), job.KindListApps, job.ListAppsInput{
		Query: query.AppQuery{DedupeFlags: app.DedupeByPriority},
	}, false)
	go l.Dispatch(context.Background(), j)

	list, _, err := j.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, list.Len())
	assert.Same(t, highApp, list.Items()[0], "the higher-priority plugin's App should win the dedupe merge")
}

func TestDispatchBlocksOnSetupBeforeDispatch(t *testing.T) {
	p := plugin.New("stub-slow")
	setupStarted := make(chan struct{})
	p.VTable.Setup = func(ctx context.Context) error {
		close(setupStarted)
		time.Sleep(20 * time.Millisecond)
		return nil
	}
	p.VTable.ListApps = func(ctx context.Context, q query.AppQuery) (*app.List, error) {
		return app.NewList(), nil
	}

	l := newTestLoader(t, []*plugin.Plugin{p})
	go l.Setup(context.Background())
	<-setupStarted

	j := job.New(context.Background(), job.KindListApps, job.ListAppsInput{Query: query.AppQuery{}}, false)
	go l.Dispatch(context.Background(), j)

	_, _, err := j.Wait(context.Background())
	require.NoError(t, err)
	l.Shutdown(context.Background())
}

func TestDispatchInstallUsesBoundedPool(t *testing.T) {
	p := plugin.New("stub-install")
	installed := make(chan struct{}, 1)
	p.VTable.InstallApps = func(ctx context.Context, list *app.List, flags plugin.RefineFlag, onProgress plugin.ProgressFunc) error {
		installed <- struct{}{}
		return nil
	}

	l := newTestLoader(t, []*plugin.Plugin{p})
	l.Setup(context.Background())
	defer l.Shutdown(context.Background())

	a := app.New("org.ex.Installable")
	a.SetUniqueID("system/package/origin/org.ex.Installable/stable")
	j := job.New(context.Background(), job.KindInstall, job.SingleAppInput{App: a}, false)
	go l.Dispatch(context.Background(), j)

	select {
	case <-installed:
	case <-time.After(time.Second):
		t.Fatal("install vtable slot was never invoked")
	}
	_, _, err := j.Wait(context.Background())
	require.NoError(t, err)
}

func TestShutdownCancelsLoaderContext(t *testing.T) {
	p := plugin.New("stub-shutdown")
	l := newTestLoader(t, []*plugin.Plugin{p})
	l.Setup(context.Background())
	l.Shutdown(context.Background())

	select {
	case <-l.Context().Done():
	default:
		t.Fatal("loader context should be cancelled after Shutdown")
	}
}

// TestInstallQueuesWhenNetworkBlockedThenFlushesOnNetworkChanged covers
// spec.md §8 scenario S7: Install while the network is blocked queues
// instead of installing, and the app is re-dispatched once NetworkChanged
// reports the network is available again.
func TestInstallQueuesWhenNetworkBlockedThenFlushesOnNetworkChanged(t *testing.T) {
	var installed atomic.Int32
	p := plugin.New("stub-install")
	p.VTable.InstallApps = func(ctx context.Context, list *app.List, flags plugin.RefineFlag, onProgress plugin.ProgressFunc) error {
		installed.Add(1)
		for _, a := range list.Items() {
			_ = a.SetState(app.StateInstalling)
			_ = a.SetState(app.StateInstalled)
		}
		return nil
	}

	l := newTestLoader(t, []*plugin.Plugin{p})
	l.Setup(context.Background())
	defer l.Shutdown(context.Background())

	q := queue.New(t.TempDir() + "/install-queue")
	require.NoError(t, q.Load())

	var blocked atomic.Bool
	blocked.Store(true)
	l.SetQueue(q, blocked.Load)

	a := app.New("org.ex.Installable")
	a.SetUniqueID("system/package/origin/org.ex.Installable/stable")
	a.SetManagementPlugin("stub-install")
	require.NoError(t, a.SetState(app.StateAvailable))

	j := job.New(context.Background(), job.KindInstall, job.SingleAppInput{App: a}, false)
	go l.Dispatch(context.Background(), j)
	_, _, err := j.Wait(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(0), installed.Load(), "InstallApps must not be invoked while blocked")
	assert.Equal(t, app.StateQueuedForInstall, a.State())
	assert.Equal(t, 1, q.Len())

	blocked.Store(false)
	l.NetworkChanged(false)

	require.Eventually(t, func() bool {
		return installed.Load() == 1
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		return q.Len() == 0
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, app.StateInstalled, a.State())
}

// TestAllowUpdatesIsIntersectionAcrossPluginVotes covers SPEC_FULL.md
// §5.1's disallow_updates-table behavior: AllowUpdates is false as soon as
// any plugin has ever voted false, and recovers once that plugin votes
// true again.
func TestAllowUpdatesIsIntersectionAcrossPluginVotes(t *testing.T) {
	p1 := plugin.New("stub-a")
	p2 := plugin.New("stub-b")
	l := newTestLoader(t, []*plugin.Plugin{p1, p2})

	assert.True(t, l.AllowUpdates(), "no votes cast yet should default to allowed")

	p1.Signals.AllowUpdates(true)
	p2.Signals.AllowUpdates(false)
	assert.False(t, l.AllowUpdates())

	p2.Signals.AllowUpdates(true)
	assert.True(t, l.AllowUpdates())
}

// TestPluginReportEventReachesLoaderBus covers spec.md §4.3's
// report-event signal: a plugin calling its own Signals.ReportEvent must
// surface on the loader-wide event bus.
func TestPluginReportEventReachesLoaderBus(t *testing.T) {
	p := plugin.New("stub-a")
	l := newTestLoader(t, []*plugin.Plugin{p})

	ev := events.NewEvent(catalogerr.GenericFailure("something went wrong")).WithPlugin(p.Name)
	p.Signals.ReportEvent(ev)

	_, ok := l.Events().Default()
	assert.True(t, ok)
}

func TestAdoptPassClaimsUnmanagedApps(t *testing.T) {
	p := plugin.New("stub-adopter")
	p.VTable.ListApps = func(ctx context.Context, q query.AppQuery) (*app.List, error) {
		list := app.NewList()
		list.Add(app.New("org.ex.A"))
		return list, nil
	}
	p.VTable.AdoptApp = func(a *app.App) bool { return true }

	l := newTestLoader(t, []*plugin.Plugin{p})
	l.Setup(context.Background())
	defer l.Shutdown(context.Background())

	j := job.New(context.Background(), job.KindListApps, job.ListAppsInput{Query: query.AppQuery{}}, false)
	go l.Dispatch(context.Background(), j)

	list, _, err := j.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, list.Len())
	assert.Equal(t, "stub-adopter", list.Index(0).ManagementPlugin())
}
