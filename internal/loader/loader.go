package loader

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/software-center/catalog/internal/app"
	"github.com/software-center/catalog/internal/events"
	"github.com/software-center/catalog/internal/job"
	"github.com/software-center/catalog/internal/jobmanager"
	"github.com/software-center/catalog/internal/logging"
	"github.com/software-center/catalog/internal/plugin"
	"github.com/software-center/catalog/internal/queue"
)

// Loader is the central orchestrator: it owns the ordered plugin set, the
// Job Manager index, the loader-wide event bus, and the bounded pool used
// for install/upgrade-download jobs (spec.md §4.4).
type Loader struct {
	mu      sync.RWMutex
	plugins []*plugin.Plugin

	jobs *jobmanager.Manager
	bus  *events.Bus

	ctx    context.Context
	cancel context.CancelFunc

	ready     chan struct{}
	readyOnce sync.Once

	boundedPool *semaphore.Weighted

	// cron is the single shared scheduler every plugin's Scheduler wraps,
	// so N plugins scheduling periodic refresh work cost one background
	// goroutine, not N (see internal/plugin/scheduler.go).
	cron *cron.Cron

	debounce *debouncer

	failHard bool

	queue          *queue.Queue
	networkBlocked func() bool // true when the network is unavailable or metered

	queueMu      sync.Mutex
	queuedApps   map[string]*app.App // unique_id -> App, for entries queued this process or resolved at Setup
	wasBlocked   bool
	flushRunning bool

	handlersMu sync.RWMutex
	h          handlers
}

// SetQueue attaches the Pending-Install Queue an Install job falls back to
// when the network is blocked (spec.md §4.6).
func (l *Loader) SetQueue(q *queue.Queue, networkBlocked func() bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queue = q
	l.networkBlocked = networkBlocked
	if l.queuedApps == nil {
		l.queuedApps = make(map[string]*app.App)
	}
	if networkBlocked != nil {
		l.wasBlocked = networkBlocked()
	}
}

// queueInstall transitions a to StateQueuedForInstall, persists it on the
// pending queue and records the live App object so a later flush doesn't
// need to re-resolve it from its unique_id (spec.md §4.6 step "populated by
// Install jobs when the network is unavailable or metered").
func (l *Loader) queueInstall(a *app.App, kind string) error {
	if err := a.SetState(app.StateQueuedForInstall); err != nil {
		return err
	}
	l.mu.RLock()
	q := l.queue
	l.mu.RUnlock()
	if q == nil {
		return nil
	}
	l.queueMu.Lock()
	if l.queuedApps == nil {
		l.queuedApps = make(map[string]*app.App)
	}
	l.queuedApps[a.UniqueID()] = a
	l.queueMu.Unlock()
	return q.Add(a.UniqueID(), kind)
}

// blockedForInstall reports whether an Install should be diverted to the
// pending queue instead of dispatched to plugins right now.
func (l *Loader) blockedForInstall() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.networkBlocked != nil && l.networkBlocked()
}

// NetworkChanged notifies the loader of the network/metered state the way
// an external network-monitor collaborator would (spec.md §3.6 "network-
// monitor" plugin attribute; §4.6 "auto-flushed on network changes"). When
// the network transitions from blocked to available+unmetered, it triggers
// FlushQueue in the background.
func (l *Loader) NetworkChanged(blocked bool) {
	l.mu.Lock()
	wasBlocked := l.wasBlocked
	l.wasBlocked = blocked
	q := l.queue
	l.mu.Unlock()

	if !wasBlocked || blocked || q == nil {
		return
	}

	l.queueMu.Lock()
	if l.flushRunning {
		l.queueMu.Unlock()
		return
	}
	l.flushRunning = true
	l.queueMu.Unlock()

	go func() {
		defer func() {
			l.queueMu.Lock()
			l.flushRunning = false
			l.queueMu.Unlock()
		}()
		l.FlushQueue(l.ctx, q, l.resolveQueuedApp)
	}()
}

// resolveQueuedApp looks up the live App object for a pending-queue entry,
// populated either by queueInstall (this process queued it) or by the
// Setup-time refine pass over entries read back from disk.
func (l *Loader) resolveQueuedApp(uniqueID string) *app.App {
	l.queueMu.Lock()
	defer l.queueMu.Unlock()
	return l.queuedApps[uniqueID]
}

// Config carries the handful of loader-construction knobs spec.md §4.4/§6
// names explicitly.
type Config struct {
	// BoundedPoolSize overrides max(1, round(total_ram_MB/1024)); 0 means
	// compute from RAMTotalMB.
	BoundedPoolSize int
	RAMTotalMB      int
	// BoundedPoolMax caps BoundedPoolSize when computed from RAM.
	BoundedPoolMax int
	FailHard       bool
}

func (c Config) poolSize() int {
	if c.BoundedPoolSize > 0 {
		return c.BoundedPoolSize
	}
	size := (c.RAMTotalMB + 512) / 1024
	if size < 1 {
		size = 1
	}
	if c.BoundedPoolMax > 0 && size > c.BoundedPoolMax {
		size = c.BoundedPoolMax
	}
	return size
}

// New constructs a Loader over an unordered plugin set, running discovery
// ordering immediately (spec.md §4.4). The returned Loader is not ready for
// job dispatch until Setup completes.
func New(parent context.Context, plugins []*plugin.Plugin, cfg Config) (*Loader, error) {
	ordered, err := OrderPlugins(plugins)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(parent)
	l := &Loader{
		plugins:     ordered,
		jobs:        jobmanager.New(),
		bus:         events.New(cfg.FailHard),
		ctx:         ctx,
		cancel:      cancel,
		ready:       make(chan struct{}),
		boundedPool: semaphore.NewWeighted(int64(cfg.poolSize())),
		cron:        cron.New(),
		failHard:    cfg.FailHard,
	}
	l.debounce = newDebouncer(l)
	for _, p := range l.plugins {
		p.Scheduler = plugin.NewScheduler(l.cron, p.Name)
	}
	l.wireSignals()
	return l, nil
}

// Plugins returns the ordered, enabled-or-not plugin set.
func (l *Loader) Plugins() []*plugin.Plugin {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*plugin.Plugin, len(l.plugins))
	copy(out, l.plugins)
	return out
}

// enabledPlugins returns only the currently enabled plugins, in order.
func (l *Loader) enabledPlugins() []*plugin.Plugin {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*plugin.Plugin, 0, len(l.plugins))
	for _, p := range l.plugins {
		if p.Enabled() {
			out = append(out, p)
		}
	}
	return out
}

// Events is the loader-wide event bus every job's per-job bus fans into.
func (l *Loader) Events() *events.Bus { return l.bus }

// JobManager returns the loader's Job Manager index.
func (l *Loader) JobManager() *jobmanager.Manager { return l.jobs }

// Context is the loader-wide cancellation context; Shutdown cancels it.
func (l *Loader) Context() context.Context { return l.ctx }

// Setup runs every enabled plugin's Setup slot in parallel, disabling any
// plugin whose setup fails, then marks the loader ready and broadcasts
// setup-complete to unblock any job calls that arrived during setup
// (spec.md §4.4 "Setup and shutdown").
func (l *Loader) Setup(ctx context.Context) {
	log := logging.GetLogger("loader")
	l.cron.Start()
	var g errgroup.Group
	for _, p := range l.enabledPlugins() {
		p.BeginSetup()
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Str("plugin", p.Name).Msg("plugin setup panicked")
					p.SetupFailed()
				}
			}()
			var err error
			if fn := p.VTable.Setup; fn != nil {
				err = fn(ctx)
			}
			if err != nil {
				log.Warn().Err(err).Str("plugin", p.Name).Msg("plugin setup failed, disabling")
				p.SetupFailed()
				return nil
			}
			p.SetupSucceeded()
			return nil
		})
	}
	g.Wait()
	l.readyOnce.Do(func() { close(l.ready) })
	l.resolvePendingQueue(ctx)
}

// resolvePendingQueue builds a wildcard App for every pending-queue entry
// not already tracked in-process (i.e. read back from disk across a
// restart) and schedules a Refine job over them with require flags id +
// origin, filtering disabled (spec.md §4.4 "loads the persisted install
// queue and schedules a refine for it").
func (l *Loader) resolvePendingQueue(ctx context.Context) {
	log := logging.GetLogger("loader")
	l.mu.RLock()
	q := l.queue
	l.mu.RUnlock()
	if q == nil {
		return
	}

	list := app.NewList()
	for _, e := range q.Snapshot() {
		if a := l.resolveQueuedApp(e.UniqueID); a != nil {
			continue
		}
		a := app.New("")
		if err := a.SetFromUniqueID(e.UniqueID); err != nil {
			continue
		}
		// A freshly built App starts in StateUnknown, and unknown ->
		// queued-for-install isn't a legal transition (spec.md §3.2); go
		// through StateAvailable first, the same path a live Install job
		// takes before diverting into the queue.
		if err := a.SetState(app.StateAvailable); err != nil {
			log.Warn().Err(err).Str("unique_id", e.UniqueID).Msg("failed to restore queued app state")
			continue
		}
		if err := a.SetState(app.StateQueuedForInstall); err != nil {
			log.Warn().Err(err).Str("unique_id", e.UniqueID).Msg("failed to restore queued app state")
			continue
		}
		l.queueMu.Lock()
		if l.queuedApps == nil {
			l.queuedApps = make(map[string]*app.App)
		}
		l.queuedApps[e.UniqueID] = a
		l.queueMu.Unlock()
		list.Add(a)
	}
	if list.Len() == 0 {
		return
	}

	j := job.New(ctx, job.KindRefine, job.RefineInput{
		List:  list,
		Flags: plugin.RequireID | plugin.RequireOrigin | plugin.DisableFiltering,
	}, l.failHard)
	go l.Dispatch(ctx, j)
}

// WaitReady blocks until Setup has completed (spec.md §4.4 step 1 "if setup
// is not complete, block the job on the setup broadcast").
func (l *Loader) WaitReady(ctx context.Context) error {
	select {
	case <-l.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown cancels the loader-wide token and awaits each enabled plugin's
// Shutdown slot (spec.md §4.4 "Shutdown cancels the loader-wide token and
// awaits each plugin's shutdown_async").
func (l *Loader) Shutdown(ctx context.Context) {
	l.cancel()
	log := logging.GetLogger("loader")
	var g errgroup.Group
	for _, p := range l.enabledPlugins() {
		p.BeginShutdown()
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Str("plugin", p.Name).Msg("plugin shutdown panicked")
				}
			}()
			if p.Scheduler != nil {
				p.Scheduler.RemoveAll()
			}
			if fn := p.VTable.Shutdown; fn != nil {
				if err := fn(ctx); err != nil {
					log.Warn().Err(err).Str("plugin", p.Name).Msg("plugin shutdown returned error")
				}
			}
			p.ShutdownComplete()
			return nil
		})
	}
	g.Wait()
	<-l.cron.Stop().Done()
}

// acquireBounded blocks until a bounded-pool slot is free or ctx is done
// (spec.md §4.4 "bounded thread pool" for Install/Upgrade-download jobs).
func (l *Loader) acquireBounded(ctx context.Context) error {
	return l.boundedPool.Acquire(ctx, 1)
}

func (l *Loader) releaseBounded() { l.boundedPool.Release(1) }

// debouncer coalesces updates-changed/reload signal bursts per spec.md
// §4.4 "Updates-changed debouncing".
type debouncer struct {
	l *Loader

	mu             sync.Mutex
	activeJobs     int
	updatesPending bool
	updatesTimer   *time.Timer
	reloadTimer    *time.Timer

	OnUpdatesChanged func()
	OnReload         func()
}

func newDebouncer(l *Loader) *debouncer { return &debouncer{l: l} }

// JobStarted/JobFinished track whether any job is active, since
// updates-changed is suppressed entirely while one runs.
func (d *debouncer) JobStarted() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.activeJobs++
}

func (d *debouncer) JobFinished() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.activeJobs > 0 {
		d.activeJobs--
	}
}

// UpdatesChanged implements the ~3s coalescing window, suppressed while any
// job is active.
func (d *debouncer) UpdatesChanged() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.activeJobs > 0 {
		d.updatesPending = true
		return
	}
	if d.updatesTimer != nil {
		d.updatesPending = true
		return
	}
	d.fireUpdatesLocked()
}

func (d *debouncer) fireUpdatesLocked() {
	if d.OnUpdatesChanged != nil {
		go d.OnUpdatesChanged()
	}
	d.updatesTimer = time.AfterFunc(3*time.Second, func() {
		d.mu.Lock()
		pending := d.updatesPending
		d.updatesPending = false
		d.updatesTimer = nil
		d.mu.Unlock()
		if pending {
			d.UpdatesChanged()
		}
	})
}

// Reload implements the ~5s debounce window: OnReload fires at most once per
// burst. Plugins are not notified: VTable has no reload slot, and the loop
// below calls each plugin's Signals.Reload, which wireSignals points back at
// this method, so those calls return early inside the window.
func (d *debouncer) Reload() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.reloadTimer != nil {
		return
	}
	if d.OnReload != nil {
		go d.OnReload()
	}
	for _, p := range d.l.enabledPlugins() {
		if p.Signals.Reload != nil {
			go p.Signals.Reload()
		}
	}
	d.reloadTimer = time.AfterFunc(5*time.Second, func() {
		d.mu.Lock()
		d.reloadTimer = nil
		d.mu.Unlock()
	})
}
