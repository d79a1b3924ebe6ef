// Package plugin implements the backend-abstraction Plugin type (spec.md
// §3.6, §4.3): the vtable a loaded backend exposes, its per-instance App
// cache, its dependency-ordering rules, and the lifecycle state machine
// the loader drives it through. Grounded on the teacher's
// LoadedPlugin/PluginHandler/PluginContext trio in internal/plugins, with
// the synchronous REST/UI/DB registries dropped (this core has no HTTP
// surface of its own) and the lifecycle narrowed to the catalog's
// constructed→ready→disposed states.
package plugin

import (
	"sync"
	"sync/atomic"

	"github.com/software-center/catalog/internal/events"
)

// LifecycleState is a Plugin's position in its own lifecycle (spec.md §3.6).
type LifecycleState int

const (
	Constructed LifecycleState = iota
	SettingUp
	Ready
	Disabled
	ShuttingDown
	Disposed
)

// AskUntrustedFunc prompts the UI layer for an untrusted-source confirmation.
type AskUntrustedFunc func(title, message, details, acceptLabel string) bool

// BasicAuthStartFunc starts an interactive basic-auth exchange with remote.
type BasicAuthStartFunc func(remote, realm string, cb func(user, pass string))

// Signals bundles the callbacks a Plugin uses to notify its owning loader
// (spec.md §4.3). The loader installs these when it registers the plugin;
// a Plugin with no loader attached (e.g. under test) leaves them nil, and
// calling a nil signal panics.
type Signals struct {
	UpdatesChanged    func()
	Reload            func()
	StatusChanged     func(appUniqueID, status string)
	ReportEvent       func(ev *events.Event)
	AllowUpdates      func(allowed bool)
	BasicAuthStart    BasicAuthStartFunc
	RepositoryChanged func(appUniqueID string)
	AskUntrusted      AskUntrustedFunc
}

// Plugin is a loaded backend: its identity, ordering metadata, vtable, App
// cache, and rule set (spec.md §3.6).
type Plugin struct {
	Name        string
	AppstreamID string

	VTable    VTable
	Rules     Rules
	Cache     *Cache
	Scheduler *Scheduler

	Language string
	Scale    int

	Signals Signals

	mu       sync.RWMutex
	enabled  bool
	order    int
	priority int
	state    LifecycleState

	interactive atomic.Int32
}

// New returns a freshly constructed, enabled-by-default Plugin.
func New(name string) *Plugin {
	return &Plugin{
		Name:    name,
		Cache:   NewCache(),
		enabled: true,
		state:   Constructed,
	}
}

func (p *Plugin) Enabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.enabled
}

// Disable marks the plugin disabled, e.g. after a failed setup or a
// conflicts(Q) rule firing against it (spec.md §4.4).
func (p *Plugin) Disable() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = false
}

func (p *Plugin) Order() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.order
}

func (p *Plugin) SetOrder(o int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.order = o
}

func (p *Plugin) Priority() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.priority
}

func (p *Plugin) SetPriority(pr int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.priority = pr
}

func (p *Plugin) State() LifecycleState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

func (p *Plugin) setState(s LifecycleState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s
}

// BeginSetup transitions Constructed -> SettingUp, called by the loader
// just before invoking VTable.Setup.
func (p *Plugin) BeginSetup() { p.setState(SettingUp) }

// SetupSucceeded transitions SettingUp -> Ready.
func (p *Plugin) SetupSucceeded() { p.setState(Ready) }

// SetupFailed transitions SettingUp -> Disabled and disables the plugin,
// per the loader's "setup failure disables and continues" policy
// (spec.md §4.3).
func (p *Plugin) SetupFailed() {
	p.setState(Disabled)
	p.Disable()
}

// BeginShutdown transitions Ready -> ShuttingDown.
func (p *Plugin) BeginShutdown() { p.setState(ShuttingDown) }

// ShutdownComplete transitions ShuttingDown -> Disposed.
func (p *Plugin) ShutdownComplete() { p.setState(Disposed) }

// InteractiveInc increments the "user is watching" counter; plugins that
// care about UI-visible latency budgets may consult InteractiveCount.
func (p *Plugin) InteractiveInc() { p.interactive.Add(1) }

// InteractiveDec decrements the counter.
func (p *Plugin) InteractiveDec() { p.interactive.Add(-1) }

// InteractiveCount reports how many interactive jobs are currently running
// against this plugin.
func (p *Plugin) InteractiveCount() int32 { return p.interactive.Load() }

// HasSlot reports whether the named vtable function pointer is non-nil,
// the "vtable probe" used throughout the loader (spec.md §4.3, §4.4).
func (p *Plugin) HasSlot(probe func(VTable) bool) bool {
	return probe(p.VTable)
}
