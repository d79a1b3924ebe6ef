// Package app implements the App entity and AppList collection at the
// heart of the catalog (spec.md §3.1-§3.3). An App is mutated only by the
// plugin currently holding the job that owns it; read-only observers use
// copy-on-read snapshots for display fields and atomic reads for state and
// progress, mirroring the thread model the teacher's PluginInstance/Runtime
// pair uses for its own concurrently-read registries.
package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// Cancellable is a long-lived, replaceable cancellation handle for whatever
// operation is currently running against an App (spec.md §3.1).
type Cancellable struct {
	mu     sync.Mutex
	cancel context.CancelFunc
}

// Reset installs a fresh cancellation function, replacing (without calling)
// any previous one. The loader calls this at the start of a new operation
// against the App.
func (c *Cancellable) Reset(cancel context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancel = cancel
}

// Cancel invokes the current cancellation function, if any. Safe to call
// from any goroutine, any number of times.
func (c *Cancellable) Cancel() {
	c.mu.Lock()
	fn := c.cancel
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// App is the entity representing an installable or installed unit:
// application, addon, codec, font, repository, or firmware (spec.md §3.1).
//
// Fields that are read by concurrent observers while a job mutates the App
// (state, progress) use atomic storage. Everything else is protected by mu
// and must go through the accessor methods below; App is never safe to
// mutate through a raw field write from outside its owning plugin.
type App struct {
	mu sync.RWMutex

	id       string
	uniqueID string // immutable once first set (spec.md §3.1 invariant)

	scope      Scope
	bundleKind BundleKind
	branch     string
	origin     string
	originUI   string
	originHost string

	kind        Kind
	specialKind SpecialKind

	quirks Quirk
	kudos  Kudo

	name        QualityText
	summary     QualityText
	description QualityText

	icons       []Icon
	screenshots []Screenshot

	version        string
	releaseDate    int64
	versionHistory []Release

	license        string
	projectGroup   string
	developerName  string

	sources  []string
	addons   *List
	related  *List
	relations []Relation

	contentRating []OARSRating
	provided      []ProvidedItem
	sizes         Sizes
	categories    map[string]struct{}
	permissions   map[Permission]struct{}
	metadata      map[string]string

	managementPlugin string

	state        atomic.Value // State
	lastStable   atomic.Value // State
	progress     atomic.Int32 // 0..100, or -1 for unknown
	allowCancel  atomic.Bool
	pendingAction string

	cancellable *Cancellable
}

// progressUnknown is the sentinel stored in App.progress when progress is
// not meaningful (spec.md §3.1: "progress is meaningful only while state is
// installing/removing/downloading").
const progressUnknown = -1

// New returns a blank-state App, optionally pre-seeded with an id. A
// wildcard placeholder (spec.md §3.4 GLOSSARY) is created with id set and
// everything else empty; refine later materializes it.
func New(id string) *App {
	a := &App{
		id:          id,
		scope:       ScopeUnknown,
		bundleKind:  BundleUnknown,
		kind:        KindUnknown,
		addons:      NewList(),
		related:     NewList(),
		categories:  make(map[string]struct{}),
		permissions: make(map[Permission]struct{}),
		metadata:    make(map[string]string),
		cancellable: &Cancellable{},
	}
	a.state.Store(StateUnknown)
	a.lastStable.Store(StateUnknown)
	a.progress.Store(progressUnknown)
	return a
}

// ID returns the App's identifier, which may be empty for a wildcard App.
func (a *App) ID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.id
}

// SetID sets the App's id. Unlike UniqueID this is not immutable on its
// own — refine may discover the id before the unique_id is assembled.
func (a *App) SetID(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.id = id
}

// UniqueID returns the composite scope/bundle/origin/id/branch key, or ""
// if it hasn't been assembled yet.
func (a *App) UniqueID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.uniqueID
}

// SetUniqueID sets the composite unique_id directly. Once set, it never
// changes (spec.md §8 property 1) — a later call with a different value is
// a silent no-op.
func (a *App) SetUniqueID(uniqueID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.uniqueID != "" {
		return
	}
	a.uniqueID = uniqueID
}

// BuildUniqueID assembles and sets the unique_id from the App's own scope,
// bundle kind, origin, id, and branch fields, following the same
// immutable-once-set rule as SetUniqueID.
func (a *App) BuildUniqueID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.uniqueID != "" {
		return a.uniqueID
	}
	a.uniqueID = fmt.Sprintf("%s/%s/%s/%s/%s", a.scope, a.bundleKind, a.origin, a.id, a.branch)
	return a.uniqueID
}

// SetFromUniqueID parses "scope/bundle/origin/id/branch" and populates the
// App's structured fields from it (spec.md §4.2). It does not itself set
// uniqueID unless the App has none yet, preserving the immutability
// invariant.
func (a *App) SetFromUniqueID(uniqueID string) error {
	parts := strings.SplitN(uniqueID, "/", 5)
	if len(parts) != 5 {
		return fmt.Errorf("app: malformed unique_id %q: want 5 slash-separated segments", uniqueID)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scope = Scope(parts[0])
	a.bundleKind = BundleKind(parts[1])
	a.origin = parts[2]
	a.id = parts[3]
	a.branch = parts[4]
	if a.uniqueID == "" {
		a.uniqueID = uniqueID
	}
	return nil
}

// Scope/BundleKind/Branch/Origin accessors.

func (a *App) Scope() Scope { a.mu.RLock(); defer a.mu.RUnlock(); return a.scope }
func (a *App) SetScope(s Scope) { a.mu.Lock(); defer a.mu.Unlock(); a.scope = s }

func (a *App) BundleKind() BundleKind { a.mu.RLock(); defer a.mu.RUnlock(); return a.bundleKind }
func (a *App) SetBundleKind(b BundleKind) { a.mu.Lock(); defer a.mu.Unlock(); a.bundleKind = b }

func (a *App) Branch() string { a.mu.RLock(); defer a.mu.RUnlock(); return a.branch }
func (a *App) SetBranch(b string) { a.mu.Lock(); defer a.mu.Unlock(); a.branch = b }

func (a *App) Origin() string { a.mu.RLock(); defer a.mu.RUnlock(); return a.origin }
func (a *App) SetOrigin(o string) { a.mu.Lock(); defer a.mu.Unlock(); a.origin = o }

func (a *App) OriginUI() string { a.mu.RLock(); defer a.mu.RUnlock(); return a.originUI }
func (a *App) SetOriginUI(o string) { a.mu.Lock(); defer a.mu.Unlock(); a.originUI = o }

func (a *App) OriginHostname() string { a.mu.RLock(); defer a.mu.RUnlock(); return a.originHost }
func (a *App) SetOriginHostname(o string) { a.mu.Lock(); defer a.mu.Unlock(); a.originHost = o }

func (a *App) Kind() Kind { a.mu.RLock(); defer a.mu.RUnlock(); return a.kind }
func (a *App) SetKind(k Kind) { a.mu.Lock(); defer a.mu.Unlock(); a.kind = k }

func (a *App) SpecialKind() SpecialKind { a.mu.RLock(); defer a.mu.RUnlock(); return a.specialKind }
func (a *App) SetSpecialKind(k SpecialKind) { a.mu.Lock(); defer a.mu.Unlock(); a.specialKind = k }

// Quirks.

func (a *App) AddQuirk(q Quirk) { a.mu.Lock(); defer a.mu.Unlock(); a.quirks = a.quirks.Add(q) }
func (a *App) RemoveQuirk(q Quirk) { a.mu.Lock(); defer a.mu.Unlock(); a.quirks = a.quirks.Remove(q) }
func (a *App) HasQuirk(q Quirk) bool { a.mu.RLock(); defer a.mu.RUnlock(); return a.quirks.Has(q) }
func (a *App) Quirks() Quirk { a.mu.RLock(); defer a.mu.RUnlock(); return a.quirks }

// Kudos.

func (a *App) AddKudo(k Kudo) { a.mu.Lock(); defer a.mu.Unlock(); a.kudos = a.kudos.Add(k) }
func (a *App) HasKudo(k Kudo) bool { a.mu.RLock(); defer a.mu.RUnlock(); return a.kudos.Has(k) }
func (a *App) Kudos() Kudo { a.mu.RLock(); defer a.mu.RUnlock(); return a.kudos }

// State machine.

// State returns the App's current lifecycle state.
func (a *App) State() State {
	return a.state.Load().(State)
}

// SetState attempts the transition to s, enforcing the legality table from
// spec.md §3.2. A state that is itself "stable" (installed, available,
// available-local, unknown, updatable, updatable-live, unavailable) is recorded so
// SetStateRecover can return to it later.
func (a *App) SetState(s State) error {
	from := a.State()
	if !CanTransition(from, s) {
		return &ErrIllegalTransition{From: from, To: s}
	}
	a.state.Store(s)
	if isStable(s) {
		a.lastStable.Store(s)
	}
	return nil
}

// SetStateRecover returns the App to the last stable state observed before
// the current (presumably cancelled) operation, per spec.md §3.2.
func (a *App) SetStateRecover() {
	a.state.Store(a.lastStable.Load().(State))
}

func isStable(s State) bool {
	switch s {
	case StateUnknown, StateAvailable, StateAvailableLocal, StateInstalled,
		StateUpdatable, StateUpdatableLive, StateUnavailable:
		return true
	default:
		return false
	}
}

// Progress is meaningful only while State is one of
// installing/downloading/removing (spec.md §3.1); it returns (0, false)
// otherwise, and also while the stored progress is unknown.
func (a *App) Progress() (int, bool) {
	switch a.State() {
	case StateInstalling, StateDownloading, StateRemoving:
		p := int(a.progress.Load())
		if p < 0 {
			return 0, false
		}
		return p, true
	default:
		return 0, false
	}
}

// SetProgress updates the progress value (0..100); pass -1 for unknown.
func (a *App) SetProgress(p int) { a.progress.Store(int32(p)) }

func (a *App) AllowCancel() bool   { return a.allowCancel.Load() }
func (a *App) SetAllowCancel(v bool) { a.allowCancel.Store(v) }

func (a *App) Cancellable() *Cancellable { return a.cancellable }

func (a *App) PendingAction() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.pendingAction
}

func (a *App) SetPendingAction(kind string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pendingAction = kind
}

// Text fields — quality-gated setters (spec.md §4.2: "updates only if
// quality >= current").

func (a *App) SetName(quality Quality, text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.name.set(quality, text)
}
func (a *App) Name() string { a.mu.RLock(); defer a.mu.RUnlock(); return a.name.Text }

func (a *App) SetSummary(quality Quality, text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.summary.set(quality, text)
}
func (a *App) Summary() string { a.mu.RLock(); defer a.mu.RUnlock(); return a.summary.Text }

func (a *App) SetDescription(quality Quality, text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.description.set(quality, text)
}
func (a *App) Description() string { a.mu.RLock(); defer a.mu.RUnlock(); return a.description.Text }

// Icons.

// AddIcon appends an icon unless it duplicates one already present by
// size+kind+source (spec.md §4.2).
func (a *App) AddIcon(icon Icon) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, existing := range a.icons {
		if existing.sameAs(icon) {
			return
		}
	}
	a.icons = append(a.icons, icon)
}

// Icons returns a snapshot copy of the App's icon list (copy-on-read).
func (a *App) Icons() []Icon {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Icon, len(a.icons))
	copy(out, a.icons)
	return out
}

func (a *App) HasIcons() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.icons) > 0
}

// Screenshots.

func (a *App) AddScreenshot(s Screenshot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.screenshots = append(a.screenshots, s)
}

func (a *App) Screenshots() []Screenshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Screenshot, len(a.screenshots))
	copy(out, a.screenshots)
	return out
}

// Version and release history.

func (a *App) Version() string { a.mu.RLock(); defer a.mu.RUnlock(); return a.version }
func (a *App) SetVersion(v string) { a.mu.Lock(); defer a.mu.Unlock(); a.version = v }

func (a *App) ReleaseDate() int64 { a.mu.RLock(); defer a.mu.RUnlock(); return a.releaseDate }
func (a *App) SetReleaseDate(ts int64) { a.mu.Lock(); defer a.mu.Unlock(); a.releaseDate = ts }

func (a *App) SetVersionHistory(releases []Release) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.versionHistory = releases
}

func (a *App) VersionHistory() []Release {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Release, len(a.versionHistory))
	copy(out, a.versionHistory)
	return out
}

// Misc scalar metadata.

func (a *App) License() string { a.mu.RLock(); defer a.mu.RUnlock(); return a.license }
func (a *App) SetLicense(l string) { a.mu.Lock(); defer a.mu.Unlock(); a.license = l }

func (a *App) ProjectGroup() string { a.mu.RLock(); defer a.mu.RUnlock(); return a.projectGroup }
func (a *App) SetProjectGroup(p string) { a.mu.Lock(); defer a.mu.Unlock(); a.projectGroup = p }

func (a *App) DeveloperName() string { a.mu.RLock(); defer a.mu.RUnlock(); return a.developerName }
func (a *App) SetDeveloperName(d string) { a.mu.Lock(); defer a.mu.Unlock(); a.developerName = d }

func (a *App) AddSource(s string) { a.mu.Lock(); defer a.mu.Unlock(); a.sources = append(a.sources, s) }
func (a *App) Sources() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, len(a.sources))
	copy(out, a.sources)
	return out
}

// IsOwnedRepository reports whether this repository App's sources list
// names only itself, mirroring gs-repos-dialog-row.c's "owned" derivation
// (SPEC_FULL.md §5.1).
func (a *App) IsOwnedRepository() bool {
	if a.Kind() != KindRepository {
		return false
	}
	srcs := a.Sources()
	return len(srcs) == 1 && srcs[0] == a.ID()
}

func (a *App) AddRelation(r Relation) { a.mu.Lock(); defer a.mu.Unlock(); a.relations = append(a.relations, r) }
func (a *App) Relations() []Relation {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Relation, len(a.relations))
	copy(out, a.relations)
	return out
}

func (a *App) AddProvidedItem(p ProvidedItem) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.provided = append(a.provided, p)
}
func (a *App) ProvidedItems() []ProvidedItem {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]ProvidedItem, len(a.provided))
	copy(out, a.provided)
	return out
}

func (a *App) AddContentRating(r OARSRating) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.contentRating = append(a.contentRating, r)
}
func (a *App) ContentRating() []OARSRating {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]OARSRating, len(a.contentRating))
	copy(out, a.contentRating)
	return out
}

func (a *App) Sizes() Sizes { a.mu.RLock(); defer a.mu.RUnlock(); return a.sizes }
func (a *App) SetSizes(s Sizes) { a.mu.Lock(); defer a.mu.Unlock(); a.sizes = s }

func (a *App) AddCategory(c string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.categories[c] = struct{}{}
}
func (a *App) HasCategory(c string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.categories[c]
	return ok
}
func (a *App) Categories() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, 0, len(a.categories))
	for c := range a.categories {
		out = append(out, c)
	}
	return out
}

func (a *App) AddPermission(p Permission) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.permissions[p] = struct{}{}
}
func (a *App) Permissions() []Permission {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Permission, 0, len(a.permissions))
	for p := range a.permissions {
		out = append(out, p)
	}
	return out
}

// Metadata is a plugin-internal annotation bag, opaque pass-through to the
// UI (spec.md §3.1). SetMetadata is a no-op if the key is already set.
func (a *App) SetMetadata(key, value string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.metadata[key]; exists {
		return
	}
	a.metadata[key] = value
}

func (a *App) Metadata(key string) (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.metadata[key]
	return v, ok
}

func (a *App) ManagementPlugin() string { a.mu.RLock(); defer a.mu.RUnlock(); return a.managementPlugin }

// SetManagementPlugin assigns the owning plugin. An App with quirk
// IsWildcard never has a management plugin (spec.md §3.1 invariant); this
// is a no-op for wildcards.
func (a *App) SetManagementPlugin(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.quirks.Has(QuirkIsWildcard) {
		return
	}
	a.managementPlugin = name
}

// Addons and related apps (owned AppLists; spec.md §4.2).

func (a *App) GetAddons() *List { a.mu.RLock(); defer a.mu.RUnlock(); return a.addons }

// AddAddons merges another app's addons into this App's addon list. The
// "extends" id of every addon must equal the parent's id (spec.md §3.1
// invariant); addons violating it are skipped.
func (a *App) AddAddons(extra *List) {
	parentID := a.ID()
	for _, ad := range extra.Items() {
		if extendsID, ok := ad.Metadata("ExtendsID"); ok && extendsID != parentID {
			continue
		}
		a.addons.Add(ad)
	}
}

// DupAddons returns a shallow copy of the addon list for safe iteration by
// a caller that must not observe later mutation.
func (a *App) DupAddons() []*App {
	return a.addons.Items()
}

func (a *App) GetRelated() *List { a.mu.RLock(); defer a.mu.RUnlock(); return a.related }
func (a *App) AddRelated(other *App) { a.related.Add(other) }

// String gives a debug-friendly identifier, preferring unique_id.
func (a *App) String() string {
	if u := a.UniqueID(); u != "" {
		return u
	}
	if id := a.ID(); id != "" {
		return id
	}
	return "<wildcard app>"
}
