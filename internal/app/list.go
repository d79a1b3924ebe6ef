package app

import (
	"math/rand"
	"sort"
	"sync"
	"time"
)

// DedupeFlag controls how List.FilterDuplicates picks a winner among Apps
// sharing a dedupe key (spec.md §3.3).
type DedupeFlag uint32

const (
	// DedupeByPriority resolves ties using the priority/version merge rule.
	DedupeByPriority DedupeFlag = 1 << iota
	// DedupeKeyIDOnly groups by id instead of the full unique_id.
	DedupeKeyIDOnly
	// DedupeKeySourceName groups by (origin, source name) instead of id.
	DedupeKeySourceName
	// DedupeMatchInstalled prefers an installed App over a merely available one.
	DedupeMatchInstalled
)

func (f DedupeFlag) has(flag DedupeFlag) bool { return f&flag != 0 }

// List is an ordered sequence of Apps with an auxiliary unique_id index
// (spec.md §3.3). The zero value is not usable; use NewList.
type List struct {
	mu        sync.RWMutex
	items     []*App
	byUnique  map[string]*App
	truncated bool
	sizePeak  int
	rng       *rand.Rand
	rngOnce   sync.Once
}

// NewList returns an empty AppList.
func NewList() *List {
	return &List{byUnique: make(map[string]*App)}
}

// Add appends app, deduping by unique_id when set (first-inserted wins;
// spec.md §3.3). Apps without a unique_id dedupe only by pointer identity,
// preserving insertion order otherwise (spec.md §8 property 3).
func (l *List) Add(a *App) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.addLocked(a)
}

func (l *List) addLocked(a *App) {
	if uid := a.UniqueID(); uid != "" {
		if _, exists := l.byUnique[uid]; exists {
			return
		}
		l.byUnique[uid] = a
		l.items = append(l.items, a)
		return
	}
	for _, existing := range l.items {
		if existing == a {
			return
		}
	}
	l.items = append(l.items, a)
}

// AddAll appends every App from other, applying the same dedupe rule as Add.
func (l *List) AddAll(other *List) {
	for _, a := range other.Items() {
		l.Add(a)
	}
}

// AddRaw appends a unconditionally, without Add's first-inserted-wins
// unique_id dedupe. Callers aggregating candidates from several plugins
// that intend to resolve duplicates with FilterDuplicates (spec.md §4.4
// step 5) must use AddRaw/AddAllRaw instead of Add/AddAll: Add would
// otherwise discard a losing candidate outright before the priority/
// version merge rule (spec.md §3.3) ever saw it.
func (l *List) AddRaw(a *App) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, a)
	if uid := a.UniqueID(); uid != "" {
		if _, exists := l.byUnique[uid]; !exists {
			l.byUnique[uid] = a
		}
	}
}

// AddAllRaw appends every App from other via AddRaw.
func (l *List) AddAllRaw(other *List) {
	for _, a := range other.Items() {
		l.AddRaw(a)
	}
}

// Remove deletes app from the list, if present.
func (l *List) Remove(a *App) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if uid := a.UniqueID(); uid != "" {
		delete(l.byUnique, uid)
	}
	for i, existing := range l.items {
		if existing == a {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return
		}
	}
}

// Lookup finds an App by unique_id.
func (l *List) Lookup(uniqueID string) (*App, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	a, ok := l.byUnique[uniqueID]
	return a, ok
}

// Len returns the number of Apps currently in the list.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Index returns the App at position i.
func (l *List) Index(i int) *App {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.items[i]
}

// Items returns a snapshot copy of the list's contents, safe to iterate
// without holding the list's lock.
func (l *List) Items() []*App {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*App, len(l.items))
	copy(out, l.items)
	return out
}

// Sort stably reorders the list using cmp (negative if a sorts before b).
func (l *List) Sort(cmp func(a, b *App) int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	sort.SliceStable(l.items, func(i, j int) bool {
		return cmp(l.items[i], l.items[j]) < 0
	})
}

// Randomize shuffles the list in place. The generator is seeded from the
// clock on the first call and kept for the lifetime of this List; every
// call draws a new permutation from it, so calling Randomize twice does not
// leave the list in the same order, and separate Lists use separate seeds.
func (l *List) Randomize() {
	l.rngOnce.Do(func() {
		l.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	})
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rng.Shuffle(len(l.items), func(i, j int) {
		l.items[i], l.items[j] = l.items[j], l.items[i]
	})
}

// Truncate caps the list to n entries, recording the pre-truncation length
// as the "X truncated" hint the UI surfaces (spec.md §3.3).
func (l *List) Truncate(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.items) <= n {
		return
	}
	if len(l.items) > l.sizePeak {
		l.sizePeak = len(l.items)
	}
	for _, dropped := range l.items[n:] {
		if uid := dropped.UniqueID(); uid != "" {
			delete(l.byUnique, uid)
		}
	}
	l.items = l.items[:n]
	l.truncated = true
}

// Truncated reports whether Truncate has ever shortened this list.
func (l *List) Truncated() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.truncated
}

// SizePeak returns the largest length this list reached before truncation.
func (l *List) SizePeak() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sizePeak
}

// Filter returns a new List containing only Apps for which keep returns true.
func (l *List) Filter(keep func(*App) bool) *List {
	out := NewList()
	for _, a := range l.Items() {
		if keep(a) {
			out.Add(a)
		}
	}
	return out
}

// dedupeKey computes the grouping key for an App under the given flags.
func dedupeKey(a *App, flags DedupeFlag) string {
	switch {
	case flags.has(DedupeKeyIDOnly):
		return a.ID()
	case flags.has(DedupeKeySourceName):
		srcs := a.Sources()
		name := ""
		if len(srcs) > 0 {
			name = srcs[0]
		}
		return a.Origin() + "/" + name
	default:
		if uid := a.UniqueID(); uid != "" {
			return uid
		}
		return a.ID()
	}
}

// PriorityFunc resolves the dispatch priority of the plugin that produced
// an App, used by FilterDuplicates' merge rule. The AppList package has no
// notion of plugins, so the loader supplies this.
type PriorityFunc func(a *App) int

// FilterDuplicates applies the dedupe merge rule from spec.md §3.3: when
// two Apps share a dedupe key, the higher-priority plugin wins; on a
// priority tie, the newer version wins; the losing App's metadata is
// merged into the winner so no plugin-contributed annotation is lost.
func (l *List) FilterDuplicates(flags DedupeFlag, priority PriorityFunc) {
	l.mu.Lock()
	items := make([]*App, len(l.items))
	copy(items, l.items)
	l.mu.Unlock()

	winners := make(map[string]*App)
	order := make([]string, 0, len(items))

	for _, candidate := range items {
		key := dedupeKey(candidate, flags)
		existing, seen := winners[key]
		if !seen {
			winners[key] = candidate
			order = append(order, key)
			continue
		}

		winner := existing
		loser := candidate
		if flags.has(DedupeMatchInstalled) && candidate.State() == StateInstalled && existing.State() != StateInstalled {
			winner, loser = candidate, existing
		} else if flags.has(DedupeByPriority) {
			pc, pe := 0, 0
			if priority != nil {
				pc, pe = priority(candidate), priority(existing)
			}
			switch {
			case pc > pe:
				winner, loser = candidate, existing
			case pc == pe && newerVersion(candidate.Version(), existing.Version()):
				winner, loser = candidate, existing
			}
		}

		mergeMetadataInto(winner, loser)
		winners[key] = winner
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = l.items[:0]
	l.byUnique = make(map[string]*App, len(order))
	for _, key := range order {
		w := winners[key]
		l.items = append(l.items, w)
		if uid := w.UniqueID(); uid != "" {
			l.byUnique[uid] = w
		}
	}
}

// newerVersion does a best-effort dotted-version comparison; a malformed
// version string never beats a well-formed one.
func newerVersion(a, b string) bool {
	as, bs := splitVersion(a), splitVersion(b)
	for i := 0; i < len(as) || i < len(bs); i++ {
		var av, bv int
		if i < len(as) {
			av = as[i]
		}
		if i < len(bs) {
			bv = bs[i]
		}
		if av != bv {
			return av > bv
		}
	}
	return false
}

func splitVersion(v string) []int {
	var out []int
	n := 0
	has := false
	for _, r := range v {
		if r >= '0' && r <= '9' {
			n = n*10 + int(r-'0')
			has = true
			continue
		}
		if has {
			out = append(out, n)
			n, has = 0, false
		}
	}
	if has {
		out = append(out, n)
	}
	return out
}

// mergeMetadataInto copies loser's plugin-set metadata keys into winner
// without overwriting anything winner already has (spec.md §3.3).
func mergeMetadataInto(winner, loser *App) {
	if winner == loser {
		return
	}
	loser.mu.RLock()
	keys := make(map[string]string, len(loser.metadata))
	for k, v := range loser.metadata {
		keys[k] = v
	}
	loser.mu.RUnlock()
	for k, v := range keys {
		winner.SetMetadata(k, v)
	}
}
