package events

import (
	"sync"

	"github.com/software-center/catalog/internal/catalogerr"
	"github.com/software-center/catalog/internal/logging"
)

// Bus aggregates Events into a unique_id → Event map, latest wins per id
// (spec.md §4.7). A Bus backs both a single job's event stream and the
// loader-wide stream; the loader re-publishes every job-level Add into its
// own loader-wide Bus as an "event-added" broadcast.
type Bus struct {
	mu       sync.Mutex
	byID     map[string]*Event
	order    []string // insertion order, for default_event() tie-breaking
	onAdd    []func(*Event)
	failHard bool // GS_SELF_TEST_PLUGIN_ERROR_FAIL_HARD; recorded only, see New
}

// New returns an empty Bus. failHard mirrors the
// GS_SELF_TEST_PLUGIN_ERROR_FAIL_HARD environment override (spec.md §6):
// it is only recorded and reported back by FailHard; Add behaves the same
// either way.
func New(failHard bool) *Bus {
	return &Bus{byID: make(map[string]*Event), failHard: failHard}
}

// OnAdd registers a callback invoked synchronously whenever Add accepts an
// event, used by the loader to fan a job's events into its own loader-wide
// bus (the "event-added" broadcast from spec.md §4.7).
func (b *Bus) OnAdd(fn func(*Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onAdd = append(b.onAdd, fn)
}

// Add records ev, unless its error is catalogerr.Cancelled — cancelled
// errors are dropped on the floor per spec.md §4.7 and never reach any
// consumer. Returns false when the event was dropped.
func (b *Bus) Add(ev *Event) bool {
	if ev == nil || ev.Err == nil {
		return false
	}
	if ev.Err.Kind == catalogerr.Cancelled {
		return false
	}

	key := ev.UniqueID()
	b.mu.Lock()
	if _, exists := b.byID[key]; !exists {
		b.order = append(b.order, key)
	}
	b.byID[key] = ev
	callbacks := append([]func(*Event){}, b.onAdd...)
	b.mu.Unlock()

	logging.GetLogger().Warn().
		Str("plugin", ev.Plugin).
		Str("kind", string(ev.Err.Kind)).
		Str("unique_id", key).
		Msg("plugin event")

	for _, fn := range callbacks {
		fn(ev)
	}
	return true
}

// FailHard reports whether GS_SELF_TEST_PLUGIN_ERROR_FAIL_HARD is active for
// this bus.
func (b *Bus) FailHard() bool { return b.failHard }

// Get returns the event currently stored for uniqueID, if any.
func (b *Bus) Get(uniqueID string) (*Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ev, ok := b.byID[uniqueID]
	return ev, ok
}

// All returns every event currently on the bus, insertion order.
func (b *Bus) All() []*Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Event, 0, len(b.order))
	for _, key := range b.order {
		out = append(out, b.byID[key])
	}
	return out
}

// Default returns the first non-invalid event (default_event(), spec.md
// §4.7), used by a UI layer that can show only one notice at a time.
func (b *Bus) Default() (*Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, key := range b.order {
		ev := b.byID[key]
		if !ev.IsInvalid() {
			return ev, true
		}
	}
	return nil, false
}

// Invalidate dismisses the event for uniqueID, if present.
func (b *Bus) Invalidate(uniqueID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ev, ok := b.byID[uniqueID]; ok {
		ev.MarkInvalid()
	}
}

// Len returns the number of distinct events currently tracked.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.byID)
}
