// Package events implements the per-job and loader-wide event surface
// (spec.md §3.5, §4.7): a deduplicating unique_id→Event map rather than a
// conventional pub/sub bus, mirroring gs-plugin-event.c's GsPluginEvent and
// the loader's event-added aggregation.
package events

import (
	"fmt"

	"github.com/software-center/catalog/internal/catalogerr"
)

// Flag annotates presentation hints on an Event (spec.md §3.5).
type Flag uint32

const (
	FlagInvalid Flag = 1 << iota
	FlagVisible
	FlagWarning
	FlagInteractive
)

func (f Flag) Has(flag Flag) bool { return f&flag != 0 }
func (f Flag) Add(flag Flag) Flag { return f | flag }
func (f Flag) Remove(flag Flag) Flag { return f &^ flag }

// Event is a surfaceable notice, almost always wrapping an error, that a
// plugin or the loader wants the UI to be able to observe (spec.md §3.5).
type Event struct {
	App     string // unique_id of the app that caused this, if any
	Origin  string // unique_id of the origin app, if any
	Plugin  string
	Job     string // job identifier that produced this event, if any
	Err     *catalogerr.Error
	Flags   Flag
	uniqueID string // memoized virtual id when neither App nor Origin is set
}

// NewEvent builds an Event from an error, as plugins and the loader do
// whenever a vtable call surfaces a non-nil error (spec.md §4.7).
func NewEvent(err error) *Event {
	return &Event{Err: catalogerr.Normalize(err)}
}

// WithApp attaches the app that caused the event.
func (e *Event) WithApp(uniqueID string) *Event { e.App = uniqueID; return e }

// WithOrigin attaches the origin app.
func (e *Event) WithOrigin(uniqueID string) *Event { e.Origin = uniqueID; return e }

// WithPlugin records which plugin raised the event.
func (e *Event) WithPlugin(name string) *Event { e.Plugin = name; return e }

// WithJob records which job raised the event.
func (e *Event) WithJob(jobID string) *Event { e.Job = jobID; return e }

// UniqueID returns the event's dedupe key: the origin's unique_id if set,
// else the app's, else a virtual id synthesized from the error kind
// (gs-plugin-event.c's gs_plugin_event_get_unique_id).
func (e *Event) UniqueID() string {
	if e.Origin != "" {
		return e.Origin
	}
	if e.App != "" {
		return e.App
	}
	if e.uniqueID == "" {
		kind := catalogerr.Kind("failed")
		if e.Err != nil {
			kind = e.Err.Kind
		}
		e.uniqueID = fmt.Sprintf("unknown/unknown//%s.error/", kind)
	}
	return e.uniqueID
}

// IsInvalid reports whether this event has been dismissed by a consumer.
func (e *Event) IsInvalid() bool { return e.Flags.Has(FlagInvalid) }

// MarkInvalid dismisses the event (consumers no longer see it as "default").
func (e *Event) MarkInvalid() { e.Flags = e.Flags.Add(FlagInvalid) }
