// Package job implements the typed Job objects the loader dispatches
// across the plugin set (spec.md §2 component F, §4.5). A Job carries its
// own cancellation token and event bus; the loader's dispatch logic (in
// internal/loader) drives Job.Run/Finish and fans plugin calls out
// according to the job's Kind.
package job

import (
	"context"
	"sync"

	"github.com/software-center/catalog/internal/app"
	"github.com/software-center/catalog/internal/events"
	"github.com/google/uuid"
)

// Job is a cancellable, typed unit of work (spec.md glossary). Every job
// has exactly one cancellation token (spec.md §5): Cancel is safe from any
// goroutine, idempotent, and races harmlessly with completion.
type Job struct {
	id   string
	kind Kind

	Input interface{}

	ctx    context.Context
	cancel context.CancelFunc

	bus *events.Bus

	mu       sync.Mutex
	done     chan struct{}
	finished bool

	resultList   *app.List
	resultString string
	err          error
}

// New constructs a job of the given kind, deriving its cancellation
// context from parent so the loader can chain an external caller's token
// (spec.md §4.4 "the loader additionally chains the caller's token").
func New(parent context.Context, kind Kind, input interface{}, failHard bool) *Job {
	ctx, cancel := context.WithCancel(parent)
	return &Job{
		id:     uuid.NewString(),
		kind:   kind,
		Input:  input,
		ctx:    ctx,
		cancel: cancel,
		bus:    events.New(failHard),
		done:   make(chan struct{}),
	}
}

func (j *Job) ID() string       { return j.id }
func (j *Job) Kind() Kind       { return j.kind }
func (j *Job) Context() context.Context { return j.ctx }
func (j *Job) Events() *events.Bus { return j.bus }

// Cancel requests cancellation. Idempotent and safe from any goroutine.
func (j *Job) Cancel() { j.cancel() }

// Cancelled reports whether this job's context has been cancelled.
func (j *Job) Cancelled() bool {
	select {
	case <-j.ctx.Done():
		return true
	default:
		return false
	}
}

// EmitEvent records ev on the job's own bus (spec.md §4.5 "every job
// supports emit_event").
func (j *Job) EmitEvent(ev *events.Event) {
	ev.WithJob(j.id)
	j.bus.Add(ev)
}

// Finish records the job's outcome and unblocks every Wait call. Finish is
// idempotent; only the first call has effect.
func (j *Job) Finish(list *app.List, resultString string, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.finished {
		return
	}
	j.finished = true
	j.resultList = list
	j.resultString = resultString
	j.err = err
	close(j.done)
}

// Done returns a channel closed once Finish has been called.
func (j *Job) Done() <-chan struct{} { return j.done }

// Wait blocks until the job finishes or ctx is cancelled, then returns the
// job's AppList result (nil for jobs with no list output), its string
// result (used by GetOfflineUpdateState), and its terminal error.
func (j *Job) Wait(ctx context.Context) (*app.List, string, error) {
	select {
	case <-j.done:
	case <-ctx.Done():
		return nil, "", ctx.Err()
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.resultList, j.resultString, j.err
}
