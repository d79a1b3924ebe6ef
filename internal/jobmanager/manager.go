// Package jobmanager implements the live index of in-flight jobs per App
// (spec.md §2 component I), letting a UI layer ask "what is happening to
// this App right now" without scanning every active job. Grounded on the
// teacher's Runtime.plugins map pattern (internal/plugins/runtime.go): an
// RWMutex-protected map, written once per registration/deregistration and
// read freely.
package jobmanager

import (
	"sync"

	"github.com/software-center/catalog/internal/job"
)

// Manager indexes active jobs by every App unique_id they reference.
type Manager struct {
	mu      sync.RWMutex
	byApp   map[string]map[string]*job.Job // unique_id -> job id -> job
	byJobID map[string][]string            // job id -> unique_ids it was registered under, for deregister
}

// New returns an empty Manager.
func New() *Manager {
	return &Manager{
		byApp:   make(map[string]map[string]*job.Job),
		byJobID: make(map[string][]string),
	}
}

// Register indexes j under every unique_id in appUniqueIDs. Called by the
// loader before dispatching a job (spec.md §4.4 step 2).
func (m *Manager) Register(j *job.Job, appUniqueIDs []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, uid := range appUniqueIDs {
		if uid == "" {
			continue
		}
		if m.byApp[uid] == nil {
			m.byApp[uid] = make(map[string]*job.Job)
		}
		m.byApp[uid][j.ID()] = j
	}
	m.byJobID[j.ID()] = append([]string(nil), appUniqueIDs...)
}

// Deregister removes j from the index. Called by the loader after the job
// finishes (spec.md §4.4 step 7).
func (m *Manager) Deregister(j *job.Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, uid := range m.byJobID[j.ID()] {
		if jobs, ok := m.byApp[uid]; ok {
			delete(jobs, j.ID())
			if len(jobs) == 0 {
				delete(m.byApp, uid)
			}
		}
	}
	delete(m.byJobID, j.ID())
}

// JobsFor returns every job currently registered against uniqueID.
func (m *Manager) JobsFor(uniqueID string) []*job.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	jobs := m.byApp[uniqueID]
	out := make([]*job.Job, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j)
	}
	return out
}

// HasPendingJob reports whether any job is currently registered against
// uniqueID, used by the UI to gate a second concurrent operation.
func (m *Manager) HasPendingJob(uniqueID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byApp[uniqueID]) > 0
}

// Len returns the number of distinct active jobs tracked.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byJobID)
}
