package plugin

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/software-center/catalog/internal/logging"
)

// Scheduler lets a Plugin register its own periodic background work — a
// refresh_metadata sweep, a repository re-index — without spinning up its
// own ticker goroutine. Adapted from the teacher's PluginScheduler
// (internal/plugins/scheduler.go), which wraps one shared *cron.Cron per
// plugin so the process keeps a single background goroutine regardless of
// how many plugins schedule work.
type Scheduler struct {
	mu         sync.Mutex
	cron       *cron.Cron
	pluginName string
	jobIDs     map[string]cron.EntryID
}

// NewScheduler wraps a shared cron instance for one named plugin. The
// cron instance's Start/Stop lifecycle is the loader's responsibility,
// shared across every Plugin's Scheduler.
func NewScheduler(shared *cron.Cron, pluginName string) *Scheduler {
	return &Scheduler{
		cron:       shared,
		pluginName: pluginName,
		jobIDs:     make(map[string]cron.EntryID),
	}
}

// Schedule registers job under cronExpr, replacing any existing job of the
// same name. Panics inside job are recovered and logged so one misbehaving
// plugin job doesn't take down the shared cron goroutine.
func (s *Scheduler) Schedule(jobName, cronExpr string, job func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.jobIDs[jobName]; ok {
		s.cron.Remove(existing)
		delete(s.jobIDs, jobName)
	}

	log := logging.GetLogger("plugin.scheduler")
	pluginName := s.pluginName
	wrapped := func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Str("plugin", pluginName).Str("job", jobName).
					Interface("panic", r).Msg("scheduled plugin job panicked")
			}
		}()
		job()
	}

	id, err := s.cron.AddFunc(cronExpr, wrapped)
	if err != nil {
		return fmt.Errorf("schedule job %s for plugin %s: %w", jobName, s.pluginName, err)
	}
	s.jobIDs[jobName] = id
	return nil
}

// Remove unschedules a job by name; a no-op if it isn't scheduled.
func (s *Scheduler) Remove(jobName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.jobIDs[jobName]; ok {
		s.cron.Remove(id)
		delete(s.jobIDs, jobName)
	}
}

// RemoveAll unschedules every job owned by this plugin, called on shutdown.
func (s *Scheduler) RemoveAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, id := range s.jobIDs {
		s.cron.Remove(id)
		delete(s.jobIDs, name)
	}
}

// ListJobs returns the scheduled job names (order undefined).
func (s *Scheduler) ListJobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.jobIDs))
	for name := range s.jobIDs {
		out = append(out, name)
	}
	return out
}

// IsScheduled reports whether jobName currently has a cron entry.
func (s *Scheduler) IsScheduled(jobName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobIDs[jobName]
	return ok
}

// ScheduleInterval is a convenience wrapper converting a handful of common
// human intervals to cron expressions, for the refresh_metadata cache-age
// sweep (spec.md §4.5 RefreshMetadata) a plugin wants run on a fixed
// cadence rather than in response to a job.
func (s *Scheduler) ScheduleInterval(jobName, interval string, job func()) error {
	var cronExpr string
	switch interval {
	case "1m":
		cronExpr = "* * * * *"
	case "5m":
		cronExpr = "*/5 * * * *"
	case "15m":
		cronExpr = "*/15 * * * *"
	case "30m":
		cronExpr = "*/30 * * * *"
	case "1h", "hourly":
		cronExpr = "@hourly"
	case "6h":
		cronExpr = "0 */6 * * *"
	case "12h":
		cronExpr = "0 */12 * * *"
	case "24h", "daily":
		cronExpr = "@daily"
	case "weekly":
		cronExpr = "@weekly"
	default:
		return fmt.Errorf("unsupported interval: %s", interval)
	}
	return s.Schedule(jobName, cronExpr, job)
}
