package loader

import (
	"github.com/software-center/catalog/internal/events"
	"github.com/software-center/catalog/internal/plugin"
)

// wireSignals installs the loader's handlers onto every plugin's Signals
// struct (spec.md §3.6/§4.3) so a plugin calling e.g. p.Signals.ReportEvent
// reaches the loader's event bus, debouncer, or allow-updates vote table
// instead of a nil func. Called once from New, before Setup runs.
func (l *Loader) wireSignals() {
	for _, p := range l.plugins {
		p.Signals.UpdatesChanged = l.debounce.UpdatesChanged
		p.Signals.Reload = l.debounce.Reload
		p.Signals.ReportEvent = func(ev *events.Event) { l.bus.Add(ev) }
		name := p.Name
		p.Signals.AllowUpdates = func(allowed bool) { l.voteAllowUpdates(name, allowed) }
		p.Signals.StatusChanged = func(appUniqueID, status string) {
			if h := l.statusChanged(); h != nil {
				h(appUniqueID, status)
			}
		}
		p.Signals.RepositoryChanged = func(appUniqueID string) {
			if h := l.repositoryChanged(); h != nil {
				h(appUniqueID)
			}
		}
		p.Signals.BasicAuthStart = func(remote, realm string, cb func(user, pass string)) {
			if h := l.basicAuthStart(); h != nil {
				h(remote, realm, cb)
			}
		}
		p.Signals.AskUntrusted = func(title, message, details, acceptLabel string) bool {
			if h := l.askUntrusted(); h != nil {
				return h(title, message, details, acceptLabel)
			}
			return false
		}
	}
}

// handlers holds the optional external collaborators (the GUI layer, per
// spec.md §1) a caller may attach to receive the plugin signals this core
// does not interpret itself.
type handlers struct {
	onStatusChanged   func(appUniqueID, status string)
	onRepoChanged     func(appUniqueID string)
	onBasicAuthStart  plugin.BasicAuthStartFunc
	onAskUntrusted    plugin.AskUntrustedFunc
	allowUpdatesVotes map[string]bool
}

func (l *Loader) statusChanged() func(string, string) {
	l.handlersMu.RLock()
	defer l.handlersMu.RUnlock()
	return l.h.onStatusChanged
}

func (l *Loader) repositoryChanged() func(string) {
	l.handlersMu.RLock()
	defer l.handlersMu.RUnlock()
	return l.h.onRepoChanged
}

func (l *Loader) basicAuthStart() plugin.BasicAuthStartFunc {
	l.handlersMu.RLock()
	defer l.handlersMu.RUnlock()
	return l.h.onBasicAuthStart
}

func (l *Loader) askUntrusted() plugin.AskUntrustedFunc {
	l.handlersMu.RLock()
	defer l.handlersMu.RUnlock()
	return l.h.onAskUntrusted
}

// OnStatusChanged registers the external collaborator's callback for a
// plugin's status-changed(app?, status) signal (spec.md §4.3).
func (l *Loader) OnStatusChanged(fn func(appUniqueID, status string)) {
	l.handlersMu.Lock()
	defer l.handlersMu.Unlock()
	l.h.onStatusChanged = fn
}

// OnRepositoryChanged registers the external collaborator's callback for a
// plugin's repository-changed(app) signal.
func (l *Loader) OnRepositoryChanged(fn func(appUniqueID string)) {
	l.handlersMu.Lock()
	defer l.handlersMu.Unlock()
	l.h.onRepoChanged = fn
}

// SetBasicAuthHandler registers the external collaborator that prompts for
// credentials on a plugin's basic-auth-start signal.
func (l *Loader) SetBasicAuthHandler(fn plugin.BasicAuthStartFunc) {
	l.handlersMu.Lock()
	defer l.handlersMu.Unlock()
	l.h.onBasicAuthStart = fn
}

// SetAskUntrustedHandler registers the external collaborator that answers a
// plugin's ask-untrusted confirmation prompt. With no handler attached, an
// untrusted-source confirmation always denies.
func (l *Loader) SetAskUntrustedHandler(fn plugin.AskUntrustedFunc) {
	l.handlersMu.Lock()
	defer l.handlersMu.Unlock()
	l.h.onAskUntrusted = fn
}

// voteAllowUpdates records one plugin's vote on whether updates are
// currently allowed (spec.md §4.3 "allow-updates(bool)" signal). Grounded
// on original_source/gs-plugin-loader.c's disallow_updates hash table: the
// loader-wide answer is the intersection across every plugin that has ever
// voted, not a single last-writer-wins flag, so one plugin voting false
// (e.g. "on battery, too expensive to download now") overrides the rest
// until it votes true again.
func (l *Loader) voteAllowUpdates(pluginName string, allowed bool) {
	l.handlersMu.Lock()
	defer l.handlersMu.Unlock()
	if l.h.allowUpdatesVotes == nil {
		l.h.allowUpdatesVotes = make(map[string]bool)
	}
	l.h.allowUpdatesVotes[pluginName] = allowed
}

// AllowUpdates reports whether every plugin that has voted currently
// allows updates (spec.md §4.3, §6 "allow-updates" setting).
func (l *Loader) AllowUpdates() bool {
	l.handlersMu.RLock()
	defer l.handlersMu.RUnlock()
	for _, allowed := range l.h.allowUpdatesVotes {
		if !allowed {
			return false
		}
	}
	return true
}
