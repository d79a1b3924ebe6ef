// Package loader implements the Plugin Loader (spec.md §2 component E,
// §4.4): plugin discovery and ordering, setup/shutdown orchestration, and
// job dispatch across the registered plugin set. Grounded on the teacher's
// Runtime (internal/plugins/runtime.go): an RWMutex-protected registry,
// goroutine-per-handler event fanout with panic recovery, and a
// load-then-enable lifecycle — generalized here to the ordering/conflict/
// priority rules and multi-step job dispatch spec.md §4.4 specifies.
package loader

import (
	"fmt"
	"sort"

	"github.com/software-center/catalog/internal/plugin"
)

// maxRelaxationPasses bounds both fixed-point loops (spec.md §4.4 "bail
// with depsolve-failed after 100 passes").
const maxRelaxationPasses = 100

// ErrDepsolveFailed is returned when a relaxation loop doesn't converge
// within maxRelaxationPasses, meaning the plugin set's rules are
// contradictory (e.g. a run_after cycle).
type ErrDepsolveFailed struct{ Pass string }

func (e *ErrDepsolveFailed) Error() string {
	return fmt.Sprintf("loader: depsolve failed during %s relaxation after %d passes", e.Pass, maxRelaxationPasses)
}

// OrderPlugins runs the full discovery-time ordering pipeline on plugins
// (spec.md §4.4 "Discovery and ordering"): relax run_after/run_before into
// an order, disable every target of an enabled plugin's conflicts rule,
// raise priority via a second relaxation over better_than, then sort by
// (order, name). Mutates plugin order/priority/enabled state in place and
// returns the plugins re-sorted.
func OrderPlugins(plugins []*plugin.Plugin) ([]*plugin.Plugin, error) {
	byName := make(map[string]*plugin.Plugin, len(plugins))
	for _, p := range plugins {
		byName[p.Name] = p
	}

	if err := relaxOrder(plugins, byName); err != nil {
		return nil, err
	}

	for _, p := range plugins {
		if !p.Enabled() {
			continue
		}
		for _, name := range p.Rules.Conflicts() {
			if target, ok := byName[name]; ok {
				target.Disable()
			}
		}
	}

	if err := relaxPriority(plugins, byName); err != nil {
		return nil, err
	}

	sort.SliceStable(plugins, func(i, j int) bool {
		if plugins[i].Order() != plugins[j].Order() {
			return plugins[i].Order() < plugins[j].Order()
		}
		return plugins[i].Name < plugins[j].Name
	})
	return plugins, nil
}

// relaxOrder implements: for each P with run_after(Q), order(P) must exceed
// order(Q); for each P with run_before(Q), order(Q) must exceed order(P).
// Repeats until a full pass makes no change (spec.md §4.4).
func relaxOrder(plugins []*plugin.Plugin, byName map[string]*plugin.Plugin) error {
	for pass := 0; pass < maxRelaxationPasses; pass++ {
		changed := false
		for _, p := range plugins {
			for _, name := range p.Rules.RunAfter() {
				q, ok := byName[name]
				if !ok {
					continue
				}
				if p.Order() <= q.Order() {
					p.SetOrder(q.Order() + 1)
					changed = true
				}
			}
			for _, name := range p.Rules.RunBefore() {
				q, ok := byName[name]
				if !ok {
					continue
				}
				if q.Order() <= p.Order() {
					q.SetOrder(p.Order() + 1)
					changed = true
				}
			}
		}
		if !changed {
			return nil
		}
	}
	return &ErrDepsolveFailed{Pass: "order"}
}

// relaxPriority raises priority via better_than(Q) rules: P's priority must
// exceed Q's, with the same fixed-point/100-pass-cap shape as relaxOrder
// (spec.md §4.4 "second fixed-point raises priority via better_than").
func relaxPriority(plugins []*plugin.Plugin, byName map[string]*plugin.Plugin) error {
	for pass := 0; pass < maxRelaxationPasses; pass++ {
		changed := false
		for _, p := range plugins {
			for _, name := range p.Rules.BetterThan() {
				q, ok := byName[name]
				if !ok {
					continue
				}
				if p.Priority() <= q.Priority() {
					p.SetPriority(q.Priority() + 1)
					changed = true
				}
			}
		}
		if !changed {
			return nil
		}
	}
	return &ErrDepsolveFailed{Pass: "priority"}
}
