package plugin

// RuleKind names one of a Plugin's four ordered rule sets (spec.md §3.6).
type RuleKind int

const (
	RunAfter RuleKind = iota
	RunBefore
	BetterThan
	Conflicts
)

// Rules holds the four named-plugin relationships a Plugin can declare.
// Each set is ordered (insertion order matters for readability and for
// deterministic iteration during depsolve) but semantically behaves as a
// set: adding the same name twice is a no-op.
type Rules struct {
	runAfter   []string
	runBefore  []string
	betterThan []string
	conflicts  []string
}

func (r *Rules) add(set *[]string, name string) {
	for _, existing := range *set {
		if existing == name {
			return
		}
	}
	*set = append(*set, name)
}

// AddRunAfter declares that this plugin must run after name.
func (r *Rules) AddRunAfter(name string) { r.add(&r.runAfter, name) }

// AddRunBefore declares that this plugin must run before name.
func (r *Rules) AddRunBefore(name string) { r.add(&r.runBefore, name) }

// AddBetterThan declares that this plugin's results should be preferred
// over name's during dedupe priority resolution.
func (r *Rules) AddBetterThan(name string) { r.add(&r.betterThan, name) }

// AddConflicts declares that enabling this plugin disables name.
func (r *Rules) AddConflicts(name string) { r.add(&r.conflicts, name) }

func (r *Rules) RunAfter() []string   { return append([]string(nil), r.runAfter...) }
func (r *Rules) RunBefore() []string  { return append([]string(nil), r.runBefore...) }
func (r *Rules) BetterThan() []string { return append([]string(nil), r.betterThan...) }
func (r *Rules) Conflicts() []string  { return append([]string(nil), r.conflicts...) }
