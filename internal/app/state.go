package app

import "fmt"

// State is an App's position in the install lifecycle (spec.md §3.2).
type State string

const (
	StateUnknown          State = "unknown"
	StateInstalled        State = "installed"
	StateAvailable        State = "available"
	StateAvailableLocal   State = "available-local"
	StateUpdatable        State = "updatable"
	StateUpdatableLive    State = "updatable-live"
	StateInstalling       State = "installing"
	StateDownloading      State = "downloading"
	StateRemoving         State = "removing"
	StateQueuedForInstall State = "queued-for-install"
	StateUnavailable      State = "unavailable"
	StatePendingInstall   State = "pending-install"
	StatePendingRemove    State = "pending-remove"
	StatePurchasing       State = "purchasing"
)

// legalTransitions enumerates the state machine from spec.md §3.2. A
// transition to StateUnavailable is legal from any state, so it is checked
// separately rather than listed under every source state.
var legalTransitions = map[State]map[State]bool{
	StateUnknown: {
		StateAvailable:      true,
		StateAvailableLocal: true,
		StateInstalled:      true,
	},
	StateAvailable: {
		StateInstalling:       true,
		StateQueuedForInstall: true,
	},
	StateAvailableLocal: {
		StateInstalling: true,
	},
	StateInstalled: {
		StateRemoving:      true,
		StateUpdatable:     true,
		StateUpdatableLive: true,
	},
	StateUpdatable: {
		StateInstalling: true,
	},
	StateUpdatableLive: {
		StateInstalling: true,
	},
	StateInstalling: {
		StateInstalled:      true,
		StatePendingInstall: true,
	},
	StateDownloading: {
		StateInstalling: true,
	},
	StateRemoving: {
		StateUnknown:       true,
		StatePendingRemove: true,
	},
	StateQueuedForInstall: {
		StateInstalling: true,
		StateAvailable:  true, // state_recover after a failed flush (spec.md §4.6)
	},
	StatePendingInstall: {},
	StatePendingRemove:  {},
	StateUnavailable:    {},
	StatePurchasing: {
		StateInstalling: true,
		StateAvailable:  true,
	},
}

// CanTransition reports whether from -> to is a legal transition under
// spec.md §3.2. Transitioning to StateUnavailable is always legal, and a
// state may always transition to itself (a no-op refresh).
func CanTransition(from, to State) bool {
	if from == to {
		return true
	}
	if to == StateUnavailable {
		return true
	}
	return legalTransitions[from][to]
}

// ErrIllegalTransition is returned by App.SetState for a transition not
// permitted by spec.md §3.2.
type ErrIllegalTransition struct {
	From, To State
}

func (e *ErrIllegalTransition) Error() string {
	return fmt.Sprintf("illegal state transition: %s -> %s", e.From, e.To)
}
