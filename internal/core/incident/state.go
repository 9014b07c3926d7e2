package incident

import (
	"errors"

	"github.com/vietddude/statuswatch/internal/core/domain"
	"github.com/vietddude/statuswatch/internal/core/transition"
)

// ErrInvalidTransition is returned when an observation would move a service
// between ledger states in a way the state machine does not allow.
var ErrInvalidTransition = errors.New("invalid incident state transition")

// State is the ledger state of one service.
type State string

const (
	// StateClosed means the service has no open incident.
	StateClosed State = "closed"

	// StateOpen means the service has exactly one open incident.
	StateOpen State = "open"
)

// StateOf returns the ledger state implied by the service's open incident.
func StateOf(open *domain.Incident) State {
	if open != nil && open.IsOpen() {
		return StateOpen
	}
	return StateClosed
}

// ValidChanges defines which ledger changes each state allows.
// Key is the current state, value is the list of valid changes.
var ValidChanges = map[State][]domain.ChangeKind{
	StateClosed: {domain.ChangeNone, domain.ChangeOpen},
	StateOpen:   {domain.ChangeNone, domain.ChangeRefresh, domain.ChangeResolve},
}

// CanApply checks if a change is valid in the given state.
func CanApply(from State, kind domain.ChangeKind) bool {
	for _, k := range ValidChanges[from] {
		if k == kind {
			return true
		}
	}
	return false
}

// nextState returns the ledger state after a change has been applied.
func nextState(from State, kind domain.ChangeKind) State {
	switch kind {
	case domain.ChangeOpen, domain.ChangeRefresh:
		return StateOpen
	case domain.ChangeResolve:
		return StateClosed
	default:
		return from
	}
}

// Describe returns a human-readable description of a transition kind in the
// given state, used in logs.
func Describe(s State, k transition.Kind) string {
	switch {
	case s == StateClosed && k == transition.Onset:
		return "service went down, opening incident"
	case s == StateOpen && k == transition.Recovery:
		return "service recovered, resolving incident"
	case s == StateOpen && k == transition.Onset:
		return "service went down with an incident already open"
	case s == StateClosed && k == transition.Recovery:
		return "service recovered without an open incident"
	case s == StateOpen:
		return "incident still open"
	default:
		return "no incident"
	}
}
