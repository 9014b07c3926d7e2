// Package transition decides whether a new observation of a service crosses
// the down boundary relative to its previous latest check.
package transition

import "github.com/vietddude/statuswatch/internal/core/domain"

// Kind is the outcome of comparing two consecutive observations.
type Kind string

const (
	// None means the service stayed on the same side of the down boundary,
	// or there was no previous observation to compare against.
	None Kind = "none"

	// Onset means the service went from not-down to down.
	Onset Kind = "onset"

	// Recovery means the service went from down to not-down.
	Recovery Kind = "recovery"
)

// Detect compares the previous latest check of a service with its newly
// observed status. A nil previous check always yields None: a service never
// goes down or recovers relative to no history.
//
// Only down counts. Moving between operational and degraded is not a transition.
func Detect(last *domain.Check, current domain.Status) Kind {
	if last == nil {
		return None
	}

	wasDown := last.Status.IsDown()
	isDown := current.IsDown()

	switch {
	case !wasDown && isDown:
		return Onset
	case wasDown && !isDown:
		return Recovery
	default:
		return None
	}
}
