// Package incident owns the incident lifecycle of every monitored service.
//
// Each service is in one of two ledger states:
//
//	CLOSED --onset-----> OPEN     new incident, startedAt = cycle time
//	OPEN   --still down-> OPEN    lastError refreshed when it changed
//	OPEN   --recovery--> CLOSED   resolvedAt = cycle time
//	CLOSED --not down--> CLOSED   no-op
//
// Only transitions into and out of down open or close incidents; degraded is
// visible in status but never creates a ledger entry.
//
// The Tracker decides the change purely from the previous ledger state and the
// detected transition, then commits the check and the change in one unit of
// work so the two can never disagree after a crash.
package incident

import (
	"context"
	"fmt"

	"github.com/vietddude/statuswatch/internal/core/domain"
	"github.com/vietddude/statuswatch/internal/core/transition"
	"github.com/vietddude/statuswatch/internal/infra/storage"
)

// Outcome is the result of applying one observation to the ledger.
type Outcome struct {
	From     State
	To       State
	Decided  domain.IncidentChange
	Applied  domain.IncidentChange
	Incident *domain.Incident // persisted row after the change, nil if none

	// Reconciled is set when the ledger changed without the matching
	// transition, e.g. a service whose first observation is down.
	Reconciled bool
}

// Opened reports whether this observation created a new incident.
func (o *Outcome) Opened() bool {
	return o.Applied.Kind == domain.ChangeOpen
}

// Resolved reports whether this observation closed an incident.
func (o *Outcome) Resolved() bool {
	return o.Applied.Kind == domain.ChangeResolve
}

// Tracker applies observations to the incident ledger.
type Tracker struct {
	recorder storage.Recorder
}

// NewTracker creates a tracker that persists through the given recorder.
func NewTracker(recorder storage.Recorder) *Tracker {
	return &Tracker{recorder: recorder}
}

// Decide returns the ledger change for a check given the service's currently
// open incident (nil when closed) and the detected transition. It has no side
// effects.
//
// The ledger follows the down-ness of the newest check: an onset opens, a
// recovery resolves. A service whose very first observation is down has no
// transition (there is nothing to compare against) but still gets an incident
// starting at that cycle, so the ledger never misses a down period.
func (t *Tracker) Decide(open *domain.Incident, check *domain.Check, kind transition.Kind) domain.IncidentChange {
	state := StateOf(open)
	isDown := check.Status.IsDown()

	switch {
	case state == StateClosed && isDown:
		return domain.IncidentChange{
			Kind: domain.ChangeOpen,
			Incident: &domain.Incident{
				ServiceID:   check.ServiceID,
				ServiceName: check.ServiceName,
				RegionID:    check.RegionID,
				RegionName:  check.RegionName,
				StartedAt:   check.Timestamp,
				LastError:   check.Error,
			},
		}

	case state == StateOpen && !isDown:
		resolved := *open
		resolved.ResolvedAt = check.Timestamp
		return domain.IncidentChange{Kind: domain.ChangeResolve, Incident: &resolved}

	case state == StateOpen && isDown:
		if check.Error == open.LastError {
			return domain.NoChange
		}
		refreshed := *open
		refreshed.LastError = check.Error
		return domain.IncidentChange{Kind: domain.ChangeRefresh, Incident: &refreshed}
	}

	return domain.NoChange
}

// expected reports whether a change is the one the transition calls for.
func expected(kind transition.Kind, change domain.ChangeKind) bool {
	switch change {
	case domain.ChangeOpen:
		return kind == transition.Onset
	case domain.ChangeResolve:
		return kind == transition.Recovery
	default:
		return kind == transition.None || kind == transition.Onset
	}
}

// Apply decides the ledger change and records it together with the check.
func (t *Tracker) Apply(
	ctx context.Context,
	open *domain.Incident,
	check *domain.Check,
	kind transition.Kind,
) (*Outcome, error) {
	from := StateOf(open)
	decided := t.Decide(open, check, kind)

	if !CanApply(from, decided.Kind) {
		return nil, fmt.Errorf("%w: cannot %s from %s", ErrInvalidTransition, decided.Kind, from)
	}

	applied, err := t.recorder.Record(ctx, check, decided)
	if err != nil {
		return nil, fmt.Errorf("failed to record check for %s: %w", check.ServiceID, err)
	}

	outcome := &Outcome{
		From:       from,
		To:         nextState(from, applied.Kind),
		Decided:    decided,
		Applied:    applied,
		Incident:   applied.Incident,
		Reconciled: !expected(kind, decided.Kind),
	}
	if outcome.Incident == nil && applied.Kind == domain.ChangeNone && from == StateOpen {
		outcome.Incident = open
	}
	return outcome, nil
}
