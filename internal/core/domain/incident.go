package domain

import "time"

// Incident is one continuous down period of one service.
type Incident struct {
	ID          int64
	ServiceID   string
	ServiceName string
	RegionID    string
	RegionName  string
	StartedAt   int64 // epoch millis of the cycle that first observed down
	ResolvedAt  int64 // epoch millis of the recovering cycle, 0 while open
	LastError   string
}

// IsOpen reports whether the incident has not been resolved yet.
func (i *Incident) IsOpen() bool {
	return i.ResolvedAt == 0
}

// Elapsed returns the length of the incident, measured up to now while it is open.
func (i *Incident) Elapsed(now time.Time) time.Duration {
	end := i.ResolvedAt
	if end == 0 {
		end = now.UnixMilli()
	}
	if end < i.StartedAt {
		return 0
	}
	return time.Duration(end-i.StartedAt) * time.Millisecond
}

// ChangeKind is the kind of mutation applied to the incident ledger.
type ChangeKind string

const (
	ChangeNone    ChangeKind = "none"
	ChangeOpen    ChangeKind = "open"
	ChangeRefresh ChangeKind = "refresh"
	ChangeResolve ChangeKind = "resolve"
)

// IncidentChange describes how one observation mutates the incident ledger.
//
// For ChangeOpen, Incident is the new row (ID unset). For ChangeRefresh and
// ChangeResolve it identifies the open row and carries the new LastError or
// ResolvedAt. Storage returns the change it actually applied, with Incident
// holding the persisted row.
type IncidentChange struct {
	Kind     ChangeKind
	Incident *Incident
}

// NoChange is the zero-effect ledger change.
var NoChange = IncidentChange{Kind: ChangeNone}
