package ingest

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrMalformedPayload is returned when the upstream answered with a body
	// that could not be parsed. The upstream monitor check is still recorded.
	ErrMalformedPayload = errors.New("malformed upstream payload")

	// ErrCycleInProgress is returned when another cycle holds the cycle lock.
	ErrCycleInProgress = errors.New("ingestion cycle already in progress")
)

// UpstreamState is the reachability of the upstream source in one cycle.
type UpstreamState string

const (
	UpstreamUp   UpstreamState = "up"
	UpstreamDown UpstreamState = "down"
)

// Cycle identifies one ingestion run. Every check written in a cycle shares
// its timestamp.
type Cycle struct {
	ID        string
	Timestamp int64 // epoch millis
}

// NewCycle starts a cycle at the given time.
func NewCycle(now time.Time) Cycle {
	return Cycle{ID: uuid.NewString(), Timestamp: now.UnixMilli()}
}

// Failure is a service whose processing failed within a cycle.
type Failure struct {
	ServiceID string `json:"serviceId"`
	Error     string `json:"error"`
}

// CycleResult summarises one ingestion cycle.
type CycleResult struct {
	CycleID   string        `json:"cycleId"`
	Timestamp int64         `json:"timestamp"`
	Upstream  UpstreamState `json:"upstream"`
	Processed int           `json:"processed"`
	Failures  []Failure     `json:"failures"`
}

func newResult(c Cycle) *CycleResult {
	return &CycleResult{
		CycleID:   c.ID,
		Timestamp: c.Timestamp,
		Upstream:  UpstreamUp,
		Failures:  []Failure{},
	}
}
