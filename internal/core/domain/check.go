package domain

import "time"

// Check is one immutable observation of a service, written once per cycle.
type Check struct {
	ID          int64 // storage insertion order, 0 until stored
	Timestamp   int64 // epoch millis of the cycle
	RegionID    string
	RegionName  string
	ServiceID   string
	ServiceName string
	Status      Status
	StatusCode  int
	LatencyMs   int64
	Error       string // empty means no error
}

// Time returns the cycle timestamp as a time.Time.
func (c *Check) Time() time.Time {
	return time.UnixMilli(c.Timestamp)
}

// Newer reports whether c should win over other when picking the latest check
// of a service: higher timestamp first, then higher insertion ID.
func (c *Check) Newer(other *Check) bool {
	if other == nil {
		return true
	}
	if c.Timestamp != other.Timestamp {
		return c.Timestamp > other.Timestamp
	}
	return c.ID > other.ID
}
