package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownStatus is returned when a status string is not one of the known values.
var ErrUnknownStatus = errors.New("unknown status")

// Status is the availability of a service, region or the whole system.
// The zero value means "no status" and is never stored.
type Status uint8

const (
	StatusOperational Status = iota + 1
	StatusDegraded
	StatusDown
)

// ParseStatus parses the text form of a status.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "operational":
		return StatusOperational, nil
	case "degraded":
		return StatusDegraded, nil
	case "down":
		return StatusDown, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

// String returns the lower-case name used on the wire and in storage.
func (s Status) String() string {
	switch s {
	case StatusOperational:
		return "operational"
	case StatusDegraded:
		return "degraded"
	case StatusDown:
		return "down"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOperational, StatusDegraded, StatusDown:
		return true
	default:
		return false
	}
}

// IsDown reports whether s is StatusDown.
func (s Status) IsDown() bool {
	return s == StatusDown
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	v, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
