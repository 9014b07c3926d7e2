// Package notify delivers service down/recovered notifications to a webhook sink.
package notify

import (
	"context"
	"time"
)

// Kind is the notification type.
type Kind string

const (
	KindDown      Kind = "down"
	KindRecovered Kind = "recovered"
)

// Notification describes one status transition of a service.
type Notification struct {
	Kind        Kind
	ServiceName string
	RegionName  string
	Error       string // down only
	Duration    string // recovered only
	Time        time.Time
}

// Notifier sends notifications. Implementations must honour ctx deadlines.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Noop discards every notification.
type Noop struct{}

// Notify implements Notifier.
func (Noop) Notify(context.Context, Notification) error { return nil }
