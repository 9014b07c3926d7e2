package aggregate

import (
	"time"

	"github.com/vietddude/statuswatch/internal/core/domain"
)

// SystemStatus is the full read model served to presentation consumers.
type SystemStatus struct {
	Status    domain.Status `json:"status"`
	Timestamp time.Time     `json:"timestamp"` // newest check in the latest batch
	Regions   []Region      `json:"regions"`
	Incidents []Incident    `json:"incidents"`
}

// Region is a rolled-up group of services.
type Region struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Status   domain.Status `json:"status"`
	Services []Service     `json:"services"`
}

// Service is the latest state of one service plus its recent history.
type Service struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Status      domain.Status  `json:"status"`
	StatusCode  int            `json:"statusCode"`
	Latency     int64          `json:"latency"`
	LastChecked time.Time      `json:"lastChecked"`
	Error       *string        `json:"error"`
	History     []HistoryPoint `json:"history"`
}

// HistoryPoint is one past check, ascending by timestamp.
type HistoryPoint struct {
	Status    domain.Status `json:"status"`
	Latency   int64         `json:"latency"`
	Timestamp int64         `json:"timestamp"`
}

// Incident is an incident with its formatted duration.
type Incident struct {
	ID          int64      `json:"id"`
	ServiceID   string     `json:"serviceId"`
	ServiceName string     `json:"serviceName"`
	RegionID    string     `json:"regionId"`
	RegionName  string     `json:"regionName"`
	StartedAt   time.Time  `json:"startedAt"`
	ResolvedAt  *time.Time `json:"resolvedAt"`
	LastError   *string    `json:"lastError"`
	Duration    string     `json:"duration"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func millis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
