package domain

// Identity of the upstream monitor, the pseudo-service that records whether the
// upstream probe API itself was reachable in a cycle.
const (
	MonitorRegionID    = "monitor"
	MonitorRegionName  = "Monitor"
	MonitorServiceID   = "upstream-api"
	MonitorServiceName = "Upstream Status API"
)
