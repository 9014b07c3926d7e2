package ingest

import (
	"github.com/vietddude/statuswatch/internal/core/classifier"
	"github.com/vietddude/statuswatch/internal/core/domain"
	"github.com/vietddude/statuswatch/internal/infra/upstream"
)

// serviceInput is one service measurement flattened with its region.
type serviceInput struct {
	regionID    string
	regionName  string
	serviceID   string
	serviceName string
	probe       classifier.Probe
}

// monitorInput turns the upstream exchange itself into a measurement of the
// upstream monitor pseudo-service.
func monitorInput(resp upstream.Response, fetchErr error) serviceInput {
	probe := classifier.Probe{
		LatencyMs:  resp.Latency.Milliseconds(),
		StatusCode: resp.StatusCode,
	}
	if fetchErr != nil {
		probe.Error = fetchErr.Error()
	}
	return serviceInput{
		regionID:    domain.MonitorRegionID,
		regionName:  domain.MonitorRegionName,
		serviceID:   domain.MonitorServiceID,
		serviceName: domain.MonitorServiceName,
		probe:       probe,
	}
}

// groupByService flattens the payload into per-service groups in payload
// order. Entries sharing a service ID land in the same group.
func groupByService(p *upstream.Payload) [][]serviceInput {
	var groups [][]serviceInput
	index := make(map[string]int)

	for _, r := range p.Regions {
		for _, s := range r.Services {
			in := serviceInput{
				regionID:    r.ID,
				regionName:  r.Name,
				serviceID:   s.ID,
				serviceName: s.Name,
				probe:       s.Probe(),
			}
			if i, ok := index[s.ID]; ok {
				groups[i] = append(groups[i], in)
				continue
			}
			index[s.ID] = len(groups)
			groups = append(groups, []serviceInput{in})
		}
	}
	return groups
}
