package classifier

import "github.com/vietddude/statuswatch/internal/core/domain"

// Rollup derives an aggregate status from child statuses.
//
//   - down: every child is down (and there is at least one child)
//   - degraded: at least one child is not operational
//   - operational: otherwise, including no children
//
// The same rule is used for service -> region and region/service -> system.
func Rollup(children []domain.Status) domain.Status {
	if len(children) == 0 {
		return domain.StatusOperational
	}

	down, unhealthy := 0, 0
	for _, s := range children {
		switch s {
		case domain.StatusDown:
			down++
			unhealthy++
		case domain.StatusDegraded:
			unhealthy++
		case domain.StatusOperational:
		default:
			// Unknown children count as unhealthy so they are never hidden.
			unhealthy++
		}
	}

	switch {
	case down == len(children):
		return domain.StatusDown
	case unhealthy > 0:
		return domain.StatusDegraded
	default:
		return domain.StatusOperational
	}
}
