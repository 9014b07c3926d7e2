package transition

import (
	"testing"

	"github.com/vietddude/statuswatch/internal/core/domain"
)

func TestDetect(t *testing.T) {
	statuses := []domain.Status{domain.StatusOperational, domain.StatusDegraded, domain.StatusDown}

	tests := []struct {
		name     string
		previous domain.Status
		current  domain.Status
		expected Kind
	}{
		{"down to down", domain.StatusDown, domain.StatusDown, None},
		{"down to operational", domain.StatusDown, domain.StatusOperational, Recovery},
		{"down to degraded", domain.StatusDown, domain.StatusDegraded, Recovery},
		{"operational to down", domain.StatusOperational, domain.StatusDown, Onset},
		{"degraded to down", domain.StatusDegraded, domain.StatusDown, Onset},
		{"operational to degraded", domain.StatusOperational, domain.StatusDegraded, None},
		{"degraded to operational", domain.StatusDegraded, domain.StatusOperational, None},
		{"operational to operational", domain.StatusOperational, domain.StatusOperational, None},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			last := &domain.Check{Status: tt.previous}
			if got := Detect(last, tt.current); got != tt.expected {
				t.Errorf("Detect(%s, %s) = %s, want %s", tt.previous, tt.current, got, tt.expected)
			}
		})
	}

	t.Run("no history", func(t *testing.T) {
		for _, s := range statuses {
			if got := Detect(nil, s); got != None {
				t.Errorf("Detect(nil, %s) = %s, want none", s, got)
			}
		}
	})
}
