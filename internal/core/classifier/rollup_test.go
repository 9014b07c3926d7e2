package classifier

import (
	"testing"

	"github.com/vietddude/statuswatch/internal/core/domain"
)

const (
	op   = domain.StatusOperational
	deg  = domain.StatusDegraded
	down = domain.StatusDown
)

func TestRollup(t *testing.T) {
	tests := []struct {
		name     string
		children []domain.Status
		want     domain.Status
	}{
		{"empty", nil, op},
		{"all operational", []domain.Status{op, op, op}, op},
		{"one down of three", []domain.Status{op, op, down}, deg},
		{"one degraded", []domain.Status{op, deg}, deg},
		{"all down", []domain.Status{down, down}, down},
		{"single down", []domain.Status{down}, down},
		{"down and degraded", []domain.Status{down, deg}, deg},
		{"all degraded", []domain.Status{deg, deg}, deg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Rollup(tt.children); got != tt.want {
				t.Errorf("Rollup(%v) = %s, want %s", tt.children, got, tt.want)
			}
		})
	}
}

func TestRollupAddingDownNeverOperational(t *testing.T) {
	children := []domain.Status{}
	for n := 0; n < 10; n++ {
		withDown := append(append([]domain.Status{}, children...), down)
		if got := Rollup(withDown); got == op {
			t.Fatalf("Rollup(%v) = operational after adding down", withDown)
		}
		children = append(children, op)
	}
}

func TestRollupAllDownIsDownNotDegraded(t *testing.T) {
	for n := 1; n <= 10; n++ {
		children := make([]domain.Status, n)
		for i := range children {
			children[i] = down
		}
		if got := Rollup(children); got != down {
			t.Fatalf("Rollup(%d x down) = %s, want down", n, got)
		}
	}
}
