package memory

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/vietddude/statuswatch/internal/core/domain"
)

func check(ts int64, region, service string, status domain.Status) *domain.Check {
	return &domain.Check{
		Timestamp:   ts,
		RegionID:    region,
		RegionName:  region,
		ServiceID:   service,
		ServiceName: service,
		Status:      status,
		StatusCode:  200,
	}
}

func record(t *testing.T, s *MemoryStorage, c *domain.Check, change domain.IncidentChange) domain.IncidentChange {
	t.Helper()
	applied, err := s.Record(context.Background(), c, change)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	return applied
}

func TestGetLatestTieBreaksOnInsertionOrder(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	record(t, s, check(1000, "eu", "api", domain.StatusOperational), domain.NoChange)
	record(t, s, check(1000, "eu", "api", domain.StatusDown), domain.NoChange)

	for i := 0; i < 5; i++ {
		latest, err := s.GetLatest(ctx, "api")
		if err != nil {
			t.Fatalf("GetLatest failed: %v", err)
		}
		if latest.Status != domain.StatusDown || latest.ID != 2 {
			t.Fatalf("expected second insert to win, got %+v", latest)
		}
	}
}

func TestGetLatestMissing(t *testing.T) {
	s := NewMemoryStorage()
	latest, err := s.GetLatest(context.Background(), "nope")
	if err != nil || latest != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", latest, err)
	}
}

func TestGetLatestAllOrdering(t *testing.T) {
	s := NewMemoryStorage()
	record(t, s, check(1000, "US East", "db", domain.StatusOperational), domain.NoChange)
	record(t, s, check(1000, "EU West", "storage", domain.StatusOperational), domain.NoChange)
	record(t, s, check(1000, "EU West", "auth", domain.StatusOperational), domain.NoChange)
	record(t, s, check(2000, "US East", "db", domain.StatusDegraded), domain.NoChange)

	all, err := s.GetLatestAll(context.Background())
	if err != nil {
		t.Fatalf("GetLatestAll failed: %v", err)
	}

	var got []string
	for _, c := range all {
		got = append(got, c.RegionName+"/"+c.ServiceID+"/"+c.Status.String())
	}
	want := []string{"EU West/auth/operational", "EU West/storage/operational", "US East/db/degraded"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetLatestAll mismatch (-want +got):\n%s", diff)
	}
}

func TestGetHistoryWindowAndLimit(t *testing.T) {
	s := NewMemoryStorage()
	for ts := int64(1000); ts <= 10000; ts += 1000 {
		record(t, s, check(ts, "eu", "api", domain.StatusOperational), domain.NoChange)
	}

	history, err := s.GetHistory(context.Background(), 4000, 3)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}

	var got []int64
	for _, c := range history["api"] {
		got = append(got, c.Timestamp)
	}
	if diff := cmp.Diff([]int64{8000, 9000, 10000}, got); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordEnforcesSingleOpenIncident(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	open := domain.IncidentChange{
		Kind:     domain.ChangeOpen,
		Incident: &domain.Incident{ServiceID: "api", StartedAt: 1000, LastError: "first"},
	}
	applied := record(t, s, check(1000, "eu", "api", domain.StatusDown), open)
	if applied.Kind != domain.ChangeOpen {
		t.Fatalf("expected open, got %s", applied.Kind)
	}

	second := domain.IncidentChange{
		Kind:     domain.ChangeOpen,
		Incident: &domain.Incident{ServiceID: "api", StartedAt: 2000, LastError: "second"},
	}
	applied = record(t, s, check(2000, "eu", "api", domain.StatusDown), second)
	if applied.Kind != domain.ChangeRefresh {
		t.Fatalf("duplicate open should degrade to refresh, got %s", applied.Kind)
	}

	all, _ := s.GetAllOpen(ctx)
	if len(all) != 1 {
		t.Fatalf("expected exactly one open incident, got %d", len(all))
	}
	if all[0].StartedAt != 1000 || all[0].LastError != "second" {
		t.Errorf("unexpected incident: %+v", all[0])
	}
}

func TestRecordResolveWithoutOpenIncident(t *testing.T) {
	s := NewMemoryStorage()
	resolve := domain.IncidentChange{
		Kind:     domain.ChangeResolve,
		Incident: &domain.Incident{ServiceID: "api", ResolvedAt: 5000},
	}
	applied := record(t, s, check(5000, "eu", "api", domain.StatusOperational), resolve)
	if applied.Kind != domain.ChangeNone {
		t.Errorf("expected none, got %s", applied.Kind)
	}
}

func TestRecordRejectsInvalidCheck(t *testing.T) {
	s := NewMemoryStorage()
	_, err := s.Record(context.Background(), &domain.Check{ServiceID: "api"}, domain.NoChange)
	if err == nil {
		t.Fatal("expected error for check without status")
	}
}

func TestGetRecentOrdering(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	openChange := func(svc string, ts int64) domain.IncidentChange {
		return domain.IncidentChange{
			Kind:     domain.ChangeOpen,
			Incident: &domain.Incident{ServiceID: svc, StartedAt: ts},
		}
	}
	record(t, s, check(1000, "eu", "a", domain.StatusDown), openChange("a", 1000))
	record(t, s, check(2000, "eu", "b", domain.StatusDown), openChange("b", 2000))
	record(t, s, check(3000, "eu", "c", domain.StatusDown), openChange("c", 3000))
	record(t, s, check(4000, "eu", "c", domain.StatusOperational), domain.IncidentChange{
		Kind:     domain.ChangeResolve,
		Incident: &domain.Incident{ServiceID: "c", ResolvedAt: 4000},
	})

	recent, err := s.GetRecent(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}

	want := []*domain.Incident{
		{ID: 2, ServiceID: "b", StartedAt: 2000},
		{ID: 1, ServiceID: "a", StartedAt: 1000},
		{ID: 3, ServiceID: "c", StartedAt: 3000, ResolvedAt: 4000},
	}
	if diff := cmp.Diff(want, recent, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("GetRecent mismatch (-want +got):\n%s", diff)
	}

	limited, _ := s.GetRecent(ctx, 1)
	if len(limited) != 1 || limited[0].ServiceID != "b" {
		t.Errorf("limit not applied: %+v", limited)
	}
}
